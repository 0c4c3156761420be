package system

import (
	"math"
	"time"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/render"
	"github.com/l1jgo/simcore/internal/spatial"
)

// CameraSystem places each camera at its entity's eye and points it along
// the entity's yaw and the controller's pitch.
// Phase 3 (PreRender). Parallel-safe: writes only Camera.
type CameraSystem struct {
	world *ecs.World
}

func NewCameraSystem(world *ecs.World) *CameraSystem {
	return &CameraSystem{world: world}
}

func (s *CameraSystem) Name() string         { return "camera" }
func (s *CameraSystem) Phase() coresys.Phase { return coresys.PhasePreRender }
func (s *CameraSystem) ParallelSafe() bool   { return true }

func (s *CameraSystem) Update(_ time.Duration) error {
	cams, err := ecs.StoreOf[component.Camera](s.world)
	if err != nil {
		return err
	}
	transforms, err := ecs.StoreOf[component.Transform](s.world)
	if err != nil {
		return err
	}
	controllers, err := ecs.StoreOf[component.PlayerController](s.world)
	if err != nil {
		return err
	}

	cams.EachMut(func(e ecs.Entity, c *component.Camera) {
		t, ok := transforms.Value(e)
		if !ok {
			return
		}
		var pitch float64
		if pc, ok := controllers.Value(e); ok {
			pitch = pc.Pitch
		}
		c.Eye = t.Position.Add(spatial.V(0, c.EyeHeight, 0))
		c.Forward = forward(t.Rotation.Y, pitch)
	})
	return nil
}

// forward is the unit view direction; yaw 0 looks down +Z and positive
// pitch looks down.
func forward(yaw, pitch float64) spatial.Vec3 {
	sy, cy := math.Sincos(yaw)
	sp, cp := math.Sincos(pitch)
	return spatial.V(sy*cp, -sp, cy*cp)
}

// ActiveView returns the view of the first active camera.
func ActiveView(w *ecs.World) (render.View, bool) {
	cams, err := ecs.StoreOf[component.Camera](w)
	if err != nil {
		return render.View{}, false
	}
	var (
		view  render.View
		found bool
	)
	cams.Each(func(_ ecs.Entity, c *component.Camera) {
		if found || !c.Active {
			return
		}
		view = render.View{Eye: c.Eye, Forward: c.Forward, FOV: c.FOV, Near: c.Near, Far: c.Far}
		found = true
	})
	return view, found
}
