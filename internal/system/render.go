package system

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/core/event"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/render"
)

// RenderSystem keeps the list of drawable entities. The entity list is
// rebuilt only when an ECS lifecycle event touches Transform or Renderable;
// every frame it refreshes transforms and drops hidden entries.
// Phase 3 (PreRender).
type RenderSystem struct {
	world *ecs.World
	bus   *event.Bus
	log   *zap.Logger

	transformID  ecs.TypeID
	renderableID ecs.TypeID
	sub          *event.Guard
	dirty        atomic.Bool

	cached    []ecs.Entity
	instances []render.Instance
	rebuilds  int
}

func NewRenderSystem(world *ecs.World, bus *event.Bus, log *zap.Logger) *RenderSystem {
	return &RenderSystem{world: world, bus: bus, log: orNop(log)}
}

func (s *RenderSystem) Name() string         { return "render-cache" }
func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhasePreRender }

func (s *RenderSystem) Init() error {
	var err error
	if s.transformID, err = ecs.TypeOf[component.Transform](s.world); err != nil {
		return err
	}
	if s.renderableID, err = ecs.TypeOf[component.Renderable](s.world); err != nil {
		return err
	}
	s.sub = s.bus.SubscribeCategoryGuarded(event.CategoryECS, event.PriorityLow, s.onLifecycle)
	s.dirty.Store(true)
	return nil
}

func (s *RenderSystem) Shutdown() { s.sub.Release() }

func (s *RenderSystem) onLifecycle(_ context.Context, ev *event.Event) {
	switch p := ev.Payload.(type) {
	case ecs.ComponentEvent:
		if p.Type == s.transformID || p.Type == s.renderableID {
			s.dirty.Store(true)
		}
	case ecs.EntityEvent:
		s.dirty.Store(true)
	}
}

func (s *RenderSystem) Update(_ time.Duration) error {
	if s.dirty.Swap(false) {
		s.cached = s.world.Query(ecs.SignatureOf(s.transformID, s.renderableID))
		s.rebuilds++
		s.log.Debug("render cache rebuilt", zap.Int("entities", len(s.cached)))
	}

	s.instances = s.instances[:0]
	for _, e := range s.cached {
		t, ok := ecs.TryGet[component.Transform](s.world, e)
		if !ok {
			continue
		}
		r, ok := ecs.TryGet[component.Renderable](s.world, e)
		if !ok || r.Hidden || r.Mesh == "" {
			continue
		}
		s.instances = append(s.instances, render.Instance{
			Entity:   e,
			Mesh:     r.Mesh,
			Material: r.Material,
			Position: t.Position,
			Rotation: t.Rotation,
			Scale:    t.Scale,
		})
	}
	return nil
}

// Instances returns this frame's draw list. It is reused next frame.
func (s *RenderSystem) Instances() []render.Instance { return s.instances }

// Rebuilds counts cache rebuilds since creation.
func (s *RenderSystem) Rebuilds() int { return s.rebuilds }

// PresentSystem hands the frame to the renderer.
// Phase 4 (Render).
type PresentSystem struct {
	world    *ecs.World
	cache    *RenderSystem
	renderer render.Renderer
}

func NewPresentSystem(world *ecs.World, cache *RenderSystem, renderer render.Renderer) *PresentSystem {
	return &PresentSystem{world: world, cache: cache, renderer: renderer}
}

func (s *PresentSystem) Name() string         { return "present" }
func (s *PresentSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *PresentSystem) Update(_ time.Duration) error {
	view, _ := ActiveView(s.world)
	return s.renderer.Draw(view, s.cache.Instances())
}
