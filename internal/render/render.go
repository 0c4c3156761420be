package render

import (
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/spatial"
)

// Instance is one draw request. Mesh and Material are identifiers resolved
// by the renderer's own resource cache.
type Instance struct {
	Entity   ecs.Entity
	Mesh     string
	Material string
	Position spatial.Vec3
	Rotation spatial.Vec3
	Scale    spatial.Vec3
}

// View is the camera state the renderer draws from.
type View struct {
	Eye     spatial.Vec3
	Forward spatial.Vec3
	FOV     float64
	Near    float64
	Far     float64
}

// Renderer consumes the per-frame instance list. Implementations must not
// retain the slice after Draw returns.
type Renderer interface {
	Draw(view View, instances []Instance) error
}
