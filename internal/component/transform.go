package component

import "github.com/l1jgo/simcore/internal/spatial"

// Transform places an entity in the world. Rotation is Euler angles in radians.
type Transform struct {
	Position spatial.Vec3
	Rotation spatial.Vec3
	Scale    spatial.Vec3
}

func NewTransform(pos spatial.Vec3) Transform {
	return Transform{Position: pos, Scale: spatial.V(1, 1, 1)}
}

// Name labels an entity for logs and scripts.
type Name struct {
	Value string
}
