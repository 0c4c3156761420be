package component

import (
	"github.com/l1jgo/simcore/internal/input"
	"github.com/l1jgo/simcore/internal/spatial"
)

// Input receives the polled input state. InputSystem writes it once per
// PreUpdate; Move is the normalised local movement direction on X/Z.
type Input struct {
	Down     input.Actions
	Pressed  input.Actions
	Released input.Actions
	Move     spatial.Vec3
	LookDX   float64
	LookDY   float64
}

// PlayerController tunes first-person movement. Pitch is the view pitch;
// yaw lives in the Transform rotation.
type PlayerController struct {
	MoveSpeed        float64
	JumpSpeed        float64
	MouseSensitivity float64
	Pitch            float64
	CanJump          bool
}

func NewPlayerController() PlayerController {
	return PlayerController{
		MoveSpeed:        5,
		JumpSpeed:        8,
		MouseSensitivity: 0.002,
		CanJump:          true,
	}
}

// Camera follows its entity's transform. CameraSystem fills Eye and Forward.
type Camera struct {
	FOV       float64 // radians
	Near      float64
	Far       float64
	EyeHeight float64
	Active    bool

	Eye     spatial.Vec3
	Forward spatial.Vec3
}

func NewCamera() Camera {
	return Camera{FOV: 1.0472, Near: 0.1, Far: 1000, EyeHeight: 1.6, Active: true}
}
