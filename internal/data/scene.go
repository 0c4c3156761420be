package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/ecs"
	"github.com/l1jgo/simcore/internal/spatial"
)

// Scene is a list of entity templates loaded from scene.yaml.
type Scene struct {
	Entities []EntityDef `yaml:"entities"`
}

// EntityDef describes one entity. Every component section is optional;
// an absent section means the component is not attached.
type EntityDef struct {
	Name  string    `yaml:"name"`
	Count int       `yaml:"count"` // copies to spawn, default 1
	Step  []float64 `yaml:"step"`  // position offset between copies

	Transform  *TransformDef  `yaml:"transform"`
	Physics    *PhysicsDef    `yaml:"physics"`
	Collider   *ColliderDef   `yaml:"collider"`
	Renderable *RenderableDef `yaml:"renderable"`
	Health     *HealthDef     `yaml:"health"`
	Player     *PlayerDef     `yaml:"player"`
	Camera     *CameraDef     `yaml:"camera"`
	Projectile *ProjectileDef `yaml:"projectile"`
	Script     *ScriptDef     `yaml:"script"`
	Weapon     *WeaponDef     `yaml:"weapon"`
}

type TransformDef struct {
	Position []float64 `yaml:"position"`
	Rotation []float64 `yaml:"rotation"`
	Scale    []float64 `yaml:"scale"`
}

type PhysicsDef struct {
	Velocity        []float64 `yaml:"velocity"`
	Mass            *float64  `yaml:"mass"`
	Drag            float64   `yaml:"drag"`
	Gravity         *float64  `yaml:"gravity"`
	MaxFallSpeed    *float64  `yaml:"max_fall_speed"`
	UseGravity      *bool     `yaml:"use_gravity"`
	CheckCollisions *bool     `yaml:"check_collisions"`
}

type ColliderDef struct {
	Extents []float64 `yaml:"extents"`
	Offset  []float64 `yaml:"offset"`
	Enabled *bool     `yaml:"enabled"`
}

type RenderableDef struct {
	Mesh     string `yaml:"mesh"`
	Material string `yaml:"material"`
	Hidden   bool   `yaml:"hidden"`
}

type HealthDef struct {
	Max     float64  `yaml:"max"`
	Current *float64 `yaml:"current"`
	Regen   float64  `yaml:"regen"`
}

// PlayerDef attaches PlayerController and Input.
type PlayerDef struct {
	MoveSpeed        *float64 `yaml:"move_speed"`
	JumpSpeed        *float64 `yaml:"jump_speed"`
	MouseSensitivity *float64 `yaml:"mouse_sensitivity"`
}

type CameraDef struct {
	FOV       *float64 `yaml:"fov"`
	Near      *float64 `yaml:"near"`
	Far       *float64 `yaml:"far"`
	EyeHeight *float64 `yaml:"eye_height"`
	Active    *bool    `yaml:"active"`
}

type ProjectileDef struct {
	Direction []float64 `yaml:"direction"`
	Speed     float64   `yaml:"speed"`
	Damage    float64   `yaml:"damage"`
	Lifetime  float64   `yaml:"lifetime"`
}

// WeaponDef attaches a hitscan Weapon. Ammo defaults to a full magazine.
type WeaponDef struct {
	FireRate *float64 `yaml:"fire_rate"`
	Ammo     *int     `yaml:"ammo"`
	MaxAmmo  *int     `yaml:"max_ammo"`
	Damage   *float64 `yaml:"damage"`
	Range    *float64 `yaml:"range"`
}

type ScriptDef struct {
	Behaviour string             `yaml:"behaviour"`
	Params    map[string]float64 `yaml:"params"`
}

// LoadScene loads and validates a scene file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseScene(raw)
}

// ParseScene decodes scene YAML. Unknown keys are rejected so typos in
// component sections do not silently drop a component.
func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	for i := range s.Entities {
		if err := s.Entities[i].validate(); err != nil {
			return nil, fmt.Errorf("parse scene: entity %d (%s): %w", i, s.Entities[i].Name, err)
		}
	}
	return &s, nil
}

// Count returns the total number of entities Spawn would create.
func (s *Scene) Count() int {
	n := 0
	for i := range s.Entities {
		n += s.Entities[i].copies()
	}
	return n
}

// Spawn creates every entity of the scene in w and returns their handles in
// file order. On error the entities created so far are kept.
func (s *Scene) Spawn(ctx context.Context, w *ecs.World) ([]ecs.Entity, error) {
	out := make([]ecs.Entity, 0, s.Count())
	for i := range s.Entities {
		def := &s.Entities[i]
		step := vec(def.Step, spatial.Vec3{})
		for n := 0; n < def.copies(); n++ {
			e, err := def.builder(w, step.Scale(float64(n))).Build(ctx)
			if err != nil {
				return out, fmt.Errorf("spawn %s: %w", def.Name, err)
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *EntityDef) copies() int {
	if d.Count <= 0 {
		return 1
	}
	return d.Count
}

func (d *EntityDef) validate() error {
	vecs := map[string][]float64{"step": d.Step}
	if d.Transform != nil {
		vecs["transform.position"] = d.Transform.Position
		vecs["transform.rotation"] = d.Transform.Rotation
		vecs["transform.scale"] = d.Transform.Scale
	}
	if d.Physics != nil {
		vecs["physics.velocity"] = d.Physics.Velocity
	}
	if d.Collider != nil {
		if len(d.Collider.Extents) == 0 {
			return errors.New("collider.extents required")
		}
		vecs["collider.extents"] = d.Collider.Extents
		vecs["collider.offset"] = d.Collider.Offset
	}
	if d.Projectile != nil {
		vecs["projectile.direction"] = d.Projectile.Direction
	}
	for name, v := range vecs {
		if len(v) != 0 && len(v) != 3 {
			return fmt.Errorf("%s: want 3 values, got %d", name, len(v))
		}
	}
	if d.Health != nil && d.Health.Max <= 0 {
		return errors.New("health.max must be positive")
	}
	if d.Script != nil && d.Script.Behaviour == "" {
		return errors.New("script.behaviour required")
	}
	if wd := d.Weapon; wd != nil {
		if wd.FireRate != nil && *wd.FireRate < 0 {
			return errors.New("weapon.fire_rate must not be negative")
		}
		if wd.Range != nil && *wd.Range <= 0 {
			return errors.New("weapon.range must be positive")
		}
		if wd.MaxAmmo != nil && *wd.MaxAmmo < 0 {
			return errors.New("weapon.max_ammo must not be negative")
		}
		if wd.Ammo != nil && (*wd.Ammo < 0 || wd.MaxAmmo != nil && *wd.Ammo > *wd.MaxAmmo) {
			return fmt.Errorf("weapon.ammo %d out of range", *wd.Ammo)
		}
	}
	return nil
}

// builder maps the definition onto an EntityBuilder. offset shifts the
// position of repeated copies.
func (d *EntityDef) builder(w *ecs.World, offset spatial.Vec3) *ecs.EntityBuilder {
	b := ecs.NewBuilder(w).WithIf(d.Name != "", ecs.C(component.Name{Value: d.Name}))

	if d.Transform != nil || offset != (spatial.Vec3{}) {
		t := component.NewTransform(offset)
		if d.Transform != nil {
			t.Position = vec(d.Transform.Position, spatial.Vec3{}).Add(offset)
			t.Rotation = vec(d.Transform.Rotation, spatial.Vec3{})
			t.Scale = vec(d.Transform.Scale, t.Scale)
		}
		b.With(ecs.C(t))
	}
	if p := d.Physics; p != nil {
		ph := component.NewPhysics()
		ph.Velocity = vec(p.Velocity, spatial.Vec3{})
		ph.Drag = p.Drag
		setF(&ph.Mass, p.Mass)
		setF(&ph.GravityAcceleration, p.Gravity)
		setF(&ph.MaxFallSpeed, p.MaxFallSpeed)
		setB(&ph.UseGravity, p.UseGravity)
		setB(&ph.CheckCollisions, p.CheckCollisions)
		b.With(ecs.C(ph))
	}
	if c := d.Collider; c != nil {
		col := component.NewCollider(vec(c.Extents, spatial.Vec3{}))
		col.Local.Center = vec(c.Offset, spatial.Vec3{})
		setB(&col.Enabled, c.Enabled)
		b.With(ecs.C(col))
	}
	if r := d.Renderable; r != nil {
		b.With(ecs.C(component.Renderable{Mesh: r.Mesh, Material: r.Material, Hidden: r.Hidden}))
	}
	if h := d.Health; h != nil {
		hp := component.NewHealth(h.Max)
		hp.RegenRate = h.Regen
		setF(&hp.Current, h.Current)
		b.With(ecs.C(hp))
	}
	if p := d.Player; p != nil {
		pc := component.NewPlayerController()
		setF(&pc.MoveSpeed, p.MoveSpeed)
		setF(&pc.JumpSpeed, p.JumpSpeed)
		setF(&pc.MouseSensitivity, p.MouseSensitivity)
		b.With(ecs.C(pc), ecs.C(component.Input{}))
	}
	if c := d.Camera; c != nil {
		cam := component.NewCamera()
		setF(&cam.FOV, c.FOV)
		setF(&cam.Near, c.Near)
		setF(&cam.Far, c.Far)
		setF(&cam.EyeHeight, c.EyeHeight)
		setB(&cam.Active, c.Active)
		b.With(ecs.C(cam))
	}
	if p := d.Projectile; p != nil {
		b.With(ecs.C(component.Projectile{
			Direction: vec(p.Direction, spatial.V(0, 0, 1)).Normalize(),
			Speed:     p.Speed,
			Damage:    p.Damage,
			Lifetime:  p.Lifetime,
		}))
	}
	if s := d.Script; s != nil {
		b.With(ecs.C(component.Script{Behaviour: s.Behaviour, Params: s.Params}))
	}
	if wd := d.Weapon; wd != nil {
		wp := component.NewWeapon()
		setF(&wp.FireRate, wd.FireRate)
		setF(&wp.Damage, wd.Damage)
		setF(&wp.Range, wd.Range)
		if wd.MaxAmmo != nil {
			wp.MaxAmmo = *wd.MaxAmmo
		}
		wp.Ammo = wp.MaxAmmo
		if wd.Ammo != nil {
			wp.Ammo = *wd.Ammo
		}
		wp.SinceLastShot = wp.FireRate
		b.With(ecs.C(wp))
	}
	return b
}

// vec converts a validated 3-element slice; empty means def.
func vec(v []float64, def spatial.Vec3) spatial.Vec3 {
	if len(v) != 3 {
		return def
	}
	return spatial.V(v[0], v[1], v[2])
}

func setF(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setB(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
