package spatial

import "math"

// AABB is an axis-aligned box stored as center and half-extents.
type AABB struct {
	Center  Vec3
	Extents Vec3
}

// FromMinMax builds a box from two opposite corners in any order.
func FromMinMax(a, b Vec3) AABB {
	lo, hi := a.Min(b), a.Max(b)
	return AABB{Center: lo.Add(hi).Scale(0.5), Extents: hi.Sub(lo).Scale(0.5)}
}

func (b AABB) Min() Vec3 { return b.Center.Sub(b.Extents) }
func (b AABB) Max() Vec3 { return b.Center.Add(b.Extents) }

// Intersects reports overlap; touching faces count.
func (b AABB) Intersects(o AABB) bool {
	d := b.Center.Sub(o.Center).Abs()
	s := b.Extents.Add(o.Extents)
	return d.X <= s.X && d.Y <= s.Y && d.Z <= s.Z
}

// Contains reports whether p lies inside or on b.
func (b AABB) Contains(p Vec3) bool {
	d := p.Sub(b.Center).Abs()
	return d.X <= b.Extents.X && d.Y <= b.Extents.Y && d.Z <= b.Extents.Z
}

// Penetration returns the overlap depth on each axis, positive when the
// boxes intersect on that axis.
func (b AABB) Penetration(o AABB) Vec3 {
	d := b.Center.Sub(o.Center).Abs()
	s := b.Extents.Add(o.Extents)
	return s.Sub(d)
}

// RayIntersect reports the distance along dir at which the ray from origin
// enters b, within maxDist. dir need not be normalised. An origin inside b
// hits at distance 0.
func (b AABB) RayIntersect(origin, dir Vec3, maxDist float64) (float64, bool) {
	dir = dir.Normalize()
	if dir == (Vec3{}) {
		return 0, false
	}
	lo, hi := b.Min(), b.Max()
	tmin, tmax := 0.0, maxDist
	for _, ax := range [3]struct{ o, d, lo, hi float64 }{
		{origin.X, dir.X, lo.X, hi.X},
		{origin.Y, dir.Y, lo.Y, hi.Y},
		{origin.Z, dir.Z, lo.Z, hi.Z},
	} {
		if ax.d == 0 {
			if ax.o < ax.lo || ax.o > ax.hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (ax.lo-ax.o)/ax.d, (ax.hi-ax.o)/ax.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin, tmax = math.Max(tmin, t1), math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
