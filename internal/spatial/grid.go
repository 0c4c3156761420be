package spatial

import (
	"math"

	"github.com/l1jgo/simcore/internal/core/ecs"
)

// DefaultCellSize is used when a Grid is created with a non-positive size.
const DefaultCellSize = 10.0

type cellKey struct {
	x, y, z int32
}

// Grid is a uniform spatial hash for broad-phase queries. It is cleared and
// rebuilt by PhysicsSystem each frame. Single writer, no locks.
type Grid struct {
	cellSize float64
	inv      float64
	cells    map[cellKey][]ecs.Entity // cell → entities overlapping it
	occupied map[ecs.Entity][]cellKey // entity → cells it was inserted into
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		inv:      1 / cellSize,
		cells:    make(map[cellKey][]ecs.Entity, 256),
		occupied: make(map[ecs.Entity][]cellKey, 256),
	}
}

func (g *Grid) CellSize() float64 { return g.cellSize }

// Len returns the number of indexed entities.
func (g *Grid) Len() int { return len(g.occupied) }

// CellCount returns the number of non-empty cells.
func (g *Grid) CellCount() int { return len(g.cells) }

func (g *Grid) Clear() {
	clear(g.cells)
	clear(g.occupied)
}

func (g *Grid) coord(v float64) int32 {
	return int32(math.Floor(v * g.inv))
}

// span returns the inclusive cell range covered by box.
func (g *Grid) span(box AABB) (lo, hi cellKey) {
	mn, mx := box.Min(), box.Max()
	lo = cellKey{g.coord(mn.X), g.coord(mn.Y), g.coord(mn.Z)}
	hi = cellKey{g.coord(mx.X), g.coord(mx.Y), g.coord(mx.Z)}
	return lo, hi
}

// Insert adds e to every cell its box overlaps. Inserting an entity that is
// already indexed replaces its previous cells.
func (g *Grid) Insert(e ecs.Entity, box AABB) {
	if _, ok := g.occupied[e]; ok {
		g.Remove(e)
	}
	lo, hi := g.span(box)
	keys := make([]cellKey, 0, min(cellsIn(lo, hi), 64))
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				k := cellKey{x, y, z}
				g.cells[k] = append(g.cells[k], e)
				keys = append(keys, k)
			}
		}
	}
	g.occupied[e] = keys
}

// Remove takes e out of every cell it occupies and drops emptied cells.
func (g *Grid) Remove(e ecs.Entity) bool {
	keys, ok := g.occupied[e]
	if !ok {
		return false
	}
	for _, k := range keys {
		list := g.cells[k]
		for i, other := range list {
			if other == e {
				last := len(list) - 1
				list[i] = list[last]
				list = list[:last]
				break
			}
		}
		if len(list) == 0 {
			delete(g.cells, k)
		} else {
			g.cells[k] = list
		}
	}
	delete(g.occupied, e)
	return true
}

// Query returns every entity sharing a cell with box, each once. Callers do
// the exact overlap test.
func (g *Grid) Query(box AABB) []ecs.Entity {
	lo, hi := g.span(box)
	seen := make(map[ecs.Entity]struct{}, 16)
	var out []ecs.Entity
	collect := func(list []ecs.Entity) {
		for _, e := range list {
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}

	// Large query boxes walk the occupied cells instead of the whole range.
	if cellsIn(lo, hi) > len(g.cells) {
		for k, list := range g.cells {
			if k.x >= lo.x && k.x <= hi.x && k.y >= lo.y && k.y <= hi.y && k.z >= lo.z && k.z <= hi.z {
				collect(list)
			}
		}
		return out
	}
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				collect(g.cells[cellKey{x, y, z}])
			}
		}
	}
	return out
}

// Raycast returns the broad-phase candidates along the segment from origin
// in direction dir for maxDist units, by querying the segment's bounding box.
func (g *Grid) Raycast(origin, dir Vec3, maxDist float64) []ecs.Entity {
	end := origin.Add(dir.Normalize().Scale(maxDist))
	return g.Query(FromMinMax(origin, end))
}

func cellsIn(lo, hi cellKey) int {
	n := int64(hi.x-lo.x+1) * int64(hi.y-lo.y+1) * int64(hi.z-lo.z+1)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
