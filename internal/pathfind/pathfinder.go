// Package pathfind finds shade-preferring walking paths on a lat/lon grid
// using bounded A* search. Building footprints are obstacles; shaded cells
// cost half as much as sunlit ones, which biases the search toward shade
// without making shaded detours free.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/shade"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

const (
	// DefaultCellSizeDeg is the grid cell size, roughly 10 m of latitude.
	DefaultCellSizeDeg = 0.0001

	// DefaultMaxIterations bounds the number of node expansions before the
	// search degrades to the straight-line fallback.
	DefaultMaxIterations = 5000

	// GoalToleranceMeters is the snap distance: a node this close to the
	// destination is treated as the goal.
	GoalToleranceMeters = 20.0

	// DefaultMaxDetourRatio applies when Options.MaxDetourRatio is nil.
	DefaultMaxDetourRatio = 0.5

	// ShadeCostFactor is the per-meter cost multiplier for shaded cells
	// when shade is prioritized. Tunable policy.
	ShadeCostFactor = 0.5

	// DefaultWalkingSpeedKmh is used to estimate walking duration.
	DefaultWalkingSpeedKmh = 4.8
)

// Options configures a path search.
type Options struct {
	// PrioritizeShade halves the traversal cost of shaded cells.
	PrioritizeShade bool

	// MaxDetourRatio bounds the path length relative to the direct line:
	// candidates whose optimistic total exceeds direct*(1+ratio) are pruned.
	// An explicit 0 allows no detour at all; nil means the 0.5 default.
	MaxDetourRatio *float64

	// WalkingSpeedKmh is used for the duration estimate. Default: 4.8.
	WalkingSpeedKmh float64

	// CellSizeDeg is the grid resolution. Default: 0.0001 (~10 m).
	CellSizeDeg float64

	// MaxIterations is the expansion budget. Default: 5000. Callers wanting
	// external cancellation should lower this rather than rely on a timeout.
	MaxIterations int
}

func (o Options) withDefaults() Options {
	if o.MaxDetourRatio == nil {
		r := DefaultMaxDetourRatio
		o.MaxDetourRatio = &r
	} else if *o.MaxDetourRatio < 0 {
		r := 0.0
		o.MaxDetourRatio = &r
	}
	if o.WalkingSpeedKmh <= 0 {
		o.WalkingSpeedKmh = DefaultWalkingSpeedKmh
	}
	if o.CellSizeDeg <= 0 {
		o.CellSizeDeg = DefaultCellSizeDeg
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Result is the outcome of a path search.
type Result struct {
	Path             []geo.Coordinate
	DistanceMeters   float64
	EstimatedMinutes float64
	ShadePercent     float64

	// Fallback is true when the search budget was exhausted or the goal was
	// pruned away, and the path is a straight-line interpolation. This is a
	// degraded result, not an error; inspect ShadePercent for quality.
	Fallback bool

	Iterations int
}

// Finder runs shade-aware path searches against a fixed shade field and
// obstacle set. All state is per-call; a Finder is safe for concurrent use.
type Finder struct {
	field     *shade.Field
	obstacles []*buildings.Building
}

// NewFinder creates a path finder over the given shade field and obstacles.
func NewFinder(field *shade.Field, obstacles []*buildings.Building) *Finder {
	return &Finder{field: field, obstacles: obstacles}
}

// cell is a discrete grid position.
type cell struct {
	row, col int
}

// node is an A* search node.
type node struct {
	cell   cell
	coord  geo.Coordinate
	g      float64 // cumulative cost
	f      float64 // g + heuristic
	parent *node
	index  int // heap index
}

// openSet is a binary min-heap on f. Keeping the open set heap-ordered
// replaces the sort-per-iteration approach with the same search semantics.
type openSet []*node

func (s openSet) Len() int            { return len(s) }
func (s openSet) Less(i, j int) bool  { return s[i].f < s[j].f }
func (s openSet) Swap(i, j int)       { s[i], s[j] = s[j], s[i]; s[i].index = i; s[j].index = j }
func (s *openSet) Push(x interface{}) { n := x.(*node); n.index = len(*s); *s = append(*s, n) }
func (s *openSet) Pop() interface{} {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	return n
}

// FindPath searches for a walking path from start to end. It always returns
// a result: if the search cannot reach the goal within its budget and
// detour bound, the result is the straight-line fallback.
func (f *Finder) FindPath(start, end geo.Coordinate, opts Options) *Result {
	opts = opts.withDefaults()

	directDistance := geo.Haversine(start, end)
	if directDistance < opts.CellSizeDeg*geo.MetersPerDegreeLat {
		return f.fallback(start, end, opts, 0)
	}
	maxTotal := directDistance * (1 + *opts.MaxDetourRatio)

	startNode := &node{
		cell:  f.toCell(start, opts.CellSizeDeg),
		coord: start,
		g:     0,
		f:     directDistance,
	}

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, startNode)

	closed := make(map[cell]bool)
	best := make(map[cell]float64)
	best[startNode.cell] = 0

	iterations := 0
	for open.Len() > 0 && iterations < opts.MaxIterations {
		iterations++
		current := heap.Pop(open).(*node)

		if closed[current.cell] {
			continue
		}
		closed[current.cell] = true

		if geo.Haversine(current.coord, end) <= GoalToleranceMeters {
			return f.buildResult(current, start, end, opts, iterations)
		}

		for _, neighbor := range f.neighbors(current, opts.CellSizeDeg) {
			if closed[neighbor.cell] {
				continue
			}
			if f.blocked(neighbor.coord) {
				continue
			}

			stepDist := geo.Haversine(current.coord, neighbor.coord)
			cost := stepDist * f.costFactor(neighbor.coord, opts)
			g := current.g + cost
			h := geo.Haversine(neighbor.coord, end)

			// Prune candidates that cannot finish within the detour bound.
			if g+h > maxTotal {
				continue
			}

			if prev, seen := best[neighbor.cell]; seen && g >= prev {
				continue
			}
			best[neighbor.cell] = g

			neighbor.g = g
			neighbor.f = g + h
			neighbor.parent = current
			heap.Push(open, neighbor)
		}
	}

	return f.fallback(start, end, opts, iterations)
}

// toCell maps a coordinate onto the search grid.
func (f *Finder) toCell(c geo.Coordinate, cellSize float64) cell {
	return cell{
		row: int(math.Floor(c.Lat / cellSize)),
		col: int(math.Floor(c.Lon / cellSize)),
	}
}

// neighbors expands the 8-connected grid neighbors of a node.
func (f *Finder) neighbors(n *node, cellSize float64) []*node {
	out := make([]*node, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			c := cell{row: n.cell.row + dr, col: n.cell.col + dc}
			out = append(out, &node{
				cell: c,
				coord: geo.Coordinate{
					Lat: (float64(c.row) + 0.5) * cellSize,
					Lon: (float64(c.col) + 0.5) * cellSize,
				},
			})
		}
	}
	return out
}

// blocked reports whether a cell center lies inside any building footprint.
func (f *Finder) blocked(c geo.Coordinate) bool {
	for _, b := range f.obstacles {
		if b.ContainsPoint(c) {
			return true
		}
	}
	return false
}

// costFactor returns the per-meter cost multiplier for entering a cell.
func (f *Finder) costFactor(c geo.Coordinate, opts Options) float64 {
	if opts.PrioritizeShade && f.field != nil && f.field.PointInShade(c) {
		return ShadeCostFactor
	}
	return 1.0
}

// buildResult reconstructs the path from the goal node back to the start.
func (f *Finder) buildResult(goal *node, start, end geo.Coordinate, opts Options, iterations int) *Result {
	var path []geo.Coordinate
	for n := goal; n != nil; n = n.parent {
		path = append(path, n.coord)
	}
	// Reverse into start-to-goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	path[0] = start
	// The goal node snapped within tolerance; terminate with the exact end.
	path = append(path, end)

	return f.finish(path, opts, iterations, false)
}

// fallback returns the straight-line interpolation between start and end.
func (f *Finder) fallback(start, end geo.Coordinate, opts Options, iterations int) *Result {
	const fallbackSamples = 10
	path := make([]geo.Coordinate, 0, fallbackSamples+1)
	for i := 0; i <= fallbackSamples; i++ {
		t := float64(i) / fallbackSamples
		path = append(path, geo.Coordinate{
			Lat: start.Lat + t*(end.Lat-start.Lat),
			Lon: start.Lon + t*(end.Lon-start.Lon),
		})
	}
	return f.finish(path, opts, iterations, true)
}

func (f *Finder) finish(path []geo.Coordinate, opts Options, iterations int, fallback bool) *Result {
	var distance float64
	for i := 1; i < len(path); i++ {
		distance += geo.Haversine(path[i-1], path[i])
	}

	shadePercent := 0.0
	if f.field != nil {
		shadePercent = f.field.RouteShadePercent(path, shade.DefaultSampleIntervalMeters)
	}

	return &Result{
		Path:             path,
		DistanceMeters:   distance,
		EstimatedMinutes: distance / (opts.WalkingSpeedKmh * 1000 / 60),
		ShadePercent:     shadePercent,
		Fallback:         fallback,
		Iterations:       iterations,
	}
}
