// Package pathfind searches walkable routes across the tile map.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/hearthfall/settlement/internal/world"
)

// maxCached bounds the result cache; it is flushed wholesale when full.
const maxCached = 4096

// Finder is the request/response contract the simulation uses.
type Finder interface {
	// FindPath returns the tiles to step through from 'from' (exclusive) to
	// 'to' (inclusive). The goal tile may be blocked, so citizens can walk
	// into buildings.
	FindPath(from, to world.Point) ([]world.Point, bool)
	// InvalidateCache drops every cached route.
	InvalidateCache()
}

type neighbor struct {
	dx, dy   int
	cost     float64
	diagonal bool
}

var neighborOffsets = [...]neighbor{
	{dx: 0, dy: -1, cost: 1},
	{dx: 1, dy: 0, cost: 1},
	{dx: 0, dy: 1, cost: 1},
	{dx: -1, dy: 0, cost: 1},
	{dx: 1, dy: -1, cost: math.Sqrt2, diagonal: true},
	{dx: 1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: -1, cost: math.Sqrt2, diagonal: true},
}

type routeKey struct {
	from, to world.Point
}

type route struct {
	path []world.Point
	ok   bool
}

// AStar is an octile A* over world.Map. Results are cached until the map's
// topology version moves or InvalidateCache is called.
type AStar struct {
	m       *world.Map
	cache   map[routeKey]route
	version uint64

	hits, misses uint64
}

func NewAStar(m *world.Map) *AStar {
	return &AStar{m: m, cache: make(map[routeKey]route), version: m.Version()}
}

func (a *AStar) InvalidateCache() {
	clear(a.cache)
	a.version = a.m.Version()
}

// Stats returns cache hits and misses since creation.
func (a *AStar) Stats() (hits, misses uint64) { return a.hits, a.misses }

func (a *AStar) FindPath(from, to world.Point) ([]world.Point, bool) {
	if a.m.Version() != a.version {
		a.InvalidateCache()
	}
	key := routeKey{from: from, to: to}
	if r, ok := a.cache[key]; ok {
		a.hits++
		return r.path, r.ok
	}
	a.misses++
	path, ok := a.search(from, to)
	if len(a.cache) >= maxCached {
		clear(a.cache)
	}
	a.cache[key] = route{path: path, ok: ok}
	return path, ok
}

func (a *AStar) search(start, goal world.Point) ([]world.Point, bool) {
	m := a.m
	if !m.InBounds(start.X, start.Y) || !m.InBounds(goal.X, goal.Y) {
		return nil, false
	}
	if start == goal {
		return []world.Point{}, true
	}
	if goalTile := m.At(goal.X, goal.Y); goalTile.Type == world.Water {
		return nil, false
	}

	open := &nodeQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &node{p: start, f: heuristic(start, goal)})
	gScore := map[world.Point]float64{start: 0}
	closed := make(map[world.Point]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if _, seen := closed[current.p]; seen {
			continue
		}
		closed[current.p] = struct{}{}
		if current.p == goal {
			return reconstruct(current), true
		}

		for _, d := range neighborOffsets {
			nx, ny := current.p.X+d.dx, current.p.Y+d.dy
			next := world.Point{X: nx, Y: ny}
			if next != goal && !m.Walkable(nx, ny) {
				continue
			}
			if !m.InBounds(nx, ny) {
				continue
			}
			// no corner cutting
			if d.diagonal && (!m.Walkable(current.p.X+d.dx, current.p.Y) || !m.Walkable(current.p.X, current.p.Y+d.dy)) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			g := current.g + d.cost
			if prev, ok := gScore[next]; ok && g >= prev {
				continue
			}
			gScore[next] = g
			seq++
			heap.Push(open, &node{p: next, g: g, f: g + heuristic(next, goal), seq: seq, parent: current})
		}
	}
	return nil, false
}

func heuristic(a, b world.Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

// reconstruct walks parents back to the start, which is left out.
func reconstruct(end *node) []world.Point {
	var path []world.Point
	for n := end; n.parent != nil; n = n.parent {
		path = append(path, n.p)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	p      world.Point
	g      float64
	f      float64
	seq    int
	index  int
	parent *node
}

type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

// Less breaks f ties by insertion order so searches are reproducible.
func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}
