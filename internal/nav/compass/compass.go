// Package compass computes single steps toward a destination over a partially
// known grid.
package compass

import (
	"container/heap"
	"errors"

	"pioneer.ai/internal/sim/model"
)

var (
	ErrNoDestination        = errors.New("no destination")
	ErrNoContent            = errors.New("no known tile holds the content")
	ErrNoTileType           = errors.New("no known tile has the type")
	ErrInvalidStart         = errors.New("invalid start position")
	ErrInvalidEnd           = errors.New("invalid destination")
	ErrNoAvailableMove      = errors.New("no available move")
	ErrAlreadyAtDestination = errors.New("already at destination")
	ErrUnimplemented        = errors.New("destination kind not implemented")
)

type TargetKind uint8

const (
	ToCoord TargetKind = iota
	ToContent
	ToTileType
)

// Target is where the compass is heading: a fixed coordinate, the closest
// known tile holding some content, or the closest known tile of some type.
type Target struct {
	Kind    TargetKind
	Coord   model.Coord
	Content model.ContentKind
	Tile    model.TileType
}

// Step costs. Unknown cells are optimistic; water is crossable only after
// it is filled, so it costs extra per rock needed.
const (
	costWalk    = 1
	costUnknown = 2
	costPerRock = 5
)

type Compass struct {
	target *Target
}

func New() *Compass { return &Compass{} }

func (c *Compass) SetDestination(p model.Coord) {
	c.target = &Target{Kind: ToCoord, Coord: p}
}

func (c *Compass) SetTarget(t Target) {
	tt := t
	c.target = &tt
}

func (c *Compass) ClearDestination() { c.target = nil }

// Destination returns the coordinate target, if one is set.
func (c *Compass) Destination() (model.Coord, bool) {
	if c.target == nil || c.target.Kind != ToCoord {
		return model.Coord{}, false
	}
	return c.target.Coord, true
}

// NextStep returns the first move of a least-cost route from pos to the
// destination. The result only depends on the grid, pos and the target.
func (c *Compass) NextStep(g model.Grid, pos model.Coord) (model.Direction, error) {
	if c.target == nil {
		return model.Up, ErrNoDestination
	}
	if !g.InBounds(pos) {
		return model.Up, ErrInvalidStart
	}
	dest, err := resolve(g, pos, *c.target)
	if err != nil {
		return model.Up, err
	}
	if !g.InBounds(dest) {
		return model.Up, ErrInvalidEnd
	}
	if dest == pos {
		return model.Up, ErrAlreadyAtDestination
	}
	// A blocked destination is reached by standing next to it.
	adjacentOK := false
	if t := g.At(dest); t != nil && !t.Passable() {
		adjacentOK = true
		if pos.Manhattan(dest) == 1 {
			return model.Up, ErrAlreadyAtDestination
		}
	}
	return route(g, pos, dest, adjacentOK)
}

func resolve(g model.Grid, pos model.Coord, t Target) (model.Coord, error) {
	switch t.Kind {
	case ToCoord:
		return t.Coord, nil
	case ToContent:
		if p, ok := closest(g, pos, func(tl *model.Tile) bool { return tl.Content.Kind == t.Content }); ok {
			return p, nil
		}
		return model.Coord{}, ErrNoContent
	case ToTileType:
		if p, ok := closest(g, pos, func(tl *model.Tile) bool { return tl.Type == t.Tile }); ok {
			return p, nil
		}
		return model.Coord{}, ErrNoTileType
	}
	return model.Coord{}, ErrUnimplemented
}

func closest(g model.Grid, pos model.Coord, match func(*model.Tile) bool) (model.Coord, bool) {
	best, found := model.Coord{}, false
	for r, row := range g {
		for col, t := range row {
			if t == nil || !match(t) {
				continue
			}
			p := model.Coord{Row: r, Col: col}
			if !found || p.Manhattan(pos) < best.Manhattan(pos) {
				best, found = p, true
			}
		}
	}
	return best, found
}

func stepCost(t *model.Tile) (int, bool) {
	if t == nil {
		return costUnknown, true
	}
	if t.Content.Kind.Blocking() {
		return 0, false
	}
	if t.Type.Walkable() {
		return costWalk, true
	}
	if n := t.Type.BridgeCost(); n > 0 {
		return costWalk + costPerRock*n, true
	}
	return 0, false
}

type node struct {
	p     model.Coord
	f, g  int
	seq   int
	first model.Direction
}

type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)   { *o = append(*o, x.(*node)) }
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}

func route(g model.Grid, start, dest model.Coord, adjacentOK bool) (model.Direction, error) {
	h := func(p model.Coord) int {
		d := p.Manhattan(dest)
		if adjacentOK && d > 0 {
			d--
		}
		return d
	}
	goal := func(p model.Coord) bool {
		if adjacentOK {
			return p.Manhattan(dest) == 1
		}
		return p == dest
	}

	best := map[model.Coord]int{start: 0}
	open := &openSet{}
	seq := 0
	for _, d := range model.Directions {
		np := start.Step(d)
		if !g.InBounds(np) {
			continue
		}
		cost, ok := stepCost(g.At(np))
		if !ok {
			continue
		}
		best[np] = cost
		seq++
		heap.Push(open, &node{p: np, g: cost, f: cost + h(np), seq: seq, first: d})
	}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.g > best[cur.p] {
			continue
		}
		if goal(cur.p) {
			return cur.first, nil
		}
		for _, d := range model.Directions {
			np := cur.p.Step(d)
			if !g.InBounds(np) || np == start {
				continue
			}
			cost, ok := stepCost(g.At(np))
			if !ok {
				continue
			}
			ng := cur.g + cost
			if old, seen := best[np]; seen && old <= ng {
				continue
			}
			best[np] = ng
			seq++
			heap.Push(open, &node{p: np, g: ng, f: ng + h(np), seq: seq, first: cur.first})
		}
	}
	return model.Up, ErrNoAvailableMove
}
