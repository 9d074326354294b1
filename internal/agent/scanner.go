package agent

import "pioneer.ai/internal/sim/model"

// Predicate selects a tile of the view by its content and absolute coordinate.
type Predicate func(t model.Tile, at model.Coord) bool

// reorient lists, for each non-cardinal view cell, the moves that bring a
// match at that cell into a cardinal relation. Each entry is a first move
// and the resulting facing direction, tried in order.
var reorient = map[[2]int][]struct{ move, face model.Direction }{
	{0, 0}: {{model.Left, model.Up}, {model.Up, model.Left}},
	{0, 2}: {{model.Right, model.Up}, {model.Up, model.Right}},
	{1, 1}: {{model.Down, model.Up}, {model.Up, model.Down}, {model.Left, model.Right}, {model.Right, model.Left}},
	{2, 0}: {{model.Left, model.Down}, {model.Down, model.Left}},
	{2, 2}: {{model.Right, model.Down}, {model.Down, model.Right}},
}

var cardinal = map[[2]int]model.Direction{
	{0, 1}: model.Up,
	{1, 0}: model.Left,
	{1, 2}: model.Right,
	{2, 1}: model.Down,
}

// faceTarget scans the 3x3 view row-major and returns the direction of the
// first matching tile. Diagonal and center matches need one reorientation
// move, which is only attempted when move is true.
func (a *Agent) faceTarget(w World, move bool, match Predicate) (model.Direction, bool) {
	view := w.View()
	pos := w.Position()
	for i, row := range view {
		for j, t := range row {
			if t == nil {
				continue
			}
			at := model.Coord{Row: pos.Row + i - 1, Col: pos.Col + j - 1}
			if !match(*t, at) {
				continue
			}
			cell := [2]int{i, j}
			if d, ok := cardinal[cell]; ok {
				return d, true
			}
			if !move {
				continue
			}
			for _, alt := range reorient[cell] {
				if w.Move(alt.move) == nil {
					return alt.face, true
				}
			}
		}
	}
	return model.Up, false
}

func ofKind(k model.ContentKind) Predicate {
	return func(t model.Tile, _ model.Coord) bool { return t.Content.Kind == k }
}

func loose(t model.Tile, _ model.Coord) bool { return t.Content.Kind.Loose() }

func destroyable(t model.Tile, _ model.Coord) bool { return t.Content.Kind.Destroyable() }

// tentSpot matches a walkable tile that can hold a tent once cleared.
func tentSpot(t model.Tile, _ model.Coord) bool {
	k := t.Content.Kind
	return (k == model.None || k.Loose()) && t.Type.CanHold(model.Tent) && t.Type.Walkable()
}
