// Package world is a deterministic single-agent tile world used to run and
// test the pioneer agent without external hardware or game engines.
package world

import (
	"pioneer.ai/internal/sim/model"
)

// World is single-threaded: every method must be called from the tick loop.
type World struct {
	cfg Config

	tiles [][]model.Tile
	known [][]bool

	pos      model.Coord
	energy   int
	backpack model.Backpack
	score    float64

	tick   uint64
	day    int
	minute int // minute of the day
	// schedule[d] is the weather of day d; extended on demand.
	schedule []model.Weather

	terminated bool
	sink       func(model.Event)
	pending    []model.Event
}

func New(cfg Config) *World {
	cfg.applyDefaults()
	w := &World{
		cfg:      cfg,
		tiles:    generate(cfg),
		known:    make([][]bool, cfg.Size),
		energy:   cfg.MaxEnergy,
		backpack: model.NewBackpack(cfg.BackpackCapacity),
		minute:   cfg.StartHour * 60,
	}
	for r := range w.known {
		w.known[r] = make([]bool, cfg.Size)
	}
	w.pos = w.spawnPoint()
	w.reveal(w.pos)
	return w
}

func (w *World) Config() Config { return w.cfg }

// Subscribe routes events to fn as they happen. Events emitted before a
// subscriber exists are delivered on subscription.
func (w *World) Subscribe(fn func(model.Event)) {
	w.sink = fn
	pending := w.pending
	w.pending = nil
	for _, ev := range pending {
		fn(ev)
	}
}

func (w *World) emit(ev model.Event) {
	if w.sink == nil {
		w.pending = append(w.pending, ev)
		return
	}
	w.sink(ev)
}

// spawnPoint is the free walkable tile closest to the center.
func (w *World) spawnPoint() model.Coord {
	n := w.cfg.Size
	center := model.Coord{Row: n / 2, Col: n / 2}
	best, found := center, false
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			t := w.tiles[r][c]
			if !t.Passable() || t.Content.Kind != model.None {
				continue
			}
			p := model.Coord{Row: r, Col: c}
			if !found || p.Manhattan(center) < best.Manhattan(center) {
				best, found = p, true
			}
		}
	}
	if !found {
		w.tiles[center.Row][center.Col] = model.Tile{Type: model.Grass}
	}
	return best
}

func (w *World) inBounds(c model.Coord) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < w.cfg.Size && c.Col < w.cfg.Size
}

func (w *World) tileAt(c model.Coord) *model.Tile { return &w.tiles[c.Row][c.Col] }

// reveal marks the 3×3 window around c as known.
func (w *World) reveal(c model.Coord) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			p := model.Coord{Row: c.Row + dr, Col: c.Col + dc}
			if w.inBounds(p) {
				w.known[p.Row][p.Col] = true
			}
		}
	}
}

func (w *World) Position() model.Coord { return w.pos }

func (w *World) Energy() int { return w.energy }

func (w *World) Backpack() model.Backpack { return w.backpack.Clone() }

func (w *World) Score() float64 { return w.score }

func (w *World) Tick() uint64 { return w.tick }

func (w *World) Terminated() bool { return w.terminated }

// View returns the 3×3 window centred on the agent; cells outside the map are nil.
func (w *World) View() model.Grid {
	g := make(model.Grid, 3)
	for i := 0; i < 3; i++ {
		g[i] = make([]*model.Tile, 3)
		for j := 0; j < 3; j++ {
			p := model.Coord{Row: w.pos.Row + i - 1, Col: w.pos.Col + j - 1}
			if w.inBounds(p) {
				t := *w.tileAt(p)
				g[i][j] = &t
				w.known[p.Row][p.Col] = true
			}
		}
	}
	return g
}

// KnownMap returns a copy of every tile the agent has revealed.
func (w *World) KnownMap() model.Grid {
	n := w.cfg.Size
	g := make(model.Grid, n)
	for r := 0; r < n; r++ {
		g[r] = make([]*model.Tile, n)
		for c := 0; c < n; c++ {
			if w.known[r][c] {
				t := w.tiles[r][c]
				g[r][c] = &t
			}
		}
	}
	return g
}

// Coverage is the fraction of the map the agent has revealed.
func (w *World) Coverage() float64 {
	n := 0
	for _, row := range w.known {
		for _, k := range row {
			if k {
				n++
			}
		}
	}
	return float64(n) / float64(w.cfg.Size*w.cfg.Size)
}

// TileAt exposes ground truth for tests and tooling.
func (w *World) TileAt(c model.Coord) (model.Tile, bool) {
	if !w.inBounds(c) {
		return model.Tile{}, false
	}
	return *w.tileAt(c), true
}

// SetTile overrides ground truth; intended for scenario setup.
func (w *World) SetTile(c model.Coord, t model.Tile) {
	if w.inBounds(c) {
		w.tiles[c.Row][c.Col] = t
	}
}

// Teleport moves the agent without cost or events; intended for scenario setup.
func (w *World) Teleport(c model.Coord) {
	if w.inBounds(c) {
		w.pos = c
		w.reveal(c)
	}
}

func (w *World) SetEnergy(e int) {
	w.energy = min(max(e, 0), w.cfg.MaxEnergy)
}

func (w *World) GiveItems(k model.ContentKind, n int) {
	w.backpack.Add(k, n)
}

// RevealAll marks the whole map known; intended for scenario setup.
func (w *World) RevealAll() {
	for _, row := range w.known {
		for c := range row {
			row[c] = true
		}
	}
}
