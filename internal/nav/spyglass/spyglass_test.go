package spyglass

import (
	"errors"
	"testing"

	"pioneer.ai/internal/sim/model"
)

// fakeWorld reveals tiles from a hidden full map.
type fakeWorld struct {
	full  model.Grid
	known model.Grid
	calls int
	err   error
}

func newFakeWorld(size int, fill func(model.Coord) model.Tile) *fakeWorld {
	w := &fakeWorld{full: make(model.Grid, size), known: make(model.Grid, size)}
	for r := 0; r < size; r++ {
		w.full[r] = make([]*model.Tile, size)
		w.known[r] = make([]*model.Tile, size)
		for c := 0; c < size; c++ {
			t := fill(model.Coord{Row: r, Col: c})
			w.full[r][c] = &t
		}
	}
	return w
}

func (w *fakeWorld) KnownMap() model.Grid { return w.known }

func (w *fakeWorld) Discover(cells []model.Coord) (int, error) {
	w.calls++
	if w.err != nil {
		return 0, w.err
	}
	n := 0
	for _, c := range cells {
		if w.known[c.Row][c.Col] == nil {
			w.known[c.Row][c.Col] = w.full[c.Row][c.Col]
			n++
		}
	}
	return n, nil
}

func grass(model.Coord) model.Tile { return model.Tile{Type: model.Grass} }

func TestScan_CompleteRevealsWholeRadius(t *testing.T) {
	w := newFakeWorld(9, grass)
	res := New().Scan(w, Request{Origin: model.Coord{Row: 4, Col: 4}, Radius: 2})
	if res.Status != Complete {
		t.Fatalf("status=%s want COMPLETE", res.Status)
	}
	if res.Revealed != 24 {
		t.Fatalf("revealed=%d want 24", res.Revealed)
	}
	if w.known.At(model.Coord{Row: 1, Col: 1}) != nil {
		t.Fatalf("revealed beyond radius")
	}
}

func TestScan_StopsOnNearestRingWithAllMatches(t *testing.T) {
	market := model.Coord{Row: 2, Col: 5}
	bank := model.Coord{Row: 3, Col: 3}
	w := newFakeWorld(9, func(c model.Coord) model.Tile {
		switch c {
		case market:
			return model.Tile{Type: model.Street, Content: model.Content{Kind: model.Market, Amount: 5}}
		case bank:
			return model.Tile{Type: model.Street, Content: model.Content{Kind: model.Bank, Amount: 5}}
		}
		return model.Tile{Type: model.Grass}
	})
	res := New().Scan(w, Request{
		Origin: model.Coord{Row: 4, Col: 4},
		Radius: 4,
		Stop:   func(t model.Tile, _ model.Coord) bool { return t.Content.Kind.Economic() },
	})
	if res.Status != Stopped {
		t.Fatalf("status=%s want STOPPED", res.Status)
	}
	if len(res.Matches) != 1 || res.Matches[0].At != bank {
		t.Fatalf("matches=%+v want only the bank on ring 1", res.Matches)
	}
}

func TestScan_EnergyBudgetPauses(t *testing.T) {
	w := newFakeWorld(9, grass)
	res := New().Scan(w, Request{Origin: model.Coord{Row: 4, Col: 4}, Radius: 3, EnergyBudget: 10 * model.DiscoverCost})
	if res.Status != Paused {
		t.Fatalf("status=%s want PAUSED", res.Status)
	}
	if res.Revealed != 10 {
		t.Fatalf("revealed=%d want 10", res.Revealed)
	}
}

func TestScan_TileCapPauses(t *testing.T) {
	w := newFakeWorld(9, grass)
	res := New().Scan(w, Request{Origin: model.Coord{Row: 4, Col: 4}, Radius: 3, MaxTiles: 8})
	if res.Status != Paused || res.Revealed != 8 {
		t.Fatalf("status=%s revealed=%d", res.Status, res.Revealed)
	}
}

func TestScan_WorldErrorFails(t *testing.T) {
	w := newFakeWorld(5, grass)
	w.err = model.ErrNotEnoughEnergy
	res := New().Scan(w, Request{Origin: model.Coord{Row: 2, Col: 2}, Radius: 1})
	if res.Status != Failed || !errors.Is(res.Err, model.ErrNotEnoughEnergy) {
		t.Fatalf("status=%s err=%v", res.Status, res.Err)
	}
}

func TestScan_KnownTilesAreNotRediscovered(t *testing.T) {
	w := newFakeWorld(5, grass)
	for r := range w.known {
		copy(w.known[r], w.full[r])
	}
	res := New().Scan(w, Request{Origin: model.Coord{Row: 2, Col: 2}, Radius: 2})
	if res.Status != Complete || w.calls != 0 {
		t.Fatalf("status=%s calls=%d", res.Status, w.calls)
	}
}
