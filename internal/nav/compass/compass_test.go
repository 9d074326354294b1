package compass

import (
	"errors"
	"testing"

	"pioneer.ai/internal/sim/model"
)

// grid builds a fully known grid from rows of runes:
// '.' grass, '~' shallow water, 'M' mountain, 'T' tree, '?' unknown.
func grid(rows ...string) model.Grid {
	g := make(model.Grid, len(rows))
	for r, line := range rows {
		g[r] = make([]*model.Tile, len(line))
		for c, ch := range line {
			switch ch {
			case '?':
			case '~':
				g[r][c] = &model.Tile{Type: model.ShallowWater}
			case 'M':
				g[r][c] = &model.Tile{Type: model.Mountain}
			case 'T':
				g[r][c] = &model.Tile{Type: model.Grass, Content: model.Content{Kind: model.Tree, Amount: 1}}
			default:
				g[r][c] = &model.Tile{Type: model.Grass}
			}
		}
	}
	return g
}

func TestNextStep_Errors(t *testing.T) {
	g := grid("...", "...", "...")
	c := New()
	if _, err := c.NextStep(g, model.Coord{}); !errors.Is(err, ErrNoDestination) {
		t.Fatalf("err=%v want ErrNoDestination", err)
	}
	c.SetDestination(model.Coord{Row: 9, Col: 9})
	if _, err := c.NextStep(g, model.Coord{}); !errors.Is(err, ErrInvalidEnd) {
		t.Fatalf("err=%v want ErrInvalidEnd", err)
	}
	if _, err := c.NextStep(g, model.Coord{Row: -1}); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("err=%v want ErrInvalidStart", err)
	}
	c.SetDestination(model.Coord{Row: 1, Col: 1})
	if _, err := c.NextStep(g, model.Coord{Row: 1, Col: 1}); !errors.Is(err, ErrAlreadyAtDestination) {
		t.Fatalf("err=%v want ErrAlreadyAtDestination", err)
	}
	c.SetTarget(Target{Kind: ToContent, Content: model.Fish})
	if _, err := c.NextStep(g, model.Coord{}); !errors.Is(err, ErrNoContent) {
		t.Fatalf("err=%v want ErrNoContent", err)
	}
	c.SetTarget(Target{Kind: ToTileType, Tile: model.Lava})
	if _, err := c.NextStep(g, model.Coord{}); !errors.Is(err, ErrNoTileType) {
		t.Fatalf("err=%v want ErrNoTileType", err)
	}
	c.SetTarget(Target{Kind: 42})
	if _, err := c.NextStep(g, model.Coord{}); !errors.Is(err, ErrUnimplemented) {
		t.Fatalf("err=%v want ErrUnimplemented", err)
	}
}

func TestNextStep_RoutesAroundMountains(t *testing.T) {
	g := grid(
		".M.",
		".M.",
		"...",
	)
	c := New()
	c.SetDestination(model.Coord{Row: 0, Col: 2})
	d, err := c.NextStep(g, model.Coord{Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("next step: %v", err)
	}
	if d != model.Down {
		t.Fatalf("step=%s want DOWN", d)
	}
}

func TestNextStep_NoRoute(t *testing.T) {
	g := grid(
		".M.",
		"MM.",
		"...",
	)
	c := New()
	c.SetDestination(model.Coord{Row: 2, Col: 2})
	if _, err := c.NextStep(g, model.Coord{}); !errors.Is(err, ErrNoAvailableMove) {
		t.Fatalf("err=%v want ErrNoAvailableMove", err)
	}
}

func TestNextStep_BlockedDestinationReachedByAdjacency(t *testing.T) {
	g := grid("..T")
	c := New()
	c.SetDestination(model.Coord{Row: 0, Col: 2})
	d, err := c.NextStep(g, model.Coord{Row: 0, Col: 0})
	if err != nil || d != model.Right {
		t.Fatalf("step=%s err=%v", d, err)
	}
	if _, err := c.NextStep(g, model.Coord{Row: 0, Col: 1}); !errors.Is(err, ErrAlreadyAtDestination) {
		t.Fatalf("err=%v want ErrAlreadyAtDestination", err)
	}
}

func TestNextStep_PrefersLandOverWater(t *testing.T) {
	g := grid(
		".~.",
		"...",
	)
	c := New()
	c.SetDestination(model.Coord{Row: 0, Col: 2})
	d, err := c.NextStep(g, model.Coord{})
	if err != nil || d != model.Down {
		t.Fatalf("step=%s err=%v want DOWN", d, err)
	}
	// With no way around, the route goes through the water.
	g = grid(".~.")
	d, err = c.NextStep(g, model.Coord{})
	if err != nil || d != model.Right {
		t.Fatalf("step=%s err=%v want RIGHT", d, err)
	}
}

func TestNextStep_UnknownCellsAreTraversable(t *testing.T) {
	g := grid(".??.")
	c := New()
	c.SetDestination(model.Coord{Row: 0, Col: 3})
	d, err := c.NextStep(g, model.Coord{})
	if err != nil || d != model.Right {
		t.Fatalf("step=%s err=%v", d, err)
	}
}

func TestSetClearSetRoundTrip(t *testing.T) {
	g := grid(
		"....?",
		".MM.?",
		"..~..",
		"?....",
	)
	start := model.Coord{Row: 3, Col: 1}
	dest := model.Coord{Row: 0, Col: 4}

	a := New()
	a.SetDestination(dest)
	want, wantErr := a.NextStep(g, start)

	b := New()
	b.SetDestination(dest)
	b.ClearDestination()
	if _, ok := b.Destination(); ok {
		t.Fatalf("destination survived clear")
	}
	b.SetDestination(dest)
	got, gotErr := b.NextStep(g, start)
	if got != want || !errors.Is(gotErr, wantErr) && gotErr != wantErr {
		t.Fatalf("round trip step=%s/%v want %s/%v", got, gotErr, want, wantErr)
	}
}
