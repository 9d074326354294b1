package agent

import (
	"errors"
	"testing"

	"pioneer.ai/internal/nav/compass"
	"pioneer.ai/internal/protocol"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/tuning"
	"pioneer.ai/internal/sim/world"
)

// sceneWorld pins the clock and weather of a reference world.
type sceneWorld struct {
	*world.World
	weather model.Weather
	tod     model.DayTime
}

func (s *sceneWorld) Weather() model.Weather   { return s.weather }
func (s *sceneWorld) TimeOfDay() model.DayTime { return s.tod }

// scene is a size×size grass world with the agent in the middle.
func scene(t *testing.T, size int) *sceneWorld {
	t.Helper()
	w := world.New(world.Config{Size: size, Seed: 7, BackpackCapacity: 20})
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			w.SetTile(model.Coord{Row: r, Col: c}, model.Tile{Type: model.Grass})
		}
	}
	w.Teleport(model.Coord{Row: size / 2, Col: size / 2})
	return &sceneWorld{World: w, tod: model.Morning}
}

func (s *sceneWorld) put(r, c int, tt model.TileType, k model.ContentKind, amount int) {
	s.SetTile(model.Coord{Row: r, Col: c}, model.Tile{Type: tt, Content: model.Content{Kind: k, Amount: amount}})
}

// quietPolicy makes the random side behaviours practically impossible.
func quietPolicy() tuning.Policy {
	p := tuning.DefaultPolicy()
	p.PickupChance = 1 << 30
	p.ScanChance = 1 << 30
	p.BacktrackChance = 1 << 30
	return p
}

type fakeForecast struct {
	wx   model.Weather
	err  error
	seen []model.Conditions
}

func (f *fakeForecast) Observe(c model.Conditions) { f.seen = append(f.seen, c) }

func (f *fakeForecast) Predict(int) (model.Weather, error) { return f.wx, f.err }

// fakePath always answers with the same step or error.
type fakePath struct {
	step model.Direction
	err  error
	dest *model.Coord
}

func (f *fakePath) SetDestination(c model.Coord) { f.dest = &c }
func (f *fakePath) ClearDestination()            { f.dest = nil }
func (f *fakePath) Destination() (model.Coord, bool) {
	if f.dest == nil {
		return model.Coord{}, false
	}
	return *f.dest, true
}
func (f *fakePath) NextStep(model.Grid, model.Coord) (model.Direction, error) {
	if f.dest == nil {
		return model.Up, compass.ErrNoDestination
	}
	return f.step, f.err
}

var errLink = errors.New("link down")

type fakePilot struct {
	manual     bool
	objectives []Objective
	actions    []int8
	err        error
	scores     []float32
	closed     bool
}

func (p *fakePilot) Manual() bool { return p.manual }

func (p *fakePilot) Objective() (Objective, error) {
	if p.err != nil {
		return None(), p.err
	}
	if len(p.objectives) == 0 {
		return None(), nil
	}
	o := p.objectives[0]
	p.objectives = p.objectives[1:]
	return o, nil
}

func (p *fakePilot) Action() (int8, error) {
	if p.err != nil {
		return 0, p.err
	}
	if len(p.actions) == 0 {
		return protocol.ActNone, nil
	}
	c := p.actions[0]
	p.actions = p.actions[1:]
	return c, nil
}

func (p *fakePilot) PutScore(s float32) error {
	if p.err != nil {
		return p.err
	}
	p.scores = append(p.scores, s)
	return nil
}

func (p *fakePilot) Close() error {
	p.closed = true
	return nil
}

// newAgent builds an agent subscribed to w's events.
func newAgent(w *sceneWorld, cfg Config) *Agent {
	if cfg.Policy == (tuning.Policy{}) {
		cfg.Policy = quietPolicy()
	}
	if cfg.Forecast == nil {
		cfg.Forecast = &fakeForecast{}
	}
	cfg.Seed = 1
	a := New(cfg)
	w.Subscribe(a.OnEvent)
	return a
}

func at(r, c int) model.Coord { return model.Coord{Row: r, Col: c} }
