package world

import (
	"fmt"

	"pioneer.ai/internal/persistence/snapshot"
	"pioneer.ai/internal/sim/encoding"
	"pioneer.ai/internal/sim/model"
)

func (w *World) ExportSnapshot(runID string) snapshot.SnapshotV1 {
	n := w.cfg.Size
	s := snapshot.SnapshotV1{
		Header:           snapshot.Header{Version: snapshot.Version, RunID: runID, Tick: w.tick},
		Seed:             w.cfg.Seed,
		Size:             n,
		MinutesPerTick:   w.cfg.MinutesPerTick,
		MaxTicks:         w.cfg.MaxTicks,
		MaxEnergy:        w.cfg.MaxEnergy,
		RechargePerTick:  w.cfg.RechargePerTick,
		BackpackCapacity: w.cfg.BackpackCapacity,
		ForecastDays:     w.cfg.ForecastDays,
		Tiles:            make([]snapshot.TileV1, 0, n*n),
		Agent: snapshot.AgentV1{
			Row:    w.pos.Row,
			Col:    w.pos.Col,
			Energy: w.energy,
			Score:  w.score,
			Items:  map[string]int{},
		},
		Clock: snapshot.ClockV1{Tick: w.tick, Day: w.day, Minute: w.minute},
	}
	known := make([]bool, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			t := w.tiles[r][c]
			s.Tiles = append(s.Tiles, snapshot.TileV1{Type: uint8(t.Type), Content: uint8(t.Content.Kind), Amount: t.Content.Amount})
			known = append(known, w.known[r][c])
		}
	}
	s.Known = encoding.EncodeFlags(known)
	for k, v := range w.backpack.Items {
		if v > 0 {
			s.Agent.Items[k.String()] = v
		}
	}
	// Pin the schedule through the visible forecast.
	w.weatherOn(w.day + w.cfg.ForecastDays)
	for _, wt := range w.schedule {
		s.Weather = append(s.Weather, wt.String())
	}
	return s
}

// FromSnapshot rebuilds a world. Terrain config not stored in the snapshot
// is taken from cfg.
func FromSnapshot(cfg Config, s snapshot.SnapshotV1) (*World, error) {
	n := s.Size
	if n < 2 || len(s.Tiles) != n*n {
		return nil, fmt.Errorf("snapshot: inconsistent size %d (tiles=%d)", n, len(s.Tiles))
	}
	known, err := encoding.DecodeFlags(s.Known, n*n)
	if err != nil {
		return nil, fmt.Errorf("snapshot: known mask: %w", err)
	}
	cfg.Size = n
	cfg.Seed = s.Seed
	cfg.MinutesPerTick = s.MinutesPerTick
	cfg.MaxTicks = s.MaxTicks
	cfg.MaxEnergy = s.MaxEnergy
	cfg.RechargePerTick = s.RechargePerTick
	cfg.BackpackCapacity = s.BackpackCapacity
	cfg.ForecastDays = s.ForecastDays
	cfg.applyDefaults()

	w := &World{
		cfg:      cfg,
		tiles:    make([][]model.Tile, n),
		known:    make([][]bool, n),
		pos:      model.Coord{Row: s.Agent.Row, Col: s.Agent.Col},
		energy:   s.Agent.Energy,
		score:    s.Agent.Score,
		backpack: model.NewBackpack(cfg.BackpackCapacity),
		tick:     s.Clock.Tick,
		day:      s.Clock.Day,
		minute:   s.Clock.Minute,
	}
	for r := 0; r < n; r++ {
		w.tiles[r] = make([]model.Tile, n)
		w.known[r] = make([]bool, n)
		for c := 0; c < n; c++ {
			t := s.Tiles[r*n+c]
			w.tiles[r][c] = model.Tile{
				Type:    model.TileType(t.Type),
				Content: model.Content{Kind: model.ContentKind(t.Content), Amount: t.Amount},
			}
			w.known[r][c] = known[r*n+c]
		}
	}
	if !w.inBounds(w.pos) {
		return nil, fmt.Errorf("snapshot: agent position %s out of bounds", w.pos)
	}
	for name, v := range s.Agent.Items {
		k := model.ParseContentKind(name)
		if k == model.None {
			return nil, fmt.Errorf("snapshot: unknown item %q", name)
		}
		w.backpack.Add(k, v)
	}
	for _, name := range s.Weather {
		wt, err := model.ParseWeather(name)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		w.schedule = append(w.schedule, wt)
	}
	return w, nil
}
