package agent

import "pioneer.ai/internal/sim/model"

// Status is a read-only view of the agent for tick logging and the console.
type Status struct {
	Tick    uint64 `json:"tick"`
	Current string `json:"current"`
	// Next is diagnostic only; nothing outside the agent decides on it.
	Next        string        `json:"next"`
	Destination *model.Coord  `json:"destination,omitempty"`
	Recent      []model.Coord `json:"recent,omitempty"`
	Pins        int           `json:"pins"`
	Depleted    int           `json:"depleted"`
	Pilot       string        `json:"pilot"`
	Score       float64       `json:"score"`
	Running     bool          `json:"running"`
}

func (a *Agent) Status() Status {
	s := Status{
		Tick:     a.tick,
		Current:  a.current.String(),
		Next:     a.next.String(),
		Recent:   a.recent.Items(),
		Pins:     len(a.pins),
		Depleted: len(a.depleted),
		Pilot:    "none",
		Score:    a.score,
		Running:  a.running,
	}
	if d, ok := a.compass.Destination(); ok {
		s.Destination = &d
	}
	if a.pilot != nil {
		s.Pilot = "assisted"
		if a.pilot.Manual() {
			s.Pilot = "manual"
		}
	}
	return s
}

// Progress summarises exploration for a termination predicate.
type Progress struct {
	Coverage float64
	// ActiveEconomic counts known markets and banks with stock left.
	ActiveEconomic int
}

func (a *Agent) progress(w World) Progress {
	g := w.KnownMap()
	total := g.Rows() * g.Cols()
	var p Progress
	if total == 0 {
		return p
	}
	for r, row := range g {
		for c, t := range row {
			if t == nil {
				continue
			}
			p.Coverage++
			if t.Content.Kind.Economic() && t.Content.Amount > 0 && !a.Depleted(model.Coord{Row: r, Col: c}) {
				p.ActiveEconomic++
			}
		}
	}
	p.Coverage /= float64(total)
	return p
}

// ExplorationDone ends a run once the known map covers at least coverage of
// the world and fewer than two economic structures are still active. A
// non-positive coverage disables it.
func ExplorationDone(coverage float64) func(Progress) bool {
	if coverage <= 0 {
		return nil
	}
	return func(p Progress) bool {
		return p.Coverage >= coverage && p.ActiveEconomic < 2
	}
}
