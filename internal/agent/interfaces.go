package agent

import (
	"pioneer.ai/internal/nav/mapper"
	"pioneer.ai/internal/nav/spyglass"
	"pioneer.ai/internal/sim/model"
)

// World is the environment the agent acts upon during a tick.
type World interface {
	spyglass.Discoverer

	Move(d model.Direction) error
	Destroy(d model.Direction) (int, error)
	Place(kind model.ContentKind, qty int, d model.Direction) (int, error)
	Craft(kind model.ContentKind) error

	// View is the 3x3 window centered on the agent.
	View() model.Grid
	Position() model.Coord
	Energy() int
	Backpack() model.Backpack
	Score() float64
	TimeOfDay() model.DayTime
	Weather() model.Weather
}

type Pathfinder interface {
	SetDestination(c model.Coord)
	ClearDestination()
	Destination() (model.Coord, bool)
	NextStep(g model.Grid, pos model.Coord) (model.Direction, error)
}

type Scanner interface {
	Scan(w spyglass.Discoverer, req spyglass.Request) spyglass.Result
}

type Locator interface {
	FindClosest(g model.Grid, from model.Coord, kind model.ContentKind, skip mapper.Skip) (model.Coord, error)
	FindMostLoaded(g model.Grid, from model.Coord, kind model.ContentKind, skip mapper.Skip) (model.Coord, error)
}

type Forecaster interface {
	Observe(c model.Conditions)
	Predict(hoursAhead int) (model.Weather, error)
}

// Pilot is a remote operator link. Every read is bounded by the link's own
// timeout; any returned error means the link is unusable.
type Pilot interface {
	Manual() bool
	// Objective asks for an assisted-mode choice; Idle means no override.
	Objective() (Objective, error)
	// Action reads one manual-mode action code.
	Action() (int8, error)
	PutScore(score float32) error
	Close() error
}

type Dialer func() (Pilot, error)

// Host is what an embedding harness drives once per tick.
type Host interface {
	OnTick(w World)
	OnEvent(ev model.Event)
	Running() bool
}
