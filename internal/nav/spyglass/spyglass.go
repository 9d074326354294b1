// Package spyglass reveals the area around a point ring by ring until a
// predicate matches or a budget runs out.
package spyglass

import (
	"sort"

	"pioneer.ai/internal/sim/model"
)

// Discoverer is the part of the world a scan needs.
type Discoverer interface {
	KnownMap() model.Grid
	Discover(cells []model.Coord) (int, error)
}

type Request struct {
	Origin model.Coord
	Radius int
	// MaxTiles caps how many unrevealed tiles are discovered; 0 means no cap.
	MaxTiles int
	// EnergyBudget caps the energy spent discovering; 0 means no cap.
	EnergyBudget int
	// Stop is evaluated on every known tile of each ring.
	Stop func(t model.Tile, at model.Coord) bool
}

type Status uint8

const (
	Complete Status = iota
	Stopped
	Paused
	Failed
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "COMPLETE"
	case Stopped:
		return "STOPPED"
	case Paused:
		return "PAUSED"
	}
	return "FAILED"
}

type Match struct {
	At   model.Coord
	Tile model.Tile
}

type Result struct {
	Status  Status
	Matches []Match
	Err     error
	// Revealed counts newly discovered tiles.
	Revealed int
}

type Spyglass struct{}

func New() *Spyglass { return &Spyglass{} }

// Scan walks rings of increasing Chebyshev distance from the origin. Matches of
// a ring are ordered by Manhattan distance, then row-major.
func (Spyglass) Scan(w Discoverer, req Request) Result {
	var res Result
	g := w.KnownMap()
	if !g.InBounds(req.Origin) {
		res.Status = Failed
		res.Err = model.ErrOutOfBounds
		return res
	}
	tileBudget := -1
	if req.MaxTiles > 0 {
		tileBudget = req.MaxTiles
	}
	if req.EnergyBudget > 0 {
		byEnergy := req.EnergyBudget / model.DiscoverCost
		if tileBudget < 0 || byEnergy < tileBudget {
			tileBudget = byEnergy
		}
	}

	for r := 1; r <= req.Radius; r++ {
		cells := ring(g, req.Origin, r)
		if len(cells) == 0 {
			break
		}
		var hidden []model.Coord
		for _, c := range cells {
			if g.At(c) == nil {
				hidden = append(hidden, c)
			}
		}
		paused := false
		if tileBudget >= 0 && len(hidden) > tileBudget {
			hidden = hidden[:tileBudget]
			paused = true
		}
		if len(hidden) > 0 {
			n, err := w.Discover(hidden)
			res.Revealed += n
			if tileBudget >= 0 {
				tileBudget -= n
			}
			if err != nil {
				res.Status = Failed
				res.Err = err
				return res
			}
			g = w.KnownMap()
		}
		if req.Stop != nil {
			for _, c := range cells {
				if t := g.At(c); t != nil && req.Stop(*t, c) {
					res.Matches = append(res.Matches, Match{At: c, Tile: *t})
				}
			}
		}
		if len(res.Matches) > 0 {
			sort.SliceStable(res.Matches, func(i, j int) bool {
				return res.Matches[i].At.Manhattan(req.Origin) < res.Matches[j].At.Manhattan(req.Origin)
			})
			res.Status = Stopped
			return res
		}
		if paused {
			res.Status = Paused
			return res
		}
	}
	res.Status = Complete
	return res
}

// ring lists the in-bounds cells at Chebyshev distance r from o, row-major.
func ring(g model.Grid, o model.Coord, r int) []model.Coord {
	var out []model.Coord
	for row := o.Row - r; row <= o.Row+r; row++ {
		for col := o.Col - r; col <= o.Col+r; col++ {
			if row != o.Row-r && row != o.Row+r && col != o.Col-r && col != o.Col+r {
				continue
			}
			c := model.Coord{Row: row, Col: col}
			if g.InBounds(c) {
				out = append(out, c)
			}
		}
	}
	return out
}
