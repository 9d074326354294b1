// Package mapper locates resources on the known map.
package mapper

import (
	"errors"

	"pioneer.ai/internal/sim/model"
)

var ErrNotFound = errors.New("content not found in the known map")

// Skip excludes coordinates from a search; nil skips nothing.
type Skip func(model.Coord) bool

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// FindClosest returns the known tile holding kind nearest to from (Manhattan),
// row-major on ties.
func (Mapper) FindClosest(g model.Grid, from model.Coord, kind model.ContentKind, skip Skip) (model.Coord, error) {
	var best model.Coord
	found := false
	each(g, kind, skip, func(c model.Coord, _ model.Content) {
		if !found || c.Manhattan(from) < best.Manhattan(from) {
			best, found = c, true
		}
	})
	if !found {
		return model.Coord{}, ErrNotFound
	}
	return best, nil
}

// FindMostLoaded returns the known tile holding the largest amount of kind,
// closest first on ties.
func (Mapper) FindMostLoaded(g model.Grid, from model.Coord, kind model.ContentKind, skip Skip) (model.Coord, error) {
	var best model.Coord
	bestAmount := 0
	found := false
	each(g, kind, skip, func(c model.Coord, ct model.Content) {
		switch {
		case !found, ct.Amount > bestAmount,
			ct.Amount == bestAmount && c.Manhattan(from) < best.Manhattan(from):
			best, bestAmount, found = c, ct.Amount, true
		}
	})
	if !found {
		return model.Coord{}, ErrNotFound
	}
	return best, nil
}

func each(g model.Grid, kind model.ContentKind, skip Skip, fn func(model.Coord, model.Content)) {
	for r, row := range g {
		for col, t := range row {
			if t == nil || t.Content.Kind != kind {
				continue
			}
			c := model.Coord{Row: r, Col: col}
			if skip != nil && skip(c) {
				continue
			}
			fn(c, t.Content)
		}
	}
}
