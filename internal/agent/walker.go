package agent

import (
	"errors"

	"go.uber.org/zap"

	"pioneer.ai/internal/nav/compass"
	"pioneer.ai/internal/nav/spyglass"
	"pioneer.ai/internal/sim/model"
)

// walk advances one step toward the destination.
func (a *Agent) walk(w World, discover bool) {
	if d, ok := a.faceTarget(w, false, loose); ok && w.Backpack().Free() > 0 && a.chance(a.policy.PickupChance) {
		if _, err := w.Destroy(d); err != nil {
			a.log.Debug("pickup", zap.Error(err))
		}
	}
	if a.chance(a.policy.ScanChance) {
		a.scanner.Scan(w, spyglass.Request{
			Origin:       w.Position(),
			Radius:       a.policy.MoveScanRadius,
			EnergyBudget: max(w.Energy()/5, 1),
		})
	}
	if a.next.Kind != GatheringResource && a.recent.Oscillating() {
		a.backtrack(w)
		return
	}

	pos := w.Position()
	d, err := a.compass.NextStep(w.KnownMap(), pos)
	if err != nil {
		a.pathError(w, err, discover)
		return
	}
	if a.recent.Contains(pos.Step(d)) && a.chance(a.policy.BacktrackChance) {
		a.blindWalk(w)
		return
	}

	err = w.Move(d)
	switch {
	case err == nil:
	case !errors.Is(err, model.ErrCannotWalk):
		a.log.Debug("move", zap.Stringer("dir", d), zap.Error(err))
	case a.next.Kind == GatheringResource:
		a.reachResource(w, d, a.next.Resource, discover)
	default:
		if dest, ok := a.compass.Destination(); ok {
			a.pin(dest)
		}
		a.popNext()
	}
}

func (a *Agent) pathError(w World, err error, discover bool) {
	switch {
	case errors.Is(err, compass.ErrNoDestination):
		a.setRandomDestination(w)
	case errors.Is(err, compass.ErrAlreadyAtDestination):
		if discover {
			a.pin(w.Position())
			if dest, ok := a.compass.Destination(); ok {
				a.pin(dest)
			}
		}
		a.popNext()
	default:
		a.log.Debug("no route", zap.Error(err))
		a.popNext()
	}
}

// blindWalk greedily closes the distance to the destination axis by axis
// for a short random run, then re-plans from scratch.
func (a *Agent) blindWalk(w World) {
	dest, ok := a.compass.Destination()
	if !ok {
		a.setRandomDestination(w)
	} else {
		p := a.policy
		steps := p.WalkerMinRun + a.rng.IntN(p.WalkerMaxRun-p.WalkerMinRun+1)
		stuckRow, stuckCol := false, false
		for i := 0; i < steps && !(stuckRow && stuckCol); i++ {
			pos := w.Position()
			if pos.Row != dest.Row {
				d := model.Down
				if pos.Row > dest.Row {
					d = model.Up
				}
				if w.Move(d) != nil {
					stuckRow = true
				}
			}
			pos = w.Position()
			if pos.Col != dest.Col {
				d := model.Right
				if pos.Col > dest.Col {
					d = model.Left
				}
				if w.Move(d) != nil {
					stuckCol = true
				}
			}
		}
		a.compass.ClearDestination()
		a.compass.SetDestination(dest)
	}
	a.recent.DropNewest(2)
	a.recent.Push(w.Position())
}

// backtrack retraces the recorded positions back to the oldest one and
// forgets them.
func (a *Agent) backtrack(w World) {
	trail := a.recent.Items()
	for i := len(trail) - 1; i >= 0; i-- {
		pos := w.Position()
		if trail[i] == pos {
			continue
		}
		d, ok := model.DirectionTo(pos, trail[i])
		if !ok || w.Move(d) != nil {
			break
		}
	}
	a.log.Debug("backtrack", zap.Stringer("to", w.Position()))
	a.recent.Clear()
	a.recent.Push(w.Position())
}

// reachResource handles a blocked step toward a resource: consume it if it
// is in view, otherwise fill the obstacle with rocks.
func (a *Agent) reachResource(w World, d model.Direction, kind model.ContentKind, discover bool) {
	if fd, ok := a.faceTarget(w, true, ofKind(kind)); ok {
		if _, err := w.Destroy(fd); err != nil {
			a.log.Debug("gather", zap.Stringer("kind", kind), zap.Error(err))
		}
		a.compass.ClearDestination()
		if discover {
			a.pin(w.Position())
		}
		a.popNext()
		return
	}
	a.bridge(w, d)
}

// bridge places 1, 2, ... rocks toward d until the placement holds.
func (a *Agent) bridge(w World, d model.Direction) {
	ahead := w.View().At(model.Coord{Row: 1, Col: 1}.Step(d))
	if ahead == nil || !fillable(*ahead) {
		a.compass.ClearDestination()
		a.next = None()
		a.current = Decide()
		return
	}
	qty := 1
	for attempt := 0; attempt < a.policy.BridgeMaxAttempts; attempt++ {
		_, err := w.Place(model.Rock, qty, d)
		switch {
		case err == nil:
			return
		case errors.Is(err, model.ErrMustDestroyContentFirst):
			if _, derr := w.Destroy(d); derr != nil {
				a.compass.ClearDestination()
				a.current = Decide()
				return
			}
			if t := w.View().At(model.Coord{Row: 1, Col: 1}.Step(d)); t != nil && t.Passable() {
				return
			}
		case errors.Is(err, model.ErrNotEnoughContent):
			if w.Backpack().Count(model.Rock) < qty {
				a.compass.ClearDestination()
				a.next = Gather(model.Rock)
				a.current = Explore()
				return
			}
			qty++
		case errors.Is(err, model.ErrNotEnoughEnergy):
			a.current = ChargeTo(a.policy.BridgeChargeEnergy)
			return
		default:
			a.log.Debug("bridge", zap.Error(err))
			a.compass.ClearDestination()
			a.next = None()
			a.current = Decide()
			return
		}
	}
	a.compass.ClearDestination()
	a.current = Decide()
}

// fillable reports whether rocks can clear the way: water to fill, or
// walkable ground behind loose content.
func fillable(t model.Tile) bool {
	switch k := t.Content.Kind; {
	case k.Economic(), k == model.Building:
		return false
	case t.Type.BridgeCost() > 0:
		return true
	}
	return t.Type.Walkable()
}
