package agent

import (
	"errors"

	"go.uber.org/zap"

	"pioneer.ai/internal/economy/value"
	"pioneer.ai/internal/nav/spyglass"
	"pioneer.ai/internal/sim/model"
)

// placeTent pitches a tent next to the agent and steps inside. It reports
// false when the agent has been sent elsewhere to find a spot.
func (a *Agent) placeTent(w World) bool {
	if w.Backpack().Count(model.Tent) == 0 {
		if err := w.Craft(model.Tent); err != nil {
			a.log.Debug("no tent, sleeping in the open", zap.Error(err))
			return true
		}
	}
	if d, ok := a.faceTarget(w, true, tentSpot); ok {
		_, err := w.Place(model.Tent, 1, d)
		if errors.Is(err, model.ErrMustDestroyContentFirst) {
			if _, err = w.Destroy(d); err == nil {
				_, err = w.Place(model.Tent, 1, d)
			}
		}
		if err != nil {
			a.log.Debug("tent placement", zap.Error(err))
			return false
		}
		if err := w.Move(d); err != nil {
			a.log.Debug("enter tent", zap.Error(err))
		}
		return true
	}

	res := a.scanner.Scan(w, spyglass.Request{
		Origin: w.Position(),
		Radius: a.policy.ShelterScanRadius,
		Stop:   tentSpot,
	})
	if res.Status == spyglass.Stopped {
		a.compass.SetDestination(res.Matches[0].At)
		a.next = Sleep()
		a.current = MoveTo(false)
		return false
	}
	return true
}

func (a *Agent) gather(w World, kind model.ContentKind) {
	if d, ok := a.faceTarget(w, true, ofKind(kind)); ok {
		if _, err := w.Destroy(d); err != nil {
			a.log.Debug("gather", zap.Stringer("kind", kind), zap.Error(err))
		}
	}
	a.sweep(w, kind, a.policy.SweepRadius)

	ahead, _ := a.outlook()
	bp := w.Backpack()
	if !bp.AtLeast(a.policy.BackpackFullPct) && !ahead.Hazardous() {
		a.next = Gather(kind)
		if c, err := a.locator.FindClosest(w.KnownMap(), w.Position(), kind, nil); err == nil {
			a.compass.SetDestination(c)
			a.current = MoveTo(false)
		} else {
			a.current = Explore()
		}
		return
	}
	a.current = Sell(value.BestSellable(bp.Items, a.rng))
	a.next = None()
}

// sweep collects every known tile of kind within radius of the starting
// position, walking between them, until the backpack is full or nothing
// reachable is left.
func (a *Agent) sweep(w World, kind model.ContentKind, radius int) {
	origin := w.Position()
	tried := map[model.Coord]struct{}{}
	skip := func(c model.Coord) bool {
		if _, ok := tried[c]; ok {
			return true
		}
		return max(abs(c.Row-origin.Row), abs(c.Col-origin.Col)) > radius
	}
	defer a.compass.ClearDestination()

	for steps := 0; steps < 4*radius; steps++ {
		if w.Backpack().Free() == 0 {
			return
		}
		if d, ok := a.faceTarget(w, true, ofKind(kind)); ok {
			if _, err := w.Destroy(d); err != nil {
				return
			}
			continue
		}
		c, err := a.locator.FindClosest(w.KnownMap(), w.Position(), kind, skip)
		if err != nil {
			return
		}
		a.compass.SetDestination(c)
		d, err := a.compass.NextStep(w.KnownMap(), w.Position())
		if err == nil {
			err = w.Move(d)
		}
		if err != nil {
			tried[c] = struct{}{}
		}
	}
}

func (a *Agent) sell(w World, kind model.ContentKind) {
	bp := w.Backpack()
	if kind == model.None {
		kind = value.BestSellable(bp.Items, a.rng)
	}
	if kind == model.None {
		if bp.Count(model.Coin) > 0 {
			a.current = Deposit()
		} else {
			a.current = Explore()
		}
		return
	}
	qty := bp.Count(kind)
	if qty == 0 {
		a.popNext()
		return
	}
	d, at, ok := a.faceStructure(w, model.Market)
	if !ok {
		a.next = Sell(kind)
		a.relocate(w, model.Market)
		return
	}
	n, err := w.Place(kind, qty, d)
	switch {
	case errors.Is(err, model.ErrNotEnoughSpace):
		a.next = Sell(kind)
		a.current = Deposit()
	case err != nil:
		a.log.Warn("sale failed", zap.Stringer("kind", kind), zap.Stringer("at", at), zap.Error(err))
		a.popNext()
	case n < qty:
		a.markDepleted(at)
		a.next = Sell(kind)
		a.relocate(w, model.Market)
	default:
		a.popNext()
	}
}

func (a *Agent) deposit(w World) {
	qty := w.Backpack().Count(model.Coin)
	if qty == 0 {
		a.popNext()
		return
	}
	d, at, ok := a.faceStructure(w, model.Bank)
	if !ok {
		a.next = Deposit()
		a.relocate(w, model.Bank)
		return
	}
	n, err := w.Place(model.Coin, qty, d)
	switch {
	case err != nil:
		a.log.Warn("deposit failed", zap.Stringer("at", at), zap.Error(err))
		a.popNext()
	case n < qty:
		a.markDepleted(at)
		a.next = Deposit()
		a.relocate(w, model.Bank)
	default:
		a.popNext()
	}
}

// faceStructure faces an adjacent structure of kind with stock left and
// returns the coordinate actually faced.
func (a *Agent) faceStructure(w World, kind model.ContentKind) (model.Direction, model.Coord, bool) {
	d, ok := a.faceTarget(w, true, func(t model.Tile, at model.Coord) bool {
		return t.Content.Kind == kind && t.Content.Amount > 0 && !a.Depleted(at)
	})
	if !ok {
		return d, model.Coord{}, false
	}
	return d, w.Position().Step(d), true
}

// relocate heads for another structure of kind, exploring when none is known.
func (a *Agent) relocate(w World, kind model.ContentKind) {
	g := w.KnownMap()
	c, err := a.locator.FindMostLoaded(g, w.Position(), kind, a.skipExhausted(g))
	if err != nil {
		a.current = Explore()
		return
	}
	a.compass.SetDestination(c)
	a.current = MoveTo(true)
}

func (a *Agent) explore(w World) {
	var stop Predicate
	visit := false
	if a.next.Kind == GatheringResource {
		stop = ofKind(a.next.Resource)
	} else {
		visit = true
		stop = func(t model.Tile, at model.Coord) bool {
			switch t.Content.Kind {
			case model.Market, model.Bank, model.Building:
				return !a.Pinned(at) && !a.Depleted(at)
			}
			return false
		}
	}
	g := w.KnownMap()
	res := a.scanner.Scan(w, spyglass.Request{
		Origin:       w.Position(),
		Radius:       min(g.Rows(), g.Cols()) / 2,
		EnergyBudget: max(w.Energy()/2, 1),
		Stop:         stop,
	})
	if res.Status == spyglass.Failed {
		a.log.Warn("scan failed", zap.Error(res.Err))
	}
	if res.Status == spyglass.Stopped && len(res.Matches) > 0 {
		a.compass.SetDestination(res.Matches[0].At)
		a.current = MoveTo(visit)
		return
	}
	a.setRandomDestination(w)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
