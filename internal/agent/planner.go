package agent

import (
	"go.uber.org/zap"

	"pioneer.ai/internal/economy/value"
	"pioneer.ai/internal/nav/mapper"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/tuning"
)

var shelters = []model.ContentKind{model.Building, model.Market, model.Bank}

func (a *Agent) decide(w World, assisted bool) {
	a.compass.ClearDestination()
	if w.Backpack().Count(model.Tent) == 0 {
		if d, ok := a.faceTarget(w, true, ofKind(model.Tent)); ok {
			if _, err := w.Destroy(d); err != nil {
				a.log.Debug("tent pickup", zap.Error(err))
			}
		}
	}
	if assisted {
		o, err := a.pilot.Objective()
		switch {
		case err != nil:
			a.dropPilot(err)
		case o.Kind != Idle:
			a.next = None()
			a.current = o
			return
		}
	}
	a.plan(w)
}

// outlook returns the forecast weather and whether the forecaster answered.
// An unanswered forecast counts as benign.
func (a *Agent) outlook() (model.Weather, bool) {
	wx, err := a.forecast.Predict(a.policy.ForecastHours)
	if err != nil {
		a.log.Debug("forecast unavailable", zap.Error(err))
		return model.Sunny, false
	}
	return wx, true
}

func (a *Agent) plan(w World) {
	ahead, known := a.outlook()
	bp := w.Backpack()
	switch {
	case w.Weather().Hazardous():
		a.current = Sleep()
	case ahead.Hazardous():
		a.seekShelter(w)
	case bp.AtLeast(a.policy.BackpackFullPct):
		kind := value.BestSellable(bp.Items, a.rng)
		coins := bp.Count(model.Coin)
		switch {
		case kind == model.None && coins == 0:
			a.current = Explore()
		case coins > bp.Count(kind):
			a.next = Deposit()
			a.routeTo(w, model.Bank, known && ahead == model.Sunny, true)
		default:
			a.next = Sell(kind)
			a.routeTo(w, model.Market, known && ahead == model.Sunny, true)
		}
	case bp.AtMost(a.policy.BackpackLowPct):
		kind := a.pickGatherable(bp)
		a.next = Gather(kind)
		a.routeTo(w, kind, known && ahead == model.Sunny, false)
	default:
		a.current = Explore()
	}
}

func (a *Agent) pickGatherable(bp model.Backpack) model.ContentKind {
	pick := value.Lowest
	if a.policy.GatherStrategy == tuning.GatherMost {
		pick = value.Highest
	}
	kind, _ := pick(bp.Items, model.Gatherable, value.ByQuantity, a.rng)
	return kind
}

// seekShelter heads for the closest known structure, or vegetation to craft
// a tent from, and waits there for the night.
func (a *Agent) seekShelter(w World) {
	a.next = WaitUntil(model.Night)
	g, pos := w.KnownMap(), w.Position()
	for _, k := range shelters {
		if c, err := a.locator.FindClosest(g, pos, k, nil); err == nil {
			a.compass.SetDestination(c)
			a.current = MoveTo(true)
			return
		}
	}
	if c, err := a.locator.FindClosest(g, pos, model.Tree, nil); err == nil {
		a.compass.SetDestination(c)
		a.current = MoveTo(false)
		return
	}
	a.current = Explore()
}

// routeTo sets a destination holding kind: the most loaded one when the
// outlook allows a longer trip, the closest otherwise. Without one the agent
// explores and keeps next queued.
func (a *Agent) routeTo(w World, kind model.ContentKind, far, discover bool) {
	g, pos := w.KnownMap(), w.Position()
	skip := a.skipExhausted(g)
	var (
		c   model.Coord
		err error
	)
	if far {
		c, err = a.locator.FindMostLoaded(g, pos, kind, skip)
	} else {
		c, err = a.locator.FindClosest(g, pos, kind, skip)
	}
	if err != nil {
		a.current = Explore()
		return
	}
	a.compass.SetDestination(c)
	a.current = MoveTo(discover)
}

// skipExhausted hides structures known or marked to have nothing left.
func (a *Agent) skipExhausted(g model.Grid) mapper.Skip {
	return func(c model.Coord) bool {
		if a.Depleted(c) {
			return true
		}
		t := g.At(c)
		return t != nil && t.Content.Kind.Economic() && t.Content.Amount <= 0
	}
}

func (a *Agent) setRandomDestination(w World) {
	c := leastExplored(w.KnownMap(), a.rng)
	a.compass.SetDestination(c)
	a.current = MoveTo(false)
	a.log.Debug("random destination", zap.Stringer("at", c))
}
