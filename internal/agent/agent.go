// Package agent implements the pioneer decision core: a two-slot objective
// machine stepped once per tick by its host.
package agent

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"pioneer.ai/internal/nav/compass"
	"pioneer.ai/internal/nav/forecast"
	"pioneer.ai/internal/nav/mapper"
	"pioneer.ai/internal/nav/spyglass"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/tuning"
)

type Config struct {
	Policy tuning.Policy
	Log    *zap.Logger
	// Seed feeds the agent's random source when Rand is nil.
	Seed uint64
	Rand *rand.Rand

	Compass  Pathfinder
	Scanner  Scanner
	Locator  Locator
	Forecast Forecaster

	// Dial is retried every RetryTicks ticks while no pilot is attached.
	Dial       Dialer
	RetryTicks int

	// Done, when set, ends the run once it reports true at the end of a tick.
	Done  func(Progress) bool
	Hooks Hooks
}

type MarkKind uint8

const (
	MarkPin MarkKind = iota + 1
	MarkDepleted
)

func (k MarkKind) String() string {
	if k == MarkDepleted {
		return "depleted"
	}
	return "pin"
}

type Mark struct {
	Tick uint64
	Kind MarkKind
	At   model.Coord
}

type Transition struct {
	Tick     uint64
	From     Objective
	FromNext Objective
	To       Objective
	ToNext   Objective
}

// Hooks are called synchronously from OnTick.
type Hooks struct {
	OnObjective func(Transition)
	OnMark      func(Mark)
}

type Agent struct {
	log    *zap.Logger
	policy tuning.Policy
	staged *tuning.Policy
	rng    *rand.Rand

	compass  Pathfinder
	scanner  Scanner
	locator  Locator
	forecast Forecaster

	pilot      Pilot
	dial       Dialer
	retryTicks int
	retryIn    int

	done  func(Progress) bool
	hooks Hooks

	current Objective
	next    Objective

	recent   *RecentPositions
	pins     map[model.Coord]struct{}
	depleted map[model.Coord]struct{}

	running bool
	tick    uint64
	score   float64
}

func New(cfg Config) *Agent {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	}
	a := &Agent{
		log:        log,
		policy:     cfg.Policy.Normalize(),
		rng:        rng,
		compass:    cfg.Compass,
		scanner:    cfg.Scanner,
		locator:    cfg.Locator,
		forecast:   cfg.Forecast,
		dial:       cfg.Dial,
		retryTicks: cfg.RetryTicks,
		done:       cfg.Done,
		hooks:      cfg.Hooks,
		current:    None(),
		next:       None(),
		pins:       map[model.Coord]struct{}{},
		depleted:   map[model.Coord]struct{}{},
		running:    true,
	}
	if a.compass == nil {
		a.compass = compass.New()
	}
	if a.scanner == nil {
		a.scanner = spyglass.New()
	}
	if a.locator == nil {
		a.locator = mapper.New()
	}
	if a.forecast == nil {
		a.forecast = forecast.New()
	}
	a.recent = NewRecentPositions(a.policy.RecentCapacity)
	return a
}

func (a *Agent) Running() bool { return a.running }

// SetPolicy stages p; it takes effect at the start of the next tick.
func (a *Agent) SetPolicy(p tuning.Policy) {
	p = p.Normalize()
	a.staged = &p
}

// Objectives reports both slots for tests and logging. Only the machine
// itself acts on next.
func (a *Agent) Objectives() (current, next Objective) { return a.current, a.next }

func (a *Agent) Pinned(c model.Coord) bool {
	_, ok := a.pins[c]
	return ok
}

func (a *Agent) Depleted(c model.Coord) bool {
	_, ok := a.depleted[c]
	return ok
}

// OnTick runs one step of the objective machine.
func (a *Agent) OnTick(w World) {
	if !a.running {
		return
	}
	if a.staged != nil {
		a.applyPolicy(*a.staged)
		a.staged = nil
	}
	a.tick++
	from, fromNext := a.current, a.next

	a.ensurePilot()
	if a.pilot != nil && a.pilot.Manual() {
		a.manualPilot(w)
	} else {
		a.autoPilot(w, a.pilot != nil)
	}
	a.score = w.Score()

	if from != a.current || fromNext != a.next {
		a.log.Info("objective",
			zap.Uint64("tick", a.tick),
			zap.Stringer("from", from),
			zap.Stringer("current", a.current),
			zap.Stringer("next", a.next))
		if a.hooks.OnObjective != nil {
			a.hooks.OnObjective(Transition{Tick: a.tick, From: from, FromNext: fromNext, To: a.current, ToNext: a.next})
		}
	}
	if a.done != nil && a.done(a.progress(w)) {
		a.log.Info("exploration complete", zap.Uint64("tick", a.tick))
		a.running = false
	}
}

func (a *Agent) OnEvent(ev model.Event) {
	switch ev.Type {
	case model.EventReady:
		a.recent.Push(ev.Pos)
	case model.EventTerminated:
		a.running = false
	case model.EventTimeChanged:
		a.forecast.Observe(ev.Conditions)
	case model.EventDayChanged:
		if a.pilot != nil {
			if err := a.pilot.PutScore(float32(a.score)); err != nil {
				a.dropPilot(err)
			}
		}
	case model.EventMoved:
		a.recent.Push(ev.Pos)
	default:
		a.log.Debug("event", zap.Stringer("type", ev.Type))
	}
}

func (a *Agent) applyPolicy(p tuning.Policy) {
	if p.RecentCapacity != a.policy.RecentCapacity {
		r := NewRecentPositions(p.RecentCapacity)
		for _, c := range a.recent.Items() {
			r.Push(c)
		}
		a.recent = r
	}
	a.policy = p
	a.log.Info("policy reloaded")
}

func (a *Agent) autoPilot(w World, assisted bool) {
	a.applyOverrides(w)
	switch a.current.Kind {
	case Deciding:
		a.decide(w, assisted)
	case WaitingUntil:
		if w.TimeOfDay() == a.current.Until {
			a.popNext()
		}
	case MovingTo:
		a.walk(w, a.current.Discover)
	case ChargingTo:
		if w.Energy() >= a.current.Level {
			a.popNext()
		}
	case Sleeping:
		if a.placeTent(w) {
			a.next = Decide()
			if w.TimeOfDay() == model.Morning {
				a.current = WaitUntil(model.Night)
			} else {
				a.current = WaitUntil(model.Morning)
			}
		}
	case GatheringResource:
		a.gather(w, a.current.Resource)
	case SellingResource:
		a.sell(w, a.current.Resource)
	case Depositing:
		a.deposit(w)
	case Exploring:
		a.explore(w)
	case Idle:
		if a.next.Kind == Idle {
			a.current = Decide()
		} else {
			a.popNext()
		}
	}
}

func (a *Agent) applyOverrides(w World) {
	if w.TimeOfDay() == model.Night {
		if a.current.Kind != Sleeping && a.current.Kind != WaitingUntil && a.next.Kind != Sleeping {
			a.current = Sleep()
		}
		return
	}
	if w.Energy() < a.policy.LowEnergy && !a.current.holding() && !a.next.holding() {
		a.next = a.current
		a.current = ChargeTo(a.policy.RecoveryEnergy)
	}
}

func (a *Agent) popNext() {
	a.current = a.next
	a.next = None()
}

func (a *Agent) pin(c model.Coord) {
	if _, ok := a.pins[c]; ok {
		return
	}
	a.pins[c] = struct{}{}
	a.log.Info("pin", zap.Stringer("at", c))
	if a.hooks.OnMark != nil {
		a.hooks.OnMark(Mark{Tick: a.tick, Kind: MarkPin, At: c})
	}
}

func (a *Agent) markDepleted(c model.Coord) {
	if _, ok := a.depleted[c]; ok {
		return
	}
	a.depleted[c] = struct{}{}
	a.log.Info("depleted", zap.Stringer("at", c))
	if a.hooks.OnMark != nil {
		a.hooks.OnMark(Mark{Tick: a.tick, Kind: MarkDepleted, At: c})
	}
}

// chance reports true with probability 1/n.
func (a *Agent) chance(n int) bool {
	if n <= 1 {
		return true
	}
	return a.rng.IntN(n) == 0
}

func (a *Agent) ensurePilot() {
	if a.pilot != nil || a.dial == nil {
		return
	}
	if a.retryIn > 0 {
		a.retryIn--
		return
	}
	p, err := a.dial()
	if err != nil {
		a.retryIn = a.retryTicks
		a.log.Debug("pilot unavailable", zap.Error(err))
		return
	}
	a.pilot = p
	a.log.Info("pilot attached", zap.Bool("manual", p.Manual()))
}

func (a *Agent) dropPilot(err error) {
	if a.pilot == nil {
		return
	}
	_ = a.pilot.Close()
	a.pilot = nil
	a.retryIn = a.retryTicks
	if err != nil {
		a.log.Warn("pilot dropped", zap.Error(err))
	} else {
		a.log.Info("pilot dropped")
	}
}
