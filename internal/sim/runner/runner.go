// Package runner owns the tick loop: it steps the reference world and drives
// a host-contract agent, one tick at a time.
package runner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pioneer.ai/internal/agent"
	"pioneer.ai/internal/persistence/snapshot"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/tuning"
	"pioneer.ai/internal/sim/world"
)

// Agent is the host contract plus the controls the loop exposes.
type Agent interface {
	agent.Host
	Status() agent.Status
	SetPolicy(p tuning.Policy)
}

// Frame describes one completed tick.
type Frame struct {
	Tick      uint64        `json:"tick"`
	Pos       model.Coord   `json:"pos"`
	Energy    int           `json:"energy"`
	Score     float64       `json:"score"`
	DayTime   model.DayTime `json:"day_time"`
	Weather   model.Weather `json:"weather"`
	Agent     agent.Status  `json:"agent"`
	Events    []model.Event `json:"-"`
	Digest    string        `json:"digest,omitempty"`
	Completed bool          `json:"completed,omitempty"`
}

type Config struct {
	Log *zap.Logger
	// Digest adds a world state digest to every frame.
	Digest bool
}

type snapshotReq struct {
	runID string
	resp  chan snapshot.SnapshotV1
}

type Runner struct {
	w   *world.World
	a   Agent
	log *zap.Logger

	digest    bool
	observers []func(Frame)
	events    []model.Event

	policy chan tuning.Policy
	snap   chan snapshotReq
	stop   chan struct{}
}

var ErrStopped = errors.New("runner stopped")

func New(w *world.World, a Agent, cfg Config) *Runner {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		w:      w,
		a:      a,
		log:    log,
		digest: cfg.Digest,
		policy: make(chan tuning.Policy, 1),
		snap:   make(chan snapshotReq, 8),
		stop:   make(chan struct{}),
	}
	w.Subscribe(r.onEvent)
	return r
}

func (r *Runner) onEvent(ev model.Event) {
	r.events = append(r.events, ev)
	r.a.OnEvent(ev)
}

// Observe registers fn to receive every frame; call before Run.
func (r *Runner) Observe(fn func(Frame)) { r.observers = append(r.observers, fn) }

// Done reports whether no further tick is meaningful.
func (r *Runner) Done() bool { return !r.a.Running() || r.w.Terminated() }

// Step runs one agent tick and advances the world clock.
func (r *Runner) Step() Frame {
	r.events = r.events[:0]
	r.a.OnTick(r.w)
	r.w.EndTick()

	f := Frame{
		Tick:    r.w.Tick(),
		Pos:     r.w.Position(),
		Energy:  r.w.Energy(),
		Score:   r.w.Score(),
		DayTime: r.w.TimeOfDay(),
		Weather: r.w.Weather(),
		Agent:   r.a.Status(),
		Events:  append([]model.Event(nil), r.events...),
	}
	if r.digest {
		f.Digest = r.w.Digest()
	}
	f.Completed = r.Done()
	for _, fn := range r.observers {
		fn(f)
	}
	return f
}

// Run starts the world and ticks every interval until the agent stops, the
// world terminates, ctx is cancelled or Stop is called. A non-positive
// interval uses a fixed small pause.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Millisecond
	}
	r.w.Start()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingSnap []snapshotReq
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case p := <-r.policy:
			r.a.SetPolicy(p)
		case req := <-r.snap:
			pendingSnap = append(pendingSnap, req)
		case <-ticker.C:
			select {
			case p := <-r.policy:
				r.a.SetPolicy(p)
			default:
			}
			f := r.Step()
			for _, req := range pendingSnap {
				req.resp <- r.w.ExportSnapshot(req.runID)
			}
			pendingSnap = pendingSnap[:0]
			if f.Completed {
				r.log.Info("run complete", zap.Uint64("tick", f.Tick), zap.Float64("score", f.Score))
				return nil
			}
		}
	}
}

func (r *Runner) Stop() { close(r.stop) }

// Reload hands a policy to the loop; it reaches the agent between ticks.
// A newer policy replaces one not yet picked up.
func (r *Runner) Reload(p tuning.Policy) {
	select {
	case r.policy <- p:
		return
	default:
	}
	select {
	case <-r.policy:
	default:
	}
	select {
	case r.policy <- p:
	default:
	}
}

// Snapshot asks the running loop for a world snapshot taken after the next tick.
func (r *Runner) Snapshot(ctx context.Context, runID string) (snapshot.SnapshotV1, error) {
	req := snapshotReq{runID: runID, resp: make(chan snapshot.SnapshotV1, 1)}
	select {
	case r.snap <- req:
	case <-ctx.Done():
		return snapshot.SnapshotV1{}, ctx.Err()
	case <-r.stop:
		return snapshot.SnapshotV1{}, ErrStopped
	}
	select {
	case s := <-req.resp:
		return s, nil
	case <-ctx.Done():
		return snapshot.SnapshotV1{}, ctx.Err()
	case <-r.stop:
		return snapshot.SnapshotV1{}, ErrStopped
	}
}
