package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"pioneer.ai/internal/agent"
	ticklog "pioneer.ai/internal/persistence/log"
	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/tuning"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick}

	_ = s.WriteTick(ticklog.TickEntry{Tick: 2})
	s.RecordTransition("r", agent.Transition{Tick: 2})
	s.RecordMark("r", agent.Mark{Tick: 2, Kind: agent.MarkPin})
	s.RecordSnapshot("r", 2, "/tmp/2.snap.zst")

	want := Stats{
		QueueDepth:          1,
		QueueCapacity:       1,
		DropTickTotal:       1,
		DropTransitionTotal: 1,
		DropMarkTotal:       1,
		DropSnapshotTotal:   1,
	}
	if diff := cmp.Diff(want, s.Stats()); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}
}

func TestSQLiteIndex_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	runID := NewRunID()
	tu := tuning.Defaults()
	if err := idx.StartRun(ctx, Run{ID: runID, StartedAt: time.Unix(100, 0), Seed: tu.World.Seed, Size: tu.World.Size, Tuning: tu}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	for i := uint64(1); i <= 3; i++ {
		_ = idx.WriteTick(ticklog.TickEntry{RunID: runID, Tick: i, Current: "Exploring", Next: "None", Pilot: "none"})
	}
	idx.RecordTransition(runID, agent.Transition{Tick: 1, From: agent.None(), FromNext: agent.None(), To: agent.Decide(), ToNext: agent.None()})
	idx.RecordTransition(runID, agent.Transition{Tick: 2, From: agent.Decide(), FromNext: agent.None(), To: agent.Explore(), ToNext: agent.None()})
	idx.RecordTransition(runID, agent.Transition{Tick: 3, From: agent.Explore(), FromNext: agent.None(), To: agent.Decide(), ToNext: agent.None()})
	pin := agent.Mark{Tick: 2, Kind: agent.MarkPin, At: model.Coord{Row: 4, Col: 5}}
	idx.RecordMark(runID, pin)
	idx.RecordMark(runID, pin)
	idx.RecordSnapshot(runID, 3, "/data/3.snap.zst")
	idx.EndRun(runID, 3, 42.5)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	runs, err := idx.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs=%d", len(runs))
	}
	r := runs[0]
	if r.ID != runID || r.FinalTick != 3 || r.FinalScore != 42.5 || r.EndedAt == "" || len(r.TuningDigest) != 64 {
		t.Fatalf("run=%+v", r)
	}

	counts, err := idx.ObjectiveCounts(ctx, runID)
	if err != nil {
		t.Fatalf("ObjectiveCounts: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"Deciding": 2, "Exploring": 1}, counts); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}

	var ticks, marks, snaps int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM ticks WHERE run_id=?`, runID).Scan(&ticks); err != nil {
		t.Fatal(err)
	}
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM marks WHERE run_id=?`, runID).Scan(&marks); err != nil {
		t.Fatal(err)
	}
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE run_id=?`, runID).Scan(&snaps); err != nil {
		t.Fatal(err)
	}
	if ticks != 3 || marks != 1 || snaps != 1 {
		t.Fatalf("ticks=%d marks=%d snapshots=%d", ticks, marks, snaps)
	}
}
