package archive

import (
	"os"
	"path/filepath"
	"testing"

	"pioneer.ai/internal/persistence/snapshot"
	"pioneer.ai/internal/sim/encoding"
)

func TestArchiveRun_CopiesCompletedRun(t *testing.T) {
	dataDir := t.TempDir()

	src := filepath.Join(dataDir, "snapshots", "40.snap.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir snapshots: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	snap := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: 1, RunID: "r1", Tick: 40},
		Seed:     42,
		Size:     2,
		MaxTicks: 40,
		Known:    encoding.EncodeFlags([]bool{true, false, false, true}),
		Agent:    snapshot.AgentV1{Score: 12.5},
	}

	archivedPath, ok, err := ArchiveRun(dataDir, src, snap)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok {
		t.Fatalf("expected archived=true")
	}

	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", string(got), string(want))
	}

	meta, err := ReadMeta(dataDir, "r1")
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.Coverage != 0.5 || meta.Score != 12.5 || meta.EndTick != 40 {
		t.Fatalf("meta=%+v", meta)
	}
}

func TestArchiveRun_SkipsUnfinished(t *testing.T) {
	for _, snap := range []snapshot.SnapshotV1{
		{Header: snapshot.Header{RunID: "r", Tick: 10}},
		{Header: snapshot.Header{RunID: "r", Tick: 10}, MaxTicks: 40},
	} {
		_, ok, err := ArchiveRun(t.TempDir(), "unused", snap)
		if err != nil || ok {
			t.Fatalf("tick=%d max=%d: ok=%v err=%v", snap.Header.Tick, snap.MaxTicks, ok, err)
		}
	}
}
