package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"pioneer.ai/internal/pilot"
	"pioneer.ai/internal/protocol"
)

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"9.snap.zst", "120.snap.zst", "notes.txt", "abc.snap.zst"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := latestSnapshot(dir), filepath.Join(snaps, "120.snap.zst"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := latestSnapshot(t.TempDir()); got != "" {
		t.Fatalf("empty dir gave %q", got)
	}
}

// A short headless run leaves a trace that replays to the same digests.
func TestRunThenReplay(t *testing.T) {
	dir := t.TempDir()
	tuningPath := filepath.Join(dir, "tuning.yaml")
	body := "world:\n  size: 24\n  seed: 5\n  max_ticks: 60\npilot:\n  transport: none\n"
	if err := os.WriteFile(tuningPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	o := runOptions{tuningPath: tuningPath, dataDir: dir, interval: time.Millisecond, digest: true, maxTicks: -1}
	if err := runPioneer(ctx, o, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if latestSnapshot(dir) == "" {
		t.Fatalf("no snapshot written")
	}
	if metas, _ := filepath.Glob(filepath.Join(dir, "archives", "*", "meta.json")); len(metas) != 1 {
		t.Fatalf("archives=%v, want one completed run", metas)
	}

	var out bytes.Buffer
	if err := replay(&out, replayOptions{dir: filepath.Join(dir, "ticks"), verify: true, tuningPath: tuningPath}); err != nil {
		t.Fatalf("replay: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "replay ok: checked=60 ticks") {
		t.Fatalf("unexpected replay output:\n%s", out.String())
	}
}

type loopPort struct {
	in  []byte
	out bytes.Buffer
}

func (p *loopPort) Read(b []byte) (int, error) {
	if len(p.in) == 0 {
		return 0, pilot.ErrTimeout
	}
	n := copy(b, p.in)
	p.in = p.in[n:]
	return n, nil
}
func (p *loopPort) Write(b []byte) (int, error)        { return p.out.Write(b) }
func (p *loopPort) SetReadTimeout(time.Duration) error { return nil }
func (p *loopPort) ResetInput() error                  { p.in = nil; return nil }
func (p *loopPort) Close() error                       { return nil }

func TestProbe(t *testing.T) {
	p := &loopPort{in: []byte{protocol.ReadyByte}}
	var out bytes.Buffer
	if err := probe(&out, p, probeOptions{count: 2, interval: time.Millisecond}); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if p.out.Len() != 2*protocol.FrameSize {
		t.Fatalf("wrote %d bytes", p.out.Len())
	}
	if !strings.Contains(out.String(), "<- 00") || !strings.Contains(out.String(), "<- (nothing)") {
		t.Fatalf("output:\n%s", out.String())
	}
}
