package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"pioneer.ai/internal/persistence/snapshot"
	"pioneer.ai/internal/sim/encoding"
)

type RunArchiveMeta struct {
	RunID     string  `json:"run_id"`
	EndTick   uint64  `json:"end_tick"`
	Seed      int64   `json:"seed"`
	Size      int     `json:"size"`
	Score     float64 `json:"score"`
	Coverage  float64 `json:"coverage"`
	Snapshot  string  `json:"snapshot"`
	CreatedAt string  `json:"created_at"`
}

// ArchiveRun copies the final snapshot of a completed run into
// `dataDir/archives/<run_id>/`. Runs without a tick limit, or stopped before
// reaching it, are not archived.
func ArchiveRun(dataDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if snap.MaxTicks <= 0 || snap.Header.Tick < uint64(snap.MaxTicks) {
		return "", false, nil
	}
	runID := snap.Header.RunID
	if runID == "" {
		runID = "unnamed"
	}

	archiveDir := filepath.Join(dataDir, "archives", runID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := RunArchiveMeta{
		RunID:     runID,
		EndTick:   snap.Header.Tick,
		Seed:      snap.Seed,
		Size:      snap.Size,
		Score:     snap.Agent.Score,
		Coverage:  coverage(snap),
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return dst, true, nil
}

// ReadMeta loads the meta.json of an archived run.
func ReadMeta(dataDir, runID string) (RunArchiveMeta, error) {
	var m RunArchiveMeta
	b, err := os.ReadFile(filepath.Join(dataDir, "archives", runID, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func coverage(snap snapshot.SnapshotV1) float64 {
	n := snap.Size * snap.Size
	if n == 0 {
		return 0
	}
	known, err := encoding.DecodeFlags(snap.Known, n)
	if err != nil {
		return 0
	}
	c := 0
	for _, k := range known {
		if k {
			c++
		}
	}
	return float64(c) / float64(n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
