// Package log writes the machine-readable run trace: one compressed JSONL
// entry per tick, rotated hourly.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"pioneer.ai/internal/sim/model"
	"pioneer.ai/internal/sim/runner"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TickEntry is one line of the tick trace.
type TickEntry struct {
	RunID       string         `json:"run_id"`
	Tick        uint64         `json:"tick"`
	Pos         model.Coord    `json:"pos"`
	Energy      int            `json:"energy"`
	Score       float64        `json:"score"`
	DayTime     string         `json:"day_time"`
	Weather     string         `json:"weather"`
	Current     string         `json:"current"`
	Next        string         `json:"next"`
	Destination *model.Coord   `json:"destination,omitempty"`
	Pilot       string         `json:"pilot"`
	Events      map[string]int `json:"events,omitempty"`
	Digest      string         `json:"digest,omitempty"`
	Completed   bool           `json:"completed,omitempty"`
}

// EntryFromFrame flattens a runner frame; events are reduced to counts by type.
func EntryFromFrame(runID string, f runner.Frame) TickEntry {
	e := TickEntry{
		RunID:       runID,
		Tick:        f.Tick,
		Pos:         f.Pos,
		Energy:      f.Energy,
		Score:       f.Score,
		DayTime:     f.DayTime.String(),
		Weather:     f.Weather.String(),
		Current:     f.Agent.Current,
		Next:        f.Agent.Next,
		Destination: f.Agent.Destination,
		Pilot:       f.Agent.Pilot,
		Digest:      f.Digest,
		Completed:   f.Completed,
	}
	if len(f.Events) > 0 {
		e.Events = make(map[string]int)
		for _, ev := range f.Events {
			e.Events[ev.Type.String()]++
		}
	}
	return e
}

const tickPrefix = "ticks"

// TickLogger writes one JSONL entry per tick (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(dir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(dir, tickPrefix)}
}

func (l *TickLogger) WriteTick(v TickEntry) error { return l.w.Write(v) }
func (l *TickLogger) Close() error                { return l.w.Close() }

// ListTickFiles returns the trace files under dir in chronological order.
func ListTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, tickPrefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadTickFile calls fn for every entry of a trace file, stopping at the
// first error.
func ReadTickFile(path string, fn func(TickEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e TickEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}
