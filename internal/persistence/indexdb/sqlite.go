// Package indexdb keeps a queryable sqlite index of runs: one row per tick,
// objective transition and map mark. The JSONL tick trace stays the source
// of truth; the index may drop rows under load.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pioneer.ai/internal/agent"
	ticklog "pioneer.ai/internal/persistence/log"
	"pioneer.ai/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick       atomic.Uint64
	dropTransition atomic.Uint64
	dropMark       atomic.Uint64
	dropSnapshot   atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqTransition
	reqMark
	reqSnapshot
	reqEnd
)

type req struct {
	kind  reqKind
	runID string

	tick       ticklog.TickEntry
	transition agent.Transition
	mark       agent.Mark
	snapshot   snapshotRow
	end        endRow
}

type snapshotRow struct {
	Tick uint64
	Path string
}

type endRow struct {
	Tick  uint64
	Score float64
}

// Run describes a run at start.
type Run struct {
	ID        string
	StartedAt time.Time
	Seed      int64
	Size      int
	Tuning    tuning.Tuning
	// ResumedFrom is the snapshot path a resumed run was loaded from.
	ResumedFrom string
}

// RunRow is a stored run.
type RunRow struct {
	ID           string
	StartedAt    string
	Seed         int64
	Size         int
	TuningDigest string
	ResumedFrom  string
	EndedAt      string
	FinalTick    uint64
	FinalScore   float64
}

type Stats struct {
	QueueDepth          int
	QueueCapacity       int
	DropTickTotal       uint64
	DropTransitionTotal uint64
	DropMarkTotal       uint64
	DropSnapshotTotal   uint64
}

func NewRunID() string { return uuid.NewString() }

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			size INTEGER NOT NULL,
			tuning_digest TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			resumed_from TEXT NOT NULL DEFAULT '',
			ended_at TEXT NOT NULL DEFAULT '',
			final_tick INTEGER NOT NULL DEFAULT 0,
			final_score REAL NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			pos_row INTEGER NOT NULL,
			pos_col INTEGER NOT NULL,
			energy INTEGER NOT NULL,
			score REAL NOT NULL,
			cur_objective TEXT NOT NULL,
			next_objective TEXT NOT NULL,
			pilot TEXT NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS transitions (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			from_current TEXT NOT NULL,
			from_next TEXT NOT NULL,
			to_current TEXT NOT NULL,
			to_next TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_to ON transitions(run_id, to_current);`,
		`CREATE TABLE IF NOT EXISTS marks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			kind TEXT NOT NULL,
			pos_row INTEGER NOT NULL,
			pos_col INTEGER NOT NULL,
			PRIMARY KEY (run_id, kind, pos_row, pos_col)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:          len(s.ch),
		QueueCapacity:       cap(s.ch),
		DropTickTotal:       s.dropTick.Load(),
		DropTransitionTotal: s.dropTransition.Load(),
		DropMarkTotal:       s.dropMark.Load(),
		DropSnapshotTotal:   s.dropSnapshot.Load(),
	}
}

// StartRun records a run synchronously, storing the tuning actually applied.
func (s *SQLiteIndex) StartRun(ctx context.Context, r Run) error {
	b, err := json.Marshal(r.Tuning)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	started := r.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,started_at,seed,size,tuning_digest,tuning_json,resumed_from) VALUES(?,?,?,?,?,?,?)`,
		r.ID, started.UTC().Format(time.RFC3339Nano), r.Seed, r.Size, hex.EncodeToString(sum[:]), string(b), r.ResumedFrom)
	return err
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		drops.Add(1)
	}
}

func (s *SQLiteIndex) WriteTick(e ticklog.TickEntry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqTick, runID: e.RunID, tick: e}, &s.dropTick)
	return nil
}

func (s *SQLiteIndex) RecordTransition(runID string, t agent.Transition) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqTransition, runID: runID, transition: t}, &s.dropTransition)
}

func (s *SQLiteIndex) RecordMark(runID string, m agent.Mark) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqMark, runID: runID, mark: m}, &s.dropMark)
}

func (s *SQLiteIndex) RecordSnapshot(runID string, tick uint64, path string) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSnapshot, runID: runID, snapshot: snapshotRow{Tick: tick, Path: path}}, &s.dropSnapshot)
}

// EndRun is queued behind the run's ticks; it blocks rather than drop.
func (s *SQLiteIndex) EndRun(runID string, tick uint64, score float64) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- req{kind: reqEnd, runID: runID, end: endRow{Tick: tick, Score: score}}
}

func (s *SQLiteIndex) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id,started_at,seed,size,tuning_digest,resumed_from,ended_at,final_tick,final_score FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		var tick int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Seed, &r.Size, &r.TuningDigest, &r.ResumedFrom, &r.EndedAt, &tick, &r.FinalScore); err != nil {
			return nil, err
		}
		r.FinalTick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ObjectiveCounts counts how often each objective was entered during a run.
func (s *SQLiteIndex) ObjectiveCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT to_current, COUNT(*) FROM transitions WHERE run_id=? GROUP BY to_current`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,pos_row,pos_col,energy,score,cur_objective,next_objective,pilot,digest,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertTransition, _ := s.db.Prepare(`INSERT OR REPLACE INTO transitions(run_id,tick,from_current,from_next,to_current,to_next) VALUES(?,?,?,?,?,?)`)
	insertMark, _ := s.db.Prepare(`INSERT OR IGNORE INTO marks(run_id,tick,kind,pos_row,pos_col) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(run_id,tick,path) VALUES(?,?,?)`)
	updateEnd, _ := s.db.Prepare(`UPDATE runs SET ended_at=?, final_tick=?, final_score=? WHERE run_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertTransition, insertMark, insertSnapshot, updateEnd} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			raw, _ := json.Marshal(e)
			exec(insertTick, r.runID, int64(e.Tick), e.Pos.Row, e.Pos.Col, e.Energy, e.Score,
				e.Current, e.Next, e.Pilot, e.Digest, string(raw))
		case reqTransition:
			t := r.transition
			exec(insertTransition, r.runID, int64(t.Tick), t.From.String(), t.FromNext.String(), t.To.String(), t.ToNext.String())
		case reqMark:
			m := r.mark
			exec(insertMark, r.runID, int64(m.Tick), m.Kind.String(), m.At.Row, m.At.Col)
		case reqSnapshot:
			exec(insertSnapshot, r.runID, int64(r.snapshot.Tick), r.snapshot.Path)
		case reqEnd:
			exec(updateEnd, time.Now().UTC().Format(time.RFC3339Nano), int64(r.end.Tick), r.end.Score, r.runID)
			commit()
			continue
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
