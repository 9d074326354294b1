package objstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Stats struct {
	QueueDepth    int
	Enqueued      uint64
	Dropped       uint64
	Uploaded      uint64
	Failed        uint64
	LastErrorUnix int64
}

// Uploader is the part of Client the mirror needs.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

// Mirror uploads files below dataDir in the background. Object keys are the
// path relative to dataDir, under prefix.
type Mirror struct {
	up      Uploader
	dataDir string
	prefix  string
	log     *zap.Logger

	jobs    chan string
	wait    time.Duration
	backoff time.Duration
	wg      sync.WaitGroup

	enqueued      atomic.Uint64
	dropped       atomic.Uint64
	uploaded      atomic.Uint64
	failed        atomic.Uint64
	lastErrorUnix atomic.Int64
}

func NewMirror(up Uploader, dataDir, prefix string, workers int, log *zap.Logger) *Mirror {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mirror{
		up:      up,
		dataDir: dataDir,
		prefix:  strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		log:     log.Named("mirror"),
		jobs:    make(chan string, 256),
		wait:    25 * time.Millisecond,
		backoff: 200 * time.Millisecond,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				m.upload(p)
			}
		}()
	}
	return m
}

// Enqueue schedules localPath for upload. It never blocks longer than a short
// grace period; a saturated queue drops the file.
func (m *Mirror) Enqueue(localPath string) {
	if m == nil {
		return
	}
	m.enqueued.Add(1)
	select {
	case m.jobs <- localPath:
		return
	default:
	}
	timer := time.NewTimer(m.wait)
	defer timer.Stop()
	select {
	case m.jobs <- localPath:
	case <-timer.C:
		m.dropped.Add(1)
		m.log.Warn("drop", zap.String("path", localPath), zap.String("reason", "queue_saturated"))
	}
}

// Close waits for queued uploads.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	close(m.jobs)
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(m.jobs),
		Enqueued:      m.enqueued.Load(),
		Dropped:       m.dropped.Load(),
		Uploaded:      m.uploaded.Load(),
		Failed:        m.failed.Load(),
		LastErrorUnix: m.lastErrorUnix.Load(),
	}
}

func (m *Mirror) upload(localPath string) {
	key, err := m.objectKey(localPath)
	if err != nil {
		m.log.Warn("skip", zap.String("path", localPath), zap.Error(err))
		return
	}
	const attempts = 4
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = m.up.PutFile(ctx, key, localPath)
		cancel()
		if err == nil {
			m.uploaded.Add(1)
			m.log.Debug("uploaded", zap.String("key", key))
			return
		}
		if i < attempts {
			time.Sleep(time.Duration(i*i) * m.backoff)
		}
	}
	m.failed.Add(1)
	m.lastErrorUnix.Store(time.Now().Unix())
	m.log.Warn("upload failed", zap.String("key", key), zap.Error(err))
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	base, err := filepath.Abs(m.dataDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", abs, base)
	}
	if m.prefix != "" {
		rel = path.Join(m.prefix, rel)
	}
	return rel, nil
}
