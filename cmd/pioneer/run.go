package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pioneer.ai/internal/agent"
	"pioneer.ai/internal/persistence/archive"
	"pioneer.ai/internal/persistence/indexdb"
	ticklog "pioneer.ai/internal/persistence/log"
	"pioneer.ai/internal/persistence/objstore"
	"pioneer.ai/internal/persistence/snapshot"
	"pioneer.ai/internal/pilot"
	"pioneer.ai/internal/sim/runner"
	"pioneer.ai/internal/sim/tuning"
	"pioneer.ai/internal/sim/world"
	"pioneer.ai/internal/transport/observer"
)

type runOptions struct {
	tuningPath   string
	dataDir      string
	snapPath     string
	resumeLatest bool
	interval     time.Duration
	watch        bool
	observerAddr string
	digest       bool
	seed         int64
	maxTicks     int
	transport    string
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pioneer until the world terminates or it is interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return runPioneer(ctx, o, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.tuningPath, "tuning", "./configs/tuning.yaml", "path to tuning.yaml")
	f.StringVar(&o.dataDir, "data", "", "runtime data directory (default: storage.data_dir)")
	f.StringVar(&o.snapPath, "snapshot", "", "resume the world from this snapshot")
	f.BoolVar(&o.resumeLatest, "resume-latest", false, "resume from the latest snapshot in the data dir")
	f.DurationVar(&o.interval, "tick-interval", 10*time.Millisecond, "pause between ticks")
	f.BoolVar(&o.watch, "watch", false, "reload the policy when the tuning file changes")
	f.StringVar(&o.observerAddr, "observer", "", "serve the status stream on this loopback address (empty to disable)")
	f.BoolVar(&o.digest, "digest", true, "record a world digest with every tick")
	f.Int64Var(&o.seed, "seed", 0, "world seed override (fresh worlds only)")
	f.IntVar(&o.maxTicks, "max-ticks", -1, "terminate the world after this many ticks (0 runs forever)")
	f.StringVar(&o.transport, "pilot", "", "pilot transport override: none|serial|ws")
	return cmd
}

func runPioneer(ctx context.Context, o runOptions, log *zap.Logger) error {
	tune, err := tuning.Load(o.tuningPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load tuning: %w", err)
		}
		log.Warn("tuning not found; using defaults", zap.String("path", o.tuningPath))
		tune = tuning.Defaults()
	}
	if o.seed != 0 {
		tune.World.Seed = o.seed
	}
	if o.maxTicks >= 0 {
		tune.World.MaxTicks = o.maxTicks
	}
	if o.transport != "" {
		tune.Pilot.Transport = o.transport
	}
	dataDir := o.dataDir
	if dataDir == "" {
		dataDir = tune.Storage.DataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	runID := indexdb.NewRunID()
	log = log.With(zap.String("run", runID))

	snapToLoad := strings.TrimSpace(o.snapPath)
	if snapToLoad == "" && o.resumeLatest {
		snapToLoad = latestSnapshot(dataDir)
	}
	cfg := world.ConfigFromTuning(tune.World)
	var w *world.World
	if snapToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapToLoad)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if w, err = world.FromSnapshot(cfg, snap); err != nil {
			return fmt.Errorf("import snapshot: %w", err)
		}
		cfg = w.Config()
		log.Info("resumed", zap.String("snapshot", filepath.Base(snapToLoad)), zap.Uint64("tick", w.Tick()))
	} else {
		w = world.New(cfg)
	}

	var idx *indexdb.SQLiteIndex
	if tune.Storage.Index {
		if idx, err = indexdb.OpenSQLite(filepath.Join(dataDir, "index.db")); err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
		if err := idx.StartRun(ctx, indexdb.Run{ID: runID, Seed: cfg.Seed, Size: cfg.Size, Tuning: tune, ResumedFrom: snapToLoad}); err != nil {
			log.Warn("index: start run", zap.Error(err))
		}
	}

	var mirror *objstore.Mirror
	if mc := tune.Storage.Mirror; mc.Endpoint != "" {
		client, err := objstore.New(mc.Endpoint, mc.Bucket, mc.Region, objstore.CredentialsFromEnv())
		if err != nil {
			return err
		}
		mirror = objstore.NewMirror(client, dataDir, mc.Prefix, mc.Workers, log)
		defer func() {
			mirror.Close()
			st := mirror.Stats()
			log.Info("mirror closed", zap.Uint64("uploaded", st.Uploaded), zap.Uint64("failed", st.Failed), zap.Uint64("dropped", st.Dropped))
		}()
	}

	dial, err := pilot.NewDialer(pilot.OptionsFromTuning(tune.Pilot, tune.Policy.PilotChargeEnergy, log.Named("pilot")))
	if err != nil {
		return err
	}

	a := agent.New(agent.Config{
		Policy:     tune.Policy,
		Log:        log.Named("agent"),
		Seed:       uint64(cfg.Seed),
		Dial:       dial,
		RetryTicks: tune.Pilot.RetryTicks,
		Done:       agent.ExplorationDone(tune.Policy.ExploreStopCoverage),
		Hooks: agent.Hooks{
			OnObjective: func(t agent.Transition) { idx.RecordTransition(runID, t) },
			OnMark:      func(m agent.Mark) { idx.RecordMark(runID, m) },
		},
	})
	r := runner.New(w, a, runner.Config{Log: log.Named("runner"), Digest: o.digest})

	var ticks *ticklog.TickLogger
	if tune.Storage.TickLog {
		ticks = ticklog.NewTickLogger(filepath.Join(dataDir, "ticks"))
		defer ticks.Close()
	}
	r.Observe(func(f runner.Frame) {
		if ticks == nil && idx == nil {
			return
		}
		e := ticklog.EntryFromFrame(runID, f)
		if ticks != nil {
			if err := ticks.WriteTick(e); err != nil {
				log.Warn("tick log", zap.Error(err))
			}
		}
		_ = idx.WriteTick(e)
	})

	var hub *observer.Server
	if o.observerAddr != "" {
		hub = observer.NewServer(cfg, runID, log.Named("observer"))
		r.Observe(hub.Publish)
	}

	log.Info("run starting", zap.Int64("seed", cfg.Seed), zap.Int("size", cfg.Size), zap.String("pilot", tune.Pilot.Transport))

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopAux := context.WithCancel(gctx)
	g.Go(func() error {
		defer stopAux()
		err := r.Run(gctx, o.interval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if o.watch {
		g.Go(func() error {
			return tuning.Watch(loopCtx, o.tuningPath, log.Named("tuning"), func(t tuning.Tuning) {
				r.Reload(t.Policy)
			})
		})
	}
	if hub != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/observer/bootstrap", hub.BootstrapHandler())
		mux.HandleFunc("/observer/ws", hub.WSHandler())
		srv := &http.Server{Addr: o.observerAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			<-loopCtx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		g.Go(func() error {
			log.Info("observer listening", zap.String("addr", o.observerAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	runErr := g.Wait()

	// The loop has stopped; the world is ours again.
	snap := w.ExportSnapshot(runID)
	path := filepath.Join(dataDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		log.Warn("snapshot write", zap.Error(err))
	} else {
		idx.RecordSnapshot(runID, snap.Header.Tick, path)
		mirror.Enqueue(path)
		if ap, ok, err := archive.ArchiveRun(dataDir, path, snap); err != nil {
			log.Warn("archive", zap.Error(err))
		} else if ok {
			log.Info("run archived", zap.String("path", ap))
			mirror.Enqueue(ap)
			mirror.Enqueue(filepath.Join(filepath.Dir(ap), "meta.json"))
		}
	}
	idx.EndRun(runID, w.Tick(), w.Score())

	st := a.Status()
	log.Info("run finished",
		zap.Uint64("tick", w.Tick()),
		zap.Float64("score", w.Score()),
		zap.Float64("coverage", w.Coverage()),
		zap.String("objective", st.Current),
		zap.String("snapshot", path))
	return runErr
}

func latestSnapshot(dataDir string) string {
	dir := filepath.Join(dataDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
