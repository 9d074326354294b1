package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"pioneer.ai/internal/agent"
	ticklog "pioneer.ai/internal/persistence/log"
	"pioneer.ai/internal/sim/runner"
	"pioneer.ai/internal/sim/tuning"
	"pioneer.ai/internal/sim/world"
)

type replayOptions struct {
	dir        string
	runID      string
	verify     bool
	tuningPath string
}

func newReplayCmd() *cobra.Command {
	var o replayOptions
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Summarise a tick trace, optionally re-simulating it to check digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return replay(cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.dir, "ticks", filepath.Join("data", "ticks"), "directory holding ticks-*.jsonl.zst")
	f.StringVar(&o.runID, "run", "", "run id to summarise (default: the last run in the trace)")
	f.BoolVar(&o.verify, "verify", false, "re-run a fresh, unpiloted run and compare world digests")
	f.StringVar(&o.tuningPath, "tuning", "./configs/tuning.yaml", "tuning used by --verify")
	return cmd
}

type summary struct {
	RunID      string
	Ticks      int
	First      uint64
	Last       uint64
	FinalScore float64
	Objectives map[string]int
	Pilots     map[string]int
	Events     map[string]int
	Completed  bool
	entries    []ticklog.TickEntry
}

func loadRun(dir, runID string) (*summary, error) {
	files, err := ticklog.ListTickFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no tick files found in %s", dir)
	}
	runs := map[string]*summary{}
	var last string
	for _, path := range files {
		err := ticklog.ReadTickFile(path, func(e ticklog.TickEntry) error {
			s := runs[e.RunID]
			if s == nil {
				s = &summary{RunID: e.RunID, First: e.Tick, Objectives: map[string]int{}, Pilots: map[string]int{}, Events: map[string]int{}}
				runs[e.RunID] = s
			}
			last = e.RunID
			s.add(e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if runID == "" {
		runID = last
	}
	s, ok := runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %q not in trace", runID)
	}
	return s, nil
}

func (s *summary) add(e ticklog.TickEntry) {
	s.Ticks++
	s.Last = e.Tick
	s.FinalScore = e.Score
	s.Completed = e.Completed
	s.Objectives[e.Current]++
	s.Pilots[e.Pilot]++
	for k, n := range e.Events {
		s.Events[k] += n
	}
	s.entries = append(s.entries, e)
}

func (s *summary) print(out io.Writer) {
	fmt.Fprintf(out, "run %s: ticks=%d (%d..%d) final_score=%.2f completed=%v\n",
		s.RunID, s.Ticks, s.First, s.Last, s.FinalScore, s.Completed)
	printHistogram(out, "objectives", s.Objectives)
	printHistogram(out, "pilot", s.Pilots)
	printHistogram(out, "events", s.Events)
}

func printHistogram(out io.Writer, title string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(out, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-28s %d\n", k, m[k])
	}
}

func replay(out io.Writer, o replayOptions) error {
	s, err := loadRun(o.dir, o.runID)
	if err != nil {
		return err
	}
	s.print(out)
	if !o.verify {
		return nil
	}
	tune, err := tuning.Load(o.tuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	checked, err := verify(s.entries, tune)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "replay ok: checked=%d ticks\n", checked)
	return nil
}

// verify re-simulates a run from tick 1 and compares world digests. Only
// runs started fresh, without a pilot or policy reloads, are reproducible.
func verify(entries []ticklog.TickEntry, tune tuning.Tuning) (int, error) {
	if len(entries) == 0 || entries[0].Tick != 1 {
		return 0, fmt.Errorf("verify needs a trace starting at tick 1")
	}
	cfg := world.ConfigFromTuning(tune.World)
	w := world.New(cfg)
	a := agent.New(agent.Config{
		Policy: tune.Policy,
		Seed:   uint64(cfg.Seed),
		Done:   agent.ExplorationDone(tune.Policy.ExploreStopCoverage),
	})
	r := runner.New(w, a, runner.Config{Digest: true})
	w.Start()

	checked := 0
	for _, e := range entries {
		f := r.Step()
		if f.Tick != e.Tick {
			return checked, fmt.Errorf("tick drift: trace=%d replay=%d", e.Tick, f.Tick)
		}
		if e.Digest == "" {
			continue
		}
		if f.Digest != e.Digest {
			return checked, fmt.Errorf("digest mismatch at tick %d: trace=%s replay=%s", e.Tick, e.Digest, f.Digest)
		}
		checked++
		if f.Completed {
			break
		}
	}
	return checked, nil
}
