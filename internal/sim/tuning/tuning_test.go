package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_RepoConfigMatchesDefaults(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Defaults()
	want.Pilot.URL = "ws://127.0.0.1:8090/pilot"
	want.Storage.Mirror = Mirror{Bucket: "pioneer-runs", Region: "auto", Prefix: "runs", Workers: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tuning mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialOverridesKeepDefaults(t *testing.T) {
	p := writeTuning(t, "policy:\n  low_energy: 200\n  gather_strategy: most\nworld:\n  size: 32\n")
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Policy.LowEnergy != 200 || got.Policy.GatherStrategy != GatherMost {
		t.Fatalf("policy overrides not applied: %+v", got.Policy)
	}
	if got.World.Size != 32 {
		t.Fatalf("size=%d", got.World.Size)
	}
	if got.Policy.RecoveryEnergy != 250 || got.World.BackpackCapacity != 20 {
		t.Fatalf("defaults lost: %+v %+v", got.Policy, got.World)
	}
}

func TestLoad_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "policy:\n  bogus: 1\n",
		"bad strategy":  "policy:\n  gather_strategy: random\n",
		"pct overflow":  "policy:\n  backpack_full_pct: 140\n",
		"bad transport": "pilot:\n  transport: carrier-pigeon\n",
		"wrong type":    "world:\n  size: big\n",
	}
	for name, body := range cases {
		if _, err := Load(writeTuning(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestNormalize_FillsZeroValues(t *testing.T) {
	p := Policy{LowEnergy: 90, WalkerMinRun: 3, WalkerMaxRun: 2}.Normalize()
	if p.LowEnergy != 90 {
		t.Fatalf("low energy overwritten: %d", p.LowEnergy)
	}
	if p.RecentCapacity != 8 || p.ScanChance != 10 {
		t.Fatalf("zero values not defaulted: %+v", p)
	}
	if p.WalkerMaxRun != 3 {
		t.Fatalf("max run=%d want 3", p.WalkerMaxRun)
	}
	if p.GatherStrategy != GatherLeast {
		t.Fatalf("strategy=%q", p.GatherStrategy)
	}
}
