package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/flowergarden/internal/engine"
)

const threeSpecies = `{
  "seed": 7,
  "varieties": [
    {"name": "rhodo", "radius": 1, "species": "RHODODENDRON", "nutrient_coefficients": {"R": 1.0, "G": -0.25, "B": -0.25}},
    {"name": "geranium", "radius": 1, "species": "GERANIUM", "nutrient_coefficients": {"R": -0.25, "G": 1.0, "B": -0.25}},
    {"name": "begonia", "radius": 1, "species": "BEGONIA", "nutrient_coefficients": {"R": -0.25, "G": -0.25, "B": 1.0}}
  ]
}`

func varietyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "three.json")
	if err := os.WriteFile(path, []byte(threeSpecies), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ptr(v int64) *int64 { return &v }

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"no source", func(c *Config) {}, true},
		{"file", func(c *Config) { c.VarietiesFile = "x.json" }, false},
		{"random", func(c *Config) { c.RandomCount = 5 }, false},
		{"both", func(c *Config) { c.VarietiesFile = "x.json"; c.RandomCount = 5 }, true},
		{"negative turns", func(c *Config) { c.RandomCount = 5; c.Turns = -1 }, true},
		{"empty garden", func(c *Config) { c.RandomCount = 5; c.Width = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_FromFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VarietiesFile = varietyFile(t)
	cfg.Turns = 10
	cfg.Seed = ptr(1)

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background(), "triangle")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Seed != 7 {
		t.Errorf("seed = %d, want the file's 7", res.Seed)
	}
	if res.PlantsPlaced != 3 || res.Varieties != 3 {
		t.Errorf("placed %d of %d, want 3 of 3", res.PlantsPlaced, res.Varieties)
	}
	if len(res.History) != 10 || res.Turns != 10 {
		t.Fatalf("history length %d, turns %d, want 10", len(res.History), res.Turns)
	}
	if res.FinalGrowth != res.History[9] {
		t.Errorf("final growth %g != last history entry %g", res.FinalGrowth, res.History[9])
	}
	if res.FinalGrowth <= 0 {
		t.Errorf("final growth = %g, want positive", res.FinalGrowth)
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", res.RunID, err)
	}
	if res.Source != cfg.VarietiesFile || res.Gardener != "triangle" {
		t.Errorf("result metadata = %+v", res)
	}
}

func TestRun_RandomIsReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomCount = 20
	cfg.Turns = 50
	cfg.Seed = ptr(91)

	run := func() Result {
		r, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		res, err := r.Run(context.Background(), "random")
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	a, b := run(), run()

	if a.Seed != 91 || a.Varieties != 20 {
		t.Fatalf("seed %d varieties %d", a.Seed, a.Varieties)
	}
	if !slices.Equal(a.History, b.History) || a.PlantsPlaced != b.PlantsPlaced {
		t.Fatal("same seed produced different games")
	}
	if a.RunID == b.RunID {
		t.Error("run ids should be unique")
	}
}

func TestRun_OnTurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VarietiesFile = varietyFile(t)
	cfg.Turns = 4

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var turns []int
	r.OnTurn = func(rep engine.TurnReport) { turns = append(turns, rep.Turn) }

	if _, err := r.Run(context.Background(), "greedy"); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(turns, []int{1, 2, 3, 4}) {
		t.Fatalf("reported turns %v", turns)
	}
}

func TestRun_CancelledMidSimulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomCount = 20
	cfg.Turns = 2000
	cfg.Seed = ptr(91)

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	last := 0
	r.OnTurn = func(rep engine.TurnReport) {
		last = rep.Turn
		if rep.Turn == 1 {
			cancel()
		}
	}

	res, err := r.Run(ctx, "greedy")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if last != 1 {
		t.Errorf("simulation ran to turn %d after cancel, want 1", last)
	}
	if res.RunID != "" || res.Turns != 0 {
		t.Errorf("interrupted run returned a result: %+v", res)
	}
}

func TestRun_ResultStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VarietiesFile = varietyFile(t)
	cfg.Turns = 10

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background(), "triangle")
	if err != nil {
		t.Fatal(err)
	}

	st := res.Stats
	if st.Turn != 10 || st.Plants != 3 || st.Interactions != 3 {
		t.Fatalf("stats = %+v", st)
	}
	if st.TotalGrowth != res.FinalGrowth {
		t.Errorf("stats growth %g != final growth %g", st.TotalGrowth, res.FinalGrowth)
	}
	for _, sp := range []string{"RHODODENDRON", "GERANIUM", "BEGONIA"} {
		if st.SpeciesCounts[sp] != 1 {
			t.Errorf("species counts = %v", st.SpeciesCounts)
			break
		}
	}
}

func TestRun_Errors(t *testing.T) {
	if _, err := New(DefaultConfig()); err == nil {
		t.Error("expected config error")
	}

	cfg := DefaultConfig()
	cfg.RandomCount = 3
	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), "nope"); err == nil {
		t.Error("expected unknown gardener error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Run(ctx, "random"); err == nil {
		t.Error("expected error for cancelled context")
	}

	cfg = DefaultConfig()
	cfg.VarietiesFile = filepath.Join(t.TempDir(), "missing.json")
	r, _ = New(cfg)
	if _, err := r.Run(context.Background(), "random"); err == nil {
		t.Error("expected error for missing variety file")
	}
}

func TestResultRow(t *testing.T) {
	res := Result{
		RunID:         "abc",
		Gardener:      "greedy",
		Source:        "random:20",
		Seed:          91,
		Turns:         100,
		Varieties:     20,
		PlantsPlaced:  18,
		FinalGrowth:   412.5,
		PlacementTime: 1500 * time.Millisecond,
	}
	row := res.Row()
	if row.ID != "abc" || row.Gardener != "greedy" || row.Seed != 91 || row.PlantsPlaced != 18 {
		t.Fatalf("row = %+v", row)
	}
	if row.PlacementMS != 1500 {
		t.Errorf("placement = %dms, want 1500", row.PlacementMS)
	}
	if row.CreatedAt != 0 {
		t.Errorf("CreatedAt = %d, want it left for the store to stamp", row.CreatedAt)
	}
}
