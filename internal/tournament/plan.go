package tournament

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/gardener"
)

// Plan describes a tournament: every gardener plays every config.
type Plan struct {
	Turns         int           `yaml:"turns"`
	SnapshotEvery int           `yaml:"snapshot_every"`
	Workers       int           `yaml:"workers"`
	Width         float64       `yaml:"width"`
	Height        float64       `yaml:"height"`
	TimeLimit     time.Duration `yaml:"time_limit"`
	Gardeners     []string      `yaml:"gardeners"`
	Configs       []string      `yaml:"configs"` // Paths or glob patterns
	DBPath        string        `yaml:"db_path"`
	SnapshotPath  string        `yaml:"snapshot_path"` // .jsonl.zst output
}

// DefaultPlan returns 5000-turn games with snapshots every 100 turns, one
// worker per CPU and every registered gardener. Configs are left empty.
func DefaultPlan() Plan {
	return Plan{
		Turns:         5000,
		SnapshotEvery: 100,
		Workers:       runtime.GOMAXPROCS(0),
		Width:         garden.DefaultWidth,
		Height:        garden.DefaultHeight,
		TimeLimit:     60 * time.Second,
		Gardeners:     gardener.Names(),
	}
}

// LoadPlan reads a YAML plan. Keys missing from the file keep their
// DefaultPlan values.
func LoadPlan(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	p := DefaultPlan()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Plan{}, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// Validate reports plan errors.
func (p Plan) Validate() error {
	if p.Turns < 0 {
		return fmt.Errorf("turns %d must not be negative", p.Turns)
	}
	if p.SnapshotEvery <= 0 {
		return fmt.Errorf("snapshot_every %d must be positive", p.SnapshotEvery)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("workers %d must be positive", p.Workers)
	}
	if len(p.Gardeners) == 0 {
		return errors.New("no gardeners")
	}
	known := gardener.Names()
	for _, name := range p.Gardeners {
		if !slices.Contains(known, name) {
			return fmt.Errorf("unknown gardener %q (known: %v)", name, known)
		}
	}
	if len(p.Configs) == 0 {
		return errors.New("no configs")
	}
	return nil
}

// Task is one game of the tournament.
type Task struct {
	Index    int    `json:"index"`
	Config   string `json:"config"`
	Gardener string `json:"gardener"`
}

// Tasks expands config patterns and crosses them with the gardeners,
// config-major. Each pattern must match at least one file; matches of a
// pattern are sorted and duplicates across patterns are dropped.
func (p Plan) Tasks() ([]Task, error) {
	var configs []string
	seen := make(map[string]bool)
	for _, pattern := range p.Configs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("config pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("config pattern %q matches no files", pattern)
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				configs = append(configs, m)
			}
		}
	}

	tasks := make([]Task, 0, len(configs)*len(p.Gardeners))
	for _, c := range configs {
		for _, g := range p.Gardeners {
			tasks = append(tasks, Task{Index: len(tasks), Config: c, Gardener: g})
		}
	}
	return tasks, nil
}
