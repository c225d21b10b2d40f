// Package tournament plays every gardener against every variety config.
// Games run in parallel, each on its own garden; the simulation core itself
// stays single-threaded.
package tournament

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/flowergarden/internal/persistence"
	"github.com/talgya/flowergarden/internal/runner"
)

// Outcome is the result of one task. Err is set when the game could not be
// played; other tasks are unaffected.
type Outcome struct {
	Task
	RunID         string        `json:"run_id,omitempty"`
	PlantsPlaced  int           `json:"plants_placed"`
	FinalGrowth   float64       `json:"final_growth"`
	PlacementTime time.Duration `json:"placement_time"`
	Snapshots     int           `json:"snapshots"`
	Err           error         `json:"-"`
}

// SnapshotLine is one record of the compressed snapshot log.
type SnapshotLine struct {
	persistence.PlantRow
	Gardener         string  `json:"gardener"`
	Config           string  `json:"config"`
	TotalGrowth      float64 `json:"total_growth"`
	PlacementSeconds float64 `json:"placement_seconds"`
}

// Tournament runs a plan. The store and the log are optional.
type Tournament struct {
	plan Plan

	mu    sync.Mutex // Serialises store writes so a run's rows land together
	store *persistence.DB
	log   *persistence.JSONLZstdWriter

	// OnDone, when set, is called after every task. It may be called from
	// several goroutines at once.
	OnDone func(Outcome)
}

func New(plan Plan, store *persistence.DB, log *persistence.JSONLZstdWriter) *Tournament {
	return &Tournament{plan: plan, store: store, log: log}
}

// Run plays every task with at most plan.Workers games at a time. Failed
// games are logged and reported in their Outcome. The returned error is set
// only when the plan is unusable or ctx was cancelled.
func (t *Tournament) Run(ctx context.Context) ([]Outcome, error) {
	if err := t.plan.Validate(); err != nil {
		return nil, err
	}
	tasks, err := t.plan.Tasks()
	if err != nil {
		return nil, err
	}

	slog.Info("tournament starting",
		"tasks", len(tasks),
		"gardeners", len(t.plan.Gardeners),
		"turns", t.plan.Turns,
		"workers", t.plan.Workers,
	)
	start := time.Now()

	outcomes := make([]Outcome, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.plan.Workers)
	for i, task := range tasks {
		g.Go(func() error {
			out := t.play(gctx, task)
			outcomes[i] = out
			if out.Err != nil {
				slog.Error("run failed", "task", task.Index, "gardener", task.Gardener, "config", task.Config, "error", out.Err)
			} else {
				slog.Info("run complete",
					"task", task.Index,
					"gardener", task.Gardener,
					"config", task.Config,
					"final_growth", fmt.Sprintf("%.2f", out.FinalGrowth),
				)
			}
			if t.OnDone != nil {
				t.OnDone(out)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("tournament finished", "tasks", len(tasks), "elapsed", time.Since(start).Round(time.Millisecond))
	return outcomes, ctx.Err()
}

func (t *Tournament) play(ctx context.Context, task Task) Outcome {
	out := Outcome{Task: task}

	cfg := runner.DefaultConfig()
	cfg.Width, cfg.Height = t.plan.Width, t.plan.Height
	cfg.Turns = t.plan.Turns
	cfg.TimeLimit = t.plan.TimeLimit
	cfg.VarietiesFile = task.Config

	r, err := runner.New(cfg)
	if err != nil {
		out.Err = err
		return out
	}
	game, err := r.Setup(ctx, task.Gardener)
	if err != nil {
		out.Err = err
		return out
	}
	out.RunID = game.ID
	out.PlacementTime = game.PlacementTime

	e := game.Engine
	var rows []persistence.PlantRow
	for i := 0; i < t.plan.Turns; i++ {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		e.RunTurn()
		// Snapshots after turns 1, 1+every, 1+2*every, ...
		if i%t.plan.SnapshotEvery != 0 {
			continue
		}
		snap := persistence.PlantRows(game.ID, e.Turn(), e.Garden())
		rows = append(rows, snap...)
		out.Snapshots++
		if err := t.writeLog(task, snap, e.Garden().TotalGrowth(), game.PlacementTime); err != nil {
			out.Err = fmt.Errorf("write snapshot log: %w", err)
			return out
		}
	}

	res := r.Result(task.Gardener, game, e.GrowthHistory())
	out.PlantsPlaced = res.PlantsPlaced
	out.FinalGrowth = res.FinalGrowth

	if err := t.save(res, rows); err != nil {
		out.Err = fmt.Errorf("save run: %w", err)
	}
	return out
}

func (t *Tournament) writeLog(task Task, rows []persistence.PlantRow, growth float64, placement time.Duration) error {
	if t.log == nil {
		return nil
	}
	for _, row := range rows {
		line := SnapshotLine{
			PlantRow:         row,
			Gardener:         task.Gardener,
			Config:           task.Config,
			TotalGrowth:      growth,
			PlacementSeconds: placement.Seconds(),
		}
		if err := t.log.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tournament) save(res runner.Result, rows []persistence.PlantRow) error {
	if t.store == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store.SaveRunWithSnapshots(res.Row(), res.History, rows)
}

// Standing aggregates a gardener's outcomes.
type Standing struct {
	Gardener   string  `json:"gardener"`
	Runs       int     `json:"runs"`
	Failed     int     `json:"failed"`
	MeanGrowth float64 `json:"mean_growth"`
	BestGrowth float64 `json:"best_growth"`
}

// Leaderboard ranks gardeners by mean final growth over their successful
// runs, best first. Ties keep gardener name order.
func Leaderboard(outcomes []Outcome) []Standing {
	byName := make(map[string]*Standing)
	for _, o := range outcomes {
		s, ok := byName[o.Gardener]
		if !ok {
			s = &Standing{Gardener: o.Gardener}
			byName[o.Gardener] = s
		}
		if o.Err != nil {
			s.Failed++
			continue
		}
		s.Runs++
		s.MeanGrowth += o.FinalGrowth
		s.BestGrowth = max(s.BestGrowth, o.FinalGrowth)
	}

	board := make([]Standing, 0, len(byName))
	for _, s := range byName {
		if s.Runs > 0 {
			s.MeanGrowth /= float64(s.Runs)
		}
		board = append(board, *s)
	}
	slices.SortFunc(board, func(a, b Standing) int {
		if c := cmp.Compare(b.MeanGrowth, a.MeanGrowth); c != 0 {
			return c
		}
		return cmp.Compare(a.Gardener, b.Gardener)
	})
	return board
}
