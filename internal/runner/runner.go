// Package runner plays one game: it obtains varieties, lets a gardener plant
// them, then runs the simulation for a fixed number of turns.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/flowergarden/internal/engine"
	"github.com/talgya/flowergarden/internal/entropy"
	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/gardener"
	"github.com/talgya/flowergarden/internal/nursery"
	"github.com/talgya/flowergarden/internal/persistence"
	"github.com/talgya/flowergarden/internal/plants"
)

// Config describes one game. Exactly one of VarietiesFile and RandomCount
// selects where varieties come from.
type Config struct {
	Width         float64
	Height        float64
	Turns         int
	TimeLimit     time.Duration // Placement budget; exceeding it only warns
	VarietiesFile string
	RandomCount   int
	Seed          *int64 // Used when the variety file carries no seed
}

// DefaultConfig returns the standard 16x10 garden, 100 turns and a 60 second
// placement budget. The variety source is left unset.
func DefaultConfig() Config {
	return Config{
		Width:     garden.DefaultWidth,
		Height:    garden.DefaultHeight,
		Turns:     100,
		TimeLimit: 60 * time.Second,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch {
	case c.VarietiesFile != "" && c.RandomCount > 0:
		return errors.New("varieties file and random count are mutually exclusive")
	case c.VarietiesFile == "" && c.RandomCount <= 0:
		return errors.New("must provide either a varieties file or a positive random count")
	case c.Turns < 0:
		return fmt.Errorf("turns %d must not be negative", c.Turns)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("garden %gx%g must have positive size", c.Width, c.Height)
	}
	return nil
}

// Source names where the varieties came from, for reports.
func (c Config) Source() string {
	if c.VarietiesFile != "" {
		return c.VarietiesFile
	}
	return fmt.Sprintf("random:%d", c.RandomCount)
}

// Result summarises a finished game.
type Result struct {
	RunID         string        `json:"run_id"`
	Gardener      string        `json:"gardener"`
	Source        string        `json:"source"`
	Seed          int64         `json:"seed"`
	Turns         int           `json:"turns"`
	Varieties     int           `json:"varieties"`
	PlantsPlaced  int           `json:"plants_placed"`
	FinalGrowth   float64       `json:"final_growth"`
	PlacementTime time.Duration `json:"placement_time"`
	OverBudget    bool          `json:"over_budget"`
	History       []float64     `json:"history"`
	Stats         engine.Stats  `json:"stats"` // Garden at the end of the game
}

// Game is a planted garden ready to simulate.
type Game struct {
	ID            string
	Engine        *engine.Engine
	Varieties     []*plants.Variety
	Seed          int64
	PlacementTime time.Duration
	OverBudget    bool
}

// GameRunner runs games for one configuration.
type GameRunner struct {
	cfg Config

	// OnTurn, when set, is installed on every engine the runner builds.
	OnTurn func(engine.TurnReport)
}

// New validates cfg and returns a runner for it.
func New(cfg Config) (*GameRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runner config: %w", err)
	}
	return &GameRunner{cfg: cfg}, nil
}

// Config returns the runner's configuration.
func (r *GameRunner) Config() Config { return r.cfg }

// Varieties loads or generates the varieties for a game and returns them
// with the seed in effect. A seed in the variety file beats Config.Seed.
func (r *GameRunner) Varieties() ([]*plants.Variety, int64, error) {
	if r.cfg.VarietiesFile != "" {
		cat, err := nursery.LoadFile(r.cfg.VarietiesFile)
		if err != nil {
			return nil, 0, err
		}
		return cat.Varieties, entropy.Seed(cat.Seed, r.cfg.Seed), nil
	}

	seed := entropy.Seed(r.cfg.Seed)
	vs, err := nursery.GenerateRandom(r.cfg.RandomCount, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, 0, err
	}
	return vs, seed, nil
}

// Setup obtains varieties and lets the named gardener plant them. The
// gardener's context carries the placement budget as a deadline; a gardener
// that stops on that deadline keeps whatever it planted.
func (r *GameRunner) Setup(ctx context.Context, gardenerName string) (*Game, error) {
	varieties, seed, err := r.Varieties()
	if err != nil {
		return nil, err
	}
	gd, err := gardener.New(gardenerName, seed)
	if err != nil {
		return nil, err
	}

	g := garden.New(r.cfg.Width, r.cfg.Height)

	placeCtx := ctx
	if r.cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		placeCtx, cancel = context.WithTimeout(ctx, r.cfg.TimeLimit)
		defer cancel()
	}

	start := time.Now()
	err = gd.Cultivate(placeCtx, g, varieties)
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("cultivate with %s: %w", gardenerName, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	over := r.cfg.TimeLimit > 0 && elapsed > r.cfg.TimeLimit
	if over {
		slog.Warn("placement exceeded time limit",
			"gardener", gardenerName,
			"elapsed", elapsed.Round(time.Millisecond),
			"limit", r.cfg.TimeLimit,
		)
	}
	slog.Info("garden planted",
		"gardener", gardenerName,
		"varieties", len(varieties),
		"plants", g.Len(),
		"seed", seed,
		"elapsed", elapsed.Round(time.Millisecond),
	)

	e := engine.New(g)
	e.OnTurn = r.OnTurn
	return &Game{
		ID:            uuid.NewString(),
		Engine:        e,
		Varieties:     varieties,
		Seed:          seed,
		PlacementTime: elapsed,
		OverBudget:    over,
	}, nil
}

// Run plays a full game with the named gardener. Cancelling ctx stops the
// simulation between turns; the partial game is discarded.
func (r *GameRunner) Run(ctx context.Context, gardenerName string) (Result, error) {
	game, err := r.Setup(ctx, gardenerName)
	if err != nil {
		return Result{}, err
	}
	e := game.Engine
	for i := 0; i < r.cfg.Turns; i++ {
		if err := ctx.Err(); err != nil {
			slog.Warn("game interrupted", "run_id", game.ID, "gardener", gardenerName, "turn", e.Turn())
			return Result{}, err
		}
		e.RunTurn()
	}
	res := r.Result(gardenerName, game, e.GrowthHistory())

	slog.Info("game finished",
		"run_id", res.RunID,
		"gardener", gardenerName,
		"turns", res.Turns,
		"final_growth", fmt.Sprintf("%.2f", res.FinalGrowth),
	)
	return res, nil
}

// Result assembles the summary of a game whose simulation has finished.
func (r *GameRunner) Result(gardenerName string, game *Game, history []float64) Result {
	g := game.Engine.Garden()
	return Result{
		RunID:         game.ID,
		Gardener:      gardenerName,
		Source:        r.cfg.Source(),
		Seed:          game.Seed,
		Turns:         game.Engine.Turn(),
		Varieties:     len(game.Varieties),
		PlantsPlaced:  g.Len(),
		FinalGrowth:   g.TotalGrowth(),
		PlacementTime: game.PlacementTime,
		OverBudget:    game.OverBudget,
		History:       history,
		Stats:         game.Engine.Stats(),
	}
}

// Row converts the result into its stored form.
func (res Result) Row() persistence.RunRow {
	return persistence.RunRow{
		ID:           res.RunID,
		Gardener:     res.Gardener,
		Source:       res.Source,
		Seed:         res.Seed,
		Turns:        res.Turns,
		Varieties:    res.Varieties,
		PlantsPlaced: res.PlantsPlaced,
		FinalGrowth:  res.FinalGrowth,
		PlacementMS:  res.PlacementTime.Milliseconds(),
	}
}
