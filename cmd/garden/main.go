// Command garden plays one game: a gardener plants a set of varieties and
// the garden is simulated for a fixed number of turns.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/flowergarden/internal/api"
	"github.com/talgya/flowergarden/internal/engine"
	"github.com/talgya/flowergarden/internal/gardener"
	"github.com/talgya/flowergarden/internal/logging"
	"github.com/talgya/flowergarden/internal/persistence"
	"github.com/talgya/flowergarden/internal/plants"
	"github.com/talgya/flowergarden/internal/runner"
)

func main() {
	logging.Setup()

	var (
		gardenerName = flag.String("gardener", "greedy", "gardener to play ("+strings.Join(gardener.Names(), ", ")+")")
		turns        = flag.Int("turns", 100, "number of turns to simulate")
		jsonPath     = flag.String("json_path", "", "variety file (.json or .yaml)")
		random       = flag.Bool("random", false, "generate random varieties instead of loading a file")
		count        = flag.Int("count", 20, "number of random varieties")
		dbPath       = flag.String("db", os.Getenv("GARDEN_DB_PATH"), "SQLite file to record the run in")
		serve        = flag.Bool("serve", false, "serve the HTTP API and stream turns while running")
	)
	var seed seedFlag
	flag.Var(&seed, "seed", "seed for random varieties and the gardener, unless the file sets one (default random)")
	flag.Parse()

	if (*jsonPath == "") == !*random {
		slog.Error("exactly one of -json_path and -random is required")
		os.Exit(2)
	}

	cfg := runner.DefaultConfig()
	cfg.Turns = *turns
	cfg.Seed = seed.v
	if *random {
		cfg.RandomCount = *count
	} else {
		cfg.VarietiesFile = *jsonPath
	}

	r, err := runner.New(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if *dbPath != "" {
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", *dbPath)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if *serve {
		hub := api.NewHub()
		srv := &api.Server{DB: db, Hub: hub, Port: envIntOrDefault("GARDEN_API_PORT", 8080)}
		srv.Start()
		r.OnTurn = func(rep engine.TurnReport) { hub.Publish(rep) }
	}

	res, err := r.Run(ctx, *gardenerName)
	if err != nil {
		slog.Error("game failed", "gardener", *gardenerName, "error", err)
		os.Exit(1)
	}

	if db != nil {
		if err := db.SaveRun(res.Row(), res.History); err != nil {
			slog.Error("failed to save run", "run_id", res.RunID, "error", err)
			os.Exit(1)
		}
		if err := db.SaveMeta("last_run", res.RunID); err != nil {
			slog.Warn("failed to record last run", "error", err)
		}
	}

	fmt.Printf("\nResults for %s:\n", res.Gardener)
	fmt.Printf("  Final Growth: %s\n", humanize.CommafWithDigits(res.FinalGrowth, 2))
	fmt.Printf("  Plants Placed: %s of %s varieties\n", humanize.Comma(int64(res.PlantsPlaced)), humanize.Comma(int64(res.Varieties)))
	fmt.Printf("  Placement Time: %.2fs\n", res.PlacementTime.Seconds())
	fmt.Printf("  Turns: %s (seed %d)\n", humanize.Comma(int64(res.Turns)), res.Seed)
	printStats(res.Stats)
	if res.OverBudget {
		fmt.Printf("  Placement exceeded the %s budget\n", cfg.TimeLimit)
	}
	if db != nil {
		fmt.Printf("  Run ID: %s\n", res.RunID)
	}

	if *serve {
		slog.Info("run finished, API still serving; interrupt to exit")
		<-ctx.Done()
	}
}

func printStats(st engine.Stats) {
	fmt.Printf("  Fully Grown: %d of %d plants, %s interactions\n",
		st.FullyGrown, st.Plants, humanize.Comma(int64(st.Interactions)))
	fmt.Printf("  Average Size: %.2f, reservoirs %.0f%% full\n", st.AvgSize, st.AvgFill*100)
	for _, sp := range plants.AllSpecies {
		if n := st.SpeciesCounts[sp.String()]; n > 0 {
			fmt.Printf("    %-13s %d\n", sp, n)
		}
	}
}

// seedFlag is an optional int64 flag; v stays nil until -seed is given.
type seedFlag struct{ v *int64 }

func (f *seedFlag) String() string {
	if f.v == nil {
		return ""
	}
	return strconv.FormatInt(*f.v, 10)
}

func (f *seedFlag) Set(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	f.v = &n
	return nil
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring invalid integer env var", "key", key, "value", v)
	}
	return def
}
