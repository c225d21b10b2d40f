// Command tournament plays every gardener against every variety config and
// ranks the gardeners by final growth.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/flowergarden/internal/logging"
	"github.com/talgya/flowergarden/internal/persistence"
	"github.com/talgya/flowergarden/internal/tournament"
)

func main() {
	logging.Setup()

	var (
		planPath  = flag.String("plan", "", "YAML tournament plan")
		configs   = flag.String("configs", "", "comma-separated variety files or glob patterns")
		gardeners = flag.String("gardeners", "", "comma-separated gardeners (default all)")
		turns     = flag.Int("turns", 0, "turns per game (default from plan)")
		workers   = flag.Int("workers", 0, "games played at once (default from plan)")
		dbPath    = flag.String("db", os.Getenv("GARDEN_DB_PATH"), "SQLite file to record runs in")
		snapshots = flag.String("snapshots", "", "zstd-compressed JSONL snapshot log")
	)
	flag.Parse()

	plan := tournament.DefaultPlan()
	if *planPath != "" {
		var err error
		plan, err = tournament.LoadPlan(*planPath)
		if err != nil {
			slog.Error("failed to load plan", "error", err)
			os.Exit(1)
		}
	}
	if *configs != "" {
		plan.Configs = splitList(*configs)
	}
	if *gardeners != "" {
		plan.Gardeners = splitList(*gardeners)
	}
	if *turns > 0 {
		plan.Turns = *turns
	}
	if *workers > 0 {
		plan.Workers = *workers
	}
	if *dbPath != "" {
		plan.DBPath = *dbPath
	}
	if *snapshots != "" {
		plan.SnapshotPath = *snapshots
	}
	if err := plan.Validate(); err != nil {
		slog.Error("invalid plan", "error", err)
		os.Exit(1)
	}

	var db *persistence.DB
	if plan.DBPath != "" {
		var err error
		db, err = persistence.Open(plan.DBPath)
		if err != nil {
			slog.Error("failed to open database", "path", plan.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var snapLog *persistence.JSONLZstdWriter
	if plan.SnapshotPath != "" {
		var err error
		snapLog, err = persistence.CreateJSONLZstd(plan.SnapshotPath)
		if err != nil {
			slog.Error("failed to create snapshot log", "path", plan.SnapshotPath, "error", err)
			os.Exit(1)
		}
		defer snapLog.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tasks, err := plan.Tasks()
	if err != nil {
		slog.Error("invalid plan", "error", err)
		os.Exit(1)
	}
	total := len(tasks)

	t := tournament.New(plan, db, snapLog)
	var done atomic.Int64
	t.OnDone = func(tournament.Outcome) {
		n := done.Add(1)
		slog.Info("progress", "done", n, "total", total)
	}

	outcomes, err := t.Run(ctx)
	if err != nil {
		slog.Error("tournament interrupted", "error", err)
	}
	if snapLog != nil {
		if err := snapLog.Close(); err != nil {
			slog.Error("failed to finish snapshot log", "error", err)
		}
	}

	printLeaderboard(tournament.Leaderboard(outcomes), plan.Turns)
	if err != nil {
		os.Exit(1)
	}
}

func printLeaderboard(board []tournament.Standing, turns int) {
	fmt.Printf("\nLeaderboard after %s turns per game:\n", humanize.Comma(int64(turns)))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tGardener\tRuns\tFailed\tMean Growth\tBest Growth")
	for i, s := range board {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%s\t%s\n",
			humanize.Ordinal(i+1),
			s.Gardener,
			s.Runs,
			s.Failed,
			humanize.CommafWithDigits(s.MeanGrowth, 2),
			humanize.CommafWithDigits(s.BestGrowth, 2),
		)
	}
	tw.Flush()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
