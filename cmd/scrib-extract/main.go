// CLAUDE:SUMMARY One-shot cron entry point: run one update cycle and exit with a status code.
// Command scrib-extract runs exactly one update cycle over the configured
// projects and exits. Meant for cron or CI environments where the daemon is
// not running.
//
// Exit codes:
//
//	0  all projects updated (or none configured)
//	1  at least one project failed, or the cycle could not run
//	2  projects configured but no access token available
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrib/dbopen"
	"github.com/hazyhaar/scrib/gitsync"
	"github.com/hazyhaar/scrib/samples"
	"github.com/hazyhaar/scrib/texdoc"
	"github.com/hazyhaar/scrib/tracker"
)

func main() {
	configPath := flag.String("config", env("CONFIG_FILE", "config.yaml"), "path to the YAML config file")
	dbPath := flag.String("db", env("SAMPLES_DB", "db/samples.db"), "path to the samples database")
	cloneDir := flag.String("clones", env("CLONE_DIR", "data/clones"), "root directory for local clones")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall cycle timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	lvl := slog.LevelInfo
	if *verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, *timeout)
	defer timeoutCancel()

	os.Exit(run(ctx, logger, *configPath, *dbPath, *cloneDir))
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, logger *slog.Logger, configPath, dbPath, cloneDir string) int {
	cfg, err := tracker.LoadConfig(configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	projects := cfg.Projects()
	if len(projects) == 0 {
		fmt.Println("No projects configured, nothing to do.")
		return 0
	}

	tokens := cfg.Tokens()
	if len(tokens) == 0 {
		logger.Error("no access token: set OVERLEAF_TOKEN or overleaf_token in the config")
		return 2
	}

	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll())
	if err != nil {
		logger.Error("samples db", "error", err)
		return 1
	}
	defer db.Close()
	if err := samples.ApplySchema(db); err != nil {
		logger.Error("samples schema", "error", err)
		return 1
	}

	runlog := tracker.NewRunLog(db)
	if err := runlog.EnsureTable(ctx); err != nil {
		logger.Error("run log init", "error", err)
		return 1
	}
	lease := tracker.NewLease(db, "update", 10*time.Minute)
	if err := lease.EnsureTable(ctx); err != nil {
		logger.Error("run lease init", "error", err)
		return 1
	}

	syncer := gitsync.New(cloneDir, tokens, logger)
	extractor := texdoc.New(texdoc.Config{}, logger)
	store := &samples.Store{DB: db}

	svc := tracker.NewService(cfg, syncer, extractor, store, runlog, lease, time.UTC, logger)

	report, err := svc.RunAll(ctx)
	if err != nil {
		logger.Error("update cycle", "error", err)
		return 1
	}

	failed := 0
	for _, st := range report.Statuses {
		mark := "ok"
		if !st.Success {
			mark = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %-4s %s: %s\n", st.Timestamp.Format("15:04:05"), mark, st.ProjectID, st.Message)
	}

	fmt.Printf("\n%d project(s), %d failed, %s\n",
		len(report.Statuses), failed, report.Finished.Sub(report.Started).Round(time.Millisecond))
	if failed > 0 {
		return 1
	}
	return 0
}
