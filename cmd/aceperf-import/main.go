package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meltforce/aceperf/internal/config"
	"github.com/meltforce/aceperf/internal/importer"
	"github.com/meltforce/aceperf/internal/ingest/powerbuilding"
	"github.com/meltforce/aceperf/internal/logging"
	"github.com/meltforce/aceperf/internal/metrics"
	"github.com/meltforce/aceperf/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	sheetPath := flag.String("path", "", "sheet file or directory of *.csv sheets (required)")
	serverURL := flag.String("server", "", "send sheets to a running AcePerf server instead of local storage")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without saving routines")
	force := flag.Bool("force", false, "re-import sheets even if unchanged since the last import")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("aceperf-import", Version)
		return
	}

	if *sheetPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: aceperf-import -config config.yaml -path <sheet or dir> [-server URL] [-dry-run] [-force]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Info("DRY RUN mode: no routines will be saved")
	}

	var ingester importer.Ingester
	var stateDir string
	if *serverURL != "" {
		ingester = importer.NewClient(*serverURL)
		stateDir = filepath.Join(cfg.Storage.StateDir, "remote")
		log.Info("sending sheets to server", "url", *serverURL)
	} else {
		store, err := storage.Open(ctx, cfg, "migrations", log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		m := metrics.NewManager("aceperf", "import", prometheus.NewRegistry())
		ingester = powerbuilding.NewProvider(store, powerbuilding.OptionsFromConfig(cfg.Import), m, log)
		stateDir = cfg.Storage.StateDir
	}

	state, err := importer.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	imp := importer.New(ingester, state, log, *dryRun, *force)
	stats, err := imp.Import(ctx, *sheetPath)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"routines_parsed", stats.RoutinesParsed,
		"routines_inserted", stats.RoutinesInserted,
		"routines_replaced", stats.RoutinesReplaced,
		"rows_skipped", stats.RowsSkipped,
	)
}
