package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/meltforce/aceperf/internal/ingest"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	RoutinesParsed   int
	RoutinesInserted int
	RoutinesReplaced int
	RowsSkipped      int
}

// Ingester turns one sheet into saved routines.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, dryRun bool) (*ingest.Result, error)
}

// Importer reads program sheets from a file or directory and feeds them to
// an Ingester, skipping files the state ledger has already seen.
type Importer struct {
	ingester Ingester
	state    *StateDB
	log      *slog.Logger
	dryRun   bool
	force    bool
	stats    Stats
}

// New creates a new Importer. state may be nil, in which case every file is imported.
func New(ingester Ingester, state *StateDB, log *slog.Logger, dryRun, force bool) *Importer {
	return &Importer{ingester: ingester, state: state, log: log, dryRun: dryRun, force: force}
}

// Import processes path, which is either a single sheet or a directory
// searched recursively for *.csv files. A failing file does not stop the
// others; all per-file errors are combined into the returned error.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	files, err := collectSheets(path)
	if err != nil {
		return &imp.stats, err
	}

	var errs error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, multierr.Append(errs, err)
		}
		if err := imp.importFile(ctx, f); err != nil {
			imp.log.Warn("sheet import failed", "file", f, "error", err)
			imp.stats.FilesErrored++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return &imp.stats, errs
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	if imp.state != nil && !imp.force {
		done, err := imp.state.IsImported(path, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if done {
			imp.log.Debug("skipping unchanged sheet", "file", path)
			imp.stats.FilesSkipped++
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := imp.ingester.Ingest(ctx, f, imp.dryRun)
	if err != nil {
		return err
	}

	imp.stats.FilesProcessed++
	imp.stats.RowsSkipped += result.RowsSkipped
	imp.stats.RoutinesParsed += result.RoutinesReceived
	imp.stats.RoutinesInserted += result.RoutinesInserted
	imp.stats.RoutinesReplaced += result.RoutinesReplaced
	imp.log.Info("sheet imported",
		"file", path,
		"routines", result.RoutinesReceived,
		"rows_skipped", result.RowsSkipped,
		"dry_run", imp.dryRun,
	)

	if imp.dryRun || imp.state == nil {
		return nil
	}
	if err := imp.state.MarkImported(path, info.Size(), hash, result.RoutinesReceived); err != nil {
		return fmt.Errorf("recording state: %w", err)
	}
	return nil
}

// collectSheets returns path itself for a file, or every *.csv below a
// directory in lexical order.
func collectSheets(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	var files []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".csv") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
