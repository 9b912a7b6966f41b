package powerbuilding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meltforce/aceperf/internal/ingest"
	"github.com/meltforce/aceperf/internal/metrics"
	"github.com/meltforce/aceperf/internal/models"
)

// RoutineStore is the part of the routine library the importer writes to.
type RoutineStore interface {
	UpsertRoutines(ctx context.Context, routines []models.Routine) (inserted, replaced int, err error)
}

// Provider imports program sheets into the routine library.
type Provider struct {
	store   RoutineStore
	parser  *Parser
	metrics *metrics.Manager
	log     *slog.Logger
}

// NewProvider creates a new sheet import provider.
func NewProvider(store RoutineStore, opts Options, m *metrics.Manager, log *slog.Logger) *Provider {
	return &Provider{store: store, parser: NewParser(opts), metrics: m, log: log}
}

// Ingest parses a sheet and saves its routines. Routines whose name already
// exists in the library are replaced, so importing the same sheet twice leaves
// the library unchanged. With dryRun the routines are returned but not saved.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, dryRun bool) (*ingest.Result, error) {
	parsed, err := p.parser.Parse(r)
	if err != nil {
		if errors.Is(err, ErrUnreadable) {
			p.metrics.CounterImportFailures.Inc()
		}
		return nil, fmt.Errorf("parsing sheet: %w", err)
	}

	result := &ingest.Result{
		RoutinesReceived: len(parsed.Routines),
		RowsSkipped:      len(parsed.Skipped),
		DryRun:           dryRun,
		Routines:         parsed.Routines,
		Skipped:          parsed.Skipped,
	}
	p.metrics.CounterImportRowsSkipped.Add(float64(len(parsed.Skipped)))

	p.log.Info("sheet parsed",
		"routines", len(parsed.Routines),
		"rows_skipped", len(parsed.Skipped),
		"header_row", parsed.HeaderRow,
		"exercise_column", parsed.Layout.Exercise,
	)

	if len(parsed.Routines) == 0 {
		result.Message = ingest.NoRoutinesMessage
		return result, nil
	}
	if dryRun {
		return result, nil
	}

	inserted, replaced, err := p.store.UpsertRoutines(ctx, parsed.Routines)
	if err != nil {
		return nil, fmt.Errorf("saving routines: %w", err)
	}
	result.RoutinesInserted = inserted
	result.RoutinesReplaced = replaced
	p.metrics.CounterRoutinesImported.WithLabelValues("inserted").Add(float64(inserted))
	p.metrics.CounterRoutinesImported.WithLabelValues("replaced").Add(float64(replaced))

	return result, nil
}
