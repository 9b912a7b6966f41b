package powerbuilding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/meltforce/aceperf/internal/ingest"
	"github.com/meltforce/aceperf/internal/metrics"
	"github.com/meltforce/aceperf/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// memLibrary is an in-memory RoutineStore keyed by routine name.
type memLibrary struct {
	routines map[string]models.Routine
	calls    int
	err      error
}

func (m *memLibrary) UpsertRoutines(_ context.Context, routines []models.Routine) (int, int, error) {
	m.calls++
	if m.err != nil {
		return 0, 0, m.err
	}
	if m.routines == nil {
		m.routines = map[string]models.Routine{}
	}
	var inserted, replaced int
	for _, r := range routines {
		if _, ok := m.routines[r.Name]; ok {
			replaced++
		} else {
			inserted++
		}
		m.routines[r.Name] = r
	}
	return inserted, replaced, nil
}

func newTestProvider(store RoutineStore) (*Provider, *metrics.Manager) {
	m := metrics.NewTestManager()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProvider(store, DefaultOptions(), m, log), m
}

// TestIngestReimportReplaces verifies a second import of the same sheet replaces
// instead of duplicating, leaving the library unchanged.
func TestIngestReimportReplaces(t *testing.T) {
	lib := &memLibrary{}
	p, m := newTestProvider(lib)
	ctx := context.Background()

	first, err := p.Ingest(ctx, strings.NewReader(powerbuildingCSV), false)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.RoutinesReceived != 3 || first.RoutinesInserted != 3 || first.RoutinesReplaced != 0 {
		t.Errorf("first result = %+v", first)
	}
	before := len(lib.routines)

	second, err := p.Ingest(ctx, strings.NewReader(powerbuildingCSV), false)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.RoutinesInserted != 0 || second.RoutinesReplaced != 3 {
		t.Errorf("second result = %+v", second)
	}
	if len(lib.routines) != before {
		t.Errorf("library size changed from %d to %d", before, len(lib.routines))
	}
	if got := testutil.ToFloat64(m.CounterRoutinesImported.WithLabelValues("replaced")); got != 3 {
		t.Errorf("replaced counter = %v, want 3", got)
	}
}

// TestIngestDryRun verifies dry runs return routines without touching the store.
func TestIngestDryRun(t *testing.T) {
	lib := &memLibrary{}
	p, _ := newTestProvider(lib)

	res, err := p.Ingest(context.Background(), strings.NewReader(endToEndCSV), true)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.DryRun || len(res.Routines) != 1 {
		t.Errorf("result = %+v", res)
	}
	if lib.calls != 0 {
		t.Errorf("store called %d times during dry run", lib.calls)
	}
}

// TestIngestNoRoutines verifies the semantic-empty outcome is a message, not an error.
func TestIngestNoRoutines(t *testing.T) {
	lib := &memLibrary{}
	p, _ := newTestProvider(lib)

	res, err := p.Ingest(context.Background(), strings.NewReader(",,,\n"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != ingest.NoRoutinesMessage || res.RoutinesReceived != 0 {
		t.Errorf("result = %+v", res)
	}
	if lib.calls != 0 {
		t.Error("store should not be called for an empty sheet")
	}
}

// TestIngestUnreadable verifies file-level failures surface as ErrUnreadable and are counted.
func TestIngestUnreadable(t *testing.T) {
	p, m := newTestProvider(&memLibrary{})

	_, err := p.Ingest(context.Background(), strings.NewReader("\x00\x01\x02"), false)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err = %v, want ErrUnreadable", err)
	}
	if got := testutil.ToFloat64(m.CounterImportFailures); got != 1 {
		t.Errorf("failure counter = %v, want 1", got)
	}
}

// TestIngestStoreError verifies storage failures propagate.
func TestIngestStoreError(t *testing.T) {
	p, _ := newTestProvider(&memLibrary{err: errors.New("disk full")})

	if _, err := p.Ingest(context.Background(), strings.NewReader(endToEndCSV), false); err == nil {
		t.Fatal("expected store error")
	}
}
