package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/aceperf/internal/ingest"
)

// fakeIngester counts non-empty lines as routines and fails on sheets
// containing "bad".
type fakeIngester struct {
	calls  int
	dryRun []bool
}

func (f *fakeIngester) Ingest(_ context.Context, r io.Reader, dryRun bool) (*ingest.Result, error) {
	f.calls++
	f.dryRun = append(f.dryRun, dryRun)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if strings.Contains(string(data), "bad") {
		return nil, errors.New("unreadable sheet")
	}
	n := len(strings.Fields(string(data)))
	res := &ingest.Result{RoutinesReceived: n, DryRun: dryRun}
	if !dryRun {
		res.RoutinesInserted = n
	}
	return res, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func openState(t *testing.T) *StateDB {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return state
}

func sheetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "Squat\nBench\n")
	writeFile(t, filepath.Join(dir, "b.csv"), "Deadlift\n")
	writeFile(t, filepath.Join(dir, "sub", "c.CSV"), "Row\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a sheet\n")
	return dir
}

func TestImportDirectorySkipsUnchanged(t *testing.T) {
	dir := sheetDir(t)
	state := openState(t)
	ctx := context.Background()

	ing := &fakeIngester{}
	stats, err := New(ing, state, testLogger(), false, false).Import(ctx, dir)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if stats.FilesProcessed != 3 || stats.FilesSkipped != 0 {
		t.Errorf("first import stats = %+v, want 3 processed", stats)
	}
	if stats.RoutinesParsed != 4 || stats.RoutinesInserted != 4 {
		t.Errorf("routines parsed/inserted = %d/%d, want 4/4", stats.RoutinesParsed, stats.RoutinesInserted)
	}

	ing = &fakeIngester{}
	stats, err = New(ing, state, testLogger(), false, false).Import(ctx, dir)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if stats.FilesSkipped != 3 || ing.calls != 0 {
		t.Errorf("second import skipped %d, calls %d; want 3, 0", stats.FilesSkipped, ing.calls)
	}

	writeFile(t, filepath.Join(dir, "a.csv"), "Squat\nBench\nPress\n")
	ing = &fakeIngester{}
	stats, err = New(ing, state, testLogger(), false, false).Import(ctx, dir)
	if err != nil {
		t.Fatalf("third import: %v", err)
	}
	if stats.FilesProcessed != 1 || stats.FilesSkipped != 2 {
		t.Errorf("changed file stats = %+v, want 1 processed, 2 skipped", stats)
	}

	ing = &fakeIngester{}
	stats, err = New(ing, state, testLogger(), false, true).Import(ctx, dir)
	if err != nil {
		t.Fatalf("forced import: %v", err)
	}
	if stats.FilesProcessed != 3 || ing.calls != 3 {
		t.Errorf("forced import stats = %+v, calls %d; want 3 processed", stats, ing.calls)
	}
}

func TestImportDryRunDoesNotRecord(t *testing.T) {
	dir := sheetDir(t)
	state := openState(t)
	ctx := context.Background()

	ing := &fakeIngester{}
	stats, err := New(ing, state, testLogger(), true, false).Import(ctx, dir)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if stats.RoutinesParsed != 4 || stats.RoutinesInserted != 0 {
		t.Errorf("dry run parsed/inserted = %d/%d, want 4/0", stats.RoutinesParsed, stats.RoutinesInserted)
	}
	for i, d := range ing.dryRun {
		if !d {
			t.Errorf("call %d: dryRun = false", i)
		}
	}

	ing = &fakeIngester{}
	stats, err = New(ing, state, testLogger(), false, false).Import(ctx, dir)
	if err != nil {
		t.Fatalf("real run: %v", err)
	}
	if stats.FilesProcessed != 3 {
		t.Errorf("after dry run processed = %d, want 3", stats.FilesProcessed)
	}
}

func TestImportCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1-bad.csv"), "bad\n")
	writeFile(t, filepath.Join(dir, "2-good.csv"), "Squat\n")
	state := openState(t)
	ctx := context.Background()

	stats, err := New(&fakeIngester{}, state, testLogger(), false, false).Import(ctx, dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "1-bad.csv") {
		t.Errorf("error %q does not name the failing file", err)
	}
	if stats.FilesErrored != 1 || stats.FilesProcessed != 1 {
		t.Errorf("stats = %+v, want 1 errored, 1 processed", stats)
	}

	// The failed sheet is retried, the good one is not.
	ing := &fakeIngester{}
	stats, _ = New(ing, state, testLogger(), false, false).Import(ctx, dir)
	if ing.calls != 1 || stats.FilesSkipped != 1 {
		t.Errorf("retry calls = %d, skipped = %d; want 1, 1", ing.calls, stats.FilesSkipped)
	}
}

func TestImportSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program.txt")
	writeFile(t, path, "Squat Bench\n")

	ing := &fakeIngester{}
	stats, err := New(ing, nil, testLogger(), false, false).Import(context.Background(), path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesProcessed != 1 || stats.RoutinesParsed != 2 {
		t.Errorf("stats = %+v, want 1 file, 2 routines", stats)
	}
}

func TestImportMissingPath(t *testing.T) {
	_, err := New(&fakeIngester{}, nil, testLogger(), false, false).
		Import(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestImportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ing := &fakeIngester{}
	_, err := New(ing, nil, testLogger(), false, false).Import(ctx, sheetDir(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if ing.calls != 0 {
		t.Errorf("calls = %d, want 0", ing.calls)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	writeFile(t, path, "abc")

	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}
