package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/aceperf/internal/models"
)

// Table file names inside the data directory.
const (
	routinesFile   = "routines_library.csv"
	scheduleFile   = "schedule_data.csv"
	workoutLogFile = "workout_log.csv"
	liftsFile      = "lift_data.csv"
	veloFile       = "velo_data.csv"
	bodyweightFile = "bw_data.csv"
)

var (
	routinesHeader   = []string{"Routine Name", "Type", "Exercises"}
	scheduleHeader   = []string{"Date", "Throwing Routine", "Lifting Routine", "Custom Notes"}
	workoutLogHeader = []string{"ID", "Date", "Routine Name", "Exercise",
		"Prescribed Sets", "Prescribed Reps", "Prescribed Load",
		"Actual Sets", "Actual Reps", "Actual Load", "Notes"}
	liftsHeader      = []string{"Date", "Exercise", "Weight", "Reps"}
	veloHeader       = []string{"Date", "Velo"}
	bodyweightHeader = []string{"Date", "Weight"}
)

// Tables stores every table as a CSV file that is read in full and written in
// full on each change. The mutex serializes read-modify-write cycles within
// this process; separate processes sharing a directory follow last writer wins.
type Tables struct {
	dir string
	log *slog.Logger
	mu  sync.Mutex
}

// NewTables opens (creating if needed) a data directory of CSV tables.
func NewTables(dir string, log *slog.Logger) (*Tables, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return &Tables{dir: dir, log: log}, nil
}

// Close is a no-op; tables hold no open handles between calls.
func (t *Tables) Close() error {
	return nil
}

// table is a loaded CSV file with header-based column lookup.
type table struct {
	cols map[string]int
	rows [][]string
}

func (tb table) get(row []string, col string) string {
	i, ok := tb.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// read loads a table. A missing file is an empty table.
func (t *Tables) read(name string) (table, error) {
	f, err := os.Open(filepath.Join(t.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return table{cols: map[string]int{}}, nil
	}
	if err != nil {
		return table{}, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("reading %s: %w", name, err)
	}

	tb := table{cols: map[string]int{}}
	if len(records) == 0 {
		return tb, nil
	}
	for i, h := range records[0] {
		tb.cols[h] = i
	}
	tb.rows = records[1:]
	return tb, nil
}

// write replaces a table atomically via a temp file and rename.
func (t *Tables) write(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(t.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(t.dir, name)); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// appendRows rewrites a table with its existing rows, remapped onto header,
// followed by rows. Existing rows are copied as text so rows that no longer
// parse survive the rewrite.
func (t *Tables) appendRows(name string, header []string, rows [][]string) error {
	tb, err := t.read(name)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(tb.rows)+len(rows))
	for _, row := range tb.rows {
		rec := make([]string, len(header))
		for i, col := range header {
			rec[i] = tb.get(row, col)
		}
		records = append(records, rec)
	}
	records = append(records, rows...)
	return t.write(name, header, records)
}

// --- Routines ---

// routineRow keeps the raw Exercises text of rows that fail to decode so a
// rewrite of the library does not destroy them.
type routineRow struct {
	routine models.Routine
	raw     string
}

func (t *Tables) loadRoutines() ([]routineRow, error) {
	tb, err := t.read(routinesFile)
	if err != nil {
		return nil, err
	}
	var out []routineRow
	for i, row := range tb.rows {
		name := tb.get(row, "Routine Name")
		if name == "" {
			continue
		}
		rr := routineRow{routine: models.Routine{Name: name, Category: models.Category(tb.get(row, "Type"))}}
		if c, err := models.ParseCategory(tb.get(row, "Type")); err == nil {
			rr.routine.Category = c
		}
		raw := tb.get(row, "Exercises")
		ex, err := DecodeExercises(raw)
		if err != nil {
			t.log.Warn("routine exercises unreadable", "routine", name, "row", i+2, "error", err)
			rr.raw = raw
		}
		rr.routine.Exercises = ex
		out = append(out, rr)
	}
	return out, nil
}

func (t *Tables) saveRoutines(rows []routineRow) error {
	records := make([][]string, 0, len(rows))
	for _, rr := range rows {
		enc := rr.raw
		if enc == "" || rr.routine.Exercises != nil {
			var err error
			if enc, err = EncodeExercises(rr.routine.Exercises); err != nil {
				return err
			}
		}
		records = append(records, []string{rr.routine.Name, string(rr.routine.Category), enc})
	}
	return t.write(routinesFile, routinesHeader, records)
}

// ListRoutines returns routines in library order, optionally filtered by category.
func (t *Tables) ListRoutines(_ context.Context, category models.Category) ([]models.Routine, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.loadRoutines()
	if err != nil {
		return nil, err
	}
	var out []models.Routine
	for _, rr := range rows {
		if category != "" && rr.routine.Category != category {
			continue
		}
		out = append(out, rr.routine)
	}
	return out, nil
}

// GetRoutine returns the routine with exactly this name.
func (t *Tables) GetRoutine(_ context.Context, name string) (*models.Routine, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.loadRoutines()
	if err != nil {
		return nil, err
	}
	for _, rr := range rows {
		if rr.routine.Name == name {
			r := rr.routine
			return &r, nil
		}
	}
	return nil, fmt.Errorf("routine %q: %w", name, ErrNotFound)
}

// UpsertRoutines replaces routines with matching names in place and appends the rest.
func (t *Tables) UpsertRoutines(_ context.Context, routines []models.Routine) (int, int, error) {
	if err := validateRoutines(routines); err != nil {
		return 0, 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.loadRoutines()
	if err != nil {
		return 0, 0, err
	}
	index := make(map[string]int, len(rows))
	for i, rr := range rows {
		index[rr.routine.Name] = i
	}

	var inserted, replaced int
	for _, r := range routines {
		if i, ok := index[r.Name]; ok {
			rows[i] = routineRow{routine: r}
			replaced++
			continue
		}
		index[r.Name] = len(rows)
		rows = append(rows, routineRow{routine: r})
		inserted++
	}

	if err := t.saveRoutines(rows); err != nil {
		return 0, 0, err
	}
	return inserted, replaced, nil
}

// DeleteRoutine removes the routine with exactly this name.
func (t *Tables) DeleteRoutine(_ context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.loadRoutines()
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, rr := range rows {
		if rr.routine.Name != name {
			kept = append(kept, rr)
		}
	}
	if len(kept) == len(rows) {
		return fmt.Errorf("routine %q: %w", name, ErrNotFound)
	}
	return t.saveRoutines(kept)
}

// --- Schedule ---

func (t *Tables) loadSchedule() (map[string]models.ScheduleDay, error) {
	tb, err := t.read(scheduleFile)
	if err != nil {
		return nil, err
	}
	days := make(map[string]models.ScheduleDay, len(tb.rows))
	for i, row := range tb.rows {
		date, err := models.ParseDay(tb.get(row, "Date"))
		if err != nil {
			t.log.Warn("skipping schedule row", "row", i+2, "error", err)
			continue
		}
		days[date.Format(models.DateLayout)] = models.ScheduleDay{
			Date:     date,
			Throwing: tb.get(row, "Throwing Routine"),
			Lifting:  tb.get(row, "Lifting Routine"),
			Notes:    tb.get(row, "Custom Notes"),
		}
	}
	return days, nil
}

// ScheduleRange returns stored days between start and end inclusive, ordered by date.
func (t *Tables) ScheduleRange(_ context.Context, start, end time.Time) ([]models.ScheduleDay, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadSchedule()
	if err != nil {
		return nil, err
	}
	var out []models.ScheduleDay
	for _, d := range days {
		if inRange(d.Date, start, end) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// SaveSchedule upserts days by date.
func (t *Tables) SaveSchedule(_ context.Context, updates []models.ScheduleDay) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	days, err := t.loadSchedule()
	if err != nil {
		return err
	}
	for _, d := range updates {
		d.Date = models.Day(d.Date)
		days[d.Date.Format(models.DateLayout)] = d
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([][]string, 0, len(keys))
	for _, k := range keys {
		d := days[k]
		records = append(records, []string{k, d.Throwing, d.Lifting, d.Notes})
	}
	return t.write(scheduleFile, scheduleHeader, records)
}

// --- Workout log ---

func (t *Tables) loadWorkoutLog() ([]models.WorkoutLogEntry, error) {
	tb, err := t.read(workoutLogFile)
	if err != nil {
		return nil, err
	}
	var out []models.WorkoutLogEntry
	for i, row := range tb.rows {
		date, err := models.ParseDay(tb.get(row, "Date"))
		if err != nil {
			t.log.Warn("skipping workout log row", "row", i+2, "error", err)
			continue
		}
		id, err := uuid.Parse(tb.get(row, "ID"))
		if err != nil {
			id = tb.rowID(i, row, workoutLogHeader)
		}
		out = append(out, models.WorkoutLogEntry{
			ID:          id,
			Date:        date,
			RoutineName: tb.get(row, "Routine Name"),
			Exercise:    tb.get(row, "Exercise"),
			Prescribed: models.Performance{
				Sets: tb.get(row, "Prescribed Sets"),
				Reps: tb.get(row, "Prescribed Reps"),
				Load: tb.get(row, "Prescribed Load"),
			},
			Actual: models.Performance{
				Sets: tb.get(row, "Actual Sets"),
				Reps: tb.get(row, "Actual Reps"),
				Load: tb.get(row, "Actual Load"),
			},
			Notes: tb.get(row, "Notes"),
		})
	}
	return out, nil
}

// rowID derives a stable ID for a row written without a valid one from its
// position and its values in header order. Appends neither move existing rows
// nor change those values, so the ID holds across queries.
func (tb table) rowID(index int, row []string, header []string) uuid.UUID {
	vals := make([]string, len(header))
	for i, col := range header {
		vals[i] = tb.get(row, col)
	}
	key := strconv.Itoa(index) + "\x1e" + strings.Join(vals, "\x1f")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// InsertWorkoutLog appends entries, assigning IDs to entries that have none.
func (t *Tables) InsertWorkoutLog(_ context.Context, entries []models.WorkoutLogEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		records = append(records, []string{
			e.ID.String(), models.Day(e.Date).Format(models.DateLayout), e.RoutineName, e.Exercise,
			e.Prescribed.Sets, e.Prescribed.Reps, e.Prescribed.Load,
			e.Actual.Sets, e.Actual.Reps, e.Actual.Load, e.Notes,
		})
	}
	if err := t.appendRows(workoutLogFile, workoutLogHeader, records); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// QueryWorkoutLog returns entries between start and end inclusive, ordered by date.
func (t *Tables) QueryWorkoutLog(_ context.Context, start, end time.Time) ([]models.WorkoutLogEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.loadWorkoutLog()
	if err != nil {
		return nil, err
	}
	var out []models.WorkoutLogEntry
	for _, e := range all {
		if inRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// --- Measurements ---

type measurementTable struct {
	file   string
	header []string
	value  string
}

var measurementTables = map[models.MeasurementKind]measurementTable{
	models.KindLift:       {file: liftsFile, header: liftsHeader, value: "Weight"},
	models.KindVelocity:   {file: veloFile, header: veloHeader, value: "Velo"},
	models.KindBodyweight: {file: bodyweightFile, header: bodyweightHeader, value: "Weight"},
}

func (t *Tables) loadMeasurements(kind models.MeasurementKind) ([]models.Measurement, error) {
	mt, ok := measurementTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown measurement kind %q", kind)
	}
	tb, err := t.read(mt.file)
	if err != nil {
		return nil, err
	}
	var out []models.Measurement
	for i, row := range tb.rows {
		date, err := models.ParseDay(tb.get(row, "Date"))
		if err != nil {
			t.log.Warn("skipping measurement row", "file", mt.file, "row", i+2, "error", err)
			continue
		}
		value, err := strconv.ParseFloat(tb.get(row, mt.value), 64)
		if err != nil {
			t.log.Warn("skipping measurement row", "file", mt.file, "row", i+2, "error", err)
			continue
		}
		m := models.Measurement{Kind: kind, Date: date, Value: value}
		if kind == models.KindLift {
			m.Exercise = tb.get(row, "Exercise")
			m.Reps, _ = strconv.Atoi(tb.get(row, "Reps"))
		}
		out = append(out, m)
	}
	return out, nil
}

func measurementRecord(m models.Measurement) []string {
	date := models.Day(m.Date).Format(models.DateLayout)
	value := strconv.FormatFloat(m.Value, 'f', -1, 64)
	if m.Kind == models.KindLift {
		return []string{date, m.Exercise, value, strconv.Itoa(m.Reps)}
	}
	return []string{date, value}
}

// InsertMeasurement appends one data point to the table for its kind.
func (t *Tables) InsertMeasurement(_ context.Context, m models.Measurement) error {
	mt, ok := measurementTables[m.Kind]
	if !ok {
		return fmt.Errorf("unknown measurement kind %q", m.Kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.appendRows(mt.file, mt.header, [][]string{measurementRecord(m)})
}

// QueryMeasurements returns data points between start and end inclusive,
// ordered by date and then by insertion.
func (t *Tables) QueryMeasurements(_ context.Context, kind models.MeasurementKind, start, end time.Time) ([]models.Measurement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.loadMeasurements(kind)
	if err != nil {
		return nil, err
	}
	var out []models.Measurement
	for _, m := range all {
		if inRange(m.Date, start, end) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
