package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/aceperf/internal/models"
)

func newTestTables(t *testing.T) *Tables {
	t.Helper()
	tb, err := NewTables(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewTables: %v", err)
	}
	return tb
}

func routine(name string, cat models.Category, exercises ...string) models.Routine {
	r := models.Routine{Name: name, Category: cat}
	for _, e := range exercises {
		r.Exercises = append(r.Exercises, models.ExercisePrescription{ExerciseName: e, Reps: "5"})
	}
	return r
}

func date(s string) time.Time {
	d, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUpsertRoutinesReplacesInPlace(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	ins, rep, err := tb.UpsertRoutines(ctx, []models.Routine{
		routine("A", models.CategoryLifting, "Squat"),
		routine("B", models.CategoryThrowing, "Long Toss"),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if ins != 2 || rep != 0 {
		t.Errorf("first upsert = (%d, %d), want (2, 0)", ins, rep)
	}

	ins, rep, err = tb.UpsertRoutines(ctx, []models.Routine{
		routine("A", models.CategoryLifting, "Bench", "Row"),
		routine("C", models.CategoryWarmUp, "Bands"),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if ins != 1 || rep != 1 {
		t.Errorf("second upsert = (%d, %d), want (1, 1)", ins, rep)
	}

	all, err := tb.ListRoutines(ctx, "")
	if err != nil {
		t.Fatalf("ListRoutines: %v", err)
	}
	var names []string
	for _, r := range all {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "A,B,C" {
		t.Errorf("order = %s, want A,B,C", got)
	}
	if len(all[0].Exercises) != 2 || all[0].Exercises[0].ExerciseName != "Bench" {
		t.Errorf("A exercises = %+v, want replaced list", all[0].Exercises)
	}

	lifting, err := tb.ListRoutines(ctx, models.CategoryLifting)
	if err != nil {
		t.Fatalf("ListRoutines(Lifting): %v", err)
	}
	if len(lifting) != 1 || lifting[0].Name != "A" {
		t.Errorf("lifting = %+v, want only A", lifting)
	}
}

func TestUpsertRoutinesRejectsInvalid(t *testing.T) {
	tb := newTestTables(t)
	_, _, err := tb.UpsertRoutines(context.Background(), []models.Routine{{Name: "Empty", Category: models.CategoryLifting}})
	if !errors.Is(err, ErrInvalidRoutine) {
		t.Fatalf("err = %v, want ErrInvalidRoutine", err)
	}
	if _, statErr := os.Stat(filepath.Join(tb.dir, routinesFile)); !os.IsNotExist(statErr) {
		t.Errorf("library file written despite validation failure")
	}
}

func TestGetAndDeleteRoutine(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	if _, err := tb.GetRoutine(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRoutine(missing) err = %v, want ErrNotFound", err)
	}
	if _, _, err := tb.UpsertRoutines(ctx, []models.Routine{routine("A", models.CategoryLifting, "Squat")}); err != nil {
		t.Fatal(err)
	}
	r, err := tb.GetRoutine(ctx, "A")
	if err != nil {
		t.Fatalf("GetRoutine: %v", err)
	}
	if r.Exercises[0].Reps != "5" {
		t.Errorf("reps = %q, want 5", r.Exercises[0].Reps)
	}
	if err := tb.DeleteRoutine(ctx, "A"); err != nil {
		t.Fatalf("DeleteRoutine: %v", err)
	}
	if err := tb.DeleteRoutine(ctx, "A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLoadRoutinesKeepsUnreadableExercises(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()
	content := "Routine Name,Type,Exercises\nBroken,Lifting,not json\nGood,Lifting,\"[{\"\"exercise_name\"\":\"\"Squat\"\"}]\"\n"
	if err := os.WriteFile(filepath.Join(tb.dir, routinesFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := tb.UpsertRoutines(ctx, []models.Routine{routine("New", models.CategoryWarmUp, "Bands")}); err != nil {
		t.Fatalf("UpsertRoutines: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(tb.dir, routinesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Broken,Lifting,not json") {
		t.Errorf("unreadable row was rewritten:\n%s", data)
	}
}

func TestScheduleUpsertAndRange(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	err := tb.SaveSchedule(ctx, []models.ScheduleDay{
		{Date: date("2024-03-02"), Throwing: "Long Toss", Lifting: models.RestDay},
		{Date: date("2024-03-01"), Throwing: models.RestDay, Lifting: "Upper"},
		{Date: date("2024-04-01"), Throwing: "Bullpen", Lifting: "Lower"},
	})
	if err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}
	if err := tb.SaveSchedule(ctx, []models.ScheduleDay{
		{Date: date("2024-03-01"), Throwing: "Plyo", Lifting: "Upper", Notes: "light"},
	}); err != nil {
		t.Fatalf("SaveSchedule update: %v", err)
	}

	days, err := tb.ScheduleRange(ctx, date("2024-03-01"), date("2024-03-31"))
	if err != nil {
		t.Fatalf("ScheduleRange: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if !days[0].Date.Equal(date("2024-03-01")) || days[0].Throwing != "Plyo" || days[0].Notes != "light" {
		t.Errorf("day 0 = %+v", days[0])
	}
	if days[1].Throwing != "Long Toss" {
		t.Errorf("day 1 throwing = %q", days[1].Throwing)
	}
}

func TestWorkoutLogAppendAndQuery(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	n, err := tb.InsertWorkoutLog(ctx, []models.WorkoutLogEntry{
		{Date: date("2024-03-02"), RoutineName: "Upper", Exercise: "Bench",
			Prescribed: models.Performance{Sets: "3", Reps: "5"}, Actual: models.Performance{Sets: "3", Reps: "5", Load: "225"}},
		{Date: date("2024-03-01"), RoutineName: "Lower", Exercise: "Squat"},
	})
	if err != nil {
		t.Fatalf("InsertWorkoutLog: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	entries, err := tb.QueryWorkoutLog(ctx, date("2024-03-01"), date("2024-03-02"))
	if err != nil {
		t.Fatalf("QueryWorkoutLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Exercise != "Squat" || entries[1].Actual.Load != "225" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].ID == entries[1].ID {
		t.Error("entries share an ID")
	}
}

func TestWorkoutLogStableIDsForRowsWithoutOne(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	hand := "Date,Routine Name,Exercise,ID\n2024-03-01,Lower,Squat,\n2024-03-01,Lower,Squat,not-a-uuid\n"
	if err := os.WriteFile(filepath.Join(tb.dir, workoutLogFile), []byte(hand), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := tb.QueryWorkoutLog(ctx, date("2024-03-01"), date("2024-03-01"))
	if err != nil {
		t.Fatalf("QueryWorkoutLog: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d entries, want 2", len(first))
	}
	if first[0].ID == uuid.Nil || first[0].ID == first[1].ID {
		t.Errorf("ids = %s, %s; want distinct non-nil", first[0].ID, first[1].ID)
	}

	if _, err := tb.InsertWorkoutLog(ctx, []models.WorkoutLogEntry{{Date: date("2024-03-02"), Exercise: "Bench"}}); err != nil {
		t.Fatalf("InsertWorkoutLog: %v", err)
	}
	again, err := tb.QueryWorkoutLog(ctx, date("2024-03-01"), date("2024-03-01"))
	if err != nil {
		t.Fatalf("QueryWorkoutLog: %v", err)
	}
	for i := range first {
		if again[i].ID != first[i].ID {
			t.Errorf("entry %d id changed from %s to %s", i, first[i].ID, again[i].ID)
		}
	}
}

func TestMeasurements(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	points := []models.Measurement{
		{Kind: models.KindLift, Date: date("2024-03-03"), Exercise: "Squat", Value: 315, Reps: 3},
		{Kind: models.KindLift, Date: date("2024-03-01"), Exercise: "Squat", Value: 305, Reps: 5},
		{Kind: models.KindVelocity, Date: date("2024-03-01"), Value: 88.5},
		{Kind: models.KindBodyweight, Date: date("2024-03-01"), Value: 201.2},
	}
	for _, p := range points {
		if err := tb.InsertMeasurement(ctx, p); err != nil {
			t.Fatalf("InsertMeasurement(%s): %v", p.Kind, err)
		}
	}

	lifts, err := tb.QueryMeasurements(ctx, models.KindLift, date("2024-01-01"), date("2024-12-31"))
	if err != nil {
		t.Fatalf("QueryMeasurements: %v", err)
	}
	if len(lifts) != 2 || lifts[0].Value != 305 || lifts[1].Reps != 3 {
		t.Errorf("lifts = %+v", lifts)
	}

	velo, err := tb.QueryMeasurements(ctx, models.KindVelocity, date("2024-03-01"), date("2024-03-01"))
	if err != nil {
		t.Fatalf("QueryMeasurements: %v", err)
	}
	if len(velo) != 1 || velo[0].Value != 88.5 {
		t.Errorf("velo = %+v", velo)
	}

	data, err := os.ReadFile(filepath.Join(tb.dir, bodyweightFile))
	if err != nil {
		t.Fatal(err)
	}
	if want := "Date,Weight\n2024-03-01,201.2\n"; string(data) != want {
		t.Errorf("bw_data.csv = %q, want %q", data, want)
	}
}

func TestInsertMeasurementKeepsUnreadableRows(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	// Columns in a different order, plus a row that does not parse.
	legacy := "Velo,Date\nfast,2024-02-01\n87,2024-02-02\n"
	if err := os.WriteFile(filepath.Join(tb.dir, veloFile), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := tb.InsertMeasurement(ctx, models.Measurement{Kind: models.KindVelocity, Date: date("2024-02-03"), Value: 89}); err != nil {
		t.Fatalf("InsertMeasurement: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tb.dir, veloFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "Date,Velo\n2024-02-01,fast\n2024-02-02,87\n2024-02-03,89\n"
	if string(data) != want {
		t.Errorf("velo_data.csv = %q, want %q", data, want)
	}

	velo, err := tb.QueryMeasurements(ctx, models.KindVelocity, date("2024-01-01"), date("2024-12-31"))
	if err != nil {
		t.Fatalf("QueryMeasurements: %v", err)
	}
	if len(velo) != 2 {
		t.Errorf("velo = %+v, want the 2 readable rows", velo)
	}
}

func TestMissingTablesReadEmpty(t *testing.T) {
	tb := newTestTables(t)
	ctx := context.Background()

	routines, err := tb.ListRoutines(ctx, "")
	if err != nil || len(routines) != 0 {
		t.Errorf("ListRoutines = %v, %v", routines, err)
	}
	days, err := tb.ScheduleRange(ctx, date("2024-01-01"), date("2024-12-31"))
	if err != nil || len(days) != 0 {
		t.Errorf("ScheduleRange = %v, %v", days, err)
	}
}

func TestExercisesCodec(t *testing.T) {
	in := []models.ExercisePrescription{
		{ExerciseName: "Squat", WorkingSets: "3", Reps: "3-5", Percent1RM: "80%", Notes: "pause, 2s"},
		{ExerciseName: "RDL", Load: "225lbs"},
	}
	enc, err := EncodeExercises(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeExercises(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}

	if enc, _ := EncodeExercises(nil); enc != "[]" {
		t.Errorf("EncodeExercises(nil) = %q, want []", enc)
	}
	if _, err := DecodeExercises("{"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestInRange(t *testing.T) {
	start, end := date("2024-03-01"), date("2024-03-31")
	tests := []struct {
		day  time.Time
		want bool
	}{
		{date("2024-03-01"), true},
		{date("2024-03-31").Add(23 * time.Hour), true},
		{date("2024-02-29"), false},
		{date("2024-04-01"), false},
	}
	for _, tt := range tests {
		if got := inRange(tt.day, start, end); got != tt.want {
			t.Errorf("inRange(%s) = %v, want %v", tt.day, got, tt.want)
		}
	}
}
