package powerbuilding

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/meltforce/aceperf/internal/config"
	"github.com/meltforce/aceperf/internal/ingest"
	"github.com/meltforce/aceperf/internal/models"
)

// ErrUnreadable is returned when the input cannot be read as tabular data at
// all. A sheet that parses but holds no routines is not an error.
var ErrUnreadable = errors.New("sheet is not readable as tabular data")

const (
	defaultWeekLabelMaxLen = 15
	defaultHeaderMaxLen    = 60
)

// nullMarkers are spreadsheet/export placeholders for an empty cell.
var nullMarkers = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"#n/a": true,
}

// noisePhrases mark disclaimer and attribution lines that sit in the label column.
var noisePhrases = []string{
	"disclaimer",
	"copyright",
	"©",
	"all rights reserved",
	"created by",
	"program by",
	"written by",
	"consult",
	"www.",
	"http",
}

// Options configures a Parser.
type Options struct {
	Layout          Layout
	DetectHeader    bool
	WeekLabelMaxLen int
	HeaderMaxLen    int
	Category        models.Category
}

// DefaultOptions returns header detection on with DefaultLayout as the fallback.
func DefaultOptions() Options {
	return Options{
		Layout:          DefaultLayout,
		DetectHeader:    true,
		WeekLabelMaxLen: defaultWeekLabelMaxLen,
		HeaderMaxLen:    defaultHeaderMaxLen,
		Category:        models.CategoryLifting,
	}
}

// OptionsFromConfig applies the import section of the config file on top of
// DefaultOptions. Shift applies after an explicit column table.
func OptionsFromConfig(c config.ImportConfig) Options {
	opts := DefaultOptions()
	if c.DetectHeader != nil {
		opts.DetectHeader = *c.DetectHeader
	}
	if c.WeekLabelMaxLen > 0 {
		opts.WeekLabelMaxLen = c.WeekLabelMaxLen
	}
	if c.HeaderMaxLen > 0 {
		opts.HeaderMaxLen = c.HeaderMaxLen
	}
	if c.Columns != nil {
		opts.Layout = LayoutFromConfig(*c.Columns)
	}
	if c.Shift != 0 {
		opts.Layout = opts.Layout.Shift(c.Shift)
	}
	return opts
}

// Result is the outcome of parsing one sheet.
type Result struct {
	Routines []models.Routine
	// Layout is the column mapping that was applied.
	Layout Layout
	// HeaderRow is the 1-based record holding the detected column headers, 0 if none.
	HeaderRow int
	Skipped   []ingest.SkippedRow
}

// Parser converts Powerbuilding-style program sheets into routines.
type Parser struct {
	opts Options
}

// NewParser creates a Parser, filling unset limits and category with defaults.
func NewParser(opts Options) *Parser {
	if opts.WeekLabelMaxLen <= 0 {
		opts.WeekLabelMaxLen = defaultWeekLabelMaxLen
	}
	if opts.HeaderMaxLen <= 0 {
		opts.HeaderMaxLen = defaultHeaderMaxLen
	}
	if opts.Category == "" {
		opts.Category = models.CategoryLifting
	}
	return &Parser{opts: opts}
}

// Parse reads a program sheet with the default options and returns its routines.
func Parse(r io.Reader) ([]models.Routine, error) {
	res, err := NewParser(DefaultOptions()).Parse(r)
	if err != nil {
		return nil, err
	}
	return res.Routines, nil
}

// Parse reads every record of the sheet and classifies rows top to bottom in a
// single pass. Row-level problems never fail the parse.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Layout: p.opts.Layout}
	if p.opts.DetectHeader {
		if l, idx, ok := DetectLayout(rows); ok {
			// An "Exercise" header in the first column leaves no label
			// column to its left; borrow the configured one if it is free.
			if fb := p.opts.Layout.Label; l.Label < 0 && fb >= 0 && !l.uses(fb) {
				l.Label = fb
			}
			res.Layout = l
			res.HeaderRow = idx + 1
		}
	}

	st := &scanState{category: p.opts.Category}
	if res.Layout.Label < 0 {
		st.skip(res.HeaderRow, "no routine label column")
	}
	for i, row := range rows {
		p.step(st, i+1, row, res.Layout)
	}
	st.flush()

	res.Routines = st.out
	res.Skipped = st.skipped
	if res.Routines == nil {
		res.Routines = []models.Routine{}
	}
	return res, nil
}

// ReadRows reads all records of a comma-separated sheet without assuming a
// header row. Records may have differing lengths.
func ReadRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: binary or non UTF-8 content", ErrUnreadable)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return rows, nil
}

// cell returns the normalized value at idx, or "" when the row is too short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	if nullMarkers[strings.ToLower(v)] {
		return ""
	}
	return v
}

// step classifies one row and applies the matching state transition.
func (p *Parser) step(st *scanState, rowNum int, row []string, l Layout) {
	label := cell(row, l.Label)
	exercise := cell(row, l.Exercise)

	// 1. Week marker: short "Week N" text in the label column, or alone in
	// the exercise column of an otherwise blank row.
	weekCandidate := label
	if weekCandidate == "" && onlyCell(row, l.Exercise) {
		weekCandidate = exercise
	}
	if p.isWeekMarker(weekCandidate) {
		st.setWeek(weekCandidate)
		return
	}

	// 2. Routine header.
	if label != "" {
		if p.isNoise(label) {
			st.skip(rowNum, "noise label")
			return
		}
		name := routineName(st.week, label)
		if name == "" {
			st.skip(rowNum, "empty routine label")
			return
		}
		st.open(rowNum, name)
		if exercise != "" && !isHeaderEcho(exercise) {
			st.add(extract(row, l))
		}
		return
	}

	// 3. Exercise row.
	if exercise != "" {
		switch {
		case isHeaderEcho(exercise):
			st.skip(rowNum, "column header")
		case !st.isOpen:
			st.skip(rowNum, "exercise outside a routine")
		default:
			st.add(extract(row, l))
		}
		return
	}

	// 4. Anything else. Fully blank rows are not worth a diagnostic.
	if !blank(row) {
		st.skip(rowNum, "unclassified")
	}
}

func (p *Parser) isWeekMarker(s string) bool {
	return s != "" &&
		utf8.RuneCountInString(s) <= p.opts.WeekLabelMaxLen &&
		strings.Contains(strings.ToLower(s), "week")
}

func (p *Parser) isNoise(label string) bool {
	if isHeaderEcho(label) || utf8.RuneCountInString(label) > p.opts.HeaderMaxLen {
		return true
	}
	switch normalizeHeader(label) {
	case "day", "session", "workout", "routine":
		return true
	}
	lower := strings.ToLower(label)
	for _, phrase := range noisePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// routineName builds "{week} - {label}" from the text before the first colon.
func routineName(week, label string) string {
	name := label
	if i := strings.Index(label, ":"); i >= 0 {
		name = label[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(strings.ReplaceAll(label, ":", ""))
	}
	if name == "" {
		return ""
	}
	if week == "" {
		return name
	}
	return week + " - " + name
}

func extract(row []string, l Layout) models.ExercisePrescription {
	return models.ExercisePrescription{
		ExerciseName: cell(row, l.Exercise),
		WarmupSets:   cell(row, l.WarmupSets),
		WorkingSets:  cell(row, l.WorkingSets),
		Reps:         cell(row, l.Reps),
		Load:         cell(row, l.Load),
		Percent1RM:   cell(row, l.Percent1RM),
		RPE:          cell(row, l.RPE),
		Rest:         cell(row, l.Rest),
		Notes:        cell(row, l.Notes),
	}
}

// onlyCell reports whether every cell except idx is empty.
func onlyCell(row []string, idx int) bool {
	for i := range row {
		if i != idx && cell(row, i) != "" {
			return false
		}
	}
	return true
}

func blank(row []string) bool {
	for i := range row {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}

// scanState is the single-pass parser state threaded across rows.
type scanState struct {
	category models.Category

	week        string
	isOpen      bool
	pendingName string
	pendingRow  int
	pending     []models.ExercisePrescription

	out     []models.Routine
	skipped []ingest.SkippedRow
}

func (s *scanState) setWeek(label string) {
	s.week = label
}

// open starts a new routine, flushing the previous one first.
func (s *scanState) open(row int, name string) {
	s.flush()
	s.isOpen = true
	s.pendingName = name
	s.pendingRow = row
	s.pending = nil
}

func (s *scanState) add(ex models.ExercisePrescription) {
	s.pending = append(s.pending, ex)
}

// flush emits the open routine. A routine without exercises is discarded.
func (s *scanState) flush() {
	if !s.isOpen {
		return
	}
	if len(s.pending) == 0 {
		s.skip(s.pendingRow, "routine header without exercises")
	} else {
		s.out = append(s.out, models.Routine{
			Name:      s.pendingName,
			Category:  s.category,
			Exercises: s.pending,
		})
	}
	s.isOpen = false
	s.pendingName = ""
	s.pendingRow = 0
	s.pending = nil
}

func (s *scanState) skip(row int, reason string) {
	s.skipped = append(s.skipped, ingest.SkippedRow{Row: row, Reason: reason})
}
