package powerbuilding

import (
	"strings"

	"github.com/meltforce/aceperf/internal/config"
)

// Layout maps prescription fields onto zero-based sheet columns.
// A negative index marks a column the sheet does not have; it always reads as "".
type Layout struct {
	Label       int `json:"label"`
	Exercise    int `json:"exercise"`
	WarmupSets  int `json:"warmup_sets"`
	WorkingSets int `json:"working_sets"`
	Reps        int `json:"reps"`
	Load        int `json:"load"`
	Percent1RM  int `json:"percent_1rm"`
	RPE         int `json:"rpe"`
	Rest        int `json:"rest"`
	Notes       int `json:"notes"`
}

// DefaultLayout is the label column followed by exercise name, warm-up sets,
// working sets, reps, load, percent, RPE, rest and notes.
var DefaultLayout = Layout{
	Label:       0,
	Exercise:    1,
	WarmupSets:  2,
	WorkingSets: 3,
	Reps:        4,
	Load:        5,
	Percent1RM:  6,
	RPE:         7,
	Rest:        8,
	Notes:       9,
}

// Shift moves every column by delta, for sheet variants whose data starts one
// column further right (delta > 0) or left (delta < 0).
func (l Layout) Shift(delta int) Layout {
	move := func(i int) int {
		if i < 0 || i+delta < 0 {
			return -1
		}
		return i + delta
	}
	return Layout{
		Label:       move(l.Label),
		Exercise:    move(l.Exercise),
		WarmupSets:  move(l.WarmupSets),
		WorkingSets: move(l.WorkingSets),
		Reps:        move(l.Reps),
		Load:        move(l.Load),
		Percent1RM:  move(l.Percent1RM),
		RPE:         move(l.RPE),
		Rest:        move(l.Rest),
		Notes:       move(l.Notes),
	}
}

// uses reports whether any field reads column col.
func (l Layout) uses(col int) bool {
	for _, c := range []int{l.Label, l.Exercise, l.WarmupSets, l.WorkingSets, l.Reps,
		l.Load, l.Percent1RM, l.RPE, l.Rest, l.Notes} {
		if c == col {
			return true
		}
	}
	return false
}

// LayoutFromConfig converts an explicit column table from the config file.
func LayoutFromConfig(c config.ColumnsConfig) Layout {
	return Layout{
		Label:       c.Label,
		Exercise:    c.Exercise,
		WarmupSets:  c.WarmupSets,
		WorkingSets: c.WorkingSets,
		Reps:        c.Reps,
		Load:        c.Load,
		Percent1RM:  c.Percent1RM,
		RPE:         c.RPE,
		Rest:        c.Rest,
		Notes:       c.Notes,
	}
}

// headerRule assigns a header cell to a field when it contains any keyword.
// Rules are checked in order, so "Warm-up Sets" is claimed before "Working Sets"
// and "%1RM Load" counts as a percentage, not a load.
type headerRule struct {
	field    func(*Layout) *int
	keywords []string
}

var headerRules = []headerRule{
	{func(l *Layout) *int { return &l.WarmupSets }, []string{"warm"}},
	{func(l *Layout) *int { return &l.WorkingSets }, []string{"working", "sets"}},
	{func(l *Layout) *int { return &l.Percent1RM }, []string{"%", "percent", "1rm", "intensity"}},
	{func(l *Layout) *int { return &l.RPE }, []string{"rpe", "rir"}},
	{func(l *Layout) *int { return &l.Reps }, []string{"rep"}},
	{func(l *Layout) *int { return &l.Load }, []string{"load", "weight", "lbs", "kg"}},
	{func(l *Layout) *int { return &l.Rest }, []string{"rest"}},
	{func(l *Layout) *int { return &l.Notes }, []string{"note", "comment", "cue"}},
}

// headerWords are exact cell values that only ever appear as column headers.
var headerWords = map[string]bool{
	"exercise":     true,
	"exercises":    true,
	"warm-up":      true,
	"warm up":      true,
	"warmup":       true,
	"warm-up sets": true,
	"warmup sets":  true,
	"working sets": true,
	"sets":         true,
	"reps":         true,
	"load":         true,
	"weight":       true,
	"lbs":          true,
	"%1rm":         true,
	"% 1rm":        true,
	"percent":      true,
	"rpe":          true,
	"rest":         true,
	"notes":        true,
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isExerciseHeader(s string) bool {
	n := normalizeHeader(s)
	return n == "exercise" || n == "exercises"
}

// isHeaderEcho reports whether a cell is a repeated column title rather than data.
func isHeaderEcho(s string) bool {
	return headerWords[normalizeHeader(s)]
}

// DetectLayout scans for the first row holding an "Exercise" cell and builds a
// layout from the header text around it. Fields with no matching header get -1.
// It returns the zero-based row index of the header and false if none was found.
func DetectLayout(rows [][]string) (Layout, int, bool) {
	for i, row := range rows {
		exerciseCol := -1
		for j := range row {
			if isExerciseHeader(cell(row, j)) {
				exerciseCol = j
				break
			}
		}
		if exerciseCol < 0 {
			continue
		}

		l := Layout{
			Label: exerciseCol - 1, Exercise: exerciseCol,
			WarmupSets: -1, WorkingSets: -1, Reps: -1, Load: -1,
			Percent1RM: -1, RPE: -1, Rest: -1, Notes: -1,
		}
		for j := exerciseCol + 1; j < len(row); j++ {
			text := normalizeHeader(cell(row, j))
			if text == "" {
				continue
			}
			for _, rule := range headerRules {
				if !containsAny(text, rule.keywords) {
					continue
				}
				if idx := rule.field(&l); *idx < 0 {
					*idx = j
				}
				break
			}
		}
		return l, i, true
	}
	return Layout{}, -1, false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
