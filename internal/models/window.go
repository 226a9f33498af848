package models

import "time"

// Window is a half-open time range [Start, End) over which spend is summed
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// BudgetWindow returns the spend window for a budget period at ref.
//
// Calendar periods cover the whole period containing ref: weeks start on
// Monday 00:00, months on the 1st, years on January 1st, all in ref's
// location. One-time budgets run from createdAt up to and including ref.
// Storage keeps timestamps at second precision, so the one-time end is the
// second after ref.
func BudgetWindow(period Period, ref, createdAt time.Time) Window {
	loc := ref.Location()
	y, m, d := ref.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch period {
	case PeriodWeek:
		offset := (int(midnight.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	case PeriodYear:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(1, 0, 0)}
	default:
		return Window{
			Start: createdAt.Truncate(time.Second),
			End:   ref.Truncate(time.Second).Add(time.Second),
		}
	}
}
