package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yourname/dailywords/internal"
)

// Calendar month-shift directions.
const (
	DirectionPrev = "prev"
	DirectionNext = "next"
)

// ShiftMonth moves the shared calendar cursor by one month. The cursor is
// global: either party's navigation moves it for everyone. Day-of-month is
// preserved where the target month has it and clamped to month-end
// otherwise, so next followed by prev always lands back in the same month.
func (e *Exchange) ShiftMonth(ctx context.Context, direction string) (*internal.AppState, string, error) {
	delta := 0
	switch direction {
	case DirectionPrev:
		delta = -1
	case DirectionNext:
		delta = 1
	default:
		return nil, "", fmt.Errorf("%w: direction must be prev or next", internal.ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.repo.Load(ctx)
	if err != nil {
		return nil, "", err
	}

	cursor, err := time.Parse(internal.DateLayout, state.CalendarDate)
	if err != nil {
		// Load normalizes the cursor, so this is a should-not-happen path.
		return nil, "", fmt.Errorf("%w: calendar cursor unreadable", internal.ErrNotFound)
	}

	state.CalendarDate = shiftMonthClamped(cursor, delta).Format(internal.DateLayout)
	e.persist(ctx, state)
	return state, state.CalendarDate, nil
}

// shiftMonthClamped moves d by delta months without the overflow of
// time.AddDate (which would turn Jan 31 + 1 month into Mar 2/3).
func shiftMonthClamped(d time.Time, delta int) time.Time {
	firstOfTarget := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	day := d.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthCell is one day of the displayed month with both parties' entries,
// so the front end can render the two histories side by side.
type MonthCell struct {
	Date       string               `json:"date"`
	Day        int                  `json:"day"`
	User1Given *internal.Evaluation `json:"user1Given,omitempty"`
	User2Given *internal.Evaluation `json:"user2Given,omitempty"`
	IsToday    bool                 `json:"isToday"`
}

// MonthMatrix is the rendering data for the month the shared cursor sits in.
// LeadingBlanks counts the padding cells before the first weekday
// (Sunday-first week).
type MonthMatrix struct {
	Year          int         `json:"year"`
	Month         int         `json:"month"`
	LeadingBlanks int         `json:"leadingBlanks"`
	Cells         []MonthCell `json:"cells"`
}

// BuildMonthMatrix derives the calendar grid for the cursor's month. Pure
// derivation, no mutation.
func BuildMonthMatrix(state *internal.AppState, now time.Time) MonthMatrix {
	cursor, err := time.Parse(internal.DateLayout, state.CalendarDate)
	if err != nil {
		cursor = now
	}

	year, month := cursor.Year(), cursor.Month()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	todayKey := now.Format(internal.DateLayout)

	matrix := MonthMatrix{
		Year:          year,
		Month:         int(month),
		LeadingBlanks: int(first.Weekday()),
	}

	for day := 1; day <= daysInMonth(year, month); day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(internal.DateLayout)
		cell := MonthCell{Date: date, Day: day, IsToday: date == todayKey}
		if eval, ok := state.User1.Given[date]; ok {
			cell.User1Given = &eval
		}
		if eval, ok := state.User2.Given[date]; ok {
			cell.User2Given = &eval
		}
		matrix.Cells = append(matrix.Cells, cell)
	}
	return matrix
}
