// pkg/filter/date_range.go

// Package filter restricts table rows to a configured date window.
package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/David-Botos/mart-export/pkg/converter"
	"github.com/David-Botos/mart-export/pkg/model"
)

// DateRangeFilter keeps rows whose date column falls in [Start, End], both
// inclusive at day granularity
type DateRangeFilter struct {
	column string
	layout string
	start  time.Time
	// upper is End plus one calendar day; the comparison is start <= ts < upper
	upper time.Time
}

// NewDateRangeFilter creates a filter for the named column. Text values are
// parsed with layout in UTC. start and end are truncated to their date.
func NewDateRangeFilter(column, layout string, start, end time.Time) (*DateRangeFilter, error) {
	if column == "" {
		return nil, errors.New("date column cannot be empty")
	}
	if start.IsZero() {
		return nil, errors.New("start date is required")
	}

	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	return &DateRangeFilter{
		column: column,
		layout: layout,
		start:  start,
		upper:  end.AddDate(0, 0, 1),
	}, nil
}

// Column returns the name of the filtered column
func (f *DateRangeFilter) Column() string {
	return f.column
}

// Apply removes the rows outside the window in place. Tables without the
// column are left untouched. Rows with a NULL date are dropped. A value that
// cannot be read as a date fails the whole table and leaves it unchanged.
func (f *DateRangeFilter) Apply(table *model.Table) error {
	if table == nil {
		return errors.New("table cannot be nil")
	}

	idx := table.ColumnIndex(f.column)
	if idx < 0 {
		return nil
	}

	kept := make([][]interface{}, 0, len(table.Rows))
	for i, row := range table.Rows {
		if idx >= len(row) {
			return fmt.Errorf("row %d has no %s value", i, f.column)
		}

		ts, err := converter.ToTime(row[idx], f.layout)
		if errors.Is(err, converter.ErrNullValue) {
			continue
		}
		if err != nil {
			return fmt.Errorf("row %d: invalid %s: %w", i, f.column, err)
		}

		if f.contains(ts) {
			kept = append(kept, row)
		}
	}

	table.Rows = kept
	return nil
}

func (f *DateRangeFilter) contains(ts time.Time) bool {
	return !ts.Before(f.start) && ts.Before(f.upper)
}

// truncateDay returns midnight UTC of the date t shows in its own location
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
