// Package period buckets documents by calendar month, quarter and year and compares a period with
// the one before it.
//
// Dates are ISO strings (YYYY-MM-DD) and windows are compared as strings, both bounds inclusive.
package period

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// ParseGranularity maps a keyword to a granularity. Anything unknown is Month.
func ParseGranularity(s string) Granularity {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Quarter:
		return Quarter
	case Year:
		return Year
	default:
		return Month
	}
}

// Window is a closed date interval.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether an ISO date falls in the window. A blank date never does.
func (w Window) Contains(date string) bool {
	if date == "" {
		return false
	}
	return date >= w.Start && date <= w.End
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

func startOf(g Granularity, today time.Time) time.Time {
	y, m, _ := today.Date()
	switch g {
	case Quarter:
		return time.Date(y, time.Month((quarterOf(m)-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Current runs from the start of the calendar unit containing today to today.
func Current(g Granularity, today time.Time) Window {
	return Window{Start: day(startOf(g, today)), End: day(today)}
}

// Previous is the whole calendar unit before the one containing today.
func Previous(g Granularity, today time.Time) Window {
	start := startOf(g, today)
	var prevStart time.Time
	switch g {
	case Quarter:
		prevStart = start.AddDate(0, -3, 0)
	case Year:
		prevStart = start.AddDate(-1, 0, 0)
	default:
		prevStart = start.AddDate(0, -1, 0)
	}
	return Window{Start: day(prevStart), End: day(start.AddDate(0, 0, -1))}
}

// Label names the current period, e.g. "This Quarter (Q1 2024)".
func Label(g Granularity, today time.Time) string {
	switch g {
	case Quarter:
		return fmt.Sprintf("This Quarter (Q%d %d)", quarterOf(today.Month()), today.Year())
	case Year:
		return fmt.Sprintf("This Year (%d)", today.Year())
	default:
		return fmt.Sprintf("This Month (%s)", today.Format("Jan 2006"))
	}
}
