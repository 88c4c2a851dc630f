package markethours

import (
	"fmt"
	"sort"
	"time"
)

// HolidaySet holds full-day market closures keyed by calendar date.
// Membership is date-only; time-of-day never participates. Dates outside
// every loaded year table are treated as trading days.
type HolidaySet struct {
	dates map[string]struct{}
	years map[int]struct{}
}

// NewHolidaySet creates an empty set.
func NewHolidaySet() HolidaySet {
	return HolidaySet{
		dates: make(map[string]struct{}),
		years: make(map[int]struct{}),
	}
}

// Add records one closure date.
func (h HolidaySet) Add(year int, month time.Month, day int) {
	h.dates[dateKey(year, month, day)] = struct{}{}
	h.years[year] = struct{}{}
}

// Contains reports whether t's date is a loaded holiday. The caller is
// expected to pass a time already expressed in the market timezone.
func (h HolidaySet) Contains(t time.Time) bool {
	_, ok := h.dates[dateKey(t.Year(), t.Month(), t.Day())]
	return ok
}

// Years lists the years with loaded tables, ascending. Operators can use
// this to spot coverage gaps before they become silent trading days.
func (h HolidaySet) Years() []int {
	ys := make([]int, 0, len(h.years))
	for y := range h.years {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys
}

// Len returns the number of loaded closure dates.
func (h HolidaySet) Len() int { return len(h.dates) }

func dateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// NYSE full-day closures, per the exchange's published holiday schedule.
// Observed dates are used where the statutory date falls on a weekend.
var nyseHolidays = map[int][]struct {
	Month time.Month
	Day   int
}{
	2024: {
		{time.January, 1},   // New Year's Day
		{time.January, 15},  // Martin Luther King Jr. Day
		{time.February, 19}, // Washington's Birthday
		{time.March, 29},    // Good Friday
		{time.May, 27},      // Memorial Day
		{time.June, 19},     // Juneteenth
		{time.July, 4},      // Independence Day
		{time.September, 2}, // Labor Day
		{time.November, 28}, // Thanksgiving Day
		{time.December, 25}, // Christmas Day
	},
	2025: {
		{time.January, 1},   // New Year's Day
		{time.January, 20},  // Martin Luther King Jr. Day
		{time.February, 17}, // Washington's Birthday
		{time.April, 18},    // Good Friday
		{time.May, 26},      // Memorial Day
		{time.June, 19},     // Juneteenth
		{time.July, 4},      // Independence Day
		{time.September, 1}, // Labor Day
		{time.November, 27}, // Thanksgiving Day
		{time.December, 25}, // Christmas Day
	},
	2026: {
		{time.January, 1},   // New Year's Day
		{time.January, 19},  // Martin Luther King Jr. Day
		{time.February, 16}, // Washington's Birthday
		{time.April, 3},     // Good Friday
		{time.May, 25},      // Memorial Day
		{time.June, 19},     // Juneteenth
		{time.July, 3},      // Independence Day (observed)
		{time.September, 7}, // Labor Day
		{time.November, 26}, // Thanksgiving Day
		{time.December, 25}, // Christmas Day
	},
}

// USMarketHolidays returns the bundled NYSE closure tables.
func USMarketHolidays() HolidaySet {
	set := NewHolidaySet()
	for year, days := range nyseHolidays {
		for _, d := range days {
			set.Add(year, d.Month, d.Day)
		}
	}
	return set
}
