package markethours

import (
	"testing"
	"time"
)

func mustUSCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewUSCalendar()
	if err != nil {
		t.Fatalf("NewUSCalendar: %v", err)
	}
	return cal
}

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tod.Hour != 9 || tod.Minute != 30 {
		t.Fatalf("got %+v", tod)
	}
	if tod.String() != "09:30" {
		t.Fatalf("String() = %q", tod.String())
	}

	for _, bad := range []string{"", "930", "24:00", "09:60", "x:y"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) should fail", bad)
		}
	}
}

func TestNewCalendarRejectsInvertedWindow(t *testing.T) {
	loc := eastern(t)
	_, err := NewCalendar(loc, Window{
		Open:  TimeOfDay{Hour: 16, Minute: 0},
		Close: TimeOfDay{Hour: 9, Minute: 30},
	}, NewHolidaySet())
	if err == nil {
		t.Fatal("expected error for open >= close")
	}
}

func TestClassifyWeekend(t *testing.T) {
	cal := mustUSCalendar(t)
	loc := eastern(t)

	// Saturday and Sunday, mid trading window.
	for _, day := range []int{12, 13} { // 2025-07-12 Sat, 2025-07-13 Sun
		st := cal.Classify(time.Date(2025, time.July, day, 14, 0, 0, 0, loc))
		if st.Open {
			t.Fatalf("day %d: expected closed", day)
		}
		if st.Reason != ReasonWeekend {
			t.Fatalf("day %d: reason = %s, want weekend", day, st.Reason)
		}
	}
}

func TestClassifyHolidayAnyTimeOfDay(t *testing.T) {
	cal := mustUSCalendar(t)
	loc := eastern(t)

	// Christmas 2025 is a Thursday; closed even inside the window.
	for _, hm := range [][2]int{{0, 0}, {9, 30}, {14, 0}, {23, 59}} {
		st := cal.Classify(time.Date(2025, time.December, 25, hm[0], hm[1], 0, 0, loc))
		if st.Open {
			t.Fatalf("%02d:%02d: expected closed", hm[0], hm[1])
		}
		if st.Reason != ReasonHoliday {
			t.Fatalf("%02d:%02d: reason = %s, want holiday", hm[0], hm[1], st.Reason)
		}
	}
}

func TestClassifyWeekdayWindow(t *testing.T) {
	cal := mustUSCalendar(t)
	loc := eastern(t)

	// 2025-07-08 is a Tuesday and not a holiday.
	cases := []struct {
		name   string
		hour   int
		minute int
		second int
		open   bool
		reason Reason
	}{
		{"before open", 8, 0, 0, false, ReasonBeforeOpen},
		{"one second before open", 9, 29, 59, false, ReasonBeforeOpen},
		{"exactly at open", 9, 30, 0, true, ReasonOpen},
		{"mid session", 14, 0, 0, true, ReasonOpen},
		{"one second before close", 15, 59, 59, true, ReasonOpen},
		{"exactly at close", 16, 0, 0, false, ReasonAfterClose},
		{"after close", 17, 0, 0, false, ReasonAfterClose},
	}

	for _, tc := range cases {
		st := cal.Classify(time.Date(2025, time.July, 8, tc.hour, tc.minute, tc.second, 0, loc))
		if st.Open != tc.open {
			t.Errorf("%s: open = %v, want %v", tc.name, st.Open, tc.open)
		}
		if st.Reason != tc.reason {
			t.Errorf("%s: reason = %s, want %s", tc.name, st.Reason, tc.reason)
		}
	}
}

func TestClassifyTimezoneInvariance(t *testing.T) {
	cal := mustUSCalendar(t)
	loc := eastern(t)

	// The same instant expressed in three zones must classify identically.
	instant := time.Date(2025, time.July, 8, 14, 0, 0, 0, loc)
	pacific, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	for _, in := range []time.Time{instant, instant.UTC(), instant.In(pacific)} {
		st := cal.Classify(in)
		if !st.Open {
			t.Fatalf("representation %v: expected open, got %s", in, st.Reason)
		}
	}

	// 14:00 UTC on the same day is 10:00 Eastern, still open; 14:00 Pacific
	// is 17:00 Eastern, after close. Conversion must happen before comparison.
	utcWall := time.Date(2025, time.July, 8, 14, 0, 0, 0, time.UTC)
	if st := cal.Classify(utcWall); !st.Open {
		t.Fatalf("14:00 UTC: expected open, got %s", st.Reason)
	}
	pacWall := time.Date(2025, time.July, 8, 14, 0, 0, 0, pacific)
	if st := cal.Classify(pacWall); st.Reason != ReasonAfterClose {
		t.Fatalf("14:00 Pacific: reason = %s, want after_close", st.Reason)
	}
}

func TestClassifyZeroTimestampPanics(t *testing.T) {
	cal := mustUSCalendar(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on zero timestamp")
		}
	}()
	cal.Classify(time.Time{})
}

func TestHolidaySet(t *testing.T) {
	set := USMarketHolidays()
	if set.Len() != 30 {
		t.Fatalf("Len() = %d, want 30", set.Len())
	}
	years := set.Years()
	if len(years) != 3 || years[0] != 2024 || years[1] != 2025 || years[2] != 2026 {
		t.Fatalf("Years() = %v", years)
	}

	loc := time.UTC
	if !set.Contains(time.Date(2024, time.November, 28, 10, 0, 0, 0, loc)) {
		t.Error("Thanksgiving 2024 should be a holiday")
	}
	if !set.Contains(time.Date(2026, time.July, 3, 0, 0, 0, 0, loc)) {
		t.Error("observed Independence Day 2026 should be a holiday")
	}
	// Outside every loaded table: a trading day, never a holiday.
	if set.Contains(time.Date(2023, time.December, 25, 0, 0, 0, 0, loc)) {
		t.Error("2023 is outside all loaded tables")
	}

	custom := NewHolidaySet()
	custom.Add(2027, time.January, 1)
	if !custom.Contains(time.Date(2027, time.January, 1, 15, 30, 0, 0, loc)) {
		t.Error("added date should match regardless of time-of-day")
	}
}
