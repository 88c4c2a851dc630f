package markethours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTimezone is the reference timezone for US equity trading rules.
const DefaultTimezone = "America/New_York"

// TimeOfDay is a wall-clock time within a trading day, minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad minute", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60
}

// Window is the daily trading window. Open must precede Close; both are
// wall-clock times in the market timezone.
type Window struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// DefaultWindow is the NYSE/Nasdaq regular session.
var DefaultWindow = Window{
	Open:  TimeOfDay{Hour: 9, Minute: 30},
	Close: TimeOfDay{Hour: 16, Minute: 0},
}

// Reason identifies which rule decided a Status.
type Reason string

const (
	ReasonOpen       Reason = "open"
	ReasonWeekend    Reason = "weekend"
	ReasonHoliday    Reason = "holiday"
	ReasonBeforeOpen Reason = "before_open"
	ReasonAfterClose Reason = "after_close"
)

// Status is the classification of one instant. Computed fresh per query,
// never stored.
type Status struct {
	Open   bool
	Reason Reason
	Detail string
}

// Calendar classifies instants against weekday, holiday, and trading-window
// rules. It is pure: no clock, no mutation after construction.
type Calendar struct {
	loc      *time.Location
	window   Window
	holidays HolidaySet
}

// NewCalendar builds a calendar. The window invariant (open < close) is
// enforced here so classification can rely on it.
func NewCalendar(loc *time.Location, window Window, holidays HolidaySet) (*Calendar, error) {
	if loc == nil {
		return nil, fmt.Errorf("markethours: location is required")
	}
	if window.Open.seconds() >= window.Close.seconds() {
		return nil, fmt.Errorf("markethours: open %s must precede close %s", window.Open, window.Close)
	}
	return &Calendar{loc: loc, window: window, holidays: holidays}, nil
}

// NewUSCalendar builds the default US equity calendar: Eastern time,
// 09:30-16:00, with the bundled NYSE holiday tables.
func NewUSCalendar() (*Calendar, error) {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("markethours: load %s: %w", DefaultTimezone, err)
	}
	return NewCalendar(loc, DefaultWindow, USMarketHolidays())
}

// Location returns the market timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Window returns the trading window.
func (c *Calendar) Window() Window { return c.window }

// Holidays returns the holiday set.
func (c *Calendar) Holidays() HolidaySet { return c.holidays }

// Normalize converts an instant into the market timezone. A zero timestamp
// is a caller contract violation and panics.
func (c *Calendar) Normalize(t time.Time) time.Time {
	if t.IsZero() {
		panic("markethours: zero timestamp")
	}
	return t.In(c.loc)
}

// IsWeekday reports whether t falls Monday through Friday in the market
// timezone.
func (c *Calendar) IsWeekday(t time.Time) bool {
	wd := c.Normalize(t).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsHoliday reports whether t's date (time-of-day ignored) is a known
// full-day closure.
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays.Contains(c.Normalize(t))
}

// Classify evaluates the rules in strict priority order: weekend, holiday,
// before-open, after-close, open. The open boundary is inclusive and the
// close boundary is exclusive: exactly 09:30 is open, exactly 16:00 is
// already closed.
func (c *Calendar) Classify(t time.Time) Status {
	local := c.Normalize(t)

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return Status{
			Reason: ReasonWeekend,
			Detail: fmt.Sprintf("Market closed: Weekend (%s)", wd),
		}
	}

	if c.holidays.Contains(local) {
		return Status{
			Reason: ReasonHoliday,
			Detail: fmt.Sprintf("Market closed: Holiday (%s)", local.Format("2006-01-02")),
		}
	}

	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	switch {
	case sec < c.window.Open.seconds():
		return Status{
			Reason: ReasonBeforeOpen,
			Detail: fmt.Sprintf("Market closed: Before opening hours (opens at %s)", c.window.Open),
		}
	case sec >= c.window.Close.seconds():
		return Status{
			Reason: ReasonAfterClose,
			Detail: fmt.Sprintf("Market closed: After closing hours (closed at %s)", c.window.Close),
		}
	}

	return Status{
		Open:   true,
		Reason: ReasonOpen,
		Detail: "Market open: Regular trading hours",
	}
}
