package markethours

import (
	"time"

	"stockpulse/pkg/logger"
)

// Oracle answers "is the market open" and "when does it next open". It is
// stateless across calls: every query recomputes from the calendar and the
// supplied (or current) instant, so concurrent use needs no locking.
type Oracle struct {
	cal *Calendar
	now func() time.Time
}

// OracleOption configures Oracle.
type OracleOption func(*Oracle)

// WithClock injects the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) OracleOption {
	return func(o *Oracle) {
		o.now = now
	}
}

// NewOracle creates an Oracle over the given calendar.
func NewOracle(cal *Calendar, opts ...OracleOption) *Oracle {
	o := &Oracle{cal: cal, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Calendar returns the underlying calendar.
func (o *Oracle) Calendar() *Calendar { return o.cal }

// Now returns the current instant in the market timezone.
func (o *Oracle) Now() time.Time {
	return o.now().In(o.cal.Location())
}

// Status classifies the current instant.
func (o *Oracle) Status() Status {
	return o.cal.Classify(o.now())
}

// StatusAt classifies the given instant. Panics on a zero timestamp.
func (o *Oracle) StatusAt(t time.Time) Status {
	return o.cal.Classify(t)
}

// NextOpen returns the next opening instant strictly after now.
func (o *Oracle) NextOpen() time.Time {
	return o.NextOpenAt(o.now())
}

// NextOpenAt returns the first instant strictly after t at which the market
// is open: exactly open_time on the nearest weekday that is not a holiday.
// If t's time-of-day is at or past open_time, today's open has already gone
// by, so the walk starts on the following day. The walk is unbounded on
// purpose: adjacent holidays and weekends must all be skipped, however many
// there are in a row.
func (o *Oracle) NextOpenAt(t time.Time) time.Time {
	local := o.cal.Normalize(t)
	open := o.cal.Window().Open

	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, o.cal.Location())
	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if sec >= open.seconds() {
		day = day.AddDate(0, 0, 1)
	}

	for {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday && !o.cal.Holidays().Contains(day) {
			return time.Date(day.Year(), day.Month(), day.Day(), open.Hour, open.Minute, 0, 0, o.cal.Location())
		}
		day = day.AddDate(0, 0, 1)
	}
}

// LogStatus reports the current status and, when closed, the next open.
// Observability only; the decision logic lives in Classify and NextOpenAt.
func (o *Oracle) LogStatus(lgr *logger.Logger) Status {
	return o.LogStatusAt(o.now(), lgr)
}

// LogStatusAt is LogStatus for an explicit instant.
func (o *Oracle) LogStatusAt(t time.Time, lgr *logger.Logger) Status {
	local := o.cal.Normalize(t)
	st := o.cal.Classify(local)

	fields := []logger.Field{
		logger.String("at", local.Format("2006-01-02 15:04:05 MST")),
		logger.String("reason", string(st.Reason)),
		logger.String("detail", st.Detail),
	}
	if !st.Open {
		next := o.NextOpenAt(local)
		fields = append(fields, logger.String("next_open", next.Format("2006-01-02 15:04:05 MST")))
	}
	lgr.Info("market status", fields...)
	return st
}
