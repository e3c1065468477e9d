package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of an operation date.
const DateLayout = "2006-01-02"

// AllBatches in display order.
var AllBatches = []string{"A", "B", "C", "D"}

// RestrictedBatches are offered on restricted days.
var RestrictedBatches = []string{"A", "B", "C"}

var restrictedDays = map[time.Weekday]bool{
	time.Monday:   true,
	time.Thursday: true,
}

// IsValidBatch reports whether b names any batch at all.
func IsValidBatch(b string) bool {
	for _, v := range AllBatches {
		if v == b {
			return true
		}
	}
	return false
}

// IsRestrictedDay reports whether one batch is withheld on date.
func IsRestrictedDay(date time.Time) bool {
	return restrictedDays[date.Weekday()]
}

// AvailableBatches returns the batches offered on date, in display order.
func AvailableBatches(date time.Time) []string {
	src := AllBatches
	if IsRestrictedDay(date) {
		src = RestrictedBatches
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// IsBatchAvailable reports whether batch is offered on date.
func IsBatchAvailable(date time.Time, batch string) bool {
	for _, b := range AvailableBatches(date) {
		if b == batch {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD civil date. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateOf truncates t to its civil date in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Calendar anchors "now" to the operating timezone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar uses time.Now when now is nil.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// LoadCalendar resolves an IANA zone name such as "Africa/Lagos".
func LoadCalendar(timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return NewCalendar(loc, nil), nil
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Now is the current server time in the operating timezone.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Today is the current civil date in the operating timezone.
func (c *Calendar) Today() time.Time {
	return DateOf(c.Now())
}

// IsReadOnly reports whether date lies strictly before today.
func (c *Calendar) IsReadOnly(date time.Time) bool {
	return DateOf(date).Before(c.Today())
}
