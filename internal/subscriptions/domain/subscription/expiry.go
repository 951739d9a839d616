package subscription

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used on every surface.
const DateLayout = "2006-01-02"

// LifetimeLabel is how a never-expiring end date is displayed.
const LifetimeLabel = "Lifetime"

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Expiry is the end of a subscription window: either a calendar date or never.
// The zero value is Dated at the zero time and should not be relied on.
type Expiry struct {
	date  time.Time
	never bool
}

// Dated returns an expiry on the calendar date of d.
func Dated(d time.Time) Expiry {
	return Expiry{date: DateOf(d)}
}

// Never returns an expiry that never comes.
func Never() Expiry {
	return Expiry{never: true}
}

// ExpiryFromPtr maps a nullable stored end date: nil means never.
func ExpiryFromPtr(d *time.Time) Expiry {
	if d == nil {
		return Never()
	}
	return Dated(*d)
}

// IsNever reports whether the expiry never comes.
func (e Expiry) IsNever() bool { return e.never }

// Date returns the calendar date and true, or false for Never.
func (e Expiry) Date() (time.Time, bool) {
	if e.never {
		return time.Time{}, false
	}
	return e.date, true
}

// Ptr returns the date for storage, nil for Never.
func (e Expiry) Ptr() *time.Time {
	if e.never {
		return nil
	}
	d := e.date
	return &d
}

// Before reports whether the expiry is a date strictly before t.
func (e Expiry) Before(t time.Time) bool {
	return !e.never && e.date.Before(DateOf(t))
}

// Compare orders expiries with Never after every date. It returns -1, 0 or +1.
func (e Expiry) Compare(other Expiry) int {
	switch {
	case e.never && other.never:
		return 0
	case e.never:
		return 1
	case other.never:
		return -1
	default:
		return e.date.Compare(other.date)
	}
}

// Equal reports whether two expiries denote the same end.
func (e Expiry) Equal(other Expiry) bool {
	return e.Compare(other) == 0
}

// String formats the expiry as YYYY-MM-DD or LifetimeLabel.
func (e Expiry) String() string {
	if e.never {
		return LifetimeLabel
	}
	return e.date.Format(DateLayout)
}

// MarshalText renders the expiry the way String does.
func (e Expiry) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}
