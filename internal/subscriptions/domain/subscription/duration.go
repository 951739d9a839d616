package subscription

import "time"

// DurationCode names how long a plan grants coverage.
type DurationCode string

const (
	Duration30Days   DurationCode = "30 days"
	Duration3Months  DurationCode = "3 months"
	Duration1Year    DurationCode = "1 year"
	Duration5Years   DurationCode = "5 years"
	DurationLifetime DurationCode = "Lifetime"
)

// LegacyLifetimeYears approximates Lifetime when the resolver runs in legacy mode.
const LegacyLifetimeYears = 100

// IsKnown reports whether c is one of the catalog duration codes.
func (c DurationCode) IsKnown() bool {
	switch c {
	case Duration30Days, Duration3Months, Duration1Year, Duration5Years, DurationLifetime:
		return true
	default:
		return false
	}
}

// Resolver maps a duration code to the end of a window starting on a date.
type Resolver struct {
	// LegacyLifetime resolves Lifetime to a dated end LegacyLifetimeYears
	// out instead of Never.
	LegacyLifetime bool
}

// ResolveOffset applies code to from. Unknown and empty codes fall back to
// one calendar year. Month and year arithmetic follows time.AddDate, so
// Nov 30 plus three months normalises to Mar 2.
func (r Resolver) ResolveOffset(code DurationCode, from time.Time) Expiry {
	from = DateOf(from)
	switch code {
	case Duration30Days:
		return Dated(from.AddDate(0, 0, 30))
	case Duration3Months:
		return Dated(from.AddDate(0, 3, 0))
	case Duration1Year:
		return Dated(from.AddDate(1, 0, 0))
	case Duration5Years:
		return Dated(from.AddDate(5, 0, 0))
	case DurationLifetime:
		if r.LegacyLifetime {
			return Dated(from.AddDate(LegacyLifetimeYears, 0, 0))
		}
		return Never()
	default:
		return Dated(from.AddDate(1, 0, 0))
	}
}

// ResolveOffset resolves with the default (non-legacy) resolver.
func ResolveOffset(code DurationCode, from time.Time) Expiry {
	return Resolver{}.ResolveOffset(code, from)
}
