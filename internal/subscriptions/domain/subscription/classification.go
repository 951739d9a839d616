package subscription

import (
	"fmt"
	"sort"
	"strings"
)

// Bucket is the classification of a user by their subscription set.
type Bucket string

const (
	BucketActive  Bucket = "active"
	BucketExpired Bucket = "expired"
	BucketNone    Bucket = "none"
	// BucketAll is only meaningful as a filter.
	BucketAll Bucket = "all"
)

// ParseBucket parses a filter value. Empty means active.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case "":
		return BucketActive, nil
	case BucketActive, BucketExpired, BucketNone, BucketAll:
		return Bucket(s), nil
	default:
		return "", fmt.Errorf("%w: unknown status filter %q", ErrInvalidArgument, s)
	}
}

// Includes reports whether a user classified as other passes filter b.
func (b Bucket) Includes(other Bucket) bool {
	return b == BucketAll || b == other
}

// Classify buckets one user's subscriptions. Any active record makes the
// user active. Otherwise any expired record makes them expired. Pending
// records alone count as none.
func Classify(subs []*Subscription) Bucket {
	hasExpired := false
	for _, s := range subs {
		switch s.status {
		case StatusActive:
			return BucketActive
		case StatusExpired:
			hasExpired = true
		}
	}
	if hasExpired {
		return BucketExpired
	}
	return BucketNone
}

// Summary is the display view of one user's subscriptions.
type Summary struct {
	Bucket  Bucket
	Primary *Subscription
	Label   string
	Ends    Expiry
	Count   int
}

// HasEnds reports whether Ends is meaningful.
func (s Summary) HasEnds() bool {
	return s.Primary != nil
}

// Summarize classifies subs and derives the display fields from the records
// that decided the bucket. The primary is the earliest-starting record. Ends
// is the latest end in that set, with Never ranking above any date.
func Summarize(subs []*Subscription) Summary {
	bucket := Classify(subs)
	if bucket == BucketNone {
		return Summary{Bucket: BucketNone}
	}

	want := StatusActive
	if bucket == BucketExpired {
		want = StatusExpired
	}

	set := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		if s.status == want {
			set = append(set, s)
		}
	}
	sort.SliceStable(set, func(i, j int) bool {
		return set[i].startDate.Before(set[j].startDate)
	})

	primary := set[0]
	ends := primary.endDate
	for _, s := range set[1:] {
		if s.endDate.Compare(ends) > 0 {
			ends = s.endDate
		}
	}

	return Summary{
		Bucket:  bucket,
		Primary: primary,
		Label:   Label(primary.planName, len(set)),
		Ends:    ends,
		Count:   len(set),
	}
}

// Label formats a primary plan name with the count of additional plans.
func Label(planName string, count int) string {
	if count <= 1 {
		return planName
	}
	return fmt.Sprintf("%s (+%d)", planName, count-1)
}

// Counts is the number of users per bucket.
type Counts struct {
	Active  int `json:"active"`
	Expired int `json:"expired"`
	None    int `json:"none"`
	All     int `json:"all"`
}

// CountOrder is the order buckets are reported in.
var CountOrder = []Bucket{BucketActive, BucketExpired, BucketNone, BucketAll}

// Title is the bucket name as shown in listings.
func (b Bucket) Title() string {
	if b == "" {
		return ""
	}
	return strings.ToUpper(string(b[:1])) + string(b[1:])
}

// Of returns the count for a bucket.
func (c Counts) Of(b Bucket) int {
	switch b {
	case BucketActive:
		return c.Active
	case BucketExpired:
		return c.Expired
	case BucketNone:
		return c.None
	default:
		return c.All
	}
}

// GroupByUser indexes subscriptions by user id.
func GroupByUser(subs []*Subscription) map[string][]*Subscription {
	out := make(map[string][]*Subscription)
	for _, s := range subs {
		out[s.userID] = append(out[s.userID], s)
	}
	return out
}

// CountBuckets classifies every user in userIDs. Subscriptions of users not
// in the list are ignored. Active, expired and none always sum to all.
func CountBuckets(userIDs []string, subs []*Subscription) Counts {
	byUser := GroupByUser(subs)
	var c Counts
	for _, id := range userIDs {
		switch Classify(byUser[id]) {
		case BucketActive:
			c.Active++
		case BucketExpired:
			c.Expired++
		default:
			c.None++
		}
	}
	c.All = len(userIDs)
	return c
}
