package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

func TestClassify(t *testing.T) {
	active := rehydrated(t, "U-1", "A", subscription.StatusActive, "2025-01-01", subscription.Dated(date("2026-01-01")))
	expired := rehydrated(t, "U-1", "B", subscription.StatusExpired, "2024-01-01", subscription.Dated(date("2024-02-01")))
	pending := rehydrated(t, "U-1", "C", subscription.StatusPending, "2026-01-01", subscription.Dated(date("2027-01-01")))

	assert.Equal(t, subscription.BucketNone, subscription.Classify(nil))
	assert.Equal(t, subscription.BucketActive, subscription.Classify([]*subscription.Subscription{expired, active}))
	assert.Equal(t, subscription.BucketExpired, subscription.Classify([]*subscription.Subscription{expired, pending}))
	assert.Equal(t, subscription.BucketNone, subscription.Classify([]*subscription.Subscription{pending}))
}

func TestSummarize_ActiveOverridesExpired(t *testing.T) {
	subs := []*subscription.Subscription{
		rehydrated(t, "U-1", "Paper+ Trial", subscription.StatusExpired, "2024-01-01", subscription.Dated(date("2024-01-31"))),
		rehydrated(t, "U-1", "Paper+ One Year", subscription.StatusActive, "2025-01-01", subscription.Dated(date("2026-01-01"))),
	}

	s := subscription.Summarize(subs)

	assert.Equal(t, subscription.BucketActive, s.Bucket)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, "Paper+ One Year", s.Label)
	assert.Equal(t, "2026-01-01", s.Ends.String())
	require.True(t, s.HasEnds())
	assert.Equal(t, subs[1], s.Primary)
}

func TestSummarize_StackedLabel(t *testing.T) {
	subs := []*subscription.Subscription{
		rehydrated(t, "U-1", "Paper+ Five Years", subscription.StatusActive, "2026-01-01", subscription.Dated(date("2031-01-01"))),
		rehydrated(t, "U-1", "Paper+ Trial", subscription.StatusActive, "2025-01-01", subscription.Dated(date("2025-01-31"))),
		rehydrated(t, "U-1", "Paper+ One Year", subscription.StatusActive, "2025-01-31", subscription.Dated(date("2026-01-01"))),
	}

	s := subscription.Summarize(subs)

	assert.Equal(t, "Paper+ Trial (+2)", s.Label)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, "2031-01-01", s.Ends.String())
}

func TestSummarize_NeverTakesPrecedence(t *testing.T) {
	subs := []*subscription.Subscription{
		rehydrated(t, "U-1", "Paper+ Lifetime", subscription.StatusActive, "2025-01-01", subscription.Never()),
		rehydrated(t, "U-1", "Paper+ One Year", subscription.StatusActive, "2099-12-31", subscription.Dated(date("2100-12-31"))),
	}

	s := subscription.Summarize(subs)

	assert.True(t, s.Ends.IsNever())
	assert.Equal(t, subscription.LifetimeLabel, s.Ends.String())
	assert.Equal(t, "Paper+ Lifetime (+1)", s.Label)
}

func TestSummarize_ExpiredOnly(t *testing.T) {
	subs := []*subscription.Subscription{
		rehydrated(t, "U-2", "Paper+ Trial", subscription.StatusExpired, "2025-06-01", subscription.Dated(date("2025-07-01"))),
	}

	s := subscription.Summarize(subs)

	assert.Equal(t, subscription.BucketExpired, s.Bucket)
	assert.Equal(t, "Paper+ Trial", s.Label)
	assert.Equal(t, "2025-07-01", s.Ends.String())
}

func TestSummarize_None(t *testing.T) {
	s := subscription.Summarize(nil)

	assert.Equal(t, subscription.BucketNone, s.Bucket)
	assert.False(t, s.HasEnds())
	assert.Zero(t, s.Count)
	assert.Empty(t, s.Label)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Paper+ Trial", subscription.Label("Paper+ Trial", 1))
	assert.Equal(t, "Paper+ Trial (+1)", subscription.Label("Paper+ Trial", 2))
}

func TestCountBuckets(t *testing.T) {
	subs := []*subscription.Subscription{
		rehydrated(t, "U-1", "A", subscription.StatusActive, "2025-01-01", subscription.Dated(date("2026-01-01"))),
		rehydrated(t, "U-1", "B", subscription.StatusExpired, "2024-01-01", subscription.Dated(date("2024-02-01"))),
		rehydrated(t, "U-2", "C", subscription.StatusExpired, "2024-01-01", subscription.Dated(date("2024-02-01"))),
		rehydrated(t, "U-4", "D", subscription.StatusPending, "2026-01-01", subscription.Dated(date("2027-01-01"))),
		rehydrated(t, "U-ghost", "E", subscription.StatusActive, "2025-01-01", subscription.Never()),
	}

	c := subscription.CountBuckets([]string{"U-1", "U-2", "U-3", "U-4"}, subs)

	assert.Equal(t, subscription.Counts{Active: 1, Expired: 1, None: 2, All: 4}, c)
	assert.Equal(t, c.All, c.Active+c.Expired+c.None)
	assert.Equal(t, 2, c.Of(subscription.BucketNone))
	assert.Equal(t, 4, c.Of(subscription.BucketAll))
}

func TestBucket_Title(t *testing.T) {
	var titles []string
	for _, b := range subscription.CountOrder {
		titles = append(titles, b.Title())
	}
	assert.Equal(t, []string{"Active", "Expired", "None", "All"}, titles)
}

func TestParseBucket(t *testing.T) {
	b, err := subscription.ParseBucket("")
	require.NoError(t, err)
	assert.Equal(t, subscription.BucketActive, b)

	b, err = subscription.ParseBucket("all")
	require.NoError(t, err)
	assert.True(t, b.Includes(subscription.BucketNone))
	assert.False(t, subscription.BucketExpired.Includes(subscription.BucketActive))

	_, err = subscription.ParseBucket("lapsed")
	assert.ErrorIs(t, err, subscription.ErrInvalidArgument)
}
