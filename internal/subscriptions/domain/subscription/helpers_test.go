package subscription_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

func price(v int64) *int64 { return &v }

func testCatalog(t *testing.T) *subscription.Catalog {
	t.Helper()
	c, err := subscription.NewCatalog([]subscription.Plan{
		{ID: "plan-trial", Name: "Paper+ Trial", Duration: subscription.Duration30Days, Price: price(0)},
		{ID: "plan-onboarding", Name: "Paper+ Onboarding Promo", Duration: subscription.Duration3Months, Price: price(50000)},
		{ID: "plan-1year", Name: "Paper+ One Year", Duration: subscription.Duration1Year, Price: price(250000)},
		{ID: "plan-5year", Name: "Paper+ Five Years", Duration: subscription.Duration5Years, Price: price(1000000)},
		{ID: "plan-lifetime", Name: "Paper+ Lifetime", Duration: subscription.DurationLifetime, Price: price(2500000)},
	})
	require.NoError(t, err)
	return c
}

func date(s string) time.Time {
	d, err := subscription.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rehydrated(t *testing.T, userID, planName string, status subscription.Status, start string, end subscription.Expiry) *subscription.Subscription {
	t.Helper()
	s, err := subscription.Rehydrate(uuid.New(), time.Now(), userID, "plan-x", planName, status, date(start), end)
	require.NoError(t, err)
	return s
}
