package cache

// Keys of cached ledger views.
const (
	KeyCounts = "counts"
)

// SummaryKey is the cache key of one user's subscription summary.
func SummaryKey(userID string) string {
	return "summary:" + userID
}

// UserKeys lists the keys that go stale when the subscriptions of userIDs
// change: each summary, then the shared counts once.
func UserKeys(userIDs ...string) []string {
	keys := make([]string, 0, len(userIDs)+1)
	for _, id := range userIDs {
		keys = append(keys, SummaryKey(id))
	}
	return append(keys, KeyCounts)
}
