package mcp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

var errAppNotInitialized = errors.New("app not initialized")

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := subscription.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

// cleanIDs trims each id and drops the blank ones.
func cleanIDs(values []string) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, v)
		}
	}
	return ids
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
