package logger

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status maps err to the status field: "ok", "cancelled" when the update's
// context ended first, "fail" otherwise.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "fail"
	}
}

// Took is the time since start at millisecond precision.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values with ", " and returns how many
// were left out.
func SummarizeStrings(values []string, limit int) (string, int) {
	shown := values[:min(max(limit, 0), len(values))]
	return strings.Join(shown, ", "), len(values) - len(shown)
}
