package poller

import (
	"fmt"
	"strings"
	"time"
)

// ParseSchedule normalizes a poll schedule into a cron spec.
//
// Supported forms:
//   - Cron (robfig/cron): "*/5 * * * *", "@hourly", "@every 2m"
//   - Go duration: "2m", "1h30m" (becomes "@every <dur>")
func ParseSchedule(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("schedule required")
	}

	// Any whitespace or leading '@' => already a cron spec.
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return s, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return "", fmt.Errorf("invalid schedule %q (use cron like '*/5 * * * *' or duration like '2m')", raw)
	}
	if d <= 0 {
		return "", fmt.Errorf("poll interval must be > 0")
	}
	return "@every " + d.String(), nil
}
