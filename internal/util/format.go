package util //nolint:revive // package name util hosts display formatting helpers shared by the CLI clients

import "time"

// FormatElapsed formats a job's elapsed running time for display. Zero and
// negative durations render as a dash; anything at millisecond scale or above
// is truncated to milliseconds so live views stay readable.
func FormatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "—"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
