package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "—"},
		{"negative", -time.Second, "—"},
		{"sub-millisecond", 420 * time.Microsecond, "420µs"},
		{"truncates to milliseconds", 1500*time.Millisecond + 300*time.Microsecond, "1.5s"},
		{"minutes", 2*time.Minute + 3*time.Second, "2m3s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatElapsed(tt.d))
		})
	}
}
