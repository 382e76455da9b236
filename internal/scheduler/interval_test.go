package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"15m", 15 * time.Minute, true},
		{"1h", time.Hour, true},
		{"4h", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{" 1H ", time.Hour, true},
		{"", 0, false},
		{"h", 0, false},
		{"0m", 0, false},
		{"-5m", 0, false},
		{"15s", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseIntervalDuration(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestShortestInterval(t *testing.T) {
	d, ok := ShortestInterval([]string{"4h", "15m", "1h"})
	assert.True(t, ok)
	assert.Equal(t, 15*time.Minute, d)

	// unparseable entries are skipped, not fatal
	d, ok = ShortestInterval([]string{"bogus", "1h"})
	assert.True(t, ok)
	assert.Equal(t, time.Hour, d)

	_, ok = ShortestInterval(nil)
	assert.False(t, ok)

	_, ok = ShortestInterval([]string{"bogus"})
	assert.False(t, ok)
}
