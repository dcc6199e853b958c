package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{5 * time.Minute, "0:05:00"},
		{90 * time.Minute, "1:30:00"},
		{45*time.Second + 900*time.Millisecond, "0:00:45"},
		{26 * time.Hour, "26:00:00"},
		{-time.Second, "0:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.in), tt.in.String())
	}
}

func TestDanish(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 sekunder"},
		{time.Second, "1 sekund"},
		{45 * time.Second, "45 sekunder"},
		{5 * time.Minute, "5 minutter"},
		{time.Minute, "1 minut"},
		{time.Hour, "1 time"},
		{2 * time.Hour, "2 timer"},
		{90 * time.Minute, "1 time og 30 minutter"},
		{time.Hour + time.Minute + time.Second, "1 time, 1 minut og 1 sekund"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Danish(tt.in), tt.in.String())
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0:05:00", 5 * time.Minute},
		{"00:05:00", 5 * time.Minute},
		{"05:00", 5 * time.Minute},
		{"1:30:00", 90 * time.Minute},
		{"300", 5 * time.Minute},
		{"5m", 5 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"5 minutter", 5 * time.Minute},
		{"1 time og 5 minutter", 65 * time.Minute},
		{"2 timer", 2 * time.Hour},
		{"30 sekunder", 30 * time.Second},
		{" 10 Min ", 10 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationErrors(t *testing.T) {
	for _, in := range []string{"", "soon", "1:2:3:4", "a:b", "-5"} {
		_, err := ParseDuration(in)
		assert.Error(t, err, in)
	}
}

func TestSameDuration(t *testing.T) {
	assert.True(t, SameDuration(5*time.Minute, "0:05:00"))
	assert.True(t, SameDuration(5*time.Minute, "00:05:00"))
	assert.True(t, SameDuration(5*time.Minute, "5 minutter"))
	assert.False(t, SameDuration(5*time.Minute, "0:10:00"))
	assert.False(t, SameDuration(5*time.Minute, "whenever"))
}
