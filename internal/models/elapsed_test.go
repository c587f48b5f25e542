package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		span time.Duration
		want string
	}{
		{"zero", 0, "0 s"},
		{"seconds", 59*time.Second + 900*time.Millisecond, "59 s"},
		{"one minute", time.Minute, "1 min"},
		{"minutes truncate", 59*time.Minute + 59*time.Second, "59 min"},
		{"hours", 2*time.Hour + 5*time.Minute, "2 h 5 min"},
		{"just under a day", 23*time.Hour + 59*time.Minute, "23 h 59 min"},
		{"days", 3*24*time.Hour + 4*time.Hour + 30*time.Minute, "3 j 4 h"},
		{"negative clamps", -time.Minute, "0 s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(base, base.Add(tt.span)))
		})
	}
}

func TestPoint_ElapsedAndOpenFor(t *testing.T) {
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	p := Point{CreatedAt: created}

	assert.Equal(t, "1 h 0 min", p.Elapsed(created.Add(time.Hour)))
	_, ok := p.OpenFor()
	assert.False(t, ok)

	resolved := created.Add(26 * time.Hour)
	p.DeletedAt = &resolved
	s, ok := p.OpenFor()
	assert.True(t, ok)
	assert.Equal(t, "1 j 2 h", s)
}
