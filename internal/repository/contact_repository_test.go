package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBirthdayWindowBounds(t *testing.T) {
	today := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	from, to := BirthdayWindow(today)

	assert.Equal(t, "2024-06-01", from.Format("2006-01-02"))
	assert.Equal(t, "2024-06-08", to.Format("2006-01-02"))

	// 2024-06-05 sits inside the window, 2024-06-10 outside.
	in := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	out := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.False(t, in.Before(from) || in.After(to))
	assert.True(t, out.After(to))

	// Both endpoints are inclusive.
	assert.False(t, from.Before(from) || from.After(to))
	assert.False(t, to.Before(from) || to.After(to))
}

func TestBirthdayWindowCrossesMonthBoundary(t *testing.T) {
	from, to := BirthdayWindow(time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12-28", from.Format("2006-01-02"))
	assert.Equal(t, "2025-01-04", to.Format("2006-01-02"))
}
