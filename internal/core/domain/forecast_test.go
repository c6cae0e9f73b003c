package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForecast_ZeroUsageTreatedAsOne(t *testing.T) {
	result := Forecast(Item{Quantity: 10, WeeklyUsage: 0}, time.Now())
	assert.Equal(t, 10, result.WeeksLeft)
}

func TestForecast_ZeroQuantity(t *testing.T) {
	result := Forecast(Item{}, time.Now())
	assert.Equal(t, 0, result.WeeksLeft)
	assert.Equal(t, RecencyUnknown, result.Recency)
}

func TestForecast_RoundsWeeksUp(t *testing.T) {
	result := Forecast(Item{Quantity: 7, WeeklyUsage: 2}, time.Now())
	assert.Equal(t, 4, result.WeeksLeft)

	result = Forecast(Item{Quantity: 5, WeeklyUsage: 2.5}, time.Now())
	assert.Equal(t, 2, result.WeeksLeft)
}

func TestForecast_Recency(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"ninety seconds", 90 * time.Second, "0 hour(s) ago"},
		{"three hours", 3*time.Hour + 59*time.Minute, "3 hour(s) ago"},
		{"twenty six hours", 26 * time.Hour, "1 day(s) ago"},
		{"ten days", 10*24*time.Hour + 5*time.Hour, "10 day(s) ago"},
		{"future timestamp", -2 * time.Hour, "0 hour(s) ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Forecast(Item{Quantity: 1, UpdatedAt: now.Add(-tt.elapsed)}, now)
			assert.Equal(t, tt.want, result.Recency)
		})
	}
}
