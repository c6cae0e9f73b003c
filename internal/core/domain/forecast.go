package domain

import (
	"fmt"
	"math"
	"time"
)

const RecencyUnknown = "Unknown"

type ForecastResult struct {
	WeeksLeft int
	Recency   string
}

// Forecast estimates how many weeks the stock lasts at the item's weekly
// usage (1 when unset) and how long ago it was last touched, relative to now.
func Forecast(item Item, now time.Time) ForecastResult {
	usage := item.WeeklyUsage
	if usage <= 0 {
		usage = 1
	}

	quantity := item.Quantity
	if quantity < 0 {
		quantity = 0
	}

	return ForecastResult{
		WeeksLeft: int(math.Ceil(float64(quantity) / usage)),
		Recency:   recency(item.UpdatedAt, now),
	}
}

func recency(last, now time.Time) string {
	if last.IsZero() {
		return RecencyUnknown
	}

	elapsed := now.Sub(last)
	if elapsed < 0 {
		elapsed = 0
	}

	days := int(elapsed / (24 * time.Hour))
	if days > 0 {
		return fmt.Sprintf("%d day(s) ago", days)
	}
	return fmt.Sprintf("%d hour(s) ago", int(elapsed/time.Hour))
}
