package domain

import "github.com/shopspring/decimal"

type Snapshot struct {
	TotalItems int
	TotalStock int
	Categories map[string]int
}

// Summarize scans items once. Items without a category are counted in the
// totals but left out of the category breakdown.
func Summarize(items []Item) Snapshot {
	snap := Snapshot{Categories: make(map[string]int)}

	for _, item := range items {
		snap.TotalItems++
		snap.TotalStock += item.Quantity
		if item.Category != "" {
			snap.Categories[item.Category]++
		}
	}

	return snap
}

type StockLevel struct {
	Name     string
	Category string
	Quantity int
	Status   StockStatus
}

type DashboardMetrics struct {
	TotalProducts int
	LowStock      int
	OutOfStock    int
	Suppliers     int
	StockValue    decimal.Decimal
	Levels        []StockLevel
}

// Dashboard derives the headline numbers from items that already carry
// their listing defaults.
func Dashboard(items []Item) DashboardMetrics {
	m := DashboardMetrics{
		StockValue: decimal.Zero,
		Levels:     make([]StockLevel, 0, len(items)),
	}
	suppliers := make(map[string]struct{})

	for _, item := range items {
		m.TotalProducts++
		if IsLowStock(item.Quantity) {
			m.LowStock++
		}
		if IsOutOfStock(item.Quantity) {
			m.OutOfStock++
		}
		suppliers[item.Supplier] = struct{}{}
		m.StockValue = m.StockValue.Add(item.StockValue())
		m.Levels = append(m.Levels, StockLevel{
			Name:     item.Name,
			Category: item.Category,
			Quantity: item.Quantity,
			Status:   StatusOf(item.Quantity),
		})
	}
	m.Suppliers = len(suppliers)

	return m
}
