package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// LowStockThreshold is the quantity at or below which an item counts as low stock.
	LowStockThreshold = 5

	DefaultCategory = "Uncategorized"
	DefaultSupplier = "Unknown"
)

type StockStatus string

const (
	StockStatusOut StockStatus = "Out of Stock"
	StockStatusLow StockStatus = "Low Stock"
	StockStatusOK  StockStatus = "In Stock"
)

type Item struct {
	ID          string
	Barcode     string
	Name        string
	Category    string
	Supplier    string
	Quantity    int
	Price       decimal.NullDecimal
	CostPrice   decimal.NullDecimal
	WeeklyUsage float64
	Version     int // optimistic locking
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemPatch carries the fields of a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name        *string
	Category    *string
	Supplier    *string
	Quantity    *int
	Price       *decimal.Decimal
	CostPrice   *decimal.Decimal
	WeeklyUsage *float64
}

func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Supplier == nil && p.Quantity == nil &&
		p.Price == nil && p.CostPrice == nil && p.WeeklyUsage == nil
}

// NormalizeBarcode trims and lowercases a barcode into its lookup form.
func NormalizeBarcode(barcode string) string {
	return strings.ToLower(strings.TrimSpace(barcode))
}

func IsLowStock(quantity int) bool {
	return quantity <= LowStockThreshold
}

func IsOutOfStock(quantity int) bool {
	return quantity == 0
}

func StatusOf(quantity int) StockStatus {
	switch {
	case IsOutOfStock(quantity):
		return StockStatusOut
	case IsLowStock(quantity):
		return StockStatusLow
	default:
		return StockStatusOK
	}
}

// WithDefaults returns a copy with the listing fallbacks applied to missing
// category and supplier.
func (i Item) WithDefaults() Item {
	if i.Category == "" {
		i.Category = DefaultCategory
	}
	if i.Supplier == "" {
		i.Supplier = DefaultSupplier
	}
	return i
}

// StockValue is price times quantity, zero when the item has no sale price.
func (i Item) StockValue() decimal.Decimal {
	if !i.Price.Valid {
		return decimal.Zero
	}
	return i.Price.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Matches reports whether term occurs, case-insensitively, in the name,
// category or barcode. An empty term matches everything.
func (i Item) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Name), term) ||
		strings.Contains(strings.ToLower(i.Category), term) ||
		strings.Contains(strings.ToLower(i.Barcode), term)
}
