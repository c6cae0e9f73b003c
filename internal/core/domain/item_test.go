package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBarcode(t *testing.T) {
	assert.Equal(t, "abc-123", NormalizeBarcode("  ABC-123\t"))
	assert.Equal(t, "", NormalizeBarcode("   "))
}

func TestLowStockPredicates(t *testing.T) {
	assert.True(t, IsLowStock(0))
	assert.True(t, IsLowStock(LowStockThreshold))
	assert.False(t, IsLowStock(LowStockThreshold+1))
	assert.True(t, IsOutOfStock(0))
	assert.False(t, IsOutOfStock(1))
}

func TestWithDefaults(t *testing.T) {
	item := Item{Name: "eggs"}.WithDefaults()
	assert.Equal(t, DefaultCategory, item.Category)
	assert.Equal(t, DefaultSupplier, item.Supplier)

	item = Item{Category: "Dairy", Supplier: "Farm Fresh"}.WithDefaults()
	assert.Equal(t, "Dairy", item.Category)
	assert.Equal(t, "Farm Fresh", item.Supplier)
}

func TestMatches(t *testing.T) {
	item := Item{Name: "Walkers Crisps", Category: "Snacks", Barcode: "501234"}

	assert.True(t, item.Matches(""))
	assert.True(t, item.Matches("crisp"))
	assert.True(t, item.Matches("SNACK"))
	assert.True(t, item.Matches("0123"))
	assert.False(t, item.Matches("dairy"))
}

func TestItemPatch_IsEmpty(t *testing.T) {
	assert.True(t, ItemPatch{}.IsEmpty())

	name := "x"
	assert.False(t, ItemPatch{Name: &name}.IsEmpty())
}
