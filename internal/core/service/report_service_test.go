package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/stockroom/internal/core/domain"
)

func newTestReportService(store *mockStore) *ReportService {
	logger, _ := logtest.NewNullLogger()
	inventory := NewInventoryService(store, NewAuditLogger(store, logger, 0), logger, 0)
	return NewReportService(store, store, inventory, logger)
}

func TestAnalytics_SkipsMissingCategory(t *testing.T) {
	store := newMockStore()
	store.seed(domain.Item{Barcode: "a", Category: "Drinks", Quantity: 2})
	store.seed(domain.Item{Barcode: "b", Category: "Drinks"})
	store.seed(domain.Item{Barcode: "c", Quantity: 4})
	svc := newTestReportService(store)

	snap := svc.Analytics(context.Background())

	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, 6, snap.TotalStock)
	assert.Equal(t, map[string]int{"Drinks": 2}, snap.Categories)
}

func TestAnalytics_StorageErrorReturnsZero(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("unreachable")
	svc := newTestReportService(store)

	snap := svc.Analytics(context.Background())

	assert.Zero(t, snap.TotalItems)
	assert.Zero(t, snap.TotalStock)
	assert.NotNil(t, snap.Categories)
}

func TestDashboardMetrics(t *testing.T) {
	store := newMockStore()
	store.seed(domain.Item{Barcode: "a", Name: "Milk", Supplier: "Local Farm", Quantity: 20,
		Price: decimal.NewNullDecimal(decimal.RequireFromString("2.00"))})
	store.seed(domain.Item{Barcode: "b", Name: "Potatoes", Supplier: "Local Farm", Quantity: 0})
	store.seed(domain.Item{Barcode: "c", Name: "Peas", Quantity: 4,
		Price: decimal.NewNullDecimal(decimal.RequireFromString("2.50"))})
	svc := newTestReportService(store)

	m := svc.Dashboard(context.Background())

	assert.Equal(t, 3, m.TotalProducts)
	assert.Equal(t, 2, m.LowStock)
	assert.Equal(t, 1, m.OutOfStock)
	assert.Equal(t, 2, m.Suppliers, "missing supplier counts as Unknown")
	assert.True(t, m.StockValue.Equal(decimal.NewFromInt(50)), "got %s", m.StockValue)
}

func TestReport_ForecastsLowStock(t *testing.T) {
	store := newMockStore()
	store.seed(domain.Item{Barcode: "a", Name: "Lasagna", Category: "Frozen", Quantity: 4, WeeklyUsage: 3})
	store.seed(domain.Item{Barcode: "b", Name: "Bananas", Category: "Produce", Quantity: 25})
	svc := newTestReportService(store)

	report := svc.Report(context.Background(), time.Now().Add(26*time.Hour))

	assert.Equal(t, 2, report.Analytics.TotalItems)
	require.Len(t, report.LowStock, 1)
	assert.Equal(t, "Lasagna", report.LowStock[0].Item.Name)
	assert.Equal(t, 2, report.LowStock[0].Forecast.WeeksLeft)
	assert.Equal(t, "1 day(s) ago", report.LowStock[0].Forecast.Recency)
}

func TestRecentActivity(t *testing.T) {
	store := newMockStore()
	svc := newTestReportService(store)
	ctx := context.Background()

	_, err := svc.inventory.AddOrMerge(ctx, domain.Item{Barcode: "x", Name: "Eggs", Quantity: 12})
	require.NoError(t, err)
	_, err = svc.inventory.DeleteByBarcode(ctx, "x")
	require.NoError(t, err)

	entries := svc.RecentActivity(ctx, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.LogActionDeleted, entries[0].Action)
	assert.Equal(t, domain.LogActionAdded, entries[1].Action)
	assert.Equal(t, "Eggs", entries[1].ItemName)

	assert.Len(t, svc.RecentActivity(ctx, 1), 1)

	store.logErr = errors.New("offline")
	assert.Empty(t, svc.RecentActivity(ctx, 10))
}
