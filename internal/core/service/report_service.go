package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const DefaultActivityLimit = 50

type ForecastedItem struct {
	Item     domain.Item
	Forecast domain.ForecastResult
}

type Report struct {
	Analytics domain.Snapshot
	LowStock  []ForecastedItem
}

// ReportService builds the read-only views: analytics, dashboard, the
// low-stock report and recent activity. Every method degrades to an empty
// result instead of failing.
type ReportService struct {
	items     port.ItemRepository
	logs      port.LogRepository
	inventory *InventoryService
	log       logrus.FieldLogger
}

func NewReportService(items port.ItemRepository, logs port.LogRepository, inventory *InventoryService, log logrus.FieldLogger) *ReportService {
	return &ReportService{
		items:     items,
		logs:      logs,
		inventory: inventory,
		log:       log,
	}
}

// Analytics summarizes the items as stored, so uncategorized items stay
// out of the category breakdown.
func (s *ReportService) Analytics(ctx context.Context) domain.Snapshot {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		s.log.WithError(err).Error("analytics scan failed")
		return domain.Summarize(nil)
	}

	snap := domain.Summarize(items)
	s.log.WithFields(logrus.Fields{
		"total_items": snap.TotalItems,
		"total_stock": snap.TotalStock,
		"categories":  len(snap.Categories),
	}).Debug("analytics computed")
	return snap
}

func (s *ReportService) Dashboard(ctx context.Context) domain.DashboardMetrics {
	return domain.Dashboard(s.inventory.ListAll(ctx))
}

func (s *ReportService) Report(ctx context.Context, now time.Time) Report {
	low := s.inventory.ListLowStock(ctx, domain.LowStockThreshold)

	forecasted := make([]ForecastedItem, 0, len(low))
	for _, item := range low {
		forecasted = append(forecasted, ForecastedItem{
			Item:     item,
			Forecast: domain.Forecast(item, now),
		})
	}

	return Report{
		Analytics: s.Analytics(ctx),
		LowStock:  forecasted,
	}
}

func (s *ReportService) RecentActivity(ctx context.Context, limit int) []domain.LogEntry {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	entries, err := s.logs.ListLogs(ctx, limit)
	if err != nil {
		s.log.WithError(err).Error("list audit logs failed")
		return []domain.LogEntry{}
	}
	return entries
}
