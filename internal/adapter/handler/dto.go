package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

// Request and response bodies shared by the HTTP and gRPC surfaces.

type ItemRequest struct {
	Barcode     string           `json:"barcode" validate:"required,max=128"`
	Name        string           `json:"name" validate:"required,max=255"`
	Category    string           `json:"category,omitempty" validate:"max=128"`
	Supplier    string           `json:"supplier,omitempty" validate:"max=128"`
	Quantity    int              `json:"quantity" validate:"gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	WeeklyUsage float64          `json:"weekly_usage,omitempty" validate:"gte=0"`
}

func (r ItemRequest) toDomain() domain.Item {
	return domain.Item{
		Barcode:     r.Barcode,
		Name:        r.Name,
		Category:    r.Category,
		Supplier:    r.Supplier,
		Quantity:    r.Quantity,
		Price:       nullDecimal(r.Price),
		CostPrice:   nullDecimal(r.CostPrice),
		WeeklyUsage: r.WeeklyUsage,
	}
}

type UpdateItemRequest struct {
	Barcode     string           `json:"barcode,omitempty"` // gRPC only, HTTP takes it from the path
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=128"`
	Supplier    *string          `json:"supplier,omitempty" validate:"omitempty,max=128"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	WeeklyUsage *float64         `json:"weekly_usage,omitempty" validate:"omitempty,gte=0"`
}

func (r UpdateItemRequest) toPatch() domain.ItemPatch {
	return domain.ItemPatch{
		Name:        r.Name,
		Category:    r.Category,
		Supplier:    r.Supplier,
		Quantity:    r.Quantity,
		Price:       r.Price,
		CostPrice:   r.CostPrice,
		WeeklyUsage: r.WeeklyUsage,
	}
}

type ItemResponse struct {
	ID          string           `json:"id"`
	Barcode     string           `json:"barcode"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Supplier    string           `json:"supplier"`
	Quantity    int              `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	WeeklyUsage float64          `json:"weekly_usage,omitempty"`
	Status      string           `json:"status"`
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func newItemResponse(item domain.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Barcode:     item.Barcode,
		Name:        item.Name,
		Category:    item.Category,
		Supplier:    item.Supplier,
		Quantity:    item.Quantity,
		Price:       decimalPtr(item.Price),
		CostPrice:   decimalPtr(item.CostPrice),
		WeeklyUsage: item.WeeklyUsage,
		Status:      string(domain.StatusOf(item.Quantity)),
		Version:     item.Version,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func newItemResponses(items []domain.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newItemResponse(item))
	}
	return out
}

type AddItemResponse struct {
	Item    ItemResponse `json:"item"`
	Created bool         `json:"created"`
}

type BarcodeRequest struct {
	Barcode string `json:"barcode"`
}

type DeleteItemResponse struct {
	Deleted bool `json:"deleted"`
}

type LowStockRequest struct {
	Threshold *int `json:"threshold,omitempty"`
}

type ItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

type AnalyticsResponse struct {
	TotalItems int            `json:"total_items"`
	TotalStock int            `json:"total_stock"`
	Categories map[string]int `json:"categories"`
}

func newAnalyticsResponse(snap domain.Snapshot) AnalyticsResponse {
	return AnalyticsResponse{
		TotalItems: snap.TotalItems,
		TotalStock: snap.TotalStock,
		Categories: snap.Categories,
	}
}

type StockLevelResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

type DashboardResponse struct {
	TotalProducts int                  `json:"total_products"`
	LowStock      int                  `json:"low_stock"`
	OutOfStock    int                  `json:"out_of_stock"`
	Suppliers     int                  `json:"suppliers"`
	StockValue    decimal.Decimal      `json:"stock_value"`
	Levels        []StockLevelResponse `json:"stock_levels"`
}

func newDashboardResponse(m domain.DashboardMetrics) DashboardResponse {
	levels := make([]StockLevelResponse, 0, len(m.Levels))
	for _, l := range m.Levels {
		levels = append(levels, StockLevelResponse{
			Name:     l.Name,
			Category: l.Category,
			Quantity: l.Quantity,
			Status:   string(l.Status),
		})
	}
	return DashboardResponse{
		TotalProducts: m.TotalProducts,
		LowStock:      m.LowStock,
		OutOfStock:    m.OutOfStock,
		Suppliers:     m.Suppliers,
		StockValue:    m.StockValue,
		Levels:        levels,
	}
}

type ForecastResponse struct {
	Item        ItemResponse `json:"item"`
	WeeksLeft   int          `json:"weeks_left"`
	LastUpdated string       `json:"last_updated"`
}

type ReportResponse struct {
	Analytics AnalyticsResponse  `json:"analytics"`
	LowStock  []ForecastResponse `json:"low_stock"`
}

func newReportResponse(r service.Report) ReportResponse {
	low := make([]ForecastResponse, 0, len(r.LowStock))
	for _, f := range r.LowStock {
		low = append(low, ForecastResponse{
			Item:        newItemResponse(f.Item),
			WeeksLeft:   f.Forecast.WeeksLeft,
			LastUpdated: f.Forecast.Recency,
		})
	}
	return ReportResponse{
		Analytics: newAnalyticsResponse(r.Analytics),
		LowStock:  low,
	}
}

type LogEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ItemName  string    `json:"item_name"`
	Timestamp time.Time `json:"timestamp"`
}

func newLogEntryResponses(entries []domain.LogEntry) []LogEntryResponse {
	out := make([]LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LogEntryResponse{
			ID:        e.ID,
			Action:    string(e.Action),
			ItemName:  e.ItemName,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
