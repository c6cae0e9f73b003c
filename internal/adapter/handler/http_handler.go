package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rl1809/stockroom/internal/core/service"
)

type HTTPHandler struct {
	inventory *service.InventoryService
	reports   *service.ReportService
	log       logrus.FieldLogger
	now       func() time.Time
}

type RouterOptions struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewHTTPHandler(inventory *service.InventoryService, reports *service.ReportService, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		reports:   reports,
		log:       log,
		now:       time.Now,
	}
}

// Router builds the gin engine. The returned limiter guards the mutating
// routes and must be stopped on shutdown.
func (h *HTTPHandler) Router(opts RouterOptions) (*gin.Engine, *RateLimiter) {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(requestLogger(h.log))
	r.Use(corsMiddleware(opts.AllowedOrigins))

	limit := rate.Inf
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
	}
	limiter := NewRateLimiter(limit, opts.RateLimitBurst)

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/items", h.ListItems)
		api.GET("/items/:barcode", h.GetItem)
		api.GET("/low-stock", h.ListLowStock)
		api.GET("/analytics", h.GetAnalytics)
		api.GET("/dashboard", h.GetDashboard)
		api.GET("/reports", h.GetReport)
		api.GET("/logs", h.ListLogs)

		writes := api.Group("")
		writes.Use(limiter.Middleware())
		{
			writes.POST("/items", h.AddItem)
			writes.PATCH("/items/:barcode", h.UpdateItem)
			writes.DELETE("/items/:barcode", h.DeleteItem)
		}
	}

	return r, limiter
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// POST /api/items
func (h *HTTPHandler) AddItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}
	if err := validateStruct(req); err != nil {
		validationErrorResponse(c, getValidationErrors(err))
		return
	}

	result, err := h.inventory.AddOrMerge(c.Request.Context(), req.toDomain())
	if err != nil {
		h.log.WithError(err).WithField("barcode", req.Barcode).Warn("add item failed")
		serviceErrorResponse(c, err)
		return
	}

	resp := AddItemResponse{Item: newItemResponse(result.Item.WithDefaults()), Created: result.Created}
	if result.Created {
		createdResponse(c, resp)
		return
	}
	successResponse(c, resp)
}

// PATCH /api/items/:barcode
func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}
	if err := validateStruct(req); err != nil {
		validationErrorResponse(c, getValidationErrors(err))
		return
	}

	patch := req.toPatch()
	if patch.IsEmpty() {
		badRequestResponse(c, "no fields to update")
		return
	}

	barcode := c.Param("barcode")
	if err := h.inventory.UpdateByBarcode(c.Request.Context(), barcode, patch); err != nil {
		h.log.WithError(err).WithField("barcode", barcode).Warn("update item failed")
		serviceErrorResponse(c, err)
		return
	}

	item, err := h.inventory.GetByBarcode(c.Request.Context(), barcode)
	if err != nil {
		// the update is committed, only the read-back failed
		successResponse(c, gin.H{"updated": true})
		return
	}
	successResponse(c, newItemResponse(item))
}

// DELETE /api/items/:barcode
func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	barcode := c.Param("barcode")

	deleted, err := h.inventory.DeleteByBarcode(c.Request.Context(), barcode)
	if err != nil {
		h.log.WithError(err).WithField("barcode", barcode).Warn("delete item failed")
		serviceErrorResponse(c, err)
		return
	}
	successResponse(c, DeleteItemResponse{Deleted: deleted})
}

// GET /api/items/:barcode
func (h *HTTPHandler) GetItem(c *gin.Context) {
	item, err := h.inventory.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}
	successResponse(c, newItemResponse(item))
}

// GET /api/items?search=
func (h *HTTPHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()

	if term := c.Query("search"); term != "" {
		successResponse(c, newItemResponses(h.inventory.Search(ctx, term)))
		return
	}
	successResponse(c, newItemResponses(h.inventory.ListAll(ctx)))
}

// GET /api/low-stock?threshold=
func (h *HTTPHandler) ListLowStock(c *gin.Context) {
	threshold, ok := intQuery(c, "threshold", -1)
	if !ok {
		return
	}
	successResponse(c, newItemResponses(h.inventory.ListLowStock(c.Request.Context(), threshold)))
}

func (h *HTTPHandler) GetAnalytics(c *gin.Context) {
	successResponse(c, newAnalyticsResponse(h.reports.Analytics(c.Request.Context())))
}

func (h *HTTPHandler) GetDashboard(c *gin.Context) {
	successResponse(c, newDashboardResponse(h.reports.Dashboard(c.Request.Context())))
}

func (h *HTTPHandler) GetReport(c *gin.Context) {
	successResponse(c, newReportResponse(h.reports.Report(c.Request.Context(), h.now())))
}

// GET /api/logs?limit=
func (h *HTTPHandler) ListLogs(c *gin.Context) {
	limit, ok := intQuery(c, "limit", service.DefaultActivityLimit)
	if !ok {
		return
	}
	successResponse(c, newLogEntryResponses(h.reports.RecentActivity(c.Request.Context(), limit)))
}

// intQuery reads an optional integer query parameter. On a malformed value
// it writes the error response and reports false.
func intQuery(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequestResponse(c, key+" must be an integer")
		return 0, false
	}
	return v, true
}
