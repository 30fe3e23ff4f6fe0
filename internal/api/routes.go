// routes.go - Route registration
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Routes bundles what RegisterRoutes mounts.
type Routes struct {
	Handler     *Handler
	Hub         *Hub
	Metrics     http.Handler // nil disables the endpoint
	MetricsPath string
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, r Routes) {
	h := r.Handler
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", h.HandleHealth)

	// Dataset uploads
	apiGroup.GET("/datasets", h.HandleListDatasets)
	apiGroup.POST("/datasets/:kind", h.HandleUploadDataset)
	apiGroup.DELETE("/datasets/:kind/:id", h.HandleDeleteDataset)

	// Loading
	apiGroup.POST("/load", h.HandleStartLoad)
	apiGroup.GET("/load/status", h.HandleLoadStatus)

	// Filters
	filters := apiGroup.Group("/filters")
	filters.GET("", h.HandleGetFilters)
	filters.DELETE("", h.HandleResetFilters)
	filters.PUT("/carrier", h.HandleSelectCarrier)
	filters.DELETE("/carrier", h.HandleClearCarrier)
	filters.PUT("/truck-type", h.HandleSetTruckType)
	filters.PUT("/range", h.HandleSetDateRange)
	filters.POST("/range/preset", h.HandleApplyPreset)

	// Raw and filtered rows
	apiGroup.GET("/carriers", h.HandleCarriers)
	apiGroup.GET("/quotes", h.HandleQuotes)
	apiGroup.GET("/deliveries", h.HandleDeliveries)

	// Scorecards
	sc := apiGroup.Group("/scorecard")
	sc.GET("", h.HandleScorecard)
	sc.GET("/filtered", h.HandleFilteredScorecard)
	sc.GET("/ltl", h.HandleLTLScorecard)
	sc.GET("/tl", h.HandleTLScorecard)
	sc.GET("/leaderboard", h.HandleLeaderboard)

	// Chart series
	series := apiGroup.Group("/series")
	series.GET("/cost", h.HandleCostSeries)
	series.GET("/service", h.HandleServiceSeries)
	series.GET("/shipments", h.HandleShipmentsSeries)
	series.GET("/weight", h.HandleWeightSeries)
	series.GET("/msgpack", h.HandleSnapshotMsgpack)

	apiGroup.GET("/export/scorecard.xlsx", h.HandleExportScorecard)

	if r.Hub != nil {
		apiGroup.GET("/ws", r.Hub.HandleWebSocket)
	}

	if r.Metrics != nil {
		path := r.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(r.Metrics))
	}
}
