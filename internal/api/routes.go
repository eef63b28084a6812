// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions SessionDirectory
	Rules    *models.RuleSet
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Session  SessionHandler
	Data     DataHandler
	Analysis AnalysisHandler
	Exchange ExchangeHandler
	Events   *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Session:  NewSessionHandler(deps.Sessions),
		Data:     NewDataHandler(deps.Sessions),
		Analysis: NewAnalysisHandler(deps.Sessions),
		Exchange: NewExchangeHandler(deps.Sessions, deps.Rules),
		Events:   NewWebSocketHandler(deps.Sessions),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	// Health check
	e.GET("/api/health", h.Health.HandleHealth)

	// Session event stream
	e.GET("/api/ws/sessions/:sessionId", h.Events.HandleSessionEvents)

	// Session lifecycle and phase machine
	sessions := e.Group("/api/sessions")
	sessions.POST("", h.Session.HandleCreateSession)
	sessions.GET("/:sessionId", h.Session.HandleGetSession)
	sessions.DELETE("/:sessionId", h.Session.HandleDeleteSession)
	sessions.POST("/:sessionId/phase", h.Session.HandleSetPhase)
	sessions.POST("/:sessionId/phase/next", h.Session.HandleNextPhase)
	sessions.GET("/:sessionId/history", h.Session.HandleGetHistory)

	// Data entry and review
	sessions.POST("/:sessionId/data", h.Data.HandleAddData)
	sessions.GET("/:sessionId/data", h.Data.HandleListData)
	sessions.GET("/:sessionId/data/:dataId", h.Data.HandleGetData)
	sessions.PUT("/:sessionId/data/:dataId/review", h.Data.HandleUpdateReview)
	sessions.GET("/:sessionId/data/:dataId/review", h.Data.HandleGetReview)
	sessions.POST("/:sessionId/detect", h.Data.HandleDetectAnomalies)

	// Analysis
	sessions.POST("/:sessionId/statistics", h.Analysis.HandleCalculateStatistics)
	sessions.GET("/:sessionId/statistics", h.Analysis.HandleListStatistics)
	sessions.POST("/:sessionId/qc", h.Analysis.HandleAddQC)
	sessions.GET("/:sessionId/qc", h.Analysis.HandleListQC)
	sessions.POST("/:sessionId/report", h.Analysis.HandleGenerateReport)
	sessions.GET("/:sessionId/report", h.Analysis.HandleGetReport)
	sessions.GET("/:sessionId/score", h.Analysis.HandleGetScore)

	// Import / export
	sessions.POST("/:sessionId/import/csv", h.Exchange.HandleImportCSV)
	sessions.POST("/:sessionId/import/json", h.Exchange.HandleImportJSON)
	sessions.GET("/:sessionId/export/csv", h.Exchange.HandleExportCSV)
	sessions.GET("/:sessionId/export/json", h.Exchange.HandleExportJSON)
	sessions.GET("/:sessionId/data/msgpack", h.Exchange.HandleExportMsgpack)
}
