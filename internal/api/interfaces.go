// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// SessionHandler handles session lifecycle and phase operations
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSetPhase(c echo.Context) error
	HandleNextPhase(c echo.Context) error
	HandleGetHistory(c echo.Context) error
}

// DataHandler handles measurement entry, retrieval, review and detection
type DataHandler interface {
	HandleAddData(c echo.Context) error
	HandleListData(c echo.Context) error
	HandleGetData(c echo.Context) error
	HandleUpdateReview(c echo.Context) error
	HandleGetReview(c echo.Context) error
	HandleDetectAnomalies(c echo.Context) error
}

// AnalysisHandler handles statistics, QC, report and score operations
type AnalysisHandler interface {
	HandleCalculateStatistics(c echo.Context) error
	HandleListStatistics(c echo.Context) error
	HandleAddQC(c echo.Context) error
	HandleListQC(c echo.Context) error
	HandleGenerateReport(c echo.Context) error
	HandleGetReport(c echo.Context) error
	HandleGetScore(c echo.Context) error
}

// ExchangeHandler handles CSV/JSON import and export
type ExchangeHandler interface {
	HandleImportCSV(c echo.Context) error
	HandleImportJSON(c echo.Context) error
	HandleExportCSV(c echo.Context) error
	HandleExportJSON(c echo.Context) error
	HandleExportMsgpack(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionDirectory defines the session registry surface the handlers need.
// This allows mocking in tests.
type SessionDirectory interface {
	Create(id string) (*session.Session, error)
	Get(id string) (*session.Session, bool)
	Delete(id string) error
	Hub() *session.EventHub
}
