// handlers_analysis.go - Statistics, QC, report and score handlers
package api

import (
	"net/http"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// AnalysisHandlerImpl implements the AnalysisHandler interface
type AnalysisHandlerImpl struct {
	sessions SessionDirectory
}

// NewAnalysisHandler creates a new analysis handler instance
func NewAnalysisHandler(sessions SessionDirectory) AnalysisHandler {
	return &AnalysisHandlerImpl{sessions: sessions}
}

type statisticsRequest struct {
	DataIDs []string `json:"dataIds,omitempty"`
	Method  string   `json:"method,omitempty"`
}

// HandleCalculateStatistics computes descriptive statistics over selected
// records and appends the result to the session's result log
func (h *AnalysisHandlerImpl) HandleCalculateStatistics(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var req statisticsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Method == "" {
		req.Method = "descriptive"
	}

	result, op := sess.CalculateStatistics(req.DataIDs, req.Method)
	if !op.IsValid {
		return NewStateError(op.Message)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleListStatistics returns every appended statistics result
func (h *AnalysisHandlerImpl) HandleListStatistics(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.StatisticsResults())
}

// HandleAddQC evaluates one quality-control check
func (h *AnalysisHandlerImpl) HandleAddQC(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var data models.QCData
	if err := c.Bind(&data); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if data.Type == "" {
		return NewValidationError("type")
	}

	return c.JSON(http.StatusCreated, sess.AddQCData(data))
}

// HandleListQC returns every appended QC result
func (h *AnalysisHandlerImpl) HandleListQC(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.QCResults())
}

type reportRequest struct {
	Template string `json:"template,omitempty"`
	Title    string `json:"title,omitempty"`
}

// HandleGenerateReport assembles the report from the current state,
// overwriting any previous report
func (h *AnalysisHandlerImpl) HandleGenerateReport(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Template == "" {
		req.Template = "standard"
	}

	return c.JSON(http.StatusCreated, sess.GenerateReport(req.Template, req.Title))
}

// HandleGetReport returns the current report, if one was generated
func (h *AnalysisHandlerImpl) HandleGetReport(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	report, ok := sess.Report()
	if !ok {
		return NewNotFoundError("report", c.Param("sessionId"))
	}
	return c.JSON(http.StatusOK, report)
}

// HandleGetScore derives the five-dimension score from the current state
func (h *AnalysisHandlerImpl) HandleGetScore(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.CalculateScore())
}

func (h *AnalysisHandlerImpl) resolve(c echo.Context) (*session.Session, error) {
	id := c.Param("sessionId")
	if id == "" {
		return nil, NewValidationError("sessionId")
	}
	sess, ok := h.sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return sess, nil
}
