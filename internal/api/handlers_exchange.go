// handlers_exchange.go - CSV/JSON import-export handlers
package api

import (
	"encoding/json"
	"net/http"

	"github.com/envlab/monitor-trainer/backend/internal/exchange"
	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// ExchangeHandlerImpl implements the ExchangeHandler interface
type ExchangeHandlerImpl struct {
	sessions SessionDirectory
	rules    *models.RuleSet
}

// NewExchangeHandler creates a new exchange handler instance
func NewExchangeHandler(sessions SessionDirectory, rules *models.RuleSet) ExchangeHandler {
	return &ExchangeHandlerImpl{sessions: sessions, rules: rules}
}

type importCSVRequest struct {
	Text          string            `json:"text"`
	Delimiter     string            `json:"delimiter,omitempty"`
	HasHeader     *bool             `json:"hasHeader,omitempty"`
	ColumnMapping map[string]string `json:"columnMapping,omitempty"`
}

// importResponse reports how many rows were imported and which were skipped.
type importResponse struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Errors   []exchange.RowError `json:"errors,omitempty"`
}

// HandleImportCSV parses CSV text, validates each row and adds the valid
// rows to the session. A bad row never blocks the rest of the batch.
func (h *ExchangeHandlerImpl) HandleImportCSV(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var req importCSVRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Text == "" {
		return NewValidationError("text")
	}

	opts := exchange.CSVOptions{
		HasHeader:     true,
		ColumnMapping: req.ColumnMapping,
	}
	if req.HasHeader != nil {
		opts.HasHeader = *req.HasHeader
	}
	if req.Delimiter != "" {
		opts.Delimiter = []rune(req.Delimiter)[0]
	}

	records := exchange.ParseCSVText(req.Text, opts)
	return c.JSON(http.StatusOK, h.importRecords(sess, records))
}

// HandleImportJSON imports a JSON array of exchange records
func (h *ExchangeHandlerImpl) HandleImportJSON(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var body struct {
		Records json.RawMessage `json:"records"`
	}
	if err := c.Bind(&body); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if len(body.Records) == 0 {
		return NewValidationError("records")
	}

	records, err := exchange.ImportJSON(body.Records)
	if err != nil {
		return NewBadRequestError("invalid records payload", err)
	}
	return c.JSON(http.StatusOK, h.importRecords(sess, records))
}

// importRecords validates a batch and adds the valid rows, collecting
// per-row errors for the skipped ones.
func (h *ExchangeHandlerImpl) importRecords(sess *session.Session, records []models.MonitoringDataRecord) importResponse {
	validation := exchange.ValidateImportData(records, h.rules)

	resp := importResponse{
		Skipped: validation.InvalidRows,
		Errors:  validation.Errors,
	}

	invalid := make(map[int]bool, len(validation.Errors))
	for _, e := range validation.Errors {
		invalid[e.Row] = true
	}
	for i, r := range records {
		if invalid[i+1] {
			continue
		}
		sess.AddMonitoringData(r)
		resp.Imported++
	}
	return resp
}

// HandleExportCSV renders the session's records as CSV text
func (h *ExchangeHandlerImpl) HandleExportCSV(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	opts := exchange.CSVOptions{
		HasHeader:         true,
		UseChineseHeaders: c.QueryParam("lang") != "en",
	}
	text := exchange.ExportCSV(sess.Data(models.DataFilter{}), opts)

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="monitoring_data.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(text))
}

// HandleExportJSON renders the records as the public JSON exchange array
func (h *ExchangeHandlerImpl) HandleExportJSON(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	data, err := exchange.ExportJSON(sess.Data(models.DataFilter{}))
	if err != nil {
		return NewInternalError("failed to encode records", err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// HandleExportMsgpack renders the records as a msgpack blob for clients that
// prefer the compact binary form
func (h *ExchangeHandlerImpl) HandleExportMsgpack(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	records := sess.Data(models.DataFilter{})
	data, err := msgpack.Marshal(map[string]interface{}{
		"records": records,
		"total":   len(records),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *ExchangeHandlerImpl) resolve(c echo.Context) (*session.Session, error) {
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
