// handlers_data.go - Measurement entry, review and anomaly detection handlers
package api

import (
	"net/http"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// DataHandlerImpl implements the DataHandler interface
type DataHandlerImpl struct {
	sessions SessionDirectory
}

// NewDataHandler creates a new data handler instance
func NewDataHandler(sessions SessionDirectory) DataHandler {
	return &DataHandlerImpl{sessions: sessions}
}

// addDataResponse pairs the stored record with its validation outcome.
type addDataResponse struct {
	Record     models.MonitoringDataRecord `json:"record"`
	Validation models.ValidationResult     `json:"validation"`
}

// HandleAddData validates and stores one measurement. Invalid records are
// stored too, flagged invalid; the response carries the validation verdict.
func (h *DataHandlerImpl) HandleAddData(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var input models.MonitoringDataRecord
	if err := c.Bind(&input); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	record, vr := sess.AddMonitoringData(input)
	return c.JSON(http.StatusCreated, addDataResponse{Record: record, Validation: vr})
}

// HandleListData returns records, optionally filtered by parameter,
// sampleType and status query params.
func (h *DataHandlerImpl) HandleListData(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	filter := models.DataFilter{
		Parameter:  c.QueryParam("parameter"),
		SampleType: c.QueryParam("sampleType"),
		Status:     models.RecordStatus(c.QueryParam("status")),
	}
	return c.JSON(http.StatusOK, sess.Data(filter))
}

// HandleGetData returns one record by id
func (h *DataHandlerImpl) HandleGetData(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	dataID := c.Param("dataId")
	record, ok := sess.Record(dataID)
	if !ok {
		return NewNotFoundError("record", dataID)
	}
	return c.JSON(http.StatusOK, record)
}

// HandleUpdateReview applies a review decision to a record
func (h *DataHandlerImpl) HandleUpdateReview(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var input session.ReviewInput
	if err := c.Bind(&input); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	review, result := sess.UpdateDataReview(c.Param("dataId"), input)
	if !result.IsValid {
		return NewStateError(result.Message)
	}
	return c.JSON(http.StatusOK, review)
}

// HandleGetReview returns the latest review decision for a record
func (h *DataHandlerImpl) HandleGetReview(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	dataID := c.Param("dataId")
	review, ok := sess.ReviewRecord(dataID)
	if !ok {
		return NewNotFoundError("review", dataID)
	}
	return c.JSON(http.StatusOK, review)
}

type detectRequest struct {
	Method string `json:"method"`
}

// HandleDetectAnomalies runs anomaly detection over the session's records
func (h *DataHandlerImpl) HandleDetectAnomalies(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var req detectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Method == "" {
		req.Method = "all"
	}

	results, result := sess.DetectAnomalies(req.Method)
	if !result.IsValid {
		return NewValidationError("method")
	}
	return c.JSON(http.StatusOK, results)
}

func (h *DataHandlerImpl) resolve(c echo.Context) (*session.Session, error) {
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
