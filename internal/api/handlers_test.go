package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/rules"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/envlab/monitor-trainer/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlers(t *testing.T) (*Handlers, *session.Manager) {
	t.Helper()
	mgr := testutil.NewTestManager()
	h := NewHandlers(&Dependencies{
		Sessions: mgr,
		Rules:    rules.DefaultRuleSet(),
		Version:  "test",
	})
	return h, mgr
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sessionContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, sessionID string) echo.Context {
	c := e.NewContext(req, rec)
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	return c
}

func TestSessionLifecycle(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandlers(t)

	// 1. Create a session
	req := jsonRequest(http.MethodPost, "/api/sessions", map[string]string{"sessionId": "s1"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Session.HandleCreateSession(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var summary session.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "s1", summary.ID)
	assert.Equal(t, models.PhaseDataEntry, summary.Phase)

	// 2. Get session status
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Session.HandleGetSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// 3. Delete it
	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Session.HandleDeleteSession(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// 4. Gone now
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	err := h.Session.HandleGetSession(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestGetUnknownSession(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
	rec := httptest.NewRecorder()
	c := sessionContext(e, req, rec, "nope")

	err := h.Session.HandleGetSession(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestPhaseEndpoints(t *testing.T) {
	e := echo.New()
	h, mgr := newTestHandlers(t)
	_, err := mgr.Create("s1")
	require.NoError(t, err)

	// Advance one step
	req := jsonRequest(http.MethodPost, "/api/sessions/s1/phase/next", nil)
	rec := httptest.NewRecorder()
	c := sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Session.HandleNextPhase(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(models.PhaseDataReview))

	// Skipping ahead is a 409
	req = jsonRequest(http.MethodPost, "/api/sessions/s1/phase", map[string]string{"phase": "report"})
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	err = h.Session.HandleSetPhase(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "STATE_ERROR", apiErr.Code)

	// Going back is fine
	req = jsonRequest(http.MethodPost, "/api/sessions/s1/phase", map[string]string{"phase": "data_entry"})
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Session.HandleSetPhase(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDataEndpoints(t *testing.T) {
	e := echo.New()
	h, mgr := newTestHandlers(t)
	_, err := mgr.Create("s1")
	require.NoError(t, err)

	// 1. Add a record
	req := jsonRequest(http.MethodPost, "/api/sessions/s1/data", testutil.ValidRecord())
	rec := httptest.NewRecorder()
	c := sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Data.HandleAddData(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var added struct {
		Record     models.MonitoringDataRecord `json:"record"`
		Validation models.ValidationResult     `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.True(t, added.Validation.IsValid)
	require.NotEmpty(t, added.Record.ID)

	// 2. List with a matching filter
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1/data?parameter=pH", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Data.HandleListData(c))
	var listed []models.MonitoringDataRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// 3. Review the record
	req = jsonRequest(http.MethodPut, "/api/sessions/s1/data/"+added.Record.ID+"/review", map[string]string{
		"decision": "accept",
		"reason":   "数据正常",
	})
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("sessionId", "dataId")
	c.SetParamValues("s1", added.Record.ID)
	require.NoError(t, h.Data.HandleUpdateReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decision":"accept"`)

	// 4. Review without a reason is a 409
	req = jsonRequest(http.MethodPut, "/api/sessions/s1/data/"+added.Record.ID+"/review", map[string]string{
		"decision": "accept",
	})
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("sessionId", "dataId")
	c.SetParamValues("s1", added.Record.ID)
	err = h.Data.HandleUpdateReview(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestDetectEndpoint(t *testing.T) {
	e := echo.New()
	h, mgr := newTestHandlers(t)
	sess, err := mgr.Create("s1")
	require.NoError(t, err)

	record := testutil.ValidRecord()
	record.Value = 12.0
	sess.AddMonitoringData(record)

	// Empty body defaults to running every detector
	req := jsonRequest(http.MethodPost, "/api/sessions/s1/detect", nil)
	rec := httptest.NewRecorder()
	c := sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Data.HandleDetectAnomalies(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAnomaly":true`)

	req = jsonRequest(http.MethodPost, "/api/sessions/s1/detect", map[string]string{"method": "fourier"})
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	err = h.Data.HandleDetectAnomalies(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestAnalysisEndpoints(t *testing.T) {
	e := echo.New()
	h, mgr := newTestHandlers(t)
	sess, err := mgr.Create("s1")
	require.NoError(t, err)
	sess.AddMonitoringData(testutil.ValidRecord())

	// Statistics with an empty body covers all non-rejected records
	req := jsonRequest(http.MethodPost, "/api/sessions/s1/statistics", nil)
	rec := httptest.NewRecorder()
	c := sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Analysis.HandleCalculateStatistics(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dataCount":1`)

	// QC check
	req = jsonRequest(http.MethodPost, "/api/sessions/s1/qc", map[string]interface{}{
		"type":           "blank",
		"blankValue":     0.01,
		"detectionLimit": 0.1,
	})
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Analysis.HandleAddQC(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"passed":true`)

	// Report is 404 until generated
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1/report", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	err = h.Analysis.HandleGetReport(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	req = jsonRequest(http.MethodPost, "/api/sessions/s1/report", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Analysis.HandleGenerateReport(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1/report", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Analysis.HandleGetReport(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Score reflects the work done so far
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1/score", nil)
	rec = httptest.NewRecorder()
	c = sessionContext(e, req, rec, "s1")
	require.NoError(t, h.Analysis.HandleGetScore(c))
	var score models.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, 20, score.Dimensions.DataEntry.Score)
	assert.Equal(t, 20, score.Dimensions.Statistics.Score)
	assert.Equal(t, 0, score.Dimensions.DataReview.Score)
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Health.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
