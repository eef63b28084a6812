// Package session owns the mutable state of the data-processing workflow:
// the ProcessingSession orchestrator with its phase state machine and
// operation history, and the Manager that registers sessions per id.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/engine"
	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/storage"
	"github.com/google/uuid"
)

// OpResult reports the outcome of a session operation that can fail for
// expected reasons. Expected failures never surface as errors.
type OpResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

func opOK() OpResult { return OpResult{IsValid: true} }

func opFail(format string, args ...interface{}) OpResult {
	return OpResult{IsValid: false, Message: fmt.Sprintf(format, args...)}
}

// ReviewInput carries a trainee's review decision for one record.
type ReviewInput struct {
	ReviewerID     string                `json:"reviewerId,omitempty"`
	Decision       models.ReviewDecision `json:"decision"`
	ModifiedValue  *float64              `json:"modifiedValue,omitempty"`
	Reason         string                `json:"reason"`
	IsAnomaly      bool                  `json:"isAnomaly,omitempty"`
	AnomalyType    string                `json:"anomalyType,omitempty"`
	ReferenceRange string                `json:"referenceRange,omitempty"`
}

// Summary is the lightweight session view returned by status endpoints.
type Summary struct {
	ID             string       `json:"id"`
	Phase          models.Phase `json:"phase"`
	RecordCount    int          `json:"recordCount"`
	ReviewedCount  int          `json:"reviewedCount"`
	StatisticsRuns int          `json:"statisticsRuns"`
	QCCount        int          `json:"qcCount"`
	HasReport      bool         `json:"hasReport"`
	StartTime      time.Time    `json:"startTime"`
	ElapsedTime    int64        `json:"elapsedTime"`
}

// Session is one trainee's processing session. All mutation goes through its
// methods; each method serializes access with the session mutex so a session
// exposed over the network is safe against concurrent requests.
type Session struct {
	ID string

	mu           sync.Mutex
	state        *models.SessionState
	history      []models.OperationRecord
	lastAccessed time.Time

	validator *engine.Validator
	detector  *engine.AnomalyDetector
	stats     *engine.StatisticsEngine
	qc        *engine.QualityControlEngine
	reporter  *engine.ReportGenerator
	scorer    *engine.ScoreEngine

	store storage.StateStore // nil disables persistence
	hub   *EventHub          // nil disables events
}

// NewSession creates an empty session positioned at data entry.
func NewSession(id string, rules *models.RuleSet, store storage.StateStore, hub *EventHub) *Session {
	return &Session{
		ID:           id,
		state:        models.NewSessionState(),
		history:      make([]models.OperationRecord, 0),
		lastAccessed: time.Now(),
		validator:    engine.NewValidator(rules),
		detector:     engine.NewAnomalyDetector(rules),
		stats:        engine.NewStatisticsEngine(),
		qc:           engine.NewQualityControlEngine(),
		reporter:     engine.NewReportGenerator(),
		scorer:       engine.NewScoreEngine(),
		store:        store,
		hub:          hub,
	}
}

// restore replaces the session state with a previously persisted document.
func (s *Session) restore(doc *models.PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = doc.State
	if s.state.ReviewedData == nil {
		s.state.ReviewedData = make(map[string]models.ReviewedDataRecord)
	}
	if s.state.MonitoringData == nil {
		s.state.MonitoringData = make([]models.MonitoringDataRecord, 0)
	}
	s.history = doc.OperationHistory
	if s.history == nil {
		s.history = make([]models.OperationRecord, 0)
	}
}

// AddMonitoringData validates and stores one measurement. The record is
// stored regardless of validity; the validation outcome is attached to it.
func (s *Session) AddMonitoringData(input models.MonitoringDataRecord) (models.MonitoringDataRecord, models.ValidationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := input
	record.ID = uuid.New().String()
	record.Status = models.StatusPending
	record.CreatedAt = time.Now()

	vr := s.validator.ValidateRecord(&record)
	record.IsValid = vr.IsValid
	record.ValidationMessage = vr.Message

	s.state.MonitoringData = append(s.state.MonitoringData, record)
	s.appendHistory("addMonitoringData", "monitoring_data", record.ID, "",
		fmt.Sprintf("%s=%g", record.Parameter, record.Value),
		fmt.Sprintf("added sample %s", record.SampleID))

	s.persistLocked()
	s.publish(EventDataAdded, record)
	return record, vr
}

// Data returns the records matching the filter, in insertion order.
func (s *Session) Data(filter models.DataFilter) []models.MonitoringDataRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MonitoringDataRecord, 0, len(s.state.MonitoringData))
	for _, r := range s.state.MonitoringData {
		if filter.Matches(&r) {
			out = append(out, r)
		}
	}
	return out
}

// Record returns one record by id.
func (s *Session) Record(dataID string) (models.MonitoringDataRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.state.MonitoringData {
		if r.ID == dataID {
			return r, true
		}
	}
	return models.MonitoringDataRecord{}, false
}

// ReviewRecord returns the latest review decision for a record.
func (s *Session) ReviewRecord(dataID string) (models.ReviewedDataRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rr, ok := s.state.ReviewedData[dataID]
	return rr, ok
}

// UpdateDataReview applies a review decision to a record: accept approves it,
// reject rejects it, modify overwrites the live value and marks it reviewed.
// The latest decision overwrites any earlier one for the same record.
func (s *Session) UpdateDataReview(dataID string, input ReviewInput) (models.ReviewedDataRecord, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.state.MonitoringData {
		if s.state.MonitoringData[i].ID == dataID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ReviewedDataRecord{}, opFail("record not found: %s", dataID)
	}
	if input.Reason == "" {
		return models.ReviewedDataRecord{}, opFail("review reason must not be empty")
	}

	record := &s.state.MonitoringData[idx]
	prevStatus := record.Status
	prevValue := record.Value

	review := models.ReviewedDataRecord{
		DataID:         dataID,
		ReviewerID:     input.ReviewerID,
		ReviewDate:     time.Now(),
		OriginalValue:  record.Value,
		IsAnomaly:      input.IsAnomaly,
		AnomalyType:    input.AnomalyType,
		Decision:       input.Decision,
		Reason:         input.Reason,
		ReferenceRange: input.ReferenceRange,
	}

	switch input.Decision {
	case models.DecisionAccept:
		record.Status = models.StatusApproved
	case models.DecisionReject:
		record.Status = models.StatusRejected
	case models.DecisionModify:
		if input.ModifiedValue == nil {
			return models.ReviewedDataRecord{}, opFail("modify decision requires modifiedValue")
		}
		review.ModifiedValue = input.ModifiedValue
		record.Value = *input.ModifiedValue
		record.Status = models.StatusReviewed
	default:
		return models.ReviewedDataRecord{}, opFail("unknown review decision %q", input.Decision)
	}

	s.state.ReviewedData[dataID] = review
	s.appendHistory("updateDataReview", "monitoring_data", dataID,
		fmt.Sprintf("status=%s value=%g", prevStatus, prevValue),
		fmt.Sprintf("status=%s value=%g", record.Status, record.Value),
		fmt.Sprintf("review decision %s", input.Decision))

	s.persistLocked()
	s.publish(EventReviewUpdated, review)
	return review, opOK()
}

// DetectAnomalies runs the detector over all stored records. Results are
// kept on the state for the review phase but detection itself mutates no
// record.
func (s *Session) DetectAnomalies(method string) ([]models.AnomalyResult, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch method {
	case engine.MethodRange, engine.MethodIQR, engine.MethodZScore, engine.MethodAll:
	default:
		return nil, opFail("unknown detection method %q", method)
	}

	results := s.detector.Detect(s.state.MonitoringData, method)
	s.state.AnomalyResults = results
	return results, opOK()
}

// CalculateStatistics computes descriptive statistics over the selected
// records: the explicit id list when given, otherwise every non-rejected
// record. The result is appended to the session's result log.
func (s *Session) CalculateStatistics(dataIDs []string, method string) (models.StatisticsResult, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selected []models.MonitoringDataRecord
	if len(dataIDs) > 0 {
		wanted := make(map[string]struct{}, len(dataIDs))
		for _, id := range dataIDs {
			wanted[id] = struct{}{}
		}
		for _, r := range s.state.MonitoringData {
			if _, ok := wanted[r.ID]; ok {
				selected = append(selected, r)
			}
		}
	} else {
		for _, r := range s.state.MonitoringData {
			if r.Status != models.StatusRejected {
				selected = append(selected, r)
			}
		}
	}

	result := s.stats.Compute(selected, method)
	s.state.StatisticsResults = append(s.state.StatisticsResults, result)

	s.persistLocked()
	s.publish(EventStatisticsComputed, result)
	return result, opOK()
}

// StatisticsResults returns the append-only log of computed statistics.
func (s *Session) StatisticsResults() []models.StatisticsResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StatisticsResult(nil), s.state.StatisticsResults...)
}

// AddQCData evaluates one quality-control check and appends the result.
func (s *Session) AddQCData(data models.QCData) models.QCResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.qc.Evaluate(data)
	s.state.QCResults = append(s.state.QCResults, result)
	s.appendHistory("addQCData", "qc_result", string(data.Type), "",
		fmt.Sprintf("passed=%t value=%g", result.Passed, result.Value),
		fmt.Sprintf("%s check", data.Type))

	s.persistLocked()
	s.publish(EventQCAdded, result)
	return result
}

// QCResults returns the append-only log of QC results.
func (s *Session) QCResults() []models.QCResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.QCResult(nil), s.state.QCResults...)
}

// GenerateReport assembles the report from the current state. Regenerating
// overwrites the session's single report slot.
func (s *Session) GenerateReport(template, title string) *models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.reporter.Generate(s.state, template, title)
	s.state.ReportData = report
	s.appendHistory("generateReport", "report", report.ID, "", report.Title,
		fmt.Sprintf("generated report with template %s", template))

	s.persistLocked()
	s.publish(EventReportGenerated, report)
	return report
}

// Report returns the current report, if one was generated.
func (s *Session) Report() (*models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ReportData == nil {
		return nil, false
	}
	return s.state.ReportData, true
}

// CalculateScore derives the five-dimension score from the current state.
func (s *Session) CalculateScore() models.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scorer.Compute(s.state)
}

// SetPhase moves the workflow to the target phase. Moving backward or staying
// is always allowed; skipping ahead by more than one step is not.
func (s *Session) SetPhase(target models.Phase) models.PhaseResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	targetIdx := models.PhaseIndex(target)
	if targetIdx < 0 {
		return models.PhaseResult{IsValid: false, Phase: s.state.Phase, Message: fmt.Sprintf("unknown phase %q", target)}
	}
	currentIdx := models.PhaseIndex(s.state.Phase)
	if targetIdx > currentIdx+1 {
		return models.PhaseResult{
			IsValid: false,
			Phase:   s.state.Phase,
			Message: fmt.Sprintf("cannot skip from %s to %s", s.state.Phase, target),
		}
	}

	if target != s.state.Phase {
		s.state.Phase = target
		s.persistLocked()
		s.publish(EventPhaseChanged, target)
	}
	return models.PhaseResult{IsValid: true, Phase: target}
}

// NextPhase advances exactly one step, failing at the terminal phase.
func (s *Session) NextPhase() models.PhaseResult {
	s.mu.Lock()
	currentIdx := models.PhaseIndex(s.state.Phase)
	if currentIdx >= len(models.PhaseOrder)-1 {
		current := s.state.Phase
		s.mu.Unlock()
		return models.PhaseResult{IsValid: false, Phase: current, Message: "workflow is already complete"}
	}
	next := models.PhaseOrder[currentIdx+1]
	s.mu.Unlock()

	return s.SetPhase(next)
}

// Phase returns the current workflow phase.
func (s *Session) Phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

// History returns a copy of the operation history log.
func (s *Session) History() []models.OperationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OperationRecord(nil), s.history...)
}

// Summarize builds the lightweight status view.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviewed := 0
	for _, r := range s.state.MonitoringData {
		if r.Status != models.StatusPending {
			reviewed++
		}
	}
	s.state.ElapsedTime = int64(time.Since(s.state.StartTime).Seconds())

	return Summary{
		ID:             s.ID,
		Phase:          s.state.Phase,
		RecordCount:    len(s.state.MonitoringData),
		ReviewedCount:  reviewed,
		StatisticsRuns: len(s.state.StatisticsResults),
		QCCount:        len(s.state.QCResults),
		HasReport:      s.state.ReportData != nil,
		StartTime:      s.state.StartTime,
		ElapsedTime:    s.state.ElapsedTime,
	}
}

func (s *Session) appendHistory(action, targetType, targetID, prev, next, description string) {
	s.history = append(s.history, models.OperationRecord{
		ID:            uuid.New().String(),
		Timestamp:     time.Now(),
		Action:        action,
		TargetType:    targetType,
		TargetID:      targetID,
		PreviousValue: prev,
		NewValue:      next,
		Description:   description,
	})
}

// persistLocked writes the state document to the store. The write is
// fire-and-forget: a failure is logged and the in-memory mutation stands.
// Callers must hold s.mu.
func (s *Session) persistLocked() {
	if s.store == nil {
		return
	}
	s.state.ElapsedTime = int64(time.Since(s.state.StartTime).Seconds())
	doc := &models.PersistedState{
		State:            s.state,
		OperationHistory: s.history,
		DataVersions:     []string{},
	}
	if err := s.store.Save(s.ID, doc); err != nil {
		fmt.Printf("[Session %s] Failed to persist state: %v\n", shortID(s.ID), err)
		s.state.Errors = append(s.state.Errors, fmt.Sprintf("persist failed: %v", err))
	}
}

func (s *Session) publish(eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(s.ID, eventType, payload)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
