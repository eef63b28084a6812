package models

import "time"

// Phase is one stage of the data-processing workflow. Phases advance in
// strict forward order; moving backward is always allowed.
type Phase string

const (
	PhaseDataEntry      Phase = "data_entry"
	PhaseDataReview     Phase = "data_review"
	PhaseStatistics     Phase = "statistics"
	PhaseQualityControl Phase = "quality_control"
	PhaseReport         Phase = "report"
	PhaseComplete       Phase = "complete"
)

// PhaseOrder lists the phases in workflow order.
var PhaseOrder = []Phase{
	PhaseDataEntry,
	PhaseDataReview,
	PhaseStatistics,
	PhaseQualityControl,
	PhaseReport,
	PhaseComplete,
}

// PhaseIndex returns the position of a phase in the workflow, or -1 for an
// unknown phase.
func PhaseIndex(p Phase) int {
	for i, ph := range PhaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// PhaseResult reports the outcome of a phase transition attempt.
type PhaseResult struct {
	IsValid bool   `json:"isValid"`
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
}

// OperationRecord is one immutable entry of the session's operation history.
type OperationRecord struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	TargetType    string    `json:"targetType"`
	TargetID      string    `json:"targetId,omitempty"`
	PreviousValue string    `json:"previousValue,omitempty"`
	NewValue      string    `json:"newValue,omitempty"`
	Description   string    `json:"description,omitempty"`
}

// SessionState is the full mutable state tree of one processing session.
// It is owned exclusively by the session; every engine component is a pure
// function reading it or returning values merged back into it.
type SessionState struct {
	Phase             Phase                         `json:"phase"`
	MonitoringData    []MonitoringDataRecord        `json:"monitoringData"`
	ReviewedData      map[string]ReviewedDataRecord `json:"reviewedData"`
	AnomalyResults    []AnomalyResult               `json:"anomalyResults,omitempty"`
	StatisticsResults []StatisticsResult            `json:"statisticsResults,omitempty"`
	QCResults         []QCResult                    `json:"qcResults,omitempty"`
	ReportData        *Report                       `json:"reportData,omitempty"`
	Errors            []string                      `json:"errors,omitempty"`
	StartTime         time.Time                     `json:"startTime"`
	ElapsedTime       int64                         `json:"elapsedTime"` // seconds
}

// NewSessionState returns an empty state positioned at the first phase.
func NewSessionState() *SessionState {
	return &SessionState{
		Phase:          PhaseDataEntry,
		MonitoringData: make([]MonitoringDataRecord, 0),
		ReviewedData:   make(map[string]ReviewedDataRecord),
		StartTime:      time.Now(),
	}
}

// PersistedState is the JSON document written to the state store, keyed by
// session id.
type PersistedState struct {
	State            *SessionState     `json:"state"`
	OperationHistory []OperationRecord `json:"operationHistory"`
	DataVersions     []string          `json:"dataVersions"`
}
