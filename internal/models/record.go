package models

import "time"

// RecordStatus tracks where a measurement sits in the review workflow.
type RecordStatus string

const (
	StatusPending  RecordStatus = "pending"
	StatusReviewed RecordStatus = "reviewed"
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
)

// MonitoringDataRecord is one raw measurement entered by the trainee.
// The ID is generated at creation and never changes; rejection is a status,
// records are never deleted within a session.
type MonitoringDataRecord struct {
	ID                string       `json:"id"`
	SampleID          string       `json:"sampleId"`
	SampleType        string       `json:"sampleType,omitempty"`
	Parameter         string       `json:"parameter"`
	Value             float64      `json:"value"`
	Unit              string       `json:"unit,omitempty"`
	MeasurementDate   string       `json:"measurementDate"`
	MeasurementTime   string       `json:"measurementTime,omitempty"`
	Analyst           string       `json:"analyst"`
	Instrument        string       `json:"instrument,omitempty"`
	Method            string       `json:"method,omitempty"`
	Status            RecordStatus `json:"status"`
	IsValid           bool         `json:"isValid"`
	ValidationMessage string       `json:"validationMessage,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// ReviewDecision is the outcome of a trainee's review of one record.
type ReviewDecision string

const (
	DecisionAccept ReviewDecision = "accept"
	DecisionReject ReviewDecision = "reject"
	DecisionModify ReviewDecision = "modify"
)

// ReviewedDataRecord holds the latest review decision for a record.
// Keyed 1:1 by DataID; a later decision overwrites the earlier one.
type ReviewedDataRecord struct {
	DataID         string          `json:"dataId"`
	ReviewerID     string          `json:"reviewerId,omitempty"`
	ReviewDate     time.Time       `json:"reviewDate"`
	OriginalValue  float64         `json:"originalValue"`
	IsAnomaly      bool            `json:"isAnomaly"`
	AnomalyType    string          `json:"anomalyType,omitempty"`
	Decision       ReviewDecision  `json:"decision"`
	ModifiedValue  *float64        `json:"modifiedValue,omitempty"`
	Reason         string          `json:"reason"`
	ReferenceRange string          `json:"referenceRange,omitempty"`
}

// DataFilter selects a subset of monitoring records.
// Zero-value fields match everything.
type DataFilter struct {
	Parameter  string       `json:"parameter,omitempty"`
	SampleType string       `json:"sampleType,omitempty"`
	Status     RecordStatus `json:"status,omitempty"`
}

// Matches reports whether a record passes the filter.
func (f DataFilter) Matches(r *MonitoringDataRecord) bool {
	if f.Parameter != "" && r.Parameter != f.Parameter {
		return false
	}
	if f.SampleType != "" && r.SampleType != f.SampleType {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// ValidationResult is the outcome of validating one record.
// Hard errors make the record invalid; warnings do not.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Message  string   `json:"message"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// AnomalyType classifies why a record was flagged.
const (
	AnomalyRangeExceeded = "range_exceeded"
	AnomalyOutlier       = "outlier"
)

// AnomalyResult is the detector's verdict for a single record.
type AnomalyResult struct {
	DataID         string  `json:"dataId"`
	IsAnomaly      bool    `json:"isAnomaly"`
	AnomalyType    string  `json:"anomalyType,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Explanation    string  `json:"explanation,omitempty"`
	ReferenceRange string  `json:"referenceRange,omitempty"`
}
