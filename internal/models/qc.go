package models

import "time"

// QCType identifies one of the three quality-control checks.
type QCType string

const (
	QCBlank         QCType = "blank"
	QCParallel      QCType = "parallel"
	QCSpikeRecovery QCType = "spike_recovery"
)

// QCData carries the raw inputs for one QC check. Which fields are read
// depends on Type: blank uses BlankValue/DetectionLimit, parallel uses
// Value1/Value2, spike recovery uses OriginalValue/SpikedValue/SpikeAmount.
type QCData struct {
	Type           QCType  `json:"type"`
	Parameter      string  `json:"parameter,omitempty"`
	BlankValue     float64 `json:"blankValue,omitempty"`
	DetectionLimit float64 `json:"detectionLimit,omitempty"`
	Value1         float64 `json:"value1,omitempty"`
	Value2         float64 `json:"value2,omitempty"`
	OriginalValue  float64 `json:"originalValue,omitempty"`
	SpikedValue    float64 `json:"spikedValue,omitempty"`
	SpikeAmount    float64 `json:"spikeAmount,omitempty"`
}

// QCResult is the judged outcome of one QC check. Suggestions are non-empty
// exactly when the check failed.
type QCResult struct {
	Type        QCType    `json:"type"`
	Passed      bool      `json:"passed"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions,omitempty"`
	CheckedAt   time.Time `json:"checkedAt"`
}
