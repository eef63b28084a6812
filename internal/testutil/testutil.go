// Package testutil provides shared helpers for handler and session tests.
package testutil

import (
	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/rules"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/envlab/monitor-trainer/backend/internal/storage"
)

// NewTestManager builds a session manager backed by an in-memory store and
// the built-in rule set.
func NewTestManager() *session.Manager {
	return session.NewManager(rules.DefaultRuleSet(), storage.NewMemoryStore())
}

// ValidRecord returns a record input that passes every validation rule.
func ValidRecord() models.MonitoringDataRecord {
	return models.MonitoringDataRecord{
		SampleID:        "WS20240101",
		SampleType:      "surface_water",
		Parameter:       "pH",
		Value:           7.5,
		MeasurementDate: "2024-01-01",
		MeasurementTime: "09:30",
		Analyst:         "张三",
		Instrument:      "pH计",
		Method:          "GB 6920-86",
	}
}
