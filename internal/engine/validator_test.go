package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/rules"
)

func validRecord() models.MonitoringDataRecord {
	return models.MonitoringDataRecord{
		SampleID:        "WS20240101",
		Parameter:       "pH",
		Value:           7.5,
		MeasurementDate: "2024-01-01",
		Analyst:         "张三",
	}
}

func TestValidateRecord(t *testing.T) {
	v := NewValidator(rules.DefaultRuleSet())

	tests := []struct {
		name         string
		mutate       func(*models.MonitoringDataRecord)
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{
			name:      "well-formed record",
			mutate:    func(r *models.MonitoringDataRecord) {},
			wantValid: true,
		},
		{
			name:       "missing sampleId",
			mutate:     func(r *models.MonitoringDataRecord) { r.SampleID = "" },
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "missing parameter",
			mutate:     func(r *models.MonitoringDataRecord) { r.Parameter = "" },
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "NaN value",
			mutate:     func(r *models.MonitoringDataRecord) { r.Value = math.NaN() },
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "missing measurement date",
			mutate:     func(r *models.MonitoringDataRecord) { r.MeasurementDate = "" },
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "missing analyst",
			mutate:     func(r *models.MonitoringDataRecord) { r.Analyst = "" },
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "all required fields missing",
			mutate:     func(r *models.MonitoringDataRecord) { *r = models.MonitoringDataRecord{} },
			wantValid:  false,
			wantErrors: 4,
		},
		{
			name:         "bad sampleId convention is only a warning",
			mutate:       func(r *models.MonitoringDataRecord) { r.SampleID = "sample-1" },
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:         "negative value is only a warning",
			mutate:       func(r *models.MonitoringDataRecord) { r.Value = -1.0 },
			wantValid:    true,
			wantWarnings: 2, // negative and below pH reference range
		},
		{
			name:         "out-of-range value is only a warning",
			mutate:       func(r *models.MonitoringDataRecord) { r.Value = 11.0 },
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:         "unknown parameter skips range check",
			mutate:       func(r *models.MonitoringDataRecord) { r.Parameter = "TDS"; r.Value = 99999 },
			wantValid:    true,
			wantWarnings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)

			result := v.ValidateRecord(&r)

			if result.IsValid != tt.wantValid {
				t.Errorf("IsValid = %t, want %t (message: %s)", result.IsValid, tt.wantValid, result.Message)
			}
			if tt.wantErrors > 0 && len(result.Errors) < tt.wantErrors {
				t.Errorf("got %d errors, want at least %d: %v", len(result.Errors), tt.wantErrors, result.Errors)
			}
			if tt.wantValid && len(result.Errors) != 0 {
				t.Errorf("valid record carries errors: %v", result.Errors)
			}
			if tt.wantWarnings > 0 && len(result.Warnings) != tt.wantWarnings {
				t.Errorf("got %d warnings, want %d: %v", len(result.Warnings), tt.wantWarnings, result.Warnings)
			}
			for _, msg := range result.Errors {
				if strings.TrimSpace(msg) == "" {
					t.Error("error with empty message")
				}
			}
		})
	}
}

func TestValidateRecordMessage(t *testing.T) {
	v := NewValidator(rules.DefaultRuleSet())

	r := validRecord()
	if got := v.ValidateRecord(&r).Message; got != "validation passed" {
		t.Errorf("clean record message = %q", got)
	}

	r = validRecord()
	r.Analyst = ""
	if got := v.ValidateRecord(&r).Message; !strings.Contains(got, "analyst") {
		t.Errorf("error message %q does not mention the failing field", got)
	}

	r = validRecord()
	r.Value = 11.0
	if got := v.ValidateRecord(&r).Message; !strings.Contains(got, "reference range") {
		t.Errorf("warning message %q does not mention the reference range", got)
	}
}
