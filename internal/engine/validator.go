// Package engine implements the pure data-processing components of the
// trainer: validation, anomaly detection, statistics, quality control,
// report assembly and scoring. No component in this package holds state;
// the session owns the state tree and calls in.
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

// sampleIDPattern is the lab convention: two letters followed by 6-10 digits,
// e.g. "WS20240101".
var sampleIDPattern = regexp.MustCompile(`^[A-Za-z]{2}\d{6,10}$`)

// Validator checks monitoring records against format and reference-range
// rules. Hard errors mark the record invalid; warnings are advisory only.
type Validator struct {
	rules *models.RuleSet
}

// NewValidator creates a validator bound to a rule set.
func NewValidator(rules *models.RuleSet) *Validator {
	return &Validator{rules: rules}
}

// ValidateRecord performs field-level and record-level validation.
// The record is stored regardless of the outcome; IsValid is persisted on it
// so downstream components can filter.
func (v *Validator) ValidateRecord(r *models.MonitoringDataRecord) models.ValidationResult {
	var errs, warns []string

	if strings.TrimSpace(r.SampleID) == "" {
		errs = append(errs, "sampleId is required")
	} else if !sampleIDPattern.MatchString(r.SampleID) {
		warns = append(warns, fmt.Sprintf("sampleId %q does not match the two-letter + 6-10 digit convention", r.SampleID))
	}

	if strings.TrimSpace(r.Parameter) == "" {
		errs = append(errs, "parameter is required")
	}

	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		errs = append(errs, "value must be a number")
	} else {
		if r.Value < 0 {
			warns = append(warns, fmt.Sprintf("value %g is negative", r.Value))
		}
		if rng, ok := v.rules.RangeFor(r.Parameter); ok {
			if r.Value < rng.Min || r.Value > rng.Max {
				warns = append(warns, fmt.Sprintf("value %g is outside the reference range [%g, %g] for %s",
					r.Value, rng.Min, rng.Max, r.Parameter))
			}
		}
	}

	if strings.TrimSpace(r.MeasurementDate) == "" {
		errs = append(errs, "measurementDate is required")
	}
	if strings.TrimSpace(r.Analyst) == "" {
		errs = append(errs, "analyst is required")
	}

	result := models.ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warns,
	}
	switch {
	case len(errs) > 0:
		result.Message = strings.Join(errs, "; ")
	case len(warns) > 0:
		result.Message = strings.Join(warns, "; ")
	default:
		result.Message = "validation passed"
	}
	return result
}
