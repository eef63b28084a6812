package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

// QC judgment thresholds.
const (
	blankLimitFactor     = 0.5  // blank threshold = detection limit * 0.5
	parallelMaxDeviation = 20.0 // percent
	recoveryMin          = 80.0 // percent
	recoveryMax          = 120.0
)

// QualityControlEngine evaluates blank, parallel and spike-recovery checks
// against the fixed judgment thresholds.
type QualityControlEngine struct{}

// NewQualityControlEngine creates a QC engine.
func NewQualityControlEngine() *QualityControlEngine {
	return &QualityControlEngine{}
}

// Evaluate dispatches by QC type. An unknown type yields a failed result with
// a suggestion rather than an error, matching the engine's no-exceptions
// contract for expected input problems.
func (e *QualityControlEngine) Evaluate(data models.QCData) models.QCResult {
	switch data.Type {
	case models.QCBlank:
		return e.evaluateBlank(data)
	case models.QCParallel:
		return e.evaluateParallel(data)
	case models.QCSpikeRecovery:
		return e.evaluateSpikeRecovery(data)
	default:
		return models.QCResult{
			Type:        data.Type,
			Passed:      false,
			Message:     fmt.Sprintf("unknown QC type %q", data.Type),
			Suggestions: []string{"use one of: blank, parallel, spike_recovery"},
			CheckedAt:   time.Now(),
		}
	}
}

func (e *QualityControlEngine) evaluateBlank(data models.QCData) models.QCResult {
	threshold := data.DetectionLimit * blankLimitFactor
	passed := math.Abs(data.BlankValue) <= threshold

	result := models.QCResult{
		Type:      models.QCBlank,
		Passed:    passed,
		Value:     data.BlankValue,
		Threshold: threshold,
		CheckedAt: time.Now(),
	}
	if passed {
		result.Message = fmt.Sprintf("blank value %g is within the limit %g", data.BlankValue, threshold)
	} else {
		result.Message = fmt.Sprintf("blank value %g exceeds the limit %g", data.BlankValue, threshold)
		result.Suggestions = []string{
			"check reagent purity",
			"check for contaminated glassware or water",
			"re-run the blank before continuing the batch",
		}
	}
	return result
}

func (e *QualityControlEngine) evaluateParallel(data models.QCData) models.QCResult {
	mean := (data.Value1 + data.Value2) / 2
	deviation := 0.0
	if mean != 0 {
		// The relative deviation is magnitude-based so a negative mean
		// cannot make the check pass vacuously.
		deviation = math.Abs(data.Value1-data.Value2) / math.Abs(mean) * 100
	}
	passed := deviation <= parallelMaxDeviation

	result := models.QCResult{
		Type:      models.QCParallel,
		Passed:    passed,
		Value:     deviation,
		Threshold: parallelMaxDeviation,
		CheckedAt: time.Now(),
	}
	if passed {
		result.Message = fmt.Sprintf("parallel deviation %.2f%% is within %.0f%%", deviation, parallelMaxDeviation)
	} else {
		result.Message = fmt.Sprintf("parallel deviation %.2f%% exceeds %.0f%%", deviation, parallelMaxDeviation)
		result.Suggestions = []string{
			"repeat the parallel measurement",
			"check instrument stability and sample homogeneity",
		}
	}
	return result
}

func (e *QualityControlEngine) evaluateSpikeRecovery(data models.QCData) models.QCResult {
	recovery := 0.0
	if data.SpikeAmount != 0 {
		recovery = (data.SpikedValue - data.OriginalValue) / data.SpikeAmount * 100
	}
	passed := recovery >= recoveryMin && recovery <= recoveryMax

	result := models.QCResult{
		Type:      models.QCSpikeRecovery,
		Passed:    passed,
		Value:     recovery,
		Threshold: recoveryMax,
		CheckedAt: time.Now(),
	}
	if passed {
		result.Message = fmt.Sprintf("spike recovery %.1f%% is within [%.0f%%, %.0f%%]", recovery, recoveryMin, recoveryMax)
	} else {
		result.Message = fmt.Sprintf("spike recovery %.1f%% is outside [%.0f%%, %.0f%%]", recovery, recoveryMin, recoveryMax)
		result.Suggestions = []string{
			"verify the spike amount and standard concentration",
			"check for matrix interference or analyte loss during preparation",
		}
	}
	return result
}
