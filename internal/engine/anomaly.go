package engine

import (
	"fmt"
	"math"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

// Detection methods accepted by AnomalyDetector.Detect.
const (
	MethodRange  = "range"
	MethodIQR    = "iqr"
	MethodZScore = "zscore"
	MethodAll    = "all"
)

// Minimum same-parameter cohort sizes for the statistical methods.
const (
	iqrMinCohort    = 4
	zscoreMinCohort = 3
)

// Detector confidences per method.
const (
	rangeConfidence  = 0.9
	iqrConfidence    = 0.85
	zscoreConfidence = 0.95
)

// AnomalyDetector flags suspect measurements using hard range checks,
// IQR fences and z-scores. Methods are tried in that order and the first
// match wins when method is "all".
type AnomalyDetector struct {
	rules *models.RuleSet
}

// NewAnomalyDetector creates a detector bound to a rule set; the rule set
// supplies both reference ranges and the detection tuning.
func NewAnomalyDetector(rules *models.RuleSet) *AnomalyDetector {
	return &AnomalyDetector{rules: rules}
}

// Detect runs the requested method (or all of them) over the records and
// returns one result per record, in input order. A record never triggering
// any rule yields IsAnomaly=false with no type.
func (d *AnomalyDetector) Detect(records []models.MonitoringDataRecord, method string) []models.AnomalyResult {
	cohorts := groupByParameter(records)

	results := make([]models.AnomalyResult, 0, len(records))
	for _, r := range records {
		res := models.AnomalyResult{DataID: r.ID}

		if method == MethodRange || method == MethodAll {
			if d.checkRange(&r, &res) {
				results = append(results, res)
				continue
			}
		}
		if method == MethodIQR || method == MethodAll {
			if d.checkIQR(&r, cohorts[r.Parameter], &res) {
				results = append(results, res)
				continue
			}
		}
		if method == MethodZScore || method == MethodAll {
			if d.checkZScore(&r, cohorts[r.Parameter], &res) {
				results = append(results, res)
				continue
			}
		}

		results = append(results, res)
	}
	return results
}

// groupByParameter builds the per-parameter value cohorts for the
// statistical detectors. Non-finite values are excluded: a single NaN would
// otherwise poison the cohort mean, stdev and quartiles.
func groupByParameter(records []models.MonitoringDataRecord) map[string][]float64 {
	cohorts := make(map[string][]float64)
	for _, r := range records {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		cohorts[r.Parameter] = append(cohorts[r.Parameter], r.Value)
	}
	return cohorts
}

func (d *AnomalyDetector) checkRange(r *models.MonitoringDataRecord, res *models.AnomalyResult) bool {
	rng, ok := d.rules.RangeFor(r.Parameter)
	if !ok {
		return false
	}
	res.ReferenceRange = fmt.Sprintf("[%g, %g]", rng.Min, rng.Max)
	if r.Value < rng.Min || r.Value > rng.Max {
		res.IsAnomaly = true
		res.AnomalyType = models.AnomalyRangeExceeded
		res.Confidence = rangeConfidence
		res.Explanation = fmt.Sprintf("value %g exceeds the %s reference range [%g, %g]",
			r.Value, r.Parameter, rng.Min, rng.Max)
		return true
	}
	return false
}

func (d *AnomalyDetector) checkIQR(r *models.MonitoringDataRecord, cohort []float64, res *models.AnomalyResult) bool {
	if len(cohort) < iqrMinCohort {
		return false
	}
	q1 := Percentile(cohort, 25)
	q3 := Percentile(cohort, 75)
	iqr := q3 - q1
	lower := q1 - d.rules.Detection.IQRMultiplier*iqr
	upper := q3 + d.rules.Detection.IQRMultiplier*iqr

	if r.Value < lower || r.Value > upper {
		res.IsAnomaly = true
		res.AnomalyType = models.AnomalyOutlier
		res.Confidence = iqrConfidence
		res.Explanation = fmt.Sprintf("value %g lies outside the IQR fences [%.4g, %.4g] of its %s cohort",
			r.Value, lower, upper, r.Parameter)
		return true
	}
	return false
}

func (d *AnomalyDetector) checkZScore(r *models.MonitoringDataRecord, cohort []float64, res *models.AnomalyResult) bool {
	if len(cohort) < zscoreMinCohort {
		return false
	}
	mean := Mean(cohort)
	stdev := populationStdDev(cohort, mean)
	if stdev <= 0 {
		return false
	}
	z := (r.Value - mean) / stdev
	if math.Abs(z) > d.rules.Detection.ZScoreThreshold {
		res.IsAnomaly = true
		res.AnomalyType = models.AnomalyOutlier
		res.Confidence = zscoreConfidence
		res.Explanation = fmt.Sprintf("value %g has |z|=%.2f against its %s cohort (threshold %.1f)",
			r.Value, math.Abs(z), r.Parameter, d.rules.Detection.ZScoreThreshold)
		return true
	}
	return false
}
