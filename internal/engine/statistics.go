package engine

import (
	"math"
	"sort"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StandardDeviation returns the sample standard deviation (divisor n-1),
// 0 when fewer than two values are given.
func StandardDeviation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// populationStdDev is the divisor-n variant used by the z-score detector.
func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// CoefficientOfVariation returns 100*stdev/mean, 0 when the mean is zero.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return 100 * StandardDeviation(values) / mean
}

// Percentile computes the p-th percentile (0-100) by linear interpolation on
// the sorted values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Median is the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// StatisticsEngine computes descriptive statistics and chart-ready
// aggregates over selected monitoring records.
type StatisticsEngine struct{}

// NewStatisticsEngine creates a statistics engine.
func NewStatisticsEngine() *StatisticsEngine {
	return &StatisticsEngine{}
}

// Compute builds a StatisticsResult over the given records. Only records
// flagged valid contribute values. Empty input yields an all-zero result.
// The chart aggregate groups per-parameter means over the same records.
func (e *StatisticsEngine) Compute(records []models.MonitoringDataRecord, method string) models.StatisticsResult {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		values = append(values, r.Value)
	}

	result := models.StatisticsResult{
		Method:     method,
		DataCount:  len(values),
		ChartData:  e.chartData(records),
		ComputedAt: time.Now(),
	}
	if len(values) == 0 {
		return result
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	result.Mean = Mean(values)
	result.StandardDeviation = StandardDeviation(values)
	result.CoefficientOfVariation = CoefficientOfVariation(values)
	result.Min = sorted[0]
	result.Max = sorted[len(sorted)-1]
	result.Median = Median(values)
	result.Percentiles = models.Percentiles{
		P25: Percentile(values, 25),
		P75: Percentile(values, 75),
		P90: Percentile(values, 90),
		P95: Percentile(values, 95),
	}
	return result
}

// chartData builds the grouped-by-parameter bar chart: one label per
// parameter, one dataset whose points are the per-parameter means.
func (e *StatisticsEngine) chartData(records []models.MonitoringDataRecord) models.ChartData {
	byParam := make(map[string][]float64)
	var order []string
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		if _, seen := byParam[r.Parameter]; !seen {
			order = append(order, r.Parameter)
		}
		byParam[r.Parameter] = append(byParam[r.Parameter], r.Value)
	}

	chart := models.ChartData{
		Labels:   make([]string, 0, len(order)),
		Datasets: []models.ChartDataset{{Label: "均值", Data: make([]float64, 0, len(order))}},
	}
	for _, p := range order {
		chart.Labels = append(chart.Labels, p)
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, Mean(byParam[p]))
	}
	return chart
}
