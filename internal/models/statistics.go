package models

import "time"

// Percentiles holds the interpolated percentile values of a data set.
type Percentiles struct {
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// ChartDataset is one series of a chart-ready aggregate.
type ChartDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// ChartData is a bar-chart aggregate grouped by parameter.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// StatisticsResult is an immutable snapshot of one statistics computation.
// Results are appended to the session, never mutated; the latest entry is
// authoritative for reports and scoring.
type StatisticsResult struct {
	Method                 string      `json:"method"`
	DataCount              int         `json:"dataCount"`
	Mean                   float64     `json:"mean"`
	StandardDeviation      float64     `json:"standardDeviation"`
	CoefficientOfVariation float64     `json:"coefficientOfVariation"`
	Min                    float64     `json:"min"`
	Max                    float64     `json:"max"`
	Median                 float64     `json:"median"`
	Percentiles            Percentiles `json:"percentiles"`
	ChartData              ChartData   `json:"chartData"`
	ComputedAt             time.Time   `json:"computedAt"`
}
