package engine

import (
	"math"
	"testing"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7.5}, 7.5},
		{"several", []float64{1, 2, 3, 4}, 2.5},
		{"negative", []float64{-2, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mean(tt.values), epsilon)
		})
	}
}

func TestStandardDeviation(t *testing.T) {
	// Sample stdev of {2,4,4,4,5,5,7,9} is 2.138089935...
	assert.InDelta(t, 2.1380899353, StandardDeviation([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Equal(t, 0.0, StandardDeviation(nil))
	assert.Equal(t, 0.0, StandardDeviation([]float64{3.3}))
}

func TestCoefficientOfVariation(t *testing.T) {
	values := []float64{10, 12, 8, 10}
	want := 100 * StandardDeviation(values) / 10.0
	assert.InDelta(t, want, CoefficientOfVariation(values), epsilon)

	// Zero mean guards the division.
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{-1, 1}))
}

func TestPercentile(t *testing.T) {
	values := []float64{15, 20, 35, 40, 50}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 15},
		{25, 20},
		{50, 35},
		{75, 40},
		{90, 46},
		{100, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(values, tt.p), epsilon, "p%.0f", tt.p)
	}

	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 42.0, Percentile([]float64{42}, 95))
}

func TestComputeInvariants(t *testing.T) {
	records := []models.MonitoringDataRecord{
		{ID: "1", Parameter: "pH", Value: 7.2, IsValid: true},
		{ID: "2", Parameter: "pH", Value: 7.8, IsValid: true},
		{ID: "3", Parameter: "pH", Value: 6.9, IsValid: true},
		{ID: "4", Parameter: "COD", Value: 25, IsValid: true},
		{ID: "5", Parameter: "COD", Value: 31, IsValid: true},
	}

	result := NewStatisticsEngine().Compute(records, "descriptive")

	assert.Equal(t, 5, result.DataCount)
	assert.GreaterOrEqual(t, result.Median, result.Min)
	assert.LessOrEqual(t, result.Median, result.Max)
	assert.GreaterOrEqual(t, result.Mean, result.Min)
	assert.LessOrEqual(t, result.Mean, result.Max)
	assert.GreaterOrEqual(t, result.StandardDeviation, 0.0)
	assert.InDelta(t, (7.2+7.8+6.9+25+31)/5, result.Mean, epsilon)
}

func TestComputeSkipsInvalidValues(t *testing.T) {
	records := []models.MonitoringDataRecord{
		{ID: "1", Parameter: "pH", Value: 7.0, IsValid: true},
		{ID: "2", Parameter: "pH", Value: math.NaN(), IsValid: false},
		{ID: "3", Parameter: "pH", Value: 8.0, IsValid: true},
	}

	result := NewStatisticsEngine().Compute(records, "descriptive")
	assert.Equal(t, 2, result.DataCount)
	assert.InDelta(t, 7.5, result.Mean, epsilon)
}

func TestComputeEmptyInput(t *testing.T) {
	result := NewStatisticsEngine().Compute(nil, "descriptive")

	assert.Equal(t, 0, result.DataCount)
	assert.Equal(t, 0.0, result.Mean)
	assert.Equal(t, 0.0, result.StandardDeviation)
	assert.Equal(t, 0.0, result.Median)
	assert.Empty(t, result.ChartData.Labels)
}

func TestComputeChartData(t *testing.T) {
	records := []models.MonitoringDataRecord{
		{ID: "1", Parameter: "pH", Value: 7.0, IsValid: true},
		{ID: "2", Parameter: "COD", Value: 20, IsValid: true},
		{ID: "3", Parameter: "pH", Value: 8.0, IsValid: true},
	}

	chart := NewStatisticsEngine().Compute(records, "descriptive").ChartData

	assert.Equal(t, []string{"pH", "COD"}, chart.Labels)
	if assert.Len(t, chart.Datasets, 1) {
		assert.Len(t, chart.Datasets[0].Data, 2)
		assert.InDelta(t, 7.5, chart.Datasets[0].Data[0], epsilon)
		assert.InDelta(t, 20.0, chart.Datasets[0].Data[1], epsilon)
	}
}
