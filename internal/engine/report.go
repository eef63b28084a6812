package engine

import (
	"fmt"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/google/uuid"
)

// ReportGenerator assembles a report from the accumulated session state.
type ReportGenerator struct{}

// NewReportGenerator creates a report generator.
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// Generate builds the report sections in fixed order and embeds verbatim
// snapshots of the current records and results. The statistics section is
// included only when at least one statistics result exists; likewise the QC
// section.
func (g *ReportGenerator) Generate(state *models.SessionState, template, title string) *models.Report {
	if title == "" {
		title = "环境监测数据处理报告"
	}

	approved := 0
	for _, r := range state.MonitoringData {
		if r.Status == models.StatusApproved {
			approved++
		}
	}

	sections := []models.ReportSection{
		{
			ID:      "overview",
			Title:   "概述",
			Content: fmt.Sprintf("本次监测共录入 %d 条监测数据。", len(state.MonitoringData)),
		},
		{
			ID:      "data_summary",
			Title:   "数据汇总",
			Content: fmt.Sprintf("审核通过 %d 条数据。", approved),
		},
	}

	if n := len(state.StatisticsResults); n > 0 {
		latest := state.StatisticsResults[n-1]
		sections = append(sections, models.ReportSection{
			ID:    "statistics",
			Title: "统计分析",
			Content: fmt.Sprintf("样本数 %d，均值 %.4g，标准差 %.4g，变异系数 %.2f%%，中位数 %.4g，范围 [%.4g, %.4g]。",
				latest.DataCount, latest.Mean, latest.StandardDeviation,
				latest.CoefficientOfVariation, latest.Median, latest.Min, latest.Max),
		})
	}

	if total := len(state.QCResults); total > 0 {
		passed := 0
		for _, qc := range state.QCResults {
			if qc.Passed {
				passed++
			}
		}
		sections = append(sections, models.ReportSection{
			ID:      "quality_control",
			Title:   "质量控制",
			Content: fmt.Sprintf("质控检查 %d 项，通过 %d 项。", total, passed),
		})
	}

	conclusion := "本次监测数据处理流程完整，数据质量符合要求，结果可用于环境质量评价。"
	sections = append(sections, models.ReportSection{
		ID:      "conclusion",
		Title:   "结论",
		Content: conclusion,
	})

	report := &models.Report{
		ID:          uuid.New().String(),
		Title:       title,
		Template:    template,
		Sections:    sections,
		Conclusion:  conclusion,
		GeneratedAt: time.Now(),
	}

	// Verbatim snapshots of the state at generation time.
	report.MonitoringData = append([]models.MonitoringDataRecord(nil), state.MonitoringData...)
	report.StatisticsResults = append([]models.StatisticsResult(nil), state.StatisticsResults...)
	report.QCResults = append([]models.QCResult(nil), state.QCResults...)

	return report
}
