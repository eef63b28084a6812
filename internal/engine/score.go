package engine

import (
	"fmt"
	"math"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

const (
	dimensionMax      = 20
	lowDimensionScore = 15 // below this a dimension earns a suggestion
)

// ScoreEngine aggregates the whole workflow into a five-dimension score.
// Scores are always derived fresh from the current session state.
type ScoreEngine struct{}

// NewScoreEngine creates a score engine.
func NewScoreEngine() *ScoreEngine {
	return &ScoreEngine{}
}

// Compute scores the session across data entry, review, statistics, quality
// control and reporting, each capped at 20 points.
func (e *ScoreEngine) Compute(state *models.SessionState) models.Score {
	total := len(state.MonitoringData)
	valid := 0
	reviewed := 0
	for _, r := range state.MonitoringData {
		if r.IsValid {
			valid++
		}
		if r.Status != models.StatusPending {
			reviewed++
		}
	}

	dataEntry := ratioScore(valid, total)
	dataReview := ratioScore(reviewed, total)

	statistics := 0
	if len(state.StatisticsResults) > 0 {
		statistics = dimensionMax
	}

	passedQC := 0
	for _, qc := range state.QCResults {
		if qc.Passed {
			passedQC++
		}
	}
	qualityControl := ratioScore(passedQC, len(state.QCResults))

	report := 0
	if state.ReportData != nil {
		report = dimensionMax
	}

	score := models.Score{
		Dimensions: models.ScoreDimensions{
			DataEntry: models.ScoreDimension{
				Score:    dataEntry,
				MaxScore: dimensionMax,
				Details:  []string{fmt.Sprintf("%d/%d records valid", valid, total)},
			},
			DataReview: models.ScoreDimension{
				Score:    dataReview,
				MaxScore: dimensionMax,
				Details:  []string{fmt.Sprintf("%d/%d records reviewed", reviewed, total)},
			},
			Statistics: models.ScoreDimension{
				Score:    statistics,
				MaxScore: dimensionMax,
				Details:  []string{fmt.Sprintf("%d statistics computations", len(state.StatisticsResults))},
			},
			QualityControl: models.ScoreDimension{
				Score:    qualityControl,
				MaxScore: dimensionMax,
				Details:  []string{fmt.Sprintf("%d/%d QC checks passed", passedQC, len(state.QCResults))},
			},
			Report: models.ScoreDimension{
				Score:    report,
				MaxScore: dimensionMax,
				Details:  []string{reportDetail(state.ReportData != nil)},
			},
		},
	}

	score.TotalScore = dataEntry + dataReview + statistics + qualityControl + report
	score.Grade = models.GradeFor(score.TotalScore)
	score.Suggestions = e.suggestions(score)
	return score
}

func (e *ScoreEngine) suggestions(s models.Score) []string {
	var out []string
	if s.Dimensions.DataEntry.Score < lowDimensionScore {
		out = append(out, "重新检查录入数据的完整性和格式")
	}
	if s.Dimensions.DataReview.Score < lowDimensionScore {
		out = append(out, "对未审核的数据逐条进行审核")
	}
	if s.Dimensions.Statistics.Score < lowDimensionScore {
		out = append(out, "对审核后的数据进行统计分析")
	}
	if s.Dimensions.QualityControl.Score < lowDimensionScore {
		out = append(out, "补充或复核质控样品测定")
	}
	if s.Dimensions.Report.Score < lowDimensionScore {
		out = append(out, "生成监测报告以完成流程")
	}
	return out
}

// ratioScore maps count/total onto 0-20, rounding half away from zero.
// A zero total scores zero.
func ratioScore(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(dimensionMax) * float64(count) / float64(total)))
}

func reportDetail(generated bool) string {
	if generated {
		return "report generated"
	}
	return "no report generated"
}
