package engine

import (
	"testing"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionIDs(report *models.Report) []string {
	ids := make([]string, 0, len(report.Sections))
	for _, s := range report.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestGenerateFullReport(t *testing.T) {
	state := fullyWorkedState()

	report := NewReportGenerator().Generate(state, "standard", "")
	require.NotNil(t, report)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "环境监测数据处理报告", report.Title)
	assert.Equal(t, "standard", report.Template)
	assert.Equal(t, []string{"overview", "data_summary", "statistics", "quality_control", "conclusion"}, sectionIDs(report))
	assert.Equal(t, report.Conclusion, report.Sections[len(report.Sections)-1].Content)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestGenerateSkipsEmptySections(t *testing.T) {
	state := models.NewSessionState()
	state.MonitoringData = []models.MonitoringDataRecord{
		{ID: "1", Status: models.StatusApproved, IsValid: true},
	}

	report := NewReportGenerator().Generate(state, "standard", "")

	assert.Equal(t, []string{"overview", "data_summary", "conclusion"}, sectionIDs(report))
}

func TestGenerateCustomTitle(t *testing.T) {
	report := NewReportGenerator().Generate(models.NewSessionState(), "standard", "三月水质报告")
	assert.Equal(t, "三月水质报告", report.Title)
}

func TestGenerateSnapshotsState(t *testing.T) {
	state := fullyWorkedState()
	report := NewReportGenerator().Generate(state, "standard", "")

	require.Len(t, report.MonitoringData, 2)
	require.Len(t, report.StatisticsResults, 1)
	require.Len(t, report.QCResults, 1)

	// Mutating session data after generation must not reach the snapshot.
	state.MonitoringData[0].Value = 999
	assert.NotEqual(t, 999.0, report.MonitoringData[0].Value)
}
