package models

import "time"

// ReportSection is one ordered block of report content.
type ReportSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Report is the assembled output of a session. It embeds verbatim snapshots
// of the session data at generation time; downstream PDF/Word rendering
// consumes this structure and is outside the engine.
type Report struct {
	ID                string                 `json:"id"`
	Title             string                 `json:"title"`
	Template          string                 `json:"template"`
	Sections          []ReportSection        `json:"sections"`
	MonitoringData    []MonitoringDataRecord `json:"monitoringData"`
	StatisticsResults []StatisticsResult     `json:"statisticsResults"`
	QCResults         []QCResult             `json:"qcResults"`
	Conclusion        string                 `json:"conclusion"`
	GeneratedAt       time.Time              `json:"generatedAt"`
}
