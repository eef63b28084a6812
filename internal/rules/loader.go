// Package rules loads the reference-range and detection-threshold rule set
// from YAML, falling back to the built-in defaults when no file is configured.
package rules

import (
	"fmt"
	"io"
	"os"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Default detection tuning.
const (
	DefaultZScoreThreshold = 3.0
	DefaultIQRMultiplier   = 1.5
)

// DefaultRuleSet returns the built-in reference ranges for the surface-water
// parameters covered by the trainer.
func DefaultRuleSet() *models.RuleSet {
	return &models.RuleSet{
		ReferenceRanges: []models.ReferenceRange{
			{Parameter: "pH", Min: 6.0, Max: 9.0, Unit: ""},
			{Parameter: "COD", Min: 0, Max: 40, Unit: "mg/L"},
			{Parameter: "BOD5", Min: 0, Max: 10, Unit: "mg/L"},
			{Parameter: "NH3-N", Min: 0, Max: 2.0, Unit: "mg/L"},
			{Parameter: "DO", Min: 2, Max: 15, Unit: "mg/L"},
		},
		Detection: models.DetectionConfig{
			ZScoreThreshold: DefaultZScoreThreshold,
			IQRMultiplier:   DefaultIQRMultiplier,
		},
	}
}

// Load reads a rule set from a YAML file. Fields missing from the file keep
// their defaults, so a rules file may override only the detection tuning or
// only add parameters.
func Load(filePath string) (*models.RuleSet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses a rule set from an io.Reader.
func LoadFromReader(r io.Reader) (*models.RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rs models.RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules yaml: %w", err)
	}

	defaults := DefaultRuleSet()
	if len(rs.ReferenceRanges) == 0 {
		rs.ReferenceRanges = defaults.ReferenceRanges
	}
	if rs.Detection.ZScoreThreshold <= 0 {
		rs.Detection.ZScoreThreshold = defaults.Detection.ZScoreThreshold
	}
	if rs.Detection.IQRMultiplier <= 0 {
		rs.Detection.IQRMultiplier = defaults.Detection.IQRMultiplier
	}

	return &rs, nil
}
