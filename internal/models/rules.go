package models

// ReferenceRange is the accepted value window for one analyte parameter.
type ReferenceRange struct {
	Parameter string  `json:"parameter" yaml:"parameter"`
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
	Unit      string  `json:"unit" yaml:"unit"`
}

// DetectionConfig tunes the statistical anomaly detectors. The z-score
// threshold and IQR multiplier are deployment configuration rather than
// hardcoded constants.
type DetectionConfig struct {
	ZScoreThreshold float64 `json:"zscoreThreshold" yaml:"zscore_threshold"`
	IQRMultiplier   float64 `json:"iqrMultiplier" yaml:"iqr_multiplier"`
}

// RuleSet is the YAML configuration of reference ranges and detection tuning.
type RuleSet struct {
	ReferenceRanges []ReferenceRange `json:"referenceRanges" yaml:"reference_ranges"`
	Detection       DetectionConfig  `json:"detection" yaml:"detection"`
}

// RangeFor looks up the reference range for a parameter.
func (rs *RuleSet) RangeFor(parameter string) (ReferenceRange, bool) {
	for _, r := range rs.ReferenceRanges {
		if r.Parameter == parameter {
			return r, true
		}
	}
	return ReferenceRange{}, false
}
