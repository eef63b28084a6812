package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSet(t *testing.T) {
	rs := DefaultRuleSet()

	require.Len(t, rs.ReferenceRanges, 5)
	assert.Equal(t, 3.0, rs.Detection.ZScoreThreshold)
	assert.Equal(t, 1.5, rs.Detection.IQRMultiplier)

	ph, ok := rs.RangeFor("pH")
	require.True(t, ok)
	assert.Equal(t, 6.0, ph.Min)
	assert.Equal(t, 9.0, ph.Max)

	_, ok = rs.RangeFor("turbidity")
	assert.False(t, ok)
}

func TestLoadFromReader(t *testing.T) {
	yaml := `
reference_ranges:
  - parameter: pH
    min: 6.5
    max: 8.5
  - parameter: TP
    min: 0
    max: 0.4
    unit: mg/L
detection:
  zscore_threshold: 2.5
  iqr_multiplier: 2.0
`
	rs, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	require.Len(t, rs.ReferenceRanges, 2)
	ph, ok := rs.RangeFor("pH")
	require.True(t, ok)
	assert.Equal(t, 6.5, ph.Min)
	assert.Equal(t, 8.5, ph.Max)

	assert.Equal(t, 2.5, rs.Detection.ZScoreThreshold)
	assert.Equal(t, 2.0, rs.Detection.IQRMultiplier)
}

func TestLoadFromReaderPartialFileKeepsDefaults(t *testing.T) {
	yaml := `
detection:
  zscore_threshold: 2.0
`
	rs, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	// Ranges fall back to the built-ins, the unset multiplier too.
	assert.Len(t, rs.ReferenceRanges, 5)
	assert.Equal(t, 2.0, rs.Detection.ZScoreThreshold)
	assert.Equal(t, 1.5, rs.Detection.IQRMultiplier)
}

func TestLoadFromReaderMalformed(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("reference_ranges: {not: [valid"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "detection:\n  iqr_multiplier: 3.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, rs.Detection.IQRMultiplier)
	assert.Equal(t, 3.0, rs.Detection.ZScoreThreshold)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
