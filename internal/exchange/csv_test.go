package exchange

import (
	"strings"
	"testing"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []models.MonitoringDataRecord {
	return []models.MonitoringDataRecord{
		{
			SampleID:        "WS20240101",
			SampleType:      "surface_water",
			Parameter:       "pH",
			Value:           7.52,
			Unit:            "",
			MeasurementDate: "2024-01-01",
			MeasurementTime: "09:30",
			Analyst:         "张三",
			Instrument:      "PHS-3C",
			Method:          "GB 6920-86",
			Status:          models.StatusApproved,
			IsValid:         true,
		},
		{
			SampleID:        "WS20240102",
			SampleType:      "waste_water",
			Parameter:       "COD",
			Value:           35.4,
			Unit:            "mg/L",
			MeasurementDate: "2024-01-02",
			Analyst:         "李四",
			Status:          models.StatusPending,
			IsValid:         true,
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	records := sampleRecords()

	text := ExportCSV(records, CSVOptions{HasHeader: true})
	parsed := ParseCSVText(text, CSVOptions{HasHeader: true})

	require.Len(t, parsed, len(records))
	for i := range records {
		assert.Equal(t, records[i], parsed[i], "record %d", i)
	}
}

func TestCSVRoundTripChineseHeaders(t *testing.T) {
	records := sampleRecords()

	text := ExportCSV(records, CSVOptions{HasHeader: true, UseChineseHeaders: true})
	assert.True(t, strings.HasPrefix(text, "样品编号,"))

	parsed := ParseCSVText(text, CSVOptions{HasHeader: true})
	require.Len(t, parsed, len(records))
	assert.Equal(t, records[0], parsed[0])
}

func TestCSVRoundTripQuotedFields(t *testing.T) {
	record := sampleRecords()[0]
	record.Analyst = `张三, "组长"`
	record.Method = "line one\nline two"

	text := ExportCSV([]models.MonitoringDataRecord{record}, CSVOptions{HasHeader: true})
	parsed := ParseCSVText(text, CSVOptions{HasHeader: true})

	require.Len(t, parsed, 1)
	assert.Equal(t, record.Analyst, parsed[0].Analyst)
	assert.Equal(t, record.Method, parsed[0].Method)
}

func TestCSVRoundTripSemicolonDelimiter(t *testing.T) {
	records := sampleRecords()
	opts := CSVOptions{HasHeader: true, Delimiter: ';'}

	parsed := ParseCSVText(ExportCSV(records, opts), opts)
	require.Len(t, parsed, len(records))
	assert.Equal(t, records[0], parsed[0])
}

func TestParseCSVTextNoHeader(t *testing.T) {
	text := "WS20240101,surface_water,pH,7.5,,2024-01-01,,张三,,,pending,true\n"

	parsed := ParseCSVText(text, CSVOptions{HasHeader: false})
	require.Len(t, parsed, 1)
	assert.Equal(t, "WS20240101", parsed[0].SampleID)
	assert.Equal(t, 7.5, parsed[0].Value)
	assert.Equal(t, models.StatusPending, parsed[0].Status)
	assert.True(t, parsed[0].IsValid)
}

func TestParseCSVTextCustomMapping(t *testing.T) {
	text := "编号,项目,数值\nWS20240101,pH,7.5\n"

	parsed := ParseCSVText(text, CSVOptions{
		HasHeader: true,
		ColumnMapping: map[string]string{
			"编号": FieldSampleID,
			"项目": FieldParameter,
			"数值": FieldValue,
		},
	})

	require.Len(t, parsed, 1)
	assert.Equal(t, "WS20240101", parsed[0].SampleID)
	assert.Equal(t, "pH", parsed[0].Parameter)
	assert.Equal(t, 7.5, parsed[0].Value)
}

func TestParseCSVTextUnparseableValue(t *testing.T) {
	text := "sampleId,parameter,value\nWS20240101,pH,not-a-number\n"

	parsed := ParseCSVText(text, CSVOptions{HasHeader: true})
	require.Len(t, parsed, 1)
	assert.True(t, parsed[0].Value != parsed[0].Value, "unparseable value should become NaN")
}

func TestParseCSVTextSkipsBlankRows(t *testing.T) {
	text := "sampleId,parameter,value\nWS20240101,pH,7.5\n\n,,\n"

	parsed := ParseCSVText(text, CSVOptions{HasHeader: true})
	assert.Len(t, parsed, 1)
}

func TestParseCSVTextCRLF(t *testing.T) {
	text := "sampleId,parameter,value\r\nWS20240101,pH,7.5\r\n"

	parsed := ParseCSVText(text, CSVOptions{HasHeader: true})
	require.Len(t, parsed, 1)
	assert.Equal(t, "WS20240101", parsed[0].SampleID)
}

func TestValidateImportData(t *testing.T) {
	text := strings.Join([]string{
		"sampleId,parameter,value,measurementDate,analyst",
		"WS20240101,pH,7.5,2024-01-01,张三",
		",pH,7.5,2024-01-01,张三",
		"WS20240103,COD,oops,2024-01-03,李四",
	}, "\n")

	records := ParseCSVText(text, CSVOptions{HasHeader: true})
	require.Len(t, records, 3)

	result := ValidateImportData(records, rules.DefaultRuleSet())

	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 2, result.InvalidRows)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "sampleId", result.Errors[0].Field)
	assert.Equal(t, 3, result.Errors[1].Row)
	assert.Equal(t, "value", result.Errors[1].Field)
}

func TestValidateImportDataWarningsDoNotInvalidate(t *testing.T) {
	// A negative COD value is a warning, not a hard error.
	text := "sampleId,parameter,value,measurementDate,analyst\nWS20240101,COD,-5,2024-01-01,张三\n"

	records := ParseCSVText(text, CSVOptions{HasHeader: true})
	result := ValidateImportData(records, rules.DefaultRuleSet())

	assert.Equal(t, 1, result.ValidRows)
	assert.Zero(t, result.InvalidRows)
	assert.Empty(t, result.Errors)
}
