// Package exchange implements the CSV/JSON import-export boundary of the
// trainer, including the quote-aware CSV codec and the row-level import
// validation contract.
package exchange

import (
	"fmt"
	"math"
	"strings"

	"github.com/envlab/monitor-trainer/backend/internal/engine"
	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/spf13/cast"
)

// Canonical record field names used by column mapping.
const (
	FieldSampleID        = "sampleId"
	FieldSampleType      = "sampleType"
	FieldParameter       = "parameter"
	FieldValue           = "value"
	FieldUnit            = "unit"
	FieldMeasurementDate = "measurementDate"
	FieldMeasurementTime = "measurementTime"
	FieldAnalyst         = "analyst"
	FieldInstrument      = "instrument"
	FieldMethod          = "method"
	FieldStatus          = "status"
	FieldIsValid         = "isValid"
)

// exportOrder is the column order for CSV export and the canonical header row.
var exportOrder = []string{
	FieldSampleID, FieldSampleType, FieldParameter, FieldValue, FieldUnit,
	FieldMeasurementDate, FieldMeasurementTime, FieldAnalyst, FieldInstrument,
	FieldMethod, FieldStatus, FieldIsValid,
}

// chineseHeaders maps canonical field names to the Chinese export headers.
var chineseHeaders = map[string]string{
	FieldSampleID:        "样品编号",
	FieldSampleType:      "样品类型",
	FieldParameter:       "监测项目",
	FieldValue:           "测定值",
	FieldUnit:            "单位",
	FieldMeasurementDate: "监测日期",
	FieldMeasurementTime: "监测时间",
	FieldAnalyst:         "分析人员",
	FieldInstrument:      "分析仪器",
	FieldMethod:          "分析方法",
	FieldStatus:          "状态",
	FieldIsValid:         "是否有效",
}

// DefaultColumnMapping translates both English and Chinese source headers to
// canonical field names. Unmapped headers are dropped silently.
func DefaultColumnMapping() map[string]string {
	mapping := make(map[string]string, 2*len(exportOrder))
	for _, f := range exportOrder {
		mapping[f] = f
		mapping[chineseHeaders[f]] = f
	}
	return mapping
}

// CSVOptions configures parsing and export.
type CSVOptions struct {
	Delimiter         rune              `json:"delimiter,omitempty"` // default ','
	HasHeader         bool              `json:"hasHeader"`
	ColumnMapping     map[string]string `json:"columnMapping,omitempty"` // source header -> canonical field
	UseChineseHeaders bool              `json:"useChineseHeaders,omitempty"`
}

func (o CSVOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// RowError is one per-row, per-field import validation failure. Rows are
// numbered from 1 over the data rows (the header row does not count).
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportValidation summarizes row-level validation of an import batch.
type ImportValidation struct {
	ValidRows   int        `json:"validRows"`
	InvalidRows int        `json:"invalidRows"`
	Errors      []RowError `json:"errors,omitempty"`
}

// ParseCSVText parses CSV text into monitoring records. The parser is
// RFC4180-style quote aware: quoted fields may contain the delimiter,
// doubled quotes and newlines. Column mapping translates source headers to
// canonical fields; without a header row the canonical export order applies.
func ParseCSVText(text string, opts CSVOptions) []models.MonitoringDataRecord {
	rows := splitRows(text, opts.delimiter())
	if len(rows) == 0 {
		return nil
	}

	// Resolve each column index to a canonical field name.
	var columns []string
	dataRows := rows
	if opts.HasHeader {
		mapping := opts.ColumnMapping
		if mapping == nil {
			mapping = DefaultColumnMapping()
		}
		for _, header := range rows[0] {
			columns = append(columns, mapping[strings.TrimSpace(header)])
		}
		dataRows = rows[1:]
	} else {
		columns = exportOrder
	}

	records := make([]models.MonitoringDataRecord, 0, len(dataRows))
	for _, row := range dataRows {
		if isBlankRow(row) {
			continue
		}
		var r models.MonitoringDataRecord
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			setField(&r, columns[i], cell)
		}
		records = append(records, r)
	}
	return records
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// setField assigns a cell to a canonical field. The value cell is coerced
// tolerantly; an unparseable value becomes NaN so validation can flag it.
func setField(r *models.MonitoringDataRecord, field, cell string) {
	cell = strings.TrimSpace(cell)
	switch field {
	case FieldSampleID:
		r.SampleID = cell
	case FieldSampleType:
		r.SampleType = cell
	case FieldParameter:
		r.Parameter = cell
	case FieldValue:
		if cell == "" {
			r.Value = math.NaN()
			return
		}
		v, err := cast.ToFloat64E(cell)
		if err != nil {
			r.Value = math.NaN()
			return
		}
		r.Value = v
	case FieldUnit:
		r.Unit = cell
	case FieldMeasurementDate:
		r.MeasurementDate = cell
	case FieldMeasurementTime:
		r.MeasurementTime = cell
	case FieldAnalyst:
		r.Analyst = cell
	case FieldInstrument:
		r.Instrument = cell
	case FieldMethod:
		r.Method = cell
	case FieldStatus:
		if cell != "" {
			r.Status = models.RecordStatus(cell)
		}
	case FieldIsValid:
		r.IsValid = cast.ToBool(cell)
	}
	// Unmapped columns land here with field == "" and are ignored.
}

// ExportCSV renders records as CSV with an optional header row. Fields
// containing the delimiter, a quote or a newline are quoted with doubled
// quotes, so the output round-trips through ParseCSVText.
func ExportCSV(records []models.MonitoringDataRecord, opts CSVOptions) string {
	delim := opts.delimiter()
	var b strings.Builder

	if opts.HasHeader {
		headers := make([]string, len(exportOrder))
		for i, f := range exportOrder {
			if opts.UseChineseHeaders {
				headers[i] = chineseHeaders[f]
			} else {
				headers[i] = f
			}
		}
		writeRow(&b, headers, delim)
	}

	for _, r := range records {
		row := []string{
			r.SampleID,
			r.SampleType,
			r.Parameter,
			formatValue(r.Value),
			r.Unit,
			r.MeasurementDate,
			r.MeasurementTime,
			r.Analyst,
			r.Instrument,
			r.Method,
			string(r.Status),
			fmt.Sprintf("%t", r.IsValid),
		}
		writeRow(&b, row, delim)
	}
	return b.String()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%g", v)
}

func writeRow(b *strings.Builder, row []string, delim rune) {
	for i, field := range row {
		if i > 0 {
			b.WriteRune(delim)
		}
		b.WriteString(escapeField(field, delim))
	}
	b.WriteByte('\n')
}

// escapeField quotes a field when it contains the delimiter, a quote or a
// newline, doubling embedded quotes.
func escapeField(field string, delim rune) string {
	if !strings.ContainsRune(field, delim) &&
		!strings.ContainsAny(field, "\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// splitRows scans CSV text into rows of raw fields with a quote-aware state
// machine. Doubled quotes inside a quoted field decode to a single quote;
// newlines inside quotes do not terminate the row.
func splitRows(text string, delim rune) [][]string {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false
	fieldStarted := false

	runes := []rune(text)
	flushField := func() {
		row = append(row, field.String())
		field.Reset()
		fieldStarted = false
	}
	flushRow := func() {
		flushField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteRune(c)
			}
		case c == '"' && !fieldStarted:
			inQuotes = true
			fieldStarted = true
		case c == delim:
			flushField()
		case c == '\n':
			flushRow()
		case c == '\r':
			// Swallow; the following '\n' (if any) terminates the row.
			if i+1 >= len(runes) || runes[i+1] != '\n' {
				flushRow()
			}
		default:
			field.WriteRune(c)
			fieldStarted = true
		}
	}

	// Trailing row without a final newline.
	if fieldStarted || field.Len() > 0 || len(row) > 0 {
		flushRow()
	}
	return rows
}

// ValidateImportData applies the validator's hard-error rules to each row,
// collecting rather than failing fast so one bad row never blocks the rest.
// It finds exactly the invalid rows: a row is invalid iff the validator
// reports at least one hard error for it.
func ValidateImportData(records []models.MonitoringDataRecord, rules *models.RuleSet) ImportValidation {
	v := engine.NewValidator(rules)
	result := ImportValidation{}

	for i, r := range records {
		vr := v.ValidateRecord(&r)
		if vr.IsValid {
			result.ValidRows++
			continue
		}
		result.InvalidRows++
		for _, msg := range vr.Errors {
			result.Errors = append(result.Errors, RowError{
				Row:     i + 1,
				Field:   fieldOfError(msg),
				Message: msg,
			})
		}
	}
	return result
}

// fieldOfError extracts the canonical field name from a validator error
// message; validator messages always lead with the field name.
func fieldOfError(msg string) string {
	if i := strings.IndexByte(msg, ' '); i > 0 {
		return msg[:i]
	}
	return msg
}
