package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

// jsonRecord is the public JSON exchange shape: exactly the exported record
// fields, nothing internal (no id, no validation message, no timestamps).
type jsonRecord struct {
	SampleID        string  `json:"sampleId"`
	SampleType      string  `json:"sampleType"`
	Parameter       string  `json:"parameter"`
	Value           float64 `json:"value"`
	Unit            string  `json:"unit"`
	MeasurementDate string  `json:"measurementDate"`
	MeasurementTime string  `json:"measurementTime"`
	Analyst         string  `json:"analyst"`
	Instrument      string  `json:"instrument"`
	Method          string  `json:"method"`
	Status          string  `json:"status"`
	IsValid         bool    `json:"isValid"`
}

func toJSONRecord(r models.MonitoringDataRecord) jsonRecord {
	return jsonRecord{
		SampleID:        r.SampleID,
		SampleType:      r.SampleType,
		Parameter:       r.Parameter,
		Value:           r.Value,
		Unit:            r.Unit,
		MeasurementDate: r.MeasurementDate,
		MeasurementTime: r.MeasurementTime,
		Analyst:         r.Analyst,
		Instrument:      r.Instrument,
		Method:          r.Method,
		Status:          string(r.Status),
		IsValid:         r.IsValid,
	}
}

func fromJSONRecord(r jsonRecord) models.MonitoringDataRecord {
	return models.MonitoringDataRecord{
		SampleID:        r.SampleID,
		SampleType:      r.SampleType,
		Parameter:       r.Parameter,
		Value:           r.Value,
		Unit:            r.Unit,
		MeasurementDate: r.MeasurementDate,
		MeasurementTime: r.MeasurementTime,
		Analyst:         r.Analyst,
		Instrument:      r.Instrument,
		Method:          r.Method,
		Status:          models.RecordStatus(r.Status),
		IsValid:         r.IsValid,
	}
}

// ExportJSON renders records as a JSON array of exchange objects.
func ExportJSON(records []models.MonitoringDataRecord) ([]byte, error) {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toJSONRecord(r))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	return data, nil
}

// ImportJSON parses a JSON array of exchange objects back into records.
// The structural round trip with ExportJSON is exact.
func ImportJSON(data []byte) ([]models.MonitoringDataRecord, error) {
	var raw []jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	records := make([]models.MonitoringDataRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, fromJSONRecord(r))
	}
	return records, nil
}
