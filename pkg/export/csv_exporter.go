package export

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// ScheduleRow is one exported teaching period.
type ScheduleRow struct {
	Day              string `csv:"day"`
	TimeSlot         string `csv:"time_slot"`
	SubjectCode      string `csv:"subject_code"`
	Subject          string `csv:"subject"`
	Faculty          string `csv:"faculty"`
	Classroom        string `csv:"classroom"`
	BlockSize        int    `csv:"block_size"`
	Lab              bool   `csv:"is_lab"`
	Temporary        bool   `csv:"is_temporary_allocation"`
	OriginalOwner    string `csv:"original_owner"`
	AllocationReason string `csv:"allocation_reason"`
}

// CSVExporter renders schedule rows as CSV with a header line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for rows.
func (e *CSVExporter) Render(rows []ScheduleRow) ([]byte, error) {
	if rows == nil {
		rows = []ScheduleRow{}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule csv: %w", err)
	}
	return out, nil
}
