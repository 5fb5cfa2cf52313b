package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Sheet is a day-by-period timetable grid. Cells is keyed by day then slot.
type Sheet struct {
	Title    string
	Subtitle string
	Days     []string
	Slots    []string
	Breaks   map[int]string
	Cells    map[string]map[string]string
}

// PDFExporter renders a Sheet as a landscape A4 grid.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws one row per day and one column per period. Breaks inserts a
// labelled narrow column before the slot at the given index.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Slots) == 0 || len(sheet.Days) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day and one period")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(8, 12, 8)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
	}
	if sheet.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, sheet.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	const (
		dayWidth   = 24.0
		breakWidth = 8.0
		rowHeight  = 16.0
		usable     = 281.0
	)
	slotWidth := (usable - dayWidth - breakWidth*float64(len(sheet.Breaks))) / float64(len(sheet.Slots))

	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(dayWidth, 8, "Day", "1", 0, "C", true, 0, "")
	for i, slot := range sheet.Slots {
		if _, ok := sheet.Breaks[i]; ok {
			pdf.CellFormat(breakWidth, 8, "", "1", 0, "C", true, 0, "")
		}
		pdf.CellFormat(slotWidth, 8, slot, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for _, day := range sheet.Days {
		x, y := pdf.GetXY()
		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(dayWidth, rowHeight, day, "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 7)
		cursor := x + dayWidth
		for i, slot := range sheet.Slots {
			if label, ok := sheet.Breaks[i]; ok {
				pdf.SetXY(cursor, y)
				pdf.CellFormat(breakWidth, rowHeight, breakInitial(label), "1", 0, "C", true, 0, "")
				cursor += breakWidth
			}
			pdf.Rect(cursor, y, slotWidth, rowHeight, "D")
			if text := sheet.Cells[day][slot]; text != "" {
				pdf.SetXY(cursor+0.5, y+1)
				pdf.MultiCell(slotWidth-1, 3.5, text, "", "C", false)
			}
			cursor += slotWidth
		}
		pdf.SetXY(x, y+rowHeight)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func breakInitial(label string) string {
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1])
}
