// Package export writes aligned rows as spreadsheet or PDF tables.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/rubiojr/signalscope/pkg/chart"
	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	sheetName = "aligned"
)

// Table is the tabular form shared by every export format: one column for
// the timestamp followed by a value and a quality column per tag.
type Table struct {
	Title     string
	UnitLabel string
	Tags      []sensor.FlattenedTag
	Rows      []series.Row
}

func NewTable(title string, tags []sensor.FlattenedTag, rows []series.Row) Table {
	return Table{
		Title:     title,
		UnitLabel: series.UnitLabel(tags),
		Tags:      tags,
		Rows:      rows,
	}
}

// Header returns the column titles.
func (t Table) Header() []string {
	header := []string{"Timestamp"}
	for _, tag := range t.Tags {
		name := tag.FullPath
		if tag.Unit != "" {
			name += " (" + tag.Unit + ")"
		}
		header = append(header, name, tag.Label+" quality")
	}
	return header
}

// Records returns one string record per row, aligned with Header. Absent
// readings are empty strings.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, 0, 1+2*len(t.Tags))
		record = append(record, row.Timestamp)
		for _, tag := range t.Tags {
			p, ok := row.Lookup(tag.ID)
			if !ok {
				record = append(record, "", "")
				continue
			}
			record = append(record, chart.FormatValue(p.Value), string(p.Quality))
		}
		records = append(records, record)
	}
	return records
}

// XLSX renders the table as a single-sheet workbook. Absent readings are
// left as empty cells.
func XLSX(t Table) ([]byte, error) {
	start := time.Now()
	data, err := buildXLSX(t)
	metrics.ObserveExport(FormatXLSX, err, time.Since(start))
	return data, err
}

func buildXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	for col, title := range t.Header() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheetName, cell, title)
	}

	for i, row := range t.Rows {
		r := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.Timestamp)
		for j, tag := range t.Tags {
			p, ok := row.Lookup(tag.ID)
			if !ok {
				continue
			}
			valueCell, _ := excelize.CoordinatesToCellName(2+j*2, r)
			qualityCell, _ := excelize.CoordinatesToCellName(3+j*2, r)
			_ = f.SetCellValue(sheetName, valueCell, p.Value)
			_ = f.SetCellValue(sheetName, qualityCell, string(p.Quality))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders the table on landscape A4 pages.
func PDF(t Table) ([]byte, error) {
	start := time.Now()
	data, err := buildPDF(t)
	metrics.ObserveExport(FormatPDF, err, time.Since(start))
	return data, err
}

func buildPDF(t Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.Cell(0, 8, tr(t.Title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if t.UnitLabel != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Unit: %s", t.UnitLabel)))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d", len(t.Rows)))
	pdf.Ln(8)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	tsWidth := 48.0
	colWidth := 30.0
	if n := len(t.Tags); n > 0 {
		colWidth = (pageWidth - left - right - tsWidth) / float64(n)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(tsWidth, 6, "Timestamp", "1", 0, "C", false, 0, "")
	for _, tag := range t.Tags {
		label := tag.Label
		if tag.Unit != "" {
			label += " (" + tag.Unit + ")"
		}
		pdf.CellFormat(colWidth, 6, tr(label), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range t.Rows {
		pdf.CellFormat(tsWidth, 6, tr(row.Timestamp), "1", 0, "L", false, 0, "")
		for _, tag := range t.Tags {
			text := ""
			if p, ok := row.Lookup(tag.ID); ok {
				text = fmt.Sprintf("%s [%s]", chart.FormatValue(p.Value), p.Quality)
			}
			pdf.CellFormat(colWidth, 6, text, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
