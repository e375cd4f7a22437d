package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a tabular A4 PDF.
type PDFExporter struct {
	landscape bool
}

// NewPDFExporter constructs a PDF exporter. Weekly grids read better in landscape.
func NewPDFExporter(landscape bool) *PDFExporter {
	return &PDFExporter{landscape: landscape}
}

// Render creates a PDF document with an optional title and table body. Cell values
// may span several lines separated by "\n".
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, pageWidth := "P", 190.0
	if e.landscape {
		orientation, pageWidth = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	colWidth := pageWidth / float64(len(data.Headers))
	const lineHeight = 5.0

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		lines := 1
		for _, header := range data.Headers {
			if n := strings.Count(row[header], "\n") + 1; n > lines {
				lines = n
			}
		}
		height := float64(lines)*lineHeight + 2
		if pdf.GetY()+height > pageBottom(pdf) {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()
		for i, header := range data.Headers {
			cellX := x + float64(i)*colWidth
			pdf.Rect(cellX, y, colWidth, height, "D")
			pdf.SetXY(cellX, y+1)
			pdf.MultiCell(colWidth, lineHeight, row[header], "", "L", false)
		}
		pdf.SetXY(x, y+height)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pageBottom(pdf *gofpdf.Fpdf) float64 {
	_, height := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	return height - bottom
}
