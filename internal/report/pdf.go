package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays out sections as an A4 document, one block per section.
// Bullet lines are indented and marked, other lines are set as paragraphs.
func RenderPDF(title string, sections []Section) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	// core fonts are cp1252; "•" exists there
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, tr(title), "", "L", false)
		pdf.Ln(4)
	}

	for _, s := range sections {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(s.Name), "", "L", false)
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "", 10)
		for _, l := range s.Lines() {
			switch {
			case l.Bullet:
				pdf.SetX(pdf.GetX() + 4)
				pdf.MultiCell(0, 5, tr(BulletPrefix+l.Text), "", "L", false)
			case l.Text == "":
				pdf.Ln(3)
			default:
				pdf.MultiCell(0, 5, tr(l.Text), "", "L", false)
			}
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
