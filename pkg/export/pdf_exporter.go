package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RGB is a colour triple in the 0-255 range.
type RGB struct{ R, G, B int }

// PDFStyle controls the grid table layout. Lengths are millimetres, font
// sizes points.
type PDFStyle struct {
	Margin        float64
	TitleY        float64
	TitleSize     float64
	TableStartY   float64
	FontSize      float64
	FooterSize    float64
	FooterOffset  float64
	CellPadding   float64
	MinCellHeight float64
	LineWidth     float64
	LineHeight    float64
	LineColor     RGB
	TextColor     RGB
	HeadFill      RGB
	BodyFill      RGB
}

// DefaultPDFStyle is the participant list layout: a grid with a light grey
// bold header and dark slate lines.
var DefaultPDFStyle = PDFStyle{
	Margin:        14,
	TitleY:        18,
	TitleSize:     18,
	TableStartY:   36,
	FontSize:      10,
	FooterSize:    11,
	FooterOffset:  10,
	CellPadding:   3,
	MinCellHeight: 8,
	LineWidth:     0.5,
	LineHeight:    1.15,
	LineColor:     RGB{44, 62, 80},
	TextColor:     RGB{44, 62, 80},
	HeadFill:      RGB{236, 240, 241},
	BodyFill:      RGB{255, 255, 255},
}

// PDFExporter renders datasets into a landscape grid table. The title is
// printed on the first page, the header row appears on the first page only
// and the footer is printed on the last page only.
type PDFExporter struct {
	style    PDFStyle
	compress bool
}

// NewPDFExporter constructs a PDF exporter with the default style.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{style: DefaultPDFStyle, compress: true}
}

// Render creates the PDF document bytes.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	pdf, err := e.build(data)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) build(data Dataset) (*gofpdf.Fpdf, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	st := e.style
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(st.Margin, st.Margin, st.Margin)
	pdf.SetAutoPageBreak(false, st.Margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	if data.Title != "" {
		pdf.SetFont("Helvetica", "", st.TitleSize)
		pdf.SetTextColor(0, 0, 0)
		title := tr(data.Title)
		pdf.Text((pageW-pdf.GetStringWidth(title))/2, st.TitleY, title)
	}

	t := &pdfTable{pdf: pdf, style: st, tr: tr, bottom: pageH - st.Margin}
	t.widths = t.columnWidths(data, pageW-2*st.Margin)
	t.y = st.TableStartY

	t.drawRow(data.Headers, true)
	for i := range data.Rows {
		t.drawRow(data.record(i), false)
	}

	if data.Footer != "" {
		pdf.SetFont("Helvetica", "", st.FooterSize)
		pdf.SetTextColor(0, 0, 0)
		footer := tr(data.Footer)
		pdf.Text((pageW-pdf.GetStringWidth(footer))/2, pageH-st.FooterOffset, footer)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	return pdf, nil
}

type pdfTable struct {
	pdf    *gofpdf.Fpdf
	style  PDFStyle
	tr     func(string) string
	widths []float64
	y      float64
	bottom float64
}

func (t *pdfTable) lineHeight() float64 {
	return t.style.FontSize * t.style.LineHeight * 25.4 / 72
}

func (t *pdfTable) setFont(header bool) {
	if header {
		t.pdf.SetFont("Helvetica", "B", t.style.FontSize)
		return
	}
	t.pdf.SetFont("Helvetica", "", t.style.FontSize)
}

// columnWidths sizes columns by their widest content and scales the result to
// span the usable page width.
func (t *pdfTable) columnWidths(data Dataset, usable float64) []float64 {
	natural := make([]float64, len(data.Headers))
	t.setFont(true)
	for i, header := range data.Headers {
		natural[i] = t.pdf.GetStringWidth(t.tr(header))
	}
	t.setFont(false)
	for r := range data.Rows {
		for i, value := range data.record(r) {
			if w := t.pdf.GetStringWidth(t.tr(value)); w > natural[i] {
				natural[i] = w
			}
		}
	}

	total := 0.0
	for i := range natural {
		natural[i] += 2 * t.style.CellPadding
		total += natural[i]
	}
	scale := usable / total
	for i := range natural {
		natural[i] *= scale
	}
	return natural
}

func (t *pdfTable) drawRow(cells []string, header bool) {
	st := t.style
	t.setFont(header)
	lh := t.lineHeight()

	lines := make([][]string, len(cells))
	height := st.MinCellHeight
	for i, cell := range cells {
		lines[i] = t.split(cell, t.widths[i]-2*st.CellPadding)
		if h := float64(len(lines[i]))*lh + 2*st.CellPadding; h > height {
			height = h
		}
	}

	if t.y+height > t.bottom && t.y > st.Margin {
		t.pdf.AddPage()
		t.y = st.Margin
		t.setFont(header)
	}

	fill := st.BodyFill
	if header {
		fill = st.HeadFill
	}
	t.pdf.SetLineWidth(st.LineWidth)
	t.pdf.SetDrawColor(st.LineColor.R, st.LineColor.G, st.LineColor.B)
	t.pdf.SetFillColor(fill.R, fill.G, fill.B)
	t.pdf.SetTextColor(st.TextColor.R, st.TextColor.G, st.TextColor.B)

	x := st.Margin
	for i, cellLines := range lines {
		w := t.widths[i]
		t.pdf.Rect(x, t.y, w, height, "FD")
		top := t.y + (height-float64(len(cellLines))*lh)/2
		for j, line := range cellLines {
			t.pdf.SetXY(x, top+float64(j)*lh)
			t.pdf.CellFormat(w, lh, line, "", 0, "C", false, 0, "")
		}
		x += w
	}
	t.y += height
}

func (t *pdfTable) split(text string, width float64) []string {
	if text == "" {
		return []string{""}
	}
	raw := t.pdf.SplitLines([]byte(t.tr(text)), width)
	if len(raw) == 0 {
		return []string{""}
	}
	out := make([]string, len(raw))
	for i, line := range raw {
		out[i] = string(line)
	}
	return out
}
