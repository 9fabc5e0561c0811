// Package pdf renders the monthly report table and the mapping proof sheet.
// Both documents are A4 landscape in points, set in Times, with a centred
// title and period subtitle. The mapping sheet lays every region's photos out
// in a three-column grid and starts a new page when the grid runs out of room.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/csg33k/telekolekting/internal/domain"
)

const (
	ReportTitle  = "LAPORAN BULANAN TELEKOLEKTING KC TONDANO"
	MappingTitle = "BUKTI MAPPING TELEKOLEKTING KC TONDANO"

	marginTop   = 40.0
	marginLeft  = 40.0
	marginBase  = 60.0 // free space kept at the bottom of every page
	contentTop  = marginTop + 70
	gridCols    = 3
	gridGap     = 12.0
	thumbHeight = 120.0
	thumbGap    = 8.0
)

// Thumbnailer shrinks a stored photo to the height used in the grid.
type Thumbnailer interface {
	Thumbnail(raw []byte, maxHeight int) (data []byte, width, height int, err error)
}

type Generator struct {
	thumbs Thumbnailer
}

func New(thumbs Thumbnailer) *Generator {
	return &Generator{thumbs: thumbs}
}

func (g *Generator) Format() string      { return "pdf" }
func (g *Generator) ContentType() string { return "application/pdf" }

// ExportReports writes the report table for one period to w.
func (g *Generator) ExportReports(ctx context.Context, s *domain.ReportSheet, w io.Writer) error {
	pdf := newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	drawTitle(pdf, tr(ReportTitle), tr(s.Period.Label()))

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*marginLeft
	widths := []float64{contentW * 0.40, contentW * 0.25, contentW * 0.35}
	rowH := 11 + 2*6.0 // font size plus cell padding

	header := func(y float64) float64 {
		pdf.SetFont("Times", "B", 11)
		pdf.SetFillColor(255, 255, 255)
		pdf.SetXY(marginLeft, y)
		for i, h := range []string{"Nama Anggota", "Status Laporan", "File"} {
			pdf.CellFormat(widths[i], rowH, tr(h), "1", 0, "L", true, 0, "")
		}
		return y + rowH
	}

	y := header(contentTop)
	pdf.SetFont("Times", "", 11)
	for _, r := range s.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if y+rowH > pageH-marginTop {
			pdf.AddPage()
			y = header(marginTop)
			pdf.SetFont("Times", "", 11)
		}
		pdf.SetXY(marginLeft, y)
		for i, v := range []string{r.Name, r.Status, r.File} {
			pdf.CellFormat(widths[i], rowH, tr(v), "1", 0, "L", false, 0, "")
		}
		y += rowH
	}
	return pdf.Output(w)
}

// ExportMapping writes the per-region photo grid for one period to w.
// Photos that cannot be decoded are left out of the grid.
func (g *Generator) ExportMapping(ctx context.Context, s *domain.MappingSheet, w io.Writer) error {
	pdf := newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	drawTitle(pdf, tr(MappingTitle), tr(s.Period.Label()))

	pageW, pageH := pdf.GetPageSize()
	usableW := pageW - 2*marginLeft
	colW := (usableW - gridGap*(gridCols-1)) / gridCols
	limit := pageH - marginBase

	y := contentTop
	for _, row := range s.Rows {
		if y+20 > limit {
			pdf.AddPage()
			y = contentTop
		}
		pdf.SetFont("Times", "B", 12)
		pdf.Text(marginLeft, y, tr(row.Region))
		pdf.SetFont("Times", "", 10)
		pdf.Text(marginLeft+240, y, fmt.Sprintf("%d/%d Foto", row.Count, domain.SlotsPerRegion))
		y += 18

		if len(row.Photos) > 0 {
			rowY := y
			for i, photo := range row.Photos {
				if err := ctx.Err(); err != nil {
					return err
				}
				col := i % gridCols
				if i > 0 && col == 0 {
					rowY += thumbHeight + thumbGap
				}
				if col == 0 && rowY+thumbHeight > limit {
					pdf.AddPage()
					rowY = contentTop
				}
				x := marginLeft + float64(col)*(colW+gridGap)
				if err := g.drawThumb(pdf, photo, x, rowY, colW); err != nil {
					return err
				}
			}
			y = rowY + thumbHeight + thumbGap + 8
		} else {
			y += 8
		}

		if y+20 > limit {
			pdf.AddPage()
			y = contentTop
		}
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Line(marginLeft, y, pageW-marginLeft, y)
		y += 14
	}
	return pdf.Output(w)
}

// drawThumb centres one photo inside its grid cell.
func (g *Generator) drawThumb(pdf *fpdf.Fpdf, photo domain.MappingPhoto, x, y, colW float64) error {
	data, pw, ph, err := g.thumbs.Thumbnail(photo.Data, int(thumbHeight))
	if err != nil || pw == 0 || ph == 0 {
		return nil
	}
	pdf.RegisterImageOptionsReader(photo.Key, fpdf.ImageOptions{ImageType: "JPEG"}, bytes.NewReader(data))
	if pdf.Err() {
		return pdf.Error()
	}
	ratio := float64(pw) / float64(ph)
	h := min(thumbHeight, float64(ph))
	w := h * ratio
	if w > colW {
		w = colW
		h = w / ratio
	}
	pdf.ImageOptions(photo.Key, x+(colW-w)/2, y, w, h, false, fpdf.ImageOptions{ImageType: "JPEG"}, 0, "")
	return nil
}

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

func drawTitle(pdf *fpdf.Fpdf, title, subtitle string) {
	pageW, _ := pdf.GetPageSize()
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Times", "", 16)
	pdf.SetXY(0, marginTop+8)
	pdf.CellFormat(pageW, 16, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "", 12)
	pdf.SetXY(0, marginTop+30)
	pdf.CellFormat(pageW, 12, subtitle, "", 1, "C", false, 0, "")
}
