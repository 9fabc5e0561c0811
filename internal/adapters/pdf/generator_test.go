package pdf_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/csg33k/telekolekting/internal/adapters/pdf"
	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/imaging"
)

func jpegPhoto(t *testing.T, key string) domain.MappingPhoto {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return domain.MappingPhoto{Key: key, Data: buf.Bytes()}
}

// pageCount counts page objects in an uncompressed-or-not PDF body.
func pageCount(b []byte) int {
	return bytes.Count(b, []byte("/Type /Page\n")) + bytes.Count(b, []byte("/Type /Page "))
}

func TestExportReports_WritesPDF(t *testing.T) {
	s := &domain.ReportSheet{
		Period: domain.Period{Year: "2025", Month: "Mei"},
		Rows:   []domain.ReportRow{{Name: "Anggota 1", Status: domain.StatusSent, File: "a.xlsx"}},
	}
	var buf bytes.Buffer
	if err := pdf.New(imaging.New()).ExportReports(context.Background(), s, &buf); err != nil {
		t.Fatalf("ExportReports: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestExportMapping_BreaksPages(t *testing.T) {
	s := &domain.MappingSheet{Period: domain.Period{Year: "2025", Month: "Mei"}}
	for r, name := range domain.Regions {
		row := domain.MappingRow{Region: name}
		if r < 2 {
			for i := 0; i < domain.SlotsPerRegion; i++ {
				row.Photos = append(row.Photos, jpegPhoto(t, domain.ImageKey(s.Period, r, i)))
			}
			row.Count = len(row.Photos)
		}
		s.Rows = append(s.Rows, row)
	}
	var buf bytes.Buffer
	if err := pdf.New(imaging.New()).ExportMapping(context.Background(), s, &buf); err != nil {
		t.Fatalf("ExportMapping: %v", err)
	}
	// 2 x 23 photos in 3 columns are 16 grid rows; an A4 landscape page holds 3.
	if n := pageCount(buf.Bytes()); n < 5 {
		t.Errorf("pages = %d, want at least 5", n)
	}
}

type brokenThumbs struct{}

func (brokenThumbs) Thumbnail([]byte, int) ([]byte, int, int, error) {
	return nil, 0, 0, errors.New("boom")
}

func TestExportMapping_SkipsUndecodablePhotos(t *testing.T) {
	s := &domain.MappingSheet{
		Period: domain.Period{Year: "2025", Month: "Mei"},
		Rows:   []domain.MappingRow{{Region: "Minahasa", Count: 1, Photos: []domain.MappingPhoto{{Key: "k", Data: []byte("x")}}}},
	}
	var buf bytes.Buffer
	if err := pdf.New(brokenThumbs{}).ExportMapping(context.Background(), s, &buf); err != nil {
		t.Fatalf("ExportMapping: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty output")
	}
}

func TestExportMapping_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &domain.MappingSheet{
		Rows: []domain.MappingRow{{Region: "Minahasa", Photos: []domain.MappingPhoto{jpegPhoto(t, "k")}}},
	}
	var buf bytes.Buffer
	if err := pdf.New(imaging.New()).ExportMapping(ctx, s, &buf); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
