package dashboard

import (
	"bytes"
	"context"
	"fmt"

	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/ports"
)

// ExportKind selects which snapshot is exported.
type ExportKind string

const (
	ExportReports ExportKind = "reports"
	ExportMapping ExportKind = "mapping"
)

// File is a fully rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportSheet snapshots the report status of every Anggota for the selected
// period.
func (s *Session) ReportSheet() *domain.ReportSheet {
	p := s.Period()
	a := s.app
	a.mu.Lock()
	defer a.mu.Unlock()
	sheet := &domain.ReportSheet{Period: p}
	for _, u := range a.users {
		if u.Role != domain.RoleAnggota {
			continue
		}
		row := domain.ReportRow{Name: u.DisplayName(), Status: domain.StatusNotSent, File: "-"}
		if rep, ok := a.reports.Get(u.Username, p); ok {
			row.Status, row.File = rep.Status, rep.Filename
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// MappingSheet refreshes the mapping view and snapshots it with the photo
// bytes of every visible slot. Photos that can no longer be read are left out.
func (s *Session) MappingSheet(ctx context.Context) (*domain.MappingSheet, error) {
	s.Refresh(ctx)
	s.mu.Lock()
	p, view := s.period, s.view
	s.mu.Unlock()

	sheet := &domain.MappingSheet{Period: p}
	for i, reg := range view {
		row := domain.MappingRow{Region: reg.Region, Count: reg.Count()}
		for j, slot := range reg.Slots {
			if !slot.Filled() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			key := domain.ImageKey(p, i, j)
			data, ok, err := s.app.blobs.Get(ctx, key)
			if err != nil {
				s.app.log.Warn("read mapping photo", "key", key, "err", err)
				continue
			}
			if ok {
				row.Photos = append(row.Photos, domain.MappingPhoto{Key: key, Data: data})
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// Export renders kind with ex into memory. On failure no partial file is
// returned and the error wraps domain.ErrExportFailed.
func (s *Session) Export(ctx context.Context, ex ports.Exporter, kind ExportKind) (*File, error) {
	if _, err := s.requireUser(); err != nil {
		return nil, err
	}
	p := s.Period()
	var (
		buf  bytes.Buffer
		name string
		err  error
	)
	switch kind {
	case ExportReports:
		name = "Laporan_" + p.FileSuffix() + "." + ex.Format()
		err = ex.ExportReports(ctx, s.ReportSheet(), &buf)
	case ExportMapping:
		name = "BuktiMapping_" + p.FileSuffix() + "." + ex.Format()
		var sheet *domain.MappingSheet
		if sheet, err = s.MappingSheet(ctx); err == nil {
			err = ex.ExportMapping(ctx, sheet, &buf)
		}
	default:
		err = fmt.Errorf("unknown export %q", kind)
	}
	if err != nil {
		s.app.log.Error("export", "kind", kind, "format", ex.Format(), "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}
	return &File{Name: name, ContentType: ex.ContentType(), Data: buf.Bytes()}, nil
}
