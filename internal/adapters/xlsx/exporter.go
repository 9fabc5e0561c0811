// Package xlsx writes the report and mapping summaries as Excel workbooks.
// Each workbook holds one sheet named "{Month}_{Year}" with a header row.
package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/csg33k/telekolekting/internal/domain"
)

var (
	ReportHeader  = []string{"Nama Anggota", "Status Laporan", "File"}
	MappingHeader = []string{"Kabupaten/Kota", "Jumlah Foto"}
)

type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string { return "xlsx" }

func (e *Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *Exporter) ExportReports(_ context.Context, s *domain.ReportSheet, w io.Writer) error {
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{r.Name, r.Status, r.File})
	}
	return writeSheet(w, s.Period.FileSuffix(), ReportHeader, rows)
}

func (e *Exporter) ExportMapping(_ context.Context, s *domain.MappingSheet, w io.Writer) error {
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{r.Region, r.CountLabel()})
	}
	return writeSheet(w, s.Period.FileSuffix(), MappingHeader, rows)
}

func writeSheet(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "C", 24); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
