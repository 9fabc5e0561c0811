package domain

import "strconv"

// ReportRow is one exported report line.
type ReportRow struct {
	Name   string
	Status string
	File   string
}

// ReportSheet is the in-memory snapshot handed to report exporters.
type ReportSheet struct {
	Period Period
	Rows   []ReportRow
}

// MappingPhoto is one photo embedded in the mapping proof document.
type MappingPhoto struct {
	Key  string
	Data []byte // JPEG bytes
}

// MappingRow is one region line of the mapping export.
type MappingRow struct {
	Region string
	Count  int
	Photos []MappingPhoto
}

// CountLabel renders the "<count>/23" column value.
func (r MappingRow) CountLabel() string {
	return strconv.Itoa(r.Count) + "/" + strconv.Itoa(SlotsPerRegion)
}

// MappingSheet is the in-memory snapshot handed to mapping exporters.
type MappingSheet struct {
	Period Period
	Rows   []MappingRow
}
