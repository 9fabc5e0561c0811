package domain

import (
	"bytes"
	"encoding/json"
)

// Presence is one persisted slot flag. Decoding is lenient so that documents
// written by older clients (photo URLs or null instead of booleans) still load:
// any non-empty, non-false value counts as filled.
type Presence bool

func (p *Presence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "", "null", "false", `""`, "0":
		*p = false
	default:
		*p = true
	}
	return nil
}

// PresenceList decodes to nil when the stored value is not an array.
type PresenceList []Presence

func (l *PresenceList) UnmarshalJSON(b []byte) error {
	var raw []Presence
	if err := json.Unmarshal(b, &raw); err != nil {
		*l = nil
		return nil
	}
	*l = raw
	return nil
}

// Filled reports whether slot i is marked filled; out-of-range reads as empty.
func (l PresenceList) Filled(i int) bool {
	return i >= 0 && i < len(l) && bool(l[i])
}

// RegionRecord is the persisted presence state of one region for one period.
type RegionRecord struct {
	Region string       `json:"region"`
	Photos PresenceList `json:"photos"`
}

// PeriodRecord is the persisted region array of one period. A stored value
// that is not an array decodes to nil and is treated as absent.
type PeriodRecord []RegionRecord

func (r *PeriodRecord) UnmarshalJSON(b []byte) error {
	var raw []RegionRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		*r = nil
		return nil
	}
	*r = raw
	return nil
}

// WellFormed reports whether the record has exactly one entry per region.
func (r PeriodRecord) WellFormed() bool { return len(r) == len(Regions) }

// EmptyPeriodRecord returns an all-empty 9x23 record.
func EmptyPeriodRecord() PeriodRecord {
	out := make(PeriodRecord, len(Regions))
	for i, name := range Regions {
		out[i] = RegionRecord{Region: name, Photos: make(PresenceList, SlotsPerRegion)}
	}
	return out
}

// Clone returns a deep copy, normalising every region to exactly 23 flags.
func (r PeriodRecord) Clone() PeriodRecord {
	if !r.WellFormed() {
		return EmptyPeriodRecord()
	}
	out := make(PeriodRecord, len(r))
	for i, reg := range r {
		name := reg.Region
		if name == "" {
			name = Regions[i]
		}
		photos := make(PresenceList, SlotsPerRegion)
		for j := range photos {
			photos[j] = Presence(reg.Photos.Filled(j))
		}
		out[i] = RegionRecord{Region: name, Photos: photos}
	}
	return out
}

// MappingDocument is the persisted mapping metadata: year -> month -> regions.
// It holds presence only, never photo bytes.
type MappingDocument map[string]map[string]PeriodRecord

// Get returns the stored record for p, or nil.
func (d MappingDocument) Get(p Period) PeriodRecord {
	return d[p.Year][p.Month]
}

// Set replaces the record for p.
func (d MappingDocument) Set(p Period, rec PeriodRecord) {
	months, ok := d[p.Year]
	if !ok {
		months = map[string]PeriodRecord{}
		d[p.Year] = months
	}
	months[p.Month] = rec
}

// Remove drops the record for p and leaves other periods untouched.
func (d MappingDocument) Remove(p Period) {
	if months, ok := d[p.Year]; ok {
		delete(months, p.Month)
	}
}

// Slot is one displayed photo position. Ref is a URL the page can load;
// Pending marks a slot reserved by an upload that has not finished yet.
type Slot struct {
	Ref     string
	Pending bool
}

func (s Slot) Filled() bool { return s.Ref != "" }

// RegionView is the reconciled, displayable state of one region.
type RegionView struct {
	Index  int
	Region string
	Slots  [SlotsPerRegion]Slot
}

// Count returns the number of displayable photos.
func (r RegionView) Count() int {
	n := 0
	for _, s := range r.Slots {
		if s.Filled() {
			n++
		}
	}
	return n
}

// MappingView is the per-session rebuilt 9x23 slot array.
type MappingView [len(Regions)]RegionView

// EmptyMappingView returns a view with every slot empty.
func EmptyMappingView() MappingView {
	var v MappingView
	for i, name := range Regions {
		v[i] = RegionView{Index: i, Region: name}
	}
	return v
}

// Filled returns the number of displayable photos across all regions.
func (v *MappingView) Filled() int {
	n := 0
	for i := range v {
		n += v[i].Count()
	}
	return n
}

// Progress returns the percentage of filled slots out of TotalSlots.
func (v *MappingView) Progress() float64 {
	return float64(v.Filled()) / float64(TotalSlots) * 100
}
