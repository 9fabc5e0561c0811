package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the roster role of a user.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleAnggota Role = "Anggota"
)

// Report status values. Only a sent report is ever stored; an absent
// record renders as StatusNotSent.
const (
	StatusSent    = "Terkirim"
	StatusNotSent = "Belum Dikirim"
)

const (
	SlotsPerRegion = 23
	TotalSlots     = SlotsPerRegion * 9
)

// Regions lists the kabupaten/kota tracked for mapping photos, in display order.
// The index of a region is part of its blob keys and must never change.
var Regions = [...]string{
	"Minahasa",
	"Bolmong",
	"Minsel",
	"Tomohon",
	"Kota Mobagu",
	"Mitra",
	"Bolmut",
	"Bolsel",
	"Boltim",
}

var Months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var Years = [...]string{"2024", "2025", "2026", "2027", "2028", "2029", "2030"}

// User is one roster entry. Password is kept in plaintext; the login check
// is a demo-grade linear scan and not a security boundary.
type User struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Role     Role    `json:"role"`
	Name     string  `json:"name"`
	Photo    *string `json:"photo"` // data URL, nil when unset
}

// DisplayName returns Name, falling back to Username.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// DefaultUsers is the roster seeded when no roster document exists yet.
func DefaultUsers() []User {
	return []User{
		{Username: "Tian16", Password: "Walelang16", Role: RoleAdmin, Name: "Admin"},
		{Username: "tim1", Password: "tim123", Role: RoleAnggota, Name: "Anggota 1"},
		{Username: "tim2", Password: "tim123", Role: RoleAnggota, Name: "Anggota 2"},
		{Username: "tim3", Password: "tim123", Role: RoleAnggota, Name: "Anggota 3"},
	}
}

// Report is the submission record of one user for one period.
type Report struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// Reports is the persisted report document: username -> year -> month -> record.
type Reports map[string]map[string]map[string]Report

// Get returns the record for (username, period) if one exists.
func (r Reports) Get(username string, p Period) (Report, bool) {
	rep, ok := r[username][p.Year][p.Month]
	return rep, ok
}

// Set stores rep for (username, period), creating intermediate maps.
func (r Reports) Set(username string, p Period, rep Report) {
	years, ok := r[username]
	if !ok {
		years = map[string]map[string]Report{}
		r[username] = years
	}
	months, ok := years[p.Year]
	if !ok {
		months = map[string]Report{}
		years[p.Year] = months
	}
	months[p.Month] = rep
}

// Period is a (year, month) pair, using the Indonesian month names in Months.
type Period struct {
	Year  string
	Month string
}

// CurrentPeriod returns the period containing t.
func CurrentPeriod(t time.Time) Period {
	return Period{Year: fmt.Sprint(t.Year()), Month: Months[t.Month()-1]}
}

// Valid reports whether both parts are selectable values.
func (p Period) Valid() bool {
	return contains(Years[:], p.Year) && contains(Months[:], p.Month)
}

func (p Period) String() string { return p.Month + " " + p.Year }

// Label is the upper-case subtitle form used on exported documents.
func (p Period) Label() string {
	return "PERIODE: " + strings.ToUpper(p.Month) + " " + p.Year
}

// FileSuffix is the "{Month}_{Year}" fragment used in sheet and file names.
func (p Period) FileSuffix() string { return p.Month + "_" + p.Year }

// ImageKey is the blob-store key of one mapping photo.
func ImageKey(p Period, regionIndex, photoIndex int) string {
	return fmt.Sprintf("mapping:%s:%s:r%d:p%d", p.Year, p.Month, regionIndex, photoIndex)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
