package domain

import "errors"

// Sentinel errors. The message is the notice shown to the user.
var (
	ErrInvalidCredentials   = errors.New("Username atau password salah!")
	ErrNotLoggedIn          = errors.New("Silakan login terlebih dahulu")
	ErrForbidden            = errors.New("Hanya admin yang dapat melakukan aksi ini")
	ErrMissingMemberFields  = errors.New("Isi semua kolom untuk menambahkan anggota!")
	ErrUsernameTaken        = errors.New("Username sudah ada")
	ErrUserNotFound         = errors.New("Anggota tidak ditemukan")
	ErrPhotoTooLarge        = errors.New("Ukuran foto maksimal 8 MB per file.")
	ErrProfilePhotoTooLarge = errors.New("Ukuran foto maksimal 5 MB")
	ErrNotAnImage           = errors.New("File harus berupa gambar")
	ErrNoPendingFile        = errors.New("Pilih file terlebih dahulu")
	ErrNoFile               = errors.New("Tidak ada file yang dipilih")
	ErrInvalidPeriod        = errors.New("Periode tidak valid")
	ErrInvalidRegion        = errors.New("Kabupaten/Kota tidak valid")
	ErrPeriodChanged        = errors.New("Periode berubah saat upload berlangsung")
	ErrUploadFailed         = errors.New("Gagal mengunggah foto")
	ErrExportFailed         = errors.New("Gagal mengekspor dokumen")
)
