package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/csg33k/telekolekting/internal/dashboard"
	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/imaging"
	"github.com/csg33k/telekolekting/internal/ports"
	"github.com/csg33k/telekolekting/internal/templates"
)

const (
	sessionCookie = "telekolekting_session"
	maxFormMemory = 32 << 20
	maxBatchBytes = 256 << 20
)

type Handler struct {
	app       *dashboard.App
	exporters map[string]ports.Exporter
	log       *slog.Logger
}

func New(app *dashboard.App, log *slog.Logger, exporters ...ports.Exporter) *Handler {
	h := &Handler{app: app, exporters: map[string]ports.Exporter{}, log: log}
	for _, ex := range exporters {
		h.exporters[ex.Format()] = ex
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("POST /period", h.selectPeriod)
	mux.HandleFunc("POST /members", h.addMember)
	mux.HandleFunc("POST /members/{username}", h.editMember)
	mux.HandleFunc("POST /members/{username}/photo", h.memberPhoto)
	mux.HandleFunc("POST /members/{username}/delete", h.deleteMember)
	mux.HandleFunc("POST /reports/cancel", h.cancelSend)
	mux.HandleFunc("POST /reports/{username}/choose", h.chooseReport)
	mux.HandleFunc("GET /reports/{username}/confirm", h.confirmReport)
	mux.HandleFunc("POST /reports/{username}/send", h.sendReport)
	mux.HandleFunc("POST /reports/{username}/replace", h.replaceReport)
	mux.HandleFunc("POST /mapping/{region}/upload", h.uploadPhotos)
	mux.HandleFunc("POST /mapping/save", h.saveMapping)
	mux.HandleFunc("POST /mapping/wipe", h.wipeMapping)
	mux.HandleFunc("GET /mapping/photos/{year}/{month}/{region}/{slot}", h.photo)
	mux.HandleFunc("GET /export/{file}", h.export)
	return mux
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	u, ok := s.User()
	if !ok {
		render(w, r, templates.Login(templates.LoginPage{Notices: s.Notices()}))
		return
	}

	q := r.URL.Query()
	tab := q.Get("tab")
	switch tab {
	case templates.TabLaporan, templates.TabMapping:
	default:
		tab = templates.TabAnggota
	}

	p := s.Period()
	s.Refresh(r.Context())
	view, progress := s.Mapping()
	page := templates.DashboardPage{
		User:     u,
		Tab:      tab,
		Period:   p,
		Months:   domain.Months[:],
		Years:    domain.Years[:],
		Members:  h.app.Members(),
		Mapping:  view,
		Progress: progress,
	}
	for _, m := range page.Members {
		line := templates.ReportLine{User: m}
		line.Report, line.Sent = h.app.Report(m.Username, p)
		line.Pending, _ = s.PendingFile(m.Username)
		page.Reports = append(page.Reports, line)
	}
	if c, ok := s.Confirmation(); ok {
		page.Confirm = &c
	}
	if u.IsAdmin() {
		page.Edit = findUser(h.app.Users(), q.Get("edit"))
		page.Delete = findUser(h.app.Users(), q.Get("delete"))
	}
	page.Notices = s.Notices()
	render(w, r, templates.Dashboard(page))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if err := s.Login(r.FormValue("username"), r.FormValue("password")); err != nil {
		h.fail(s, err)
	} else {
		u, _ := s.User()
		s.Notify(dashboard.NoticeSuccess, "Selamat datang, "+u.DisplayName())
	}
	redirect(w, r, "/")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Logout()
	s.Notify(dashboard.NoticeSuccess, "Berhasil logout")
	redirect(w, r, "/")
}

func (h *Handler) selectPeriod(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	p := domain.Period{Year: r.FormValue("year"), Month: r.FormValue("month")}
	if err := s.SelectPeriod(r.Context(), p); err != nil {
		h.fail(s, err)
	}
	redirect(w, r, tabURL(r.FormValue("tab")))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	name := r.FormValue("name")
	if err := s.AddMember(r.Context(), name, r.FormValue("username"), r.FormValue("password")); err != nil {
		h.fail(s, err)
	} else {
		s.Notify(dashboard.NoticeSuccess, fmt.Sprintf("Anggota %s ditambahkan", strings.TrimSpace(name)))
	}
	redirect(w, r, tabURL(templates.TabAnggota))
}

func (h *Handler) editMember(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	form := dashboard.ProfileEdit{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if err := s.EditProfile(r.Context(), r.PathValue("username"), form); err != nil {
		h.fail(s, err)
	} else {
		s.Notify(dashboard.NoticeSuccess, "Perubahan profil tersimpan")
	}
	redirect(w, r, tabURL(templates.TabAnggota))
}

func (h *Handler) memberPhoto(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	target := r.PathValue("username")
	back := tabURL(templates.TabAnggota) + "&edit=" + url.QueryEscape(target)

	file, header, err := h.formFile(w, r, "photo")
	if err != nil {
		h.fail(s, err)
		redirect(w, r, back)
		return
	}
	defer file.Close()
	if header.Size > h.app.MaxProfilePhotoBytes() {
		h.fail(s, domain.ErrProfilePhotoTooLarge)
		redirect(w, r, back)
		return
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if !imaging.IsImage(raw) {
		h.fail(s, domain.ErrNotAnImage)
		redirect(w, r, back)
		return
	}
	photo, err := s.PrepareProfilePhoto(raw)
	if err == nil {
		err = s.EditProfile(r.Context(), target, dashboard.ProfileEdit{Photo: &photo})
	}
	if err != nil {
		h.fail(s, err)
	} else {
		s.Notify(dashboard.NoticeSuccess, "Perubahan profil tersimpan")
	}
	redirect(w, r, back)
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	target := r.PathValue("username")
	if err := s.DeleteMember(r.Context(), target); err != nil {
		h.fail(s, err)
	} else {
		s.Notify(dashboard.NoticeSuccess, fmt.Sprintf("Anggota %s dihapus", target))
	}
	redirect(w, r, tabURL(templates.TabAnggota))
}

func (h *Handler) chooseReport(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if name, ok := h.reportFilename(w, r, s); ok {
		if err := s.ChooseReportFile(r.PathValue("username"), name); err != nil {
			h.fail(s, err)
		}
	}
	redirect(w, r, tabURL(templates.TabLaporan))
}

func (h *Handler) confirmReport(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if _, err := s.PrepareSend(r.PathValue("username")); err != nil {
		h.fail(s, err)
	}
	redirect(w, r, tabURL(templates.TabLaporan))
}

func (h *Handler) cancelSend(w http.ResponseWriter, r *http.Request) {
	h.session(w, r).CancelSend()
	redirect(w, r, tabURL(templates.TabLaporan))
}

func (h *Handler) sendReport(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	c, err := s.ConfirmSend(r.Context(), r.PathValue("username"))
	if err != nil {
		h.fail(s, err)
	} else {
		s.Notify(dashboard.NoticeSuccess, fmt.Sprintf("Laporan %s berhasil dikirim untuk %s", c.Filename, c.Username))
	}
	redirect(w, r, tabURL(templates.TabLaporan))
}

func (h *Handler) replaceReport(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if name, ok := h.reportFilename(w, r, s); ok {
		if err := s.ReplaceReport(r.Context(), r.PathValue("username"), name); err != nil {
			h.fail(s, err)
		} else {
			s.Notify(dashboard.NoticeSuccess, "Laporan berhasil diganti dan dikirim langsung")
		}
	}
	redirect(w, r, tabURL(templates.TabLaporan))
}

// reportFilename returns the name of the uploaded report file. Only the name
// is recorded; the content is not inspected.
func (h *Handler) reportFilename(w http.ResponseWriter, r *http.Request, s *dashboard.Session) (string, bool) {
	file, header, err := h.formFile(w, r, "file")
	if err != nil {
		h.fail(s, err)
		return "", false
	}
	file.Close()
	return header.Filename, true
}

func (h *Handler) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	back := tabURL(templates.TabMapping)
	region, err := strconv.Atoi(r.PathValue("region"))
	if err != nil {
		h.fail(s, domain.ErrInvalidRegion)
		redirect(w, r, back)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.fail(s, domain.ErrNoFile)
		redirect(w, r, back)
		return
	}
	headers := r.MultipartForm.File["photos"]
	uploads := make([]dashboard.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh, h.app.MaxPhotoBytes())
		if err != nil {
			h.fail(s, err)
			redirect(w, r, back)
			return
		}
		uploads = append(uploads, u)
	}

	res, err := s.UploadPhotos(r.Context(), region, uploads)
	if err != nil {
		h.fail(s, err)
	}
	if res.Stored > 0 {
		s.Notify(dashboard.NoticeSuccess, "Upload foto berhasil!")
	}
	redirect(w, r, back)
}

// readUpload reads one batch file. Oversized files are not read; their size
// alone rejects the batch.
func readUpload(fh *multipart.FileHeader, limit int64) (dashboard.Upload, error) {
	u := dashboard.Upload{Filename: fh.Filename, Size: fh.Size}
	if fh.Size > limit {
		return u, nil
	}
	f, err := fh.Open()
	if err != nil {
		return u, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer f.Close()
	if u.Data, err = io.ReadAll(f); err != nil {
		return u, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	if !imaging.IsImage(u.Data) {
		return u, domain.ErrNotAnImage
	}
	return u, nil
}

func (h *Handler) saveMapping(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := s.SaveMapping(r.Context()); err != nil {
		h.fail(s, err)
	} else {
		s.Notify(dashboard.NoticeSuccess, "Data mapping tersimpan untuk periode ini")
	}
	redirect(w, r, tabURL(templates.TabMapping))
}

func (h *Handler) wipeMapping(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := s.WipeMapping(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) {
			h.fail(s, err)
		} else {
			s.Notify(dashboard.NoticeWarning, "Sebagian foto gagal dihapus")
		}
	} else {
		s.Notify(dashboard.NoticeSuccess, "Semua data mapping dihapus untuk periode ini")
	}
	redirect(w, r, tabURL(templates.TabMapping))
}

func (h *Handler) photo(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if _, ok := s.User(); !ok {
		http.Error(w, domain.ErrNotLoggedIn.Error(), http.StatusUnauthorized)
		return
	}
	region, err1 := strconv.Atoi(r.PathValue("region"))
	slot, err2 := strconv.Atoi(r.PathValue("slot"))
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid slot", 400)
		return
	}
	p := domain.Period{Year: r.PathValue("year"), Month: r.PathValue("month")}
	data, ok, err := h.app.Photo(r.Context(), p, region, slot)
	switch {
	case errors.Is(err, domain.ErrInvalidPeriod), errors.Is(err, domain.ErrInvalidRegion):
		http.Error(w, err.Error(), 400)
		return
	case err != nil:
		h.log.Warn("serve mapping photo", "err", err)
		http.NotFound(w, r)
		return
	case !ok:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	kind, format, _ := strings.Cut(r.PathValue("file"), ".")
	ex, ok := h.exporters[format]
	if !ok || (kind != string(dashboard.ExportReports) && kind != string(dashboard.ExportMapping)) {
		http.NotFound(w, r)
		return
	}
	back := tabURL(templates.TabLaporan)
	if kind == string(dashboard.ExportMapping) {
		back = tabURL(templates.TabMapping)
	}

	file, err := s.Export(r.Context(), ex, dashboard.ExportKind(kind))
	if err != nil {
		h.fail(s, err)
		redirect(w, r, back)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Write(file.Data)
}

// session returns the caller's session, starting a new one and setting the
// cookie when the request carries none or an unknown id.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := h.app.Session(c.Value); ok {
			return s
		}
	}
	s := h.app.NewSession(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (h *Handler) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, nil, domain.ErrNoFile
	}
	f, fh, err := r.FormFile(field)
	if err != nil {
		return nil, nil, domain.ErrNoFile
	}
	return f, fh, nil
}

// fail queues the user-facing message of err on the session.
func (h *Handler) fail(s *dashboard.Session, err error) {
	s.Notify(dashboard.NoticeError, userMessage(err))
}

var userErrors = []error{
	domain.ErrInvalidCredentials,
	domain.ErrNotLoggedIn,
	domain.ErrForbidden,
	domain.ErrMissingMemberFields,
	domain.ErrUsernameTaken,
	domain.ErrUserNotFound,
	domain.ErrPhotoTooLarge,
	domain.ErrProfilePhotoTooLarge,
	domain.ErrNotAnImage,
	domain.ErrNoPendingFile,
	domain.ErrNoFile,
	domain.ErrInvalidPeriod,
	domain.ErrInvalidRegion,
	domain.ErrPeriodChanged,
	domain.ErrUploadFailed,
	domain.ErrExportFailed,
}

func userMessage(err error) string {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "Terjadi kesalahan, silakan coba lagi"
}

func findUser(users []domain.User, username string) *domain.User {
	if username == "" {
		return nil
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i]
		}
	}
	return nil
}

func tabURL(tab string) string {
	switch tab {
	case templates.TabLaporan, templates.TabMapping:
	default:
		tab = templates.TabAnggota
	}
	return "/?tab=" + tab
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}
