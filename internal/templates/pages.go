// Package templates renders the dashboard pages. The markup is inlined as
// html/template and exposed as templ components so handlers render every
// page through the same templ.Component path.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/csg33k/telekolekting/internal/dashboard"
	"github.com/csg33k/telekolekting/internal/domain"
)

// Tabs of the dashboard page.
const (
	TabAnggota = "anggota"
	TabLaporan = "laporan"
	TabMapping = "mapping"
)

type LoginPage struct {
	Notices  []dashboard.Notice
	Username string
}

// ReportLine is one member row of the report tab.
type ReportLine struct {
	User    domain.User
	Report  domain.Report
	Sent    bool
	Pending string
}

type DashboardPage struct {
	User     domain.User
	Tab      string
	Period   domain.Period
	Months   []string
	Years    []string
	Notices  []dashboard.Notice
	Members  []domain.User
	Reports  []ReportLine
	Mapping  domain.MappingView
	Progress float64
	Confirm  *dashboard.SendConfirmation
	Edit     *domain.User
	Delete   *domain.User
}

func Login(p LoginPage) templ.Component         { return component(loginTmpl, p) }
func Dashboard(p DashboardPage) templ.Component { return component(dashboardTmpl, p) }

func component(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "base", data)
	})
}

var funcs = template.FuncMap{
	"avatar":     avatar,
	"percent":    percent,
	"countClass": countClass,
	"seq":        func(i int) int { return i + 1 },
	"slots":      func() int { return domain.SlotsPerRegion },
}

var baseTmpl = template.Must(template.New("base").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Telekolekting KC Tondano</title>
<style>
  :root {
    --ink: #0f172a;
    --paper: #eff6ff;
    --brand: #1d4ed8;
    --muted: #64748b;
    --rule: #cbd5e1;
    --ok: #16a34a;
    --warn: #ca8a04;
    --bad: #dc2626;
  }
  * { box-sizing: border-box; }
  body { background: var(--paper); color: var(--ink); font-family: system-ui, sans-serif; margin: 0; }
  .wrap { max-width: 1200px; margin: 0 auto; padding: 24px; }
  .card { background: white; border-radius: 12px; box-shadow: 0 1px 4px rgba(0,0,0,0.08); padding: 20px; margin-bottom: 16px; }
  .section-header { color: var(--brand); font-size: 1.2rem; font-weight: 600; margin: 0 0 4px; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  input, select { border: 1px solid var(--rule); border-radius: 6px; padding: 6px 8px; font-size: 0.9rem; }
  .btn { border: 1px solid var(--rule); border-radius: 6px; padding: 7px 14px; font-size: 0.85rem; cursor: pointer; background: white; text-decoration: none; color: var(--ink); display: inline-block; }
  .btn-primary { background: var(--brand); border-color: var(--brand); color: white; }
  .btn-success { background: var(--ok); border-color: var(--ok); color: white; }
  .btn-danger { background: var(--bad); border-color: var(--bad); color: white; }
  .row { display: flex; align-items: center; gap: 12px; flex-wrap: wrap; }
  .between { justify-content: space-between; }
  .grid3 { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
  .notice { padding: 10px 14px; border-radius: 8px; margin-bottom: 8px; font-size: 0.9rem; }
  .notice-success { background: #dcfce7; color: #166534; }
  .notice-error { background: #fee2e2; color: #991b1b; }
  .notice-warning { background: #fef9c3; color: #854d0e; }
  .avatar { width: 96px; height: 96px; border-radius: 50%; object-fit: cover; border: 1px solid var(--rule); }
  .modal { position: fixed; inset: 0; background: rgba(0,0,0,0.4); display: flex; align-items: center; justify-content: center; }
  .modal .card { width: 100%; max-width: 560px; }
  table { border-collapse: collapse; font-size: 0.8rem; }
  th, td { border-bottom: 1px solid var(--rule); padding: 6px 8px; text-align: center; white-space: nowrap; }
  th { background: #dbeafe; }
  .thumb { width: 64px; height: 64px; object-fit: contain; border-radius: 6px; }
  .count-none { color: var(--bad); }
  .count-partial { color: var(--warn); }
  .count-full { color: var(--ok); }
  .bar { height: 10px; background: var(--rule); border-radius: 5px; overflow: hidden; }
  .bar > div { height: 100%; background: var(--brand); }
</style>
</head>
<body>
<div class="wrap">
{{range .Notices}}<div class="notice notice-{{.Kind}}">{{.Message}}</div>{{end}}
{{template "content" .}}
</div>
</body>
</html>`))

var loginTmpl = template.Must(template.Must(baseTmpl.Clone()).Parse(`
{{define "content"}}
<div class="card" style="max-width:420px;margin:80px auto;text-align:center;">
  <h1 class="section-header">Login Telekolekting KC Tondano</h1>
  <p class="muted">Masukkan akun Anda untuk melanjutkan</p>
  <form method="post" action="/login" style="display:grid;gap:10px;margin-top:16px;">
    <input type="text" name="username" placeholder="Username" value="{{.Username}}" required>
    <input type="password" name="password" placeholder="Password" required>
    <button type="submit" class="btn btn-primary">Login</button>
  </form>
</div>
{{end}}`))

var dashboardTmpl = template.Must(template.Must(baseTmpl.Clone()).Parse(`
{{define "content"}}
<header class="row between" style="border-bottom:1px solid var(--rule);padding-bottom:12px;margin-bottom:16px;">
  <div>
    <h1 style="color:var(--brand);margin:0;">TELEKOLEKTING KC TONDANO</h1>
    <div class="muted">Sistem Upload Data Foto Regional · {{.User.DisplayName}} ({{.User.Role}})</div>
  </div>
  <div class="row">
    <a class="btn" href="/?tab=anggota">Anggota</a>
    <a class="btn" href="/?tab=laporan">Laporan</a>
    <a class="btn" href="/?tab=mapping">Mapping</a>
    <form method="post" action="/logout"><button class="btn btn-danger" type="submit">Logout</button></form>
  </div>
</header>

{{if eq .Tab "anggota"}}{{template "anggota" .}}{{end}}
{{if eq .Tab "laporan"}}{{template "laporan" .}}{{end}}
{{if eq .Tab "mapping"}}{{template "mapping" .}}{{end}}

{{with .Confirm}}
<div class="modal"><div class="card">
  <h3 class="section-header">Konfirmasi Kirim Laporan</h3>
  <p>Apakah Anda yakin ingin mengirim <strong>{{.Filename}}</strong> untuk <strong>{{.Name}}</strong> ({{.Username}}), {{.Period}}?</p>
  <div class="row" style="justify-content:flex-end;">
    <form method="post" action="/reports/cancel"><button class="btn" type="submit">Batal</button></form>
    <form method="post" action="/reports/{{.Username}}/send"><button class="btn btn-primary" type="submit">Kirim</button></form>
  </div>
</div></div>
{{end}}

{{with .Edit}}
<div class="modal"><div class="card">
  <h3 class="section-header">Edit Profil Anggota</h3>
  <form method="post" action="/members/{{.Username}}" style="display:grid;grid-template-columns:1fr 1fr;gap:10px;">
    <label>Nama<br><input type="text" name="name" value="{{.Name}}"></label>
    <label>Username<br><input type="text" name="username" value="{{.Username}}"></label>
    <label>Password<br><input type="password" name="password" value="{{.Password}}"></label>
    <div style="grid-column:1/-1;" class="row" >
      <a class="btn" href="/?tab=anggota">Batal</a>
      <button class="btn btn-primary" type="submit">Simpan Perubahan</button>
    </div>
  </form>
  <form method="post" action="/members/{{.Username}}/photo" enctype="multipart/form-data" class="row" style="margin-top:12px;">
    <img class="avatar" src="{{avatar .Photo}}" alt="{{.Name}}">
    <input type="file" name="photo" accept="image/*" required>
    <button class="btn" type="submit">Ganti Foto</button>
  </form>
</div></div>
{{end}}

{{with .Delete}}
<div class="modal"><div class="card">
  <h3 class="section-header">Konfirmasi Hapus</h3>
  <p>Apakah Anda yakin ingin menghapus anggota <strong>{{.Username}}</strong>?</p>
  <div class="row" style="justify-content:flex-end;">
    <a class="btn" href="/?tab=anggota">Batal</a>
    <form method="post" action="/members/{{.Username}}/delete"><button class="btn btn-danger" type="submit">Ya, Hapus</button></form>
  </div>
</div></div>
{{end}}
{{end}}

{{define "period"}}
<form method="post" action="/period" class="row" style="margin-bottom:16px;">
  <input type="hidden" name="tab" value="{{.Tab}}">
  <label class="muted">Pilih Bulan:</label>
  <select name="month" onchange="this.form.submit()">
    {{range .Months}}<option {{if eq . $.Period.Month}}selected{{end}}>{{.}}</option>{{end}}
  </select>
  <select name="year" onchange="this.form.submit()">
    {{range .Years}}<option {{if eq . $.Period.Year}}selected{{end}}>{{.}}</option>{{end}}
  </select>
  <noscript><button class="btn" type="submit">Tampilkan</button></noscript>
</form>
{{end}}

{{define "anggota"}}
<div class="card">
  <h2 class="section-header">Daftar Anggota Tim</h2>
  <p class="muted">Berikut anggota Telekolekting KC Tondano</p>
  <div class="grid3" style="margin-top:16px;">
  {{range .Members}}
    <div class="card" style="text-align:center;">
      <img class="avatar" src="{{avatar .Photo}}" alt="{{.Name}}">
      <h3 style="margin:8px 0 2px;">{{.Name}}</h3>
      <div class="muted">Telekolekting KC Tondano</div>
      {{if $.User.IsAdmin}}
      <div class="row" style="justify-content:center;margin-top:10px;">
        <a class="btn" href="/?tab=anggota&edit={{.Username}}">Edit Profil</a>
        <a class="btn" style="color:var(--bad);" href="/?tab=anggota&delete={{.Username}}">Hapus Anggota</a>
      </div>
      {{end}}
    </div>
  {{else}}
    <p class="muted">Belum ada anggota.</p>
  {{end}}
  </div>

  {{if .User.IsAdmin}}
  <div style="background:#f1f5f9;padding:16px;border-radius:8px;margin-top:16px;">
    <h3 class="section-header">Tambah Anggota Baru</h3>
    <form method="post" action="/members" class="row">
      <input type="text" name="name" placeholder="Nama Lengkap">
      <input type="text" name="username" placeholder="Username">
      <input type="password" name="password" placeholder="Password">
      <button class="btn btn-success" type="submit">Tambah Anggota</button>
    </form>
  </div>
  {{end}}
</div>
{{end}}

{{define "laporan"}}
<div class="card">
  <h2 class="section-header">Upload Laporan Bulanan</h2>
  {{template "period" .}}
  {{range .Reports}}
  <div class="card row between">
    <div>
      <strong>Laporan {{.User.DisplayName}}</strong>
      <div class="muted">
        {{if .Sent}}File: {{.Report.Filename}}{{else if .Pending}}File siap: {{.Pending}}{{else}}Belum upload{{end}}
      </div>
    </div>
    <div class="row">
      <form method="post" action="/reports/{{.User.Username}}/choose" enctype="multipart/form-data" class="row">
        <input type="file" name="file" accept=".xls,.xlsx,.csv" required>
        <button class="btn" type="submit">Pilih</button>
      </form>
      {{if .Pending}}
      <a class="btn btn-primary" href="/reports/{{.User.Username}}/confirm">Kirim Laporan</a>
      {{else}}
      <form method="post" action="/reports/{{.User.Username}}/replace" enctype="multipart/form-data" class="row">
        <input type="file" name="file" accept=".xls,.xlsx,.csv" required>
        <button class="btn" type="submit">Upload &amp; Kirim Langsung</button>
      </form>
      {{end}}
      {{if .Sent}}<span class="count-full">Terkirim</span>{{else}}<span class="count-partial">Belum dikirim</span>{{end}}
    </div>
  </div>
  {{end}}
  <div class="row" style="margin-top:12px;">
    <a class="btn btn-success" href="/export/reports.xlsx">Download Excel</a>
    <a class="btn btn-primary" href="/export/reports.pdf">Download PDF</a>
  </div>
</div>
{{end}}

{{define "mapping"}}
<div class="card">
  <h2 class="section-header">Bukti Mapping Regional</h2>
  <p class="muted">Unggah foto hasil mapping berdasarkan kabupaten/kota ({{slots}} foto per kabupaten)</p>
  {{template "period" .}}
  <div style="overflow-x:auto;">
  <table>
    <thead><tr>
      <th>Kabupaten/Kota</th><th>Status</th><th>Upload</th>
      {{range $i, $_ := (index .Mapping 0).Slots}}<th>Foto {{seq $i}}</th>{{end}}
    </tr></thead>
    <tbody>
    {{range .Mapping}}
      <tr>
        <td style="text-align:left;"><strong>{{.Region}}</strong></td>
        <td class="{{countClass .Count}}">{{.Count}}/{{slots}} foto</td>
        <td>
          <form method="post" action="/mapping/{{.Index}}/upload" enctype="multipart/form-data" class="row">
            <input type="file" name="photos" accept="image/*" multiple required>
            <button class="btn btn-primary" type="submit">Upload</button>
          </form>
        </td>
        {{range .Slots}}
        <td>{{if .Ref}}<img class="thumb" src="{{.Ref}}" alt="">{{else if .Pending}}<span class="muted">Mengunggah…</span>{{else}}<span class="muted">Belum ada foto</span>{{end}}</td>
        {{end}}
      </tr>
    {{end}}
    </tbody>
  </table>
  </div>
  <div class="row" style="margin-top:12px;">
    <form method="post" action="/mapping/wipe"><button class="btn btn-danger" type="submit">Hapus Semua Data</button></form>
    <form method="post" action="/mapping/save"><button class="btn btn-primary" type="submit">Simpan Data</button></form>
    <a class="btn btn-success" href="/export/mapping.xlsx">Download Excel</a>
    <a class="btn btn-primary" href="/export/mapping.pdf">Download PDF</a>
  </div>
  <div style="margin-top:12px;">
    <label class="muted">Progress Upload {{percent .Progress}}%</label>
    <div class="bar"><div style="width:{{percent .Progress}}%"></div></div>
  </div>
</div>
{{end}}`))
