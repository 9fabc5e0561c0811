// Package dashboard holds the application state of the team dashboard: the
// roster, the report records, the mapping presence document and the live
// browser sessions. Stores are injected through the ports interfaces.
//
// The three documents are loaded once at startup and are authoritative in
// memory afterwards. Every mutation rewrites the whole affected document; a
// failed write is logged and reported to the acting session, never fatal.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/ports"
)

// Options tune upload limits and resizing. Zero values take the defaults.
type Options struct {
	MaxPhotoBytes        int64
	MaxProfilePhotoBytes int64
	PhotoMaxSide         int
	ProfileMaxSide       int
	Logger               *slog.Logger
	Now                  func() time.Time
}

const (
	DefaultMaxPhotoBytes        = 8 << 20
	DefaultMaxProfilePhotoBytes = 5 << 20
	DefaultPhotoMaxSide         = 1200
	DefaultProfileMaxSide       = 800
)

func (o *Options) withDefaults() {
	if o.MaxPhotoBytes <= 0 {
		o.MaxPhotoBytes = DefaultMaxPhotoBytes
	}
	if o.MaxProfilePhotoBytes <= 0 {
		o.MaxProfilePhotoBytes = DefaultMaxProfilePhotoBytes
	}
	if o.PhotoMaxSide <= 0 {
		o.PhotoMaxSide = DefaultPhotoMaxSide
	}
	if o.ProfileMaxSide <= 0 {
		o.ProfileMaxSide = DefaultProfileMaxSide
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// App is the single application-state value shared by all handlers.
type App struct {
	docs   ports.DocumentStore
	blobs  ports.BlobStore
	images ports.ImageProcessor
	opts   Options
	log    *slog.Logger

	// mu guards the documents and reservations. It is held while a document
	// is written so saves reach the store in mutation order, but never across
	// image processing or blob I/O. A session's lock may be taken while mu is
	// held, never the other way round.
	mu       sync.Mutex
	users    []domain.User
	reports  domain.Reports
	mapping  domain.MappingDocument
	reserved map[string]struct{} // image keys claimed by uploads in flight
	stored   map[string]struct{} // image keys written by this process

	smu      sync.Mutex
	sessions map[string]*Session
}

// New loads the three documents and returns the application state. Missing
// or unreadable documents fall back to their defaults.
func New(ctx context.Context, docs ports.DocumentStore, blobs ports.BlobStore, images ports.ImageProcessor, opts Options) *App {
	opts.withDefaults()
	a := &App{
		docs:     docs,
		blobs:    blobs,
		images:   images,
		opts:     opts,
		log:      opts.Logger,
		reserved: map[string]struct{}{},
		stored:   map[string]struct{}{},
		sessions: map[string]*Session{},
	}

	a.users = domain.DefaultUsers()
	if !a.loadDocument(ctx, ports.UsersDocument, &a.users) || a.users == nil {
		a.users = domain.DefaultUsers()
	}
	if !a.loadDocument(ctx, ports.ReportsDocument, &a.reports) || a.reports == nil {
		a.reports = domain.Reports{}
	}
	if !a.loadDocument(ctx, ports.MappingDocument, &a.mapping) || a.mapping == nil {
		a.mapping = domain.MappingDocument{}
	}
	return a
}

// loadDocument decodes the named document into v and reports success.
func (a *App) loadDocument(ctx context.Context, name string, v any) bool {
	body, ok, err := a.docs.Load(ctx, name)
	if err != nil {
		a.log.Warn("load document", "name", name, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		a.log.Warn("malformed document, using default", "name", name, "err", err)
		return false
	}
	return true
}

// saveLocked writes v as the named document. Callers hold a.mu.
func (a *App) saveLocked(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := a.docs.Save(ctx, name, body); err != nil {
		a.log.Warn("save document", "name", name, "err", err)
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// NewSession registers a fresh, logged-out browser session showing the
// current month.
func (a *App) NewSession(ctx context.Context) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		app:     a,
		pending: map[string]string{},
		view:    domain.EmptyMappingView(),
	}
	s.selectPeriod(ctx, domain.CurrentPeriod(a.opts.Now()))

	a.smu.Lock()
	a.sessions[s.ID] = s
	a.smu.Unlock()
	return s
}

// Session looks up a session by id.
func (a *App) Session(id string) (*Session, bool) {
	a.smu.Lock()
	defer a.smu.Unlock()
	s, ok := a.sessions[id]
	return s, ok
}

func (a *App) MaxPhotoBytes() int64        { return a.opts.MaxPhotoBytes }
func (a *App) MaxProfilePhotoBytes() int64 { return a.opts.MaxProfilePhotoBytes }

// Users returns a copy of the roster in stored order.
func (a *App) Users() []domain.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.users)
}

// Members returns the roster entries with role Anggota.
func (a *App) Members() []domain.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.User
	for _, u := range a.users {
		if u.Role == domain.RoleAnggota {
			out = append(out, u)
		}
	}
	return out
}

// Report returns the stored record for (username, period).
func (a *App) Report(username string, p domain.Period) (domain.Report, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reports.Get(username, p)
}

// Photo returns the stored bytes of one mapping photo.
func (a *App) Photo(ctx context.Context, p domain.Period, region, slot int) ([]byte, bool, error) {
	if !p.Valid() {
		return nil, false, domain.ErrInvalidPeriod
	}
	if region < 0 || region >= len(domain.Regions) || slot < 0 || slot >= domain.SlotsPerRegion {
		return nil, false, domain.ErrInvalidRegion
	}
	return a.blobs.Get(ctx, domain.ImageKey(p, region, slot))
}

// record returns a copy of the stored region array for p, possibly malformed.
func (a *App) record(p domain.Period) (domain.PeriodRecord, map[string]bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := slices.Clone(a.mapping.Get(p))
	reserved := map[string]bool{}
	for k := range a.reserved {
		reserved[k] = true
	}
	return rec, reserved
}
