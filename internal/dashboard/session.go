package dashboard

import (
	"context"
	"sync"

	"github.com/csg33k/telekolekting/internal/domain"
)

// NoticeKind classifies a queued user notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeWarning NoticeKind = "warning"
)

// Notice is a transient message shown once on the next rendered page.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// SendConfirmation is the pending "send report?" dialog of a session.
type SendConfirmation struct {
	Username string
	Name     string
	Filename string
	Period   domain.Period
}

// Session is the per-browser state: login, selected period, chosen report
// files and the reconciled mapping view. A session never expires.
type Session struct {
	ID  string
	app *App

	mu       sync.Mutex
	user     *domain.User
	period   domain.Period
	gen      uint64 // bumped on every period change
	pending  map[string]string
	confirm  *SendConfirmation
	view     domain.MappingView
	progress float64
	notices  []Notice
}

// Login checks the credentials against the roster. Username and password
// must match a roster entry exactly.
func (s *Session) Login(username, password string) error {
	s.app.mu.Lock()
	var found *domain.User
	for _, u := range s.app.users {
		if u.Username == username && u.Password == password {
			found = &u
			break
		}
	}
	s.app.mu.Unlock()

	if found == nil {
		s.app.log.Info("login failed", "username", username)
		return domain.ErrInvalidCredentials
	}
	s.mu.Lock()
	s.user = found
	s.mu.Unlock()
	s.app.log.Info("login", "username", username, "role", found.Role)
	return nil
}

// Logout clears the session user. The selected period and view survive.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.confirm = nil
	s.mu.Unlock()
}

// User returns the logged-in user.
func (s *Session) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

func (s *Session) requireUser() (domain.User, error) {
	u, ok := s.User()
	if !ok {
		return domain.User{}, domain.ErrNotLoggedIn
	}
	return u, nil
}

func (s *Session) requireAdmin() (domain.User, error) {
	u, err := s.requireUser()
	if err != nil {
		return u, err
	}
	if !u.IsAdmin() {
		return u, domain.ErrForbidden
	}
	return u, nil
}

// Period returns the selected period.
func (s *Session) Period() domain.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// SelectPeriod switches the session to p and rebuilds the mapping view.
// Uploads started under the previous period stop before their next slot.
func (s *Session) SelectPeriod(ctx context.Context, p domain.Period) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	if !p.Valid() {
		return domain.ErrInvalidPeriod
	}
	s.selectPeriod(ctx, p)
	return nil
}

func (s *Session) selectPeriod(ctx context.Context, p domain.Period) {
	s.mu.Lock()
	s.period = p
	s.gen++
	gen := s.gen
	s.confirm = nil
	s.mu.Unlock()

	s.rebuild(ctx, p, gen)
}

// Refresh rebuilds the mapping view of the selected period so uploads and
// wipes made by other sessions show up.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	p, gen := s.period, s.gen
	s.mu.Unlock()
	s.rebuild(ctx, p, gen)
}

// rebuild reconciles p and installs the view unless the period has changed
// again in the meantime.
func (s *Session) rebuild(ctx context.Context, p domain.Period, gen uint64) {
	view, failed := s.app.reconcile(ctx, p)
	if failed > 0 {
		s.Notify(NoticeWarning, "Sebagian foto mapping gagal dimuat")
	}

	s.mu.Lock()
	if s.gen == gen {
		s.view = view
		s.progress = view.Progress()
	}
	s.mu.Unlock()
}

// Mapping returns the reconciled view of the selected period and its progress.
func (s *Session) Mapping() (domain.MappingView, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.progress
}

// setSlot updates one displayed slot if the session is still on period gen.
func (s *Session) setSlot(gen uint64, region, slot int, v domain.Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.view[region].Slots[slot] = v
	s.progress = s.view.Progress()
	return true
}

func (s *Session) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Notify queues a notice for the next page render.
func (s *Session) Notify(kind NoticeKind, msg string) {
	s.mu.Lock()
	s.notices = append(s.notices, Notice{Kind: kind, Message: msg})
	s.mu.Unlock()
}

// Notices drains the queued notices.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}
