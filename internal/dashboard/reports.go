package dashboard

import (
	"context"
	"slices"
	"strings"

	"github.com/csg33k/telekolekting/internal/domain"
)

// memberName returns the display name of username, if on the roster.
func (a *App) memberName(username string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.users, func(u domain.User) bool { return u.Username == username })
	if i < 0 {
		return "", false
	}
	return a.users[i].DisplayName(), true
}

// ChooseReportFile records filename as the pending report of username.
// Nothing is persisted until the send is confirmed.
func (s *Session) ChooseReportFile(username, filename string) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return domain.ErrNoFile
	}
	if _, ok := s.app.memberName(username); !ok {
		return domain.ErrUserNotFound
	}
	s.mu.Lock()
	s.pending[username] = filename
	s.mu.Unlock()
	return nil
}

// PendingFile returns the chosen, not yet sent file of username.
func (s *Session) PendingFile(username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.pending[username]
	return f, ok
}

// PrepareSend opens the confirmation step for username's pending file.
func (s *Session) PrepareSend(username string) (SendConfirmation, error) {
	if _, err := s.requireUser(); err != nil {
		return SendConfirmation{}, err
	}
	name, ok := s.app.memberName(username)
	if !ok {
		return SendConfirmation{}, domain.ErrUserNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.pending[username]
	if !ok {
		return SendConfirmation{}, domain.ErrNoPendingFile
	}
	c := SendConfirmation{Username: username, Name: name, Filename: file, Period: s.period}
	s.confirm = &c
	return c, nil
}

// Confirmation returns the open confirmation step, if any.
func (s *Session) Confirmation() (SendConfirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirm == nil {
		return SendConfirmation{}, false
	}
	return *s.confirm, true
}

// CancelSend closes the confirmation step; the pending file stays chosen.
func (s *Session) CancelSend() {
	s.mu.Lock()
	s.confirm = nil
	s.mu.Unlock()
}

// ConfirmSend stores the file captured by PrepareSend as Terkirim for the
// period shown in the confirmation.
func (s *Session) ConfirmSend(ctx context.Context, username string) (SendConfirmation, error) {
	if _, err := s.requireUser(); err != nil {
		return SendConfirmation{}, err
	}
	s.mu.Lock()
	c := s.confirm
	if c == nil || c.Username != username {
		s.mu.Unlock()
		return SendConfirmation{}, domain.ErrNoPendingFile
	}
	s.confirm = nil
	delete(s.pending, username)
	s.mu.Unlock()

	s.storeReport(ctx, username, c.Period, c.Filename)
	return *c, nil
}

// ReplaceReport stores filename directly over an existing report.
func (s *Session) ReplaceReport(ctx context.Context, username, filename string) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return domain.ErrNoFile
	}
	if _, ok := s.app.memberName(username); !ok {
		return domain.ErrUserNotFound
	}
	s.mu.Lock()
	p := s.period
	delete(s.pending, username)
	s.mu.Unlock()

	s.storeReport(ctx, username, p, filename)
	return nil
}

func (s *Session) storeReport(ctx context.Context, username string, p domain.Period, filename string) {
	a := s.app
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports.Set(username, p, domain.Report{Filename: filename, Status: domain.StatusSent})
	a.log.Info("report sent", "username", username, "period", p.String(), "file", filename)
	s.saveReportsLocked(ctx)
}
