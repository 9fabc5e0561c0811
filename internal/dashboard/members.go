package dashboard

import (
	"context"
	"encoding/base64"
	"slices"
	"strings"

	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/ports"
)

// ProfileEdit is the admin edit form. A nil Photo keeps the stored photo.
type ProfileEdit struct {
	Name     string
	Username string
	Password string
	Photo    *string
}

// AddMember appends a new Anggota to the roster.
func (s *Session) AddMember(ctx context.Context, name, username, password string) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	name, username = strings.TrimSpace(name), strings.TrimSpace(username)
	if name == "" || username == "" || password == "" {
		return domain.ErrMissingMemberFields
	}

	a := s.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if slices.ContainsFunc(a.users, func(u domain.User) bool { return u.Username == username }) {
		return domain.ErrUsernameTaken
	}
	a.users = append(a.users, domain.User{
		Username: username,
		Password: password,
		Role:     domain.RoleAnggota,
		Name:     name,
	})
	a.log.Info("member added", "username", username)
	s.saveRosterLocked(ctx)
	return nil
}

// EditProfile replaces the fields of target. Username uniqueness is checked
// only when members are added.
func (s *Session) EditProfile(ctx context.Context, target string, form ProfileEdit) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	a := s.app
	a.mu.Lock()
	i := slices.IndexFunc(a.users, func(u domain.User) bool { return u.Username == target })
	if i < 0 {
		a.mu.Unlock()
		return domain.ErrUserNotFound
	}
	u := &a.users[i]
	if form.Name != "" {
		u.Name = form.Name
	}
	if form.Username != "" {
		u.Username = form.Username
	}
	if form.Password != "" {
		u.Password = form.Password
	}
	if form.Photo != nil {
		u.Photo = form.Photo
	}
	updated := *u
	a.log.Info("member edited", "username", target)
	s.saveRosterLocked(ctx)
	a.mu.Unlock()

	s.mu.Lock()
	if s.user != nil && s.user.Username == target {
		s.user = &updated
	}
	s.mu.Unlock()
	return nil
}

// PrepareProfilePhoto shrinks raw to the profile size and returns it as a
// JPEG data URL ready for ProfileEdit.Photo.
func (s *Session) PrepareProfilePhoto(raw []byte) (string, error) {
	if _, err := s.requireAdmin(); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", domain.ErrNoFile
	}
	if int64(len(raw)) > s.app.opts.MaxProfilePhotoBytes {
		return "", domain.ErrProfilePhotoTooLarge
	}
	data, err := s.app.images.Resize(raw, s.app.opts.ProfileMaxSide)
	if err != nil {
		s.app.log.Warn("resize profile photo", "err", err)
		return "", domain.ErrNotAnImage
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DeleteMember removes target from the roster along with all of its report
// records. Mapping data is not touched.
func (s *Session) DeleteMember(ctx context.Context, target string) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	a := s.app
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.users, func(u domain.User) bool { return u.Username == target })
	if i < 0 {
		return domain.ErrUserNotFound
	}
	a.users = slices.Delete(a.users, i, i+1)
	_, hadReports := a.reports[target]
	delete(a.reports, target)
	a.log.Info("member deleted", "username", target)

	s.saveRosterLocked(ctx)
	if hadReports {
		s.saveReportsLocked(ctx)
	}
	return nil
}

// saveRosterLocked persists the roster; a failure becomes a notice.
func (s *Session) saveRosterLocked(ctx context.Context) {
	if err := s.app.saveLocked(ctx, ports.UsersDocument, s.app.users); err != nil {
		s.Notify(NoticeWarning, "Gagal menyimpan data anggota")
	}
}

func (s *Session) saveReportsLocked(ctx context.Context) {
	if err := s.app.saveLocked(ctx, ports.ReportsDocument, s.app.reports); err != nil {
		s.Notify(NoticeWarning, "Gagal menyimpan data laporan")
	}
}
