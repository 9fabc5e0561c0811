package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/ports"
)

// PhotoURL is the page-loadable reference of a stored mapping photo.
func PhotoURL(p domain.Period, region, slot int) string {
	return fmt.Sprintf("/mapping/photos/%s/%s/%d/%d", p.Year, p.Month, region, slot)
}

// Upload is one file of a photo batch.
type Upload struct {
	Filename string
	Size     int64
	Data     []byte
}

func (u Upload) size() int64 {
	if u.Size > 0 {
		return u.Size
	}
	return int64(len(u.Data))
}

// UploadResult reports how a batch was placed.
type UploadResult struct {
	Stored  int
	Dropped int // files left over once the region was full
}

// reconcile rebuilds the 9x23 view of p from metadata and blob presence.
// A record that is absent or has the wrong region count yields an empty view.
// A slot marked filled whose blob is missing shows as empty; metadata is not
// rewritten. It returns the number of blob reads that failed.
func (a *App) reconcile(ctx context.Context, p domain.Period) (domain.MappingView, int) {
	view := domain.EmptyMappingView()
	rec, reserved := a.record(p)
	if !rec.WellFormed() {
		return view, 0
	}
	failed := 0
	for i, reg := range rec {
		if reg.Region != "" {
			view[i].Region = reg.Region
		}
		for j := 0; j < domain.SlotsPerRegion; j++ {
			key := domain.ImageKey(p, i, j)
			if reserved[key] {
				view[i].Slots[j] = domain.Slot{Pending: true}
				continue
			}
			if !reg.Photos.Filled(j) {
				continue
			}
			_, ok, err := a.blobs.Get(ctx, key)
			if err != nil {
				failed++
				a.log.Warn("read mapping photo", "key", key, "err", err)
				continue
			}
			if ok {
				view[i].Slots[j] = domain.Slot{Ref: PhotoURL(p, i, j)}
			}
		}
	}
	return view, failed
}

// driftedSlots returns the slots of region that metadata marks filled but
// whose blob is missing. They display as empty and may be reused. Blob reads
// that fail leave the slot as filled.
func (a *App) driftedSlots(ctx context.Context, p domain.Period, region int) map[int]bool {
	a.mu.Lock()
	var photos domain.PresenceList
	if rec := a.mapping.Get(p); rec.WellFormed() {
		photos = slices.Clone(rec[region].Photos)
	}
	a.mu.Unlock()

	drifted := map[int]bool{}
	for j := 0; j < domain.SlotsPerRegion; j++ {
		if !photos.Filled(j) {
			continue
		}
		key := domain.ImageKey(p, region, j)
		_, ok, err := a.blobs.Get(ctx, key)
		if err != nil {
			a.log.Warn("read mapping photo", "key", key, "err", err)
			continue
		}
		if !ok {
			drifted[j] = true
		}
	}
	return drifted
}

// reserveSlot claims the lowest empty slot of region not held by another
// upload. A slot is empty when metadata does not mark it filled, or when it
// is in drifted and no upload has stored it since. It reports false when the
// region is full.
func (a *App) reserveSlot(p domain.Period, region int, drifted map[int]bool) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.mapping.Get(p)
	var photos domain.PresenceList
	if rec.WellFormed() {
		photos = rec[region].Photos
	}
	for j := 0; j < domain.SlotsPerRegion; j++ {
		key := domain.ImageKey(p, region, j)
		if _, held := a.reserved[key]; held {
			continue
		}
		if photos.Filled(j) {
			if _, fresh := a.stored[key]; fresh || !drifted[j] {
				continue
			}
		}
		a.reserved[key] = struct{}{}
		return j, true
	}
	return 0, false
}

func (a *App) releaseSlot(p domain.Period, region, slot int) {
	a.mu.Lock()
	delete(a.reserved, domain.ImageKey(p, region, slot))
	a.mu.Unlock()
}

// commitSlot marks a reserved slot filled and persists the mapping document.
func (a *App) commitSlot(ctx context.Context, p domain.Period, region, slot int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := domain.ImageKey(p, region, slot)
	delete(a.reserved, key)
	a.stored[key] = struct{}{}
	rec := a.mapping.Get(p).Clone()
	rec[region].Photos[slot] = true
	a.mapping.Set(p, rec)
	return a.saveLocked(ctx, ports.MappingDocument, a.mapping)
}

// UploadPhotos resizes and stores a batch of photos into one region of the
// selected period, filling the lowest empty slots in order. A batch with any
// file over the size limit is rejected before anything is written. Files
// beyond the region's free slots are dropped.
func (s *Session) UploadPhotos(ctx context.Context, region int, files []Upload) (UploadResult, error) {
	var res UploadResult
	if _, err := s.requireUser(); err != nil {
		return res, err
	}
	if region < 0 || region >= len(domain.Regions) {
		return res, domain.ErrInvalidRegion
	}
	if len(files) == 0 {
		return res, domain.ErrNoFile
	}
	for _, f := range files {
		if f.size() > s.app.opts.MaxPhotoBytes {
			return res, domain.ErrPhotoTooLarge
		}
	}

	s.mu.Lock()
	p, gen := s.period, s.gen
	s.mu.Unlock()
	log := s.app.log.With("period", p.String(), "region", domain.Regions[region])

	drifted := s.app.driftedSlots(ctx, p, region)
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if s.generation() != gen {
			log.Info("upload stopped, period changed", "stored", res.Stored)
			return res, domain.ErrPeriodChanged
		}

		slot, ok := s.app.reserveSlot(p, region, drifted)
		if !ok {
			res.Dropped = len(files) - i
			break
		}
		s.setSlot(gen, region, slot, domain.Slot{Pending: true})

		data, err := s.app.images.Resize(f.Data, s.app.opts.PhotoMaxSide)
		if err != nil {
			s.app.releaseSlot(p, region, slot)
			s.setSlot(gen, region, slot, domain.Slot{})
			log.Warn("resize photo", "file", f.Filename, "err", err)
			return res, fmt.Errorf("%w: %s", domain.ErrUploadFailed, f.Filename)
		}

		key := domain.ImageKey(p, region, slot)
		if err := s.app.blobs.Put(ctx, key, data); err != nil {
			s.app.releaseSlot(p, region, slot)
			s.setSlot(gen, region, slot, domain.Slot{})
			log.Warn("store photo", "key", key, "err", err)
			return res, fmt.Errorf("%w: %s", domain.ErrUploadFailed, f.Filename)
		}

		if err := s.app.commitSlot(ctx, p, region, slot); err != nil {
			s.Notify(NoticeWarning, "Gagal menyimpan data mapping")
		}
		s.setSlot(gen, region, slot, domain.Slot{Ref: PhotoURL(p, region, slot)})
		res.Stored++
	}
	log.Info("photos uploaded", "stored", res.Stored, "dropped", res.Dropped)
	return res, nil
}

// SaveMapping writes the selected period's metadata again. Every upload
// already persists; this retries after an earlier failed save.
func (s *Session) SaveMapping(ctx context.Context) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	p := s.Period()
	a := s.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec := a.mapping.Get(p); rec != nil {
		a.mapping.Set(p, rec.Clone())
	} else {
		a.mapping.Set(p, domain.EmptyPeriodRecord())
	}
	return a.saveLocked(ctx, ports.MappingDocument, a.mapping)
}

// WipeMapping deletes every photo of the selected period and its metadata.
// Blob deletions that fail are logged and skipped; other periods are never
// touched.
func (s *Session) WipeMapping(ctx context.Context) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	s.mu.Lock()
	p := s.period
	s.mu.Unlock()

	var errs []error
	for i := range domain.Regions {
		for j := 0; j < domain.SlotsPerRegion; j++ {
			key := domain.ImageKey(p, i, j)
			if err := s.app.blobs.Delete(ctx, key); err != nil {
				s.app.log.Warn("delete mapping photo", "key", key, "err", err)
				errs = append(errs, err)
			}
		}
	}

	a := s.app
	a.mu.Lock()
	for i := range domain.Regions {
		for j := 0; j < domain.SlotsPerRegion; j++ {
			delete(a.stored, domain.ImageKey(p, i, j))
		}
	}
	a.mapping.Remove(p)
	saveErr := a.saveLocked(ctx, ports.MappingDocument, a.mapping)
	a.mu.Unlock()

	s.mu.Lock()
	if s.period == p {
		s.view = domain.EmptyMappingView()
		s.progress = 0
	}
	s.mu.Unlock()

	if saveErr != nil {
		s.Notify(NoticeWarning, "Gagal menyimpan data mapping")
	}
	a.log.Info("mapping wiped", "period", p.String(), "failed_deletes", len(errs))
	return errors.Join(errs...)
}
