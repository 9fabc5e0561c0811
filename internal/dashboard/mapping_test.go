package dashboard_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/csg33k/telekolekting/internal/dashboard"
	"github.com/csg33k/telekolekting/internal/domain"
	"github.com/csg33k/telekolekting/internal/ports"
)

func TestSelectPeriod_MalformedRecordsGiveEmptyGrid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an array", `{"2025":{"Mei":"oops"}}`},
		{"too few regions", `{"2025":{"Mei":[{"region":"Minahasa","photos":[true,true]}]}}`},
		{"photos not an array", `{"2025":{"Mei":[{"region":"Minahasa","photos":7},{},{},{},{},{},{},{},{}]}}`},
		{"whole document malformed", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.docs.Save(context.Background(), ports.MappingDocument, []byte(tt.doc))
			f.reload(t)
			s := f.login(t, "tim1", "tim123")

			view, progress := s.Mapping()
			if len(view) != len(domain.Regions) {
				t.Fatalf("regions = %d", len(view))
			}
			for i, reg := range view {
				if len(reg.Slots) != domain.SlotsPerRegion {
					t.Fatalf("region %d slots = %d", i, len(reg.Slots))
				}
				if reg.Region != domain.Regions[i] {
					t.Errorf("region %d = %q, want %q", i, reg.Region, domain.Regions[i])
				}
			}
			if progress != 0 {
				t.Errorf("progress = %v, want 0", progress)
			}
		})
	}
}

func TestSelectPeriod_MissingBlobShowsEmptyWithoutWriteBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := domain.EmptyPeriodRecord()
	rec[0].Photos[0] = true
	rec[0].Photos[1] = true
	rec[3].Photos[22] = true
	doc := domain.MappingDocument{}
	doc.Set(mei, rec)
	body := mustJSON(t, doc)
	f.docs.Save(ctx, ports.MappingDocument, body)
	f.blobs.Put(ctx, domain.ImageKey(mei, 0, 0), []byte("a"))
	f.blobs.Put(ctx, domain.ImageKey(mei, 3, 22), []byte("b"))
	f.reload(t)

	s := f.login(t, "tim1", "tim123")
	view, progress := s.Mapping()
	if got := filledSlots(view[0]); len(got) != 1 || got[0] != 0 {
		t.Errorf("region 0 filled = %v, want [0]", got)
	}
	if view[3].Slots[22].Ref != dashboard.PhotoURL(mei, 3, 22) {
		t.Errorf("ref = %q", view[3].Slots[22].Ref)
	}
	if want := 2.0 / 207 * 100; math.Abs(progress-want) > 1e-9 {
		t.Errorf("progress = %v, want %v", progress, want)
	}
	after, _, _ := f.docs.Load(ctx, ports.MappingDocument)
	if !bytes.Equal(after, body) {
		t.Error("reconciliation rewrote the mapping document")
	}
}

func TestSelectPeriod_RejectsInvalidPeriod(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, "tim1", "tim123")
	if err := s.SelectPeriod(context.Background(), domain.Period{Year: "1999", Month: "Mei"}); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
	if s.Period() != mei {
		t.Errorf("period = %v, want unchanged", s.Period())
	}
}

func TestUploadPhotos_RejectsOversizedBatch(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, "tim1", "tim123")
	files := photos(3)
	files[1].Size = dashboard.DefaultMaxPhotoBytes + 1

	_, err := s.UploadPhotos(context.Background(), 0, files)
	if !errors.Is(err, domain.ErrPhotoTooLarge) {
		t.Fatalf("err = %v, want ErrPhotoTooLarge", err)
	}
	if n := f.blobs.Puts(); n != 0 {
		t.Errorf("blob writes = %d, want 0", n)
	}
	if _, ok, _ := f.docs.Load(context.Background(), ports.MappingDocument); ok {
		t.Error("mapping document written for a rejected batch")
	}
}

func TestUploadPhotos_FillsLowestEmptySlotsAndDropsOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")

	res, err := s.UploadPhotos(ctx, 2, photos(20))
	if err != nil || res.Stored != 20 {
		t.Fatalf("first batch = %+v, %v", res, err)
	}
	res, err = s.UploadPhotos(ctx, 2, photos(5))
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if res.Stored != 3 || res.Dropped != 2 {
		t.Errorf("result = %+v, want 3 stored, 2 dropped", res)
	}

	view, progress := s.Mapping()
	if got := view[2].Count(); got != domain.SlotsPerRegion {
		t.Errorf("region count = %d, want 23", got)
	}
	if want := 23.0 / 207 * 100; math.Abs(progress-want) > 1e-9 {
		t.Errorf("progress = %v, want %v", progress, want)
	}
	if n := f.blobs.Puts(); n != 23 {
		t.Errorf("blob writes = %d, want 23", n)
	}
	for _, k := range f.blobs.Keys() {
		if !strings.HasPrefix(k, "mapping:2025:Mei:r2:p") {
			t.Errorf("unexpected key %s", k)
		}
	}
}

func TestUploadPhotos_FillsHoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := domain.EmptyPeriodRecord()
	rec[1].Photos[0] = true
	rec[1].Photos[2] = true
	doc := domain.MappingDocument{}
	doc.Set(mei, rec)
	f.docs.Save(ctx, ports.MappingDocument, mustJSON(t, doc))
	f.blobs.Put(ctx, domain.ImageKey(mei, 1, 0), []byte("a"))
	f.blobs.Put(ctx, domain.ImageKey(mei, 1, 2), []byte("b"))
	f.reload(t)

	s := f.login(t, "tim1", "tim123")
	if _, err := s.UploadPhotos(ctx, 1, photos(2)); err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	view, _ := s.Mapping()
	got := filledSlots(view[1])
	want := []int{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("filled = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("filled = %v, want %v", got, want)
			break
		}
	}
}

func TestUploadPhotos_ReusesSlotsWithMissingBlobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := domain.EmptyPeriodRecord()
	for j := range rec[0].Photos {
		rec[0].Photos[j] = true
	}
	doc := domain.MappingDocument{}
	doc.Set(mei, rec)
	f.docs.Save(ctx, ports.MappingDocument, mustJSON(t, doc))
	f.blobs.Put(ctx, domain.ImageKey(mei, 0, 0), []byte("a"))
	f.reload(t)

	s := f.login(t, "tim1", "tim123")
	if view, _ := s.Mapping(); view[0].Count() != 1 {
		t.Fatalf("region 0 = %d photos, want 1", view[0].Count())
	}
	res, err := s.UploadPhotos(ctx, 0, photos(2))
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	if res.Stored != 2 || res.Dropped != 0 {
		t.Errorf("result = %+v, want 2 stored", res)
	}
	view, _ := s.Mapping()
	got := filledSlots(view[0])
	if len(got) != 3 || got[1] != 1 || got[2] != 2 {
		t.Errorf("filled = %v, want [0 1 2]", got)
	}

	// the slots just written are no longer free
	res, err = s.UploadPhotos(ctx, 0, photos(1))
	if err != nil {
		t.Fatal(err)
	}
	if keys := f.blobs.Keys(); len(keys) != 4 {
		t.Errorf("keys = %v, want 4", keys)
	}
	if view, _ := s.Mapping(); view[0].Slots[3].Ref != dashboard.PhotoURL(mei, 0, 3) {
		t.Errorf("slot 3 = %+v", view[0].Slots[3])
	}
}

func TestUploadPhotos_StopsWhenPeriodChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")

	calls := 0
	f.images.onResize = func() {
		calls++
		if calls == 1 {
			if err := s.SelectPeriod(ctx, juni); err != nil {
				t.Errorf("SelectPeriod: %v", err)
			}
		}
	}
	res, err := s.UploadPhotos(ctx, 0, photos(4))
	if !errors.Is(err, domain.ErrPeriodChanged) {
		t.Fatalf("err = %v, want ErrPeriodChanged", err)
	}
	if res.Stored != 1 {
		t.Errorf("stored = %d, want 1", res.Stored)
	}
	if keys := f.blobs.Keys(); len(keys) != 1 || keys[0] != domain.ImageKey(mei, 0, 0) {
		t.Errorf("keys = %v", keys)
	}
	view, _ := s.Mapping()
	if view.Filled() != 0 {
		t.Errorf("juni view has %d photos, want 0", view.Filled())
	}

	f.images.onResize = nil
	if err := s.SelectPeriod(ctx, mei); err != nil {
		t.Fatal(err)
	}
	view, _ = s.Mapping()
	if got := filledSlots(view[0]); len(got) != 1 || got[0] != 0 {
		t.Errorf("mei region 0 = %v, want [0]", got)
	}
}

func TestUploadPhotos_ReleasesSlotWhenBlobWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")

	f.blobs.FailPut = true
	if _, err := s.UploadPhotos(ctx, 5, photos(1)); !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	view, _ := s.Mapping()
	if view[5].Slots[0] != (domain.Slot{}) {
		t.Errorf("slot 0 = %+v, want empty", view[5].Slots[0])
	}

	f.blobs.FailPut = false
	if _, err := s.UploadPhotos(ctx, 5, photos(1)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if keys := f.blobs.Keys(); len(keys) != 1 || keys[0] != domain.ImageKey(mei, 5, 0) {
		t.Errorf("keys = %v, want slot 0 reused", keys)
	}
}

func TestUploadPhotos_UndecodableFileStopsBatch(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, "tim1", "tim123")
	files := photos(3)
	files[1].Data = []byte("broken")
	res, err := s.UploadPhotos(context.Background(), 0, files)
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if res.Stored != 1 {
		t.Errorf("stored = %d, want 1", res.Stored)
	}
}

func TestUploadPhotos_FullRegionDropsWithoutDecoding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")
	if _, err := s.UploadPhotos(ctx, 7, photos(domain.SlotsPerRegion)); err != nil {
		t.Fatal(err)
	}

	resized := 0
	f.images.onResize = func() { resized++ }
	files := photos(2)
	files[0].Data = []byte("broken")
	res, err := s.UploadPhotos(ctx, 7, files)
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if res.Stored != 0 || res.Dropped != 2 {
		t.Errorf("result = %+v, want 2 dropped", res)
	}
	if resized != 0 {
		t.Errorf("resized %d files for a full region", resized)
	}
}

func TestRefresh_ShowsOtherSessionsChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.login(t, "tim1", "tim123")
	b := f.login(t, "tim2", "tim123")

	if _, err := a.UploadPhotos(ctx, 2, photos(2)); err != nil {
		t.Fatal(err)
	}
	if view, _ := b.Mapping(); view[2].Count() != 0 {
		t.Fatalf("view changed before refresh")
	}
	b.Refresh(ctx)
	if view, _ := b.Mapping(); view[2].Count() != 2 {
		t.Errorf("after refresh region 2 = %d photos, want 2", view[2].Count())
	}

	if err := a.WipeMapping(ctx); err != nil {
		t.Fatal(err)
	}
	ex := &captureExporter{}
	if _, err := b.Export(ctx, ex, dashboard.ExportMapping); err != nil {
		t.Fatal(err)
	}
	if ex.mapping.Rows[2].Count != 0 || len(ex.mapping.Rows[2].Photos) != 0 {
		t.Errorf("export still shows wiped photos: %+v", ex.mapping.Rows[2])
	}
}

func TestMapping_RoundTripsAcrossRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")
	if _, err := s.UploadPhotos(ctx, 4, photos(3)); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectPeriod(ctx, juni); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectPeriod(ctx, mei); err != nil {
		t.Fatal(err)
	}
	before, p1 := s.Mapping()

	f.reload(t)
	s2 := f.login(t, "tim2", "tim123")
	after, p2 := s2.Mapping()
	if before != after || p1 != p2 {
		t.Errorf("view differs after restart:\nbefore %v\nafter  %v", filledSlots(before[4]), filledSlots(after[4]))
	}
	if got := filledSlots(after[4]); len(got) != 3 {
		t.Errorf("region 4 filled = %v, want 3 slots", got)
	}
}

func TestWipeMapping_LeavesOtherPeriodsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")
	if _, err := s.UploadPhotos(ctx, 0, photos(2)); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectPeriod(ctx, juni); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UploadPhotos(ctx, 8, photos(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectPeriod(ctx, mei); err != nil {
		t.Fatal(err)
	}

	if err := s.WipeMapping(ctx); err != nil {
		t.Fatalf("WipeMapping: %v", err)
	}
	if keys := f.blobs.Keys(); len(keys) != 1 || keys[0] != domain.ImageKey(juni, 8, 0) {
		t.Errorf("keys = %v, want only the juni photo", keys)
	}
	if view, progress := s.Mapping(); view.Filled() != 0 || progress != 0 {
		t.Errorf("mei view not cleared: %d photos, %v%%", view.Filled(), progress)
	}

	f.reload(t)
	s2 := f.login(t, "tim2", "tim123")
	if err := s2.SelectPeriod(ctx, juni); err != nil {
		t.Fatal(err)
	}
	if view, _ := s2.Mapping(); view[8].Count() != 1 {
		t.Errorf("juni region 8 = %d photos, want 1", view[8].Count())
	}
}

func TestWipeMapping_DeletesEveryKeyOfThePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.blobs.Put(ctx, domain.ImageKey(mei, 8, 22), []byte("stray"))
	f.blobs.Put(ctx, domain.ImageKey(mei, 0, 0), []byte("stray"))
	f.blobs.Put(ctx, domain.ImageKey(juni, 8, 22), []byte("keep"))

	s := f.login(t, "tim1", "tim123")
	if err := s.WipeMapping(ctx); err != nil {
		t.Fatalf("WipeMapping: %v", err)
	}
	for _, key := range []string{domain.ImageKey(mei, 8, 22), domain.ImageKey(mei, 0, 0)} {
		if _, ok, _ := f.blobs.Get(ctx, key); ok {
			t.Errorf("%s survived the wipe", key)
		}
	}
	if _, ok, _ := f.blobs.Get(ctx, domain.ImageKey(juni, 8, 22)); !ok {
		t.Error("juni photo was deleted")
	}
}

func TestWipeMapping_ReportsFailedDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")
	if _, err := s.UploadPhotos(ctx, 0, photos(1)); err != nil {
		t.Fatal(err)
	}
	f.blobs.FailDelete = true
	if err := s.WipeMapping(ctx); err == nil {
		t.Error("expected an error for failed deletes")
	}
	if view, _ := s.Mapping(); view.Filled() != 0 {
		t.Error("view not cleared")
	}
}

func TestPhoto_ServesStoredBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.login(t, "tim1", "tim123")
	if _, err := s.UploadPhotos(ctx, 6, photos(1)); err != nil {
		t.Fatal(err)
	}
	data, ok, err := f.app.Photo(ctx, mei, 6, 0)
	if err != nil || !ok || string(data) != "jpeg" {
		t.Errorf("Photo = %q, %v, %v", data, ok, err)
	}
	if _, _, err := f.app.Photo(ctx, mei, 9, 0); !errors.Is(err, domain.ErrInvalidRegion) {
		t.Errorf("err = %v, want ErrInvalidRegion", err)
	}
}
