package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegSize(t *testing.T, b []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestResize_CapsLongestSide(t *testing.T) {
	p := New()
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape", 2400, 1200, 1200, 600},
		{"portrait", 600, 1800, 400, 1200},
		{"small kept", 300, 200, 300, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Resize(pngBytes(t, tt.w, tt.h), 1200)
			if err != nil {
				t.Fatalf("Resize: %v", err)
			}
			w, h := jpegSize(t, out)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnail_CapsHeight(t *testing.T) {
	out, w, h, err := New().Thumbnail(pngBytes(t, 400, 300), 120)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if w != 160 || h != 120 {
		t.Errorf("reported size = %dx%d, want 160x120", w, h)
	}
	if gw, gh := jpegSize(t, out); gw != w || gh != h {
		t.Errorf("encoded size = %dx%d, reported %dx%d", gw, gh, w, h)
	}
}

func TestResize_RejectsGarbage(t *testing.T) {
	if _, err := New().Resize([]byte("not an image"), 1200); err != ErrUndecoded {
		t.Errorf("err = %v, want ErrUndecoded", err)
	}
	if _, err := New().Resize(nil, 1200); err != ErrEmpty {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage(pngBytes(t, 2, 2)) {
		t.Error("png not detected as image")
	}
	if IsImage([]byte("Nama,Status\n")) {
		t.Error("csv detected as image")
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h pixels,
// enough for DecodeConfig but with no pixel data behind it.
func pngHeader(w, h uint32) []byte {
	var ihdr bytes.Buffer
	ihdr.WriteString("IHDR")
	binary.Write(&ihdr, binary.BigEndian, w)
	binary.Write(&ihdr, binary.BigEndian, h)
	ihdr.Write([]byte{8, 0, 0, 0, 0}) // 8-bit grayscale
	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&out, binary.BigEndian, uint32(ihdr.Len()-4))
	out.Write(ihdr.Bytes())
	binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(ihdr.Bytes()))
	return out.Bytes()
}

func TestResize_RejectsOversizedDimensions(t *testing.T) {
	raw := pngHeader(12000, 12000)
	if _, err := New().Resize(raw, 1200); err != ErrDimensions {
		t.Errorf("Resize err = %v, want ErrDimensions", err)
	}
	if _, _, _, err := New().Thumbnail(raw, 120); err != ErrDimensions {
		t.Errorf("Thumbnail err = %v, want ErrDimensions", err)
	}
}
