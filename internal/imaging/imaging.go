// Package imaging shrinks uploaded photos before they are stored so that the
// blob store and the exported PDF stay small.
package imaging

import (
	"bytes"
	"errors"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// MaxPixels caps the decoded size of an upload; the check runs on the
// header, before any pixel buffer is allocated.
const MaxPixels = 50_000_000

// DefaultQuality matches the 0.7 quality the dashboard has always used.
const DefaultQuality = 70

var (
	ErrEmpty      = errors.New("image is empty")
	ErrUndecoded  = errors.New("unable to decode image")
	ErrDimensions = errors.New("invalid image dimensions")
)

// Processor resizes images and re-encodes them as JPEG.
type Processor struct {
	Quality int
}

func New() *Processor {
	return &Processor{Quality: DefaultQuality}
}

// IsImage sniffs raw and reports whether it looks like an image.
func IsImage(raw []byte) bool {
	return strings.HasPrefix(http.DetectContentType(raw), "image/")
}

// Resize caps the longest side of raw at maxSide, keeping the aspect ratio.
// Smaller images keep their size but are still re-encoded.
func (p *Processor) Resize(raw []byte, maxSide int) ([]byte, error) {
	img, err := decode(raw)
	if err != nil {
		return nil, err
	}
	w, h := fitLongestSide(img.Bounds().Dx(), img.Bounds().Dy(), maxSide)
	return p.encode(scale(img, w, h))
}

// Thumbnail caps the height of raw at maxHeight.
func (p *Processor) Thumbnail(raw []byte, maxHeight int) ([]byte, int, int, error) {
	img, err := decode(raw)
	if err != nil {
		return nil, 0, 0, err
	}
	w, h := fitHeight(img.Bounds().Dx(), img.Bounds().Dy(), maxHeight)
	out, err := p.encode(scale(img, w, h))
	if err != nil {
		return nil, 0, 0, err
	}
	return out, w, h, nil
}

func decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	if err := checkDimensions(raw); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, ErrUndecoded
		}
		img = decoded
	}
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return nil, ErrDimensions
	}
	return img, nil
}

func checkDimensions(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if cfg, err = webp.DecodeConfig(bytes.NewReader(raw)); err != nil {
			return ErrUndecoded
		}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return ErrDimensions
	}
	return nil
}

func fitLongestSide(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || max(w, h) <= maxSide {
		return w, h
	}
	ratio := float64(w) / float64(h)
	if w > h {
		return maxSide, max(1, int(math.Round(float64(maxSide)/ratio)))
	}
	return max(1, int(math.Round(float64(maxSide)*ratio))), maxSide
}

func fitHeight(w, h, maxHeight int) (int, int) {
	if maxHeight <= 0 || h <= maxHeight {
		return w, h
	}
	ratio := float64(w) / float64(h)
	return max(1, int(math.Round(float64(maxHeight)*ratio))), maxHeight
}

// scale draws src onto a white w x h canvas; JPEG has no alpha channel.
func scale(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, stddraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	q := p.Quality
	if q <= 0 || q > 100 {
		q = DefaultQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
