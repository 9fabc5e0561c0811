package templates

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/csg33k/telekolekting/internal/domain"
)

// defaultAvatar is shown for users without a profile photo.
const defaultAvatar = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCA5NiA5NiI+PHJlY3Qgd2lkdGg9Ijk2IiBoZWlnaHQ9Ijk2IiBmaWxsPSIjZGJlYWZlIi8+PGNpcmNsZSBjeD0iNDgiIGN5PSIzNiIgcj0iMTgiIGZpbGw9IiM5M2M1ZmQiLz48cmVjdCB4PSIxOCIgeT0iNjAiIHdpZHRoPSI2MCIgaGVpZ2h0PSIzMCIgcng9IjE1IiBmaWxsPSIjOTNjNWZkIi8+PC9zdmc+"

// avatar returns a safe image source for a stored profile photo.
func avatar(photo *string) template.URL {
	if photo == nil || !strings.HasPrefix(*photo, "data:image/") {
		return defaultAvatar
	}
	return template.URL(*photo)
}

// percent formats a progress value for display and for the bar width.
func percent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// countClass colours a region's photo count: none, partial, complete.
func countClass(n int) string {
	switch {
	case n == 0:
		return "count-none"
	case n < domain.SlotsPerRegion:
		return "count-partial"
	default:
		return "count-full"
	}
}
