package ports

import (
	"context"
	"io"

	"github.com/csg33k/telekolekting/internal/domain"
)

// Document names used in the DocumentStore.
const (
	UsersDocument   = "telekolekting_users_v1"
	ReportsDocument = "telekolekting_reports_final_v1"
	MappingDocument = "telekolekting_mapping_final_v1"
)

// DocumentStore holds whole JSON documents by name. Every save is a full
// replace; there are no partial updates.
type DocumentStore interface {
	// Load returns the stored body and true, or false when nothing is stored.
	Load(ctx context.Context, name string) ([]byte, bool, error)
	Save(ctx context.Context, name string, body []byte) error
}

// BlobStore holds binary values by opaque key. Put overwrites.
// There is no transactional guarantee across keys.
type BlobStore interface {
	Put(ctx context.Context, key string, value []byte) error
	// Get returns the value and true, or false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
}

// ImageProcessor bounds the size of uploaded images.
type ImageProcessor interface {
	// Resize decodes raw, caps its longest side at maxSide and re-encodes it as JPEG.
	Resize(raw []byte, maxSide int) ([]byte, error)
	// Thumbnail caps the height at maxHeight and returns the JPEG with its pixel size.
	Thumbnail(raw []byte, maxHeight int) (data []byte, width, height int, err error)
}

// Exporter renders report and mapping snapshots into one document format.
type Exporter interface {
	// Format is the file extension produced, e.g. "xlsx" or "pdf".
	Format() string
	ContentType() string
	ExportReports(ctx context.Context, s *domain.ReportSheet, w io.Writer) error
	ExportMapping(ctx context.Context, s *domain.MappingSheet, w io.Writer) error
}
