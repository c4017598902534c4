package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports ledger snapshots to blob storage. Export never deletes
// or mutates the source rows.
type Archiver interface {
	// ExportHistory uploads every price point recorded before the cutoff
	// and returns the number of exported rows and the object path.
	ExportHistory(ctx context.Context, before time.Time) (int, string, error)
}
