// Package storage provides artifact store implementations for generated
// feed files and uploaded import files.
package storage

import (
	"context"
	"io"
)

// ArtifactStore reads and writes artifacts by opaque location key. Bodies
// are streamed, callers never hold a whole artifact in memory.
type ArtifactStore interface {
	// Put streams body into the store under key, overwriting any existing
	// artifact at that location
	Put(ctx context.Context, key, contentType string, body io.Reader) error

	// Get opens the artifact at key for reading. The caller closes the
	// returned reader. Returns shared.ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the artifact at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an artifact is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}
