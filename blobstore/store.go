package blobstore

import (
	"context"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores whole, immutable blobs addressed by name.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Put writes a blob atomically, replacing any existing blob with the
	// same name. Readers observe either the old or the new content.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// HasPrefix reports whether name is listed under prefix.
func HasPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(name, prefix)
}
