package bitgo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hupe1980/bitgo/blobstore"
	"github.com/hupe1980/bitgo/codec"
	"github.com/hupe1980/bitgo/internal/mmap"
	"github.com/hupe1980/bitgo/internal/snapshot"
)

// WriteFile writes b to path as a standalone snapshot, replacing the file
// atomically. The format is the one a Catalog uses for its data blobs.
func WriteFile(ctx context.Context, path string, b *Bitmap, c codec.Compression) error {
	raw, err := b.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal %q: %w", path, err)
	}
	frame, err := snapshot.Encode(raw, c)
	if err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}

	dir, name := filepath.Split(path)
	return blobstore.NewLocalStore(dir).Put(ctx, name, frame)
}

// ReadFile reads a snapshot written by WriteFile, or a data blob of a
// Catalog backed by a LocalStore. The file is memory-mapped while it is
// decoded.
func ReadFile(path string) (*Bitmap, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, translateError(path, err)
	}
	defer m.Close()

	// Advice is only a hint; the read works without it.
	_ = m.Advise(mmap.AccessSequential)

	raw, _, err := snapshot.Decode(m.Bytes())
	if err != nil {
		return nil, translateError(path, err)
	}

	// UnmarshalBinary copies, so nothing refers to the mapping afterwards.
	b := New()
	if err := b.UnmarshalBinary(raw); err != nil {
		return nil, &ErrCorruptSnapshot{Name: path, cause: err}
	}
	return b, nil
}
