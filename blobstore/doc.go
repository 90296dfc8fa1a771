// Package blobstore provides the storage abstraction behind a bitgo Catalog.
//
// BlobStore reads and writes whole blobs by name. Implementations must be
// safe for concurrent use and must make Put atomic.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and ephemeral catalogs
//   - LocalStore: local directory with temp-file-and-rename writes
//   - minio.Store: MinIO and other S3-compatible services
//   - s3.Store: Amazon S3, with multipart uploads for large blobs
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Put(ctx, name, data) error
//	    Get(ctx, name) ([]byte, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Get on a missing blob must return an error matching ErrNotFound.
package blobstore
