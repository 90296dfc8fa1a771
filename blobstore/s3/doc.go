// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("bitmaps/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	cat := bitgo.NewCatalog(store)
//
// # Features
//
//   - Multipart uploads for blobs above the configured threshold
//   - CRC32C checksums validated by S3 on upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
