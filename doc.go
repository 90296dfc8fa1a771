// Package bitgo provides compressed uint32 sets backed by roaring bitmaps,
// with a lazy evaluation engine for folding many operands cheaply and
// double-ended iterators with bulk reads.
//
// # Quick Start
//
//	a := bitgo.Of(1, 2, 3)
//	b := bitgo.FromRange(100, 200)
//	a.Or(b)
//	fmt.Println(a.Cardinality()) // 103
//
// # Lazy Operations
//
// Combining many bitmaps one by one normalizes the result after every step.
// A lazy batch defers that work: operations of the same kind are collected
// and folded together, and the result is repaired once when the batch ends.
//
//	err := dst.LazyBatch(func(l *bitgo.Lazy) error {
//	    for _, src := range sources {
//	        l.Or(src)
//	    }
//	    l.AndNot(deleted)
//	    return nil
//	})
//
// The target must not be touched while the batch runs; doing so panics with
// ErrLazyDirty. The result always equals applying the same operations
// eagerly in the same order.
//
// When the lazy state has to outlive a function call, use LazyOwned:
//
//	acc := bitgo.NewLazyOwned()
//	for _, src := range sources {
//	    acc.Or(src)
//	}
//	result := acc.IntoInner()
//
// # Iteration
//
//	it := b.Iter()
//	v, ok := it.Next()      // ascending
//	w, ok := it.NextBack()  // descending, independent of Next
//
//	buf := make([]uint32, 4096)
//	for n := it.NextMany(buf); n > 0; n = it.NextMany(buf) {
//	    process(buf[:n])
//	}
//
//	for v := range b.All() { ... }
//
// # Persistence
//
// A Catalog stores named bitmaps in a blobstore.BlobStore (memory, local
// directory, MinIO or S3) as checksummed, optionally compressed snapshots:
//
//	cat := bitgo.NewCatalog(blobstore.NewLocalStore("./bitmaps"),
//	    bitgo.WithCompression(codec.CompressionZstd),
//	)
//	err := cat.Save(ctx, "users/active", active)
//	active, err := cat.Load(ctx, "users/active")
//
// WriteFile and ReadFile handle single snapshot files in the same format.
// ReadFile maps the file into memory while decoding it.
//
// # Thread Safety
//
// A Bitmap is not safe for concurrent use. A Catalog is.
package bitgo
