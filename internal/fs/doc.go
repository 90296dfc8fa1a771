// Package fs provides filesystem abstractions for testability and fault injection.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test wrapper that injects write, sync, close and rename errors
//
// Production code uses fs.Default:
//
//	f, name, err := fs.Default.CreateTemp(dir, ".tmp-*")
//
// Tests inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-*", fs.Fault{FailAfterBytes: 16})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Operations take no context.Context: local file system calls are not
// interruptible at the syscall level.
package fs
