// Package mmap maps snapshot files into memory for reading.
//
//	m, err := mmap.Open("users.bgs")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	frame := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile, where Advise is a no-op.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch slices returned by Bytes after it returns.
package mmap
