// Package testutil provides testing utilities for bitgo.
//
// This package is intended for use in tests and benchmarks only.
// It generates reproducible random value sets and bitmaps, and computes
// reference results on plain sorted slices to compare bitmap operations
// against.
//
//	rng := testutil.NewRNG(seed)
//	values := rng.Values(1000, 1<<20)     // random, may repeat
//	dense := rng.Clustered(4, 2000)       // runs inside a few containers
//	want := testutil.UnionSorted(a, b)    // reference result
package testutil
