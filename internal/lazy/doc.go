// Package lazy implements deferred boolean algebra over roaring bitmaps.
//
// An Accumulator owns a base bitmap and defers the bookkeeping of chained
// union, symmetric-difference and difference operations:
//
//   - Consecutive operations of the same kind form a run.
//   - Each operand of a run is captured as a copy-on-write snapshot, so
//     later mutation of the caller's bitmap does not leak into the result.
//   - A run is folded into the base with a single aggregate primitive
//     (roaring.FastOr, roaring.HeapXor, or one AndNot against the union of
//     the run) when the operation kind changes, when the run grows past
//     MaxPending operands, or on Repair.
//
// Cardinality and container normalization are therefore paid once per run
// instead of once per operation. Between Repair calls the base is stale and
// only the Accumulator methods may be used.
package lazy
