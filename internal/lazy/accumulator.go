package lazy

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// MaxPending bounds the number of operand snapshots a run holds before it is
// folded into the base.
const MaxPending = 256

// maxAdds bounds the buffered single-element insertions of a union run.
const maxAdds = 1 << 14

type opKind uint8

const (
	opNone opKind = iota
	opOr
	opXor
	opAndNot
)

// Accumulator applies deferred boolean operations to a base bitmap.
//
// An Accumulator is not safe for concurrent use. Operands passed to its
// methods must not be used concurrently with the call, because taking a
// copy-on-write snapshot marks their containers as shared.
type Accumulator struct {
	base    *roaring.Bitmap
	kind    opKind
	pending []*roaring.Bitmap
	adds    []uint32

	// keepDense records that a union asked for dense containers; Repair then
	// skips run compression.
	keepDense bool
	dirty     bool
	ops       int
}

// New returns an Accumulator that takes ownership of base.
// A nil base starts an empty accumulator.
func New(base *roaring.Bitmap) *Accumulator {
	if base == nil {
		base = roaring.New()
	}
	base.SetCopyOnWrite(true)
	return &Accumulator{base: base}
}

// Snapshot returns a copy-on-write clone of rb. The clone shares containers
// with rb until either side writes to them.
func Snapshot(rb *roaring.Bitmap) *roaring.Bitmap {
	if !rb.GetCopyOnWrite() {
		rb.SetCopyOnWrite(true)
	}
	return rb.Clone()
}

// Owns reports whether rb is the storage currently owned by the accumulator.
func (a *Accumulator) Owns(rb *roaring.Bitmap) bool { return rb == a.base }

// Or merges other into the base. forceBitsets keeps the dense containers
// produced by the union instead of run-compressing them on Repair.
func (a *Accumulator) Or(other *roaring.Bitmap, forceBitsets bool) {
	a.begin(opOr)
	if forceBitsets {
		a.keepDense = true
	}
	if other.IsEmpty() {
		return
	}
	a.push(opOr, Snapshot(other))
}

// OrOwned merges other into the base and takes ownership of it.
// The caller must not use other afterwards.
func (a *Accumulator) OrOwned(other *roaring.Bitmap, forceBitsets bool) {
	a.begin(opOr)
	if forceBitsets {
		a.keepDense = true
	}
	if other.IsEmpty() {
		return
	}
	a.push(opOr, other)
}

// Xor replaces the base with its symmetric difference against other.
func (a *Accumulator) Xor(other *roaring.Bitmap) {
	a.begin(opXor)
	if other.IsEmpty() {
		return
	}
	a.push(opXor, Snapshot(other))
}

// AndNot removes every element of other from the base.
func (a *Accumulator) AndNot(other *roaring.Bitmap) {
	a.begin(opAndNot)
	if other.IsEmpty() || a.base.IsEmpty() {
		return
	}
	a.push(opAndNot, Snapshot(other))
}

// Add inserts x as part of the current union run.
func (a *Accumulator) Add(x uint32) {
	a.begin(opOr)
	a.adds = append(a.adds, x)
	if len(a.adds) >= maxAdds {
		a.fold()
		a.kind = opOr
	}
}

// IsEmpty reports whether the accumulated set has no element. It is valid
// while the accumulator is dirty.
func (a *Accumulator) IsEmpty() bool {
	if a.kind == opOr && (len(a.adds) > 0 || len(a.pending) > 0) {
		// Only non-empty operands are queued.
		return false
	}
	if len(a.pending) > 0 {
		a.fold()
	}
	return a.base.IsEmpty()
}

// View folds the pending run and returns the base without repairing it.
// The returned bitmap holds the accumulated set and must be treated as
// read-only.
func (a *Accumulator) View() *roaring.Bitmap {
	a.fold()
	return a.base
}

// And returns the intersection of the sets accumulated by x and y as a new,
// fully repaired bitmap. Neither accumulator is repaired; pending runs are
// folded, which does not change their logical content.
func And(x, y *Accumulator) *roaring.Bitmap {
	out := roaring.And(x.View(), y.View())
	out.SetCopyOnWrite(true)
	return out
}

// Repair folds the pending run and normalizes the base. It is a no-op on a
// clean accumulator.
func (a *Accumulator) Repair() {
	if !a.dirty {
		return
	}
	a.fold()
	if !a.keepDense {
		a.base.RunOptimize()
	}
	a.keepDense = false
	a.dirty = false
	a.ops = 0
}

// Bitmap repairs the accumulator and returns its base. The accumulator keeps
// ownership; callers that hand the bitmap out must stop using the accumulator.
func (a *Accumulator) Bitmap() *roaring.Bitmap {
	a.Repair()
	return a.base
}

// Clone returns an independent accumulator holding the same logical set and
// the same dirty state.
func (a *Accumulator) Clone() *Accumulator {
	a.fold()
	return &Accumulator{
		base:      Snapshot(a.base),
		keepDense: a.keepDense,
		dirty:     a.dirty,
		ops:       a.ops,
	}
}

func (a *Accumulator) begin(kind opKind) {
	a.dirty = true
	a.ops++
	if a.kind != kind {
		a.fold()
		a.kind = kind
	}
}

func (a *Accumulator) push(kind opKind, rb *roaring.Bitmap) {
	a.pending = append(a.pending, rb)
	if len(a.pending) >= MaxPending {
		a.fold()
		a.kind = kind
	}
}

// fold applies the pending run to the base. The logical set is unchanged by
// folding; only the representation catches up.
func (a *Accumulator) fold() {
	switch a.kind {
	case opOr:
		if len(a.pending) > 0 {
			a.pending = append(a.pending, a.base)
			a.base = roaring.FastOr(a.pending...)
		}
		if len(a.adds) > 0 {
			a.base.AddMany(a.adds)
		}
	case opXor:
		switch len(a.pending) {
		case 0:
		case 1:
			a.base.Xor(a.pending[0])
		default:
			a.base.Xor(roaring.HeapXor(a.pending...))
		}
	case opAndNot:
		switch len(a.pending) {
		case 0:
		case 1:
			a.base.AndNot(a.pending[0])
		default:
			a.base.AndNot(roaring.FastOr(a.pending...))
		}
	}

	clear(a.pending)
	a.pending = a.pending[:0]
	a.adds = a.adds[:0]
	a.kind = opNone
	a.base.SetCopyOnWrite(true)
}
