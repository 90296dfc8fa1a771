package bitgo

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bitgo/internal/lazy"
)

// Lazy is a handle for applying deferred operations to a bitmap inside
// LazyBatch. It is only valid until the batch function returns.
//
// Operands may be any bitmap other than the batch target. They are captured
// when the method is called, so mutating an operand afterwards does not
// change the result.
type Lazy struct {
	target *Bitmap
	acc    *lazy.Accumulator
	closed bool
}

func (l *Lazy) operand(other *Bitmap) *roaring.Bitmap {
	if l.closed {
		panic(ErrConsumed)
	}
	if other == l.target || l.acc.Owns(other.rb) {
		panic(ErrAliasedOperand)
	}
	return other.storage()
}

// Or merges other into the target.
func (l *Lazy) Or(other *Bitmap) *Lazy {
	return l.OrWith(other, false)
}

// OrWith merges other into the target. forceBitsets keeps the dense
// containers produced by the union when the batch is repaired, trading memory
// for fewer conversions in later operations.
func (l *Lazy) OrWith(other *Bitmap, forceBitsets bool) *Lazy {
	rb := l.operand(other)
	l.acc.Or(rb, forceBitsets)
	return l
}

// Xor replaces the target with its symmetric difference against other.
func (l *Lazy) Xor(other *Bitmap) *Lazy {
	rb := l.operand(other)
	l.acc.Xor(rb)
	return l
}

// AndNot removes the elements of other from the target.
func (l *Lazy) AndNot(other *Bitmap) *Lazy {
	rb := l.operand(other)
	l.acc.AndNot(rb)
	return l
}

// Add inserts x into the target.
func (l *Lazy) Add(x uint32) *Lazy {
	if l.closed {
		panic(ErrConsumed)
	}
	l.acc.Add(x)
	return l
}

// IsEmpty reports whether the target currently has no element.
func (l *Lazy) IsEmpty() bool {
	if l.closed {
		panic(ErrConsumed)
	}
	return l.acc.IsEmpty()
}

// LazyBatch runs fn with a handle that applies deferred operations to b and
// repairs b before returning, including when fn returns an error or panics.
//
// While fn runs, b itself must not be used: every method of b panics with
// ErrLazyDirty. The result is equal to applying the same operations eagerly
// in the same order.
//
// Example:
//
//	err := b.LazyBatch(func(l *bitgo.Lazy) error {
//	    for _, o := range others {
//	        l.Or(o)
//	    }
//	    l.AndNot(deleted)
//	    return nil
//	})
func (b *Bitmap) LazyBatch(fn func(l *Lazy) error) error {
	_, err := LazyBatchResult(b, func(l *Lazy) (struct{}, error) {
		return struct{}{}, fn(l)
	})
	return err
}

// LazyBatchResult is LazyBatch for batch functions that compute a value.
func LazyBatchResult[R any](b *Bitmap, fn func(l *Lazy) (R, error)) (R, error) {
	acc := lazy.New(b.mutate())
	b.lazy = true

	l := &Lazy{target: b, acc: acc}
	defer func() {
		l.closed = true
		b.rb = acc.Bitmap()
		b.lazy = false
	}()

	return fn(l)
}

// LazyOwned is a bitmap that only accepts deferred operations. It is
// created with NewLazyOwned or Bitmap.IntoLazy and turned back into a
// Bitmap with IntoInner, which repairs it.
//
// Unlike LazyBatch, a LazyOwned may be passed around and kept across
// function boundaries. Dropping it without IntoInner is safe: the storage is
// reclaimed by the garbage collector and the set is never observed.
type LazyOwned struct {
	acc *lazy.Accumulator
}

// NewLazyOwned returns an empty lazy bitmap.
func NewLazyOwned() *LazyOwned {
	return &LazyOwned{acc: lazy.New(nil)}
}

// IntoLazy moves the content of b into a lazy bitmap and leaves b empty.
func (b *Bitmap) IntoLazy() *LazyOwned {
	return &LazyOwned{acc: lazy.New(b.take())}
}

func (l *LazyOwned) accumulator() *lazy.Accumulator {
	if l.acc == nil {
		panic(ErrConsumed)
	}
	return l.acc
}

func (l *LazyOwned) operand(other *Bitmap) *roaring.Bitmap {
	acc := l.accumulator()
	if acc.Owns(other.rb) {
		panic(ErrAliasedOperand)
	}
	return other.storage()
}

// Or merges other into l.
func (l *LazyOwned) Or(other *Bitmap) *LazyOwned {
	return l.OrWith(other, false)
}

// OrWith merges other into l. See Lazy.OrWith for forceBitsets.
func (l *LazyOwned) OrWith(other *Bitmap, forceBitsets bool) *LazyOwned {
	rb := l.operand(other)
	l.acc.Or(rb, forceBitsets)
	return l
}

// OrOwned merges other into l and takes its storage, leaving other empty.
// No snapshot of other is taken.
func (l *LazyOwned) OrOwned(other *Bitmap) *LazyOwned {
	l.operand(other)
	l.acc.OrOwned(other.take(), false)
	return l
}

// OrLazy merges the set accumulated by other into l. other stays lazy and
// is not repaired.
func (l *LazyOwned) OrLazy(other *LazyOwned) *LazyOwned {
	acc := l.accumulator()
	if other == l {
		panic(ErrAliasedOperand)
	}
	acc.Or(other.accumulator().View(), false)
	return l
}

// OrLazyOwned merges other into l and consumes other.
func (l *LazyOwned) OrLazyOwned(other *LazyOwned) *LazyOwned {
	acc := l.accumulator()
	if other == l {
		panic(ErrAliasedOperand)
	}
	rb := other.accumulator().View()
	other.acc = nil
	acc.OrOwned(rb, false)
	return l
}

// Xor replaces l with its symmetric difference against other.
func (l *LazyOwned) Xor(other *Bitmap) *LazyOwned {
	rb := l.operand(other)
	l.acc.Xor(rb)
	return l
}

// AndNot removes the elements of other from l.
func (l *LazyOwned) AndNot(other *Bitmap) *LazyOwned {
	rb := l.operand(other)
	l.acc.AndNot(rb)
	return l
}

// Add inserts x.
func (l *LazyOwned) Add(x uint32) *LazyOwned {
	l.accumulator().Add(x)
	return l
}

// IsEmpty reports whether l has no element.
func (l *LazyOwned) IsEmpty() bool {
	return l.accumulator().IsEmpty()
}

// IntoInner repairs l and returns the result as a Bitmap. l is consumed.
func (l *LazyOwned) IntoInner() *Bitmap {
	acc := l.accumulator()
	l.acc = nil
	return wrap(acc.Bitmap())
}

// Clone returns an independent lazy bitmap with the same content.
func (l *LazyOwned) Clone() *LazyOwned {
	return &LazyOwned{acc: l.accumulator().Clone()}
}

// String formats the accumulated set without affecting l.
func (l *LazyOwned) String() string {
	if l.acc == nil {
		return "<consumed>"
	}
	return l.Clone().IntoInner().String()
}

// LazyAnd returns x ∩ y as a repaired Bitmap without repairing either operand.
func LazyAnd(x, y *LazyOwned) *Bitmap {
	return wrap(lazy.And(x.accumulator(), y.accumulator()))
}
