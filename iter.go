package bitgo

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bitgo/internal/cursor"
)

// cursors holds the two independent traversal states shared by Iterator
// and OwningIterator. The forward and backward cursors do not observe each
// other: interleaving Next and NextBack walks the set from both ends, and
// the two walks may cross.
type cursors struct {
	fwd *cursor.Forward
	bwd *cursor.Backward
}

func newCursors(rb *roaring.Bitmap) cursors {
	return cursors{
		fwd: cursor.NewForward(rb),
		bwd: cursor.NewBackward(rb),
	}
}

// Iterator walks a borrowed bitmap. The bitmap must not be mutated while
// the iterator is in use; doing so makes the next read panic with
// ErrConcurrentModification. A cursor that already reported exhaustion
// keeps reporting it.
type Iterator struct {
	cursors
	src *Bitmap
	gen uint64
}

// Iter returns an iterator over the elements of b.
//
// Example:
//
//	it := b.Iter()
//	buf := make([]uint32, 1024)
//	for n := it.NextMany(buf); n > 0; n = it.NextMany(buf) {
//	    process(buf[:n])
//	}
func (b *Bitmap) Iter() *Iterator {
	return &Iterator{
		cursors: newCursors(b.storage()),
		src:     b,
		gen:     b.gen,
	}
}

func (it *Iterator) checkSource() {
	if it.src.lazy || it.src.gen != it.gen {
		panic(ErrConcurrentModification)
	}
}

// Next returns the next element in ascending order.
func (it *Iterator) Next() (uint32, bool) {
	if it.fwd.Done() {
		return 0, false
	}
	it.checkSource()
	return it.fwd.Next()
}

// NextBack returns the next element in descending order.
func (it *Iterator) NextBack() (uint32, bool) {
	if it.bwd.Done() {
		return 0, false
	}
	it.checkSource()
	return it.bwd.Next()
}

// NextMany fills dst with the next ascending elements and returns how many
// were written. It returns fewer than len(dst) only when the iterator is
// exhausted, and 0 when it was already exhausted. Calls may be interleaved
// with Next. At most math.MaxUint32 elements are written per call.
func (it *Iterator) NextMany(dst []uint32) int {
	if it.fwd.Done() || len(dst) == 0 {
		return 0
	}
	it.checkSource()
	return it.fwd.NextMany(dst)
}

// Values returns the remaining ascending elements as a sequence.
func (it *Iterator) Values() iter.Seq[uint32] {
	return seq(it.Next)
}

// Backward returns the remaining descending elements as a sequence.
func (it *Iterator) Backward() iter.Seq[uint32] {
	return seq(it.NextBack)
}

// OwningIterator walks a bitmap it owns. It can be stored and returned
// freely since no other value refers to its storage.
type OwningIterator struct {
	cursors

	// rb keeps the storage reachable for the cursors.
	rb *roaring.Bitmap
}

// IntoIter moves the content of b into an iterator and leaves b empty.
func (b *Bitmap) IntoIter() *OwningIterator {
	rb := b.take()
	return &OwningIterator{
		cursors: newCursors(rb),
		rb:      rb,
	}
}

// Next returns the next element in ascending order.
func (it *OwningIterator) Next() (uint32, bool) {
	return it.fwd.Next()
}

// NextBack returns the next element in descending order.
func (it *OwningIterator) NextBack() (uint32, bool) {
	return it.bwd.Next()
}

// NextMany behaves like Iterator.NextMany.
func (it *OwningIterator) NextMany(dst []uint32) int {
	if len(dst) == 0 {
		return 0
	}
	return it.fwd.NextMany(dst)
}

// Values returns the remaining ascending elements as a sequence.
func (it *OwningIterator) Values() iter.Seq[uint32] {
	return seq(it.Next)
}

// Backward returns the remaining descending elements as a sequence.
func (it *OwningIterator) Backward() iter.Seq[uint32] {
	return seq(it.NextBack)
}

func seq(next func() (uint32, bool)) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for {
			v, ok := next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// All returns the elements of b in ascending order. Each range over the
// sequence starts a new Iterator.
func (b *Bitmap) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for v := range b.Iter().Values() {
			if !yield(v) {
				return
			}
		}
	}
}

// Backward returns the elements of b in descending order.
func (b *Bitmap) Backward() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for v := range b.Iter().Backward() {
			if !yield(v) {
				return
			}
		}
	}
}

// fromSeqChunk bounds the values buffered by FromSeq before they are added.
const fromSeqChunk = 4096

// FromSeq builds a bitmap from the values of seq. Order and duplicates in
// seq do not matter.
func FromSeq(seq iter.Seq[uint32]) *Bitmap {
	b := New()
	buf := make([]uint32, 0, fromSeqChunk)
	for v := range seq {
		buf = append(buf, v)
		if len(buf) == cap(buf) {
			b.rb.AddMany(buf)
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		b.rb.AddMany(buf)
	}
	return b
}

// FromSlice builds a bitmap from values in any order.
func FromSlice(values []uint32) *Bitmap {
	return Of(values...)
}

// Extend adds every value of seq to b, one at a time. Values already present
// leave b unchanged, so extending b with its own elements is allowed.
func (b *Bitmap) Extend(seq iter.Seq[uint32]) {
	for v := range seq {
		b.Add(v)
	}
}

// ExtendSlice adds every value of values to b.
func (b *Bitmap) ExtendSlice(values []uint32) {
	b.AddMany(values)
}
