package bitgo

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	gojson "github.com/goccy/go-json"
)

// Bitmap is a compressed set of uint32 values backed by a roaring bitmap.
//
// The zero value is an empty bitmap ready to use. A Bitmap is not safe for
// concurrent use; it may be handed between goroutines but only one may use it
// at a time.
//
// Bitmaps share containers copy-on-write, so Clone and the snapshots taken by
// lazy operations are proportional to the number of containers rather than
// the number of elements.
type Bitmap struct {
	rb *roaring.Bitmap

	// gen is bumped on every mutation; borrowing iterators compare it.
	gen uint64

	// lazy is set while the storage is checked out to a LazyBatch.
	lazy bool
}

// New returns an empty bitmap.
func New() *Bitmap {
	return wrap(roaring.New())
}

// Of returns a bitmap holding the given values.
func Of(values ...uint32) *Bitmap {
	return wrap(roaring.BitmapOf(values...))
}

// FromRange returns a bitmap holding every value in [start, end). Values past
// the uint32 domain are ignored.
func FromRange(start, end uint64) *Bitmap {
	b := New()
	b.AddRange(start, end)
	return b
}

// universe is one past the largest storable value.
const universe = uint64(1) << 32

func wrap(rb *roaring.Bitmap) *Bitmap {
	rb.SetCopyOnWrite(true)
	return &Bitmap{rb: rb}
}

// storage returns the roaring bitmap for a read. It panics with ErrLazyDirty
// while the bitmap is inside a lazy batch.
func (b *Bitmap) storage() *roaring.Bitmap {
	if b.lazy {
		panic(ErrLazyDirty)
	}
	if b.rb == nil {
		b.rb = roaring.New()
		b.rb.SetCopyOnWrite(true)
	}
	return b.rb
}

// mutate returns the roaring bitmap for a write and invalidates borrowing
// iterators.
func (b *Bitmap) mutate() *roaring.Bitmap {
	rb := b.storage()
	b.gen++
	return rb
}

// take moves the storage out of b and leaves b empty.
func (b *Bitmap) take() *roaring.Bitmap {
	rb := b.mutate()
	b.rb = nil
	return rb
}

// Add inserts x.
func (b *Bitmap) Add(x uint32) {
	if b.storage().CheckedAdd(x) {
		b.gen++
	}
}

// AddMany inserts every value of xs.
func (b *Bitmap) AddMany(xs []uint32) {
	if len(xs) == 0 {
		return
	}
	b.mutate().AddMany(xs)
}

// AddRange inserts every value in [start, end). Values past the uint32
// domain are ignored.
func (b *Bitmap) AddRange(start, end uint64) {
	end = min(end, universe)
	if start >= end {
		return
	}
	b.mutate().AddRange(start, end)
}

// Remove deletes x.
func (b *Bitmap) Remove(x uint32) {
	if b.storage().CheckedRemove(x) {
		b.gen++
	}
}

// Clear removes all elements.
func (b *Bitmap) Clear() {
	b.mutate().Clear()
}

// Contains reports whether x is in the bitmap.
func (b *Bitmap) Contains(x uint32) bool {
	return b.storage().Contains(x)
}

// Cardinality returns the number of elements.
func (b *Bitmap) Cardinality() uint64 {
	return b.storage().GetCardinality()
}

// IsEmpty reports whether the bitmap has no element.
func (b *Bitmap) IsEmpty() bool {
	return b.storage().IsEmpty()
}

// Minimum returns the smallest element, or false if the bitmap is empty.
func (b *Bitmap) Minimum() (uint32, bool) {
	rb := b.storage()
	if rb.IsEmpty() {
		return 0, false
	}
	return rb.Minimum(), true
}

// Maximum returns the largest element, or false if the bitmap is empty.
func (b *Bitmap) Maximum() (uint32, bool) {
	rb := b.storage()
	if rb.IsEmpty() {
		return 0, false
	}
	return rb.Maximum(), true
}

// Clone returns an independent copy of b.
func (b *Bitmap) Clone() *Bitmap {
	return wrap(b.storage().Clone())
}

// Equals reports whether b and other hold the same elements.
func (b *Bitmap) Equals(other *Bitmap) bool {
	if b == other {
		return true
	}
	return b.storage().Equals(other.storage())
}

// ToArray returns the elements in ascending order.
func (b *Bitmap) ToArray() []uint32 {
	return b.storage().ToArray()
}

// Or replaces b with b ∪ other.
func (b *Bitmap) Or(other *Bitmap) {
	if b == other {
		return
	}
	b.mutate().Or(other.storage())
}

// And replaces b with b ∩ other.
func (b *Bitmap) And(other *Bitmap) {
	if b == other {
		return
	}
	b.mutate().And(other.storage())
}

// Xor replaces b with b ⊕ other.
func (b *Bitmap) Xor(other *Bitmap) {
	if b == other {
		b.Clear()
		return
	}
	b.mutate().Xor(other.storage())
}

// AndNot replaces b with b \ other.
func (b *Bitmap) AndNot(other *Bitmap) {
	if b == other {
		b.Clear()
		return
	}
	b.mutate().AndNot(other.storage())
}

// Or returns x ∪ y as a new bitmap.
func Or(x, y *Bitmap) *Bitmap {
	return wrap(roaring.Or(x.storage(), y.storage()))
}

// And returns x ∩ y as a new bitmap.
func And(x, y *Bitmap) *Bitmap {
	return wrap(roaring.And(x.storage(), y.storage()))
}

// Xor returns x ⊕ y as a new bitmap.
func Xor(x, y *Bitmap) *Bitmap {
	return wrap(roaring.Xor(x.storage(), y.storage()))
}

// AndNot returns x \ y as a new bitmap.
func AndNot(x, y *Bitmap) *Bitmap {
	return wrap(roaring.AndNot(x.storage(), y.storage()))
}

// RunOptimize converts containers to run-length encoding where it is smaller.
func (b *Bitmap) RunOptimize() {
	b.mutate().RunOptimize()
}

// SizeInBytes estimates the in-memory size of the bitmap.
func (b *Bitmap) SizeInBytes() uint64 {
	return b.storage().GetSizeInBytes()
}

// String formats the bitmap as {a,b,c}.
func (b *Bitmap) String() string {
	return b.storage().String()
}

// WriteTo writes the bitmap in the portable roaring format.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	return b.storage().WriteTo(w)
}

// ReadFrom replaces the content of b with a bitmap in the portable roaring
// format read from r.
func (b *Bitmap) ReadFrom(r io.Reader) (int64, error) {
	rb := roaring.New()
	n, err := rb.ReadFrom(r)
	if err != nil {
		return n, err
	}
	b.mutate()
	rb.SetCopyOnWrite(true)
	b.rb = rb
	return n, nil
}

// MarshalBinary encodes the bitmap in the portable roaring format.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	return b.storage().ToBytes()
}

// UnmarshalBinary decodes a bitmap in the portable roaring format.
func (b *Bitmap) UnmarshalBinary(data []byte) error {
	rb := roaring.New()
	if err := rb.UnmarshalBinary(data); err != nil {
		return err
	}
	b.mutate()
	rb.SetCopyOnWrite(true)
	b.rb = rb
	return nil
}

// MarshalJSON encodes the bitmap as a sorted JSON array.
func (b *Bitmap) MarshalJSON() ([]byte, error) {
	values := b.ToArray()
	if values == nil {
		values = []uint32{}
	}
	return gojson.Marshal(values)
}

// UnmarshalJSON decodes a JSON array of values in any order.
func (b *Bitmap) UnmarshalJSON(data []byte) error {
	var values []uint32
	if err := gojson.Unmarshal(data, &values); err != nil {
		return err
	}
	rb := roaring.BitmapOf(values...)
	b.mutate()
	rb.SetCopyOnWrite(true)
	b.rb = rb
	return nil
}
