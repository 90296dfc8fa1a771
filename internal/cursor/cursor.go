package cursor

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// BlockSize is the number of elements a Forward cursor decodes per refill.
const BlockSize = 256

// maxMany is the largest count returned by one NextMany call.
var maxMany uint64 = math.MaxUint32

// Forward is an ascending cursor over a roaring bitmap.
type Forward struct {
	src  roaring.ManyIntIterable
	buf  []uint32
	pos  int
	done bool
}

// NewForward positions a cursor on the smallest element of rb.
func NewForward(rb *roaring.Bitmap) *Forward {
	c := &Forward{
		src: rb.ManyIterator(),
		buf: make([]uint32, 0, BlockSize),
	}
	c.refill()
	return c
}

// Current returns the element under the cursor without advancing.
func (c *Forward) Current() (uint32, bool) {
	if c.pos < len(c.buf) {
		return c.buf[c.pos], true
	}
	if !c.refill() {
		return 0, false
	}
	return c.buf[c.pos], true
}

// Next returns the element under the cursor and advances past it.
func (c *Forward) Next() (uint32, bool) {
	v, ok := c.Current()
	if ok {
		c.pos++
	}
	return v, ok
}

// Done reports whether the cursor is known to be exhausted. A cursor whose
// last element was just consumed may still report false until the next read.
func (c *Forward) Done() bool { return c.done }

// NextMany copies up to len(dst) ascending elements into dst and returns the
// count. A short count means the cursor is exhausted. Requests larger than
// math.MaxUint32 are clamped.
func (c *Forward) NextMany(dst []uint32) int {
	if uint64(len(dst)) > maxMany {
		dst = dst[:maxMany]
	}

	n := copy(dst, c.buf[c.pos:])
	c.pos += n

	for n < len(dst) && !c.done {
		m := c.src.NextMany(dst[n:])
		if m == 0 {
			c.finish()
			break
		}
		n += m
	}
	return n
}

func (c *Forward) refill() bool {
	if c.done {
		return false
	}
	m := c.src.NextMany(c.buf[:cap(c.buf)])
	if m == 0 {
		c.finish()
		return false
	}
	c.buf = c.buf[:m]
	c.pos = 0
	return true
}

func (c *Forward) finish() {
	c.done = true
	c.buf = c.buf[:0]
	c.pos = 0
	c.src = nil
}

// Backward is a descending cursor over a roaring bitmap.
type Backward struct {
	src roaring.IntIterable
	cur uint32
	ok  bool
}

// NewBackward positions a cursor on the largest element of rb.
func NewBackward(rb *roaring.Bitmap) *Backward {
	c := &Backward{src: rb.ReverseIterator()}
	c.advance()
	return c
}

// Current returns the element under the cursor without advancing.
func (c *Backward) Current() (uint32, bool) { return c.cur, c.ok }

// Next returns the element under the cursor and moves to the next smaller one.
func (c *Backward) Next() (uint32, bool) {
	if !c.ok {
		return 0, false
	}
	v := c.cur
	c.advance()
	return v, true
}

// Done reports whether the cursor is exhausted.
func (c *Backward) Done() bool { return !c.ok }

func (c *Backward) advance() {
	if c.src != nil && c.src.HasNext() {
		c.cur = c.src.Next()
		c.ok = true
		return
	}
	c.cur, c.ok, c.src = 0, false, nil
}
