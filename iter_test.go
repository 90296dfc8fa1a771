package bitgo

import (
	"slices"
	"testing"

	"github.com/hupe1980/bitgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBitmap() *Bitmap {
	b := FromRange(0, 100)
	b.Add(222)
	b.Add(555)
	return b
}

func TestIterator(t *testing.T) {
	b := sampleBitmap()
	it := b.Iter()

	v, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, uint32(0), v)

	v, ok = it.NextBack()
	require.True(t, ok)
	assert.Equal(t, uint32(555), v)

	buf := make([]uint32, 10)
	require.Equal(t, 10, it.NextMany(buf))
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, buf)

	v, ok = it.NextBack()
	require.True(t, ok)
	assert.Equal(t, uint32(222), v)

	rest := slices.Collect(it.Values())
	require.Len(t, rest, 91)
	assert.Equal(t, uint32(11), rest[0])
	assert.Equal(t, []uint32{99, 222, 555}, rest[88:])

	_, ok = it.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, it.NextMany(buf))
}

func TestIterator_BulkMatchesSingle(t *testing.T) {
	b := FromSlice(testutil.NewRNG(5).Clustered(4, 5000))
	want := b.ToArray()

	for _, size := range []int{1, 7, 256, 1000, 100000} {
		it := b.Iter()
		buf := make([]uint32, size)
		var got []uint32
		for n := it.NextMany(buf); n > 0; n = it.NextMany(buf) {
			if n < size {
				// A short read means the next one is empty.
				got = append(got, buf[:n]...)
				assert.Equal(t, 0, it.NextMany(buf))
				break
			}
			got = append(got, buf[:n]...)
		}
		assert.Equal(t, want, got, "buffer size %d", size)
	}

	single := slices.Collect(b.All())
	assert.Equal(t, want, single)
}

func TestIterator_Interleaved(t *testing.T) {
	b := FromSlice(testutil.NewRNG(9).Values(3000, 1<<22))
	want := b.ToArray()

	it := b.Iter()
	var got []uint32
	buf := make([]uint32, 13)
	for i := 0; ; i++ {
		if i%2 == 0 {
			v, ok := it.Next()
			if !ok {
				break
			}
			got = append(got, v)
			continue
		}
		n := it.NextMany(buf)
		got = append(got, buf[:n]...)
		if n < len(buf) {
			break
		}
	}
	assert.Equal(t, want, got)
}

func TestIterator_Backward(t *testing.T) {
	b := FromSlice(testutil.NewRNG(13).Values(2000, 1<<24))
	want := b.ToArray()
	slices.Reverse(want)

	assert.Equal(t, want, slices.Collect(b.Backward()))
	assert.Equal(t, want, slices.Collect(b.Iter().Backward()))
}

func TestIterator_CursorsCross(t *testing.T) {
	b := Of(1, 2, 3)
	it := b.Iter()

	var fwd, bwd []uint32
	for range 3 {
		v, ok := it.Next()
		require.True(t, ok)
		fwd = append(fwd, v)
		w, ok := it.NextBack()
		require.True(t, ok)
		bwd = append(bwd, w)
	}
	assert.Equal(t, []uint32{1, 2, 3}, fwd)
	assert.Equal(t, []uint32{3, 2, 1}, bwd)
}

func TestIterator_Exhaustion(t *testing.T) {
	b := Of(1, 2)
	it := b.Iter()
	assert.Equal(t, []uint32{1, 2}, slices.Collect(it.Values()))
	assert.Equal(t, []uint32{2, 1}, slices.Collect(it.Backward()))

	// Both cursors are exhausted; later mutation of the source is not observed.
	b.Add(3)
	for range 3 {
		_, ok := it.Next()
		assert.False(t, ok)
		_, ok = it.NextBack()
		assert.False(t, ok)
		assert.Equal(t, 0, it.NextMany(make([]uint32, 4)))
	}
}

func TestIterator_ConcurrentModification(t *testing.T) {
	b := sampleBitmap()
	it := b.Iter()
	_, _ = it.Next()

	b.Add(50) // already present: no mutation
	_, ok := it.Next()
	assert.True(t, ok)

	b.Add(1000)
	assert.PanicsWithValue(t, ErrConcurrentModification, func() { it.Next() })
	assert.PanicsWithValue(t, ErrConcurrentModification, func() { it.NextBack() })
	assert.PanicsWithValue(t, ErrConcurrentModification, func() { it.NextMany(make([]uint32, 4)) })
}

func TestIterator_EmptyBuffer(t *testing.T) {
	it := Of(1).Iter()
	assert.Equal(t, 0, it.NextMany(nil))
	v, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)
}

func TestAll_EarlyBreak(t *testing.T) {
	b := FromRange(0, 1000)
	var got []uint32
	for v := range b.All() {
		if v == 3 {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []uint32{0, 1, 2}, got)

	// Each range starts over.
	first, ok := firstOf(b.All())
	require.True(t, ok)
	assert.Equal(t, uint32(0), first)
}

func firstOf(seq func(func(uint32) bool)) (uint32, bool) {
	for v := range seq {
		return v, true
	}
	return 0, false
}

func TestOwningIterator(t *testing.T) {
	b := sampleBitmap()
	it := b.IntoIter()
	assert.True(t, b.IsEmpty())

	// The source can be reused without affecting the iterator.
	b.Add(7)

	v, ok := it.NextBack()
	require.True(t, ok)
	assert.Equal(t, uint32(555), v)

	buf := make([]uint32, 200)
	n := it.NextMany(buf)
	require.Equal(t, 102, n)
	assert.Equal(t, uint32(0), buf[0])
	assert.Equal(t, uint32(555), buf[101])

	assert.Equal(t, 0, it.NextMany(buf))
	_, ok = it.Next()
	assert.False(t, ok)

	rest := slices.Collect(it.Backward())
	assert.Len(t, rest, 101)
	assert.Equal(t, uint32(222), rest[0])
}

func TestFromSeq(t *testing.T) {
	values := testutil.NewRNG(21).Values(10000, 1<<20)

	a := FromSeq(slices.Values(values))
	b := FromSlice(values)
	c := New()
	c.Extend(slices.Values(values))
	d := New()
	d.ExtendSlice(values)

	want := testutil.SortedSet(values)
	assert.Equal(t, want, a.ToArray())
	assert.True(t, a.Equals(b))
	assert.True(t, a.Equals(c))
	assert.True(t, a.Equals(d))

	assert.True(t, FromSeq(slices.Values([]uint32(nil))).IsEmpty())
}

func TestExtend_Self(t *testing.T) {
	b := Of(4, 8, 15)
	b.Extend(b.All())
	assert.Equal(t, []uint32{4, 8, 15}, b.ToArray())
}
