package bitgo

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hupe1980/bitgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_ZeroValue(t *testing.T) {
	var b Bitmap
	assert.True(t, b.IsEmpty())
	assert.Equal(t, uint64(0), b.Cardinality())

	_, ok := b.Minimum()
	assert.False(t, ok)
	_, ok = b.Maximum()
	assert.False(t, ok)

	b.Add(7)
	assert.True(t, b.Contains(7))
	assert.Equal(t, "{7}", b.String())
}

func TestBitmap_Elements(t *testing.T) {
	b := Of(5, 1, 3)
	b.AddMany([]uint32{3, 9})
	b.AddRange(100, 103)
	b.AddRange(10, 10)
	b.Remove(1)
	b.Remove(1000)

	assert.Equal(t, []uint32{3, 5, 9, 100, 101, 102}, b.ToArray())

	minimum, ok := b.Minimum()
	require.True(t, ok)
	assert.Equal(t, uint32(3), minimum)
	maximum, ok := b.Maximum()
	require.True(t, ok)
	assert.Equal(t, uint32(102), maximum)

	b.Clear()
	assert.True(t, b.IsEmpty())
}

func TestBitmap_FullRange(t *testing.T) {
	b := FromRange(1<<32-3, 1<<32)
	assert.Equal(t, []uint32{1<<32 - 3, 1<<32 - 2, 1<<32 - 1}, b.ToArray())

	b = FromRange(1<<32-2, 1<<32+5)
	assert.Equal(t, []uint32{1<<32 - 2, 1<<32 - 1}, b.ToArray())

	assert.True(t, FromRange(1<<32, 1<<40).IsEmpty())

	b = Of(7)
	b.AddRange(1<<32-1, 1<<63)
	assert.Equal(t, []uint32{7, 1<<32 - 1}, b.ToArray())
}

func TestBitmap_SetOperations(t *testing.T) {
	rng := testutil.NewRNG(7)
	av := rng.Values(2000, 1<<18)
	bv := rng.Values(2000, 1<<18)
	as, bs := testutil.SortedSet(av), testutil.SortedSet(bv)

	tests := []struct {
		name    string
		inplace func(x, y *Bitmap)
		fn      func(x, y *Bitmap) *Bitmap
		want    []uint32
	}{
		{"Or", (*Bitmap).Or, Or, testutil.UnionSorted(as, bs)},
		{"And", (*Bitmap).And, And, testutil.IntersectSorted(as, bs)},
		{"Xor", (*Bitmap).Xor, Xor, testutil.SymmetricDifferenceSorted(as, bs)},
		{"AndNot", (*Bitmap).AndNot, AndNot, testutil.DifferenceSorted(as, bs)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := FromSlice(av), FromSlice(bv)

			out := tt.fn(x, y)
			assert.Equal(t, uint64(len(tt.want)), out.Cardinality())
			assert.Equal(t, tt.want, out.ToArray())

			tt.inplace(x, y)
			assert.True(t, out.Equals(x))
			assert.Equal(t, bs, y.ToArray(), "operand must not change")
		})
	}
}

func TestBitmap_SelfOperations(t *testing.T) {
	b := Of(1, 2)
	b.Or(b)
	assert.Equal(t, []uint32{1, 2}, b.ToArray())
	b.And(b)
	assert.Equal(t, []uint32{1, 2}, b.ToArray())
	b.Xor(b)
	assert.True(t, b.IsEmpty())

	b = Of(1, 2)
	b.AndNot(b)
	assert.True(t, b.IsEmpty())
}

func TestBitmap_Clone(t *testing.T) {
	b := FromRange(0, 5000)
	c := b.Clone()
	c.Add(10000)
	b.Remove(0)

	assert.Equal(t, uint64(4999), b.Cardinality())
	assert.Equal(t, uint64(5001), c.Cardinality())
	assert.True(t, c.Contains(0))
	assert.False(t, b.Contains(10000))
}

func TestBitmap_Binary(t *testing.T) {
	b := FromSlice(testutil.NewRNG(3).Clustered(3, 3000))
	b.RunOptimize()
	assert.Positive(t, b.SizeInBytes())

	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)

	var decoded Bitmap
	_, err = decoded.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, b.Equals(&decoded))

	data, err := b.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), data)

	other := Of(1)
	require.NoError(t, other.UnmarshalBinary(data))
	assert.True(t, b.Equals(other))

	assert.Error(t, other.UnmarshalBinary([]byte{1, 2, 3}))
}

func TestBitmap_JSON(t *testing.T) {
	data, err := json.Marshal(Of(3, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,3]`, string(data))

	data, err = json.Marshal(New())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	var b Bitmap
	require.NoError(t, json.Unmarshal([]byte(`[5,2,5]`), &b))
	assert.Equal(t, []uint32{2, 5}, b.ToArray())

	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &b))
}
