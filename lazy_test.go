package bitgo

import (
	"errors"
	"testing"

	"github.com/hupe1980/bitgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyBatch(t *testing.T) {
	b := Of(99)
	err := b.LazyBatch(func(l *Lazy) error {
		l.Or(Of(2, 10))
		l.Or(Of(30))
		l.Add(100)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 10, 30, 99, 100}, b.ToArray())
}

func TestLazyBatch_OrThenAndNot(t *testing.T) {
	b := Of(99)
	err := b.LazyBatch(func(l *Lazy) error {
		l.Or(Of(1, 2, 5, 10)).Or(New()).Or(Of(1, 30, 100))
		l.AndNot(Of(5)).AndNot(Of(1, 1000, 1001))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 10, 30, 99, 100}, b.ToArray())
}

func TestLazyBatch_MatchesEager(t *testing.T) {
	rng := testutil.NewRNG(11)

	operands := make([]*Bitmap, 40)
	for i := range operands {
		if i%5 == 0 {
			operands[i] = FromSlice(rng.Clustered(2, 3000))
		} else {
			operands[i] = FromSlice(rng.Values(500, 1<<20))
		}
	}

	lazy := FromSlice(rng.Values(1000, 1<<20))
	eager := lazy.Clone()

	err := lazy.LazyBatch(func(l *Lazy) error {
		for i, o := range operands {
			switch i % 7 {
			case 0, 1, 2:
				l.Or(o)
			case 3:
				l.Xor(o)
			case 4:
				l.AndNot(o)
			case 5:
				l.OrWith(o, true)
			default:
				l.Add(uint32(i) << 20)
			}
		}
		return nil
	})
	require.NoError(t, err)

	for i, o := range operands {
		switch i % 7 {
		case 0, 1, 2, 5:
			eager.Or(o)
		case 3:
			eager.Xor(o)
		case 4:
			eager.AndNot(o)
		default:
			eager.Add(uint32(i) << 20)
		}
	}

	assert.True(t, eager.Equals(lazy))
}

func TestLazyBatch_OperandMutatedLater(t *testing.T) {
	b := New()
	operand := Of(1, 2)
	require.NoError(t, b.LazyBatch(func(l *Lazy) error {
		l.Or(operand)
		operand.Add(3)
		operand.Remove(1)
		l.Or(Of(4))
		return nil
	}))

	assert.Equal(t, []uint32{1, 2, 4}, b.ToArray())
	assert.Equal(t, []uint32{2, 3}, operand.ToArray())
}

func TestLazyBatch_IsEmpty(t *testing.T) {
	empty, err := LazyBatchResult(Of(1), func(l *Lazy) (bool, error) {
		l.AndNot(Of(1))
		return l.IsEmpty(), nil
	})
	require.NoError(t, err)
	assert.True(t, empty)

	empty, err = LazyBatchResult(New(), func(l *Lazy) (bool, error) {
		l.Add(4)
		return l.IsEmpty(), nil
	})
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestLazyBatch_Guards(t *testing.T) {
	t.Run("TargetInUse", func(t *testing.T) {
		b := Of(1)
		_ = b.LazyBatch(func(l *Lazy) error {
			assert.PanicsWithValue(t, ErrLazyDirty, func() { b.Contains(1) })
			assert.PanicsWithValue(t, ErrLazyDirty, func() { b.Add(2) })
			assert.PanicsWithValue(t, ErrLazyDirty, func() { Or(b, Of(3)) })
			return nil
		})
		assert.True(t, b.Contains(1))
	})

	t.Run("AliasedOperand", func(t *testing.T) {
		b := Of(1)
		_ = b.LazyBatch(func(l *Lazy) error {
			assert.PanicsWithValue(t, ErrAliasedOperand, func() { l.Or(b) })
			assert.PanicsWithValue(t, ErrAliasedOperand, func() { l.Xor(b) })
			return nil
		})
	})

	t.Run("HandleAfterBatch", func(t *testing.T) {
		var kept *Lazy
		b := Of(1)
		_ = b.LazyBatch(func(l *Lazy) error {
			kept = l
			return nil
		})
		assert.PanicsWithValue(t, ErrConsumed, func() { kept.Or(Of(2)) })
		assert.PanicsWithValue(t, ErrConsumed, func() { kept.Add(2) })
		assert.PanicsWithValue(t, ErrConsumed, func() { kept.IsEmpty() })
		assert.Equal(t, []uint32{1}, b.ToArray())
	})

	t.Run("InvalidatesIterators", func(t *testing.T) {
		b := Of(1, 2)
		it := b.Iter()
		_ = b.LazyBatch(func(l *Lazy) error { return nil })
		assert.PanicsWithValue(t, ErrConcurrentModification, func() { it.Next() })
	})
}

func TestLazyBatch_RepairOnError(t *testing.T) {
	boom := errors.New("boom")
	b := Of(1)

	err := b.LazyBatch(func(l *Lazy) error {
		l.Or(Of(2))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []uint32{1, 2}, b.ToArray())

	b.Add(3)
	assert.Equal(t, uint64(3), b.Cardinality())
}

func TestLazyBatch_RepairOnPanic(t *testing.T) {
	b := Of(1)
	assert.PanicsWithValue(t, "boom", func() {
		_ = b.LazyBatch(func(l *Lazy) error {
			l.Or(Of(5))
			panic("boom")
		})
	})

	assert.Equal(t, []uint32{1, 5}, b.ToArray())
}

func TestLazyOwned(t *testing.T) {
	l := NewLazyOwned()
	assert.True(t, l.IsEmpty())

	l.Or(Of(1, 2)).Or(Of(3)).Add(10).Xor(Of(2, 4)).AndNot(Of(10))
	assert.False(t, l.IsEmpty())
	assert.Equal(t, "{1,3,4}", l.String())

	b := l.IntoInner()
	assert.Equal(t, []uint32{1, 3, 4}, b.ToArray())

	assert.Equal(t, "<consumed>", l.String())
	assert.PanicsWithValue(t, ErrConsumed, func() { l.IntoInner() })
	assert.PanicsWithValue(t, ErrConsumed, func() { l.Or(Of(1)) })
	assert.PanicsWithValue(t, ErrConsumed, func() { l.Add(1) })
}

func TestLazyOwned_OrThenAndNot(t *testing.T) {
	l := Of(99).IntoLazy()
	l.Or(Of(1, 2, 5, 10)).OrOwned(New()).Or(Of(1, 30, 100))
	l.AndNot(Of(5)).AndNot(Of(1, 1000, 1001))

	assert.Equal(t, []uint32{2, 10, 30, 99, 100}, l.IntoInner().ToArray())
}

func TestLazyOwned_MatchesEager(t *testing.T) {
	rng := testutil.NewRNG(23)

	operands := make([]*Bitmap, 60)
	for i := range operands {
		switch i % 6 {
		case 0:
			operands[i] = FromSlice(rng.Clustered(2, 3000))
		case 1:
			operands[i] = New()
		default:
			operands[i] = FromSlice(rng.Values(400, 1<<20))
		}
	}

	start := FromSlice(rng.Values(1000, 1<<20))
	eager := start.Clone()

	l := start.IntoLazy()
	for i, o := range operands {
		switch i % 8 {
		case 0, 1:
			l.Or(o)
		case 2:
			// OrOwned empties its operand, so hand it a copy.
			l.OrOwned(o.Clone())
		case 3:
			l.Xor(o)
		case 4:
			l.AndNot(o)
		case 5:
			l.OrWith(o, true)
		case 6:
			l.Add(uint32(i) << 20)
		default:
			l.Or(o).AndNot(Of(uint32(i)))
		}
	}
	lazy := l.IntoInner()

	for i, o := range operands {
		switch i % 8 {
		case 0, 1, 2, 5:
			eager.Or(o)
		case 3:
			eager.Xor(o)
		case 4:
			eager.AndNot(o)
		case 6:
			eager.Add(uint32(i) << 20)
		default:
			eager.Or(o)
			eager.AndNot(Of(uint32(i)))
		}
	}

	assert.True(t, start.IsEmpty(), "source is emptied")
	assert.True(t, eager.Equals(lazy))
	assert.Equal(t, eager.Cardinality(), lazy.Cardinality())
}

func TestLazyOwned_IntoLazy(t *testing.T) {
	b := Of(5, 6)
	it := b.Iter()

	l := b.IntoLazy()
	assert.True(t, b.IsEmpty(), "source is emptied")
	assert.PanicsWithValue(t, ErrConcurrentModification, func() { it.Next() })

	// The emptied source is an ordinary bitmap again.
	b.Add(1)
	l.Or(b)
	b.Add(2)

	assert.Equal(t, []uint32{1, 5, 6}, l.IntoInner().ToArray())
}

func TestLazyOwned_OrOwned(t *testing.T) {
	l := Of(1).IntoLazy()
	other := Of(2, 3)
	l.OrOwned(other)

	assert.True(t, other.IsEmpty())
	assert.Equal(t, []uint32{1, 2, 3}, l.IntoInner().ToArray())
}

func TestLazyOwned_OrLazy(t *testing.T) {
	x := Of(1).IntoLazy()
	y := NewLazyOwned().Or(Of(2)).Add(3)

	x.OrLazy(y)
	assert.Equal(t, "{2,3}", y.String(), "operand stays usable")

	z := NewLazyOwned().Add(9)
	x.OrLazyOwned(z)
	assert.PanicsWithValue(t, ErrConsumed, func() { z.IsEmpty() })

	assert.PanicsWithValue(t, ErrAliasedOperand, func() { x.OrLazy(x) })
	assert.PanicsWithValue(t, ErrAliasedOperand, func() { x.OrLazyOwned(x) })

	assert.Equal(t, []uint32{1, 2, 3, 9}, x.IntoInner().ToArray())
}

func TestLazyOwned_Clone(t *testing.T) {
	l := NewLazyOwned().Or(Of(1, 2))
	c := l.Clone()
	c.Add(3)
	l.AndNot(Of(1))

	assert.Equal(t, []uint32{2}, l.IntoInner().ToArray())
	assert.Equal(t, []uint32{1, 2, 3}, c.IntoInner().ToArray())
}

func TestLazyAnd(t *testing.T) {
	x := NewLazyOwned().Or(Of(1, 2, 3)).Or(Of(4, 5))
	y := NewLazyOwned().Or(Of(2, 5)).Add(6)

	assert.Equal(t, []uint32{2, 5}, LazyAnd(x, y).ToArray())

	// Both operands remain lazy and usable.
	x.Add(6)
	assert.Equal(t, []uint32{2, 5, 6}, LazyAnd(x, y).ToArray())
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6}, x.IntoInner().ToArray())
}

func TestLazyOwned_Dropped(t *testing.T) {
	src := Of(1, 2, 3)
	l := NewLazyOwned().Or(src).Xor(Of(2))
	_ = l

	// Dropping a LazyOwned has no effect on its operands.
	assert.Equal(t, []uint32{1, 2, 3}, src.ToArray())
	src.Add(4)
	assert.True(t, src.Contains(4))
}
