package testutil

import (
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint32n returns a pseudo-random value in [0,n). n must be positive.
func (r *RNG) Uint32n(n uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(r.rand.Int63n(int64(n)))
}

// Values returns n random values in [0,limit). Values may repeat and are not
// sorted.
func (r *RNG) Values(n int, limit uint32) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(r.rand.Int63n(int64(limit)))
	}
	return out
}

// Clustered returns values packed into a few random 64Ki chunks, so the
// resulting bitmap has dense and run containers next to sparse ones.
func (r *RNG) Clustered(chunks, perChunk int) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint32, 0, chunks*perChunk)
	for range chunks {
		high := uint32(r.rand.Intn(1<<16)) << 16
		start := r.rand.Intn(1 << 15)
		for i := range perChunk {
			if r.rand.Intn(8) == 0 {
				continue
			}
			out = append(out, high|uint32((start+i)&0xFFFF))
		}
	}
	return out
}

// SortedSet returns a sorted copy of values without duplicates.
func SortedSet(values []uint32) []uint32 {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// UnionSorted returns the union of two sorted sets.
func UnionSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// IntersectSorted returns the intersection of two sorted sets.
func IntersectSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// DifferenceSorted returns the elements of a not in b.
func DifferenceSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0)
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SymmetricDifferenceSorted returns the elements in exactly one of a and b.
func SymmetricDifferenceSorted(a, b []uint32) []uint32 {
	return UnionSorted(DifferenceSorted(a, b), DifferenceSorted(b, a))
}
