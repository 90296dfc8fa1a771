package bitgo

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hupe1980/bitgo/blobstore"
	"github.com/hupe1980/bitgo/codec"
	"github.com/hupe1980/bitgo/internal/snapshot"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	dataSuffix = ".bgs"
	metaSuffix = ".meta"
)

// Info describes a stored bitmap. It is kept in a sidecar blob next to the
// bitmap and read by Stat without decoding the bitmap itself.
type Info struct {
	Name        string    `json:"name"`
	Cardinality uint64    `json:"cardinality"`
	Minimum     uint32    `json:"min,omitempty"`
	Maximum     uint32    `json:"max,omitempty"`
	StoredBytes int       `json:"stored_bytes"`
	RawBytes    int       `json:"raw_bytes"`
	Compression string    `json:"compression"`
	SavedAt     time.Time `json:"saved_at"`
}

// Op is a boolean operation applied by Combine.
type Op uint8

const (
	// OpOr merges the operand.
	OpOr Op = iota
	// OpXor keeps elements present in exactly one side.
	OpXor
	// OpAndNot removes the elements of the operand.
	OpAndNot
	// OpAnd keeps only the elements also present in the operand.
	OpAnd
)

func (op Op) String() string {
	switch op {
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpAndNot:
		return "andnot"
	case OpAnd:
		return "and"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Step applies Op with the stored bitmap Name as operand.
type Step struct {
	Op   Op
	Name string
}

// Catalog stores named bitmaps in a BlobStore.
//
// Each bitmap is written as a checksummed, optionally compressed snapshot
// plus a small metadata sidecar. Decoded bitmaps are cached; every Load
// returns an independent copy, so callers may mutate the result freely.
//
// A Catalog is safe for concurrent use.
type Catalog struct {
	store   blobstore.BlobStore
	opts    options
	cache   *lru.Cache[string, *Bitmap]
	limiter *rate.Limiter

	// cloneMu serializes clones of cached bitmaps. Cloning marks containers
	// as shared, which writes to the cached bitmap.
	cloneMu sync.Mutex

	// mu guards cache updates together with gens. Save and Delete move a
	// name to a new generation before and after they touch the store; a
	// Load caches its result only if the generation did not move meanwhile.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewCatalog returns a catalog on top of store.
func NewCatalog(store blobstore.BlobStore, optFns ...Option) *Catalog {
	c := &Catalog{
		store: store,
		opts:  applyOptions(optFns),
	}
	if c.opts.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		c.cache, _ = lru.New[string, *Bitmap](c.opts.cacheSize)
		c.gens = make(map[string]uint64)
	}
	if c.opts.ioLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.opts.ioLimit), c.opts.ioLimit)
	}
	return c
}

func validateName(name string) error {
	if name == "" || strings.HasSuffix(name, dataSuffix) || strings.HasSuffix(name, metaSuffix) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for seg := range strings.SplitSeq(name, "/") {
		if seg == "" || seg[0] == '.' {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

func (c *Catalog) dataKey(name string) string { return path.Join(c.opts.prefix, name+dataSuffix) }
func (c *Catalog) metaKey(name string) string { return path.Join(c.opts.prefix, name+metaSuffix) }

// wait blocks until n bytes of I/O budget are available.
func (c *Catalog) wait(ctx context.Context, n int) error {
	if c.limiter == nil {
		return nil
	}
	burst := c.limiter.Burst()
	for n > 0 {
		k := min(n, burst)
		if err := c.limiter.WaitN(ctx, k); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

func (c *Catalog) cached(name string) (*Bitmap, bool) {
	if c.cache == nil {
		return nil, false
	}
	b, ok := c.cache.Get(name)
	if !ok {
		return nil, false
	}
	c.cloneMu.Lock()
	defer c.cloneMu.Unlock()
	return b.Clone(), true
}

func (c *Catalog) generation(name string) uint64 {
	if c.cache == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[name]
}

// invalidate drops name from the cache and starts a new generation for it.
func (c *Catalog) invalidate(name string) uint64 {
	if c.cache == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(name)
	c.gens[name]++
	return c.gens[name]
}

// remember caches a copy of b if name is still at generation gen.
func (c *Catalog) remember(name string, gen uint64, b *Bitmap) {
	if c.cache == nil {
		return
	}
	c.cloneMu.Lock()
	clone := b.Clone()
	c.cloneMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[name] == gen {
		c.cache.Add(name, clone)
	}
}

// publish ends a write that began with invalidate. b, if not nil, is cached
// when no other write began in between. The generation moves on either way,
// so loads that overlapped the write do not cache what they read.
func (c *Catalog) publish(name string, gen uint64, b *Bitmap) {
	if c.cache == nil {
		return
	}
	var clone *Bitmap
	if b != nil {
		c.cloneMu.Lock()
		clone = b.Clone()
		c.cloneMu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if clone != nil && c.gens[name] == gen {
		c.cache.Add(name, clone)
	} else {
		c.cache.Remove(name)
	}
	c.gens[name]++
}

// Save stores b under name, replacing any previous bitmap with that name.
// b is not modified.
func (c *Catalog) Save(ctx context.Context, name string, b *Bitmap) (err error) {
	start := time.Now()
	var (
		size int
		card uint64
	)
	defer func() {
		c.opts.metricsCollector.RecordSave(size, time.Since(start), err)
		c.opts.logger.LogSave(ctx, name, card, size, err)
	}()

	if err := validateName(name); err != nil {
		return err
	}

	card = b.Cardinality()
	raw, err := b.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal %q: %w", name, err)
	}
	frame, err := snapshot.Encode(raw, c.opts.compression)
	if err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}
	hdr, err := snapshot.ParseHeader(frame)
	if err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}

	info := Info{
		Name:        name,
		Cardinality: card,
		StoredBytes: len(frame),
		RawBytes:    len(raw),
		Compression: hdr.Compression.String(),
		SavedAt:     time.Now().UTC(),
	}
	info.Minimum, _ = b.Minimum()
	info.Maximum, _ = b.Maximum()

	meta, err := encodeInfo(c.opts.codec, info)
	if err != nil {
		return fmt.Errorf("encode info %q: %w", name, err)
	}

	if err := c.wait(ctx, len(frame)+len(meta)); err != nil {
		return err
	}

	gen := c.invalidate(name)
	var saved *Bitmap
	defer func() { c.publish(name, gen, saved) }()

	if err := c.store.Put(ctx, c.dataKey(name), frame); err != nil {
		return fmt.Errorf("put %q: %w", name, err)
	}
	if err := c.store.Put(ctx, c.metaKey(name), meta); err != nil {
		return fmt.Errorf("put info %q: %w", name, err)
	}

	size = len(frame)
	saved = b
	return nil
}

// Load returns the bitmap stored under name. It returns an error matching
// ErrNotFound when no such bitmap exists, and an *ErrCorruptSnapshot when the
// stored bytes fail validation.
func (c *Catalog) Load(ctx context.Context, name string) (b *Bitmap, err error) {
	start := time.Now()
	cached := false
	defer func() {
		c.opts.metricsCollector.RecordLoad(cached, time.Since(start), err)
		c.opts.logger.LogLoad(ctx, name, cached, err)
	}()

	if err := validateName(name); err != nil {
		return nil, err
	}

	if b, ok := c.cached(name); ok {
		cached = true
		return b, nil
	}

	gen := c.generation(name)
	frame, err := c.store.Get(ctx, c.dataKey(name))
	if err != nil {
		return nil, translateError(name, err)
	}
	if err := c.wait(ctx, len(frame)); err != nil {
		return nil, err
	}

	raw, _, err := snapshot.Decode(frame)
	if err != nil {
		return nil, translateError(name, err)
	}

	b = New()
	if err := b.UnmarshalBinary(raw); err != nil {
		return nil, &ErrCorruptSnapshot{Name: name, cause: err}
	}

	c.remember(name, gen, b)
	return b, nil
}

// Stat returns the metadata of the bitmap stored under name.
func (c *Catalog) Stat(ctx context.Context, name string) (Info, error) {
	if err := validateName(name); err != nil {
		return Info{}, err
	}

	data, err := c.store.Get(ctx, c.metaKey(name))
	if err != nil {
		return Info{}, translateError(name, err)
	}
	info, err := decodeInfo(data)
	if err != nil {
		return Info{}, translateError(name, err)
	}
	return info, nil
}

// Delete removes the bitmap stored under name. Deleting a missing bitmap is
// not an error.
func (c *Catalog) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordDelete(time.Since(start), err)
		c.opts.logger.LogDelete(ctx, name, err)
	}()

	if err := validateName(name); err != nil {
		return err
	}

	gen := c.invalidate(name)
	defer c.publish(name, gen, nil)

	if err := c.store.Delete(ctx, c.metaKey(name)); err != nil {
		return fmt.Errorf("delete info %q: %w", name, err)
	}
	if err := c.store.Delete(ctx, c.dataKey(name)); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// List returns the sorted names of all stored bitmaps.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	prefix := c.opts.prefix
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}

	keys, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutSuffix(strings.TrimPrefix(key, prefix), dataSuffix); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// LoadMany loads the named bitmaps in parallel, bounded by WithConcurrency.
// The result is in the order of names. Repeated names yield independent
// bitmaps.
func (c *Catalog) LoadMany(ctx context.Context, names ...string) ([]*Bitmap, error) {
	out := make([]*Bitmap, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.concurrency)
	for i, name := range names {
		g.Go(func() error {
			b, err := c.Load(gctx, name)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Combine loads base and applies steps to it in order. Consecutive steps
// other than OpAnd are applied in one lazy batch. Operands are fetched in
// parallel before the first step runs.
//
// Example:
//
//	active, err := cat.Combine(ctx, "users/all",
//	    bitgo.Step{Op: bitgo.OpOr, Name: "users/imported"},
//	    bitgo.Step{Op: bitgo.OpAndNot, Name: "users/deleted"},
//	    bitgo.Step{Op: bitgo.OpAnd, Name: "users/verified"},
//	)
func (c *Catalog) Combine(ctx context.Context, base string, steps ...Step) (result *Bitmap, err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordCombine(len(steps), time.Since(start), err)
		var card uint64
		if result != nil {
			card = result.Cardinality()
		}
		c.opts.logger.LogCombine(ctx, base, len(steps), card, err)
	}()

	names := make([]string, 0, len(steps)+1)
	names = append(names, base)
	for _, s := range steps {
		if s.Op > OpAnd {
			return nil, fmt.Errorf("combine %q: unknown operation %s", base, s.Op)
		}
		names = append(names, s.Name)
	}

	loaded, err := c.LoadMany(ctx, names...)
	if err != nil {
		return nil, err
	}
	result, operands := loaded[0], loaded[1:]

	for i := 0; i < len(steps); {
		if steps[i].Op == OpAnd {
			result.And(operands[i])
			i++
			continue
		}

		j := i
		for j < len(steps) && steps[j].Op != OpAnd {
			j++
		}
		if err := result.LazyBatch(func(l *Lazy) error {
			for k := i; k < j; k++ {
				switch steps[k].Op {
				case OpOr:
					l.Or(operands[k])
				case OpXor:
					l.Xor(operands[k])
				case OpAndNot:
					l.AndNot(operands[k])
				}
			}
			return ctx.Err()
		}); err != nil {
			return nil, err
		}
		i = j
	}
	return result, nil
}

// Union returns the union of the named bitmaps. An empty list yields an
// empty bitmap.
func (c *Catalog) Union(ctx context.Context, names ...string) (*Bitmap, error) {
	loaded, err := c.LoadMany(ctx, names...)
	if err != nil {
		return nil, err
	}

	acc := NewLazyOwned()
	for _, b := range loaded {
		acc.OrOwned(b)
	}
	return acc.IntoInner(), nil
}

// encodeInfo writes the codec name on the first line so the sidecar can be
// decoded after the catalog's codec changed.
func encodeInfo(c codec.Codec, info Info) ([]byte, error) {
	body, err := c.Marshal(info)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(c.Name())+1+len(body))
	out = append(out, c.Name()...)
	out = append(out, '\n')
	return append(out, body...), nil
}

func decodeInfo(data []byte) (Info, error) {
	name, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return Info{}, fmt.Errorf("%w: info without codec line", snapshot.ErrCorrupt)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return Info{}, fmt.Errorf("%w: unknown codec %q", snapshot.ErrCorrupt, name)
	}

	var info Info
	if err := c.Unmarshal(body, &info); err != nil {
		return Info{}, fmt.Errorf("%w: %w", snapshot.ErrCorrupt, err)
	}
	return info, nil
}
