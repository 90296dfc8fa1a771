package bitgo

import (
	"log/slog"

	"github.com/hupe1980/bitgo/codec"
)

// DefaultCacheSize is the number of decoded bitmaps a Catalog keeps in memory.
const DefaultCacheSize = 128

// DefaultConcurrency bounds the parallel loads of LoadMany and Combine.
const DefaultConcurrency = 8

type options struct {
	codec            codec.Codec
	compression      codec.Compression
	cacheSize        int
	concurrency      int
	ioLimit          int
	prefix           string
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Catalog.
type Option func(*options)

// WithCodec configures the codec used for the metadata sidecar of each
// bitmap. If nil is passed, codec.Default is used. Sidecars record the codec
// name, so catalogs written with another codec stay readable.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the compression of stored bitmaps.
//
//   - codec.CompressionNone: raw portable roaring bytes
//   - codec.CompressionLZ4: fast, modest ratio (default)
//   - codec.CompressionZstd: slower, better ratio for cold data
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCacheSize sets the number of decoded bitmaps kept in memory.
// A size <= 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithConcurrency bounds the number of blobs fetched in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithIOLimit caps the store throughput in bytes per second. Reads and
// writes share the budget. A limit <= 0 disables throttling.
func WithIOLimit(bytesPerSecond int) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSecond
	}
}

// WithPrefix places every blob of the catalog below prefix, so several
// catalogs can share one store.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bitgo.BasicMetricsCollector{}
//	cat := bitgo.NewCatalog(store, bitgo.WithMetricsCollector(metrics))
//	// ... use cat ...
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, cache hits: %d\n", stats.LoadCount, stats.LoadCacheHits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := bitgo.NewJSONLogger(slog.LevelInfo)
//	cat := bitgo.NewCatalog(store, bitgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      codec.CompressionLZ4,
		cacheSize:        DefaultCacheSize,
		concurrency:      DefaultConcurrency,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
