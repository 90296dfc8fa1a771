package bitgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting catalog metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordSave is called after each save. bytes is the stored size.
	RecordSave(bytes int, duration time.Duration, err error)

	// RecordLoad is called after each load. cached reports a cache hit.
	RecordLoad(cached bool, duration time.Duration, err error)

	// RecordCombine is called after each combine with the number of steps.
	RecordCombine(steps int, duration time.Duration, err error)

	// RecordDelete is called after each delete.
	RecordDelete(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSave(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordLoad(bool, time.Duration, error)   {}
func (NoopMetricsCollector) RecordCombine(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	SaveCount         atomic.Int64
	SaveErrors        atomic.Int64
	SaveBytes         atomic.Int64
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadCacheHits     atomic.Int64
	LoadTotalNanos    atomic.Int64
	CombineCount      atomic.Int64
	CombineErrors     atomic.Int64
	CombineSteps      atomic.Int64
	CombineTotalNanos atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(int64(bytes))
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(cached bool, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
	if cached {
		b.LoadCacheHits.Add(1)
	}
}

// RecordCombine implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCombine(steps int, duration time.Duration, err error) {
	b.CombineCount.Add(1)
	b.CombineSteps.Add(int64(steps))
	b.CombineTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CombineErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SaveCount:       b.SaveCount.Load(),
		SaveErrors:      b.SaveErrors.Load(),
		SaveBytes:       b.SaveBytes.Load(),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadCacheHits:   b.LoadCacheHits.Load(),
		LoadAvgNanos:    avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		CombineCount:    b.CombineCount.Load(),
		CombineErrors:   b.CombineErrors.Load(),
		CombineSteps:    b.CombineSteps.Load(),
		CombineAvgNanos: avg(b.CombineTotalNanos.Load(), b.CombineCount.Load()),
		DeleteCount:     b.DeleteCount.Load(),
		DeleteErrors:    b.DeleteErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SaveCount       int64
	SaveErrors      int64
	SaveBytes       int64
	LoadCount       int64
	LoadErrors      int64
	LoadCacheHits   int64
	LoadAvgNanos    int64
	CombineCount    int64
	CombineErrors   int64
	CombineSteps    int64
	CombineAvgNanos int64
	DeleteCount     int64
	DeleteErrors    int64
}
