package railrad

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems;
// promcollector.Collector is a Prometheus implementation.
type MetricsCollector interface {
	// RecordLoad is called after Open, OpenFile, New or Restore.
	RecordLoad(duration time.Duration, err error)

	// RecordConfigure is called after each Configure call.
	RecordConfigure(duration time.Duration, err error)

	// RecordRangeWarning is called when a configured frequency range
	// extends beyond the tabulated range.
	RecordRangeWarning()

	// RecordSuperpose is called after each Superpose call. cells is the
	// number of (frequency, wavenumber) pairs evaluated.
	RecordSuperpose(cells int, duration time.Duration, err error)

	// RecordRetrieve is called after each TransferFunctions call.
	RecordRetrieve(cells int, duration time.Duration, err error)

	// RecordStream is called after each StreamTransferFunctions call.
	// rows is the number of frequency rows handed to the sink.
	RecordStream(rows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(time.Duration, error)           {}
func (NoopMetricsCollector) RecordConfigure(time.Duration, error)      {}
func (NoopMetricsCollector) RecordRangeWarning()                       {}
func (NoopMetricsCollector) RecordSuperpose(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRetrieve(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordStream(int, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount           atomic.Int64
	LoadErrors          atomic.Int64
	ConfigureCount      atomic.Int64
	ConfigureErrors     atomic.Int64
	RangeWarnings       atomic.Int64
	SuperposeCount      atomic.Int64
	SuperposeErrors     atomic.Int64
	SuperposeCells      atomic.Int64
	SuperposeTotalNanos atomic.Int64
	RetrieveCount       atomic.Int64
	RetrieveErrors      atomic.Int64
	RetrieveCells       atomic.Int64
	StreamCount         atomic.Int64
	StreamErrors        atomic.Int64
	StreamRows          atomic.Int64
	StreamTotalNanos    atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordConfigure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConfigure(_ time.Duration, err error) {
	b.ConfigureCount.Add(1)
	if err != nil {
		b.ConfigureErrors.Add(1)
	}
}

// RecordRangeWarning implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeWarning() {
	b.RangeWarnings.Add(1)
}

// RecordSuperpose implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSuperpose(cells int, duration time.Duration, err error) {
	b.SuperposeCount.Add(1)
	b.SuperposeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SuperposeErrors.Add(1)
		return
	}
	b.SuperposeCells.Add(int64(cells))
}

// RecordRetrieve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetrieve(cells int, _ time.Duration, err error) {
	b.RetrieveCount.Add(1)
	if err != nil {
		b.RetrieveErrors.Add(1)
		return
	}
	b.RetrieveCells.Add(int64(cells))
}

// RecordStream implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStream(rows int, duration time.Duration, err error) {
	b.StreamCount.Add(1)
	b.StreamTotalNanos.Add(duration.Nanoseconds())
	b.StreamRows.Add(int64(rows))
	if err != nil {
		b.StreamErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		ConfigureCount:    b.ConfigureCount.Load(),
		ConfigureErrors:   b.ConfigureErrors.Load(),
		RangeWarnings:     b.RangeWarnings.Load(),
		SuperposeCount:    b.SuperposeCount.Load(),
		SuperposeErrors:   b.SuperposeErrors.Load(),
		SuperposeCells:    b.SuperposeCells.Load(),
		SuperposeAvgNanos: avg(b.SuperposeTotalNanos.Load(), b.SuperposeCount.Load()),
		RetrieveCount:     b.RetrieveCount.Load(),
		RetrieveErrors:    b.RetrieveErrors.Load(),
		RetrieveCells:     b.RetrieveCells.Load(),
		StreamCount:       b.StreamCount.Load(),
		StreamErrors:      b.StreamErrors.Load(),
		StreamRows:        b.StreamRows.Load(),
		StreamAvgNanos:    avg(b.StreamTotalNanos.Load(), b.StreamCount.Load()),
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
	LoadCount         int64
	LoadErrors        int64
	ConfigureCount    int64
	ConfigureErrors   int64
	RangeWarnings     int64
	SuperposeCount    int64
	SuperposeErrors   int64
	SuperposeCells    int64
	SuperposeAvgNanos int64
	RetrieveCount     int64
	RetrieveErrors    int64
	RetrieveCells     int64
	StreamCount       int64
	StreamErrors      int64
	StreamRows        int64
	StreamAvgNanos    int64
}
