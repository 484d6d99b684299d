// Package promcollector exports railrad operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	pc, _ := promcollector.New(promcollector.WithRegisterer(reg))
//	db, _ := railrad.OpenFile(ctx, "track.rrdb", railrad.WithMetricsCollector(pc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package promcollector

import (
	"time"

	"github.com/hupe1980/railrad"
	"github.com/prometheus/client_golang/prometheus"
)

// Operation label values.
const (
	OpLoad      = "load"
	OpConfigure = "configure"
	OpSuperpose = "superpose"
	OpRetrieve  = "retrieve"
	OpStream    = "stream"
)

// Options configures New.
type Options struct {
	// Namespace prefixes every metric name. Default: "railrad".
	Namespace string
	// Registerer receives the collectors. Default: prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Buckets are the latency histogram buckets in seconds.
	// Default: prometheus.DefBuckets.
	Buckets []float64
}

// WithNamespace sets the metric name prefix.
func WithNamespace(ns string) func(*Options) {
	return func(o *Options) { o.Namespace = ns }
}

// WithRegisterer registers the collectors with r instead of the default
// registry.
func WithRegisterer(r prometheus.Registerer) func(*Options) {
	return func(o *Options) { o.Registerer = r }
}

// WithBuckets sets the latency histogram buckets.
func WithBuckets(b []float64) func(*Options) {
	return func(o *Options) { o.Buckets = b }
}

// Collector implements railrad.MetricsCollector on Prometheus vectors.
type Collector struct {
	latency       *prometheus.HistogramVec
	operations    *prometheus.CounterVec
	cells         *prometheus.CounterVec
	streamedRows  prometheus.Counter
	rangeWarnings prometheus.Counter
}

var _ railrad.MetricsCollector = (*Collector)(nil)

// New creates and registers a Collector.
func New(optFns ...func(*Options)) (*Collector, error) {
	opts := Options{
		Namespace:  "railrad",
		Registerer: prometheus.DefaultRegisterer,
		Buckets:    prometheus.DefBuckets,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of database operations",
			Buckets:   opts.Buckets,
		}, []string{"op", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "operations_total",
			Help:      "Total database operations",
		}, []string{"op", "status"}),
		cells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "evaluated_cells_total",
			Help:      "Frequency-wavenumber pairs evaluated",
		}, []string{"op"}),
		streamedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "streamed_rows_total",
			Help:      "Frequency rows handed to sinks",
		}),
		rangeWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "range_warnings_total",
			Help:      "Configurations extending beyond the tabulated frequency range",
		}),
	}

	for _, m := range []prometheus.Collector{c.latency, c.operations, c.cells, c.streamedRows, c.rangeWarnings} {
		if err := opts.Registerer.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(optFns ...func(*Options)) *Collector {
	c, err := New(optFns...)
	if err != nil {
		panic(err)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.latency.WithLabelValues(op, s).Observe(d.Seconds())
	c.operations.WithLabelValues(op, s).Inc()
}

func (c *Collector) RecordLoad(d time.Duration, err error) {
	c.observe(OpLoad, d, err)
}

func (c *Collector) RecordConfigure(d time.Duration, err error) {
	c.observe(OpConfigure, d, err)
}

func (c *Collector) RecordRangeWarning() {
	c.rangeWarnings.Inc()
}

func (c *Collector) RecordSuperpose(cells int, d time.Duration, err error) {
	c.observe(OpSuperpose, d, err)
	c.cells.WithLabelValues(OpSuperpose).Add(float64(cells))
}

func (c *Collector) RecordRetrieve(cells int, d time.Duration, err error) {
	c.observe(OpRetrieve, d, err)
	c.cells.WithLabelValues(OpRetrieve).Add(float64(cells))
}

func (c *Collector) RecordStream(rows int, d time.Duration, err error) {
	c.observe(OpStream, d, err)
	c.streamedRows.Add(float64(rows))
}
