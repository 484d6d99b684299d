package railrad

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/railrad/codec"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/interp"
	"github.com/hupe1980/railrad/resource"
)

// FieldQuantity names the physical quantity of the velocity field passed to
// Superpose. Transfer functions are tabulated as pressure per unit surface
// acceleration, so the per-frequency scale factor depends on it.
type FieldQuantity int

const (
	// Velocity scales by i·2π·f. This is the default.
	Velocity FieldQuantity = iota
	// Displacement scales by (i·2π·f)².
	Displacement
)

func (q FieldQuantity) String() string {
	switch q {
	case Velocity:
		return "velocity"
	case Displacement:
		return "displacement"
	default:
		return fmt.Sprintf("FieldQuantity(%d)", int(q))
	}
}

// ParseFieldQuantity is the inverse of FieldQuantity.String.
func ParseFieldQuantity(s string) (FieldQuantity, error) {
	switch s {
	case "velocity":
		return Velocity, nil
	case "displacement":
		return Displacement, nil
	default:
		return 0, fmt.Errorf("railrad: invalid field quantity %q", s)
	}
}

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	kind             interp.Kind
	decomposition    interp.Decomposition
	quantity         FieldQuantity
	resource         *resource.Controller
	workers          int
	compression      container.Compression
}

// Option configures Open, OpenFile, New and Restore.
type Option func(*options)

// WithCodec configures the codec used for snapshot metadata records.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &railrad.BasicMetricsCollector{}
//	db, _ := railrad.OpenFile(ctx, "track.rrdb", railrad.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Superpose: %d, avg latency: %dns\n", stats.SuperposeCount, stats.SuperposeAvgNanos)
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
//	logger := railrad.NewJSONLogger(slog.LevelInfo)
//	db, _ := railrad.OpenFile(ctx, "track.rrdb", railrad.WithLogger(logger))
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

// WithInterpolation selects the interpolation scheme over the reference
// frequency axis. Default: interp.Linear.
func WithInterpolation(kind interp.Kind) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// WithDecomposition selects real/imaginary (default) or magnitude/phase
// interpolation. See the interp package for the tradeoff.
func WithDecomposition(d interp.Decomposition) Option {
	return func(o *options) {
		o.decomposition = d
	}
}

// WithFieldQuantity declares what the velocity field argument of Superpose
// represents. Default: Velocity.
func WithFieldQuantity(q FieldQuantity) Option {
	return func(o *options) {
		o.quantity = q
	}
}

// WithResourceController shares memory, worker and IO budgets across
// databases. Forks inherit the controller.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

// WithWorkers caps the number of frequency rows evaluated concurrently by a
// single call. If n <= 0, the resource controller's worker count is used.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCompression selects the dataset compression used by Snapshot and
// WriteDatabase. Default: container.ZSTD.
func WithCompression(c container.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		kind:             interp.Linear,
		decomposition:    interp.RealImag,
		quantity:         Velocity,
		compression:      container.ZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o *options) validate() error {
	if o.kind < interp.Linear || o.kind > interp.Nearest {
		return fmt.Errorf("%w: %s", interp.ErrInvalidKind, o.kind)
	}
	if o.decomposition != interp.RealImag && o.decomposition != interp.MagnitudePhase {
		return fmt.Errorf("%w: %s", interp.ErrInvalidDecomposition, o.decomposition)
	}
	if o.quantity != Velocity && o.quantity != Displacement {
		return fmt.Errorf("railrad: invalid field quantity %s", o.quantity)
	}
	return nil
}

func (o *options) workerLimit() int {
	if o.workers > 0 {
		return o.workers
	}
	return o.resource.Workers()
}
