package railrad

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/railrad/interp"
	"github.com/hupe1980/railrad/tensor"
)

// Configuration is an active query grid with its node subsets.
type Configuration struct {
	// Frequencies is the query frequency vector f.
	Frequencies []float64
	// Wavenumbers holds one row of wavenumbers per frequency.
	Wavenumbers [][]float64
	// Receivers and Sources are the selected node indices, in output order.
	Receivers []int
	Sources   []int
}

// wavenumberCount returns the row length of the wavenumber matrix.
func (c Configuration) wavenumberCount() int {
	if len(c.Wavenumbers) == 0 {
		return 0
	}
	return len(c.Wavenumbers[0])
}

// clone returns a deep copy.
func (c Configuration) clone() Configuration {
	k := make([][]float64, len(c.Wavenumbers))
	for i, row := range c.Wavenumbers {
		k[i] = slices.Clone(row)
	}
	return Configuration{
		Frequencies: slices.Clone(c.Frequencies),
		Wavenumbers: k,
		Receivers:   slices.Clone(c.Receivers),
		Sources:     slices.Clone(c.Sources),
	}
}

// configuration is the immutable state published by Configure.
type configuration struct {
	Configuration
	nk int

	// node index -> position in Receivers/Sources
	receiverPos map[int]int
	sourcePos   map[int]int

	interpolant func() (*interp.Complex, error)
}

type configureOptions struct {
	receivers    []int
	sources      []int
	hasReceivers bool
	hasSources   bool
}

// ConfigureOption restricts a configuration to node subsets.
type ConfigureOption func(*configureOptions)

// WithReceivers selects the receiver nodes, in output order. Without this
// option every receiver of the database is used; WithReceivers() with no
// arguments selects none.
func WithReceivers(nodes ...int) ConfigureOption {
	return func(o *configureOptions) {
		o.receivers = slices.Clone(nodes)
		o.hasReceivers = true
	}
}

// WithSources selects the source nodes, in velocity-field order. Without
// this option every source node of the database is used, in the order of
// Data.SourceNodes; WithSources() with no arguments selects none.
func WithSources(nodes ...int) ConfigureOption {
	return func(o *configureOptions) {
		o.sources = slices.Clone(nodes)
		o.hasSources = true
	}
}

// Configure sets the query grid: frequencies f and one row of wavenumbers
// per frequency in k. All rows of k must have the same length.
//
// The new configuration replaces the previous one only if it is valid;
// on error the previous configuration stays active. A warning is logged
// when f extends beyond the tabulated frequency range.
func (db *Database) Configure(ctx context.Context, f []float64, k [][]float64, optFns ...ConfigureOption) (err error) {
	start := time.Now()
	var cfg *configuration
	defer func() {
		err = translateError(err)
		db.opts.metricsCollector.RecordConfigure(time.Since(start), err)
		if cfg != nil {
			db.opts.logger.LogConfigure(ctx, len(f), cfg.nk, len(cfg.Receivers), len(cfg.Sources), nil)
		} else {
			db.opts.logger.LogConfigure(ctx, len(f), 0, 0, 0, err)
		}
	}()

	var co configureOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&co)
		}
	}

	c := Configuration{Frequencies: f, Wavenumbers: k, Receivers: co.receivers, Sources: co.sources}
	if !co.hasReceivers {
		c.Receivers = db.receivers.Nodes()
	}
	if !co.hasSources {
		// The velocity field's source axis follows the database order.
		c.Sources = db.data.SourceNodes
	}

	cfg, err = db.newConfiguration(c.clone())
	if err != nil {
		return err
	}

	if len(f) > 0 {
		lo, hi := slices.Min(f), slices.Max(f)
		table := db.data.Frequencies
		if lo < table[0] || hi > table[len(table)-1] {
			db.opts.logger.LogRangeWarning(ctx, lo, hi, table[0], table[len(table)-1])
			db.opts.metricsCollector.RecordRangeWarning()
		}
	}

	db.cfg.Store(cfg)
	return nil
}

// newConfiguration validates c and prepares it for evaluation. c is owned
// by the result.
func (db *Database) newConfiguration(c Configuration) (*configuration, error) {
	nf := len(c.Frequencies)
	if len(c.Wavenumbers) != nf {
		return nil, &ShapeError{Name: "k", Expected: []int{nf, -1}, Actual: []int{len(c.Wavenumbers), c.wavenumberCount()}}
	}
	nk := c.wavenumberCount()
	for i, row := range c.Wavenumbers {
		if len(row) != nk {
			return nil, &ShapeError{Name: fmt.Sprintf("k[%d]", i), Expected: []int{nk}, Actual: []int{len(row)}}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &DomainError{Name: "k", Reason: fmt.Sprintf("k[%d][%d] = %v is not finite", i, j, v)}
			}
		}
	}
	for i, v := range c.Frequencies {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &DomainError{Name: "f", Reason: fmt.Sprintf("f[%d] = %v is not finite", i, v)}
		}
	}

	if n, bad := db.receivers.firstMissing(c.Receivers); bad {
		return nil, &InvalidNodeError{Role: "receiver", Node: n}
	}
	if n, bad := db.sources.firstMissing(c.Sources); bad {
		return nil, &InvalidNodeError{Role: "source", Node: n}
	}

	cfg := &configuration{
		Configuration: c,
		nk:            nk,
		receiverPos:   positions(c.Receivers),
		sourcePos:     positions(c.Sources),
	}
	cfg.interpolant = sync.OnceValues(func() (*interp.Complex, error) {
		return db.buildInterpolant(cfg)
	})
	return cfg, nil
}

// positions maps each node to its first position in nodes.
func positions(nodes []int) map[int]int {
	m := make(map[int]int, len(nodes))
	for i, n := range nodes {
		if _, ok := m[n]; !ok {
			m[n] = i
		}
	}
	return m
}

// buildInterpolant restricts the table to the configured nodes and builds
// the frequency interpolant over it. Out-of-range frequencies, including
// dispersion.Unattainable, evaluate to zero.
func (db *Database) buildInterpolant(c *configuration) (*interp.Complex, error) {
	tfs := db.data.TransferFunctions
	nr, ns, m := tfs.Dim(0), tfs.Dim(1), tfs.Dim(2)

	y := tfs
	if !isIdentity(c.Receivers, nr) || !isIdentity(c.Sources, ns) {
		y = tensor.New[complex128](len(c.Receivers), len(c.Sources), m)
		src, dst := tfs.Data(), y.Data()
		for i, r := range c.Receivers {
			for j, s := range c.Sources {
				from := (r*ns + s) * m
				to := (i*len(c.Sources) + j) * m
				copy(dst[to:to+m], src[from:from+m])
			}
		}
	}

	return interp.NewComplex(db.data.Frequencies, y,
		interp.WithKind(db.opts.kind),
		interp.WithDecomposition(db.opts.decomposition),
		interp.WithAssumeSorted(true),
		interp.WithFill(0),
	)
}

func isIdentity(nodes []int, n int) bool {
	if len(nodes) != n {
		return false
	}
	for i, v := range nodes {
		if v != i {
			return false
		}
	}
	return true
}

// Configured reports whether Configure has succeeded at least once.
func (db *Database) Configured() bool {
	return db.cfg.Load() != nil
}

// Configuration returns a copy of the active configuration.
func (db *Database) Configuration() (Configuration, bool) {
	c := db.cfg.Load()
	if c == nil {
		return Configuration{}, false
	}
	return c.clone(), true
}

// configuration snapshots the active configuration once per call.
func (db *Database) configuration() (*configuration, error) {
	c := db.cfg.Load()
	if c == nil {
		return nil, ErrNotConfigured
	}
	return c, nil
}
