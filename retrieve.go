package railrad

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/railrad/sink"
	"github.com/hupe1980/railrad/tensor"
)

type selectOptions struct {
	freqs, waves        []int
	receivers, sources  []int
	hasFreqs, hasWaves  bool
	hasRecv, hasSources bool
}

// SelectOption narrows TransferFunctions and StreamTransferFunctions to a
// part of the active configuration. Without an option for an axis, every
// configured entry is used in configured order.
type SelectOption func(*selectOptions)

// SelectFrequencies selects positions in the configured frequency vector.
func SelectFrequencies(idx ...int) SelectOption {
	return func(o *selectOptions) {
		o.freqs = slices.Clone(idx)
		o.hasFreqs = true
	}
}

// SelectWavenumbers selects columns of the configured wavenumber matrix.
func SelectWavenumbers(idx ...int) SelectOption {
	return func(o *selectOptions) {
		o.waves = slices.Clone(idx)
		o.hasWaves = true
	}
}

// SelectReceivers selects receiver nodes. Each must be configured.
func SelectReceivers(nodes ...int) SelectOption {
	return func(o *selectOptions) {
		o.receivers = slices.Clone(nodes)
		o.hasRecv = true
	}
}

// SelectSources selects source nodes. Each must be configured.
func SelectSources(nodes ...int) SelectOption {
	return func(o *selectOptions) {
		o.sources = slices.Clone(nodes)
		o.hasSources = true
	}
}

// selection holds resolved positions into the configuration.
type selection struct {
	freqs []int // rows of the configured grid
	waves []int // columns of the configured grid
	rows  []int // positions in configured receivers
	cols  []int // positions in configured sources
}

func (s *selection) shape() []int {
	return []int{len(s.freqs), len(s.waves), len(s.rows), len(s.cols)}
}

func (c *configuration) resolve(optFns []SelectOption) (*selection, error) {
	var o selectOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	sel := &selection{}
	var err error
	if sel.freqs, err = indices(o.freqs, o.hasFreqs, len(c.Frequencies), "frequency index"); err != nil {
		return nil, err
	}
	if sel.waves, err = indices(o.waves, o.hasWaves, c.nk, "wavenumber index"); err != nil {
		return nil, err
	}
	if sel.rows, err = nodePositions(o.receivers, o.hasRecv, c.receiverPos, len(c.Receivers), "receiver"); err != nil {
		return nil, err
	}
	if sel.cols, err = nodePositions(o.sources, o.hasSources, c.sourcePos, len(c.Sources), "source"); err != nil {
		return nil, err
	}
	return sel, nil
}

func indices(idx []int, present bool, n int, name string) ([]int, error) {
	if !present {
		return identity(n), nil
	}
	for _, i := range idx {
		if i < 0 || i >= n {
			return nil, &ShapeError{Name: fmt.Sprintf("%s %d", name, i), Expected: []int{n}, Actual: []int{i}}
		}
	}
	return idx, nil
}

func nodePositions(nodes []int, present bool, pos map[int]int, n int, role string) ([]int, error) {
	if !present {
		return identity(n), nil
	}
	out := make([]int, len(nodes))
	for i, node := range nodes {
		p, ok := pos[node]
		if !ok {
			return nil, &InvalidNodeError{Role: role, Node: node}
		}
		out[i] = p
	}
	return out, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// TransferFunctions returns the scaled, remapped transfer functions of the
// active configuration with shape (frequency, wavenumber, receiver, source).
func (db *Database) TransferFunctions(ctx context.Context, optFns ...SelectOption) (out *tensor.Dense[complex128], err error) {
	start := time.Now()
	cells := 0
	defer func() {
		err = translateError(err)
		if err != nil {
			out = nil
		}
		db.opts.metricsCollector.RecordRetrieve(cells, time.Since(start), err)
		db.opts.logger.LogRetrieve(ctx, shapeOf(out), err)
	}()

	c, err := db.configuration()
	if err != nil {
		return nil, err
	}
	sel, err := c.resolve(optFns)
	if err != nil {
		return nil, err
	}
	shape := sel.shape()

	bytes := int64(shape[0]) * int64(shape[1]) * int64(shape[2]) * int64(shape[3]) * complexSize
	if err := db.opts.resource.ReserveMemory(bytes); err != nil {
		return nil, err
	}
	defer db.opts.resource.ReleaseMemory(bytes)

	k, err := db.newKernel(c)
	if err != nil {
		return nil, err
	}

	out = tensor.New[complex128](shape...)
	dst := out.Data()
	rowLen := shape[1] * shape[2] * shape[3]
	err = db.forEach(ctx, len(sel.freqs), func(s *scratch, i int) error {
		fi := sel.freqs[i]
		return k.transferRange(s, dst[i*rowLen:(i+1)*rowLen], c.Frequencies[fi], c.Wavenumbers[fi], sel, 0, len(sel.waves))
	})
	if err != nil {
		return nil, err
	}
	cells = shape[0] * shape[1]
	return out, nil
}

// StreamTransferFunctions computes the same values as TransferFunctions but
// hands them to sk one frequency row at a time, so peak memory is one row of
// (wavenumber × receiver × source) values. Wavenumbers within a row are
// evaluated in parallel.
//
// On failure after Begin, sinks implementing sink.Aborter are aborted.
func (db *Database) StreamTransferFunctions(ctx context.Context, sk sink.Sink, optFns ...SelectOption) (err error) {
	start := time.Now()
	rows := 0
	var shape []int
	begun := false
	defer func() {
		if err != nil && begun {
			if a, ok := sk.(sink.Aborter); ok {
				_ = a.Abort()
			}
		}
		err = translateError(err)
		db.opts.metricsCollector.RecordStream(rows, time.Since(start), err)
		db.opts.logger.LogStream(ctx, shape, rows, err)
	}()

	c, err := db.configuration()
	if err != nil {
		return err
	}
	sel, err := c.resolve(optFns)
	if err != nil {
		return err
	}
	shape = sel.shape()
	rowLen := shape[1] * shape[2] * shape[3]

	bytes := int64(rowLen) * complexSize
	if err := db.opts.resource.ReserveMemory(bytes); err != nil {
		return err
	}
	defer db.opts.resource.ReleaseMemory(bytes)

	k, err := db.newKernel(c)
	if err != nil {
		return err
	}

	begun = true
	if err := sk.Begin(ctx, shape); err != nil {
		return err
	}

	row := make([]complex128, rowLen)
	parts := chunks(len(sel.waves), db.opts.workerLimit())
	for i, fi := range sel.freqs {
		err := db.forEach(ctx, len(parts), func(s *scratch, p int) error {
			return k.transferRange(s, row, c.Frequencies[fi], c.Wavenumbers[fi], sel, parts[p][0], parts[p][1])
		})
		if err != nil {
			return err
		}
		if err := sk.WriteRow(ctx, i, row); err != nil {
			return err
		}
		rows++
	}
	return sk.Commit(ctx)
}
