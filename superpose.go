package railrad

import (
	"context"
	"time"

	"github.com/hupe1980/railrad/tensor"
)

const complexSize = 16

// Superpose sums the remapped transfer functions weighted by the velocity
// field v over the configured source nodes.
//
// v has shape (frequency, wavenumber, load case, source) matching the
// configured grid and source subset. The result has shape
// (frequency, wavenumber, load case, receiver). Each frequency row is scaled
// by the factor selected with WithFieldQuantity; near-field pairs whose
// dispersion shift is unattainable contribute zero.
func (db *Database) Superpose(ctx context.Context, v *tensor.Dense[complex128]) (out *tensor.Dense[complex128], err error) {
	start := time.Now()
	cells := 0
	defer func() {
		err = translateError(err)
		if err != nil {
			out = nil
		}
		db.opts.metricsCollector.RecordSuperpose(cells, time.Since(start), err)
		db.opts.logger.LogSuperpose(ctx, shapeOf(out), err)
	}()

	c, err := db.configuration()
	if err != nil {
		return nil, err
	}
	nf, nk := len(c.Frequencies), c.nk
	nr, ns := len(c.Receivers), len(c.Sources)
	if v == nil {
		return nil, &ShapeError{Name: "velocity field", Expected: []int{nf, nk, -1, ns}}
	}
	if v.Dims() != 4 || v.Dim(0) != nf || v.Dim(1) != nk || v.Dim(3) != ns {
		return nil, &ShapeError{Name: "velocity field", Expected: []int{nf, nk, -1, ns}, Actual: v.Shape()}
	}
	nl := v.Dim(2)

	bytes := int64(nf) * int64(nk) * int64(nl) * int64(nr) * complexSize
	if err := db.opts.resource.ReserveMemory(bytes); err != nil {
		return nil, err
	}
	defer db.opts.resource.ReleaseMemory(bytes)

	k, err := db.newKernel(c)
	if err != nil {
		return nil, err
	}

	out = tensor.New[complex128](nf, nk, nl, nr)
	dst, src := out.Data(), v.Data()
	outRow, inRow := nk*nl*nr, nk*nl*ns
	err = db.forEach(ctx, nf, func(s *scratch, fi int) error {
		return k.superposeRow(s,
			dst[fi*outRow:(fi+1)*outRow],
			src[fi*inRow:(fi+1)*inRow],
			c.Frequencies[fi], c.Wavenumbers[fi], nl, nr)
	})
	if err != nil {
		return nil, err
	}
	cells = nf * nk
	return out, nil
}
