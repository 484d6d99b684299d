package railrad

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/railrad/dispersion"
	"github.com/hupe1980/railrad/interp"
)

// scale returns the conversion factor applied to every value of the
// frequency row at f.
func (q FieldQuantity) scale(f float64) complex128 {
	iw := complex(0, 2*math.Pi*f)
	if q == Displacement {
		return iw * iw
	}
	return iw
}

// kernel evaluates remapped transfer functions. It is shared read-only by
// all workers of a call.
type kernel struct {
	ip *interp.Complex
	k0 float64
	q  FieldQuantity
	ns int // configured sources, the row stride of an evaluation
}

// scratch is a worker-private evaluation buffer.
type scratch struct {
	f0 []float64
	r  []complex128
}

func (db *Database) newKernel(c *configuration) (*kernel, error) {
	ip, err := c.interpolant()
	if err != nil {
		return nil, err
	}
	return &kernel{ip: ip, k0: db.data.K0, q: db.opts.quantity, ns: len(c.Sources)}, nil
}

func (db *Database) getScratch() *scratch {
	if s, ok := db.scratch.Get().(*scratch); ok {
		return s
	}
	return &scratch{}
}

func (db *Database) putScratch(s *scratch) {
	db.scratch.Put(s)
}

// eval returns the configured (receiver × source) matrix at reference
// frequency f0. The result aliases s.
func (k *kernel) eval(s *scratch, f0 float64) ([]complex128, error) {
	r, err := k.ip.At(f0, s.r)
	if err != nil {
		return nil, err
	}
	s.r = r
	return r, nil
}

// superposeRow contracts one frequency row of the velocity field v
// (wavenumber × load case × source) against the remapped transfer functions
// and writes (wavenumber × load case × receiver) into dst.
func (k *kernel) superposeRow(s *scratch, dst, v []complex128, f float64, kn []float64, nl, nr int) error {
	ns := k.ns
	scale := k.q.scale(f)
	s.f0 = dispersion.F0ShiftRow(s.f0, kn, k.k0, f)

	for ki, f0 := range s.f0 {
		r, err := k.eval(s, f0)
		if err != nil {
			return err
		}
		vk := v[ki*nl*ns : (ki+1)*nl*ns]
		out := dst[ki*nl*nr : (ki+1)*nl*nr]
		for l := 0; l < nl; l++ {
			vl := vk[l*ns : (l+1)*ns]
			for ri := 0; ri < nr; ri++ {
				rr := r[ri*ns : (ri+1)*ns]
				var acc complex128
				for si, vs := range vl {
					acc += vs * rr[si]
				}
				out[l*nr+ri] = scale * acc
			}
		}
	}
	return nil
}

// transferRange fills the cells [lo, hi) of one selected frequency row.
// A cell is the (receiver × source) matrix at one selected wavenumber.
func (k *kernel) transferRange(s *scratch, dst []complex128, f float64, kn []float64, sel *selection, lo, hi int) error {
	scale := k.q.scale(f)
	cell := len(sel.rows) * len(sel.cols)
	for i := lo; i < hi; i++ {
		r, err := k.eval(s, dispersion.F0Shift(kn[sel.waves[i]], k.k0, f))
		if err != nil {
			return err
		}
		out := dst[i*cell : (i+1)*cell]
		j := 0
		for _, rp := range sel.rows {
			base := rp * k.ns
			for _, sp := range sel.cols {
				out[j] = scale * r[base+sp]
				j++
			}
		}
	}
	return nil
}

// forEach runs fn(s, i) for i in [0, n) on up to the configured number of
// workers. Every invocation holds a resource controller worker slot and a
// private scratch buffer.
func (db *Database) forEach(ctx context.Context, n int, fn func(s *scratch, i int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, db.opts.workerLimit()))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := db.opts.resource.AcquireWorker(ctx); err != nil {
				return err
			}
			defer db.opts.resource.ReleaseWorker()

			s := db.getScratch()
			defer db.putScratch(s)
			return fn(s, i)
		})
	}
	return g.Wait()
}

// chunks splits [0, n) into at most parts contiguous ranges.
func chunks(n, parts int) [][2]int {
	if n == 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	size := (n + parts - 1) / parts
	out := make([][2]int, 0, parts)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}
