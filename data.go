package railrad

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/interp"
	"github.com/hupe1980/railrad/tensor"
)

// Dataset names inside a database container.
const (
	DatasetTransferFunctions   = "tfs"
	DatasetFrequencies         = "info/f"
	DatasetK0                  = "info/k0"
	DatasetSourceCoordinates   = "info/source_coordinates"
	DatasetReceiverCoordinates = "info/receiver_coordinates"
	DatasetNormalVectors       = "info/normal_vectors"
	DatasetSourceNodes         = "info/source_nodes"
)

// Geometry holds the coordinate arrays of a database. railrad passes them
// through unchanged.
type Geometry struct {
	// SourceCoordinates are the cross-section node coordinates, one row per node.
	SourceCoordinates *tensor.Dense[float64]
	// ReceiverCoordinates are the field point coordinates, one row per
	// receiver. The row count defines the receiver node set.
	ReceiverCoordinates *tensor.Dense[float64]
	// NormalVectors are the outward surface normals at the source nodes.
	NormalVectors *tensor.Dense[float64]
}

// Data is a transfer-function database held in memory.
type Data struct {
	// TransferFunctions has shape (receiver, source node, reference frequency).
	TransferFunctions *tensor.Dense[complex128]
	// Frequencies is the reference frequency grid in Hz.
	Frequencies []float64
	// K0 is the reference wavenumber the table was computed for.
	K0 float64
	// SourceNodes enumerates the valid source nodes, as positions on axis 1
	// of TransferFunctions. Its order is the default source axis of a
	// velocity field.
	SourceNodes []int

	Geometry
}

// ReceiverCount returns the number of receiver nodes.
func (d *Data) ReceiverCount() int {
	if d.ReceiverCoordinates == nil || d.ReceiverCoordinates.Dims() == 0 {
		return 0
	}
	return d.ReceiverCoordinates.Dim(0)
}

// validate checks the invariants a loaded database must satisfy.
func (d *Data) validate(kind interp.Kind) error {
	tfs := d.TransferFunctions
	if tfs == nil {
		return &LoadError{Field: DatasetTransferFunctions, Reason: "missing"}
	}
	if tfs.Dims() != 3 {
		return &LoadError{Field: DatasetTransferFunctions, Reason: fmt.Sprintf("want 3 axes, got shape %v", tfs.Shape())}
	}

	if len(d.Frequencies) != tfs.Dim(2) {
		return &LoadError{
			Field:  DatasetFrequencies,
			Reason: fmt.Sprintf("%d frequencies for %d tabulated points", len(d.Frequencies), tfs.Dim(2)),
		}
	}
	minPoints := 2
	if kind == interp.Cubic {
		minPoints = 3
	}
	if len(d.Frequencies) < minPoints {
		return &LoadError{
			Field:  DatasetFrequencies,
			Reason: fmt.Sprintf("%s interpolation needs %d frequencies, got %d", kind, minPoints, len(d.Frequencies)),
		}
	}
	for i, f := range d.Frequencies {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &LoadError{Field: DatasetFrequencies, Reason: fmt.Sprintf("f[%d] = %v is not finite", i, f)}
		}
		if i > 0 && f <= d.Frequencies[i-1] {
			return &LoadError{Field: DatasetFrequencies, Reason: fmt.Sprintf("not strictly increasing at index %d", i)}
		}
	}

	if math.IsNaN(d.K0) || math.IsInf(d.K0, 0) {
		return &LoadError{Field: DatasetK0, Reason: fmt.Sprintf("%v is not finite", d.K0)}
	}

	for _, g := range []struct {
		name string
		t    *tensor.Dense[float64]
	}{
		{DatasetSourceCoordinates, d.SourceCoordinates},
		{DatasetReceiverCoordinates, d.ReceiverCoordinates},
		{DatasetNormalVectors, d.NormalVectors},
	} {
		if g.t == nil {
			return &LoadError{Field: g.name, Reason: "missing"}
		}
		if g.t.Dims() == 0 {
			return &LoadError{Field: g.name, Reason: "scalar where an array is required"}
		}
	}
	if d.ReceiverCount() != tfs.Dim(0) {
		return &LoadError{
			Field:  DatasetReceiverCoordinates,
			Reason: fmt.Sprintf("%d receivers for %d tabulated receivers", d.ReceiverCount(), tfs.Dim(0)),
		}
	}

	seen := make(map[int]struct{}, len(d.SourceNodes))
	for _, n := range d.SourceNodes {
		if n < 0 || n >= tfs.Dim(1) {
			return &LoadError{
				Field:  DatasetSourceNodes,
				Reason: fmt.Sprintf("node %d outside [0, %d)", n, tfs.Dim(1)),
			}
		}
		if _, dup := seen[n]; dup {
			return &LoadError{Field: DatasetSourceNodes, Reason: fmt.Sprintf("duplicate node %d", n)}
		}
		seen[n] = struct{}{}
	}
	return nil
}

// readData decodes a database container.
func readData(ctx context.Context, r *container.Reader) (*Data, error) {
	d := &Data{}

	tfs, shape, err := r.Complex128s(ctx, DatasetTransferFunctions)
	if err != nil {
		return nil, loadErr(DatasetTransferFunctions, err)
	}
	if d.TransferFunctions, err = tensor.FromData(tfs, shape...); err != nil {
		return nil, loadErr(DatasetTransferFunctions, err)
	}

	f, shape, err := r.Float64s(ctx, DatasetFrequencies)
	if err != nil {
		return nil, loadErr(DatasetFrequencies, err)
	}
	if len(shape) != 1 {
		return nil, &LoadError{Field: DatasetFrequencies, Reason: fmt.Sprintf("want 1 axis, got shape %v", shape)}
	}
	d.Frequencies = f

	k0, _, err := r.Float64s(ctx, DatasetK0)
	if err != nil {
		return nil, loadErr(DatasetK0, err)
	}
	if d.K0, err = reduceK0(k0); err != nil {
		return nil, loadErr(DatasetK0, err)
	}

	for _, g := range []struct {
		name string
		dst  **tensor.Dense[float64]
	}{
		{DatasetSourceCoordinates, &d.SourceCoordinates},
		{DatasetReceiverCoordinates, &d.ReceiverCoordinates},
		{DatasetNormalVectors, &d.NormalVectors},
	} {
		v, shape, err := r.Float64s(ctx, g.name)
		if err != nil {
			return nil, loadErr(g.name, err)
		}
		if *g.dst, err = tensor.FromData(v, shape...); err != nil {
			return nil, loadErr(g.name, err)
		}
	}

	if d.SourceNodes, err = readNodes(ctx, r, DatasetSourceNodes); err != nil {
		return nil, err
	}
	return d, nil
}

// reduceK0 accepts a scalar or a vector of identical entries.
func reduceK0(k0 []float64) (float64, error) {
	if len(k0) == 0 {
		return 0, errors.New("empty")
	}
	for _, v := range k0[1:] {
		if v != k0[0] {
			return 0, fmt.Errorf("entries differ (%v and %v)", k0[0], v)
		}
	}
	return k0[0], nil
}

func loadErr(field string, err error) error {
	return &LoadError{Field: field, cause: err}
}

// writeData stores d as datasets of w.
func writeData(w *container.Writer, d *Data) error {
	if err := w.PutComplex128s(DatasetTransferFunctions, d.TransferFunctions.Data(), d.TransferFunctions.Shape()...); err != nil {
		return err
	}
	if err := w.PutFloat64s(DatasetFrequencies, d.Frequencies); err != nil {
		return err
	}
	if err := w.PutFloat64s(DatasetK0, []float64{d.K0}); err != nil {
		return err
	}
	for _, g := range []struct {
		name string
		t    *tensor.Dense[float64]
	}{
		{DatasetSourceCoordinates, d.SourceCoordinates},
		{DatasetReceiverCoordinates, d.ReceiverCoordinates},
		{DatasetNormalVectors, d.NormalVectors},
	} {
		if err := w.PutFloat64s(g.name, g.t.Data(), g.t.Shape()...); err != nil {
			return err
		}
	}
	return w.PutInt64s(DatasetSourceNodes, toInt64s(d.SourceNodes))
}

// WriteDatabase stores d as a database container under name. The blob is
// published only if every dataset was written.
func WriteDatabase(ctx context.Context, store blobstore.BlobStore, name string, d Data, optFns ...Option) error {
	o := applyOptions(optFns)
	if err := d.validate(o.kind); err != nil {
		return err
	}
	return writeContainer(ctx, store, name, o.compression, func(w *container.Writer) error {
		return writeData(w, &d)
	})
}

// writeContainer creates name on store, lets fill add datasets and
// publishes the blob. Partial writes are aborted.
func writeContainer(ctx context.Context, store blobstore.BlobStore, name string, c container.Compression, fill func(*container.Writer) error) (err error) {
	blob, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = blobstore.Abort(blob)
		}
	}()

	w := container.NewWriter(blob, c)
	if err = fill(w); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	if err = blob.Sync(); err != nil {
		return err
	}
	return blob.Close()
}
