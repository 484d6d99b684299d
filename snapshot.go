package railrad

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/codec"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/interp"
)

// Snapshot dataset names, next to the database datasets.
const (
	DatasetCodec             = "meta/codec"
	DatasetRecord            = "meta/config"
	DatasetConfigFrequencies = "config/f"
	DatasetConfigWavenumbers = "config/k"
	DatasetConfigReceivers   = "config/receivers"
	DatasetConfigSources     = "config/sources"
)

const snapshotFormat = "railrad-snapshot/1"

// snapshotRecord is the codec-encoded settings record of a snapshot. The
// numeric grids are stored as datasets.
type snapshotRecord struct {
	Format        string `json:"format"`
	Interpolation string `json:"interpolation"`
	Decomposition string `json:"decomposition"`
	FieldQuantity string `json:"field_quantity"`
	Configured    bool   `json:"configured"`
	Frequencies   int    `json:"frequencies,omitempty"`
	Wavenumbers   int    `json:"wavenumbers,omitempty"`
}

// Snapshot writes the tables, node sets, geometry and active configuration
// of db to store under name and then points blobstore.CurrentPointer at it.
// With a DynamoDB-backed store the pointer swap is a conditional write.
func (db *Database) Snapshot(ctx context.Context, store blobstore.BlobStore, name string) (err error) {
	defer func() {
		db.opts.logger.LogSnapshot(ctx, "snapshot", name, err)
	}()
	if name == "" || name == blobstore.CurrentPointer {
		return fmt.Errorf("railrad: invalid snapshot name %q", name)
	}

	c := db.cfg.Load()
	rec := snapshotRecord{
		Format:        snapshotFormat,
		Interpolation: db.opts.kind.String(),
		Decomposition: db.opts.decomposition.String(),
		FieldQuantity: db.opts.quantity.String(),
		Configured:    c != nil,
	}
	if c != nil {
		rec.Frequencies = len(c.Frequencies)
		rec.Wavenumbers = c.nk
	}
	payload, err := db.opts.codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("railrad: encode snapshot record: %w", err)
	}

	err = writeContainer(ctx, store, name, db.opts.compression, func(w *container.Writer) error {
		if err := writeData(w, db.data); err != nil {
			return err
		}
		if err := w.PutBytes(DatasetCodec, []byte(db.opts.codec.Name())); err != nil {
			return err
		}
		if err := w.PutBytes(DatasetRecord, payload); err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		return writeConfiguration(w, c)
	})
	if err != nil {
		return err
	}
	return store.Put(ctx, blobstore.CurrentPointer, []byte(name))
}

func writeConfiguration(w *container.Writer, c *configuration) error {
	if err := w.PutFloat64s(DatasetConfigFrequencies, c.Frequencies); err != nil {
		return err
	}
	k := make([]float64, 0, len(c.Frequencies)*c.nk)
	for _, row := range c.Wavenumbers {
		k = append(k, row...)
	}
	if err := w.PutFloat64s(DatasetConfigWavenumbers, k, len(c.Frequencies), c.nk); err != nil {
		return err
	}
	if err := w.PutInt64s(DatasetConfigReceivers, toInt64s(c.Receivers)); err != nil {
		return err
	}
	return w.PutInt64s(DatasetConfigSources, toInt64s(c.Sources))
}

// Restore rebuilds a database from a snapshot. An empty name follows
// blobstore.CurrentPointer. The interpolation settings and field quantity
// recorded in the snapshot take precedence over optFns.
func Restore(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Database, error) {
	o := applyOptions(optFns)
	start := time.Now()

	db, err := restore(ctx, store, name, o)
	o.metricsCollector.RecordLoad(time.Since(start), err)
	o.logger.LogSnapshot(ctx, "restore", name, err)
	return db, err
}

func restore(ctx context.Context, store blobstore.BlobStore, name string, o options) (*Database, error) {
	if name == "" {
		ptr, err := blobstore.Get(ctx, store, blobstore.CurrentPointer)
		if err != nil {
			return nil, &LoadError{Field: blobstore.CurrentPointer, cause: err}
		}
		name = strings.TrimSpace(string(ptr))
		if name == "" {
			return nil, &LoadError{Field: blobstore.CurrentPointer, Reason: "empty pointer"}
		}
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, &LoadError{Field: name, cause: err}
	}
	defer blob.Close()

	r, err := container.Open(ctx, blob)
	if err != nil {
		return nil, &LoadError{Field: name, cause: err}
	}

	rec, err := readRecord(ctx, r)
	if err != nil {
		return nil, err
	}
	if o.kind, err = interp.ParseKind(rec.Interpolation); err != nil {
		return nil, &LoadError{Field: DatasetRecord, cause: err}
	}
	if o.decomposition, err = interp.ParseDecomposition(rec.Decomposition); err != nil {
		return nil, &LoadError{Field: DatasetRecord, cause: err}
	}
	if o.quantity, err = ParseFieldQuantity(rec.FieldQuantity); err != nil {
		return nil, &LoadError{Field: DatasetRecord, cause: err}
	}

	d, err := readData(ctx, r)
	if err != nil {
		return nil, err
	}
	db, err := newDatabase(d, o)
	if err != nil {
		return nil, err
	}
	if !rec.Configured {
		return db, nil
	}

	c, err := readConfiguration(ctx, r, rec)
	if err != nil {
		return nil, err
	}
	cfg, err := db.newConfiguration(c)
	if err != nil {
		return nil, &LoadError{Field: DatasetRecord, cause: translateError(err)}
	}
	db.cfg.Store(cfg)
	return db, nil
}

func readRecord(ctx context.Context, r *container.Reader) (snapshotRecord, error) {
	var rec snapshotRecord

	name, err := r.Bytes(ctx, DatasetCodec)
	if err != nil {
		return rec, loadErr(DatasetCodec, err)
	}
	cd, ok := codec.ByName(string(name))
	if !ok {
		return rec, &LoadError{Field: DatasetCodec, Reason: fmt.Sprintf("unknown codec %q", name)}
	}

	payload, err := r.Bytes(ctx, DatasetRecord)
	if err != nil {
		return rec, loadErr(DatasetRecord, err)
	}
	if err := cd.Unmarshal(payload, &rec); err != nil {
		return rec, loadErr(DatasetRecord, err)
	}
	if rec.Format != snapshotFormat {
		return rec, &LoadError{Field: DatasetRecord, Reason: fmt.Sprintf("unsupported format %q", rec.Format)}
	}
	return rec, nil
}

func readConfiguration(ctx context.Context, r *container.Reader, rec snapshotRecord) (Configuration, error) {
	var c Configuration

	f, _, err := r.Float64s(ctx, DatasetConfigFrequencies)
	if err != nil {
		return c, loadErr(DatasetConfigFrequencies, err)
	}
	if len(f) != rec.Frequencies {
		return c, &LoadError{Field: DatasetConfigFrequencies, Reason: fmt.Sprintf("%d frequencies, record has %d", len(f), rec.Frequencies)}
	}

	k, shape, err := r.Float64s(ctx, DatasetConfigWavenumbers)
	if err != nil {
		return c, loadErr(DatasetConfigWavenumbers, err)
	}
	if len(shape) != 2 || shape[0] != rec.Frequencies || shape[1] != rec.Wavenumbers {
		return c, &LoadError{Field: DatasetConfigWavenumbers, Reason: fmt.Sprintf("shape %v does not match record", shape)}
	}
	c.Frequencies = f
	c.Wavenumbers = make([][]float64, rec.Frequencies)
	for i := range c.Wavenumbers {
		c.Wavenumbers[i] = k[i*rec.Wavenumbers : (i+1)*rec.Wavenumbers : (i+1)*rec.Wavenumbers]
	}

	if c.Receivers, err = readNodes(ctx, r, DatasetConfigReceivers); err != nil {
		return c, err
	}
	if c.Sources, err = readNodes(ctx, r, DatasetConfigSources); err != nil {
		return c, err
	}
	return c, nil
}

func readNodes(ctx context.Context, r *container.Reader, name string) ([]int, error) {
	v, _, err := r.Int64s(ctx, name)
	if err != nil {
		return nil, loadErr(name, err)
	}
	out := make([]int, len(v))
	for i, n := range v {
		if n < 0 || n > math.MaxInt32 {
			return nil, &LoadError{Field: name, Reason: fmt.Sprintf("node %d out of range", n)}
		}
		out[i] = int(n)
	}
	return out, nil
}

func toInt64s(v []int) []int64 {
	out := make([]int64, len(v))
	for i, n := range v {
		out[i] = int64(n)
	}
	return out
}
