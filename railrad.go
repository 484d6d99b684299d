package railrad

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/tensor"
)

// Database is a loaded transfer-function database.
//
// The loaded tables are read-only and may be shared by any number of
// instances through Fork. Configure replaces the active configuration
// atomically; it must not race with calls that evaluate against it on the
// same instance. Use one Fork per concurrent configuration instead.
type Database struct {
	data      *Data
	sources   *NodeIndexSet
	receivers *NodeIndexSet
	opts      options

	cfg     atomic.Pointer[configuration]
	scratch sync.Pool
}

// New builds a database from in-memory tables. New takes ownership of the
// arrays in d; the caller must not modify them afterwards.
func New(d Data, optFns ...Option) (*Database, error) {
	o := applyOptions(optFns)
	start := time.Now()
	db, err := newDatabase(&d, o)
	o.metricsCollector.RecordLoad(time.Since(start), err)
	if err != nil {
		o.logger.LogLoad(context.Background(), "memory", 0, 0, 0, err)
		return nil, err
	}
	o.logger.LogLoad(context.Background(), "memory", db.receivers.Len(), db.sources.Len(), len(d.Frequencies), nil)
	return db, nil
}

func newDatabase(d *Data, o options) (*Database, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	if err := d.validate(o.kind); err != nil {
		return nil, err
	}
	sources, err := NewNodeIndexSet(d.SourceNodes...)
	if err != nil {
		return nil, &LoadError{Field: DatasetSourceNodes, cause: err}
	}
	return &Database{
		data:      d,
		sources:   sources,
		receivers: nodeRange(d.ReceiverCount()),
		opts:      o,
	}, nil
}

// Open loads the database container name from store.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Database, error) {
	o := applyOptions(optFns)
	start := time.Now()

	db, err := openDatabase(ctx, store, name, o)
	o.metricsCollector.RecordLoad(time.Since(start), err)
	if err != nil {
		o.logger.LogLoad(ctx, name, 0, 0, 0, err)
		return nil, err
	}
	o.logger.LogLoad(ctx, name, db.receivers.Len(), db.sources.Len(), len(db.data.Frequencies), nil)
	return db, nil
}

func openDatabase(ctx context.Context, store blobstore.BlobStore, name string, o options) (*Database, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, &LoadError{Field: name, cause: err}
	}
	defer blob.Close()

	r, err := container.Open(ctx, blob)
	if err != nil {
		return nil, &LoadError{Field: name, cause: err}
	}
	d, err := readData(ctx, r)
	if err != nil {
		return nil, err
	}
	return newDatabase(d, o)
}

// OpenFile loads a database container from the local file system.
func OpenFile(ctx context.Context, path string, optFns ...Option) (*Database, error) {
	store := blobstore.NewLocalStore(filepath.Dir(path))
	return Open(ctx, store, filepath.Base(path), optFns...)
}

// Fork returns an unconfigured instance sharing the loaded tables and
// options of db.
func (db *Database) Fork() *Database {
	return &Database{
		data:      db.data,
		sources:   db.sources,
		receivers: db.receivers,
		opts:      db.opts,
	}
}

// Frequencies returns a copy of the reference frequency grid.
func (db *Database) Frequencies() []float64 {
	return append([]float64(nil), db.data.Frequencies...)
}

// K0 returns the reference wavenumber.
func (db *Database) K0() float64 { return db.data.K0 }

// SourceNodes returns the valid source nodes.
func (db *Database) SourceNodes() *NodeIndexSet { return db.sources }

// ReceiverNodes returns the valid receiver nodes, 0..n-1.
func (db *Database) ReceiverNodes() *NodeIndexSet { return db.receivers }

// Geometry returns the coordinate arrays. They are shared; do not modify.
func (db *Database) Geometry() Geometry { return db.data.Geometry }

// Shape returns the shape of the transfer-function table
// (receiver, source node, reference frequency).
func (db *Database) Shape() []int { return db.data.TransferFunctions.Shape() }

// FieldQuantity returns the quantity Superpose expects.
func (db *Database) FieldQuantity() FieldQuantity { return db.opts.quantity }

func shapeOf(t *tensor.Dense[complex128]) []int {
	if t == nil {
		return nil
	}
	return t.Shape()
}
