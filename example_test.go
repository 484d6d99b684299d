package railrad_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/railrad"
	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/sink"
	"github.com/hupe1980/railrad/tensor"
)

// unitDatabase is one receiver and one source node with a flat unit
// response between 0 and 1 kHz.
func unitDatabase() railrad.Data {
	tfs, _ := tensor.FromData([]complex128{1, 1}, 1, 1, 2)
	return railrad.Data{
		TransferFunctions: tfs,
		Frequencies:       []float64{0, 1000},
		K0:                0,
		SourceNodes:       []int{0},
		Geometry: railrad.Geometry{
			SourceCoordinates:   tensor.New[float64](1, 2),
			ReceiverCoordinates: tensor.New[float64](1, 2),
			NormalVectors:       tensor.New[float64](1, 2),
		},
	}
}

// Example demonstrates a superposition at a single frequency.
func Example() {
	ctx := context.Background()

	db, err := railrad.New(unitDatabase())
	if err != nil {
		log.Fatal(err)
	}

	// One frequency with one wavenumber.
	if err := db.Configure(ctx, []float64{500}, [][]float64{{0}}); err != nil {
		log.Fatal(err)
	}

	// Unit velocity: (frequency, wavenumber, load case, source).
	v, _ := tensor.FromData([]complex128{1}, 1, 1, 1, 1)
	p, err := db.Superpose(ctx, v)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%.4f\n", p.At(0, 0, 0, 0))
	// Output: (0.0000+3141.5927i)
}

// Example_stream writes transfer functions row by row to a blob store and
// reads them back.
func Example_stream() {
	ctx := context.Background()

	db, err := railrad.New(unitDatabase())
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Configure(ctx, []float64{100, 200}, [][]float64{{0}, {0}}); err != nil {
		log.Fatal(err)
	}

	store := blobstore.NewMemoryStore()
	out, err := sink.Create(ctx, store, "tfs.rrsk")
	if err != nil {
		log.Fatal(err)
	}
	if err := db.StreamTransferFunctions(ctx, out); err != nil {
		log.Fatal(err)
	}

	blob, err := store.Open(ctx, "tfs.rrsk")
	if err != nil {
		log.Fatal(err)
	}
	defer blob.Close()

	r, err := sink.OpenReader(ctx, blob)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(r.Shape(), r.Rows())
	// Output: [2 1 1 1] 2
}

// Example_snapshot stores the active configuration and restores it through
// the CURRENT pointer.
func Example_snapshot() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	db, err := railrad.New(unitDatabase(), railrad.WithFieldQuantity(railrad.Displacement))
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Configure(ctx, []float64{250}, [][]float64{{0, 1}}); err != nil {
		log.Fatal(err)
	}
	if err := db.Snapshot(ctx, store, "snap-1"); err != nil {
		log.Fatal(err)
	}

	restored, err := railrad.Restore(ctx, store, "")
	if err != nil {
		log.Fatal(err)
	}
	c, _ := restored.Configuration()
	fmt.Println(restored.FieldQuantity(), c.Frequencies, c.Wavenumbers)
	// Output: displacement [250] [[0 1]]
}
