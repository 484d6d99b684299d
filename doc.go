// Package railrad computes the sound pressure radiated by a vibrating railway
// track at a set of receiver points from a database of precomputed acoustic
// transfer functions.
//
// A database tabulates complex transfer functions for a single reference
// wavenumber k0, indexed by receiver node, source node and reference
// frequency. A query at wavenumber k and frequency f is remapped onto the
// reference curve with the dispersion shift (package dispersion) and the
// table is interpolated at the resulting frequency (package interp).
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := railrad.OpenFile(ctx, "./track.rrdb")
//
//	// one row of wavenumbers per frequency
//	_ = db.Configure(ctx, f, k, railrad.WithReceivers(0, 4, 7))
//
//	// v has shape (frequency, wavenumber, load case, source)
//	p, _ := db.Superpose(ctx, v)
//
// # Retrieval
//
// TransferFunctions returns the scaled, remapped transfer functions of the
// active configuration with shape (frequency, wavenumber, receiver, source).
// StreamTransferFunctions produces the same values one frequency row at a
// time into a sink.Sink, for results that do not fit in memory:
//
//	out, _ := sink.Create(ctx, store, "tfs.rrsk")
//	_ = db.StreamTransferFunctions(ctx, out, railrad.SelectFrequencies(0, 1, 2))
//
// # Scaling
//
// Transfer functions are pressure per unit surface acceleration. Superpose
// multiplies every frequency row by i·2π·f, so the field passed to it is a
// surface normal velocity. WithFieldQuantity(Displacement) scales by
// (i·2π·f)² for displacement input.
//
// # Interpolation
//
// The table is interpolated over its real and imaginary parts by default.
// WithDecomposition(interp.MagnitudePhase) interpolates magnitude and wrapped
// phase instead; see package interp for the tradeoff.
//
// # Concurrency
//
// Superpose and TransferFunctions evaluate frequency rows in parallel,
// bounded by WithWorkers or the resource controller. Configure publishes a
// new configuration atomically, but callers should not reconfigure an
// instance while it is evaluating. Fork returns an independent instance over
// the same read-only tables for concurrent configurations.
//
// # Snapshots
//
// Snapshot stores the tables and the active configuration in one container
// and updates the CURRENT pointer of the store. Restore rebuilds an instance
// that produces identical results.
package railrad
