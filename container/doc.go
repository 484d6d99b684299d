// Package container reads and writes railrad database containers: a single
// blob of named, typed n-d datasets addressed by slash-separated paths such
// as "tfs" or "info/f".
//
// Layout:
//
//	[dataset frames...][directory][trailer]
//
// Every dataset is stored as one compress frame (raw, LZ4 or ZSTD) and is
// described by a directory entry holding its dtype, shape, compression,
// offset, stored and raw length, and the CRC32 of the raw bytes. The trailer
// (magic "RRDB") locates the directory and carries its CRC32, so opening a
// container costs two ranged reads regardless of how many datasets it holds.
//
// Numeric datasets are little-endian. Complex values are interleaved
// (real, imaginary) float64 pairs.
package container
