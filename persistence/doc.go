// Package persistence holds the binary primitives shared by the railrad file
// formats: magic numbers and versions, CRC32 checksumming, a little-endian
// record encoder and a bounds-checked slice reader.
//
// The database container (magic "RRDB") and the streaming sink (magic
// "RRSK") are both laid out as data sections followed by a directory and a
// fixed-size trailer:
//
//	[sections...][directory][Trailer]
//
// The trailer is always the last TrailerSize bytes of a blob, so a reader can
// locate everything with a single ranged read of the tail.
package persistence
