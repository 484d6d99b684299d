// Package conv provides checked integer conversions and the little-endian
// byte encodings used by railrad's on-disk formats.
//
// Integer conversions perform bounds checking so that counts, offsets and
// shapes read from untrusted headers cannot overflow the platform int.
//
// Numeric encodings lay out float64 and int64 values as 8 little-endian
// bytes each; a complex128 is its real part followed by its imaginary part.
package conv
