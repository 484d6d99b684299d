package conv

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float64sToBytes encodes v as little-endian IEEE-754 values.
func Float64sToBytes(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(f))
	}
	return b
}

// BytesToFloat64s decodes the output of Float64sToBytes.
func BytesToFloat64s(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("conv: %d bytes is not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}

// Complex128sToBytes encodes v as interleaved little-endian real/imag pairs.
func Complex128sToBytes(v []complex128) []byte {
	b := make([]byte, 16*len(v))
	PutComplex128s(b, v)
	return b
}

// PutComplex128s encodes v into b, which must hold 16·len(v) bytes.
func PutComplex128s(b []byte, v []complex128) {
	for i, z := range v {
		binary.LittleEndian.PutUint64(b[16*i:], math.Float64bits(real(z)))
		binary.LittleEndian.PutUint64(b[16*i+8:], math.Float64bits(imag(z)))
	}
}

// BytesToComplex128s decodes the output of Complex128sToBytes.
func BytesToComplex128s(b []byte) ([]complex128, error) {
	if len(b)%16 != 0 {
		return nil, fmt.Errorf("conv: %d bytes is not a multiple of 16", len(b))
	}
	v := make([]complex128, len(b)/16)
	for i := range v {
		re := math.Float64frombits(binary.LittleEndian.Uint64(b[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[16*i+8:]))
		v[i] = complex(re, im)
	}
	return v, nil
}

// Int64sToBytes encodes v as little-endian two's complement values.
func Int64sToBytes(v []int64) []byte {
	b := make([]byte, 8*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint64(b[8*i:], uint64(n))
	}
	return b
}

// BytesToInt64s decodes the output of Int64sToBytes.
func BytesToInt64s(b []byte) ([]int64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("conv: %d bytes is not a multiple of 8", len(b))
	}
	v := make([]int64, len(b)/8)
	for i := range v {
		v[i] = int64(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}
