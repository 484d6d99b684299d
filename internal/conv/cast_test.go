package conv

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToUint32(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.Error(t, err)
	})

	t.Run("valid max uint32", func(t *testing.T) {
		got, err := IntToUint32(math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(123)
	assert.NoError(t, err)
	assert.Equal(t, 123, got)

	_, err = Uint64ToInt(uint64(math.MaxInt) + 1)
	assert.Error(t, err)
}

func TestShapeFromUint64(t *testing.T) {
	shape, n, err := ShapeFromUint64([]uint64{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, shape)
	assert.Equal(t, 24, n)

	_, n, err = ShapeFromUint64([]uint64{0, math.MaxInt64})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, _, err = ShapeFromUint64([]uint64{1 << 40, 1 << 40})
	assert.Error(t, err)
}

func TestNumericEncodings(t *testing.T) {
	f := []float64{0, -1.5, math.Inf(1), math.SmallestNonzeroFloat64}
	gotF, err := BytesToFloat64s(Float64sToBytes(f))
	require.NoError(t, err)
	assert.Equal(t, f, gotF)

	c := []complex128{complex(1, -2), cmplx.Inf(), 0}
	gotC, err := BytesToComplex128s(Complex128sToBytes(c))
	require.NoError(t, err)
	assert.Equal(t, c, gotC)

	n := []int64{-7, 0, math.MaxInt64}
	gotN, err := BytesToInt64s(Int64sToBytes(n))
	require.NoError(t, err)
	assert.Equal(t, n, gotN)

	_, err = BytesToComplex128s(make([]byte, 15))
	assert.Error(t, err)
}
