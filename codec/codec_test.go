package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Kind      string      `json:"kind"`
	F         []float64   `json:"f"`
	K         [][]float64 `json:"k"`
	Receivers []int       `json:"receivers,omitempty"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
	assert.Equal(t, "go-json", Default.Name())
}

func TestCodecsInteroperate(t *testing.T) {
	in := record{Kind: "cubic", F: []float64{100, 250.5}, K: [][]float64{{0.1, 0.2}, {0.3, 0.4}}, Receivers: []int{0, 3}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			b, err := enc.Marshal(in)
			require.NoError(t, err)

			var out record
			require.NoError(t, dec.Unmarshal(b, &out), "%s -> %s", enc.Name(), dec.Name())
			assert.Equal(t, in, out)
		}
	}
}
