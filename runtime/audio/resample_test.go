package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) / float32(n)
	}
	return out
}

func TestResampleSameRateCopies(t *testing.T) {
	in := ramp(50)
	out, err := Resample(in, 16000, 16000)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	out[0] = 1
	assert.NotEqual(t, in[0], out[0])
}

func TestResampleLengths(t *testing.T) {
	out, err := Resample(ramp(100), 24000, 16000)
	require.NoError(t, err)
	assert.Len(t, out, 66)

	out, err = Resample(ramp(100), 16000, 24000)
	require.NoError(t, err)
	assert.Len(t, out, 150)
}

func TestResampleInterpolates(t *testing.T) {
	out, err := Resample([]float32{0, 1}, 1, 2)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.InDelta(t, 0.5, out[1], 1e-6)
	assert.Equal(t, float32(1), out[3])
}

func TestResampleInvalidRates(t *testing.T) {
	_, err := Resample(ramp(10), 0, 16000)
	assert.Error(t, err)
	_, err = Resample(ramp(10), 16000, -1)
	assert.Error(t, err)
}
