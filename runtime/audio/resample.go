package audio

import "fmt"

// Resample converts float samples between rates by linear interpolation.
func Resample(input []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", fromRate, toRate)
	}
	if fromRate == toRate {
		out := make([]float32, len(input))
		copy(out, input)
		return out, nil
	}

	n := len(input)
	out := make([]float32, resampledLen(n, fromRate, toRate))
	if n == 0 {
		return out, nil
	}
	ratio := float64(fromRate) / float64(toRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= n-1 {
			out[i] = input[n-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = input[idx] + frac*(input[idx+1]-input[idx])
	}
	return out, nil
}
