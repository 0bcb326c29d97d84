package preview

import "math"

// DefaultNumBars is the number of bars in a track preview.
const DefaultNumBars = 200

// ComputeTrackBars splits samples into n contiguous chunks of
// floor(len/n) samples, the remainder going to the last chunk, and returns the
// mean absolute amplitude of each chunk rescaled onto [0, 100]. The result
// always has n entries; an empty chunk has mean 0. NaN and infinite samples,
// which a damaged stream can decode to, are left out of their chunk's mean.
func ComputeTrackBars(samples []float32, n int) []float64 {
	if n <= 0 {
		return nil
	}

	means := make([]float64, n)
	chunk := len(samples) / n
	for i := range means {
		start := i * chunk
		end := start + chunk
		if i == n-1 {
			end = len(samples)
		}
		if end <= start {
			continue
		}

		var sum float64
		var count int
		for _, s := range samples[start:end] {
			v := float64(s)
			if !finite(v) {
				continue
			}
			sum += math.Abs(v)
			count++
		}
		if count > 0 {
			means[i] = sum / float64(count)
		}
	}

	return Rescale(means, 0, 100)
}

// Rescale maps values linearly from their own [min, max] onto [lo, hi]. When
// every value is the same there is no range to map from and each one becomes
// the midpoint of [lo, hi]. Non-finite values do not take part in the range
// and map to lo.
func Rescale(values []float64, lo, hi float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !finite(v) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if minV > maxV {
		minV, maxV = 0, 0
	}

	span := maxV - minV
	for i, v := range values {
		if !finite(v) {
			out[i] = lo
			continue
		}
		if span == 0 {
			out[i] = (lo + hi) / 2
			continue
		}
		out[i] = lo + (v-minV)/span*(hi-lo)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
