package analysis

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// FFT is an in-place iterative radix-2 transform of data zero-padded to the
// next power of two.
func FFT(data []float64) []complex128 {
	n := nextPow2(len(data))
	out := make([]complex128, n)
	if n == 1 {
		if len(data) == 1 {
			out[0] = complex(data[0], 0)
		}
		return out
	}

	shift := 64 - uint(bits.TrailingZeros(uint(n)))
	for i, v := range data {
		out[bits.Reverse64(uint64(i))>>shift] = complex(v, 0)
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				a, b := out[start+k], w*out[start+k+half]
				out[start+k] = a + b
				out[start+k+half] = a - b
				w *= step
			}
		}
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PowerSpectrum returns the magnitudes of the non-negative frequency bins.
func PowerSpectrum(data []float64) []float64 {
	f := FFT(data)
	ps := make([]float64, len(f)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(f[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency in Hz of a
// signal sampled every dt, or 0 when there is none.
func DominantFrequency(signal []float64, dt float64) float64 {
	if len(signal) < 4 || dt <= 0 {
		return 0
	}

	mean := 0.0
	for _, v := range signal {
		mean += v
	}
	mean /= float64(len(signal))

	centered := make([]float64, len(signal))
	for i, v := range signal {
		centered[i] = v - mean
	}

	ps := PowerSpectrum(centered)
	best, bestPower := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestPower {
			best, bestPower = k, ps[k]
		}
	}
	if best == 0 {
		return 0
	}
	return float64(best) / (float64(len(ps)*2) * dt)
}
