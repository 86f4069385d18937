// Package dsp holds small numeric primitives shared by the listener,
// architect, and theorist packages: similarity measures, smoothing filters,
// scale-free threshold estimators, and the STFT/biquad front end.
package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Clamp01 clamps x to [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// L2Normalize returns a copy of v scaled to unit L2 norm. A zero vector is
// returned unchanged.
func L2Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum <= 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// CosineSimilarity returns the cosine similarity between a and b, 0 if
// either vector has zero magnitude. Result is in [-1, 1] for arbitrary
// vectors; chroma/MFCC vectors in this codebase are nonnegative so it's
// effectively [0, 1] there.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na <= 0 || nb <= 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MedianFilter applies a centered median filter of the given odd width to
// v, returning a new slice. Edges use a shrinking window.
func MedianFilter(v []float64, width int) []float64 {
	if width < 1 {
		width = 1
	}
	if width%2 == 0 {
		width++
	}
	half := width / 2
	out := make([]float64, len(v))
	buf := make([]float64, 0, width)
	for i := range v {
		buf = buf[:0]
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(v) {
			hi = len(v) - 1
		}
		for j := lo; j <= hi; j++ {
			buf = append(buf, v[j])
		}
		out[i] = median(buf)
	}
	return out
}

// MovingAverage applies a centered moving average of the given width to v.
func MovingAverage(v []float64, width int) []float64 {
	if width < 1 {
		width = 1
	}
	half := width / 2
	out := make([]float64, len(v))
	for i := range v {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(v) {
			hi = len(v) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += v[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	cp := append([]float64(nil), v...)
	sort.Float64s(cp)
	return stat.Quantile(0.5, stat.Empirical, cp, nil)
}

// MAD returns the median absolute deviation of v around its median.
func MAD(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := median(v)
	devs := make([]float64, len(v))
	for i, x := range v {
		devs[i] = math.Abs(x - m)
	}
	return median(devs)
}

// LocalMedianMAD computes the median and MAD of v over the window
// [i-radius, i+radius], clamped to the slice bounds.
func LocalMedianMAD(v []float64, i, radius int) (med, mad float64) {
	lo, hi := i-radius, i+radius
	if lo < 0 {
		lo = 0
	}
	if hi >= len(v) {
		hi = len(v) - 1
	}
	window := v[lo : hi+1]
	return median(window), MAD(window)
}

// Mean returns the arithmetic mean of v, 0 for an empty slice.
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Max returns the maximum value in v, 0 for an empty slice.
func Max(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
