package dsp

import "math"

// BandPassFilter applies a Butterworth-Q (0.707) RBJ band-pass biquad
// centered between loHz and hiHz. Grounded on the bass-emphasis low-pass
// biquad in other_examples/54841d5a_gvasels-personal-music-searchengine's
// analyzer.go, generalized from a single low-pass to a band-pass via the
// standard RBJ cookbook band-pass (constant 0dB peak gain) coefficients.
func BandPassFilter(samples []float64, sampleRate int, loHz, hiHz float64) []float64 {
	centerHz := math.Sqrt(loHz * hiHz)
	bandwidth := hiHz - loHz
	if bandwidth <= 0 {
		bandwidth = centerHz * 0.5
	}

	w0 := 2.0 * math.Pi * centerHz / float64(sampleRate)
	q := centerHz / bandwidth
	alpha := math.Sin(w0) / (2.0 * q)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha

	b0 /= a0
	b1 /= a0
	b2 /= a0
	a1 /= a0
	a2 /= a0

	filtered := make([]float64, len(samples))
	x1, x2, y1, y2 := 0.0, 0.0, 0.0, 0.0
	for i, x := range samples {
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		filtered[i] = y
		x2, x1 = x1, x
		y2, y1 = y1, y
	}
	return filtered
}
