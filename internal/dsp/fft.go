package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFTConfig describes parameters for a short-time Fourier transform.
type STFTConfig struct {
	FFTSize    int // FFT window size (e.g., 1024, 2048, 4096)
	HopSize    int // hop between frames, in samples
	WindowSize int // analysis window size, usually equal to FFTSize
}

// STFT computes a magnitude spectrogram. Returns [frames][bins], where
// bins = FFTSize/2 + 1 (the one-sided spectrum).
//
// Ported from the teacher's analyzer/stft.go, generalized to an arbitrary
// hop size instead of the teacher's fixed 10ms beat-detector hop.
func STFT(samples []float64, cfg STFTConfig) [][]float64 {
	window := HannWindow(cfg.WindowSize)
	fft := fourier.NewFFT(cfg.FFTSize)

	numFrames := (len(samples) - cfg.WindowSize) / cfg.HopSize
	if numFrames <= 0 {
		return nil
	}

	numBins := cfg.FFTSize/2 + 1
	result := make([][]float64, numFrames)
	frame := make([]float64, cfg.FFTSize)

	for i := 0; i < numFrames; i++ {
		start := i * cfg.HopSize

		for j := range frame {
			frame[j] = 0
		}
		for j := 0; j < cfg.WindowSize && start+j < len(samples); j++ {
			frame[j] = samples[start+j] * window[j]
		}

		coeffs := fft.Coefficients(nil, frame)

		scale := 2.0 / float64(cfg.FFTSize)
		result[i] = make([]float64, numBins)
		for j := 0; j < numBins; j++ {
			re := real(coeffs[j])
			im := imag(coeffs[j])
			s := scale
			if j == 0 || j == numBins-1 {
				s = 1.0 / float64(cfg.FFTSize)
			}
			result[i][j] = math.Sqrt(re*re+im*im) * s
		}
	}

	return result
}

// HannWindow generates a Hann window of the given size.
func HannWindow(size int) []float64 {
	w := make([]float64, size)
	if size <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// DominantFrequency returns the frequency in Hz with the largest magnitude
// in a single FFT frame's magnitude spectrum, given the sample rate and FFT
// size used to produce it.
func DominantFrequency(magnitudes []float64, sampleRate, fftSize int) float64 {
	if len(magnitudes) == 0 {
		return 0
	}
	bestBin := 0
	bestMag := magnitudes[0]
	for i, m := range magnitudes[1:] {
		if m > bestMag {
			bestMag = m
			bestBin = i + 1
		}
	}
	return float64(bestBin) * float64(sampleRate) / float64(fftSize)
}

// SingleFrameFFT computes the one-sided magnitude spectrum of one
// Hann-windowed frame (zero-padded/truncated to fftSize).
func SingleFrameFFT(samples []float64, fftSize int) []float64 {
	frame := make([]float64, fftSize)
	window := HannWindow(minInt(len(samples), fftSize))
	n := copy(frame, samples)
	for i := 0; i < n && i < len(window); i++ {
		frame[i] *= window[i]
	}

	fft := fourier.NewFFT(fftSize)
	coeffs := fft.Coefficients(nil, frame)

	numBins := fftSize/2 + 1
	out := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		re := real(coeffs[i])
		im := imag(coeffs[i])
		out[i] = math.Sqrt(re*re + im*im)
	}
	return out
}
