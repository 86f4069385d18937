package listener

import "github.com/beatlab/structuralmap/internal/dsp"

const (
	bassLoHz = 40.0
	bassHiHz = 200.0
)

// bassPitchClass band-pass filters the source to the bass register, takes
// the dominant frequency of one FFT frame, and maps it to a pitch class.
// Grounded on internal/dsp.BandPassFilter (itself generalized from
// gvasels-personal-music-searchengine's bassEmphasisFilter) and
// internal/dsp.FrequencyToPitchClass.
func bassPitchClass(samples []float64, sampleRate int) int {
	filtered := dsp.BandPassFilter(samples, sampleRate, bassLoHz, bassHiHz)
	fftSize := 4096
	if fftSize > len(filtered) {
		fftSize = len(filtered)
	}
	if fftSize < 2 {
		return 0
	}
	mags := dsp.SingleFrameFFT(filtered[:fftSize], fftSize)
	dominant := dsp.DominantFrequency(mags, sampleRate, fftSize)
	if dominant <= 0 {
		return 0
	}
	return dsp.FrequencyToPitchClass(dominant)
}

// chordInversionFromBass compares the detected bass pitch class against the
// chord's root and other chord tones: if the bass sits on a non-root chord
// tone, the chord is inverted at that scale-degree index (1 = first
// inversion, 2 = second, ...); otherwise root position (0).
func chordInversionFromBass(bassPC, rootPC int, chordIntervals []int) int {
	for i, interval := range chordIntervals {
		if i == 0 {
			continue // root itself
		}
		if (rootPC+interval)%12 == bassPC {
			return i
		}
	}
	return 0
}
