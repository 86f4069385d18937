package listener

import "github.com/beatlab/structuralmap/internal/dsp"

// hpssSeparate splits a magnitude spectrogram into harmonic and percussive
// components via median filtering (Fitzgerald 2010): harmonic content is
// smooth across time at a fixed frequency (horizontal median), percussive
// content is smooth across frequency at a fixed time (vertical median).
// This is the standard real technique behind spec.md §4.1's HPSS
// black-box contract; no example repo in the pack implements HPSS, so this
// is not grounded on a specific file.
func hpssSeparate(mags [][]float64, timeWidth, freqWidth int) (harmonic, percussive [][]float64) {
	numFrames := len(mags)
	if numFrames == 0 {
		return nil, nil
	}
	numBins := len(mags[0])

	harmonic = make([][]float64, numFrames)
	percussive = make([][]float64, numFrames)
	for i := range harmonic {
		harmonic[i] = make([]float64, numBins)
		percussive[i] = make([]float64, numBins)
	}

	// Horizontal median (across time, per bin) -> harmonic estimate.
	col := make([]float64, numFrames)
	for b := 0; b < numBins; b++ {
		for t := 0; t < numFrames; t++ {
			col[t] = mags[t][b]
		}
		filtered := dsp.MedianFilter(col, timeWidth)
		for t := 0; t < numFrames; t++ {
			harmonic[t][b] = filtered[t]
		}
	}

	// Vertical median (across frequency, per frame) -> percussive estimate.
	for t := 0; t < numFrames; t++ {
		percussive[t] = dsp.MedianFilter(mags[t], freqWidth)
	}

	// Wiener-style soft mask so harmonic+percussive are consistent with the
	// original magnitude rather than double-counting energy.
	for t := 0; t < numFrames; t++ {
		for b := 0; b < numBins; b++ {
			h, p := harmonic[t][b], percussive[t][b]
			total := h + p
			if total <= 0 {
				harmonic[t][b] = 0
				percussive[t][b] = 0
				continue
			}
			orig := mags[t][b]
			harmonic[t][b] = orig * (h / total)
			percussive[t][b] = orig * (p / total)
		}
	}

	return harmonic, percussive
}
