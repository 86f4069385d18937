package listener

import "math"

const (
	melBands   = 26
	mfccCoeffs = 13
)

// mfccSequence computes 13-coefficient MFCCs per frame (spec.md §4.1) via a
// mel filterbank + DCT-II, the standard construction; no example repo in
// the pack implements MFCC, so this is built directly from the published
// algorithm rather than grounded on a specific file.
func mfccSequence(mags [][]float64, spec spectrogram) [][13]float64 {
	filterbank := melFilterbank(spec.FFTSize/2+1, spec.SampleRate, melBands)

	out := make([][13]float64, len(mags))
	for i, frame := range mags {
		melEnergies := applyFilterbank(frame, filterbank)
		out[i] = dctMFCC(melEnergies)
	}
	return out
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank returns numBands triangular filters over numBins FFT bins.
func melFilterbank(numBins, sampleRate, numBands int) [][]float64 {
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(sampleRate) / 2)

	points := make([]float64, numBands+2)
	for i := range points {
		mel := lowMel + (highMel-lowMel)*float64(i)/float64(numBands+1)
		points[i] = melToHz(mel)
	}

	binPoints := make([]int, len(points))
	for i, hz := range points {
		bin := int(math.Round(hz / (float64(sampleRate) / 2) * float64(numBins-1)))
		if bin < 0 {
			bin = 0
		}
		if bin >= numBins {
			bin = numBins - 1
		}
		binPoints[i] = bin
	}

	filters := make([][]float64, numBands)
	for m := 0; m < numBands; m++ {
		filters[m] = make([]float64, numBins)
		left, center, right := binPoints[m], binPoints[m+1], binPoints[m+2]
		for b := left; b < center; b++ {
			if center > left {
				filters[m][b] = float64(b-left) / float64(center-left)
			}
		}
		for b := center; b < right; b++ {
			if right > center {
				filters[m][b] = float64(right-b) / float64(right-center)
			}
		}
	}
	return filters
}

func applyFilterbank(mags []float64, filterbank [][]float64) []float64 {
	out := make([]float64, len(filterbank))
	for m, filt := range filterbank {
		sum := 0.0
		n := len(mags)
		if len(filt) < n {
			n = len(filt)
		}
		for b := 0; b < n; b++ {
			sum += mags[b] * filt[b]
		}
		if sum < 1e-10 {
			sum = 1e-10
		}
		out[m] = math.Log(sum)
	}
	return out
}

// dctMFCC applies a type-II DCT to log mel energies and returns the first
// mfccCoeffs coefficients.
func dctMFCC(logMelEnergies []float64) [13]float64 {
	n := len(logMelEnergies)
	var out [13]float64
	for k := 0; k < mfccCoeffs; k++ {
		sum := 0.0
		for i, e := range logMelEnergies {
			sum += e * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		out[k] = sum
	}
	return out
}
