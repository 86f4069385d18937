package listener

import (
	"math"

	"github.com/beatlab/structuralmap/internal/dsp"
)

const (
	minTempoBPM = 60.0
	maxTempoBPM = 200.0
)

// onsetStrength computes a half-wave rectified spectral flux curve: the
// frame-to-frame increase in magnitude summed across bins. Grounded on
// cutlass/find_beats.go's calculateSpectralFlux, generalized from its
// fixed 20-band magnitude spectrum to the Listener's full STFT.
func onsetStrength(mags [][]float64) []float64 {
	n := len(mags)
	flux := make([]float64, n)
	if n == 0 {
		return flux
	}
	for t := 1; t < n; t++ {
		var sum float64
		prev, curr := mags[t-1], mags[t]
		bins := len(curr)
		if len(prev) < bins {
			bins = len(prev)
		}
		for b := 0; b < bins; b++ {
			diff := curr[b] - prev[b]
			if diff > 0 {
				sum += diff
			}
		}
		flux[t] = sum
	}
	flux[0] = flux[1]
	return flux
}

// estimateTempo finds the dominant periodicity of the onset curve via
// autocorrelation over the plausible tempo range, takes the lag with the
// highest normalized autocorrelation, and halves/doubles the resulting
// tempo into [minTempoBPM, maxTempoBPM] as needed.
func estimateTempo(onset []float64, frameHop float64) (bpm, confidence float64) {
	n := len(onset)
	if n < 4 || frameHop <= 0 {
		return 120, 0
	}

	maxLag := int(60.0/minTempoBPM/frameHop) + 1
	minLag := int(60.0 / maxTempoBPM / frameHop)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag <= minLag {
		return 120, 0
	}

	mean := dsp.Mean(onset)
	centered := make([]float64, n)
	for i, v := range onset {
		centered[i] = v - mean
	}

	autocorr := make([]float64, maxLag+1)
	var energy float64
	for i := range centered {
		energy += centered[i] * centered[i]
	}
	if energy <= 0 {
		return 120, 0
	}
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < n; i++ {
			sum += centered[i] * centered[i+lag]
		}
		autocorr[lag] = sum / energy
	}

	bestLag := minLag
	bestVal := autocorr[minLag]
	for lag := minLag + 1; lag <= maxLag; lag++ {
		if autocorr[lag] > bestVal {
			bestVal = autocorr[lag]
			bestLag = lag
		}
	}

	bpm = 60.0 / (float64(bestLag) * frameHop)
	for bpm > maxTempoBPM {
		bpm /= 2
	}
	for bpm < minTempoBPM {
		bpm *= 2
	}

	confidence = dsp.Clamp01(bestVal)
	return bpm, confidence
}

// placeBeats runs dynamic-programming beat tracking (Ellis 2007) against
// the onset curve: a cumulative score balances local onset strength against
// a penalty for deviating from the estimated tempo period, then a
// backtrace recovers the optimal beat sequence.
func placeBeats(onset []float64, frameHop, bpm float64) (times, strengths []float64) {
	n := len(onset)
	if n == 0 || bpm <= 0 {
		return nil, nil
	}
	period := 60.0 / bpm / frameHop // frames per beat

	cumScore := make([]float64, n)
	backlink := make([]int, n)
	for i := range backlink {
		backlink[i] = -1
	}
	copy(cumScore, onset)

	searchRadius := int(period) + 1
	const tightness = 100.0

	for i := 0; i < n; i++ {
		bestScore := math.Inf(-1)
		bestLink := -1
		for delta := -2 * searchRadius; delta <= -searchRadius/2; delta++ {
			j := i + delta
			if j < 0 || j >= i {
				continue
			}
			dt := float64(i-j) - period
			penalty := tightness * dt * dt / (period * period)
			score := cumScore[j] - penalty
			if score > bestScore {
				bestScore = score
				bestLink = j
			}
		}
		if bestLink >= 0 {
			cumScore[i] = onset[i] + bestScore
			backlink[i] = bestLink
		}
	}

	// Start backtrace from the strongest recent cumulative score.
	best := 0
	for i := 1; i < n; i++ {
		if cumScore[i] > cumScore[best] {
			best = i
		}
	}

	var frames []int
	for i := best; i >= 0; i = backlink[i] {
		frames = append(frames, i)
		if backlink[i] < 0 {
			break
		}
	}
	// Reverse into chronological order.
	for l, r := 0, len(frames)-1; l < r; l, r = l+1, r-1 {
		frames[l], frames[r] = frames[r], frames[l]
	}

	times = make([]float64, len(frames))
	strengths = make([]float64, len(frames))
	for k, f := range frames {
		times[k] = float64(f) * frameHop
		strengths[k] = dsp.Clamp01(onset[f] / (dsp.Max(onset) + 1e-9))
	}
	return times, strengths
}
