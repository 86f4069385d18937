package architect

import "github.com/beatlab/structuralmap/internal/dsp"

const (
	refineMinSectionSeconds   = 2.0
	refineSensitivityFactor   = 0.25
	refineAbsoluteFloor       = 0.08
	refineEnergyChangeFloor   = 0.3
	refineTimbreChangeFloor   = 0.2
	refineInteriorTrimPercent = 0.2
)

// refineHardBoundaries computes an MFCC self-distance curve
// `1 - cos(mu_i, mu_{i-1})` over the MFCC rows it is given (the Architect
// passes its reduced, beat-synchronous rows), searches the interior middle
// 60% of the one section [sectionStart, sectionEnd) for its peak, and
// reports a hard boundary there if it clears both a relative and an
// absolute floor and is corroborated by an energy or timbre change
// (spec.md §4.2.5). The returned index is in the same row space as mfcc.
func refineHardBoundaries(mfcc [][13]float64, rms []float64, frameHop, sensitivity, floor float64, sectionStart, sectionEnd int) (insertedFrame int, ok bool) {
	if sensitivity <= 0 {
		sensitivity = refineSensitivityFactor
	}
	if floor <= 0 {
		floor = refineAbsoluteFloor
	}

	duration := float64(sectionEnd-sectionStart) * frameHop
	if duration <= refineMinSectionSeconds {
		return 0, false
	}

	selfDistance := mfccSelfDistance(mfcc, sectionStart, sectionEnd)
	smoothed := dsp.MedianFilter(selfDistance, 5)

	span := sectionEnd - sectionStart
	trim := int(float64(span) * refineInteriorTrimPercent)
	lo, hi := trim, span-trim
	if hi <= lo {
		return 0, false
	}

	globalMax := dsp.Max(smoothed)
	if globalMax <= 0 {
		return 0, false
	}

	bestIdx := -1
	bestVal := 0.0
	for i := lo; i < hi; i++ {
		if smoothed[i] > bestVal {
			bestVal = smoothed[i]
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return 0, false
	}

	if bestVal <= sensitivity*globalMax || bestVal <= floor {
		return 0, false
	}

	energyChange := energyChangeAround(rms, sectionStart+bestIdx)
	timbreChange := bestVal // self-distance *is* the timbre-change signal
	if energyChange <= refineEnergyChangeFloor && timbreChange <= refineTimbreChangeFloor {
		return 0, false
	}

	return sectionStart + bestIdx, true
}

func mfccSelfDistance(mfcc [][13]float64, start, end int) []float64 {
	n := end - start
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := start + i
		if idx == 0 || idx >= len(mfcc) {
			continue
		}
		sim := dsp.CosineSimilarity(mfcc[idx][:], mfcc[idx-1][:])
		out[i] = 1 - sim
	}
	return out
}

func energyChangeAround(rms []float64, idx int) float64 {
	if idx <= 0 || idx >= len(rms) {
		return 0
	}
	return absFloat(rms[idx] - rms[idx-1])
}
