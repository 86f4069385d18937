package listener

import "github.com/beatlab/structuralmap/internal/dsp"

// candidateTimeSignatures are the meters spec.md §4.1 requires distinguishing.
var candidateTimeSignatures = []struct {
	num, den int
	period   int // beats per bar
}{
	{4, 4, 4},
	{3, 4, 3},
	{6, 8, 6},
	{2, 4, 2},
}

// estimateTimeSignature autocorrelates the beat-strength sequence over
// candidate bar periods {4/4, 3/4, 6/8, 2/4} and picks the best-correlated
// period, falling back to 4/4 when beats are too few or too uniform to
// decide (spec.md §4.1: "fallback 4/4").
func estimateTimeSignature(beatStrengths []float64) (num, den int, confidence float64) {
	n := len(beatStrengths)
	if n < 8 {
		return 4, 4, 0
	}

	mean := dsp.Mean(beatStrengths)
	centered := make([]float64, n)
	var energy float64
	for i, v := range beatStrengths {
		centered[i] = v - mean
		energy += centered[i] * centered[i]
	}
	if energy <= 0 {
		return 4, 4, 0
	}

	bestIdx := 0
	bestScore := -1.0
	for idx, cand := range candidateTimeSignatures {
		period := cand.period
		if period >= n {
			continue
		}
		var sum float64
		for i := 0; i+period < n; i++ {
			sum += centered[i] * centered[i+period]
		}
		score := sum / energy
		if score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}

	if bestScore <= 0 {
		return 4, 4, 0
	}
	best := candidateTimeSignatures[bestIdx]
	return best.num, best.den, dsp.Clamp01(bestScore)
}
