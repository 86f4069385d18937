package architect

import (
	"sort"

	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/model"
)

const (
	localMedianRadiusFrames = 10 // ~10s window at 1 reduced-frame/s, see pickPeaks
	maxAcceptablePeaks      = 30
)

// pickPeaks implements spec.md §4.2.4's adaptive peak picking: a local
// maximum is accepted iff it exceeds `median + k·MAD` over a ~10s
// symmetric window, with a minimum peak distance, and retries with a
// looser (k=0.8) or tighter (k=3.0) sensitivity if too few or too many
// peaks survive.
func pickPeaks(curve []float64, reducedFrameSeconds float64, sensitivity float64, minSectionSec float64, forceOverSeg bool) (peaks []model.Peak, threshold []float64) {
	n := len(curve)
	if n == 0 {
		return nil, nil
	}

	if forceOverSeg {
		return forcedUniformPeaks(curve, n), make([]float64, n)
	}

	radius := localMedianRadiusFrames
	if reducedFrameSeconds > 0 {
		radius = int(10.0 / reducedFrameSeconds)
		if radius < 1 {
			radius = 1
		}
	}
	minDistance := int(minSectionSec / maxFloat(reducedFrameSeconds, 1e-9))
	if minDistance < 1 {
		minDistance = 1
	}

	peaks, threshold = adaptivePeaks(curve, radius, sensitivity, minDistance)

	if len(peaks) < 2 {
		peaks, threshold = adaptivePeaks(curve, radius, 0.8, minDistance)
	} else if len(peaks) > maxAcceptablePeaks {
		peaks, threshold = adaptivePeaks(curve, radius, 3.0, minDistance)
	}

	return peaks, threshold
}

func adaptivePeaks(curve []float64, radius int, k float64, minDistance int) ([]model.Peak, []float64) {
	n := len(curve)
	threshold := make([]float64, n)
	var candidates []model.Peak

	for i := 0; i < n; i++ {
		med, mad := dsp.LocalMedianMAD(curve, i, radius)
		thresh := med + k*mad
		threshold[i] = thresh

		if i == 0 || i == n-1 {
			continue
		}
		if curve[i] > curve[i-1] && curve[i] >= curve[i+1] && curve[i] > thresh {
			candidates = append(candidates, model.Peak{Frame: i, Strength: curve[i]})
		}
	}

	return enforceMinDistance(candidates, minDistance), threshold
}

// enforceMinDistance keeps the strongest peak among any cluster closer
// together than minDistance.
func enforceMinDistance(candidates []model.Peak, minDistance int) []model.Peak {
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Frame < candidates[j].Frame })

	var kept []model.Peak
	for _, c := range candidates {
		if len(kept) > 0 && c.Frame-kept[len(kept)-1].Frame < minDistance {
			if c.Strength > kept[len(kept)-1].Strength {
				kept[len(kept)-1] = c
			}
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func forcedUniformPeaks(curve []float64, n int) []model.Peak {
	const targetCount = 40
	step := n / targetCount
	if step < 1 {
		step = 1
	}
	var peaks []model.Peak
	for i := step; i < n; i += step {
		peaks = append(peaks, model.Peak{Frame: i, Strength: curve[i]})
	}
	return peaks
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
