package theorist

import (
	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/config"
)

// ProgressionSimilarity computes P(A,B) (spec.md §4.3.3): transposition-
// and alignment-tolerant agreement between two chord-root pitch-class
// sequences, selected by mode.
//
//   - Normalized: plain normalized Levenshtein only.
//   - RotationOnly: best score over all 12 transpositions of b.
//   - RotationSliding (default): the best of the rotation-tolerant and
//     sliding-window scores, covering both transposition and alignment
//     drift in one call.
func ProgressionSimilarity(a, b []int, mode config.ProgressionSimilarityMode) float64 {
	switch mode {
	case config.Normalized:
		return dsp.NormalizedLevenshteinSimilarity(a, b)
	case config.RotationOnly:
		return dsp.RotationTolerantSimilarity(a, b)
	default:
		rot := dsp.RotationTolerantSimilarity(a, b)
		slide := dsp.SlidingWindowSimilarity(a, b)
		if slide > rot {
			return slide
		}
		return rot
	}
}
