package theorist

import (
	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
)

var symmetricBarTargets = []float64{4, 8, 16}

// passSymmetry implements spec.md §4.3.2 Pass B: sections at or below the
// micro-merge bar threshold fold into whichever neighbor lands the
// combined duration on a "round" bar count ({4,8,16}); failing that, the
// neighbor with higher progression similarity, then higher chroma
// similarity.
func passSymmetry(sections []workingSection, frames *model.FrameSet, cfg config.Config) ([]workingSection, bool) {
	for i := range sections {
		if barCount(sections[i]) > float64(cfg.MicroMergeBar) {
			continue
		}

		left, right := -1, -1
		if i > 0 {
			left = i - 1
		}
		if i < len(sections)-1 {
			right = i + 1
		}
		if left == -1 && right == -1 {
			continue
		}

		target := pickSymmetryTarget(sections, i, left, right, frames, cfg)
		if target == -1 {
			continue
		}
		return mergeWorking(sections, i, target), true
	}
	return sections, false
}

func pickSymmetryTarget(sections []workingSection, i, left, right int, frames *model.FrameSet, cfg config.Config) int {
	leftRounds := left != -1 && isRoundBarCount(barCount(sections[i])+barCount(sections[left]))
	rightRounds := right != -1 && isRoundBarCount(barCount(sections[i])+barCount(sections[right]))

	switch {
	case leftRounds && !rightRounds:
		return left
	case rightRounds && !leftRounds:
		return right
	}

	if left != -1 && right != -1 {
		pl := ProgressionSimilarity(sections[i].roots, sections[left].roots, cfg.ProgressionSimilarityMode)
		pr := ProgressionSimilarity(sections[i].roots, sections[right].roots, cfg.ProgressionSimilarityMode)
		if pl != pr {
			if pl > pr {
				return left
			}
			return right
		}
		if chromaSimilarity(frames, sections[i], sections[left]) >= chromaSimilarity(frames, sections[i], sections[right]) {
			return left
		}
		return right
	}
	if left != -1 {
		return left
	}
	return right
}

func isRoundBarCount(bars float64) bool {
	for _, target := range symmetricBarTargets {
		diff := bars - target
		if diff < 0 {
			diff = -diff
		}
		if diff < 0.5 {
			return true
		}
	}
	return false
}
