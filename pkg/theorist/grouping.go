package theorist

import "github.com/beatlab/structuralmap/pkg/config"

// passHarmonicRhythmGrouping implements spec.md §4.3.2 Pass C (and, when
// cfg.EnableAggressiveGrouping is set, Pass D at a lower threshold):
// adjacent sections whose progression similarity clears the threshold
// merge, and the survivor's label is tagged "<label>_group". Runs after
// semantic labeling (phases 1-4) so there is an actual label to tag —
// before labeling, "label" doesn't exist yet (see DESIGN.md).
func passHarmonicRhythmGrouping(sections []workingSection, cfg config.Config) ([]workingSection, bool) {
	if changed, ok := runGroupingPass(sections, cfg, 0.9); ok {
		return changed, true
	}
	if cfg.EnableAggressiveGrouping {
		threshold := cfg.AggressiveGroupingThreshold
		if threshold <= 0 {
			threshold = 0.6
		}
		if changed, ok := runGroupingPass(sections, cfg, threshold); ok {
			return changed, true
		}
	}
	return sections, false
}

func runGroupingPass(sections []workingSection, cfg config.Config, threshold float64) ([]workingSection, bool) {
	for i := 0; i < len(sections)-1; i++ {
		p := ProgressionSimilarity(sections[i].roots, sections[i+1].roots, cfg.ProgressionSimilarityMode)
		if p <= threshold {
			continue
		}
		label := sections[i].SectionLabel
		if label == "" {
			label = "section"
		}
		merged := mergeWorking(sections, i, i+1)
		merged[i].SectionLabel = label + "_group"
		return merged, true
	}
	return sections, false
}
