package architect

import "github.com/beatlab/structuralmap/internal/dsp"

const (
	longSectionSeconds   = 30.0
	mediumSectionSeconds = 8.0
)

// mergeMicroSegments folds any section shorter than microSegmentSec into
// whichever neighbor has higher MFCC similarity (spec.md §4.2.8 pass 1).
// Hard boundaries are never crossed; merging stops once minSectionsStop is
// reached.
func mergeMicroSegments(sections []rawSection, r reducedSignal, cache *meanCache, frameHop, microSegmentSec float64, hardBoundaries map[int]bool, minSectionsStop int) []rawSection {
	changed := true
	for changed && len(sections) > minSectionsStop {
		changed = false
		for i := 0; i < len(sections); i++ {
			if sectionDurationSeconds(r, frameHop, sections[i].Start, sections[i].End) >= microSegmentSec {
				continue
			}
			neighbor := betterMFCCNeighbor(sections, r, cache, i, hardBoundaries)
			if neighbor == -1 {
				continue
			}
			sections = mergeAt(sections, i, neighbor)
			changed = true
			break
		}
	}
	return sections
}

func betterMFCCNeighbor(sections []rawSection, r reducedSignal, cache *meanCache, i int, hardBoundaries map[int]bool) int {
	leftOK := i > 0 && !spansHardBoundary(sections[i-1].End, sections[i].Start, hardBoundaries)
	rightOK := i < len(sections)-1 && !spansHardBoundary(sections[i].End, sections[i+1].Start, hardBoundaries)

	if !leftOK && !rightOK {
		return -1
	}

	mu := cache.cachedMeanMFCC(r, sections[i].Start, sections[i].End)
	if leftOK && !rightOK {
		return i - 1
	}
	if rightOK && !leftOK {
		return i + 1
	}

	leftSim := dsp.CosineSimilarity(mu[:], cache.cachedMeanMFCC(r, sections[i-1].Start, sections[i-1].End)[:])
	rightSim := dsp.CosineSimilarity(mu[:], cache.cachedMeanMFCC(r, sections[i+1].Start, sections[i+1].End)[:])
	if leftSim >= rightSim {
		return i - 1
	}
	return i + 1
}

// mergeSimilarSections repeatedly merges adjacent sections whose chroma/
// MFCC similarity clears the length-class thresholds of spec.md §4.2.8
// pass 2, until no pair qualifies or minSectionsStop is reached.
func mergeSimilarSections(sections []rawSection, r reducedSignal, cache *meanCache, frameHop float64, cfg mergeThresholds, hardBoundaries map[int]bool, minSectionsStop int) []rawSection {
	changed := true
	for changed && len(sections) > minSectionsStop {
		changed = false
		for i := 0; i < len(sections)-1; i++ {
			if spansHardBoundary(sections[i].End, sections[i+1].Start, hardBoundaries) {
				continue
			}
			if !qualifiesForMerge(sections[i], sections[i+1], r, cache, frameHop, cfg) {
				continue
			}
			sections = mergeAt(sections, i, i+1)
			changed = true
			break
		}
	}
	return sections
}

type mergeThresholds struct {
	ExactChroma, ExactMFCC float64
	LongChroma, LongMFCC   float64
}

func qualifiesForMerge(a, b rawSection, r reducedSignal, cache *meanCache, frameHop float64, cfg mergeThresholds) bool {
	durA := sectionDurationSeconds(r, frameHop, a.Start, a.End)
	durB := sectionDurationSeconds(r, frameHop, b.Start, b.End)

	sc := dsp.CosineSimilarity(cache.cachedMeanChroma(r, a.Start, a.End)[:], cache.cachedMeanChroma(r, b.Start, b.End)[:])
	sm := dsp.CosineSimilarity(cache.cachedMeanMFCC(r, a.Start, a.End)[:], cache.cachedMeanMFCC(r, b.Start, b.End)[:])

	long := durA > longSectionSeconds || durB > longSectionSeconds
	medium := durA > mediumSectionSeconds && durB > mediumSectionSeconds

	switch {
	case long:
		return sc > cfg.LongChroma && sm > cfg.LongMFCC
	case medium:
		return sc > cfg.ExactChroma && sm > cfg.ExactMFCC
	default:
		return sc > cfg.ExactChroma || (sc > 0.85 && sm > cfg.ExactMFCC)
	}
}

// mergeAcousticClusters merges adjacent sections that were assigned the
// same acoustic cluster with a small energy difference (spec.md §4.2.8
// pass 3 — "semantic merging"; at the Architect stage no semantic label
// exists yet, so cluster identity stands in for "label equality").
func mergeAcousticClusters(sections []rawSection, r reducedSignal, hardBoundaries map[int]bool, minSectionsStop int) []rawSection {
	changed := true
	for changed && len(sections) > minSectionsStop {
		changed = false
		for i := 0; i < len(sections)-1; i++ {
			if spansHardBoundary(sections[i].End, sections[i+1].Start, hardBoundaries) {
				continue
			}
			if sections[i].ClusterID != sections[i+1].ClusterID {
				continue
			}
			eA := meanRMS(r, sections[i].Start, sections[i].End)
			eB := meanRMS(r, sections[i+1].Start, sections[i+1].End)
			if absFloat(eA-eB) >= 0.15 {
				continue
			}
			sections = mergeAt(sections, i, i+1)
			changed = true
			break
		}
	}
	return sections
}

func mergeAt(sections []rawSection, i, j int) []rawSection {
	if j < i {
		i, j = j, i
	}
	merged := rawSection{Start: sections[i].Start, End: sections[j].End, ClusterID: sections[i].ClusterID}
	out := make([]rawSection, 0, len(sections)-1)
	out = append(out, sections[:i]...)
	out = append(out, merged)
	out = append(out, sections[j+1:]...)
	return out
}

func sectionDurationSeconds(r reducedSignal, frameHop float64, start, end int) float64 {
	if start < 0 || end > len(r.BeatStartFrame) || end <= start {
		return 0
	}
	frames := r.BeatEndFrame[end-1] - r.BeatStartFrame[start]
	return float64(frames) * frameHop
}

func meanChroma(r reducedSignal, start, end int) [12]float64 {
	var out [12]float64
	count := 0
	for i := start; i < end && i < len(r.Chroma); i++ {
		for pc := 0; pc < 12; pc++ {
			out[pc] += r.Chroma[i][pc]
		}
		count++
	}
	if count == 0 {
		return out
	}
	for pc := 0; pc < 12; pc++ {
		out[pc] /= float64(count)
	}
	return out
}

func meanMFCC(r reducedSignal, start, end int) [13]float64 {
	var out [13]float64
	count := 0
	for i := start; i < end && i < len(r.MFCC); i++ {
		for c := 0; c < 13; c++ {
			out[c] += r.MFCC[i][c]
		}
		count++
	}
	if count == 0 {
		return out
	}
	for c := 0; c < 13; c++ {
		out[c] /= float64(count)
	}
	return out
}

func meanRMS(r reducedSignal, start, end int) float64 {
	var sum float64
	count := 0
	for i := start; i < end && i < len(r.RMS); i++ {
		sum += r.RMS[i]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
