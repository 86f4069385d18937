package architect

// rawSection is a contiguous span of reduced-resolution indices produced
// by snapping, before cluster assignment (spec.md §4.2.7).
type rawSection struct {
	Start, End int // reduced-resolution index range [Start, End)
	ClusterID  int
}

const crossBlockSubsampleStep = 4

// assignClusters builds sections from the snapped boundaries and assigns
// each one a cluster id: scanning forward from every unassigned section,
// any later section whose cross-block mean SSM similarity exceeds
// similarityThreshold — and whose union does not span a hard boundary —
// joins the same cluster (spec.md §4.2.7).
func assignClusters(S [][]float64, boundaries []int, hardBoundaries map[int]bool, similarityThreshold float64) []rawSection {
	if len(boundaries) < 2 {
		return nil
	}

	sections := make([]rawSection, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		sections = append(sections, rawSection{Start: boundaries[i], End: boundaries[i+1], ClusterID: -1})
	}

	nextCluster := 0
	for i := range sections {
		if sections[i].ClusterID != -1 {
			continue
		}
		sections[i].ClusterID = nextCluster
		for j := i + 1; j < len(sections); j++ {
			if sections[j].ClusterID != -1 {
				continue
			}
			if spansHardBoundary(sections[i].End, sections[j].Start, hardBoundaries) {
				continue
			}
			sim := crossBlockSimilarity(S, sections[i].Start, sections[i].End, sections[j].Start, sections[j].End, crossBlockSubsampleStep)
			if sim > similarityThreshold {
				sections[j].ClusterID = nextCluster
			}
		}
		nextCluster++
	}

	return sections
}

// spansHardBoundary reports whether any hard boundary lies strictly
// between end (exclusive) and start (exclusive of start) — i.e. whether
// unioning a section ending at `end` with one starting at `start` would
// cross a boundary that must never be merged across.
func spansHardBoundary(end, start int, hardBoundaries map[int]bool) bool {
	lo, hi := end, start
	if lo > hi {
		lo, hi = hi, lo
	}
	for hb := range hardBoundaries {
		if hb > lo && hb < hi {
			return true
		}
	}
	return false
}
