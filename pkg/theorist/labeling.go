package theorist

import (
	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
)

// runLabeling implements spec.md §4.3.4's four phases: multi-factor
// similarity clustering, rule-based labels with confidence, variant
// numbering, and validation/repair.
func runLabeling(sections []workingSection, frames *model.FrameSet, cfg config.Config) []workingSection {
	clusterID := assignLabelClusters(sections, frames, cfg)
	features := computeSectionFeatures(sections, frames, clusterID)

	applyRuleBasedLabels(sections, features, clusterID)
	assignVariants(sections, cfg)
	validateAndRepair(sections, clusterID)
	applySemanticSignature(sections, features)

	return sections
}

// applySemanticSignature copies the Phase 1/2 feature computation back onto
// each section's output-facing SemanticSignature fields.
func applySemanticSignature(sections []workingSection, features []sectionFeatures) {
	for i := range sections {
		f := features[i]
		sections[i].SemanticSignature.VocalRatio = f.vocalRatio
		sections[i].SemanticSignature.HarmonicStability = f.harmonicStability
		sections[i].SemanticSignature.PositionRatio = f.positionRatio
		if f.repetitionCount > 0 {
			sections[i].SemanticSignature.RepetitionScore = clampFloat(float64(f.repetitionCount)/4, 0, 1)
		}
	}
}

// --- Phase 1: multi-factor similarity clustering ---

func assignLabelClusters(sections []workingSection, frames *model.FrameSet, cfg config.Config) []int {
	n := len(sections)
	clusterID := make([]int, n)
	for i := range clusterID {
		clusterID[i] = -1
	}

	next := 0
	for i := 0; i < n; i++ {
		if clusterID[i] != -1 {
			continue
		}
		clusterID[i] = next
		for j := i + 1; j < n; j++ {
			if clusterID[j] != -1 {
				continue
			}
			sim := multiFactorSimilarity(frames, sections[i], sections[j], cfg)
			threshold := dynamicThreshold(sections[i], sections[j], j == i+1)
			if sim >= threshold {
				clusterID[j] = next
			}
		}
		next++
	}
	return clusterID
}

// multiFactorSimilarity computes S(A,B) from spec.md §4.3.4 Phase 1.
func multiFactorSimilarity(frames *model.FrameSet, a, b workingSection, cfg config.Config) float64 {
	chroma := dsp.Clamp01(chromaSimilarity(frames, a, b))
	mfcc := dsp.Clamp01(mfccSimilarity(frames, a, b))
	energy := 1 - absFloat(a.SemanticSignature.AvgRMS-b.SemanticSignature.AvgRMS)
	rhythm := dsp.Clamp01(rhythmSimilarity(frames, a, b))
	progression := ProgressionSimilarity(a.roots, b.roots, cfg.ProgressionSimilarityMode)

	return 0.35*chroma + 0.15*mfcc + 0.20*energy + 0.15*rhythm + 0.15*progression
}

func dynamicThreshold(a, b workingSection, adjacent bool) float64 {
	threshold := 0.65
	if a.SemanticSignature.DurationSeconds < 3 || b.SemanticSignature.DurationSeconds < 3 {
		threshold -= 0.10
	}
	if adjacent {
		threshold -= 0.05
	}
	return threshold
}

// rhythmSimilarity compares resampled per-section RMS envelopes as a proxy
// for "kick/snare pattern agreement" — there is no drum-transcription
// module in this pipeline, so the closest available beat-aligned energy
// signal stands in (see DESIGN.md).
func rhythmSimilarity(frames *model.FrameSet, a, b workingSection) float64 {
	const bins = 16
	pa := resampleToBins(sliceRange(frames.RMS, a.StartFrame, a.EndFrame), bins)
	pb := resampleToBins(sliceRange(frames.RMS, b.StartFrame, b.EndFrame), bins)
	return dsp.CosineSimilarity(pa, pb)
}

func sliceRange(v []float64, start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(v) {
		end = len(v)
	}
	if end <= start {
		return nil
	}
	return v[start:end]
}

func resampleToBins(values []float64, bins int) []float64 {
	out := make([]float64, bins)
	if len(values) == 0 {
		return out
	}
	for i := 0; i < bins; i++ {
		start := i * len(values) / bins
		end := (i + 1) * len(values) / bins
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		count := 0
		for j := start; j < end; j++ {
			sum += values[j]
			count++
		}
		if count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// --- feature computation feeding Phase 2's rule table ---

type sectionFeatures struct {
	vocalRatio        float64
	harmonicStability float64
	positionRatio     float64
	repetitionCount   int // cluster size - 1
}

func computeSectionFeatures(sections []workingSection, frames *model.FrameSet, clusterID []int) []sectionFeatures {
	counts := make(map[int]int)
	for _, c := range clusterID {
		counts[c]++
	}

	totalDuration := 0.0
	if len(sections) > 0 {
		totalDuration = sections[len(sections)-1].TimeRange.EndTime
	}

	out := make([]sectionFeatures, len(sections))
	for i, ws := range sections {
		position := 0.0
		if totalDuration > 0 {
			position = ws.TimeRange.StartTime / totalDuration
		}
		out[i] = sectionFeatures{
			vocalRatio:        meanOfRange(frames.HarmonicRatio, ws.StartFrame, ws.EndFrame),
			harmonicStability: harmonicStability(frames, ws.StartFrame, ws.EndFrame),
			positionRatio:     position,
			repetitionCount:   counts[clusterID[i]] - 1,
		}
	}
	return out
}

func meanOfRange(v []float64, start, end int) float64 {
	s := sliceRange(v, start, end)
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, x := range s {
		sum += x
	}
	return sum / float64(len(s))
}

// harmonicStability averages frame-to-frame chroma cosine similarity over
// a section, a proxy for "does the harmony hold steady here."
func harmonicStability(frames *model.FrameSet, start, end int) float64 {
	if end-start < 2 || start < 0 {
		return 1
	}
	if end > len(frames.Chroma) {
		end = len(frames.Chroma)
	}
	var sum float64
	count := 0
	for i := start + 1; i < end; i++ {
		sum += dsp.CosineSimilarity(frames.Chroma[i][:], frames.Chroma[i-1][:])
		count++
	}
	if count == 0 {
		return 1
	}
	return sum / float64(count)
}

// --- Phase 2: rule-based labels ---

const (
	minDurationSeconds       = 3.0
	introLikeDurationSeconds = 15.0
	outroLikeDurationSeconds = 20.0
	chorusMinDurationSeconds = 20.0
)

func applyRuleBasedLabels(sections []workingSection, features []sectionFeatures, clusterID []int) {
	n := len(sections)

	// Intro/outro/chorus are self-contained: they don't need any other
	// section's label resolved first.
	for i := range sections {
		f := features[i]
		switch {
		case i == 0 && (sections[i].SemanticSignature.AvgRMS < 0.35 || sections[i].SemanticSignature.DurationSeconds < introLikeDurationSeconds || f.vocalRatio < 0.2):
			label(sections, i, "intro", 0.90, "first section, low energy/short/instrumental")
		case i == n-1 && (sections[i].SemanticSignature.DurationSeconds > outroLikeDurationSeconds || isFadingEnergy(sections, i)):
			label(sections, i, "outro", 0.85, "last section, extended or fading")
		case f.repetitionCount >= 1 && sections[i].SemanticSignature.AvgRMS > 0.7 && f.vocalRatio > 0.6 && sections[i].SemanticSignature.DurationSeconds > chorusMinDurationSeconds:
			conf := 0.60 + 0.05*clampFloat(float64(f.repetitionCount), 0, 4)
			label(sections, i, "chorus", clampFloat(conf, 0, 0.95), "repeated, high energy, vocal, long enough")
		}
	}

	// Verse: precedes a chorus (chorus is already resolved above).
	for i := range sections {
		if sections[i].SectionLabel != "" {
			continue
		}
		f := features[i]
		if i+1 < n && sections[i+1].SectionLabel == "chorus" && f.vocalRatio > 0.5 &&
			sections[i].SemanticSignature.AvgRMS >= 0.4 && sections[i].SemanticSignature.AvgRMS <= 0.8 {
			label(sections, i, "verse", 0.75, "precedes a chorus, vocal, mid energy")
		}
	}

	// Bridge: singleton cluster, mid-late position, after the first chorus.
	firstChorus := indexOfFirstLabel(sections, "chorus")
	for i := range sections {
		if sections[i].SectionLabel != "" {
			continue
		}
		f := features[i]
		if f.repetitionCount == 0 && f.positionRatio >= 0.4 && f.positionRatio <= 0.85 && firstChorus != -1 && i > firstChorus {
			label(sections, i, "bridge", 0.70, "unique section, late position, after first chorus")
		}
	}

	// Pre-chorus: short, sandwiched between a verse and a chorus.
	for i := range sections {
		if sections[i].SectionLabel != "" {
			continue
		}
		if sections[i].SemanticSignature.DurationSeconds < minDurationSeconds &&
			i > 0 && i+1 < n && sections[i-1].SectionLabel == "verse" && sections[i+1].SectionLabel == "chorus" {
			label(sections, i, "pre-chorus", 0.80, "short, between verse and chorus")
		}
	}

	// Solo/instrumental: mostly non-vocal, mid-song position.
	for i := range sections {
		if sections[i].SectionLabel != "" {
			continue
		}
		f := features[i]
		if f.vocalRatio < 0.2 && f.positionRatio >= 0.3 && f.positionRatio <= 0.8 {
			label(sections, i, "solo/instrumental", 0.65, "instrumental, mid-song position")
		}
	}

	// Default fallback.
	for i := range sections {
		if sections[i].SectionLabel != "" {
			continue
		}
		if features[i].vocalRatio >= 0.3 {
			label(sections, i, "verse", 0.50, "default: has vocal content")
		} else {
			label(sections, i, "section", 0.50, "default: no rule matched")
		}
	}
}

func label(sections []workingSection, i int, name string, confidence float64, reason string) {
	sections[i].SectionLabel = name
	sections[i].LabelConfidence = confidence
	sections[i].LabelReason = reason
}

func isFadingEnergy(sections []workingSection, i int) bool {
	if i == 0 {
		return false
	}
	return sections[i].SemanticSignature.AvgRMS < sections[i-1].SemanticSignature.AvgRMS*0.7
}

func indexOfFirstLabel(sections []workingSection, name string) int {
	for i, s := range sections {
		if s.SectionLabel == name {
			return i
		}
	}
	return -1
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// --- Phase 3: variant numbering ---

func assignVariants(sections []workingSection, cfg config.Config) {
	type group struct {
		firstIdx int
		members  []int
	}
	groups := make(map[string]*group)
	order := make([]string, 0)

	for i, ws := range sections {
		lbl := ws.SectionLabel
		g, ok := groups[lbl]
		if !ok {
			g = &group{firstIdx: i}
			groups[lbl] = g
			order = append(order, lbl)
		}
		g.members = append(g.members, i)
	}

	for _, lbl := range order {
		g := groups[lbl]
		lastChorusIdx := -1
		bestEnergy := -1.0
		if lbl == "chorus" {
			for _, idx := range g.members {
				if sections[idx].SemanticSignature.AvgRMS > bestEnergy {
					bestEnergy = sections[idx].SemanticSignature.AvgRMS
				}
			}
			lastChorusIdx = g.members[len(g.members)-1]
		}

		for n, idx := range g.members {
			sections[idx].SectionVariant = n + 1
			if n == 0 {
				continue
			}
			p := ProgressionSimilarity(sections[idx].roots, sections[g.firstIdx].roots, cfg.ProgressionSimilarityMode)
			if p < 0.7 {
				sections[idx].LabelReason = appendReason(sections[idx].LabelReason, "alt")
			}
			if idx == lastChorusIdx {
				sections[idx].LabelReason = appendReason(sections[idx].LabelReason, "finale")
			}
		}
	}
}

func appendReason(reason, tag string) string {
	if reason == "" {
		return tag
	}
	return reason + "; " + tag
}

// --- Phase 4: validation/repair ---

func validateAndRepair(sections []workingSection, clusterID []int) {
	counts := make(map[int]int)
	for _, c := range clusterID {
		counts[c]++
	}

	// Promote a 3x+ repeated cluster that never got a chorus label.
	hasChorus := make(map[int]bool)
	for i, s := range sections {
		if s.SectionLabel == "chorus" {
			hasChorus[clusterID[i]] = true
		}
	}
	for c, count := range counts {
		if count >= 3 && !hasChorus[c] {
			for i := range sections {
				if clusterID[i] == c {
					label(sections, i, "chorus", 0.60, "promoted: repeats >=3x with no chorus assigned")
				}
			}
		}
	}

	// Enforce min intro/outro bounds: the first section is never labeled
	// outro and the last is never labeled intro.
	if len(sections) > 0 && sections[0].SectionLabel == "outro" {
		label(sections, 0, "verse", 0.50, "repaired: first section cannot be outro")
	}
	if n := len(sections); n > 0 && sections[n-1].SectionLabel == "intro" {
		label(sections, n-1, "outro", 0.50, "repaired: last section cannot be intro")
	}

	// A pre-chorus not sandwiched by verse->chorus relabels to verse.
	for i, s := range sections {
		if s.SectionLabel != "pre-chorus" {
			continue
		}
		sandwiched := i > 0 && i+1 < len(sections) && sections[i-1].SectionLabel == "verse" && sections[i+1].SectionLabel == "chorus"
		if !sandwiched {
			label(sections, i, "verse", 0.50, "repaired: pre-chorus not sandwiched by verse/chorus")
		}
	}

	// Flag adjacent duplicate label+variant for review.
	for i := 1; i < len(sections); i++ {
		if sections[i].SectionLabel == sections[i-1].SectionLabel && sections[i].SectionVariant == sections[i-1].SectionVariant {
			sections[i].LabelReason = appendReason(sections[i].LabelReason, "review: duplicate label+variant adjacent")
		}
	}
}
