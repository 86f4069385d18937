package theorist

import (
	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
)

// workingSection carries a section through the glue and labeling passes.
// Its chord-root sequence is cached alongside the section so repeated
// progression-similarity checks don't re-walk the event stream.
type workingSection struct {
	model.Section
	roots []int
}

func buildWorkingSections(sections []model.Section, events []model.Event) []workingSection {
	out := make([]workingSection, len(sections))
	for i, s := range sections {
		secEvents := sectionEvents(events, s.TimeRange.StartTime, s.TimeRange.EndTime)
		out[i] = workingSection{Section: s, roots: chordRootSequence(secEvents)}
	}
	return out
}

func secondsPerBar(ws workingSection) float64 {
	ts := ws.RhythmicDNA.TimeSignature
	if ts.Numerator <= 0 {
		ts = model.DefaultTimeSignature
	}
	bpm := ws.RhythmicDNA.TempoBPM
	if bpm <= 0 {
		bpm = 120
	}
	return 60.0 / bpm * float64(ts.Numerator)
}

func barCount(ws workingSection) float64 {
	bar := secondsPerBar(ws)
	if bar <= 0 {
		return 0
	}
	return ws.SemanticSignature.DurationSeconds / bar
}

// meanChroma averages frame-resolution chroma over [start,end).
func meanChroma(frames *model.FrameSet, start, end int) [12]float64 {
	var out [12]float64
	count := 0
	for i := start; i < end && i < len(frames.Chroma); i++ {
		for pc := 0; pc < 12; pc++ {
			out[pc] += frames.Chroma[i][pc]
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

func meanMFCC(frames *model.FrameSet, start, end int) [13]float64 {
	var out [13]float64
	count := 0
	for i := start; i < end && i < len(frames.MFCC); i++ {
		for c := 0; c < 13; c++ {
			out[c] += frames.MFCC[i][c]
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

func chromaSimilarity(frames *model.FrameSet, a, b workingSection) float64 {
	ca := meanChroma(frames, a.StartFrame, a.EndFrame)
	cb := meanChroma(frames, b.StartFrame, b.EndFrame)
	return dsp.CosineSimilarity(ca[:], cb[:])
}

func mfccSimilarity(frames *model.FrameSet, a, b workingSection) float64 {
	ma := meanMFCC(frames, a.StartFrame, a.EndFrame)
	mb := meanMFCC(frames, b.StartFrame, b.EndFrame)
	return dsp.CosineSimilarity(ma[:], mb[:])
}

// mergeWorking folds sections[j] into sections[i] (order-independent),
// concatenating chord roots and summing duration fields.
func mergeWorking(sections []workingSection, i, j int) []workingSection {
	if j < i {
		i, j = j, i
	}
	durA := sections[i].SemanticSignature.DurationSeconds
	durB := sections[j].SemanticSignature.DurationSeconds

	merged := sections[i]
	merged.EndFrame = sections[j].EndFrame
	merged.TimeRange.EndTime = sections[j].TimeRange.EndTime
	merged.TimeRange.DurationBars += sections[j].TimeRange.DurationBars
	if durA+durB > 0 {
		merged.SemanticSignature.AvgRMS = (sections[i].SemanticSignature.AvgRMS*durA + sections[j].SemanticSignature.AvgRMS*durB) / (durA + durB)
	}
	merged.SemanticSignature.DurationSeconds = durA + durB
	merged.SemanticSignature.DurationBars += sections[j].SemanticSignature.DurationBars
	merged.roots = append(append([]int{}, sections[i].roots...), sections[j].roots...)

	out := make([]workingSection, 0, len(sections)-1)
	out = append(out, sections[:i]...)
	out = append(out, merged)
	out = append(out, sections[j+1:]...)
	return out
}

// passCadential implements spec.md §4.3.2 Pass A: merge adjacent sections
// whose progression similarity clears the threshold, or whose boundary
// cadence is unresolved (none) and one side is under 4 bars.
func passCadential(sections []workingSection, keyRoot int, keyMode string, cfg config.Config) ([]workingSection, bool) {
	for i := 0; i < len(sections)-1; i++ {
		a, b := sections[i], sections[i+1]
		p := ProgressionSimilarity(a.roots, b.roots, cfg.ProgressionSimilarityMode)

		merge := p >= cfg.ProgressionSimilarityThreshold
		if !merge {
			cadence := classifyCadence(lastN(a.roots, 2), firstN(b.roots, 2), keyRoot, keyMode)
			if cadence == CadenceNone && (barCount(a) < 4 || barCount(b) < 4) {
				merge = true
			}
		}
		if merge {
			return mergeWorking(sections, i, i+1), true
		}
	}
	return sections, false
}
