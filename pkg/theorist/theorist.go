package theorist

import (
	"fmt"

	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
)

// KeyHint lets a caller supply a fallback key when the Listener's own
// estimate isn't confident enough (spec.md §4.3.4's "Key context").
type KeyHint struct {
	Root int    // pitch class, 0=C
	Mode string // "major" or "minor"
}

const keyConfidenceFloor = 0.3

// Run executes the full Theorist stage (spec.md §4.3) over the Architect's
// StructuralMap: per-section chord extraction, the cadential and symmetry
// glue passes (iterated until stable or cfg.MinSectionsStop), semantic
// labeling, harmonic-rhythm grouping, and validation/repair. Grounded on
// `pkg/analysis.Analyzer.AnalyzeFileWithPath`'s "run every correction pass
// over one input, assemble one result" orchestration shape, same as
// `architect.Detect`.
func Run(sm *model.StructuralMap, frames *model.FrameSet, events []model.Event, meta model.Metadata, hint *KeyHint, cfg config.Config) (*model.StructuralMap, error) {
	if sm == nil || frames == nil {
		return nil, fmt.Errorf("theorist: structural map and frames are required")
	}
	if len(sm.Sections) == 0 {
		return nil, fmt.Errorf("theorist: empty structural map")
	}
	if len(sm.Sections) == 1 {
		// Already a DegenerateStructure single section (spec.md §7); the
		// Theorist never runs glue/labeling over it, matching SPEC_FULL.md
		// §7's "before the Theorist ever runs" rule.
		return sm, nil
	}

	keyRoot, keyMode := resolveKeyContext(meta, hint)

	sections := buildWorkingSections(sm.Sections, events)

	for len(sections) > cfg.MinSectionsStop {
		next, changedA := passCadential(sections, keyRoot, keyMode, cfg)
		next, changedB := passSymmetry(next, frames, cfg)
		sections = next
		if !changedA && !changedB {
			break
		}
	}

	sections = runLabeling(sections, frames, cfg)

	for len(sections) > cfg.MinSectionsStop {
		next, changed := passHarmonicRhythmGrouping(sections, cfg)
		sections = next
		if !changed {
			break
		}
	}

	finalSections := toFinalSections(sections, events, keyRoot, keyMode)

	if err := model.CheckInvariants(finalSections, sm.TotalFrames(), model.MinSectionFrames, false); err != nil {
		return nil, fmt.Errorf("theorist: assertion: %w", err)
	}

	return &model.StructuralMap{Sections: finalSections, Debug: sm.Debug}, nil
}

// resolveKeyContext implements spec.md §4.3.4's key-context fallback:
// the Listener's own key estimate if confident enough, else a
// caller-supplied hint, else C major.
func resolveKeyContext(meta model.Metadata, hint *KeyHint) (root int, mode string) {
	if meta.KeyConfidence >= keyConfidenceFloor {
		if pc, ok := pitchClassFromName(meta.DetectedKey); ok {
			return pc, meta.DetectedMode
		}
	}
	if hint != nil {
		return hint.Root, hint.Mode
	}
	return 0, "major"
}

// pulsePattern resamples a section's chord-confidence sequence to a fixed
// 8-bin pattern — there's no separate percussion-onset stream retained
// past the Listener stage, so harmonic-event confidence density stands in
// as rhythmic_dna.pulse_pattern's proxy.
func pulsePattern(events []model.Event) []float64 {
	if len(events) == 0 {
		return nil
	}
	vals := make([]float64, len(events))
	for i, e := range events {
		if e.ChordCandidate != nil {
			vals[i] = e.ChordCandidate.Confidence
		}
	}
	return resampleToBins(vals, 8)
}

func pitchClassFromName(name string) (int, bool) {
	for pc, n := range dsp.PitchClassNames {
		if n == name {
			return pc, true
		}
	}
	return 0, false
}

// toFinalSections rebuilds model.Section values from the glue/labeling
// passes' working sections, filling in HarmonicDNA.Progression now that
// the key context and final section boundaries are both settled.
func toFinalSections(sections []workingSection, events []model.Event, keyRoot int, keyMode string) []model.Section {
	out := make([]model.Section, 0, len(sections))
	for i, ws := range sections {
		secEvents := sectionEvents(events, ws.TimeRange.StartTime, ws.TimeRange.EndTime)

		secondsPerBeat := 0.5
		if ws.RhythmicDNA.TempoBPM > 0 {
			secondsPerBeat = 60.0 / ws.RhythmicDNA.TempoBPM
		}

		s := ws.Section
		s.SectionID = fmt.Sprintf("section-%d", i)
		s.HarmonicDNA = model.HarmonicDNA{
			KeyCenter:   dsp.PitchClassNames[keyRoot],
			Mode:        keyMode,
			Progression: buildProgression(secEvents, keyRoot, keyMode, secondsPerBeat),
		}
		s.RhythmicDNA.PulsePattern = pulsePattern(secEvents)
		out = append(out, s)
	}
	return out
}
