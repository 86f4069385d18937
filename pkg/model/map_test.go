package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// goldenMap builds one fully-populated StructuralMap so the marshal below
// exercises every field, not just the zero values.
func goldenMap() StructuralMap {
	return StructuralMap{
		Sections: []Section{
			{
				SectionID: "sec-0",
				ClusterID: 0,
				TimeRange: TimeRange{StartTime: 0, EndTime: 8.5, DurationBars: 4},
				HarmonicDNA: HarmonicDNA{
					KeyCenter: "C",
					Mode:      "major",
					Progression: []ChordSlot{
						{RomanNumeral: "I", Function: "tonic", Root: 0, Quality: "maj", DurationBeats: 4, Confidence: 0.9},
					},
				},
				RhythmicDNA: RhythmicDNA{
					TimeSignature: DefaultTimeSignature,
					PulsePattern:  []float64{1, 0, 0.5, 0, 1, 0, 0.5, 0},
					TempoBPM:      120,
				},
				SemanticSignature: SemanticSignature{
					RepetitionScore:   0.2,
					AvgRMS:            0.4,
					VocalRatio:        0.1,
					HarmonicStability: 0.8,
					PositionRatio:     0,
					DurationSeconds:   8.5,
					DurationBars:      4,
				},
				SectionLabel:    "intro",
				SectionVariant:  1,
				LabelConfidence: 0.75,
				LabelReason:     "low energy opening section",
			},
		},
		Debug: Debug{
			FrameHop:     0.1,
			NoveltyCurve: []float64{0, 0.1, 0.5},
			Threshold:    []float64{0.2, 0.2, 0.2},
			Peaks:        []Peak{{Frame: 12, Strength: 0.6}},
			Scales: []ScaleDebug{
				{Label: "fine", Size: 4, Curve: []float64{0, 1}, MaxVal: 1},
			},
		},
	}
}

// TestStructuralMapFieldNamesAreStable locks in the exact JSON keys spec.md
// §6 requires implementers to preserve. A rename here is a breaking change
// to every consumer of the sidecar format.
func TestStructuralMapFieldNamesAreStable(t *testing.T) {
	data, err := json.Marshal(goldenMap())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "sections")
	require.Contains(t, raw, "debug")

	sections, ok := raw["sections"].([]any)
	require.True(t, ok)
	require.Len(t, sections, 1)
	section, ok := sections[0].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{
		"section_id", "cluster_id", "time_range", "harmonic_dna", "rhythmic_dna",
		"semantic_signature", "section_label", "section_variant",
		"label_confidence", "label_reason",
	} {
		require.Containsf(t, section, key, "section missing expected key %q", key)
	}

	// start_frame/end_frame are internal bookkeeping and must NOT leak into
	// the output contract.
	require.NotContains(t, section, "start_frame")
	require.NotContains(t, section, "end_frame")
	require.NotContains(t, section, "StartFrame")

	timeRange, ok := section["time_range"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"start_time", "end_time", "duration_bars"} {
		require.Contains(t, timeRange, key)
	}

	harmonic, ok := section["harmonic_dna"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"key_center", "mode", "progression"} {
		require.Contains(t, harmonic, key)
	}
	progression, ok := harmonic["progression"].([]any)
	require.True(t, ok)
	require.Len(t, progression, 1)
	slot, ok := progression[0].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"roman_numeral", "function", "root", "quality", "duration_beats", "confidence"} {
		require.Contains(t, slot, key)
	}

	rhythmic, ok := section["rhythmic_dna"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"time_signature", "pulse_pattern", "tempo_bpm"} {
		require.Contains(t, rhythmic, key)
	}
	timeSig, ok := rhythmic["time_signature"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, timeSig, "num")
	require.Contains(t, timeSig, "den")

	semantic, ok := section["semantic_signature"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{
		"repetition_score", "avg_rms", "vocal_ratio", "harmonic_stability",
		"position_ratio", "duration_seconds", "duration_bars",
	} {
		require.Contains(t, semantic, key)
	}

	debug, ok := raw["debug"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"frame_hop", "noveltyCurve", "threshold", "peaks", "scales"} {
		require.Containsf(t, debug, key, "debug missing expected key %q", key)
	}

	peaks, ok := debug["peaks"].([]any)
	require.True(t, ok)
	require.Len(t, peaks, 1)
	peak, ok := peaks[0].(map[string]any)
	require.True(t, ok)
	require.Contains(t, peak, "frame")
	require.Contains(t, peak, "strength")

	scales, ok := debug["scales"].([]any)
	require.True(t, ok)
	require.Len(t, scales, 1)
	scale, ok := scales[0].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"label", "size", "curve", "maxVal"} {
		require.Contains(t, scale, key)
	}
}

// TestSectionCloneDoesNotAliasSlices guards a pass-chain correctness
// invariant distinct from the JSON shape: Clone must hand back independent
// backing arrays so a later pass mutating its copy cannot corrupt an
// earlier pass's retained section.
func TestSectionCloneDoesNotAliasSlices(t *testing.T) {
	original := goldenMap().Sections[0]
	clone := original.Clone()

	clone.HarmonicDNA.Progression[0].RomanNumeral = "V"
	clone.RhythmicDNA.PulsePattern[0] = 99

	require.Equal(t, "I", original.HarmonicDNA.Progression[0].RomanNumeral)
	require.NotEqual(t, float64(99), original.RhythmicDNA.PulsePattern[0])
}
