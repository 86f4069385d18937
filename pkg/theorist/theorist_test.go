package theorist

import (
	"testing"

	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/stretchr/testify/require"
)

func syntheticFrames(numFrames int, hop float64) *model.FrameSet {
	chroma := make([][12]float64, numFrames)
	mfcc := make([][13]float64, numFrames)
	rms := make([]float64, numFrames)
	flux := make([]float64, numFrames)
	harmonicRatio := make([]float64, numFrames)
	for i := range chroma {
		chroma[i][0] = 1
		chroma[i][4] = 0.8
		chroma[i][7] = 0.9
		rms[i] = 0.5
		harmonicRatio[i] = 0.7
	}
	return &model.FrameSet{
		FrameHop:      hop,
		Chroma:        chroma,
		MFCC:          mfcc,
		RMS:           rms,
		Flux:          flux,
		HarmonicRatio: harmonicRatio,
	}
}

func syntheticMap(numSections int, framesPerSection int) *model.StructuralMap {
	sections := make([]model.Section, numSections)
	for i := 0; i < numSections; i++ {
		start := i * framesPerSection
		end := start + framesPerSection
		sections[i] = model.Section{
			SectionID:      "section-" + string(rune('0'+i)),
			StartFrame:     start,
			EndFrame:       end,
			ClusterID:      i,
			SectionLabel:   "unlabeled",
			SectionVariant: 1,
			TimeRange: model.TimeRange{
				StartTime:    float64(start) * 0.1,
				EndTime:      float64(end) * 0.1,
				DurationBars: 4,
			},
			RhythmicDNA: model.RhythmicDNA{TimeSignature: model.DefaultTimeSignature, TempoBPM: 120},
			SemanticSignature: model.SemanticSignature{
				AvgRMS:          0.5,
				DurationSeconds: float64(framesPerSection) * 0.1,
				DurationBars:    4,
			},
		}
	}
	return &model.StructuralMap{Sections: sections}
}

func syntheticEvents(numBeats int, hop float64) []model.Event {
	roots := []float64{0, 5, 7, 0} // I-IV-V-I in C major
	events := make([]model.Event, numBeats)
	for i := 0; i < numBeats; i++ {
		root := roots[i%len(roots)]
		events[i] = model.Event{
			Timestamp: float64(i) * hop,
			Type:      model.ChordCandidateEvent,
			ChordCandidate: &model.ChordCandidate{
				RootCandidates:    []model.RootCandidate{{Root: root, Prob: 0.8}},
				QualityCandidates: []model.QualityCandidate{{Quality: "maj", Prob: 0.8}},
				Confidence:        0.8,
			},
		}
	}
	return events
}

func TestRunRejectsNilInputs(t *testing.T) {
	_, err := Run(nil, nil, nil, model.Metadata{}, nil, config.Default())
	require.Error(t, err)
}

func TestRunPassesThroughDegenerateMap(t *testing.T) {
	sm := syntheticMap(1, 100)
	frames := syntheticFrames(100, 0.1)

	out, err := Run(sm, frames, nil, model.Metadata{}, nil, config.Default())
	require.NoError(t, err)
	require.Len(t, out.Sections, 1)
}

func TestRunProducesLabeledContiguousSections(t *testing.T) {
	sm := syntheticMap(10, 50)
	frames := syntheticFrames(500, 0.1)
	events := syntheticEvents(40, 2.0)

	cfg := config.Default()
	cfg.MinSectionsStop = 1

	out, err := Run(sm, frames, events, model.Metadata{KeyConfidence: 0.9, DetectedKey: "C", DetectedMode: "major"}, nil, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, out.Sections)

	require.Equal(t, 0, out.Sections[0].StartFrame)
	require.Equal(t, 500, out.Sections[len(out.Sections)-1].EndFrame)
	for i := 1; i < len(out.Sections); i++ {
		require.Equal(t, out.Sections[i-1].EndFrame, out.Sections[i].StartFrame)
	}
	for _, s := range out.Sections {
		require.NotEmpty(t, s.SectionLabel)
		require.GreaterOrEqual(t, s.SectionVariant, 1)
	}

	err = model.CheckInvariants(out.Sections, 500, model.MinSectionFrames, false)
	require.NoError(t, err)
}

func TestResolveKeyContextFallsBackOnLowConfidence(t *testing.T) {
	root, mode := resolveKeyContext(model.Metadata{KeyConfidence: 0.1}, &KeyHint{Root: 7, Mode: "minor"})
	require.Equal(t, 7, root)
	require.Equal(t, "minor", mode)
}

func TestResolveKeyContextDefaultsToCMajor(t *testing.T) {
	root, mode := resolveKeyContext(model.Metadata{KeyConfidence: 0.1}, nil)
	require.Equal(t, 0, root)
	require.Equal(t, "major", mode)
}

func TestResolveKeyContextUsesListenerKey(t *testing.T) {
	root, mode := resolveKeyContext(model.Metadata{KeyConfidence: 0.8, DetectedKey: "G", DetectedMode: "major"}, nil)
	require.Equal(t, 7, root)
	require.Equal(t, "major", mode)
}

func TestClassifyCadenceAuthentic(t *testing.T) {
	cadence := classifyCadence([]int{7}, []int{0}, 0, "major")
	require.Equal(t, CadenceAuthentic, cadence)
}

func TestClassifyCadenceDeceptive(t *testing.T) {
	cadence := classifyCadence([]int{7}, []int{9}, 0, "major")
	require.Equal(t, CadenceDeceptive, cadence)
}

func TestClassifyCadenceHalf(t *testing.T) {
	cadence := classifyCadence([]int{2}, []int{7}, 0, "major")
	require.Equal(t, CadenceHalf, cadence)
}

func TestProgressionSimilarityIdentical(t *testing.T) {
	a := []int{0, 5, 7, 0}
	require.InDelta(t, 1.0, ProgressionSimilarity(a, a, config.RotationSliding), 1e-9)
}

func TestProgressionSimilarityRotationInvariant(t *testing.T) {
	a := []int{0, 5, 7, 0}
	b := []int{2, 7, 9, 2} // a transposed up a major second
	require.InDelta(t, 1.0, ProgressionSimilarity(a, b, config.RotationOnly), 1e-9)
}
