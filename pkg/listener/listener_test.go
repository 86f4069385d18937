package listener

import (
	"math"
	"testing"

	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/stretchr/testify/require"
)

func sineWave(freq float64, sampleRate int, seconds float64) []float32 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*t))
	}
	return out
}

func TestListenRejectsEmptyInput(t *testing.T) {
	_, _, _, _, err := Listen(model.PCMInput{SampleRate: 44100}, DefaultConfig())
	require.Error(t, err)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestListenRejectsBadSampleRate(t *testing.T) {
	_, _, _, _, err := Listen(model.PCMInput{Samples: []float32{0, 1}, SampleRate: 0}, DefaultConfig())
	require.Error(t, err)
}

func TestListenProducesFrames(t *testing.T) {
	samples := sineWave(440, 22050, 3.0)
	pcm := model.PCMInput{Samples: samples, SampleRate: 22050, DurationSeconds: 3.0}

	frames, beatGrid, events, meta, err := Listen(pcm, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, frames)
	require.NotNil(t, beatGrid)
	require.Greater(t, frames.NumFrames(), 0)
	require.Len(t, frames.Chroma, frames.NumFrames())
	require.Len(t, frames.MFCC, frames.NumFrames())
	require.GreaterOrEqual(t, meta.KeyConfidence, 0.0)
	require.LessOrEqual(t, meta.KeyConfidence, 1.0)

	for _, e := range events {
		if e.ChordCandidate == nil {
			t.Fatalf("chord_candidate event missing ChordCandidate payload")
		}
	}
}

func TestBuildBeatGridFallsBackOnShortOnset(t *testing.T) {
	grid, usedDefault := buildBeatGrid([]float64{0.1, 0.2}, 0.1)
	if !usedDefault {
		t.Fatalf("expected default fallback for a too-short onset curve")
	}
	if grid.TempoBPM != 120 {
		t.Fatalf("expected default tempo 120, got %v", grid.TempoBPM)
	}
	if grid.TimeSignature != model.DefaultTimeSignature {
		t.Fatalf("expected default time signature, got %+v", grid.TimeSignature)
	}
}

func TestEstimateTimeSignatureFallsBackTo44(t *testing.T) {
	num, den, confidence := estimateTimeSignature(nil)
	if num != 4 || den != 4 {
		t.Fatalf("expected fallback 4/4, got %d/%d", num, den)
	}
	if confidence != 0 {
		t.Fatalf("expected zero confidence on fallback, got %v", confidence)
	}
}

func TestDetectKeyFindsPlantedTriad(t *testing.T) {
	// C major triad energy: strong on C, E, G.
	var chroma [12]float64
	chroma[0] = 1.0 // C
	chroma[4] = 0.8 // E
	chroma[7] = 0.9 // G

	root, mode, confidence := detectKey(chroma)
	require.Equal(t, 0, root)
	require.Equal(t, "major", mode)
	require.Greater(t, confidence, 0.5)
}

func TestMatchChordTemplatesKeyBias(t *testing.T) {
	// D minor chroma with D and A weighted, per spec.md's worked example.
	var chroma [12]float64
	chroma[2] = 0.7 // D
	chroma[9] = 0.5 // A

	roots, _ := matchChordTemplates(chroma, 2, "minor", true)
	require.NotEmpty(t, roots)
	require.Equal(t, float64(2), roots[0].Root)
}

func TestChordInversionFromBass(t *testing.T) {
	// C major triad (0,4,7): bass on E (4) is first inversion.
	inv := chordInversionFromBass(4, 0, []int{0, 4, 7})
	if inv != 1 {
		t.Fatalf("expected first inversion, got %d", inv)
	}

	// Bass on root is root position.
	inv = chordInversionFromBass(0, 0, []int{0, 4, 7})
	if inv != 0 {
		t.Fatalf("expected root position, got %d", inv)
	}
}

func TestStableCoreChromaTrimsEnds(t *testing.T) {
	chroma := make([][12]float64, 10)
	for i := range chroma {
		chroma[i][0] = float64(i)
	}
	core, ok := stableCoreChroma(chroma, 0, 10, 0)
	require.True(t, ok)
	// Trimmed window should average the middle frames, not the extremes.
	require.Greater(t, core[0], 0.0)
	require.Less(t, core[0], 9.0)
}

func TestHPSSConservesEnergy(t *testing.T) {
	mags := [][]float64{
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{5, 1, 1, 1},
	}
	harmonic, percussive := hpssSeparate(mags, 3, 3)
	for frameIdx, frame := range mags {
		for b, v := range frame {
			sum := harmonic[frameIdx][b] + percussive[frameIdx][b]
			require.InDelta(t, v, sum, 1e-6)
		}
	}
}
