package architect

import (
	"testing"

	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/stretchr/testify/require"
)

func syntheticFrameSet(numFrames int, hop float64) *model.FrameSet {
	chroma := make([][12]float64, numFrames)
	mfcc := make([][13]float64, numFrames)
	rms := make([]float64, numFrames)
	flux := make([]float64, numFrames)
	for i := range chroma {
		// First half emphasizes C major, second half G major, to give the
		// SSM a genuine discontinuity to find.
		if i < numFrames/2 {
			chroma[i][0] = 1
			chroma[i][4] = 0.8
			chroma[i][7] = 0.9
		} else {
			chroma[i][7] = 1
			chroma[i][11] = 0.8
			chroma[i][2] = 0.9
		}
		rms[i] = 0.5
		flux[i] = 0.1
	}
	return &model.FrameSet{FrameHop: hop, Chroma: chroma, MFCC: mfcc, RMS: rms, Flux: flux}
}

func syntheticBeatGrid(numBeats int, hop float64) *model.BeatGrid {
	beats := make([]float64, numBeats)
	strengths := make([]float64, numBeats)
	for i := range beats {
		beats[i] = float64(i) * hop * 4 // ~4 frames/beat
		strengths[i] = 1
	}
	return &model.BeatGrid{
		BeatTimes:       beats,
		BeatStrengths:   strengths,
		TempoBPM:        120,
		TempoConfidence: 1,
		TimeSignature:   model.DefaultTimeSignature,
	}
}

func TestDetectRejectsNilInputs(t *testing.T) {
	_, err := Detect(nil, nil, config.Default())
	require.Error(t, err)
}

func TestDetectProducesContiguousSections(t *testing.T) {
	hop := 0.1
	frames := syntheticFrameSet(400, hop)
	beatGrid := syntheticBeatGrid(100, hop)

	cfg := config.Default()
	cfg.MinSectionsStop = 2

	sm, err := Detect(frames, beatGrid, cfg)
	require.NoError(t, err)
	require.NotNil(t, sm)
	require.NotEmpty(t, sm.Sections)

	require.Equal(t, 0, sm.Sections[0].StartFrame)
	require.Equal(t, frames.NumFrames(), sm.Sections[len(sm.Sections)-1].EndFrame)

	for i := 1; i < len(sm.Sections); i++ {
		require.Equal(t, sm.Sections[i-1].EndFrame, sm.Sections[i].StartFrame)
	}

	err = model.CheckInvariants(sm.Sections, frames.NumFrames(), model.MinSectionFrames, false)
	require.NoError(t, err)
}

func TestDetectDegenerateWhenNoBeats(t *testing.T) {
	frames := syntheticFrameSet(100, 0.1)
	beatGrid := &model.BeatGrid{}

	sm, err := Detect(frames, beatGrid, config.Default())
	require.NoError(t, err)
	require.Len(t, sm.Sections, 1)
	require.Equal(t, frames.NumFrames(), sm.Sections[0].EndFrame)
}

func TestCheckerboardKernelIsZeroMean(t *testing.T) {
	k := checkerboardKernel(9)
	var sum float64
	for _, row := range k {
		for _, v := range row {
			sum += v
		}
	}
	require.InDelta(t, 0, sum, 1e-9)
}

func TestSelfSimilarityMatrixIsSymmetric(t *testing.T) {
	frames := syntheticFrameSet(40, 0.1)
	beatGrid := syntheticBeatGrid(10, 0.1)
	reduced := beatSynchronousChroma(frames, beatGrid, 1)

	S := selfSimilarityMatrix(reduced)
	for i := range S {
		for j := range S[i] {
			require.InDelta(t, S[i][j], S[j][i], 1e-9)
		}
	}
}

func TestMeanCacheEvictsOldest(t *testing.T) {
	cache := newMeanCache(2)
	cache.put(meanCacheKey{0, 1, "chroma"}, [13]float64{1})
	cache.put(meanCacheKey{1, 2, "chroma"}, [13]float64{2})
	cache.put(meanCacheKey{2, 3, "chroma"}, [13]float64{3})

	_, ok := cache.get(meanCacheKey{0, 1, "chroma"})
	require.False(t, ok, "oldest entry should have been evicted")

	_, ok = cache.get(meanCacheKey{2, 3, "chroma"})
	require.True(t, ok)
}

func TestSnapToGridPreservesHardBoundaries(t *testing.T) {
	hard := map[int]bool{17: true}
	snapped, snappedHard := snapToGrid([]int{0, 20, 40}, hard, 40)
	require.Contains(t, snapped, 0)
	require.Contains(t, snapped, 40)
	require.Len(t, snappedHard, 1)
}
