package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/beatlab/structuralmap/pkg/config"
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

func TestRunRejectsEmptySamples(t *testing.T) {
	p := New(config.Default())
	_, err := p.Run(context.Background(), model.PCMInput{SampleRate: 44100}, nil)
	require.Error(t, err)

	var inputErr *InputInvalidError
	require.ErrorAs(t, err, &inputErr)
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MinSectionsStop = 0 // Validate rejects this
	p := New(cfg)

	samples := sineWave(440, 22050, 1.0)
	_, err := p.Run(context.Background(), model.PCMInput{Samples: samples, SampleRate: 22050, DurationSeconds: 1.0}, nil)
	require.Error(t, err)

	var inputErr *InputInvalidError
	require.ErrorAs(t, err, &inputErr)
}

func TestRunHonorsCancelledContext(t *testing.T) {
	p := New(config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := sineWave(440, 22050, 1.0)
	_, err := p.Run(ctx, model.PCMInput{Samples: samples, SampleRate: 22050, DurationSeconds: 1.0}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunProducesStructuralMapWithProgress(t *testing.T) {
	p := New(config.Default())

	var seen []int
	samples := sineWave(440, 22050, 6.0)
	pcm := model.PCMInput{Samples: samples, SampleRate: 22050, DurationSeconds: 6.0}

	sm, err := p.Run(context.Background(), pcm, func(percent int) { seen = append(seen, percent) })
	require.NoError(t, err)
	require.NotNil(t, sm)
	require.NotEmpty(t, sm.Sections)
	require.Equal(t, []int{0, 35, 70, 100}, seen)

	for _, s := range sm.Sections {
		require.NotEmpty(t, s.SectionLabel)
	}
}
