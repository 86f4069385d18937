package listener

import "github.com/beatlab/structuralmap/internal/dsp"

// spectrogram holds a magnitude STFT plus the parameters used to compute
// it, sized to the Listener's frame hop.
type spectrogram struct {
	Magnitudes [][]float64 // [frame][bin]
	SampleRate int
	FFTSize    int
	HopSize    int // samples
}

// computeSpectrogram runs the STFT at the configured frame hop. Grounded on
// the teacher's analyzer/stft.go STFT function, generalized to the
// Listener's ~0.1s frame hop instead of the teacher's fixed 10ms hop.
func computeSpectrogram(samples []float64, sampleRate int, cfg Config) spectrogram {
	hop := int(cfg.FrameHopSeconds * float64(sampleRate))
	if hop < 1 {
		hop = 1
	}
	fftSize := cfg.FFTSize
	if fftSize < hop {
		fftSize = hop * 2
	}

	mags := dsp.STFT(samples, dsp.STFTConfig{
		FFTSize:    fftSize,
		HopSize:    hop,
		WindowSize: fftSize,
	})

	return spectrogram{
		Magnitudes: mags,
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		HopSize:    hop,
	}
}

func (s spectrogram) numFrames() int { return len(s.Magnitudes) }

func (s spectrogram) binHz(bin int) float64 {
	return float64(bin) * float64(s.SampleRate) / float64(s.FFTSize)
}
