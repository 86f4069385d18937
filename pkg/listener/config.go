// Package listener implements the DSP feature-extraction stage (spec.md
// §4.1): HPSS separation, hybrid chroma, MFCC, beat/downbeat tracking, key
// detection, and chord-candidate estimation.
package listener

// Config controls the Listener's frame hop and analysis windows. Unlike
// pkg/config.Config (the pipeline-wide structure-detection knobs), these
// are signal-processing parameters that rarely need per-genre tuning.
type Config struct {
	// FrameHopSeconds is H in spec.md §3, the frame hop for chroma/MFCC/
	// RMS/flux. Default 0.1s.
	FrameHopSeconds float64

	// FFTSize is the STFT window/FFT size in samples.
	FFTSize int

	// WindowShift moves the unweighted stable-core averaging window by a
	// fraction of the beat, in [-0.5, 0.5]. See pkg/config.Config's field
	// of the same name and spec.md §9's open question about it.
	WindowShift float64
}

// DefaultConfig returns the spec.md §3/§4.1 defaults.
func DefaultConfig() Config {
	return Config{
		FrameHopSeconds: 0.1,
		FFTSize:         2048,
		WindowShift:     0,
	}
}
