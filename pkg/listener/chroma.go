package listener

import "github.com/beatlab/structuralmap/internal/dsp"

const (
	chromaMinHz = 65.0   // ~C2
	chromaMaxHz = 4200.0 // ~C8
)

// chromaSequence computes the hybrid chroma described in spec.md §4.1:
// 0.6·CQT-chroma + 0.4·CENS-chroma, 12-dim, L2-normalized per frame.
//
// True CQT/CENS computation is out of scope as a prescribed internal
// (spec.md §4.1's "black-box contract, not prescribing FFT internals");
// this computes a pitch-class energy binning of the STFT magnitude as the
// CQT-chroma proxy (reusing internal/dsp.FrequencyToPitchClass, itself
// grounded on malikim-spectre/fingerprint/fingerprint.go) and a
// quantized/temporally-smoothed CENS approximation from that same binning.
func chromaSequence(harmonicMags [][]float64, spec spectrogram) [][12]float64 {
	n := len(harmonicMags)
	cqt := make([][12]float64, n)
	for i, frame := range harmonicMags {
		cqt[i] = pitchClassEnergy(frame, spec)
	}

	cens := censFromChroma(cqt)

	out := make([][12]float64, n)
	for i := range out {
		var blended [12]float64
		for pc := 0; pc < 12; pc++ {
			blended[pc] = 0.6*cqt[i][pc] + 0.4*cens[i][pc]
		}
		out[i] = l2Normalize12(blended)
	}
	return out
}

// pitchClassEnergy sums STFT bin magnitude into its equal-tempered pitch
// class over [chromaMinHz, chromaMaxHz], approximating constant-Q
// pitch-class energy.
func pitchClassEnergy(frame []float64, spec spectrogram) [12]float64 {
	var energy [12]float64
	for b, mag := range frame {
		hz := spec.binHz(b)
		if hz < chromaMinHz || hz > chromaMaxHz {
			continue
		}
		pc := dsp.FrequencyToPitchClass(hz)
		energy[pc] += mag * mag
	}
	return energy
}

// censFromChroma approximates Chroma Energy Normalized Statistics: L1
// normalize, quantize into logarithmic levels, then temporally smooth with
// a short moving average per pitch-class channel.
func censFromChroma(chroma [][12]float64) [][12]float64 {
	n := len(chroma)
	quantized := make([][12]float64, n)
	for i, c := range chroma {
		quantized[i] = quantizeCENSLevels(l1Normalize12(c))
	}

	out := make([][12]float64, n)
	const smoothWidth = 9
	channel := make([]float64, n)
	for pc := 0; pc < 12; pc++ {
		for i := 0; i < n; i++ {
			channel[i] = quantized[i][pc]
		}
		smoothed := dsp.MovingAverage(channel, smoothWidth)
		for i := 0; i < n; i++ {
			out[i][pc] = smoothed[i]
		}
	}
	return out
}

var censThresholds = [4]float64{0.05, 0.1, 0.2, 0.4}

func quantizeCENSLevels(c [12]float64) [12]float64 {
	var out [12]float64
	for pc, v := range c {
		level := 0
		for _, t := range censThresholds {
			if v >= t {
				level++
			}
		}
		out[pc] = float64(level) / float64(len(censThresholds))
	}
	return out
}

func l1Normalize12(v [12]float64) [12]float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	var out [12]float64
	if sum <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

func l2Normalize12(v [12]float64) [12]float64 {
	slice := dsp.L2Normalize(v[:])
	var out [12]float64
	copy(out[:], slice)
	return out
}
