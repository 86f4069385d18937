// Package architect implements structure detection (spec.md §4.2): it
// partitions a song into contiguous sections from the Listener's frame and
// beat-grid output, and clusters repeating sections together.
package architect

import (
	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/model"
)

// reducedSignal is the beat-synchronous, downsampled representation used by
// the SSM/novelty passes (spec.md §4.2.1). The original frame arrays are
// retained separately for refinement (§4.2.5).
type reducedSignal struct {
	Chroma [][12]float64
	MFCC   [][13]float64
	RMS    []float64
	Flux   []float64

	// beatStartFrame/beatEndFrame map each reduced index back to the
	// original frame range it summarizes, needed for snapping (§4.2.6) and
	// refinement (§4.2.5).
	BeatStartFrame []int
	BeatEndFrame   []int
}

func (r reducedSignal) N() int { return len(r.Chroma) }

// beatSynchronousChroma averages chroma/MFCC/RMS/flux frames over each
// beat's stable core `[t_i + 0.2d, t_{i+1} - 0.2d]` (spec.md §4.2.1), then
// downsamples the result by an integer factor D in [1,4].
func beatSynchronousChroma(frames *model.FrameSet, beatGrid *model.BeatGrid, downsampleFactor int) reducedSignal {
	beatChroma, beatMFCC, beatRMS, beatFlux, startFrames, endFrames := perBeatAverages(frames, beatGrid)

	if downsampleFactor <= 1 {
		return reducedSignal{
			Chroma:         beatChroma,
			MFCC:           beatMFCC,
			RMS:            beatRMS,
			Flux:           beatFlux,
			BeatStartFrame: startFrames,
			BeatEndFrame:   endFrames,
		}
	}

	return downsample(beatChroma, beatMFCC, beatRMS, beatFlux, startFrames, endFrames, downsampleFactor)
}

func perBeatAverages(frames *model.FrameSet, beatGrid *model.BeatGrid) (chroma [][12]float64, mfcc [][13]float64, rms, flux []float64, startFrames, endFrames []int) {
	hop := frames.FrameHop
	numFrames := frames.NumFrames()
	numBeats := beatGrid.NumBeats()

	if numBeats == 0 || hop <= 0 {
		return nil, nil, nil, nil, nil, nil
	}

	chroma = make([][12]float64, numBeats)
	mfcc = make([][13]float64, numBeats)
	rms = make([]float64, numBeats)
	flux = make([]float64, numBeats)
	startFrames = make([]int, numBeats)
	endFrames = make([]int, numBeats)

	for i := 0; i < numBeats; i++ {
		beatStart := beatGrid.BeatTimes[i]
		beatEnd := beatStart + 0.5
		if i+1 < numBeats {
			beatEnd = beatGrid.BeatTimes[i+1]
		}
		d := beatEnd - beatStart

		coreStart := beatStart + 0.2*d
		coreEnd := beatEnd - 0.2*d

		startFrame := clampFrame(int(beatStart/hop), numFrames)
		endFrame := clampFrame(int(beatEnd/hop), numFrames)
		startFrames[i] = startFrame
		endFrames[i] = endFrame

		fStart := clampFrame(int(coreStart/hop), numFrames)
		fEnd := clampFrame(int(coreEnd/hop), numFrames)
		if fEnd <= fStart {
			fStart, fEnd = startFrame, endFrame
		}
		if fEnd <= fStart {
			continue
		}

		count := 0
		for f := fStart; f < fEnd && f < numFrames; f++ {
			for pc := 0; pc < 12; pc++ {
				chroma[i][pc] += frames.Chroma[f][pc]
			}
			for c := 0; c < 13; c++ {
				mfcc[i][c] += frames.MFCC[f][c]
			}
			if f < len(frames.RMS) {
				rms[i] += frames.RMS[f]
			}
			if f < len(frames.Flux) {
				flux[i] += frames.Flux[f]
			}
			count++
		}
		if count > 0 {
			for pc := 0; pc < 12; pc++ {
				chroma[i][pc] /= float64(count)
			}
			for c := 0; c < 13; c++ {
				mfcc[i][c] /= float64(count)
			}
			rms[i] /= float64(count)
			flux[i] /= float64(count)
		}
		chroma[i] = l2NormalizeArr12(chroma[i])
	}

	return chroma, mfcc, rms, flux, startFrames, endFrames
}

func downsample(chroma [][12]float64, mfcc [][13]float64, rms, flux []float64, startFrames, endFrames []int, factor int) reducedSignal {
	n := len(chroma)
	outN := (n + factor - 1) / factor
	out := reducedSignal{
		Chroma:         make([][12]float64, outN),
		MFCC:           make([][13]float64, outN),
		RMS:            make([]float64, outN),
		Flux:           make([]float64, outN),
		BeatStartFrame: make([]int, outN),
		BeatEndFrame:   make([]int, outN),
	}

	for o := 0; o < outN; o++ {
		lo := o * factor
		hi := lo + factor
		if hi > n {
			hi = n
		}
		count := 0
		for i := lo; i < hi; i++ {
			for pc := 0; pc < 12; pc++ {
				out.Chroma[o][pc] += chroma[i][pc]
			}
			for c := 0; c < 13; c++ {
				out.MFCC[o][c] += mfcc[i][c]
			}
			out.RMS[o] += rms[i]
			out.Flux[o] += flux[i]
			count++
		}
		if count > 0 {
			for pc := 0; pc < 12; pc++ {
				out.Chroma[o][pc] /= float64(count)
			}
			for c := 0; c < 13; c++ {
				out.MFCC[o][c] /= float64(count)
			}
			out.RMS[o] /= float64(count)
			out.Flux[o] /= float64(count)
		}
		out.Chroma[o] = l2NormalizeArr12(out.Chroma[o])
		out.BeatStartFrame[o] = startFrames[lo]
		out.BeatEndFrame[o] = endFrames[hi-1]
	}

	return out
}

func clampFrame(f, numFrames int) int {
	if f < 0 {
		return 0
	}
	if f > numFrames {
		return numFrames
	}
	return f
}

func l2NormalizeArr12(v [12]float64) [12]float64 {
	slice := dsp.L2Normalize(v[:])
	var out [12]float64
	copy(out[:], slice)
	return out
}
