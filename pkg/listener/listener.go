package listener

import (
	"math"

	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/model"
)

// Listen runs the full DSP feature-extraction stage over decoded PCM:
// HPSS, hybrid chroma, MFCC, RMS/flux, beat/downbeat/time-signature
// tracking, key detection, and per-beat chord candidates.
//
// Individual soft failures (HPSS, beat tracking, or chord matching failing
// for a frame/beat) are absorbed with spec.md §7's defaults rather than
// surfaced: tempo 120, time signature 4/4, flux 0, RMS 0, and a
// zero-confidence "N" chord candidate. Only a structurally invalid input
// (empty samples, non-positive sample rate) returns an error. Grounded on
// the teacher's `pkg/analysis.Analyzer.AnalyzeFileWithPath`, which runs
// each analyzer in turn and records a per-analyzer error rather than
// aborting the whole track.
func Listen(pcm model.PCMInput, cfg Config) (*model.FrameSet, *model.BeatGrid, []model.Event, model.Metadata, error) {
	if len(pcm.Samples) == 0 || pcm.SampleRate <= 0 {
		return nil, nil, nil, model.Metadata{}, &InputError{Reason: "empty samples or non-positive sample rate"}
	}

	samples := make([]float64, len(pcm.Samples))
	for i, s := range pcm.Samples {
		samples[i] = float64(s)
	}

	spec := computeSpectrogram(samples, pcm.SampleRate, cfg)
	harmonic, percussive := hpssSeparate(spec.Magnitudes, 17, 17)

	chroma := chromaSequence(harmonic, spec)
	mfcc := mfccSequence(spec.Magnitudes, spec)
	rms := rmsSequence(samples, spec.HopSize, spec.numFrames())
	percussiveOnset := onsetStrength(percussive)
	harmonicRatio := harmonicRatioSequence(harmonic, percussive)

	frames := &model.FrameSet{
		FrameHop:      cfg.FrameHopSeconds,
		Chroma:        chroma,
		MFCC:          mfcc,
		RMS:           rms,
		Flux:          percussiveOnset,
		HarmonicRatio: harmonicRatio,
	}

	beatGrid, _ := buildBeatGrid(percussiveOnset, cfg.FrameHopSeconds)

	var meanChroma [12]float64
	if len(chroma) > 0 {
		for _, c := range chroma {
			for pc := 0; pc < 12; pc++ {
				meanChroma[pc] += c[pc]
			}
		}
		for pc := 0; pc < 12; pc++ {
			meanChroma[pc] /= float64(len(chroma))
		}
	}
	keyRoot, keyMode, keyConfidence := detectKey(meanChroma)

	events := buildChordEvents(samples, pcm.SampleRate, spec, chroma, beatGrid, keyRoot, keyMode, cfg.WindowShift)

	meta := model.Metadata{
		DurationSeconds: pcm.DurationSeconds,
		KeyConfidence:   keyConfidence,
		DetectedKey:     dsp.PitchClassNames[keyRoot],
		DetectedMode:    keyMode,
	}

	return frames, beatGrid, events, meta, nil
}

// InputError reports spec.md §7's InputInvalid taxonomy: caller-supplied
// PCM that cannot be analyzed at all.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "listener: invalid input: " + e.Reason }

// harmonicRatioSequence reports each frame's harmonic energy share of
// harmonic+percussive total, the tonal-content proxy used downstream as
// semantic_signature.vocal_ratio's best available correlate.
func harmonicRatioSequence(harmonic, percussive [][]float64) []float64 {
	n := len(harmonic)
	if len(percussive) < n {
		n = len(percussive)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var h, p float64
		for b := range harmonic[i] {
			h += harmonic[i][b]
		}
		for b := range percussive[i] {
			p += percussive[i][b]
		}
		total := h + p
		if total <= 0 {
			continue
		}
		out[i] = h / total
	}
	return out
}

func rmsSequence(samples []float64, hop, numFrames int) []float64 {
	out := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hop
		end := start + hop
		if start >= len(samples) {
			break
		}
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += s * s
		}
		n := end - start
		if n > 0 {
			out[i] = math.Sqrt(sum / float64(n))
		}
	}
	return out
}

// buildBeatGrid runs tempo estimation, beat placement, downbeat phase
// selection, and time-signature estimation, falling back to spec.md §7's
// defaults (120 bpm, 4/4) when the onset curve is too short or too flat to
// decide.
func buildBeatGrid(onset []float64, frameHop float64) (*model.BeatGrid, bool) {
	if len(onset) < 4 {
		return &model.BeatGrid{
			TempoBPM:         120,
			TempoConfidence:  0,
			TimeSignature:    model.DefaultTimeSignature,
			TimeSigConfident: 0,
		}, true
	}

	bpm, tempoConfidence := estimateTempo(onset, frameHop)
	beatTimes, beatStrengths := placeBeats(onset, frameHop, bpm)

	timeSigNum, timeSigDen, timeSigConfidence := estimateTimeSignature(beatStrengths)
	downbeats := placeDownbeats(beatTimes, beatStrengths, timeSigNum)

	return &model.BeatGrid{
		BeatTimes:        beatTimes,
		DownbeatTimes:    downbeats,
		BeatStrengths:    beatStrengths,
		TempoBPM:         bpm,
		TempoConfidence:  tempoConfidence,
		TimeSignature:    model.TimeSignature{Numerator: timeSigNum, Denominator: timeSigDen},
		TimeSigConfident: timeSigConfidence,
	}, false
}

// buildChordEvents produces one chord_candidate event per beat, averaging
// chroma over the beat's stable core (middle 60%, spec.md §4.1) and
// matching against the template bank. Beats for which the stable-core
// window cannot be formed (too few frames) still emit a zero-confidence
// "N" event per spec.md §7's failure contract.
func buildChordEvents(samples []float64, sampleRate int, spec spectrogram, chroma [][12]float64, beatGrid *model.BeatGrid, keyRoot int, keyMode string, windowShift float64) []model.Event {
	if beatGrid == nil || len(beatGrid.BeatTimes) == 0 {
		return nil
	}

	haveKey := true
	events := make([]model.Event, 0, len(beatGrid.BeatTimes))

	for bi, beatTime := range beatGrid.BeatTimes {
		beatEnd := beatTime + 0.5 // default half-second fallback span
		if bi+1 < len(beatGrid.BeatTimes) {
			beatEnd = beatGrid.BeatTimes[bi+1]
		}

		startFrame := int((beatTime) / spec.hopSeconds())
		endFrame := int((beatEnd) / spec.hopSeconds())
		stableChroma, ok := stableCoreChroma(chroma, startFrame, endFrame, windowShift)

		if !ok {
			events = append(events, model.Event{
				Timestamp: beatTime,
				Type:      model.ChordCandidateEvent,
				ChordCandidate: &model.ChordCandidate{
					QualityCandidates: []model.QualityCandidate{{Quality: "N", Prob: 1}},
					Confidence:        0,
				},
			})
			continue
		}

		roots, qualities := matchChordTemplates(stableChroma, keyRoot, keyMode, haveKey)

		bassStart := int(beatTime * float64(sampleRate))
		bassEnd := int(beatEnd * float64(sampleRate))
		if bassEnd > len(samples) {
			bassEnd = len(samples)
		}
		bassPC := 0
		if bassStart < bassEnd {
			bassPC = bassPitchClass(samples[bassStart:bassEnd], sampleRate)
		}

		inversion := 0
		if len(roots) > 0 && len(qualities) > 0 {
			rootPC := int(roots[0].Root)
			intervals := intervalsForQuality(qualities[0].Quality)
			inversion = chordInversionFromBass(bassPC, rootPC, intervals)
		}

		confidence := 0.0
		if len(roots) > 0 {
			confidence = roots[0].Prob
		}

		events = append(events, model.Event{
			Timestamp: beatTime,
			Type:      model.ChordCandidateEvent,
			ChordCandidate: &model.ChordCandidate{
				RootCandidates:    roots,
				QualityCandidates: qualities,
				BassPitchClass:    bassPC,
				ChordInversion:    inversion,
				Confidence:        confidence,
			},
		})
	}

	return events
}

func (s spectrogram) hopSeconds() float64 {
	if s.SampleRate == 0 {
		return 0.1
	}
	return float64(s.HopSize) / float64(s.SampleRate)
}

// stableCoreChroma averages chroma frames over the middle 60% of
// [startFrame, endFrame), recentering the trimmed window by windowShift
// (a fraction of the beat in [-0.5, 0.5]) without letting it escape the
// beat's own boundaries (spec.md §4.1).
func stableCoreChroma(chroma [][12]float64, startFrame, endFrame int, windowShift float64) ([12]float64, bool) {
	var out [12]float64
	if endFrame <= startFrame || startFrame < 0 {
		return out, false
	}
	if endFrame > len(chroma) {
		endFrame = len(chroma)
	}
	span := endFrame - startFrame
	if span <= 0 {
		return out, false
	}

	trim := int(float64(span) * 0.2)
	shiftFrames := int(windowShift * float64(span))
	coreStart := startFrame + trim + shiftFrames
	coreEnd := endFrame - trim + shiftFrames

	if coreStart < startFrame {
		coreStart = startFrame
	}
	if coreEnd > endFrame {
		coreEnd = endFrame
	}
	if coreEnd <= coreStart {
		coreStart, coreEnd = startFrame, endFrame
	}

	count := 0
	for i := coreStart; i < coreEnd; i++ {
		for pc := 0; pc < 12; pc++ {
			out[pc] += chroma[i][pc]
		}
		count++
	}
	if count == 0 {
		return out, false
	}
	for pc := 0; pc < 12; pc++ {
		out[pc] /= float64(count)
	}
	return out, true
}

func intervalsForQuality(quality string) []int {
	for _, q := range qualityBank {
		if q.name == quality {
			return q.intervals
		}
	}
	return []int{0, 4, 7}
}
