// Package model holds the data types shared by the listener, architect, and
// theorist stages: frame-level features, the beat grid, the chord-candidate
// event stream, sections, and the final StructuralMap output contract.
package model

// PCMInput is the Listener's input contract (spec.md §6): a decoded,
// resampled mono float PCM stream. Decoding/resampling themselves are out
// of the core pipeline's scope; callers (e.g. cmd/app) are responsible for
// producing this.
type PCMInput struct {
	Samples         []float32
	SampleRate      int
	DurationSeconds float64
}

// FrameSet holds the Listener's frame-level feature arrays. All slices share
// the same length and frame hop; frame i covers
// [i*FrameHop, (i+1)*FrameHop) seconds.
type FrameSet struct {
	FrameHop float64 // seconds per frame, H in spec.md (~0.1s)

	Chroma [][12]float64 // per-frame 12-dim chroma, L2-normalized
	MFCC   [][13]float64 // per-frame 13-coefficient MFCC
	RMS    []float64     // per-frame normalized energy, [0,1]
	Flux   []float64     // per-frame spectral flux, >= 0

	// HarmonicRatio is the per-frame harmonic-vs-percussive energy share
	// from HPSS, in [0,1]. There is no vocal-separation model in this
	// pipeline (training/ML inference is out of scope), so the Theorist
	// uses this tonal-energy ratio as its best available correlate for
	// semantic_signature.vocal_ratio.
	HarmonicRatio []float64
}

// NumFrames returns the number of frames in the set.
func (f *FrameSet) NumFrames() int {
	if f == nil {
		return 0
	}
	return len(f.RMS)
}

// TimeSignature is a musical meter, e.g. 4/4 or 6/8.
type TimeSignature struct {
	Numerator   int `json:"num"`
	Denominator int `json:"den"`
}

// DefaultTimeSignature is the 4/4 fallback used throughout the pipeline.
var DefaultTimeSignature = TimeSignature{Numerator: 4, Denominator: 4}

// BeatGrid holds the Listener's beat/downbeat tracking output.
type BeatGrid struct {
	BeatTimes        []float64 // seconds, strictly increasing
	DownbeatTimes    []float64 // subset of BeatTimes, may be empty
	BeatStrengths    []float64 // per-beat onset strength, same length as BeatTimes
	TempoBPM         float64
	TempoConfidence  float64
	TimeSignature    TimeSignature
	TimeSigConfident float64
}

// NumBeats returns the number of beats in the grid.
func (b *BeatGrid) NumBeats() int {
	if b == nil {
		return 0
	}
	return len(b.BeatTimes)
}

// RootCandidate is a candidate chord root with a match probability.
type RootCandidate struct {
	Root float64 `json:"root"` // pitch class 0..11
	Prob float64 `json:"prob"`
}

// QualityCandidate is a candidate chord quality with a match probability.
type QualityCandidate struct {
	Quality string  `json:"quality"` // "maj","min","dom7","maj7","min7","sus4","N"
	Prob    float64 `json:"prob"`
}

// ChordCandidate is the Listener's per-beat harmonic estimate.
type ChordCandidate struct {
	RootCandidates    []RootCandidate    `json:"root_candidates"`
	QualityCandidates []QualityCandidate `json:"quality_candidates"`
	BassPitchClass    int                `json:"bass_pitch_class"`
	ChordInversion    int                `json:"chord_inversion"` // 0 = root position
	Confidence        float64            `json:"confidence"`
}

// TopRoot returns the highest-probability root candidate, or -1 if none.
func (c *ChordCandidate) TopRoot() float64 {
	if c == nil || len(c.RootCandidates) == 0 {
		return -1
	}
	best := c.RootCandidates[0]
	for _, r := range c.RootCandidates[1:] {
		if r.Prob > best.Prob {
			best = r
		}
	}
	return best.Root
}

// TopQuality returns the highest-probability quality candidate, or "N".
func (c *ChordCandidate) TopQuality() string {
	if c == nil || len(c.QualityCandidates) == 0 {
		return "N"
	}
	best := c.QualityCandidates[0]
	for _, q := range c.QualityCandidates[1:] {
		if q.Prob > best.Prob {
			best = q
		}
	}
	return best.Quality
}

// EventType enumerates event kinds on the Listener's event stream.
// chord_candidate is currently the only type the pipeline emits.
type EventType string

// ChordCandidateEvent is the only EventType currently emitted.
const ChordCandidateEvent EventType = "chord_candidate"

// Event is a single time-stamped entry on the Listener's event stream.
type Event struct {
	Timestamp      float64         `json:"timestamp"`
	Type           EventType       `json:"type"`
	ChordCandidate *ChordCandidate `json:"chord_candidate,omitempty"`
}

// Metadata is the Listener's global, whole-track summary.
type Metadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	DetectedKey     string  `json:"detected_key"`
	DetectedMode    string  `json:"detected_mode"`
	KeyConfidence   float64 `json:"key_confidence"`
}

// ChordSlot is one entry in a harmonic progression.
type ChordSlot struct {
	RomanNumeral  string  `json:"roman_numeral"`
	Function      string  `json:"function"` // tonic, subdominant, dominant, other
	Root          float64 `json:"root"`      // pitch class 0..11
	Quality       string  `json:"quality"`
	DurationBeats float64 `json:"duration_beats"`
	Confidence    float64 `json:"confidence"`
}

// HarmonicDNA is a section's harmonic summary.
type HarmonicDNA struct {
	KeyCenter   string      `json:"key_center"`
	Mode        string      `json:"mode"`
	Progression []ChordSlot `json:"progression"`
}

// RhythmicDNA is a section's rhythmic summary.
type RhythmicDNA struct {
	TimeSignature TimeSignature `json:"time_signature"`
	PulsePattern  []float64     `json:"pulse_pattern"`
	TempoBPM      float64       `json:"tempo_bpm"`
}

// SemanticSignature is the feature bundle the labeling rules consume.
type SemanticSignature struct {
	RepetitionScore   float64 `json:"repetition_score"`
	AvgRMS            float64 `json:"avg_rms"`
	VocalRatio        float64 `json:"vocal_ratio"`
	HarmonicStability float64 `json:"harmonic_stability"`
	PositionRatio     float64 `json:"position_ratio"`
	DurationSeconds   float64 `json:"duration_seconds"`
	DurationBars      int     `json:"duration_bars"`
}

// TimeRange is a section's time-domain extent.
type TimeRange struct {
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	DurationBars int     `json:"duration_bars"`
}

// Section is a contiguous, labeled span of frames.
type Section struct {
	SectionID string `json:"section_id"`

	StartFrame int `json:"-"`
	EndFrame   int `json:"-"`

	ClusterID int `json:"cluster_id"`

	// HardBoundaryStart marks that StartFrame was inserted by MFCC
	// refinement and must never be merged away.
	HardBoundaryStart bool `json:"-"`

	TimeRange         TimeRange         `json:"time_range"`
	HarmonicDNA       HarmonicDNA       `json:"harmonic_dna"`
	RhythmicDNA       RhythmicDNA       `json:"rhythmic_dna"`
	SemanticSignature SemanticSignature `json:"semantic_signature"`

	SectionLabel   string  `json:"section_label"`
	SectionVariant int     `json:"section_variant"`
	LabelConfidence float64 `json:"label_confidence"`
	LabelReason     string  `json:"label_reason"`
}

// Clone returns a deep-enough copy of the section for pass chains that must
// never alias a previous pass's slice contents.
func (s Section) Clone() Section {
	out := s
	out.HarmonicDNA.Progression = append([]ChordSlot(nil), s.HarmonicDNA.Progression...)
	out.RhythmicDNA.PulsePattern = append([]float64(nil), s.RhythmicDNA.PulsePattern...)
	return out
}

// Peak is one accepted novelty-curve peak.
type Peak struct {
	Frame    int     `json:"frame"`
	Strength float64 `json:"strength"`
}

// ScaleDebug is one novelty-curve scale's diagnostic curve.
type ScaleDebug struct {
	Label  string    `json:"label"`
	Size   int       `json:"size"`
	Curve  []float64 `json:"curve"`
	MaxVal float64   `json:"maxVal"`
}

// Debug carries read-only diagnostic curves for visualization/tests.
type Debug struct {
	FrameHop     float64      `json:"frame_hop"`
	NoveltyCurve []float64    `json:"noveltyCurve"`
	Threshold    []float64    `json:"threshold"`
	Peaks        []Peak       `json:"peaks"`
	Scales       []ScaleDebug `json:"scales"`
}

// StructuralMap is the pipeline's final, immutable output artifact.
type StructuralMap struct {
	Sections []Section `json:"sections"`
	Debug    Debug      `json:"debug"`
}

// TotalFrames returns the frame index one past the final section's end, or
// 0 for an empty map.
func (m *StructuralMap) TotalFrames() int {
	if m == nil || len(m.Sections) == 0 {
		return 0
	}
	return m.Sections[len(m.Sections)-1].EndFrame
}
