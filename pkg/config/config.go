// Package config holds the single typed configuration struct recognized by
// the pipeline (spec.md §6), replacing the source's loose option bag with
// validated, defaulted fields per spec.md §9.
package config

import "fmt"

// ProgressionSimilarityMode selects how theorist.ProgressionSimilarity
// compares two chord-root sequences.
type ProgressionSimilarityMode string

const (
	RotationSliding ProgressionSimilarityMode = "rotationSliding"
	RotationOnly    ProgressionSimilarityMode = "rotationOnly"
	Normalized      ProgressionSimilarityMode = "normalized"
)

// Config is the single typed configuration object accepted by the pipeline.
// Every field corresponds to a row of spec.md §6's configuration table.
type Config struct {
	// DownsampleFactor is the SSM-resolution divisor D, applied to the
	// beat-synchronous chroma, MFCC, RMS, and flux alike.
	DownsampleFactor int

	// NoveltyKernelSizes overrides the tempo-adaptive kernel size table
	// when non-empty; otherwise kernels are chosen from tempo class.
	NoveltyKernelSizes []int

	// AdaptiveSensitivity overrides the tempo-adaptive MAD multiplier when
	// non-zero; otherwise sensitivity is chosen from tempo class.
	AdaptiveSensitivity float64

	// MFCCSensitivity is the hard-boundary sensitivity factor (relative to
	// the global MFCC-novelty max).
	MFCCSensitivity float64

	// MFCCFloor is the absolute MFCC-novelty floor below which no hard
	// boundary is inserted regardless of MFCCSensitivity.
	MFCCFloor float64

	// MergeChromaThreshold is the adjacent-merge chroma similarity cut. It
	// is set by Default and the genre presets, but no pipeline stage reads
	// it: the "short" tier of similar-section merging uses a fixed 0.85.
	MergeChromaThreshold float64

	// MinSectionDurationSec is set by Default and the genre presets, but no
	// pipeline stage reads it; micro-segment merging uses MicroSegmentSec.
	MinSectionDurationSec float64

	// MicroSegmentSec is the micro-segment cleanup threshold (pass 1 of
	// architect merging).
	MicroSegmentSec float64

	// ExactChromaThreshold / ExactMFCCThreshold gate the "medium" tier of
	// similar-section merging.
	ExactChromaThreshold float64
	ExactMFCCThreshold   float64

	// LongChromaRequired / LongMFCCRequired gate the "long" tier of
	// similar-section merging.
	LongChromaRequired float64
	LongMFCCRequired   float64

	// SimilarityThreshold is the SSM cross-block mean similarity cut used
	// by clustering.
	SimilarityThreshold float64

	// ProgressionSimilarityMode selects the progression-similarity
	// algorithm.
	ProgressionSimilarityMode ProgressionSimilarityMode

	// ProgressionSimilarityThreshold gates cadential merges (Pass A).
	// Harmonic-rhythm grouping (Pass C) uses a fixed 0.9 cut instead.
	ProgressionSimilarityThreshold float64

	// AggressiveGroupingThreshold gates the optional Pass D.
	AggressiveGroupingThreshold float64
	EnableAggressiveGrouping    bool

	// MicroMergeBar is the symmetry-pass (Pass B) bar-count threshold.
	MicroMergeBar int

	// ForceOverSeg bypasses peak-picking gating and injects uniformly
	// spaced peaks, for calibration only.
	ForceOverSeg bool

	// MinSectionsStop halts merge/glue passes once this many sections
	// remain.
	MinSectionsStop int

	// WindowShift moves the window over which a beat's stable core is
	// averaged, as a fraction of the beat duration; the average is
	// unweighted (there is no Gaussian weighting). Clamped to
	// [-0.5, 0.5] by Validate — see spec.md §9's open question on this
	// field having been redefined from absolute seconds to a beat-relative
	// fraction.
	WindowShift float64

	// Template selects a named genre preset (applied on top of Default()
	// by WithPreset).
	Template string
}

// Default returns the spec.md §6 default configuration.
func Default() Config {
	return Config{
		DownsampleFactor:               4,
		MFCCSensitivity:                0.25,
		MFCCFloor:                      0.08,
		MergeChromaThreshold:           0.85,
		MinSectionDurationSec:          8.0,
		MicroSegmentSec:                4.0,
		ExactChromaThreshold:           0.95,
		ExactMFCCThreshold:             0.7,
		LongChromaRequired:             0.98,
		LongMFCCRequired:               0.9,
		SimilarityThreshold:            0.6,
		ProgressionSimilarityMode:      RotationSliding,
		ProgressionSimilarityThreshold: 0.75,
		AggressiveGroupingThreshold:    0.6,
		EnableAggressiveGrouping:       false,
		MicroMergeBar:                  2,
		ForceOverSeg:                   false,
		MinSectionsStop:                8,
		WindowShift:                    0,
		Template:                       "default",
	}
}

// Validate clamps/normalizes fields that have an open-ended or historically
// ambiguous range (spec.md §9), and fills any obviously-missing default.
func (c *Config) Validate() error {
	if c.DownsampleFactor < 1 {
		c.DownsampleFactor = 1
	}
	if c.DownsampleFactor > 4 {
		c.DownsampleFactor = 4
	}
	if c.MinSectionsStop < 1 {
		return fmt.Errorf("config: MinSectionsStop must be >= 1")
	}

	// windowShift was redefined from absolute seconds to a beat-relative
	// fraction; clamp rather than reject so a pre-migration caller's stale
	// value degrades gracefully instead of failing the whole analysis.
	if c.WindowShift < -0.5 {
		c.WindowShift = -0.5
	}
	if c.WindowShift > 0.5 {
		c.WindowShift = 0.5
	}

	switch c.ProgressionSimilarityMode {
	case RotationSliding, RotationOnly, Normalized:
	case "":
		c.ProgressionSimilarityMode = RotationSliding
	default:
		return fmt.Errorf("config: unknown ProgressionSimilarityMode %q", c.ProgressionSimilarityMode)
	}

	return nil
}
