package architect

import (
	"fmt"
	"sort"

	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
)

// Detect runs the full structure-detection pipeline (spec.md §4.2): beat-
// synchronous chroma reduction, SSM construction, tempo-adaptive multi-
// scale novelty, adaptive peak picking, MFCC hard-boundary refinement,
// beat-grid snapping, SSM-threshold clustering, and the three merge
// passes. It is a pure function of frames/beatGrid/cfg; no persistent
// state survives a call (spec.md §4.2's "State" paragraph). Grounded on
// `pkg/analysis/mixx_analyzer.go`'s `SegmenterConfig`/
// `DefaultSegmenterConfig` pattern for the orchestrator shape (typed
// config in, typed result out, one pure top-level function).
func Detect(frames *model.FrameSet, beatGrid *model.BeatGrid, cfg config.Config) (*model.StructuralMap, error) {
	if frames == nil || beatGrid == nil {
		return nil, fmt.Errorf("architect: frames and beatGrid are required")
	}
	totalFrames := frames.NumFrames()
	if totalFrames == 0 {
		return nil, fmt.Errorf("architect: empty frame set")
	}
	if beatGrid.NumBeats() == 0 {
		return degenerateMap(totalFrames), nil
	}

	reduced := beatSynchronousChroma(frames, beatGrid, cfg.DownsampleFactor)
	if reduced.N() == 0 {
		return degenerateMap(totalFrames), nil
	}

	S := selfSimilarityMatrix(reduced)

	tc := classifyTempo(beatGrid.TempoBPM)
	kernelSizes := tc.kernelSizes
	if len(cfg.NoveltyKernelSizes) > 0 {
		kernelSizes = cfg.NoveltyKernelSizes
	}
	sensitivity := tc.sensitivity
	if cfg.AdaptiveSensitivity > 0 {
		sensitivity = cfg.AdaptiveSensitivity
	}
	minSectionSec := minSectionSeconds(tc, beatGrid.TempoBPM)

	novelty, scaleCurves := multiScaleNovelty(S, kernelSizes)

	reducedFrameSeconds := reducedResolutionSeconds(frames.FrameHop, beatGrid, reduced)
	peaks, threshold := pickPeaks(novelty, reducedFrameSeconds, sensitivity, minSectionSec, cfg.ForceOverSeg)

	boundaries := boundariesFromPeaks(peaks, reduced.N())

	hardBoundaries := findHardBoundaries(reduced, reducedFrameSeconds, boundaries, cfg)

	snappedReducedIdx, snappedHard := snapToGrid(boundaries, hardBoundaries, reduced.N())

	rawSections := assignClusters(S, snappedReducedIdx, snappedHard, cfg.SimilarityThreshold)

	cache := newMeanCache(1000)
	rawSections = mergeMicroSegments(rawSections, reduced, cache, frames.FrameHop, cfg.MicroSegmentSec, snappedHard, cfg.MinSectionsStop)
	rawSections = mergeSimilarSections(rawSections, reduced, cache, frames.FrameHop, mergeThresholds{
		ExactChroma: cfg.ExactChromaThreshold,
		ExactMFCC:   cfg.ExactMFCCThreshold,
		LongChroma:  cfg.LongChromaRequired,
		LongMFCC:    cfg.LongMFCCRequired,
	}, snappedHard, cfg.MinSectionsStop)
	rawSections = mergeAcousticClusters(rawSections, reduced, snappedHard, cfg.MinSectionsStop)

	sections := toModelSections(rawSections, reduced, frames.FrameHop, snappedHard, totalFrames, beatGrid)
	if len(sections) == 1 {
		// No interior boundary survived: the single section gets the same
		// label and confidence as degenerateMap's.
		sections[0].SectionLabel = "verse"
		sections[0].LabelConfidence = 0.5
	}

	sm := &model.StructuralMap{
		Sections: sections,
		Debug: model.Debug{
			FrameHop:     frames.FrameHop,
			NoveltyCurve: novelty,
			Threshold:    threshold,
			Peaks:        peaks,
			Scales:       debugScales(kernelSizes, scaleCurves),
		},
	}

	if err := model.CheckInvariants(sm.Sections, totalFrames, model.MinSectionFrames, false); err != nil {
		return nil, fmt.Errorf("architect: assertion: %w", err)
	}

	return sm, nil
}

// degenerateMap synthesizes the single full-duration "verse" section
// spec.md §7's DegenerateStructure taxonomy requires when fewer than 2
// boundaries survive (no usable beats, or an empty reduced signal) — never
// a partially populated map, and never passed to the Theorist.
func degenerateMap(totalFrames int) *model.StructuralMap {
	return &model.StructuralMap{
		Sections: []model.Section{{
			SectionID:       "section-0",
			StartFrame:      0,
			EndFrame:        totalFrames,
			ClusterID:       0,
			SectionLabel:    "verse",
			SectionVariant:  1,
			LabelConfidence: 0.5,
			TimeRange:       model.TimeRange{StartTime: 0, DurationBars: 0},
		}},
	}
}

func reducedResolutionSeconds(frameHop float64, beatGrid *model.BeatGrid, r reducedSignal) float64 {
	if r.N() == 0 {
		return frameHop
	}
	totalFrames := 0
	if len(r.BeatEndFrame) > 0 {
		totalFrames = r.BeatEndFrame[len(r.BeatEndFrame)-1] - r.BeatStartFrame[0]
	}
	if totalFrames <= 0 {
		return frameHop
	}
	return float64(totalFrames) * frameHop / float64(r.N())
}

func boundariesFromPeaks(peaks []model.Peak, n int) []int {
	boundaries := make([]int, 0, len(peaks)+2)
	boundaries = append(boundaries, 0)
	for _, p := range peaks {
		boundaries = append(boundaries, p.Frame)
	}
	boundaries = append(boundaries, n)
	sort.Ints(boundaries)
	return boundaries
}

// findHardBoundaries applies MFCC-refinement (spec.md §4.2.5) to every
// section implied by the raw boundary list, inserting new hard boundaries
// where a strong timbre/energy discontinuity survives the interior
// search. Operates at the Architect's reduced (beat-synchronous)
// resolution, translating the inserted index back to an original frame
// index via reducedSignal.BeatStartFrame.
func findHardBoundaries(r reducedSignal, reducedFrameSeconds float64, boundaries []int, cfg config.Config) map[int]bool {
	hard := make(map[int]bool)
	for i := 0; i < len(boundaries)-1; i++ {
		start, end := boundaries[i], boundaries[i+1]
		if start < 0 || end > len(r.MFCC) || end <= start {
			continue
		}
		idx, ok := refineHardBoundaries(r.MFCC, r.RMS, reducedFrameSeconds, cfg.MFCCSensitivity, cfg.MFCCFloor, start, end)
		if ok {
			hard[r.BeatStartFrame[clampIndex(idx, len(r.BeatStartFrame)-1)]] = true
		}
	}
	return hard
}

func maxFloatSlice(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

func toModelSections(raw []rawSection, r reducedSignal, frameHop float64, hardBoundaries map[int]bool, totalFrames int, beatGrid *model.BeatGrid) []model.Section {
	sort.Slice(raw, func(i, j int) bool { return raw[i].Start < raw[j].Start })

	beatsPerBar := beatGrid.TimeSignature.Numerator
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	secondsPerBeat := 0.5
	if beatGrid.TempoBPM > 0 {
		secondsPerBeat = 60.0 / beatGrid.TempoBPM
	}

	sections := make([]model.Section, 0, len(raw))
	for idx, rs := range raw {
		startFrame := r.BeatStartFrame[clampIndex(rs.Start, len(r.BeatStartFrame)-1)]
		endFrame := totalFrames
		if rs.End-1 < len(r.BeatEndFrame) {
			endFrame = r.BeatEndFrame[clampIndex(rs.End-1, len(r.BeatEndFrame)-1)]
		}
		if idx == len(raw)-1 {
			endFrame = totalFrames
		}

		rms := meanRMS(r, rs.Start, rs.End)
		durationSeconds := float64(endFrame-startFrame) * frameHop
		durationBars := 0
		if secondsPerBeat > 0 && beatsPerBar > 0 {
			durationBars = int(durationSeconds / (secondsPerBeat * float64(beatsPerBar)))
		}

		sections = append(sections, model.Section{
			SectionID:         fmt.Sprintf("section-%d", idx),
			StartFrame:        startFrame,
			EndFrame:          endFrame,
			ClusterID:         rs.ClusterID,
			HardBoundaryStart: hardBoundaries[startFrame],
			// SectionLabel/SectionVariant are placeholders; the Theorist
			// assigns the real semantic label (spec.md §4.3.4).
			SectionLabel:   "unlabeled",
			SectionVariant: 1,
			TimeRange: model.TimeRange{
				StartTime:    float64(startFrame) * frameHop,
				EndTime:      float64(endFrame) * frameHop,
				DurationBars: durationBars,
			},
			RhythmicDNA: model.RhythmicDNA{
				TimeSignature: beatGrid.TimeSignature,
				TempoBPM:      beatGrid.TempoBPM,
			},
			SemanticSignature: model.SemanticSignature{
				AvgRMS:          rms,
				DurationSeconds: durationSeconds,
				DurationBars:    durationBars,
			},
		})
	}

	if len(sections) > 0 {
		sections[0].StartFrame = 0
		sections[0].TimeRange.StartTime = 0
		sections[len(sections)-1].EndFrame = totalFrames
	}

	return sections
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

func debugScales(kernelSizes []int, scaleCurves map[int][]float64) []model.ScaleDebug {
	out := make([]model.ScaleDebug, 0, len(kernelSizes))
	for _, k := range kernelSizes {
		curve := scaleCurves[k]
		out = append(out, model.ScaleDebug{
			Label: fmt.Sprintf("scale-%d", k),
			Size:  k,
			Curve: curve,
			MaxVal: maxFloatSlice(curve),
		})
	}
	return out
}
