package model

import "fmt"

// MinSectionFrames is the default minimum section length in frames, used
// outside force-over-segmentation mode.
const MinSectionFrames = 1

// CheckInvariants validates the structural invariants from spec.md §3 that
// must hold at every stage boundary. totalFrames is the number of frames in
// the original, unsampled frame resolution.
func CheckInvariants(sections []Section, totalFrames int, minSectionFrames int, allowShort bool) error {
	if len(sections) == 0 {
		return fmt.Errorf("invariant: empty section list")
	}

	if sections[0].StartFrame != 0 {
		return fmt.Errorf("invariant: first section must start at frame 0, got %d", sections[0].StartFrame)
	}
	if sections[len(sections)-1].EndFrame != totalFrames {
		return fmt.Errorf("invariant: last section must end at frame %d, got %d", totalFrames, sections[len(sections)-1].EndFrame)
	}

	for i, s := range sections {
		if s.EndFrame <= s.StartFrame {
			return fmt.Errorf("invariant: section %d (%s) has non-positive length [%d,%d)", i, s.SectionID, s.StartFrame, s.EndFrame)
		}
		if !allowShort && s.EndFrame-s.StartFrame < minSectionFrames {
			return fmt.Errorf("invariant: section %d (%s) shorter than minimum %d frames", i, s.SectionID, minSectionFrames)
		}
		if s.SectionLabel == "" {
			return fmt.Errorf("invariant: section %d (%s) has no label", i, s.SectionID)
		}
		if s.SectionVariant < 1 {
			return fmt.Errorf("invariant: section %d (%s) has variant < 1", i, s.SectionID)
		}
		if i > 0 {
			prev := sections[i-1]
			if s.StartFrame != prev.EndFrame {
				return fmt.Errorf("invariant: section %d (%s) does not start where section %d (%s) ends (%d != %d)",
					i, s.SectionID, i-1, prev.SectionID, s.StartFrame, prev.EndFrame)
			}
			if s.StartFrame <= prev.StartFrame {
				return fmt.Errorf("invariant: section start frames not strictly increasing at %d", i)
			}
		}
	}

	return nil
}

// HardBoundaryFrames extracts the set of start frames marked as hard
// boundaries, for preservation checks across merge passes.
func HardBoundaryFrames(sections []Section) map[int]bool {
	out := make(map[int]bool)
	for _, s := range sections {
		if s.HardBoundaryStart {
			out[s.StartFrame] = true
		}
	}
	return out
}

// HardBoundariesPreserved reports whether every hard boundary frame in
// `before` still appears as a section start frame in `after`.
func HardBoundariesPreserved(before map[int]bool, after []Section) bool {
	present := make(map[int]bool, len(after))
	for _, s := range after {
		present[s.StartFrame] = true
	}
	for frame := range before {
		if frame == 0 {
			continue
		}
		if !present[frame] {
			return false
		}
	}
	return true
}
