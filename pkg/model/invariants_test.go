package model

import "testing"

func section(id string, start, end, variant int, label string) Section {
	return Section{
		SectionID:      id,
		StartFrame:     start,
		EndFrame:       end,
		SectionLabel:   label,
		SectionVariant: variant,
	}
}

func TestCheckInvariantsAcceptsContiguousCoverage(t *testing.T) {
	sections := []Section{
		section("s0", 0, 10, 1, "intro"),
		section("s1", 10, 30, 1, "verse"),
		section("s2", 30, 40, 1, "outro"),
	}
	if err := CheckInvariants(sections, 40, 1, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckInvariantsRejectsEmptyList(t *testing.T) {
	if err := CheckInvariants(nil, 10, 1, false); err == nil {
		t.Fatal("expected error for empty section list")
	}
}

func TestCheckInvariantsRejectsGapBetweenSections(t *testing.T) {
	sections := []Section{
		section("s0", 0, 10, 1, "intro"),
		section("s1", 12, 30, 1, "verse"), // gap at [10,12)
	}
	if err := CheckInvariants(sections, 30, 1, false); err == nil {
		t.Fatal("expected error for a coverage gap")
	}
}

func TestCheckInvariantsRejectsOverlappingSections(t *testing.T) {
	sections := []Section{
		section("s0", 0, 10, 1, "intro"),
		section("s1", 8, 30, 1, "verse"), // overlaps the previous section
	}
	if err := CheckInvariants(sections, 30, 1, false); err == nil {
		t.Fatal("expected error for overlapping sections")
	}
}

func TestCheckInvariantsRejectsWrongStart(t *testing.T) {
	sections := []Section{section("s0", 5, 10, 1, "intro")}
	if err := CheckInvariants(sections, 10, 1, false); err == nil {
		t.Fatal("expected error when the first section doesn't start at 0")
	}
}

func TestCheckInvariantsRejectsWrongEnd(t *testing.T) {
	sections := []Section{section("s0", 0, 9, 1, "intro")}
	if err := CheckInvariants(sections, 10, 1, false); err == nil {
		t.Fatal("expected error when the last section doesn't reach totalFrames")
	}
}

func TestCheckInvariantsRejectsZeroLengthSection(t *testing.T) {
	sections := []Section{section("s0", 0, 0, 1, "intro")}
	if err := CheckInvariants(sections, 0, 1, false); err == nil {
		t.Fatal("expected error for a zero-length section")
	}
}

func TestCheckInvariantsRejectsMissingLabel(t *testing.T) {
	sections := []Section{section("s0", 0, 10, 1, "")}
	if err := CheckInvariants(sections, 10, 1, false); err == nil {
		t.Fatal("expected error for a section with no label")
	}
}

func TestCheckInvariantsRejectsVariantBelowOne(t *testing.T) {
	sections := []Section{section("s0", 0, 10, 0, "intro")}
	if err := CheckInvariants(sections, 10, 1, false); err == nil {
		t.Fatal("expected error for a section with variant < 1")
	}
}

func TestCheckInvariantsAllowShortBypassesMinimum(t *testing.T) {
	sections := []Section{section("s0", 0, 1, 1, "intro")}
	if err := CheckInvariants(sections, 1, 5, true); err != nil {
		t.Fatalf("expected allowShort to bypass the minimum length check, got %v", err)
	}
	if err := CheckInvariants(sections, 1, 5, false); err == nil {
		t.Fatal("expected the minimum length check to fire without allowShort")
	}
}

func TestHardBoundariesPreservedAcrossMerge(t *testing.T) {
	before := map[int]bool{0: true, 10: true, 20: true}
	after := []Section{
		section("s0", 0, 20, 1, "intro"), // 10 merged away, 20 kept
		section("s1", 20, 40, 1, "verse"),
	}
	if HardBoundariesPreserved(before, after) {
		t.Fatal("expected false: hard boundary at frame 10 was merged away")
	}

	after = []Section{
		section("s0", 0, 10, 1, "intro"),
		section("s1", 10, 20, 1, "verse"),
		section("s2", 20, 40, 1, "chorus"),
	}
	if !HardBoundariesPreserved(before, after) {
		t.Fatal("expected true: every hard boundary still starts a section")
	}
}
