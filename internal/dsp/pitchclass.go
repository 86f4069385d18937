package dsp

import "math"

// logSemitoneRatio is log(2^(1/12)), the natural log of the equal-tempered
// semitone frequency ratio.
const logSemitoneRatio = 0.05776226504666215

// PitchClassNames lists pitch-class names with C = 0, matching this
// codebase's convention (chroma vector index 0 = C).
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FrequencyToPitchClass maps a frequency in Hz to a pitch class in [0, 11]
// with C = 0, using the equal-tempered scale anchored at A4 = 440Hz.
//
// Grounded on other_examples/5ec897c3_malikim-spectre/fingerprint/
// fingerprint.go's noteSteps/freqNote (log(f/440)/log(2^(1/12)) semitone
// count), re-indexed from that file's A-relative numbering to a C-relative
// one so it matches the rest of this codebase's chroma convention.
func FrequencyToPitchClass(freqHz float64) int {
	if freqHz <= 0 {
		return 0
	}
	semitonesFromA4 := math.Log(freqHz/440.0) / logSemitoneRatio
	// A4 is pitch class 9 (C=0); round to nearest semitone and wrap to 0..11.
	pc := int(math.Round(semitonesFromA4)) + 9
	pc %= 12
	if pc < 0 {
		pc += 12
	}
	return pc
}
