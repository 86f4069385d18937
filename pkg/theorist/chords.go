// Package theorist implements the music-theory correction stage (spec.md
// §4.3): per-section chord-sequence extraction, cadence-aware glue passes,
// progression-similarity grouping, and multi-factor semantic labeling.
package theorist

import "github.com/beatlab/structuralmap/pkg/model"

// sectionEvents returns every chord-candidate event whose timestamp falls
// inside [start, end] seconds (spec.md §4.3.1).
func sectionEvents(events []model.Event, start, end float64) []model.Event {
	out := make([]model.Event, 0)
	for _, e := range events {
		if e.Type != model.ChordCandidateEvent || e.ChordCandidate == nil {
			continue
		}
		if e.Timestamp < start || e.Timestamp > end {
			continue
		}
		out = append(out, e)
	}
	return out
}

// chordRootSequence maps a section's chord events to a root pitch-class
// sequence for progression-similarity comparisons (spec.md §4.3.3). A
// no-chord ("N") event contributes -1.
func chordRootSequence(events []model.Event) []int {
	out := make([]int, 0, len(events))
	for _, e := range events {
		c := e.ChordCandidate
		if c == nil || len(c.QualityCandidates) == 0 || c.TopQuality() == "N" {
			out = append(out, -1)
			continue
		}
		out = append(out, int(c.TopRoot()))
	}
	return out
}

// buildProgression converts a section's chord events into the roman-numeral
// progression stored on HarmonicDNA.Progression (spec.md §4.2's harmonic_dna
// field), relative to the given key.
func buildProgression(events []model.Event, keyRoot int, mode string, secondsPerBeat float64) []model.ChordSlot {
	out := make([]model.ChordSlot, 0, len(events))
	for i, e := range events {
		c := e.ChordCandidate
		if c == nil {
			continue
		}
		root := c.TopRoot()
		quality := c.TopQuality()

		roman, function := "?", "other"
		if degree, ok := scaleDegree(int(root), keyRoot, mode); ok {
			roman = romanNumeral(degree, quality)
			function = degreeFunction(degree)
		}

		duration := secondsPerBeat
		if secondsPerBeat > 0 {
			if i+1 < len(events) {
				duration = (events[i+1].Timestamp - e.Timestamp) / secondsPerBeat
			}
		}
		if duration <= 0 {
			duration = 1
		}

		out = append(out, model.ChordSlot{
			RomanNumeral:  roman,
			Function:      function,
			Root:          root,
			Quality:       quality,
			DurationBeats: duration,
			Confidence:    c.Confidence,
		})
	}
	return out
}

var majorDegreeIntervals = map[int]int{0: 1, 2: 2, 4: 3, 5: 4, 7: 5, 9: 6, 11: 7}
var minorDegreeIntervals = map[int]int{0: 1, 2: 2, 3: 3, 5: 4, 7: 5, 8: 6, 10: 7}

// scaleDegree maps a chromatic root to a diatonic scale degree (1-7)
// relative to keyRoot/mode, natural-minor for minor keys. Non-diatonic
// roots (chromatic borrowings, secondary dominants) report ok=false.
func scaleDegree(root, keyRoot int, mode string) (degree int, ok bool) {
	if root < 0 {
		return 0, false
	}
	interval := ((root-keyRoot)%12 + 12) % 12
	table := majorDegreeIntervals
	if mode == "minor" {
		table = minorDegreeIntervals
	}
	d, found := table[interval]
	return d, found
}

var romanNumerals = [8]string{"", "I", "II", "III", "IV", "V", "VI", "VII"}

// romanNumeral renders a scale degree + chord quality as a roman numeral,
// upper-case for major-flavored qualities and lower-case for minor ones,
// with the usual figured-bass-style suffix.
func romanNumeral(degree int, quality string) string {
	if degree < 1 || degree > 7 {
		return "?"
	}
	numeral := romanNumerals[degree]
	switch quality {
	case "min", "min7":
		numeral = lowerRoman(numeral)
	case "sus4":
		// sus4 chords have no inherent third; the numeral stays
		// upper-case whatever the degree.
	}
	switch quality {
	case "dom7":
		numeral += "7"
	case "maj7":
		numeral += "maj7"
	case "min7":
		numeral += "7"
	case "sus4":
		numeral += "sus4"
	}
	return numeral
}

func lowerRoman(numeral string) string {
	out := make([]byte, len(numeral))
	for i := 0; i < len(numeral); i++ {
		c := numeral[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// degreeFunction buckets a scale degree into the usual tonic/subdominant/
// dominant harmonic-function groups.
func degreeFunction(degree int) string {
	switch degree {
	case 1, 6:
		return "tonic"
	case 2, 4:
		return "subdominant"
	case 5, 7:
		return "dominant"
	default:
		return "other"
	}
}
