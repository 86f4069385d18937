package listener

import (
	"gonum.org/v1/gonum/stat"
)

// krumhanslMajor and krumhanslMinor are the classic Krumhansl-Kessler key
// profiles (C-rooted), standard published constants; not grounded on a
// pack file since no example repo implements key detection.
var krumhanslMajor = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
var krumhanslMinor = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}

// detectKey correlates the mean chroma vector against all 24 rotations of
// the major/minor Krumhansl profiles and returns the best match as a
// pitch-class root (0=C) plus mode ("major"/"minor"); confidence is the
// best Pearson correlation r mapped to (r+1)/2.
func detectKey(meanChroma [12]float64) (root int, mode string, confidence float64) {
	bestScore := -2.0
	bestRoot := 0
	bestMode := "major"

	chromaSlice := meanChroma[:]

	for rot := 0; rot < 12; rot++ {
		majProfile := rotateProfile(krumhanslMajor, rot)
		minProfile := rotateProfile(krumhanslMinor, rot)

		majScore := stat.Correlation(chromaSlice, majProfile[:], nil)
		minScore := stat.Correlation(chromaSlice, minProfile[:], nil)

		if majScore > bestScore {
			bestScore = majScore
			bestRoot = rot
			bestMode = "major"
		}
		if minScore > bestScore {
			bestScore = minScore
			bestRoot = rot
			bestMode = "minor"
		}
	}

	confidence = (bestScore + 1) / 2 // map correlation [-1,1] to [0,1]
	return bestRoot, bestMode, confidence
}

// rotateProfile rotates a C-rooted key profile so index i holds the weight
// for pitch class i, for a key rooted at pitch class `root`.
func rotateProfile(profile [12]float64, root int) [12]float64 {
	var out [12]float64
	for pc := 0; pc < 12; pc++ {
		out[pc] = profile[(pc-root+12)%12]
	}
	return out
}
