package listener

import (
	"sort"

	"github.com/beatlab/structuralmap/internal/dsp"
	"github.com/beatlab/structuralmap/pkg/model"
)

// chordQuality is one of the six triad/seventh qualities in the template
// bank (spec.md §4.1).
type chordQuality struct {
	name      string
	intervals []int // semitones above root that carry weight
	weights   []float64
}

// qualityBank is the 6 qualities x weights, psychoacoustic not binary, per
// spec.md §4.1. The root is interval 0 of every entry and always weighs 1.0.
var qualityBank = []chordQuality{
	{name: "maj", intervals: []int{0, 4, 7}, weights: []float64{1.0, 0.9, 0.85}},
	{name: "min", intervals: []int{0, 3, 7}, weights: []float64{1.0, 0.85, 0.85}},
	{name: "dom7", intervals: []int{0, 4, 7, 10}, weights: []float64{1.0, 0.9, 0.85, 0.75}},
	{name: "maj7", intervals: []int{0, 4, 7, 11}, weights: []float64{1.0, 0.9, 0.85, 0.25}},
	{name: "min7", intervals: []int{0, 3, 7, 10}, weights: []float64{1.0, 0.85, 0.85, 0.75}},
	{name: "sus4", intervals: []int{0, 5, 7}, weights: []float64{1.0, 0.8, 0.85}},
}

// chordTemplate is one of the 72 root x quality templates.
type chordTemplate struct {
	root    int
	quality string
	vector  [12]float64
}

var chordTemplateBank = buildChordTemplateBank()

func buildChordTemplateBank() []chordTemplate {
	templates := make([]chordTemplate, 0, 12*len(qualityBank))
	for root := 0; root < 12; root++ {
		for _, q := range qualityBank {
			var v [12]float64
			for i, interval := range q.intervals {
				pc := (root + interval) % 12
				v[pc] = q.weights[i]
			}
			templates = append(templates, chordTemplate{root: root, quality: q.name, vector: v})
		}
	}
	return templates
}

// diatonicRoots returns the pitch classes diatonic to a key (major or
// natural minor), used for the key-bias boost.
func diatonicRoots(keyRoot int, mode string) map[int]bool {
	majorSteps := []int{0, 2, 4, 5, 7, 9, 11}
	minorSteps := []int{0, 2, 3, 5, 7, 8, 10}
	steps := majorSteps
	if mode == "minor" {
		steps = minorSteps
	}
	out := make(map[int]bool, 7)
	for _, s := range steps {
		out[(keyRoot+s)%12] = true
	}
	return out
}

const keyBiasAdditive = 0.05

// matchChordTemplates scores a beat's chroma vector against all 72
// templates with cosine similarity, optionally boosting diatonic roots
// (spec.md §4.1's key-bias, applied unconditionally whenever a key is
// known), and returns the top-k roots/qualities by aggregated similarity.
func matchChordTemplates(chroma [12]float64, keyRoot int, keyMode string, haveKey bool) (roots []model.RootCandidate, qualities []model.QualityCandidate) {
	var diatonic map[int]bool
	if haveKey {
		diatonic = diatonicRoots(keyRoot, keyMode)
	}

	type scored struct {
		tpl   chordTemplate
		score float64
	}
	scores := make([]scored, len(chordTemplateBank))
	for i, tpl := range chordTemplateBank {
		sim := dsp.CosineSimilarity(chroma[:], tpl.vector[:])
		if haveKey && diatonic[tpl.root] {
			sim += keyBiasAdditive
		}
		scores[i] = scored{tpl: tpl, score: sim}
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	rootTotals := make(map[int]float64)
	qualTotals := make(map[string]float64)
	var total float64
	for _, s := range scores {
		if s.score <= 0 {
			continue
		}
		rootTotals[s.tpl.root] += s.score
		qualTotals[s.tpl.quality] += s.score
		total += s.score
	}
	if total <= 0 {
		total = 1
	}

	roots = topRoots(rootTotals, total, 3)
	qualities = topQualities(qualTotals, total, 3)
	return roots, qualities
}

func topRoots(totals map[int]float64, total float64, k int) []model.RootCandidate {
	type pair struct {
		root int
		prob float64
	}
	pairs := make([]pair, 0, len(totals))
	for r, v := range totals {
		pairs = append(pairs, pair{r, v / total})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].prob > pairs[j].prob })
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	out := make([]model.RootCandidate, len(pairs))
	for i, p := range pairs {
		out[i] = model.RootCandidate{Root: float64(p.root), Prob: p.prob}
	}
	return out
}

func topQualities(totals map[string]float64, total float64, k int) []model.QualityCandidate {
	type pair struct {
		quality string
		prob    float64
	}
	pairs := make([]pair, 0, len(totals))
	for q, v := range totals {
		pairs = append(pairs, pair{q, v / total})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].prob > pairs[j].prob })
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	out := make([]model.QualityCandidate, len(pairs))
	for i, p := range pairs {
		out[i] = model.QualityCandidate{Quality: p.quality, Prob: p.prob}
	}
	return out
}
