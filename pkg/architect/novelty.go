package architect

import (
	"math"

	"github.com/beatlab/structuralmap/internal/dsp"
)

// tempoClass names the five tempo buckets of spec.md §4.2.3's table.
type tempoClass struct {
	name             string
	kernelSizes      []int
	sensitivity      float64
	minSectionFactor float64 // multiplied by 120/bpm to get min section seconds
}

var tempoClasses = []struct {
	maxBPM float64
	class  tempoClass
}{
	{80, tempoClass{"slow", []int{7, 11, 19}, 1.8, 3.0}},
	{100, tempoClass{"moderate", []int{5, 9, 15}, 1.5, 3.0}},
	{140, tempoClass{"normal", []int{5, 9, 13}, 1.2, 3.0}},
	{180, tempoClass{"fast", []int{3, 7, 11}, 1.0, 3.0}},
	{math.MaxFloat64, tempoClass{"very_fast", []int{3, 5, 9}, 0.8, 3.0}},
}

// classifyTempo picks the tempo-adaptive kernel/sensitivity set for a bpm
// (spec.md §4.2.3's table).
func classifyTempo(bpm float64) tempoClass {
	for _, c := range tempoClasses {
		if bpm < c.maxBPM {
			return c.class
		}
	}
	return tempoClasses[len(tempoClasses)-1].class
}

func minSectionSeconds(class tempoClass, bpm float64) float64 {
	if bpm <= 0 {
		bpm = 120
	}
	return class.minSectionFactor * 120.0 / bpm
}

const scaleWeight5 = 0.25
const scaleWeight9 = 0.5
const scaleWeight17 = 0.25

// checkerboardKernel builds a Gaussian-tapered checkerboard (Foote) kernel
// of odd size K, zero-mean, sign +1 on diagonal quadrants and -1 on
// anti-diagonal quadrants (spec.md §4.2.3).
func checkerboardKernel(k int) [][]float64 {
	if k%2 == 0 {
		k++
	}
	half := k / 2
	sigma := float64(k) / 6.0
	kernel := make([][]float64, k)
	var sum float64
	for dy := -half; dy <= half; dy++ {
		row := make([]float64, k)
		for dx := -half; dx <= half; dx++ {
			gauss := math.Exp(-float64(dx*dx+dy*dy) / (2 * sigma * sigma))
			sign := 1.0
			if (dx < 0 && dy >= 0) || (dx >= 0 && dy < 0) {
				sign = -1.0
			}
			v := sign * gauss
			row[dx+half] = v
			sum += v
		}
		kernel[dy+half] = row
	}

	mean := sum / float64(k*k)
	for y := range kernel {
		for x := range kernel[y] {
			kernel[y][x] -= mean
		}
	}
	return kernel
}

// noveltyAtScale convolves the checkerboard kernel of size k along the SSM
// diagonal, rectifying and normalizing the result to [0,1] by its own max.
func noveltyAtScale(S [][]float64, k int) []float64 {
	n := len(S)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	kernel := checkerboardKernel(k)
	half := len(kernel) / 2

	for p := 0; p < n; p++ {
		var sum float64
		count := 0
		for dy := -half; dy <= half; dy++ {
			i := p + dy
			if i < 0 || i >= n {
				continue
			}
			row := kernel[dy+half]
			for dx := -half; dx <= half; dx++ {
				j := p + dx
				if j < 0 || j >= n {
					continue
				}
				sum += S[i][j] * row[dx+half]
				count++
			}
		}
		v := 0.0
		if count > 0 {
			v = sum / float64(count)
		}
		if v < 0 {
			v = 0
		}
		out[p] = v
	}

	maxV := dsp.Max(out)
	if maxV > 0 {
		for i := range out {
			out[i] /= maxV
		}
	}
	return out
}

// multiScaleNovelty computes the novelty curve at each configured scale,
// normalizes each to [0,1], sums with scale weights, then smooths with a
// median filter (width 5) followed by a moving average (width 7)
// (spec.md §4.2.3).
func multiScaleNovelty(S [][]float64, kernelSizes []int) (curve []float64, scaleCurves map[int][]float64) {
	n := len(S)
	curve = make([]float64, n)
	scaleCurves = make(map[int][]float64, len(kernelSizes))

	weights := scaleWeightsFor(len(kernelSizes))
	for idx, k := range kernelSizes {
		sc := noveltyAtScale(S, k)
		scaleCurves[k] = sc
		w := weights[idx]
		for i := range curve {
			curve[i] += w * sc[i]
		}
	}

	curve = dsp.MedianFilter(curve, 5)
	curve = dsp.MovingAverage(curve, 7)
	return curve, scaleCurves
}

func scaleWeightsFor(numScales int) []float64 {
	switch numScales {
	case 3:
		return []float64{scaleWeight5, scaleWeight9, scaleWeight17}
	default:
		w := make([]float64, numScales)
		for i := range w {
			w[i] = 1.0 / float64(numScales)
		}
		return w
	}
}
