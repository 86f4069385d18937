package architect

import "github.com/beatlab/structuralmap/internal/dsp"

// ssmWeights are the default fusion weights from spec.md §4.2.2.
const (
	ssmWeightChroma = 0.30
	ssmWeightMFCC   = 0.20
	ssmWeightRMS    = 0.30
	ssmWeightFlux   = 0.20
)

const ssmBlockSize = 64

// selfSimilarityMatrix builds the symmetric N×N self-similarity matrix
// described in spec.md §4.2.2: a weighted blend of chroma/MFCC cosine
// similarity and RMS/flux proximity, only the upper triangle computed and
// mirrored, processed in 64×64 tiles for cache locality.
func selfSimilarityMatrix(r reducedSignal) [][]float64 {
	n := r.N()
	S := make([][]float64, n)
	for i := range S {
		S[i] = make([]float64, n)
	}
	if n == 0 {
		return S
	}

	maxRMS, maxFlux := 1e-9, 1e-9
	for i := 0; i < n; i++ {
		if r.RMS[i] > maxRMS {
			maxRMS = r.RMS[i]
		}
		if r.Flux[i] > maxFlux {
			maxFlux = r.Flux[i]
		}
	}

	for bi := 0; bi < n; bi += ssmBlockSize {
		biEnd := bi + ssmBlockSize
		if biEnd > n {
			biEnd = n
		}
		for bj := bi; bj < n; bj += ssmBlockSize {
			bjEnd := bj + ssmBlockSize
			if bjEnd > n {
				bjEnd = n
			}
			for i := bi; i < biEnd; i++ {
				jStart := bj
				if jStart < i {
					jStart = i
				}
				for j := jStart; j < bjEnd; j++ {
					v := ssmCell(r, i, j, maxRMS, maxFlux)
					S[i][j] = v
					S[j][i] = v
				}
			}
		}
	}

	return S
}

func ssmCell(r reducedSignal, i, j int, maxRMS, maxFlux float64) float64 {
	chromaSim := dsp.CosineSimilarity(r.Chroma[i][:], r.Chroma[j][:])
	mfccSim := dsp.CosineSimilarity(r.MFCC[i][:], r.MFCC[j][:])
	rmsSim := 1 - absFloat(r.RMS[i]-r.RMS[j])/maxRMS
	fluxSim := 1 - absFloat(r.Flux[i]-r.Flux[j])/maxFlux

	v := ssmWeightChroma*chromaSim + ssmWeightMFCC*mfccSim + ssmWeightRMS*rmsSim + ssmWeightFlux*fluxSim
	return dsp.Clamp01(v)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// crossBlockSimilarity computes the mean SSM value over the cross block
// [iStart..iEnd) x [jStart..jEnd), sub-sampled by step (spec.md §4.2.7).
func crossBlockSimilarity(S [][]float64, iStart, iEnd, jStart, jEnd, step int) float64 {
	if step < 1 {
		step = 1
	}
	var sum float64
	count := 0
	for i := iStart; i < iEnd; i += step {
		for j := jStart; j < jEnd; j += step {
			sum += S[i][j]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
