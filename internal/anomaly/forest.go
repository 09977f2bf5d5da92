package anomaly

import (
	"math"
	"math/rand"
)

// eulerMascheroni is the constant term in the harmonic-number
// approximation used by the average-path-length normalizer.
const eulerMascheroni = 0.5772156649

// isolationTree is one randomly-partitioned binary tree; a point's
// path length to its isolating leaf is the anomaly signal.
type isolationTree struct {
	isLeaf     bool
	size       int
	splitAttr  int
	splitValue float64
	left       *isolationTree
	right      *isolationTree
}

func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	harmonic := math.Log(float64(n-1)) + eulerMascheroni
	return 2*harmonic - (2 * float64(n-1) / float64(n))
}

func buildIsolationTree(data [][]float64, height, heightLimit int, rng *rand.Rand) *isolationTree {
	if len(data) <= 1 || height >= heightLimit {
		return &isolationTree{isLeaf: true, size: len(data)}
	}

	numAttrs := len(data[0])
	attr := rng.Intn(numAttrs)

	min, max := data[0][attr], data[0][attr]
	for _, row := range data[1:] {
		if row[attr] < min {
			min = row[attr]
		}
		if row[attr] > max {
			max = row[attr]
		}
	}
	if min == max {
		return &isolationTree{isLeaf: true, size: len(data)}
	}

	splitValue := min + rng.Float64()*(max-min)
	var left, right [][]float64
	for _, row := range data {
		if row[attr] < splitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &isolationTree{
		splitAttr:  attr,
		splitValue: splitValue,
		left:       buildIsolationTree(left, height+1, heightLimit, rng),
		right:      buildIsolationTree(right, height+1, heightLimit, rng),
	}
}

func pathLength(point []float64, tree *isolationTree, height int) float64 {
	if tree.isLeaf {
		return float64(height) + averagePathLength(tree.size)
	}
	if point[tree.splitAttr] < tree.splitValue {
		return pathLength(point, tree.left, height+1)
	}
	return pathLength(point, tree.right, height+1)
}

// IsolationForest is a from-scratch reimplementation of the
// random-partitioning ensemble: anomalies isolate in fewer splits
// than typical points, so a short average path length across the
// ensemble signals an outlier.
type IsolationForest struct {
	trees      []*isolationTree
	sampleSize int
}

const defaultEstimators = 100

// NewIsolationForest fits an ensemble of defaultEstimators trees, each
// over an independent random subsample of data (bootstrap size
// min(256, len(data)), matching the library default this stands in for).
func NewIsolationForest(data [][]float64, seed int64) *IsolationForest {
	sampleSize := len(data)
	if sampleSize > 256 {
		sampleSize = 256
	}
	heightLimit := int(math.Ceil(math.Log2(math.Max(float64(sampleSize), 2))))

	rng := rand.New(rand.NewSource(seed))
	trees := make([]*isolationTree, 0, defaultEstimators)
	for i := 0; i < defaultEstimators; i++ {
		sample := sampleRows(data, sampleSize, rng)
		trees = append(trees, buildIsolationTree(sample, 0, heightLimit, rng))
	}

	return &IsolationForest{trees: trees, sampleSize: sampleSize}
}

func sampleRows(data [][]float64, n int, rng *rand.Rand) [][]float64 {
	if n >= len(data) {
		out := make([][]float64, len(data))
		copy(out, data)
		return out
	}
	perm := rng.Perm(len(data))
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = data[perm[i]]
	}
	return out
}

// RawScore is the classical isolation-forest anomaly score in (0,1):
// values near 1 mean the point isolated in very few splits (an
// outlier), values near 0.5 mean it behaved like a typical point.
func (f *IsolationForest) RawScore(point []float64) float64 {
	total := 0.0
	for _, t := range f.trees {
		total += pathLength(point, t, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/averagePathLength(f.sampleSize))
}
