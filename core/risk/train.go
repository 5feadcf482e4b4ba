package risk

import (
	"math"
	"math/rand"
	"sort"
)

// Sample is one labeled training observation.
type Sample struct {
	Features FeatureVector
	Label    int
}

// GenerateTrainingData synthesizes n labeled samples. Labels come from an
// additive rule score over the same bands the factor explanations use; the
// forest then learns a smooth approximation of those rules.
func GenerateTrainingData(n int, rng *rand.Rand) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		gpa := 2.0 + rng.Float64()*8.0
		attendance := float64(20 + rng.Intn(80))
		avgInternal := 5.0 + rng.Float64()*45.0
		upcDays := float64(rng.Intn(10))
		var hasUPC float64
		if rng.Float64() < 0.6 {
			hasUPC = 1
		}

		var score float64
		if gpa < 4 {
			score += 40
		} else if gpa < 6 {
			score += 20
		}
		if attendance < 50 {
			score += 40
		} else if attendance < 75 {
			score += 20
		}
		if pct := avgInternal / 50 * 100; pct < 40 {
			score += 30
		} else if pct < 60 {
			score += 15
		}
		if hasUPC == 1 {
			if upcPct := upcDays / 10 * 100; upcPct < 50 {
				score += 20
			} else if upcPct < 70 {
				score += 10
			}
		}

		label := 0
		if score >= 70 {
			label = 2
		} else if score >= 40 {
			label = 1
		}

		samples[i] = Sample{
			Features: FeatureVector{gpa, attendance, avgInternal, upcDays * hasUPC, hasUPC},
			Label:    label,
		}
	}
	return samples
}

// TrainForest fits numTrees CART trees on bootstrap resamples of the data,
// with a random feature subset considered at each split.
func TrainForest(samples []Sample, numTrees, maxDepth int, rng *rand.Rand) *Forest {
	forest := &Forest{Trees: make([]*TreeNode, 0, numTrees)}
	for t := 0; t < numTrees; t++ {
		boot := make([]Sample, len(samples))
		for i := range boot {
			boot[i] = samples[rng.Intn(len(samples))]
		}
		forest.Trees = append(forest.Trees, growTree(boot, maxDepth, rng))
	}
	return forest
}

func growTree(samples []Sample, depth int, rng *rand.Rand) *TreeNode {
	counts := classCounts(samples)
	if depth == 0 || isPure(counts) || len(samples) < 2 {
		return leaf(counts, len(samples))
	}

	feature, threshold, ok := bestSplit(samples, rng)
	if !ok {
		return leaf(counts, len(samples))
	}

	var left, right []Sample
	for _, s := range samples {
		if s.Features[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf(counts, len(samples))
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(left, depth-1, rng),
		Right:     growTree(right, depth-1, rng),
	}
}

// bestSplit searches a random sqrt-sized feature subset for the gini-optimal
// threshold, taken from midpoints between adjacent distinct values.
func bestSplit(samples []Sample, rng *rand.Rand) (int, float64, bool) {
	numCandidates := int(math.Ceil(math.Sqrt(numFeatures)))
	perm := rng.Perm(numFeatures)[:numCandidates]

	bestGini := math.Inf(1)
	var bestFeature int
	var bestThreshold float64
	var found bool

	for _, f := range perm {
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.Features[f]
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2
			if g := splitGini(samples, f, threshold); g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// splitGini is the size-weighted gini impurity of the two split halves.
func splitGini(samples []Sample, feature int, threshold float64) float64 {
	var leftCounts, rightCounts [NumClasses]int
	var leftN, rightN int
	for _, s := range samples {
		if s.Features[feature] <= threshold {
			leftCounts[s.Label]++
			leftN++
		} else {
			rightCounts[s.Label]++
			rightN++
		}
	}
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftCounts, leftN) +
		float64(rightN)/total*gini(rightCounts, rightN)
}

func gini(counts [NumClasses]int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func classCounts(samples []Sample) [NumClasses]int {
	var counts [NumClasses]int
	for _, s := range samples {
		counts[s.Label]++
	}
	return counts
}

func isPure(counts [NumClasses]int) bool {
	var nonZero int
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func leaf(counts [NumClasses]int, n int) *TreeNode {
	dist := make([]float64, NumClasses)
	if n > 0 {
		for c, count := range counts {
			dist[c] = float64(count) / float64(n)
		}
	}
	return &TreeNode{Feature: -1, Dist: dist}
}
