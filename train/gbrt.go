package train

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// GBRT is a gradient-boosted ensemble of depth-limited regression trees
// fit on squared error. JSON-serializable as the exported model artifact.
type GBRT struct {
	Base         float64     `json:"base"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*TreeNode `json:"trees"`
}

// TreeNode is one node of a regression tree. Leaves carry the predicted
// residual; internal nodes route on feature <= threshold.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Fit trains a boosted ensemble on the encoded matrix and price vector.
func Fit(matrix [][]float64, target []float64, cfg Config) (*GBRT, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("empty training matrix")
	}
	if len(matrix) != len(target) {
		return nil, fmt.Errorf("matrix rows (%d) != targets (%d)", len(matrix), len(target))
	}
	if cfg.Rounds < 1 || cfg.TreeDepth < 1 || cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid training config: %+v", cfg)
	}
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}

	width := len(matrix[0])
	for i, row := range matrix {
		if len(row) != width {
			return nil, fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), width)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	model := &GBRT{
		Base:         mean(target),
		LearningRate: cfg.LearningRate,
	}

	pred := make([]float64, len(target))
	for i := range pred {
		pred[i] = model.Base
	}

	residual := make([]float64, len(target))
	for round := 0; round < cfg.Rounds; round++ {
		for i := range target {
			residual[i] = target[i] - pred[i]
		}

		sample := sampleIndices(rng, len(target), cfg.Subsample)
		tree := buildTree(matrix, residual, sample, cfg, rng, cfg.TreeDepth)
		model.Trees = append(model.Trees, tree)

		for i, row := range matrix {
			pred[i] += cfg.LearningRate * tree.predict(row)
		}
	}

	return model, nil
}

// Predict sums the base prediction and every tree's shrunken contribution.
func (m *GBRT) Predict(features []float64) float64 {
	pred := m.Base
	for _, tree := range m.Trees {
		pred += m.LearningRate * tree.predict(features)
	}
	return pred
}

func (n *TreeNode) predict(features []float64) float64 {
	node := n
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func buildTree(matrix [][]float64, residual []float64, indices []int, cfg Config, rng *rand.Rand, depth int) *TreeNode {
	if depth == 0 || len(indices) < 2*cfg.MinLeaf {
		return &TreeNode{Leaf: true, Value: meanAt(residual, indices)}
	}

	feature, threshold, ok := bestSplit(matrix, residual, indices, cfg, rng)
	if !ok {
		return &TreeNode{Leaf: true, Value: meanAt(residual, indices)}
	}

	var left, right []int
	for _, idx := range indices {
		if matrix[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(matrix, residual, left, cfg, rng, depth-1),
		Right:     buildTree(matrix, residual, right, cfg, rng, depth-1),
	}
}

// bestSplit scans candidate features for the threshold minimizing the
// summed squared error of the two children, via a sorted prefix-sum sweep.
func bestSplit(matrix [][]float64, residual []float64, indices []int, cfg Config, rng *rand.Rand) (int, float64, bool) {
	width := len(matrix[0])
	features := sampleFeatures(rng, width, cfg.FeatureSubsample)

	var (
		bestFeature   int
		bestThreshold float64
		bestScore     = math.Inf(1)
		found         bool
	)

	sorted := make([]int, len(indices))
	for _, feature := range features {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return matrix[sorted[a]][feature] < matrix[sorted[b]][feature]
		})

		var leftSum, leftSq float64
		totalSum, totalSq := sumsAt(residual, sorted)

		for i := 0; i < len(sorted)-1; i++ {
			r := residual[sorted[i]]
			leftSum += r
			leftSq += r * r

			cur, next := matrix[sorted[i]][feature], matrix[sorted[i+1]][feature]
			if cur == next {
				continue
			}

			nLeft, nRight := i+1, len(sorted)-i-1
			if nLeft < cfg.MinLeaf || nRight < cfg.MinLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			score := (leftSq - leftSum*leftSum/float64(nLeft)) +
				(rightSq - rightSum*rightSum/float64(nRight))

			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	if fraction <= 0 || fraction >= 1 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	k := int(math.Max(1, math.Round(fraction*float64(n))))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func sampleFeatures(rng *rand.Rand, width int, fraction float64) []int {
	if fraction <= 0 || fraction >= 1 {
		features := make([]int, width)
		for i := range features {
			features[i] = i
		}
		return features
	}

	k := int(math.Max(1, math.Round(fraction*float64(width))))
	perm := rng.Perm(width)[:k]
	sort.Ints(perm)
	return perm
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, idx := range indices {
		sum += values[idx]
	}
	return sum / float64(len(indices))
}

func sumsAt(values []float64, indices []int) (sum, sumSq float64) {
	for _, idx := range indices {
		v := values[idx]
		sum += v
		sumSq += v * v
	}
	return sum, sumSq
}
