// Package tree provides CART decision trees for classification and regression.
package tree

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// node is one node of a fitted tree. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     []float64 // class distribution for classifiers, mean for regressors
	nSamples  int
}

func (n *node) isLeaf() bool { return n.feature < 0 }

// impurity scores a multiset of samples that grows and shrinks one sample
// at a time during the split sweep.
type impurity interface {
	add(i int)
	remove(i int)
	score() float64
	leafValue() []float64
	clone() impurity
}

type builder struct {
	params      treeParams
	X           mat.Matrix
	nFeatures   int
	newCriteria func() impurity
	importances []float64
	nSamples    int
	depth       int
	leaves      int
}

func (b *builder) build(idx []int, depth int) *node {
	all := b.newCriteria()
	for _, i := range idx {
		all.add(i)
	}
	n := &node{feature: -1, value: all.leafValue(), nSamples: len(idx)}
	if depth > b.depth {
		b.depth = depth
	}

	parent := all.score()
	if len(idx) < b.params.minSamplesSplit ||
		(b.params.maxDepth >= 0 && depth >= b.params.maxDepth) ||
		parent <= 1e-12 {
		b.leaves++
		return n
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, math.Inf(1)
	sorted := make([]int, len(idx))
	for f := 0; f < b.nFeatures; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.X.At(sorted[a], f) < b.X.At(sorted[c], f)
		})

		left := b.newCriteria()
		right := all.clone()
		for k := 0; k < len(sorted)-1; k++ {
			left.add(sorted[k])
			right.remove(sorted[k])
			nLeft := k + 1
			nRight := len(sorted) - nLeft
			if nLeft < b.params.minSamplesLeaf || nRight < b.params.minSamplesLeaf {
				continue
			}
			v, next := b.X.At(sorted[k], f), b.X.At(sorted[k+1], f)
			if v == next {
				continue
			}
			score := (float64(nLeft)*left.score() + float64(nRight)*right.score()) / float64(len(sorted))
			if score < bestScore {
				bestFeature, bestThreshold, bestScore = f, v+(next-v)/2, score
			}
		}
	}

	if bestFeature < 0 {
		b.leaves++
		return n
	}

	b.importances[bestFeature] += float64(len(idx)) / float64(b.nSamples) * (parent - bestScore)

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if b.X.At(i, bestFeature) <= bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	n.feature = bestFeature
	n.threshold = bestThreshold
	n.left = b.build(leftIdx, depth+1)
	n.right = b.build(rightIdx, depth+1)
	return n
}

func (b *builder) normalizedImportances() []float64 {
	out := make([]float64, b.nFeatures)
	total := 0.0
	for _, v := range b.importances {
		total += v
	}
	if total == 0 {
		return out
	}
	for i, v := range b.importances {
		out[i] = v / total
	}
	return out
}

// apply walks x down to its leaf. NaN goes right.
func (n *node) apply(x []float64) *node {
	cur := n
	for !cur.isLeaf() {
		if x[cur.feature] <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return cur
}

// classCounts is the gini/entropy criterion over class indices.
type classCounts struct {
	labels  []int
	counts  []float64
	total   float64
	entropy bool
}

func (c *classCounts) add(i int)    { c.counts[c.labels[i]]++; c.total++ }
func (c *classCounts) remove(i int) { c.counts[c.labels[i]]--; c.total-- }

func (c *classCounts) score() float64 {
	if c.total == 0 {
		return 0
	}
	s := 0.0
	for _, n := range c.counts {
		if n == 0 {
			continue
		}
		p := n / c.total
		if c.entropy {
			s -= p * math.Log2(p)
		} else {
			s += p * p
		}
	}
	if c.entropy {
		return s
	}
	return 1 - s
}

func (c *classCounts) leafValue() []float64 {
	out := make([]float64, len(c.counts))
	for i, n := range c.counts {
		out[i] = n / c.total
	}
	return out
}

func (c *classCounts) clone() impurity {
	cp := *c
	cp.counts = append([]float64(nil), c.counts...)
	return &cp
}

// moments is the squared error criterion.
type moments struct {
	y          []float64
	sum, sumSq float64
	n          float64
}

func (m *moments) add(i int)    { m.sum += m.y[i]; m.sumSq += m.y[i] * m.y[i]; m.n++ }
func (m *moments) remove(i int) { m.sum -= m.y[i]; m.sumSq -= m.y[i] * m.y[i]; m.n-- }

func (m *moments) score() float64 {
	if m.n == 0 {
		return 0
	}
	mean := m.sum / m.n
	v := m.sumSq/m.n - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

func (m *moments) leafValue() []float64 {
	if m.n == 0 {
		return []float64{0}
	}
	return []float64{m.sum / m.n}
}

func (m *moments) clone() impurity {
	cp := *m
	return &cp
}
