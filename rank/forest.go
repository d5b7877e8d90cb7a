package rank

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ForestOptions configures the random forest whose leaves embed pieces.
type ForestOptions struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

func DefaultForestOptions() ForestOptions {
	return ForestOptions{Trees: 100, MaxDepth: 5, Seed: 1}
}

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	// leaf is -1 for split nodes
	leaf int
}

type tree struct {
	nodes  []node
	leaves int
}

func (t *tree) apply(x []float64) int {
	i := 0
	for t.nodes[i].leaf < 0 {
		n := t.nodes[i]
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return t.nodes[i].leaf
}

// Forest is a bagged ensemble of entropy trees.
type Forest struct {
	trees []tree
}

// Fit grows opts.Trees trees on bootstrap samples of the rows of x. Classes
// are weighted inversely to their frequency. Each split considers
// sqrt(columns) randomly drawn non-constant columns.
func Fit(x mat.Matrix, labels []int, opts ForestOptions) *Forest {
	rows, cols := x.Dims()
	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, x)
	}
	y, classes := encodeLabels(labels)

	g := &grower{
		data:        data,
		y:           y,
		weights:     balancedWeights(y, classes),
		classes:     classes,
		maxFeatures: max(1, int(math.Sqrt(float64(cols)))),
		maxDepth:    opts.MaxDepth,
		rng:         rand.New(rand.NewSource(opts.Seed)),
	}

	f := &Forest{}
	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, rows)
		for i := range sample {
			sample[i] = g.rng.Intn(rows)
		}
		var tr tree
		g.grow(&tr, sample, 0)
		f.trees = append(f.trees, tr)
	}
	return f
}

// Leaves returns, for each row of x, the leaf it reaches in every tree.
func (f *Forest) Leaves(x mat.Matrix) [][]int {
	rows, _ := x.Dims()
	res := make([][]int, rows)
	for i := range res {
		row := mat.Row(nil, i, x)
		res[i] = make([]int, len(f.trees))
		for t := range f.trees {
			res[i][t] = f.trees[t].apply(row)
		}
	}
	return res
}

// Embed one-hot encodes Leaves(x): one column per leaf of every tree.
func (f *Forest) Embed(x mat.Matrix) *mat.Dense {
	offsets := make([]int, len(f.trees))
	width := 0
	for t, tr := range f.trees {
		offsets[t] = width
		width += tr.leaves
	}

	leaves := f.Leaves(x)
	res := mat.NewDense(len(leaves), max(width, 1), nil)
	for i, row := range leaves {
		for t, leaf := range row {
			res.Set(i, offsets[t]+leaf, 1)
		}
	}
	return res
}

func encodeLabels(labels []int) ([]int, int) {
	distinct := make(map[int]int)
	for _, l := range labels {
		distinct[l] = 0
	}
	keys := make([]int, 0, len(distinct))
	for l := range distinct {
		keys = append(keys, l)
	}
	sort.Ints(keys)
	for i, l := range keys {
		distinct[l] = i
	}

	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = distinct[l]
	}
	return y, len(keys)
}

func balancedWeights(y []int, classes int) []float64 {
	counts := make([]float64, classes)
	for _, c := range y {
		counts[c]++
	}
	res := make([]float64, classes)
	for c, n := range counts {
		res[c] = float64(len(y)) / (float64(classes) * n)
	}
	return res
}

type grower struct {
	data        [][]float64
	y           []int
	weights     []float64
	classes     int
	maxFeatures int
	maxDepth    int
	rng         *rand.Rand
}

func (g *grower) counts(sample []int) []float64 {
	res := make([]float64, g.classes)
	for _, i := range sample {
		res[g.y[i]] += g.weights[g.y[i]]
	}
	return res
}

func entropy(counts []float64) float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c > 0 {
			p := c / total
			h -= p * math.Log2(p)
		}
	}
	return h
}

func pure(counts []float64) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

// grow appends the subtree for sample and returns its root's index.
func (g *grower) grow(t *tree, sample []int, depth int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{leaf: -1})

	counts := g.counts(sample)
	if depth < g.maxDepth && !pure(counts) {
		if feature, threshold, ok := g.bestSplit(sample, counts); ok {
			var left, right []int
			for _, i := range sample {
				if g.data[i][feature] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			l := g.grow(t, left, depth+1)
			r := g.grow(t, right, depth+1)
			t.nodes[idx] = node{feature: feature, threshold: threshold, left: l, right: r, leaf: -1}
			return idx
		}
	}

	t.nodes[idx].leaf = t.leaves
	t.leaves++
	return idx
}

// bestSplit tries up to maxFeatures non-constant columns in random order and
// returns the split with the largest entropy decrease.
func (g *grower) bestSplit(sample []int, counts []float64) (int, float64, bool) {
	var total float64
	for _, c := range counts {
		total += c
	}
	parent := entropy(counts)

	bestFeature, bestThreshold, bestGain := -1, 0.0, 1e-12
	order := make([]int, len(sample))
	tried := 0
	for _, feature := range g.rng.Perm(len(g.data[0])) {
		if tried == g.maxFeatures {
			break
		}
		copy(order, sample)
		sort.Slice(order, func(a, b int) bool {
			return g.data[order[a]][feature] < g.data[order[b]][feature]
		})
		lo, hi := g.data[order[0]][feature], g.data[order[len(order)-1]][feature]
		if lo == hi {
			continue
		}
		tried++

		left := make([]float64, g.classes)
		var leftTotal float64
		for i := 0; i < len(order)-1; i++ {
			c := g.y[order[i]]
			left[c] += g.weights[c]
			leftTotal += g.weights[c]

			v, next := g.data[order[i]][feature], g.data[order[i+1]][feature]
			if v == next {
				continue
			}
			right := make([]float64, g.classes)
			for k := range right {
				right[k] = counts[k] - left[k]
			}
			child := (leftTotal*entropy(left) + (total-leftTotal)*entropy(right)) / total
			if gain := parent - child; gain > bestGain {
				bestFeature, bestThreshold, bestGain = feature, (v+next)/2, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
