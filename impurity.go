package agglo

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// MergeStats describes two leaves considered for merging.
type MergeStats struct {
	N1, N2 int
	// I1 and I2 are the leaf impurities.
	I1, I2 float64
	// CrossSum is the sum of squared distances over every pair with one
	// vector from each leaf.
	CrossSum float64
}

// Scorer turns leaf impurities into a global impurity and predicts the
// change of global impurity caused by a merge. Lower is better.
type Scorer interface {
	// GlobalImpurity scores a partition with the given number of leaves,
	// where weightedSum is Σ |l|·I(l) and total is the training-set size.
	GlobalImpurity(weightedSum float64, numLeaves, total int) float64

	// MergeDelta predicts the change in global impurity of merging two
	// leaves. A merge is performed only when the result is negative.
	MergeDelta(m MergeStats, total int) float64
}

// LogPenaltyScorer is the default Scorer. Global impurity is the
// size-weighted mean leaf impurity plus ln(numLeaves), so every extra leaf
// has to pay for itself. MergeDelta adds 1/(n1+n2)² − 1/n1² − 1/n2², a bonus
// for merging small leaves that offsets the log term.
type LogPenaltyScorer struct{}

func (LogPenaltyScorer) GlobalImpurity(weightedSum float64, numLeaves, total int) float64 {
	gi := weightedSum / float64(total)
	return gi + math.Log(float64(numLeaves))
}

func (LogPenaltyScorer) MergeDelta(m MergeStats, total int) float64 {
	n1, n2 := float64(m.N1), float64(m.N2)
	i12 := mergedImpurity(m)
	delta := ((n1+n2)*i12 - n1*m.I1 - n2*m.I2) / float64(total)
	sizeEffect := 1/((n1+n2)*(n1+n2)) - 1/(n1*n1) - 1/(n2*n2)
	return delta + sizeEffect
}

// mergedImpurity returns the impurity of the union of two leaves from their
// sizes, impurities and cross-distance sum, without revisiting in-leaf pairs.
func mergedImpurity(m MergeStats) float64 {
	n := m.N1 + m.N2
	if n < 2 {
		return 0
	}
	pairs1 := float64(m.N1*(m.N1-1)/2) * m.I1 * m.I1
	pairs2 := float64(m.N2*(m.N2-1)/2) * m.I2 * m.I2
	sum := pairs1 + pairs2 + m.CrossSum
	return math.Sqrt(sum * 2 / float64(n*(n-1)))
}

// leafImpurity is the root-mean-square pairwise distance of vs, 0 for fewer
// than two vectors.
func leafImpurity(vs []*FeatureVector, dist DistanceMeasure) float64 {
	n := len(vs)
	if n < 2 {
		return 0
	}
	sum := sumSquaredDistances(vs, dist)
	return math.Sqrt(sum * 2 / float64(n*(n-1)))
}

// ImpurityModel computes leaf impurity, global impurity and merge cost for
// one training run. Leaf impurities are cached by LeafID; the cache entry of
// a leaf must be invalidated whenever its members change.
type ImpurityModel struct {
	dist   DistanceMeasure
	scorer Scorer
	total  int

	mu    sync.Mutex
	cache map[LeafID]float64

	// computed counts uncached impurity evaluations.
	computed atomic.Int64
}

// NewImpurityModel returns a model for a training set of total vectors.
func NewImpurityModel(dist DistanceMeasure, scorer Scorer, total int) *ImpurityModel {
	if scorer == nil {
		scorer = LogPenaltyScorer{}
	}
	return &ImpurityModel{
		dist:   dist,
		scorer: scorer,
		total:  total,
		cache:  make(map[LeafID]float64),
	}
}

// Total returns the training-set size N.
func (m *ImpurityModel) Total() int { return m.total }

// Impurity returns the cached impurity of leaf id, computing it on first use.
// It fails with ErrInvalidLeaf for leaves that do not carry vectors.
func (m *ImpurityModel) Impurity(g *Graph, id LeafID) (float64, error) {
	l := g.Leaf(id)
	if l == nil || !l.alive {
		return 0, fmt.Errorf("agglo: impurity of leaf %d: %w", id, ErrInvalidLeaf)
	}

	m.mu.Lock()
	v, ok := m.cache[id]
	m.mu.Unlock()
	if ok {
		return v, nil
	}

	v = leafImpurity(l.vectors, m.dist)
	m.computed.Add(1)

	m.mu.Lock()
	m.cache[id] = v
	m.mu.Unlock()
	return v, nil
}

// Invalidate drops the cached impurity of id. Unknown ids are ignored.
func (m *ImpurityModel) Invalidate(id LeafID) {
	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()
}

// Reset drops every cached impurity.
func (m *ImpurityModel) Reset() {
	m.mu.Lock()
	clear(m.cache)
	m.mu.Unlock()
}

// Cached returns the number of cached impurities.
func (m *ImpurityModel) Cached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// Computations returns how many impurities were computed rather than served
// from the cache.
func (m *ImpurityModel) Computations() int64 { return m.computed.Load() }

// GlobalImpurity scores the given live leaves of g.
func (m *ImpurityModel) GlobalImpurity(g *Graph, leaves []LeafID) (float64, error) {
	var weighted float64
	for _, id := range leaves {
		imp, err := m.Impurity(g, id)
		if err != nil {
			return 0, err
		}
		weighted += float64(g.Leaf(id).Len()) * imp
	}
	return m.scorer.GlobalImpurity(weighted, len(leaves), m.total), nil
}

// treeGlobalImpurity scores the populated leaves of a candidate tree. The
// leaves are throwaway, so nothing is cached.
func (m *ImpurityModel) treeGlobalImpurity(leaves []*TreeNode) float64 {
	var weighted float64
	for _, l := range leaves {
		weighted += float64(len(l.Vectors)) * leafImpurity(l.Vectors, m.dist)
	}
	return m.scorer.GlobalImpurity(weighted, len(leaves), m.total)
}

// DeltaGI predicts the change in global impurity of merging leaves a and b.
func (m *ImpurityModel) DeltaGI(g *Graph, a, b LeafID) (float64, error) {
	i1, err := m.Impurity(g, a)
	if err != nil {
		return 0, err
	}
	i2, err := m.Impurity(g, b)
	if err != nil {
		return 0, err
	}
	la, lb := g.Leaf(a), g.Leaf(b)
	return m.scorer.MergeDelta(MergeStats{
		N1:       la.Len(),
		N2:       lb.Len(),
		I1:       i1,
		I2:       i2,
		CrossSum: sumCrossDistances(la.vectors, lb.vectors, m.dist),
	}, m.total), nil
}
