package agglo

import (
	"context"
	"math"
	"slices"
)

// DefaultMinLeafGrowth stops training when the best feature adds less than
// 1% populated leaves.
const DefaultMinLeafGrowth = 0.01

// Selection is the outcome of one feature-selection step.
type Selection struct {
	// Feature is the eligible feature with the lowest global impurity.
	Feature int
	// Tree is the candidate tree for path+Feature over the training split.
	Tree *Tree
	// GlobalImpurity of Tree's populated leaves.
	GlobalImpurity float64
	// NumLeaves and PrevLeaves count populated leaves with and without
	// Feature.
	NumLeaves, PrevLeaves int
	// Growth is (NumLeaves-PrevLeaves)/PrevLeaves, +Inf when PrevLeaves is 0.
	Growth float64
	// Stop is set when Growth is below the minimum; Tree must then not be
	// grafted.
	Stop bool
}

// FeatureSelector picks the next feature to test.
type FeatureSelector struct {
	training    []*FeatureVector
	eligible    []int
	partitioner Partitioner
	model       *ImpurityModel
	minGrowth   float64
	workers     int
}

// NewFeatureSelector returns a selector over the training vectors choosing
// among the eligible feature indices.
func NewFeatureSelector(training []*FeatureVector, eligible []int, p Partitioner, model *ImpurityModel, minGrowth float64, workers int) *FeatureSelector {
	return &FeatureSelector{
		training:    training,
		eligible:    eligible,
		partitioner: p,
		model:       model,
		minGrowth:   minGrowth,
		workers:     workers,
	}
}

// Select evaluates every eligible feature not yet on path and returns the one
// whose candidate tree has the lowest global impurity; ties go to the
// earlier eligible feature. It returns ErrFeaturesExhausted when no feature
// is left.
func (s *FeatureSelector) Select(ctx context.Context, path []int) (Selection, error) {
	var untried []int
	for _, f := range s.eligible {
		if !slices.Contains(path, f) {
			untried = append(untried, f)
		}
	}
	if len(untried) == 0 {
		return Selection{}, ErrFeaturesExhausted
	}

	prev, err := s.partitioner.Partition(path, s.training)
	if err != nil {
		return Selection{}, err
	}
	prevLeaves := len(prev.PopulatedLeaves())

	scores := make([]float64, len(untried))
	err = parallelFor(ctx, len(untried), s.workers, func(start, end int) error {
		candidate := make([]int, len(path)+1)
		copy(candidate, path)
		for i := start; i < end; i++ {
			candidate[len(path)] = untried[i]
			tree, err := s.partitioner.Partition(candidate, s.training)
			if err != nil {
				return err
			}
			scores[i] = s.model.treeGlobalImpurity(tree.PopulatedLeaves())
		}
		return nil
	})
	if err != nil {
		return Selection{}, err
	}

	best := -1
	minGI := math.Inf(1)
	for i, gi := range scores {
		if gi < minGI {
			minGI = gi
			best = i
		}
	}
	if best < 0 {
		// every score was NaN; fall back to the first candidate
		best = 0
		minGI = scores[0]
	}

	feature := untried[best]
	tree, err := s.partitioner.Partition(append(slices.Clone(path), feature), s.training)
	if err != nil {
		return Selection{}, err
	}
	numLeaves := len(tree.PopulatedLeaves())

	sel := Selection{
		Feature:        feature,
		Tree:           tree,
		GlobalImpurity: minGI,
		NumLeaves:      numLeaves,
		PrevLeaves:     prevLeaves,
	}
	sel.Growth, sel.Stop = leafGrowth(numLeaves, prevLeaves, s.minGrowth)
	return sel, nil
}

// leafGrowth applies the stop criterion. Without a populated baseline the
// ratio is undefined: grow whenever the new tree has any populated leaf.
func leafGrowth(numLeaves, prevLeaves int, minGrowth float64) (growth float64, stop bool) {
	if prevLeaves == 0 {
		if numLeaves == 0 {
			return 0, true
		}
		return math.Inf(1), false
	}
	growth = float64(numLeaves-prevLeaves) / float64(prevLeaves)
	return growth, growth < minGrowth
}
