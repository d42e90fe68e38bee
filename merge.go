package agglo

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// mergeThreshold is the largest ΔGI that is not worth a merge.
const mergeThreshold = 0

// MergeStep records one merge: Absorbed was folded into Survivor at cost
// Delta, leaving Survivor with Size vectors.
type MergeStep struct {
	Survivor LeafID
	Absorbed LeafID
	Delta    float64
	Size     int
}

// ClusterMerger greedily merges the leaves created by one grafting step.
type ClusterMerger struct {
	model   *ImpurityModel
	workers int
}

// NewClusterMerger returns a merger scoring merges with model.
func NewClusterMerger(model *ImpurityModel, workers int) *ClusterMerger {
	return &ClusterMerger{model: model, workers: workers}
}

// Merge repeatedly merges the pair of leaves with the most negative ΔGI
// until no pair has ΔGI < 0. Pairs are scanned as (i, j) with i < j in input
// order and the first minimum wins; j is folded into i. Only the row of the
// survivor is recomputed after a merge. It returns the surviving leaves in
// input order and the merges performed.
func (cm *ClusterMerger) Merge(ctx context.Context, g *Graph, leaves []LeafID) ([]LeafID, []MergeStep, error) {
	k := len(leaves)
	if k < 2 {
		return append([]LeafID(nil), leaves...), nil, nil
	}

	// Leaf impurities first, so the pair loop below only reads the cache.
	err := parallelFor(ctx, k, cm.workers, func(start, end int) error {
		for i := start; i < end; i++ {
			if _, err := cm.model.Impurity(g, leaves[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	delta := mat.NewSymDense(k, nil)
	err = parallelFor(ctx, k-1, cm.workers, func(start, end int) error {
		for i := start; i < end; i++ {
			for j := i + 1; j < k; j++ {
				d, err := cm.model.DeltaGI(g, leaves[i], leaves[j])
				if err != nil {
					return err
				}
				delta.SetSym(i, j, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	alive := make([]bool, k)
	for i := range alive {
		alive[i] = true
	}

	var steps []MergeStep
	for {
		best1, best2 := -1, -1
		minDelta := float64(mergeThreshold)
		for i := 0; i < k-1; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < k; j++ {
				if !alive[j] {
					continue
				}
				if d := delta.At(i, j); d < minDelta {
					best1, best2 = i, j
					minDelta = d
				}
			}
		}
		if best1 < 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		survivor, absorbed := leaves[best1], leaves[best2]
		if err := g.mergeLeaves(survivor, absorbed); err != nil {
			return nil, nil, err
		}
		cm.model.Invalidate(survivor)
		cm.model.Invalidate(absorbed)
		alive[best2] = false
		steps = append(steps, MergeStep{
			Survivor: survivor,
			Absorbed: absorbed,
			Delta:    minDelta,
			Size:     g.Leaf(survivor).Len(),
		})

		for j := 0; j < k; j++ {
			if j == best1 || !alive[j] {
				continue
			}
			a, b := survivor, leaves[j]
			if j < best1 {
				a, b = b, a
			}
			d, err := cm.model.DeltaGI(g, a, b)
			if err != nil {
				return nil, nil, err
			}
			delta.SetSym(best1, j, d)
		}
	}

	survivors := make([]LeafID, 0, k-len(steps))
	for i, id := range leaves {
		if alive[i] {
			survivors = append(survivors, id)
		}
	}
	return survivors, steps, nil
}
