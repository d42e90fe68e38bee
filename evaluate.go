package agglo

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Evaluation summarizes how well a graph generalizes to held-out vectors.
type Evaluation struct {
	// MeanDistance is the average over routed held-out vectors of the
	// root-mean-square distance to the members of the leaf they reach.
	// It is 0 when no vector could be routed.
	MeanDistance float64
	// Routed counts held-out vectors that reached a leaf.
	Routed int
	// Unrouted counts held-out vectors whose route ended in an empty slot.
	Unrouted int
}

// Evaluator scores a graph against held-out vectors. It is diagnostic only.
type Evaluator struct {
	heldOut []*FeatureVector
	dist    DistanceMeasure
}

// NewEvaluator returns an evaluator over heldOut.
func NewEvaluator(heldOut []*FeatureVector, dist DistanceMeasure) *Evaluator {
	return &Evaluator{heldOut: heldOut, dist: dist}
}

// Evaluate routes every held-out vector through g and averages the RMS
// distance to the members of the reached leaf.
func (e *Evaluator) Evaluate(g *Graph) Evaluation {
	dists := make([]float64, 0, len(e.heldOut))
	var ev Evaluation
	for _, fv := range e.heldOut {
		members, _, ok := g.Interpret(fv)
		if !ok || len(members) == 0 {
			ev.Unrouted++
			continue
		}
		var sum float64
		for _, m := range members {
			sum += e.dist.SquaredDistance(fv, m)
		}
		dists = append(dists, math.Sqrt(sum/float64(len(members))))
	}
	ev.Routed = len(dists)
	if ev.Routed == 0 {
		return ev
	}
	ev.MeanDistance = stat.Mean(dists, nil)
	return ev
}
