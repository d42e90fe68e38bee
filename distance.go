package agglo

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DistanceMeasure maps a pair of feature vectors to a non-negative squared
// distance. Implementations must be safe for concurrent use when
// Config.Workers > 1.
type DistanceMeasure interface {
	SquaredDistance(a, b *FeatureVector) float64
}

// DistanceFunc adapts a plain function into a DistanceMeasure.
type DistanceFunc func(a, b *FeatureVector) float64

func (f DistanceFunc) SquaredDistance(a, b *FeatureVector) float64 { return f(a, b) }

// HammingDistance counts the features on which two vectors disagree. The
// count is the squared Euclidean distance between one-hot encodings divided
// by two, so it is used directly as the squared distance.
// Features restricts the comparison; nil compares every feature.
type HammingDistance struct {
	Features []int
}

func (h HammingDistance) SquaredDistance(a, b *FeatureVector) float64 {
	var n int
	if h.Features == nil {
		for i := range a.Values {
			if a.Values[i] != b.Values[i] {
				n++
			}
		}
		return float64(n)
	}
	for _, i := range h.Features {
		if a.Values[i] != b.Values[i] {
			n++
		}
	}
	return float64(n)
}

// WeightedHamming sums Weights[i] over the features on which two vectors
// disagree. len(Weights) must equal the number of features.
type WeightedHamming struct {
	Weights []float64
}

func (w WeightedHamming) SquaredDistance(a, b *FeatureVector) float64 {
	var sum float64
	for i, wi := range w.Weights {
		if a.Values[i] != b.Values[i] {
			sum += wi
		}
	}
	return sum
}

// PayloadDistance is the squared Euclidean distance between per-instance
// acoustic payloads (for example F0 contour coefficients), looked up by
// FeatureVector.Index. All rows must have the same length.
type PayloadDistance struct {
	Payload [][]float64
}

// NewPayloadDistance checks that every row of payload has the same
// dimensionality.
func NewPayloadDistance(payload [][]float64) (PayloadDistance, error) {
	if len(payload) == 0 {
		return PayloadDistance{}, fmt.Errorf("agglo: empty payload table")
	}
	dims := len(payload[0])
	for i, row := range payload {
		if len(row) != dims {
			return PayloadDistance{}, fmt.Errorf("agglo: payload row %d has %d values, want %d", i, len(row), dims)
		}
	}
	return PayloadDistance{Payload: payload}, nil
}

func (p PayloadDistance) SquaredDistance(a, b *FeatureVector) float64 {
	d := floats.Distance(p.Payload[a.Index], p.Payload[b.Index], 2)
	return d * d
}

// sumSquaredDistances returns the sum of squared distances over all unordered
// pairs of vs.
func sumSquaredDistances(vs []*FeatureVector, dist DistanceMeasure) float64 {
	var sum float64
	for i := 0; i < len(vs); i++ {
		for j := i + 1; j < len(vs); j++ {
			sum += dist.SquaredDistance(vs[i], vs[j])
		}
	}
	return sum
}

// sumCrossDistances returns the sum of squared distances over every pair
// (a, b) with a in as and b in bs.
func sumCrossDistances(as, bs []*FeatureVector, dist DistanceMeasure) float64 {
	var sum float64
	for _, a := range as {
		for _, b := range bs {
			sum += dist.SquaredDistance(a, b)
		}
	}
	return sum
}
