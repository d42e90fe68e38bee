package agglo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluator_RoutedAndUnrouted(t *testing.T) {
	def := twoFeatureDef(t)
	training := []*FeatureVector{fv(0, 0, 0), fv(1, 0, 1)}
	g, _ := graftPath(t, def, training, 0)

	heldOut := []*FeatureVector{
		fv(2, 0, 0), // distances 0 and 1
		fv(3, 1, 0), // "a"=1 was never seen in training
	}
	ev := NewEvaluator(heldOut, HammingDistance{}).Evaluate(g)
	require.Equal(t, 1, ev.Routed)
	require.Equal(t, 1, ev.Unrouted)
	require.InDelta(t, math.Sqrt(0.5), ev.MeanDistance, floatTol)
}

func TestEvaluator_AveragesOverVectors(t *testing.T) {
	def := twoFeatureDef(t)
	training := []*FeatureVector{fv(0, 0, 0), fv(1, 1, 1)}
	g, _ := graftPath(t, def, training, 0)

	heldOut := []*FeatureVector{fv(2, 0, 0), fv(3, 1, 0)}
	ev := NewEvaluator(heldOut, HammingDistance{}).Evaluate(g)
	require.Equal(t, 2, ev.Routed)
	require.Zero(t, ev.Unrouted)
	require.InDelta(t, 0.5, ev.MeanDistance, floatTol)
}

func TestEvaluator_NothingRouted(t *testing.T) {
	def := twoFeatureDef(t)
	g, _ := graftPath(t, def, []*FeatureVector{fv(0, 0, 0)}, 0)

	ev := NewEvaluator([]*FeatureVector{fv(1, 1, 1)}, HammingDistance{}).Evaluate(g)
	require.Zero(t, ev.Routed)
	require.Zero(t, ev.MeanDistance)

	ev = NewEvaluator(nil, HammingDistance{}).Evaluate(g)
	require.Zero(t, ev.Routed+ev.Unrouted)
}
