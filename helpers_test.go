package agglo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// twoFeatureDef has two binary byte features "a" and "b".
func twoFeatureDef(t testing.TB) *FeatureDefinition {
	t.Helper()
	def, err := NewFeatureDefinition([]Feature{
		{Name: "a", Kind: KindByte, Arity: 2},
		{Name: "b", Kind: KindByte, Arity: 2},
	})
	require.NoError(t, err)
	return def
}

// squaredValueDistance compares the first feature numerically.
var squaredValueDistance = DistanceFunc(func(a, b *FeatureVector) float64 {
	d := float64(a.Values[0]) - float64(b.Values[0])
	return d * d
})

var zeroDistance = DistanceFunc(func(a, b *FeatureVector) float64 { return 0 })

// twoGroupCorpus returns 10 vectors split 5/5 on "a" with "b" constant.
func twoGroupCorpus() []*FeatureVector {
	vs := make([]*FeatureVector, 10)
	for i := range vs {
		vs[i] = fv(i, uint16(i/5), 0)
	}
	return vs
}

// threeFeatureCorpus has 20 vectors: f0 and f1 take every combination five
// times and f2 duplicates f0.
func threeFeatureCorpus(t testing.TB) ([]*FeatureVector, *FeatureDefinition) {
	t.Helper()
	def, err := NewFeatureDefinition([]Feature{
		{Name: "f0", Kind: KindByte, Arity: 2},
		{Name: "f1", Kind: KindByte, Arity: 2},
		{Name: "f2", Kind: KindByte, Arity: 2},
	})
	require.NoError(t, err)
	vs := make([]*FeatureVector, 20)
	for i := range vs {
		f0 := uint16(i / 10)
		f1 := uint16(i/5) % 2
		vs[i] = fv(i, f0, f1, f0)
	}
	return vs, def
}

// randomCorpus generates n vectors over numFeatures byte features of the
// given arity. Feature values are correlated so that training finds
// something to split on.
func randomCorpus(t testing.TB, n, numFeatures, arity int, seed int64) ([]*FeatureVector, *FeatureDefinition) {
	t.Helper()
	features := make([]Feature, numFeatures)
	for i := range features {
		features[i] = Feature{Name: string(rune('a' + i)), Kind: KindByte, Arity: arity}
	}
	def, err := NewFeatureDefinition(features)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(seed))
	vs := make([]*FeatureVector, n)
	for i := range vs {
		values := make([]uint16, numFeatures)
		values[0] = uint16(rng.Intn(arity))
		for f := 1; f < numFeatures; f++ {
			if rng.Float64() < 0.5 {
				values[f] = values[f-1]
			} else {
				values[f] = uint16(rng.Intn(arity))
			}
		}
		vs[i] = &FeatureVector{Index: i, Values: values}
	}
	return vs, def
}

// graftPath grafts the partitions of every prefix of path onto a fresh
// graph over vs.
func graftPath(t testing.TB, def *FeatureDefinition, vs []*FeatureVector, path ...int) (*Graph, []LeafID) {
	t.Helper()
	g := NewGraph(def, vs)
	p := IndexPartitioner{Def: def}
	gr := NewGrafter(def)
	var leaves []LeafID
	for i := range path {
		tree, err := p.Partition(path[:i+1], vs)
		require.NoError(t, err)
		leaves, err = gr.Graft(g, tree)
		require.NoError(t, err)
	}
	return g, leaves
}
