package agglo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexPartitioner_EmptyPathIsRootLeaf(t *testing.T) {
	def := twoFeatureDef(t)
	vs := []*FeatureVector{fv(0, 0, 1), fv(1, 1, 0), fv(2, 1, 1)}

	tree, err := IndexPartitioner{Def: def}.Partition(nil, vs)
	require.NoError(t, err)
	require.True(t, tree.Root.IsLeaf())
	require.Equal(t, vs, tree.Root.Vectors)
	require.Len(t, tree.PopulatedLeaves(), 1)
}

func TestIndexPartitioner_StableBuckets(t *testing.T) {
	def := twoFeatureDef(t)
	vs := []*FeatureVector{fv(0, 1, 1), fv(1, 0, 1), fv(2, 1, 0), fv(3, 0, 1), fv(4, 1, 1)}

	tree, err := IndexPartitioner{Def: def}.Partition([]int{0, 1}, vs)
	require.NoError(t, err)
	require.Equal(t, 0, tree.Root.Feature)
	require.Len(t, tree.Root.Daughters, 2)

	leaves := tree.Leaves()
	require.Len(t, leaves, 4)
	// a=0,b=0 is empty; a=0,b=1 -> 1,3; a=1,b=0 -> 2; a=1,b=1 -> 0,4
	require.Empty(t, leaves[0].Vectors)
	require.Equal(t, []*FeatureVector{vs[1], vs[3]}, leaves[1].Vectors)
	require.Equal(t, []*FeatureVector{vs[2]}, leaves[2].Vectors)
	require.Equal(t, []*FeatureVector{vs[0], vs[4]}, leaves[3].Vectors)

	require.Len(t, tree.PopulatedLeaves(), 3)
	require.Equal(t, len(vs), tree.Root.Population())
}

func TestIndexPartitioner_EmptyBucketIsNotSplit(t *testing.T) {
	def := twoFeatureDef(t)
	vs := []*FeatureVector{fv(0, 1, 0), fv(1, 1, 1)}

	tree, err := IndexPartitioner{Def: def}.Partition([]int{0, 1}, vs)
	require.NoError(t, err)
	require.True(t, tree.Root.Daughters[0].IsLeaf())
	require.Zero(t, tree.Root.Daughters[0].Population())
	require.False(t, tree.Root.Daughters[1].IsLeaf())
}

func TestIndexPartitioner_DoesNotMutatePreviousResults(t *testing.T) {
	def := twoFeatureDef(t)
	vs := []*FeatureVector{fv(0, 1, 1), fv(1, 0, 0), fv(2, 1, 0), fv(3, 0, 1)}
	p := IndexPartitioner{Def: def}

	first, err := p.Partition([]int{0}, vs)
	require.NoError(t, err)
	before := append([]*FeatureVector(nil), first.Root.Daughters[1].Vectors...)

	_, err = p.Partition([]int{0, 1}, vs)
	require.NoError(t, err)
	require.Equal(t, before, first.Root.Daughters[1].Vectors)
	require.Equal(t, []*FeatureVector{fv(0, 1, 1), fv(1, 0, 0), fv(2, 1, 0), fv(3, 0, 1)}, vs)
}

func TestIndexPartitioner_Errors(t *testing.T) {
	def := twoFeatureDef(t)
	p := IndexPartitioner{Def: def}

	_, err := p.Partition([]int{5}, nil)
	require.Error(t, err)

	_, err = p.Partition([]int{0}, []*FeatureVector{fv(0, 3, 0)})
	var ve *VectorError
	require.ErrorAs(t, err, &ve)
}
