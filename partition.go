package agglo

import "fmt"

// TreeNode is a node of a candidate decision tree produced by a Partitioner.
// Decision nodes have Feature >= 0 and one daughter per value of the
// feature; leaves have Feature == -1 and hold the vectors that reached them.
type TreeNode struct {
	Feature   int
	Daughters []*TreeNode
	Vectors   []*FeatureVector
}

// IsLeaf reports whether n is a leaf.
func (n *TreeNode) IsLeaf() bool { return n.Feature < 0 }

// Population returns the number of vectors below n.
func (n *TreeNode) Population() int {
	if n.IsLeaf() {
		return len(n.Vectors)
	}
	var total int
	for _, d := range n.Daughters {
		if d != nil {
			total += d.Population()
		}
	}
	return total
}

// Tree is a fully populated candidate decision tree.
type Tree struct {
	Root *TreeNode
	// Path is the ordered list of features tested from the root down.
	Path []int
}

// Leaves returns every leaf of the tree, including empty ones, in depth-first
// order.
func (t *Tree) Leaves() []*TreeNode {
	var out []*TreeNode
	stack := []*TreeNode{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.IsLeaf() {
			out = append(out, n)
			continue
		}
		for i := len(n.Daughters) - 1; i >= 0; i-- {
			stack = append(stack, n.Daughters[i])
		}
	}
	return out
}

// PopulatedLeaves returns the leaves holding at least one vector, in
// depth-first order.
func (t *Tree) PopulatedLeaves() []*TreeNode {
	var out []*TreeNode
	for _, l := range t.Leaves() {
		if len(l.Vectors) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Partitioner sorts a vector set into a decision tree that tests the given
// features in order. Every decision node must have as many daughters as its
// feature has values, leaves must hold exactly the vectors matching their
// path, and results of earlier calls must never be mutated by later ones.
// Implementations must be safe for concurrent use when Config.Workers > 1.
type Partitioner interface {
	Partition(path []int, vectors []*FeatureVector) (*Tree, error)
}

// IndexPartitioner is the default Partitioner. It stably bucket-sorts the
// vectors level by level, so vectors keep their input order inside a leaf.
// Buckets that are empty become empty leaves and are not split further.
type IndexPartitioner struct {
	Def *FeatureDefinition
}

type partitionFrame struct {
	node   *TreeNode
	lo, hi int
	depth  int
}

// Partition implements Partitioner.
func (p IndexPartitioner) Partition(path []int, vectors []*FeatureVector) (*Tree, error) {
	for _, f := range path {
		if f < 0 || f >= p.Def.NumFeatures() {
			return nil, fmt.Errorf("agglo: feature index %d out of range", f)
		}
		if !p.Def.IsDiscrete(f) {
			return nil, fmt.Errorf("agglo: feature %q is not discrete", p.Def.Name(f))
		}
	}

	buf := make([]*FeatureVector, len(vectors))
	copy(buf, vectors)
	tmp := make([]*FeatureVector, len(vectors))

	root := &TreeNode{Feature: -1}
	stack := []partitionFrame{{node: root, lo: 0, hi: len(buf)}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if fr.depth == len(path) || fr.hi == fr.lo {
			fr.node.Feature = -1
			fr.node.Vectors = buf[fr.lo:fr.hi:fr.hi]
			continue
		}

		feature := path[fr.depth]
		arity := p.Def.Arity(feature)
		starts := make([]int, arity+1)
		for _, v := range buf[fr.lo:fr.hi] {
			val := int(v.Values[feature])
			if val >= arity {
				return nil, &VectorError{
					Index:   v.Index,
					Feature: feature,
					Reason:  fmt.Sprintf("value %d out of range (arity %d)", val, arity),
				}
			}
			starts[val+1]++
		}
		for i := 1; i <= arity; i++ {
			starts[i] += starts[i-1]
		}
		next := append([]int(nil), starts[:arity]...)
		for _, v := range buf[fr.lo:fr.hi] {
			val := int(v.Values[feature])
			tmp[fr.lo+next[val]] = v
			next[val]++
		}
		copy(buf[fr.lo:fr.hi], tmp[fr.lo:fr.hi])

		fr.node.Feature = feature
		fr.node.Daughters = make([]*TreeNode, arity)
		for i := arity - 1; i >= 0; i-- {
			d := &TreeNode{Feature: -1}
			fr.node.Daughters[i] = d
			stack = append(stack, partitionFrame{
				node:  d,
				lo:    fr.lo + starts[i],
				hi:    fr.lo + starts[i+1],
				depth: fr.depth + 1,
			})
		}
	}

	return &Tree{Root: root, Path: append([]int(nil), path...)}, nil
}
