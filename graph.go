package agglo

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// NodeID identifies a decision node in a Graph.
type NodeID int32

// LeafID identifies a leaf in a Graph. Leaf ids are never reused, so they
// also identify a leaf's impurity cache entry.
type LeafID int32

// RootNode is the owner of the root edge.
const RootNode NodeID = -1

// RefKind says what a graph slot points to.
type RefKind uint8

const (
	RefEmpty RefKind = iota
	RefDecision
	RefLeaf
)

// Ref is the target of a graph slot: nothing, a decision node or a leaf.
type Ref struct {
	Kind RefKind
	ID   int32
}

func decisionRef(id NodeID) Ref { return Ref{Kind: RefDecision, ID: int32(id)} }
func leafRef(id LeafID) Ref     { return Ref{Kind: RefLeaf, ID: int32(id)} }

// Edge is an incoming reference into a node: daughter slot Slot of decision
// node Node, or the root edge when Node == RootNode.
type Edge struct {
	Node NodeID
	Slot int
}

func (e Edge) String() string {
	if e.Node == RootNode {
		return "root"
	}
	return fmt.Sprintf("node %d slot %d", e.Node, e.Slot)
}

// DecisionNode tests one feature and has one daughter slot per value.
type DecisionNode struct {
	Feature   int
	Daughters []Ref
}

// Leaf is a cluster of training vectors. After merges a leaf can be the
// target of several edges; Mothers lists them.
type Leaf struct {
	vectors []*FeatureVector
	members *roaring.Bitmap
	mothers map[Edge]struct{}
	alive   bool
}

// Vectors returns the vectors of the leaf. The slice must not be modified.
func (l *Leaf) Vectors() []*FeatureVector { return l.vectors }

// Len returns the number of vectors in the leaf.
func (l *Leaf) Len() int { return len(l.vectors) }

// Contains reports whether the vector with the given corpus index is in the
// leaf.
func (l *Leaf) Contains(index int) bool { return l.members.Contains(uint32(index)) }

// Alive reports whether the leaf is still reachable from the root.
func (l *Leaf) Alive() bool { return l.alive }

// Graph is a directed acyclic decision graph stored in flat arenas. Decision
// node slots and the root hold Refs; leaves track the edges that route into
// them so merges can redirect every referrer.
type Graph struct {
	def    *FeatureDefinition
	root   Ref
	nodes  []DecisionNode
	leaves []*Leaf
}

// NewGraph returns a graph whose root is a single leaf holding vectors.
func NewGraph(def *FeatureDefinition, vectors []*FeatureVector) *Graph {
	g := &Graph{def: def}
	id := g.addLeaf(vectors)
	g.setRef(Edge{Node: RootNode}, leafRef(id))
	return g
}

// Definition returns the feature definition the graph tests against.
func (g *Graph) Definition() *FeatureDefinition { return g.def }

// Root returns the target of the root edge.
func (g *Graph) Root() Ref { return g.root }

// Decision returns decision node id. The returned node must not be modified.
func (g *Graph) Decision(id NodeID) *DecisionNode { return &g.nodes[id] }

// Leaf returns leaf id, or nil if no such leaf was ever created.
func (g *Graph) Leaf(id LeafID) *Leaf {
	if id < 0 || int(id) >= len(g.leaves) {
		return nil
	}
	return g.leaves[id]
}

// NumDecisionNodes returns the number of decision nodes ever created.
func (g *Graph) NumDecisionNodes() int { return len(g.nodes) }

// Mothers returns the edges routing into leaf id, sorted.
func (g *Graph) Mothers(id LeafID) []Edge {
	l := g.Leaf(id)
	if l == nil {
		return nil
	}
	out := make([]Edge, 0, len(l.mothers))
	for e := range l.mothers {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Node != out[j].Node {
			return out[i].Node < out[j].Node
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

func (g *Graph) addDecision(feature, arity int) NodeID {
	g.nodes = append(g.nodes, DecisionNode{
		Feature:   feature,
		Daughters: make([]Ref, arity),
	})
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) addLeaf(vectors []*FeatureVector) LeafID {
	members := roaring.New()
	for _, v := range vectors {
		members.Add(uint32(v.Index))
	}
	g.leaves = append(g.leaves, &Leaf{
		vectors: vectors,
		members: members,
		mothers: make(map[Edge]struct{}),
	})
	return LeafID(len(g.leaves) - 1)
}

func (g *Graph) ref(e Edge) Ref {
	if e.Node == RootNode {
		return g.root
	}
	return g.nodes[e.Node].Daughters[e.Slot]
}

// setRef points e at r. A leaf that loses its last mother becomes dead.
func (g *Graph) setRef(e Edge, r Ref) {
	old := g.ref(e)
	if old.Kind == RefLeaf {
		l := g.leaves[old.ID]
		delete(l.mothers, e)
		if len(l.mothers) == 0 {
			l.alive = false
		}
	}
	if e.Node == RootNode {
		g.root = r
	} else {
		g.nodes[e.Node].Daughters[e.Slot] = r
	}
	if r.Kind == RefLeaf {
		l := g.leaves[r.ID]
		l.mothers[e] = struct{}{}
		l.alive = true
	}
}

// mergeLeaves moves every vector of absorbed into survivor and redirects
// every edge into absorbed onto survivor. Afterwards absorbed is empty, has
// no mothers and is unreachable.
func (g *Graph) mergeLeaves(survivor, absorbed LeafID) error {
	if survivor == absorbed {
		return fmt.Errorf("agglo: cannot merge leaf %d into itself", survivor)
	}
	s, a := g.Leaf(survivor), g.Leaf(absorbed)
	if s == nil || a == nil || !s.alive || !a.alive {
		return fmt.Errorf("agglo: merge %d <- %d: %w", survivor, absorbed, ErrInvalidLeaf)
	}

	merged := make([]*FeatureVector, 0, len(s.vectors)+len(a.vectors))
	merged = append(merged, s.vectors...)
	merged = append(merged, a.vectors...)
	s.vectors = merged
	s.members.Or(a.members)

	for _, e := range g.Mothers(absorbed) {
		g.setRef(e, leafRef(survivor))
	}
	a.vectors = nil
	a.members.Clear()
	a.alive = false
	return nil
}

// Interpret routes fv from the root to a leaf and returns the leaf's
// vectors. ok is false when the route ends in an empty slot or fv lacks a
// tested feature or has a value outside its range.
func (g *Graph) Interpret(fv *FeatureVector) (vectors []*FeatureVector, id LeafID, ok bool) {
	r := g.root
	for r.Kind == RefDecision {
		n := &g.nodes[r.ID]
		if n.Feature >= len(fv.Values) {
			return nil, -1, false
		}
		v := int(fv.Values[n.Feature])
		if v >= len(n.Daughters) {
			return nil, -1, false
		}
		r = n.Daughters[v]
	}
	if r.Kind != RefLeaf {
		return nil, -1, false
	}
	return g.leaves[r.ID].vectors, LeafID(r.ID), true
}

// LiveLeaves returns every leaf reachable from the root, each once, in
// depth-first order of first visit.
func (g *Graph) LiveLeaves() []LeafID {
	var out []LeafID
	seen := make(map[LeafID]bool)
	stack := []Ref{g.root}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch r.Kind {
		case RefLeaf:
			id := LeafID(r.ID)
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		case RefDecision:
			d := g.nodes[r.ID].Daughters
			for i := len(d) - 1; i >= 0; i-- {
				stack = append(stack, d[i])
			}
		}
	}
	return out
}

// NumLeaves returns the number of live leaves.
func (g *Graph) NumLeaves() int { return len(g.LiveLeaves()) }

// Depth returns the length of the longest decision path from the root.
func (g *Graph) Depth() int {
	type frame struct {
		r     Ref
		depth int
	}
	var best int
	stack := []frame{{r: g.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.r.Kind != RefDecision {
			best = max(best, f.depth)
			continue
		}
		for _, d := range g.nodes[f.r.ID].Daughters {
			stack = append(stack, frame{r: d, depth: f.depth + 1})
		}
	}
	return best
}

// LeafOf returns the live leaf holding the vector with the given corpus
// index.
func (g *Graph) LeafOf(index int) (LeafID, bool) {
	for _, id := range g.LiveLeaves() {
		if g.leaves[id].Contains(index) {
			return id, true
		}
	}
	return -1, false
}

// Validate checks the structural invariants: every decision node has as many
// slots as its feature's arity, live leaves are pairwise disjoint, every
// mother edge of a live leaf points back at it, and the live leaves hold
// exactly total vectors.
func (g *Graph) Validate(total int) error {
	for i, n := range g.nodes {
		if len(n.Daughters) != g.def.Arity(n.Feature) {
			return fmt.Errorf("agglo: node %d has %d slots, feature %q has arity %d",
				i, len(n.Daughters), g.def.Name(n.Feature), g.def.Arity(n.Feature))
		}
	}

	union := roaring.New()
	var population uint64
	for _, id := range g.LiveLeaves() {
		l := g.leaves[id]
		if !l.alive {
			return fmt.Errorf("agglo: reachable leaf %d is marked dead", id)
		}
		if uint64(len(l.vectors)) != l.members.GetCardinality() {
			return fmt.Errorf("agglo: leaf %d holds %d vectors but %d distinct members",
				id, len(l.vectors), l.members.GetCardinality())
		}
		if union.Intersects(l.members) {
			return fmt.Errorf("agglo: leaf %d shares vectors with another leaf", id)
		}
		union.Or(l.members)
		population += uint64(len(l.vectors))
		for e := range l.mothers {
			if r := g.ref(e); r != leafRef(id) {
				return fmt.Errorf("agglo: leaf %d lists mother %v which points elsewhere", id, e)
			}
		}
	}
	if population != uint64(total) {
		return fmt.Errorf("agglo: live leaves hold %d vectors, want %d", population, total)
	}
	return nil
}
