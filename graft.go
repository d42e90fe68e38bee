package agglo

// Grafter extends a graph with the partition of a newly selected feature.
type Grafter struct {
	def *FeatureDefinition
}

// NewGrafter returns a grafter checking arities against def.
func NewGrafter(def *FeatureDefinition) *Grafter {
	return &Grafter{def: def}
}

type graftFrame struct {
	node *TreeNode
	at   Edge
}

// Graft walks tree and g in lock-step from their roots. Where g already has
// a decision node it must test the same feature with the same arity as the
// tree, otherwise an *AlignmentError is returned. Where g still has a leaf or
// nothing (the frontier), a decision node mirroring the tree is installed and
// each populated tree daughter becomes a fresh leaf. The new leaves are
// returned in depth-first order. Candidate subtrees without vectors are
// skipped. Shallower parts of g are never modified.
//
// On error g may hold a partially grafted frontier and must be discarded.
func (gr *Grafter) Graft(g *Graph, tree *Tree) ([]LeafID, error) {
	var newLeaves []LeafID
	stack := []graftFrame{{node: tree.Root, at: Edge{Node: RootNode}}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tn := f.node
		if tn == nil || tn.Population() == 0 {
			continue
		}

		cur := g.ref(f.at)
		if cur.Kind == RefDecision {
			id := NodeID(cur.ID)
			existing := g.nodes[id]
			if tn.IsLeaf() {
				return nil, &AlignmentError{
					Edge:         f.at,
					GraphFeature: existing.Feature,
					GraphArity:   len(existing.Daughters),
					TreeFeature:  -1,
					TreeArity:    -1,
					Reason:       "populated candidate leaf where the graph has a decision node",
				}
			}
			if tn.Feature != existing.Feature || len(tn.Daughters) != len(existing.Daughters) {
				return nil, &AlignmentError{
					Edge:         f.at,
					GraphFeature: existing.Feature,
					GraphArity:   len(existing.Daughters),
					TreeFeature:  tn.Feature,
					TreeArity:    len(tn.Daughters),
					Reason:       "decision nodes differ",
				}
			}
			for i := len(tn.Daughters) - 1; i >= 0; i-- {
				stack = append(stack, graftFrame{node: tn.Daughters[i], at: Edge{Node: id, Slot: i}})
			}
			continue
		}

		// Frontier.
		if cur.Kind == RefEmpty {
			return nil, &AlignmentError{
				Edge:         f.at,
				GraphFeature: -1,
				GraphArity:   -1,
				TreeFeature:  tn.Feature,
				TreeArity:    len(tn.Daughters),
				Reason:       "candidate has vectors where the graph has an empty slot",
			}
		}
		if tn.IsLeaf() {
			return nil, &AlignmentError{
				Edge:         f.at,
				GraphFeature: -1,
				GraphArity:   -1,
				TreeFeature:  -1,
				TreeArity:    -1,
				Reason:       "candidate tree is not deeper than the graph",
			}
		}
		arity := gr.def.Arity(tn.Feature)
		if len(tn.Daughters) != arity {
			return nil, &AlignmentError{
				Edge:         f.at,
				GraphFeature: -1,
				GraphArity:   -1,
				TreeFeature:  tn.Feature,
				TreeArity:    len(tn.Daughters),
				Reason:       "candidate daughter count differs from the feature's arity",
			}
		}

		id := g.addDecision(tn.Feature, arity)
		for i, d := range tn.Daughters {
			if d == nil {
				continue
			}
			if !d.IsLeaf() {
				return nil, &AlignmentError{
					Edge:         Edge{Node: id, Slot: i},
					GraphFeature: -1,
					GraphArity:   -1,
					TreeFeature:  d.Feature,
					TreeArity:    len(d.Daughters),
					Reason:       "candidate tree is more than one level deeper than the graph",
				}
			}
			if len(d.Vectors) == 0 {
				continue
			}
			leaf := g.addLeaf(d.Vectors)
			g.setRef(Edge{Node: id, Slot: i}, leafRef(leaf))
			newLeaves = append(newLeaves, leaf)
		}
		g.setRef(f.at, decisionRef(id))
	}
	return newLeaves, nil
}
