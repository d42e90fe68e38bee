package agglo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus is returned when there are no training vectors.
	ErrEmptyCorpus = errors.New("agglo: empty training corpus")

	// ErrFeaturesExhausted is returned by FeatureSelector.Select when every
	// eligible feature is already on the path.
	ErrFeaturesExhausted = errors.New("agglo: no eligible feature left")

	// ErrInvalidLeaf is returned when an impurity is requested for a leaf
	// that does not currently carry feature vectors (unknown or merged away).
	ErrInvalidLeaf = errors.New("agglo: leaf does not carry feature vectors")

	// ErrGraphOutOfSync signals that a candidate tree does not line up with
	// the graph built so far. It is always wrapped by an *AlignmentError.
	ErrGraphOutOfSync = errors.New("agglo: graph and candidate tree out of sync")
)

// AlignmentError describes where a candidate tree disagrees with the graph.
// It is a broken precondition (inconsistent feature ordering across depths)
// and aborts the training run.
type AlignmentError struct {
	// Edge is the graph position at which the disagreement was found.
	Edge Edge
	// GraphFeature and GraphArity describe the existing decision node, or
	// are -1 when the graph has none at Edge.
	GraphFeature, GraphArity int
	// TreeFeature and TreeArity describe the candidate node, or are -1 when
	// the candidate is a leaf.
	TreeFeature, TreeArity int
	Reason                 string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("agglo: graph and candidate tree out of sync at %v: %s (graph feature %d/%d slots, tree feature %d/%d slots)",
		e.Edge, e.Reason, e.GraphFeature, e.GraphArity, e.TreeFeature, e.TreeArity)
}

func (e *AlignmentError) Unwrap() error { return ErrGraphOutOfSync }

// UnknownFeatureError is returned when a feature name is not part of the
// definition.
type UnknownFeatureError struct {
	Name string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("agglo: unknown feature %q", e.Name)
}

// VectorError reports a feature vector that does not fit the definition.
type VectorError struct {
	// Index is the corpus index of the vector (-1 if unknown).
	Index int
	// Feature is the offending feature index, or -1 for whole-vector problems.
	Feature int
	Reason  string
}

func (e *VectorError) Error() string {
	if e.Feature >= 0 {
		return fmt.Sprintf("agglo: vector %d, feature %d: %s", e.Index, e.Feature, e.Reason)
	}
	return fmt.Sprintf("agglo: vector %d: %s", e.Index, e.Reason)
}
