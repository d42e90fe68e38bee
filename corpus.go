package agglo

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// DefaultHoldoutSkip holds out every 10th vector.
const DefaultHoldoutSkip = 10

// Corpus holds the feature vectors of a training run split into a training
// part and a held-out part.
type Corpus struct {
	def      *FeatureDefinition
	all      []*FeatureVector
	training []*FeatureVector
	heldOut  []*FeatureVector
}

// NewCorpus validates vectors against def and splits them: vector i is held
// out when i%skip == 0. A negative skip keeps every vector for training;
// skip must otherwise be at least 2. Vector indices key leaf membership and
// payload lookups, so they must be non-negative and unique.
func NewCorpus(vectors []*FeatureVector, def *FeatureDefinition, skip int) (*Corpus, error) {
	if def == nil {
		return nil, fmt.Errorf("agglo: nil feature definition")
	}
	if skip >= 0 && skip < 2 {
		return nil, fmt.Errorf("agglo: holdout skip must be >= 2 or negative, got %d", skip)
	}
	seen := roaring.New()
	for _, fv := range vectors {
		if err := def.checkVector(fv); err != nil {
			return nil, err
		}
		if fv.Index < 0 || int64(fv.Index) > math.MaxUint32 {
			return nil, &VectorError{Index: fv.Index, Feature: -1, Reason: "index out of range"}
		}
		if !seen.CheckedAdd(uint32(fv.Index)) {
			return nil, &VectorError{Index: fv.Index, Feature: -1, Reason: "duplicate index"}
		}
	}

	c := &Corpus{def: def, all: vectors}
	if skip < 0 {
		c.training = vectors
		return c, nil
	}
	nHeld := (len(vectors) + skip - 1) / skip
	c.heldOut = make([]*FeatureVector, 0, nHeld)
	c.training = make([]*FeatureVector, 0, len(vectors)-nHeld)
	for i, fv := range vectors {
		if i%skip == 0 {
			c.heldOut = append(c.heldOut, fv)
		} else {
			c.training = append(c.training, fv)
		}
	}
	return c, nil
}

// Definition returns the feature definition of the corpus.
func (c *Corpus) Definition() *FeatureDefinition { return c.def }

// Training returns the training split. The slice must not be modified.
func (c *Corpus) Training() []*FeatureVector { return c.training }

// HeldOut returns the held-out split. The slice must not be modified.
func (c *Corpus) HeldOut() []*FeatureVector { return c.heldOut }

// Len returns the total number of vectors.
func (c *Corpus) Len() int { return len(c.all) }
