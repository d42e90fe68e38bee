package agglo

import "fmt"

// FeatureKind is the value domain of a feature.
type FeatureKind uint8

const (
	// KindByte features take values in [0, 256).
	KindByte FeatureKind = iota
	// KindShort features take values in [0, 65536).
	KindShort
	// KindContinuous features are carried by the definition but never
	// clustered on.
	KindContinuous
)

func (k FeatureKind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("FeatureKind(%d)", uint8(k))
	}
}

// maxArity returns the largest arity a feature of this kind can declare.
func (k FeatureKind) maxArity() int {
	switch k {
	case KindByte:
		return 1 << 8
	case KindShort:
		return 1 << 16
	default:
		return 0
	}
}

// Feature describes one entry of a FeatureVector.
type Feature struct {
	Name string
	Kind FeatureKind

	// Arity is the number of distinct values of a discrete feature. Decision
	// nodes testing this feature have exactly Arity daughter slots. When zero
	// and ValueNames is set, len(ValueNames) is used.
	Arity int

	// ValueNames optionally names each value, indexed by value.
	ValueNames []string
}

// FeatureVector is one instance to be clustered. Vectors are shared by
// pointer and never copied or mutated during training.
type FeatureVector struct {
	// Index is the position of the vector in the full corpus.
	Index int
	// Values holds one discrete value per feature of the definition.
	// Entries of continuous features are ignored.
	Values []uint16
}

// FeatureDefinition is the read-only metadata describing every feature of a
// corpus.
type FeatureDefinition struct {
	features []Feature
	byName   map[string]int
}

// NewFeatureDefinition validates features and builds a definition. Feature
// names must be unique and non-empty, and discrete features need an arity
// between 1 and the maximum of their kind.
func NewFeatureDefinition(features []Feature) (*FeatureDefinition, error) {
	def := &FeatureDefinition{
		features: make([]Feature, len(features)),
		byName:   make(map[string]int, len(features)),
	}
	for i, f := range features {
		if f.Name == "" {
			return nil, fmt.Errorf("agglo: feature %d has no name", i)
		}
		if _, dup := def.byName[f.Name]; dup {
			return nil, fmt.Errorf("agglo: duplicate feature name %q", f.Name)
		}
		if f.Arity == 0 {
			f.Arity = len(f.ValueNames)
		}
		switch f.Kind {
		case KindByte, KindShort:
			if f.Arity < 1 || f.Arity > f.Kind.maxArity() {
				return nil, fmt.Errorf("agglo: feature %q: arity must be in [1, %d] for %s features, got %d",
					f.Name, f.Kind.maxArity(), f.Kind, f.Arity)
			}
			if len(f.ValueNames) > 0 && len(f.ValueNames) != f.Arity {
				return nil, fmt.Errorf("agglo: feature %q: %d value names for arity %d",
					f.Name, len(f.ValueNames), f.Arity)
			}
		case KindContinuous:
			f.Arity = 0
		default:
			return nil, fmt.Errorf("agglo: feature %q: unknown kind %d", f.Name, f.Kind)
		}
		f.ValueNames = append([]string(nil), f.ValueNames...)
		def.features[i] = f
		def.byName[f.Name] = i
	}
	return def, nil
}

// NumFeatures returns the number of features, which is also the required
// length of every FeatureVector.Values.
func (d *FeatureDefinition) NumFeatures() int { return len(d.features) }

// Feature returns a copy of the metadata of feature i.
func (d *FeatureDefinition) Feature(i int) Feature {
	f := d.features[i]
	f.ValueNames = append([]string(nil), f.ValueNames...)
	return f
}

// Name returns the name of feature i.
func (d *FeatureDefinition) Name(i int) string { return d.features[i].Name }

// Arity returns the number of values of feature i (0 for continuous features).
func (d *FeatureDefinition) Arity(i int) int { return d.features[i].Arity }

// Kind returns the kind of feature i.
func (d *FeatureDefinition) Kind(i int) FeatureKind { return d.features[i].Kind }

// IsDiscrete reports whether feature i can be used in a decision node.
func (d *FeatureDefinition) IsDiscrete(i int) bool {
	k := d.features[i].Kind
	return k == KindByte || k == KindShort
}

// Index returns the index of the named feature.
func (d *FeatureDefinition) Index(name string) (int, bool) {
	i, ok := d.byName[name]
	return i, ok
}

// ValueName returns the name of value v of feature i, or its decimal form if
// the feature has no value names.
func (d *FeatureDefinition) ValueName(i int, v uint16) string {
	f := d.features[i]
	if int(v) < len(f.ValueNames) {
		return f.ValueNames[v]
	}
	return fmt.Sprintf("%d", v)
}

// ByteFeatures returns the indices of all byte-valued features in definition
// order.
func (d *FeatureDefinition) ByteFeatures() []int {
	var out []int
	for i, f := range d.features {
		if f.Kind == KindByte {
			out = append(out, i)
		}
	}
	return out
}

// resolveFeatures maps feature names to indices. An empty list selects every
// byte feature.
func (d *FeatureDefinition) resolveFeatures(names []string) ([]int, error) {
	if len(names) == 0 {
		return d.ByteFeatures(), nil
	}
	out := make([]int, 0, len(names))
	seen := make(map[int]bool, len(names))
	for _, name := range names {
		i, ok := d.byName[name]
		if !ok {
			return nil, &UnknownFeatureError{Name: name}
		}
		if !d.IsDiscrete(i) {
			return nil, fmt.Errorf("agglo: feature %q is %s and cannot be clustered on", name, d.features[i].Kind)
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out, nil
}

// checkVector verifies that fv fits the definition.
func (d *FeatureDefinition) checkVector(fv *FeatureVector) error {
	if fv == nil {
		return &VectorError{Index: -1, Feature: -1, Reason: "nil vector"}
	}
	if len(fv.Values) != len(d.features) {
		return &VectorError{
			Index:   fv.Index,
			Feature: -1,
			Reason:  fmt.Sprintf("has %d values, definition has %d features", len(fv.Values), len(d.features)),
		}
	}
	for i, f := range d.features {
		if f.Kind == KindContinuous {
			continue
		}
		if int(fv.Values[i]) >= f.Arity {
			return &VectorError{
				Index:   fv.Index,
				Feature: i,
				Reason:  fmt.Sprintf("value %d out of range for %q (arity %d)", fv.Values[i], f.Name, f.Arity),
			}
		}
	}
	return nil
}
