// Package corpusio reads feature definitions, feature vectors and run
// configurations for the agglotrain command.
package corpusio

import (
	"fmt"
	"io"
	"os"

	"github.com/TrevorS/agglo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// FeatureSpec is one feature of a YAML definition file.
type FeatureSpec struct {
	Name   string   `yaml:"name" validate:"required"`
	Kind   string   `yaml:"kind" validate:"omitempty,oneof=byte short continuous"`
	Arity  int      `yaml:"arity" validate:"gte=0"`
	Values []string `yaml:"values"`
}

// DefinitionFile is the YAML layout of a feature definition:
//
//	features:
//	  - name: phone
//	    values: ["0", a, e, i]
//	  - name: pos_in_syl
//	    kind: short
//	    arity: 300
//	  - name: f0
//	    kind: continuous
type DefinitionFile struct {
	Features []FeatureSpec `yaml:"features" validate:"required,min=1,dive"`
}

func parseKind(s string) agglo.FeatureKind {
	switch s {
	case "short":
		return agglo.KindShort
	case "continuous":
		return agglo.KindContinuous
	default:
		return agglo.KindByte
	}
}

// ReadDefinition decodes and validates a YAML feature definition.
func ReadDefinition(r io.Reader) (*agglo.FeatureDefinition, error) {
	var df DefinitionFile
	if err := yaml.NewDecoder(r).Decode(&df); err != nil {
		return nil, fmt.Errorf("corpusio: decode definition: %w", err)
	}
	if err := validate.Struct(&df); err != nil {
		return nil, fmt.Errorf("corpusio: invalid definition: %w", err)
	}
	features := make([]agglo.Feature, len(df.Features))
	for i, fs := range df.Features {
		features[i] = agglo.Feature{
			Name:       fs.Name,
			Kind:       parseKind(fs.Kind),
			Arity:      fs.Arity,
			ValueNames: fs.Values,
		}
	}
	return agglo.NewFeatureDefinition(features)
}

// LoadDefinition reads a YAML feature definition from path.
func LoadDefinition(path string) (*agglo.FeatureDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDefinition(f)
}
