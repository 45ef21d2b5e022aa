// Package model reads reliability block diagrams from YAML documents and
// compiles them into rbd.System values.
//
// A document lists components, optional M-out-of-N voters over those
// components, and the edges between them. The sentinels are spelled "E"
// and "S":
//
//	name: pump-station
//	components:
//	  - name: pump
//	    lambda: 1.0e-4
//	    distribution: {family: weibull, beta: 1.5}
//	voters:
//	  - {name: pumps, component: pump, m: 2, n: 3}
//	edges:
//	  - {from: E, to: [pumps]}
//	  - {from: pumps, to: [S]}
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-rbd/pkg/validation"
)

// Distribution families
const (
	FamilyExponential = "exponential"
	FamilyWeibull     = "weibull"
)

// Document is the YAML form of a diagram.
type Document struct {
	Name       string      `yaml:"name,omitempty" validate:"omitempty,blockname"`
	Components []Component `yaml:"components" validate:"required,min=1,dive"`
	Voters     []Voter     `yaml:"voters,omitempty" validate:"dive"`
	Edges      []Edge      `yaml:"edges" validate:"required,min=1,dive"`
}

// Component declares a block with a nominal failure rate.
type Component struct {
	Name         string        `yaml:"name" validate:"required,blockname"`
	Lambda       float64       `yaml:"lambda" validate:"gte=0"`
	Age          float64       `yaml:"age,omitempty" validate:"gte=0"`
	Distribution *Distribution `yaml:"distribution,omitempty"`
}

// Distribution selects the lifetime law of a component. Eta may be left
// out for a Weibull law; it is then derived from the component's rate.
type Distribution struct {
	Family string  `yaml:"family" validate:"required,oneof=exponential weibull"`
	Beta   float64 `yaml:"beta" validate:"gte=0"`
	Eta    float64 `yaml:"eta,omitempty" validate:"gte=0"`
}

// Voter declares an M-out-of-N group of replicas of one component.
type Voter struct {
	Name      string `yaml:"name,omitempty" validate:"omitempty,blockname"`
	Component string `yaml:"component" validate:"required,blockname"`
	M         int    `yaml:"m"`
	N         int    `yaml:"n"`
}

// Edge connects from to each of to.
type Edge struct {
	From string   `yaml:"from" validate:"required"`
	To   []string `yaml:"to" validate:"required,min=1,dive,required"`
}

// Parse decodes and validates a document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("model document is empty")
		}
		return nil, fmt.Errorf("failed to parse model document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks the document's shape. Cross references and numerical
// constraints are checked by Build.
func (d *Document) Validate() error {
	if err := validation.ValidateStruct(d); err != nil {
		return fmt.Errorf("invalid model document: %w", err)
	}
	return nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode model document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
