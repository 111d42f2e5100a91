package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a model (YAML or JSON). References between
// elements are strings holding a key, an id, a qualified name (A::B) or a
// simple name.
type Document struct {
	SchemaVersion string        `json:"schema_version" yaml:"schema_version"`
	Name          string        `json:"name" yaml:"name"`
	Documentation string        `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Elements      []ElementDoc  `json:"elements,omitempty" yaml:"elements,omitempty"`
	Relations     []RelationDoc `json:"relations,omitempty" yaml:"relations,omitempty"`
	Diagrams      []DiagramDoc  `json:"diagrams,omitempty" yaml:"diagrams,omitempty"`
}

// Common carries the attributes shared by every document element.
type Common struct {
	ID            string            `json:"id,omitempty" yaml:"id,omitempty"`
	Key           string            `json:"key,omitempty" yaml:"key,omitempty"`
	Name          string            `json:"name,omitempty" yaml:"name,omitempty"`
	Visibility    string            `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Abstract      bool              `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Leaf          bool              `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Root          bool              `json:"root,omitempty" yaml:"root,omitempty"`
	Documentation string            `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Tags          map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type ElementDoc struct {
	Common          `yaml:",inline"`
	Kind            string              `json:"kind" yaml:"kind"`
	Active          bool                `json:"active,omitempty" yaml:"active,omitempty"`
	Elements        []ElementDoc        `json:"elements,omitempty" yaml:"elements,omitempty"`
	Attributes      []AttributeDoc      `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Operations      []OperationDoc      `json:"operations,omitempty" yaml:"operations,omitempty"`
	Literals        []Common            `json:"literals,omitempty" yaml:"literals,omitempty"`
	ExtensionPoints []ExtensionPointDoc `json:"extension_points,omitempty" yaml:"extension_points,omitempty"`
	Ends            []EndDoc            `json:"ends,omitempty" yaml:"ends,omitempty"`
}

type AttributeDoc struct {
	Common `yaml:",inline"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
}

type OperationDoc struct {
	Common     `yaml:",inline"`
	Static     bool           `json:"static,omitempty" yaml:"static,omitempty"`
	Parameters []ParameterDoc `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

type ParameterDoc struct {
	Common    `yaml:",inline"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	Default   string `json:"default,omitempty" yaml:"default,omitempty"`
}

type ExtensionPointDoc struct {
	Common   `yaml:",inline"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

type EndDoc struct {
	Common       `yaml:",inline"`
	Type         string `json:"type" yaml:"type"`
	Multiplicity string `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`
	Aggregation  string `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	Navigable    *bool  `json:"navigable,omitempty" yaml:"navigable,omitempty"`
}

type RelationDoc struct {
	Common        `yaml:",inline"`
	Kind          string   `json:"kind" yaml:"kind"`
	Parent        string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Child         string   `json:"child,omitempty" yaml:"child,omitempty"`
	Discriminator string   `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	Clients       []string `json:"clients,omitempty" yaml:"clients,omitempty"`
	Suppliers     []string `json:"suppliers,omitempty" yaml:"suppliers,omitempty"`
	Base          string   `json:"base,omitempty" yaml:"base,omitempty"`
	Addition      string   `json:"addition,omitempty" yaml:"addition,omitempty"`
	Extension     string   `json:"extension,omitempty" yaml:"extension,omitempty"`
	Condition     string   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Ends          []EndDoc `json:"ends,omitempty" yaml:"ends,omitempty"`
}

type DiagramDoc struct {
	Common  `yaml:",inline"`
	Kind    string   `json:"kind" yaml:"kind"`
	Owner   string   `json:"owner,omitempty" yaml:"owner,omitempty"`
	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
	Image   string   `json:"image,omitempty" yaml:"image,omitempty"`
}

// Format is the serialization of a model document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension; YAML is the default.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// DecodeDocument parses raw bytes and validates them against the embedded
// model schema.
func DecodeDocument(raw []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse model json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse model yaml: %w", err)
		}
	}
	if err := ValidateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func ReadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	return DecodeDocument(raw, FormatFor(path))
}

// Encode serializes the document in the given format.
func (d *Document) Encode(format Format) ([]byte, error) {
	if format == FormatJSON {
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
	return yaml.Marshal(d)
}
