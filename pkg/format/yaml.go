package format

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/bsfedit/pkg/codec"
)

// readYAML reads a single YAML mapping of scalars, keeping document order
func readYAML(r io.Reader) ([]codec.Entry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []codec.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read YAML: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("failed to read YAML: expected a single document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to read YAML: expected mapping at line %d", root.Line)
	}

	entries := make([]codec.Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("failed to read YAML: non-scalar key at line %d", k.Line)
		}
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("failed to read YAML: value for %q at line %d is not a scalar", k.Value, v.Line)
		}

		value := v.Value
		if v.Tag == "!!null" {
			value = ""
		}
		entries = append(entries, codec.NewEntry(k.Value, value))
	}

	return entries, nil
}

// writeYAML writes entries as one mapping of string scalars in sequence order
func writeYAML(w io.Writer, entries []codec.Entry) error {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key.String()},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value.String()},
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return nil
}
