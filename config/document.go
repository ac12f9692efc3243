package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned when a persisted configuration document cannot
// be parsed. A corrupt document is never silently replaced with an empty
// one; callers must surface the error so hand-edited data is not lost.
var ErrMalformed = errors.New("config: malformed document")

// Document is a YAML configuration document that preserves comments, key
// ordering, and scalar styles across parse/serialize round-trips.
//
// The top level of a Document is always a mapping. Documents are not safe
// for concurrent mutation.
type Document struct {
	// doc is the underlying document node; doc.Content[0] is the
	// top-level mapping.
	doc *yaml.Node
}

// Empty returns a document with an empty top-level mapping.
func Empty() *Document {
	return &Document{doc: &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}}
}

// Parse reads a YAML document. Empty or whitespace-only input yields an
// empty document. Returns an error wrapping ErrMalformed if the input is
// not valid YAML or its top level is not a mapping.
func Parse(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if node.Kind == 0 || len(node.Content) == 0 {
		return Empty(), nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformed)
	}
	return &Document{doc: &node}, nil
}

// Marshal serializes the document with 4-space indentation, preserving
// comments and key order.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(d.doc); err != nil {
		return nil, fmt.Errorf("config: failed to serialize document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: failed to serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{doc: cloneNode(d.doc)}
}

// Len returns the number of top-level keys.
func (d *Document) Len() int {
	return len(d.mapping().Content) / 2
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	m := d.mapping()
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// Get returns the value at a dot-separated path ("limits.per_room"),
// decoded into its natural Go type. The second result is false if the path
// does not exist.
func (d *Document) Get(path string) (any, bool) {
	node := d.mapping()
	parts := strings.Split(path, ".")
	for i, part := range parts {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil, false
		}
		idx := findKey(node, part)
		if idx < 0 {
			return nil, false
		}
		val := node.Content[idx+1]
		if i == len(parts)-1 {
			var out any
			if err := val.Decode(&out); err != nil {
				return nil, false
			}
			return out, true
		}
		node = val
	}
	return nil, false
}

// Set writes a value at a dot-separated path, creating intermediate
// mappings as needed. Existing nodes keep their comments; only the scalar
// value is replaced.
func (d *Document) Set(path string, value any) error {
	node := d.mapping()
	parts := strings.Split(path, ".")
	for i, part := range parts {
		idx := findKey(node, part)
		last := i == len(parts)-1

		if idx < 0 {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}
			var val *yaml.Node
			if last {
				val = &yaml.Node{}
				if err := val.Encode(value); err != nil {
					return fmt.Errorf("config: cannot encode value at %s: %w", path, err)
				}
			} else {
				val = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			node.Content = append(node.Content, key, val)
			node = val
			continue
		}

		val := node.Content[idx+1]
		if last {
			fresh := &yaml.Node{}
			if err := fresh.Encode(value); err != nil {
				return fmt.Errorf("config: cannot encode value at %s: %w", path, err)
			}
			fresh.HeadComment = val.HeadComment
			fresh.LineComment = val.LineComment
			fresh.FootComment = val.FootComment
			node.Content[idx+1] = fresh
			return nil
		}
		if val.Kind != yaml.MappingNode {
			return fmt.Errorf("config: %s is not a mapping", strings.Join(parts[:i+1], "."))
		}
		node = val
	}
	return nil
}

// Merge overlays override onto base, returning a new document. Override
// values win per key; mappings present in both layers are merged
// recursively, anything else is replaced wholesale. Either argument may be
// nil. Neither input is modified.
func Merge(base, override *Document) *Document {
	switch {
	case base == nil && override == nil:
		return Empty()
	case base == nil:
		return override.Clone()
	case override == nil:
		return base.Clone()
	}
	merged := mergeMapping(base.mapping(), override.mapping())
	return &Document{doc: &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{merged},
	}}
}

func mergeMapping(base, override *yaml.Node) *yaml.Node {
	out := cloneNode(base)
	for i := 0; i+1 < len(override.Content); i += 2 {
		key, val := override.Content[i], override.Content[i+1]
		idx := findKey(out, key.Value)
		if idx < 0 {
			out.Content = append(out.Content, cloneNode(key), cloneNode(val))
			continue
		}
		existing := out.Content[idx+1]
		if existing.Kind == yaml.MappingNode && val.Kind == yaml.MappingNode {
			out.Content[idx+1] = mergeMapping(existing, val)
		} else {
			out.Content[idx+1] = cloneNode(val)
		}
	}
	return out
}

// mapping returns the top-level mapping node.
func (d *Document) mapping() *yaml.Node {
	return d.doc.Content[0]
}

// findKey returns the index of the key node with the given value, or -1.
func findKey(mapping *yaml.Node, key string) int {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = cloneNode(child)
		}
	}
	return &out
}
