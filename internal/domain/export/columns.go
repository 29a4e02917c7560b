// Package export holds the export domain: column specs, row accessors, handler registry and projection.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyColumnSpec is returned when a handler has no columns configured.
	ErrEmptyColumnSpec = errors.New("column spec has no columns")
	// ErrUnknownProperty is returned when a row cannot supply a configured property.
	ErrUnknownProperty = errors.New("unknown row property")
)

// Column maps one row property to an output header.
type Column struct {
	Property   string `json:"property"             yaml:"property"`
	Label      string `json:"label"                yaml:"label"`
	Dictionary string `json:"dictionary,omitempty" yaml:"dictionary,omitempty"`
}

// ColumnSpec is the ordered column layout of a handler's output file.
type ColumnSpec struct {
	Handler string   `json:"handler" yaml:"handler"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Empty reports whether the spec has no columns.
func (s *ColumnSpec) Empty() bool {
	return s == nil || len(s.Columns) == 0
}

// Labels returns the header row in column order.
func (s *ColumnSpec) Labels() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Label
	}
	return out
}

// Validate checks that the spec has columns and that properties are unique and non-blank.
func (s *ColumnSpec) Validate() error {
	if s.Empty() {
		return ErrEmptyColumnSpec
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		p := strings.TrimSpace(c.Property)
		if p == "" {
			return fmt.Errorf("column %d: property is required", i)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("column %d: duplicate property %q", i, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// ParseColumnSpecJSON decodes the stored {"property": "Label", ...} form, keeping key order.
func ParseColumnSpecJSON(handler string, raw []byte) (*ColumnSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode column spec: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("decode column spec: expected JSON object")
	}

	spec := &ColumnSpec{Handler: handler}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode column spec key: %w", err)
		}
		key, _ := keyTok.(string)

		var label string
		if err := dec.Decode(&label); err != nil {
			return nil, fmt.Errorf("decode column spec label for %q: %w", key, err)
		}
		spec.Columns = append(spec.Columns, Column{Property: key, Label: label})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode column spec: %w", err)
	}
	return spec, nil
}

// MarshalColumnSpecJSON encodes the property and label pairs back into the stored object form.
func MarshalColumnSpecJSON(spec *ColumnSpec) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range spec.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Property)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
