package data

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/export"
)

// FileColumnSpecRepo serves column layouts from a YAML document keyed by handler name:
//
//	exampleHandler:
//	  - property: testName
//	    label: Name
//	  - property: testContent
//	    label: Sex
//	    dictionary: SEX
type FileColumnSpecRepo struct {
	specs map[string]*export.ColumnSpec
}

var _ core.ColumnSpecRepository = (*FileColumnSpecRepo)(nil)

// LoadFileColumnSpecRepo reads and validates every spec in path.
func LoadFileColumnSpecRepo(path string) (*FileColumnSpecRepo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read column spec file: %w", err)
	}
	return ParseFileColumnSpecs(raw)
}

// ParseFileColumnSpecs builds a FileColumnSpecRepo from YAML bytes.
func ParseFileColumnSpecs(raw []byte) (*FileColumnSpecRepo, error) {
	var doc map[string][]export.Column
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode column spec file: %w", err)
	}

	specs := make(map[string]*export.ColumnSpec, len(doc))
	for handler, cols := range doc {
		spec := &export.ColumnSpec{Handler: handler, Columns: cols}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("column spec %q: %w", handler, err)
		}
		specs[handler] = spec
	}
	return &FileColumnSpecRepo{specs: specs}, nil
}

// GetByHandler returns a copy of the handler's spec, or (nil, nil) when absent.
func (r *FileColumnSpecRepo) GetByHandler(_ context.Context, handler string) (*export.ColumnSpec, error) {
	spec, ok := r.specs[handler]
	if !ok {
		return nil, nil
	}
	out := &export.ColumnSpec{Handler: spec.Handler, Columns: make([]export.Column, len(spec.Columns))}
	copy(out.Columns, spec.Columns)
	return out, nil
}

// Specs returns all loaded specs; used by the admin tool to seed Postgres.
func (r *FileColumnSpecRepo) Specs() []*export.ColumnSpec {
	out := make([]*export.ColumnSpec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	return out
}
