package export

import (
	"fmt"
	"strings"

	"github.com/jmespath-community/go-jmespath"
)

// Row is one record produced by a handler.
// Value returns false when the row has no such property at all.
type Row interface {
	Value(property string) (any, bool)
}

// DictionaryCoder is implemented by rows that declare dictionary codes for their own properties.
type DictionaryCoder interface {
	DictionaryCode(property string) (string, bool)
}

// Field is a single named value of a Fields row.
type Field struct {
	Name       string
	Value      any
	Dictionary string
}

// Fields is an ordered row of named values.
type Fields []Field

var (
	_ Row             = Fields(nil)
	_ DictionaryCoder = Fields(nil)
)

// Value implements Row.
func (f Fields) Value(property string) (any, bool) {
	for _, fld := range f {
		if fld.Name == property {
			return fld.Value, true
		}
	}
	return nil, false
}

// DictionaryCode implements DictionaryCoder.
func (f Fields) DictionaryCode(property string) (string, bool) {
	for _, fld := range f {
		if fld.Name == property && fld.Dictionary != "" {
			return fld.Dictionary, true
		}
	}
	return "", false
}

// Document is a row backed by decoded JSON data.
// Properties are resolved as JMESPath expressions, optionally remapped through Paths.
// A path that selects nothing yields a null value rather than an unknown property.
type Document struct {
	Data         any
	Paths        map[string]string
	Dictionaries map[string]string
}

var (
	_ Row             = (*Document)(nil)
	_ DictionaryCoder = (*Document)(nil)
)

// Value implements Row.
func (d *Document) Value(property string) (any, bool) {
	expr := property
	if p, ok := d.Paths[property]; ok && strings.TrimSpace(p) != "" {
		expr = p
	}
	v, err := jmespath.Search(expr, d.Data)
	if err != nil {
		return nil, false
	}
	return v, true
}

// DictionaryCode implements DictionaryCoder.
func (d *Document) DictionaryCode(property string) (string, bool) {
	code, ok := d.Dictionaries[property]
	return code, ok && code != ""
}

// ValidatePaths checks that every configured path compiles.
func (d *Document) ValidatePaths() error {
	for prop, expr := range d.Paths {
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("path for %q: %w", prop, err)
		}
	}
	return nil
}
