package export

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// DictionaryKeySeparator joins a dictionary code and a raw value into a lookup key.
const DictionaryKeySeparator = "_"

// DictionaryLookup resolves a composite dictionary key to its stored locale map.
// found is false when no entry exists; err is reserved for lookup failures.
type DictionaryLookup interface {
	Lookup(ctx context.Context, key string) (entry string, found bool, err error)
}

// ProjectorOptions configures a Projector.
type ProjectorOptions struct {
	Dictionary    DictionaryLookup // Optional: nil disables dictionary substitution
	NullValue     string           // Substituted for absent values; empty by default
	DefaultLocale string           // Locale entry used when the job's locale has none
}

// Projector flattens result rows into string rows in column-spec order.
type Projector struct {
	dict          DictionaryLookup
	nullValue     string
	defaultLocale string
}

// NewProjector constructs a Projector.
func NewProjector(opts ProjectorOptions) *Projector {
	return &Projector{
		dict:          opts.Dictionary,
		nullValue:     opts.NullValue,
		defaultLocale: opts.DefaultLocale,
	}
}

// ProjectInput groups the per-job projection arguments.
type ProjectInput struct {
	Spec   *ColumnSpec
	Rows   []Row
	Locale string
}

// Project converts every row. On error it returns the rows projected so far.
func (p *Projector) Project(ctx context.Context, in ProjectInput) ([][]string, error) {
	if in.Spec.Empty() {
		return nil, ErrEmptyColumnSpec
	}
	out := make([][]string, 0, len(in.Rows))
	for i, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		projected, err := p.ProjectRow(ctx, in.Spec, row, in.Locale)
		if err != nil {
			return out, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, projected)
	}
	return out, nil
}

// ProjectRow converts a single row into one string per column.
func (p *Projector) ProjectRow(ctx context.Context, spec *ColumnSpec, row Row, locale string) ([]string, error) {
	if row == nil {
		return nil, fmt.Errorf("%w: nil row", ErrUnknownProperty)
	}
	coder, _ := row.(DictionaryCoder)

	out := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		raw, ok := row.Value(col.Property)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, col.Property)
		}

		value, present := FormatValue(raw)
		if !present {
			value = p.nullValue
		}

		code := col.Dictionary
		if coder != nil {
			if c, ok := coder.DictionaryCode(col.Property); ok {
				code = c
			}
		}
		if code != "" {
			translated, err := p.translate(ctx, code, value, locale)
			if err != nil {
				return nil, fmt.Errorf("dictionary %s for %s: %w", code, col.Property, err)
			}
			value = translated
		}
		out[i] = value
	}
	return out, nil
}

func (p *Projector) translate(ctx context.Context, code, value, locale string) (string, error) {
	if p.dict == nil {
		return value, nil
	}
	entry, found, err := p.dict.Lookup(ctx, code+DictionaryKeySeparator+value)
	if err != nil {
		return "", err
	}
	if !found || strings.TrimSpace(entry) == "" {
		return value, nil
	}

	var locales map[string]string
	if err := json.Unmarshal([]byte(entry), &locales); err != nil {
		return "", fmt.Errorf("decode entry: %w", err)
	}
	if v := locales[locale]; locale != "" && v != "" {
		return v, nil
	}
	if v := locales[p.defaultLocale]; v != "" {
		return v, nil
	}
	return value, nil
}

// FormatValue renders a row value as text. present is false for nil and nil pointers.
func FormatValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	v = rv.Interface()

	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case time.Time:
		return t.Format(time.RFC3339), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
