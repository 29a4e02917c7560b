// Package exporthandlers contains the built-in export handlers registered at startup.
package exporthandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/target/async-export/internal/domain/export"
)

const (
	// ExampleHandlerName produces a fixed two-row sample used for smoke tests.
	ExampleHandlerName = "exampleHandler"
	// JSONRowsHandlerName exports the request params themselves: a JSON array of objects.
	JSONRowsHandlerName = "jsonRows"
)

// Register adds every built-in handler to reg.
func Register(reg *export.Registry) error {
	if err := reg.Register(ExampleHandlerName, export.HandlerFunc(Example)); err != nil {
		return err
	}
	return reg.Register(JSONRowsHandlerName, export.HandlerFunc(JSONRows))
}

// Example returns two rows; testContent is translated through the SEX dictionary.
func Example(_ context.Context, _ string) ([]export.Row, error) {
	return []export.Row{
		export.Fields{
			{Name: "testName", Value: "222"},
			{Name: "testContent", Value: "9", Dictionary: "SEX"},
		},
		export.Fields{
			{Name: "testName", Value: "555"},
			{Name: "testContent", Value: "444", Dictionary: "SEX"},
		},
	}, nil
}

// jsonRowsParams is the params shape accepted by JSONRows. Either a bare array of
// objects, or an object with rows plus optional JMESPath remapping and dictionary codes.
type jsonRowsParams struct {
	Rows         []any             `json:"rows"`
	Paths        map[string]string `json:"paths,omitempty"`
	Dictionaries map[string]string `json:"dictionaries,omitempty"`
}

// JSONRows turns the request params into Document rows.
func JSONRows(ctx context.Context, params string) ([]export.Row, error) {
	p, err := decodeJSONRowsParams(params)
	if err != nil {
		return nil, err
	}

	rows := make([]export.Row, 0, len(p.Rows))
	for i, data := range p.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := &export.Document{Data: data, Paths: p.Paths, Dictionaries: p.Dictionaries}
		if i == 0 {
			if err := doc.ValidatePaths(); err != nil {
				return nil, err
			}
		}
		rows = append(rows, doc)
	}
	return rows, nil
}

func decodeJSONRowsParams(params string) (jsonRowsParams, error) {
	var p jsonRowsParams
	trimmed := strings.TrimSpace(params)
	if trimmed == "" {
		return p, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &p.Rows); err != nil {
			return p, fmt.Errorf("decode rows: %w", err)
		}
		return p, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return p, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}
