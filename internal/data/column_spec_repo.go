package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/domain/export"
)

// ColumnSpecRepo stores column layouts in export_column_specs.
// column_conf_json holds {"property": "Label"} in output order; dictionary_conf_json holds {"property": "CODE"}.
type ColumnSpecRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

var (
	_ core.ColumnSpecRepository = (*ColumnSpecRepo)(nil)
	_ core.ColumnSpecWriter     = (*ColumnSpecRepo)(nil)
)

// NewColumnSpecRepo creates a ColumnSpecRepo.
func NewColumnSpecRepo(db *sql.DB, cfg RepoConfig) *ColumnSpecRepo {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ColumnSpecRepo{DB: db, logger: logger.With("component", "column_spec_repo")}
}

// GetByHandler returns the handler's spec, or (nil, nil) when none is configured.
func (r *ColumnSpecRepo) GetByHandler(ctx context.Context, handler string) (*export.ColumnSpec, error) {
	var columnsJSON, dictJSON string
	err := r.DB.QueryRowContext(ctx, `
		SELECT column_conf_json, dictionary_conf_json
		FROM export_column_specs
		WHERE handler = $1 AND NOT is_deleted
	`, handler).Scan(&columnsJSON, &dictJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get column spec %q: %w", handler, err)
	}

	spec, err := export.ParseColumnSpecJSON(handler, []byte(columnsJSON))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dictJSON) != "" {
		var dicts map[string]string
		if err := json.Unmarshal([]byte(dictJSON), &dicts); err != nil {
			return nil, fmt.Errorf("decode dictionary conf for %q: %w", handler, err)
		}
		for i := range spec.Columns {
			spec.Columns[i].Dictionary = dicts[spec.Columns[i].Property]
		}
	}
	return spec, nil
}

// Upsert creates or replaces the handler's spec.
func (r *ColumnSpecRepo) Upsert(ctx context.Context, spec *export.ColumnSpec) error {
	if spec == nil {
		return ErrColumnSpecRequired
	}
	if strings.TrimSpace(spec.Handler) == "" {
		return ErrHandlerRequired
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	columnsJSON, err := export.MarshalColumnSpecJSON(spec)
	if err != nil {
		return fmt.Errorf("encode column conf: %w", err)
	}
	dicts := make(map[string]string)
	for _, c := range spec.Columns {
		if c.Dictionary != "" {
			dicts[c.Property] = c.Dictionary
		}
	}
	dictJSON, err := json.Marshal(dicts)
	if err != nil {
		return fmt.Errorf("encode dictionary conf: %w", err)
	}

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO export_column_specs (handler, column_conf_json, dictionary_conf_json)
		VALUES ($1, $2, $3)
		ON CONFLICT (handler) DO UPDATE
		SET column_conf_json = EXCLUDED.column_conf_json,
		    dictionary_conf_json = EXCLUDED.dictionary_conf_json,
		    is_deleted = false,
		    updated_at = now()
	`, spec.Handler, string(columnsJSON), string(dictJSON)); err != nil {
		return fmt.Errorf("upsert column spec %q: %w", spec.Handler, err)
	}
	r.logger.InfoContext(ctx, "column spec stored", "handler", spec.Handler, "columns", len(spec.Columns))
	return nil
}
