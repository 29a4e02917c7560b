package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/async-export/internal/core"
	"github.com/target/async-export/internal/data/pgxutil"
	"github.com/target/async-export/internal/domain/model"
	apperrors "github.com/target/async-export/internal/errors"
)

// RepoConfig holds configuration options for the export job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// ExportJobRepo is the Postgres-backed job ledger.
type ExportJobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.ExportJobRepository = (*ExportJobRepo)(nil)

// NewExportJobRepo creates a new ExportJobRepo with the given database connection and configuration.
func NewExportJobRepo(db *sql.DB, cfg RepoConfig) *ExportJobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportJobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "export_job_repo"),
	}
}

const exportJobColumns = `
  id,
  requester_id,
  handler,
  method_name,
  params,
  status,
  row_count,
  output_url,
  retry_count,
  locale,
  failure_message,
  created_at,
  completed_at,
  is_deleted
`

const (
	defaultListLimit = model.DefaultListLimit
	maxListLimit     = model.MaxListLimit
)

// Create inserts a pending record. CreatedAt defaults to now when unset.
func (r *ExportJobRepo) Create(ctx context.Context, job *model.ExportJob) (*model.ExportJob, error) {
	if job == nil {
		return nil, errors.New("export job is required")
	}
	if strings.TrimSpace(job.ID) == "" {
		return nil, ErrExportJobIDRequired
	}
	if strings.TrimSpace(job.Handler) == "" {
		return nil, ErrHandlerRequired
	}
	status := job.Status
	if status == "" {
		status = model.ExportStatusPending
	}
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now()
	}

	query := `
		INSERT INTO export_jobs (
			id, requester_id, handler, method_name, params, status,
			row_count, retry_count, locale, created_at, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, false)
		RETURNING ` + exportJobColumns

	var created *model.ExportJob
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query,
			job.ID, job.RequesterID, job.Handler, job.MethodName, job.Params, status,
			job.RetryCount, job.Locale, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert export job: %w", err)
		}
		created, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.ExportJob])
		if err != nil {
			return fmt.Errorf("collect export job: %w", err)
		}
		return nil
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return created, nil
}

// UpdateStatus moves a pending record to a terminal status and returns the number of rows affected.
// Records that are already terminal are left untouched and yield 0.
func (r *ExportJobRepo) UpdateStatus(ctx context.Context, p model.UpdateExportStatusParams) (int64, error) {
	if strings.TrimSpace(p.ID) == "" {
		return 0, ErrExportJobIDRequired
	}
	if !p.Status.Terminal() {
		return 0, fmt.Errorf("%w: %q", ErrStatusNotTerminal, p.Status)
	}
	completedAt := p.CompletedAt
	if completedAt.IsZero() {
		completedAt = r.timeProvider.Now()
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE export_jobs
		SET status = $2,
		    row_count = $3,
		    output_url = $4,
		    retry_count = $5,
		    locale = $6,
		    failure_message = $7,
		    completed_at = $8
		WHERE id = $1 AND status = 'pending'
	`, p.ID, p.Status, p.RowCount, p.OutputURL, p.RetryCount, p.Locale, p.FailureMessage, completedAt)
	if err != nil {
		return 0, fmt.Errorf("update export job status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		r.logger.WarnContext(ctx, "status update matched no pending export job", "job_id", p.ID)
	}
	return n, nil
}

// ListByStatus returns non-deleted records with the given status, oldest first.
func (r *ExportJobRepo) ListByStatus(ctx context.Context, status model.ExportStatus) ([]*model.ExportJob, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	query := `
		SELECT ` + exportJobColumns + `
		FROM export_jobs
		WHERE status = $1 AND NOT is_deleted
		ORDER BY created_at ASC, id ASC
	`
	return r.queryJobs(ctx, query, status)
}

// ListStalePending returns pending records created before olderThan, oldest first.
func (r *ExportJobRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.ExportJob, error) {
	limit = clampLimit(limit)
	query := `
		SELECT ` + exportJobColumns + `
		FROM export_jobs
		WHERE status = 'pending' AND NOT is_deleted AND created_at < $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`
	return r.queryJobs(ctx, query, olderThan, limit)
}

// GetByID returns a single record.
func (r *ExportJobRepo) GetByID(ctx context.Context, id string) (*model.ExportJob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrExportJobIDRequired
	}
	query := `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE id = $1`

	var job *model.ExportJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, id)
		if err != nil {
			return fmt.Errorf("query export job: %w", err)
		}
		job, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.ExportJob])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrExportJobNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

type exportJobFilterBuilder struct {
	query  string
	args   []any
	argIdx int
}

func (b *exportJobFilterBuilder) addFilter(condition string, value any) {
	b.query += fmt.Sprintf(" AND %s = $%d", condition, b.argIdx)
	b.args = append(b.args, value)
	b.argIdx++
}

func buildExportJobListQuery(opts model.ExportJobListOptions) (string, []any) {
	b := &exportJobFilterBuilder{
		query:  `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE NOT is_deleted`,
		argIdx: 1,
	}
	if opts.Status != nil && *opts.Status != "" {
		b.addFilter("status", *opts.Status)
	}
	if opts.RequesterID != "" {
		b.addFilter("requester_id", opts.RequesterID)
	}
	b.query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", b.argIdx, b.argIdx+1)
	b.args = append(b.args, clampLimit(opts.Limit), max(opts.Offset, 0))
	return b.query, b.args
}

// List returns records newest first with optional filters.
func (r *ExportJobRepo) List(ctx context.Context, opts model.ExportJobListOptions) ([]*model.ExportJob, error) {
	query, args := buildExportJobListQuery(opts)
	return r.queryJobs(ctx, query, args...)
}

// Stats counts non-deleted records per status.
func (r *ExportJobRepo) Stats(ctx context.Context) (*model.ExportJobStats, error) {
	var s model.ExportJobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'succeeded') AS succeeded,
    count(*) FILTER (WHERE status = 'failed')    AS failed
  FROM export_jobs
  WHERE NOT is_deleted
  `).Scan(&s.Pending, &s.Succeeded, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to get export job stats: %w", err)
	}
	return &s, nil
}

func (r *ExportJobRepo) queryJobs(ctx context.Context, query string, args ...any) ([]*model.ExportJob, error) {
	var result []*model.ExportJob
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query export jobs: %w", err)
		}
		defer rows.Close()

		vals, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.ExportJob])
		if err != nil {
			return fmt.Errorf("collect export jobs: %w", err)
		}
		result = vals
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func clampLimit(limit int) int {
	return model.ExportJobListOptions{Limit: limit}.Normalized().Limit
}
