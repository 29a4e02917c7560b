package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/async-export/internal/adapters/resync"
	"github.com/target/async-export/internal/data"
	"github.com/target/async-export/internal/domain/model"
	"github.com/target/async-export/internal/service"
)

func newExportService(cmdCtx *commandContext, db *sql.DB) (*service.ExportService, error) {
	return service.NewExportService(service.ExportServiceOptions{
		Ledger: data.NewExportJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}),
		Queue:  service.LedgerOnlyQueue{},
		Logger: cmdCtx.Logger,
	})
}

func buildSubmitCommand(cmdCtx *commandContext) *cobra.Command {
	var req model.SubmitExportRequest

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a pending export job in the ledger",
		Long: `submit writes a pending ledger record without touching any running
service's queue. The job runs after the next re-sync pass or service restart.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				svc, err := newExportService(cmdCtx, db)
				if err != nil {
					return err
				}
				res, err := svc.Submit(ctx, &req)
				if err != nil {
					return err
				}
				return printJob(cmdCtx.Out, res.Job)
			})
		},
	}
	cmd.Flags().StringVar(&req.Handler, "handler", "", "export handler name (required)")
	cmd.Flags().StringVar(&req.RequesterID, "requester", "", "requesting user id")
	cmd.Flags().StringVar(&req.MethodName, "method", "", "handler method name")
	cmd.Flags().StringVar(&req.Params, "params", "", "opaque handler parameters")
	cmd.Flags().StringVar(&req.Locale, "locale", "", "dictionary locale mark")
	_ = cmd.MarkFlagRequired("handler")
	return cmd
}

func buildStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one export job",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				svc, err := newExportService(cmdCtx, db)
				if err != nil {
					return err
				}
				job, err := svc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJob(cmdCtx.Out, job)
			})
		},
	}
}

func buildListCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		status    string
		requester string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List export jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			opts := model.ExportJobListOptions{RequesterID: requester, Limit: limit, Offset: offset}
			if status != "" {
				var st model.ExportStatus
				if err := st.UnmarshalText([]byte(status)); err != nil {
					return err
				}
				opts.Status = &st
			}
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				svc, err := newExportService(cmdCtx, db)
				if err != nil {
					return err
				}
				jobs, err := svc.List(ctx, opts)
				if err != nil {
					return err
				}
				return printJobTable(cmdCtx.Out, jobs)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, succeeded, failed)")
	cmd.Flags().StringVar(&requester, "requester", "", "filter by requester id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func buildStatsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count export jobs by status",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				stats, err := data.NewExportJobRepo(db, data.RepoConfig{}).Stats(ctx)
				if err != nil {
					return err
				}
				return writef(cmdCtx.Out, "pending: %d\nsucceeded: %d\nfailed: %d\n",
					stats.Pending, stats.Succeeded, stats.Failed)
			})
		},
	}
}

func buildResyncCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "List pending jobs old enough for a re-sync pass",
		Long: `resync runs one dry-run pass: it lists pending jobs older than RESYNC_MIN_AGE.
The intake queue lives inside the service process, so re-offering must be done
there (POST /exports/resync or RESYNC_ENABLED=true).`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				runner, err := resync.NewRunner(resync.RunnerOptions{
					DB:     db,
					Config: cmdCtx.Config.Resync,
					Logger: cmdCtx.Logger,
					DryRun: true,
				})
				if err != nil {
					return err
				}
				res, err := runner.RunOnce(ctx)
				if err != nil {
					return err
				}
				return printResync(cmdCtx.Out, res)
			})
		},
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func printJob(w io.Writer, job *model.ExportJob) error {
	if job == nil {
		return errors.New("no job")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", job.ID},
		{"Status", string(job.Status)},
		{"Handler", job.Handler},
		{"Requester", job.RequesterID},
		{"Locale", job.Locale},
		{"Rows", fmt.Sprint(job.RowCount)},
		{"Created", job.CreatedAt.Format(time.RFC3339)},
	}
	if job.CompletedAt != nil {
		rows = append(rows, [2]string{"Completed", job.CompletedAt.Format(time.RFC3339)})
	}
	if u := deref(job.OutputURL); u != "" {
		rows = append(rows, [2]string{"URL", u})
	}
	if msg := deref(job.FailureMessage); msg != "" {
		rows = append(rows, [2]string{"Failure", msg})
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printJobTable(w io.Writer, jobs []*model.ExportJob) error {
	if len(jobs) == 0 {
		return writef(w, "no export jobs\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tSTATUS\tHANDLER\tROWS\tCREATED"); err != nil {
		return err
	}
	for _, j := range jobs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			j.ID, j.Status, j.Handler, j.RowCount, j.CreatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printResync(w io.Writer, res service.ResyncResult) error {
	if err := writef(w, "examined: %d\n", res.Examined); err != nil {
		return err
	}
	if len(res.Candidates) == 0 {
		return writef(w, "no stale pending jobs\n")
	}
	return writef(w, "stale pending jobs:\n  %s\n", strings.Join(res.Candidates, "\n  "))
}
