package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/target/async-export/config"
	"github.com/target/async-export/internal/bootstrap"
)

const defaultCommandTimeout = 5 * time.Minute

type commandContext struct {
	Ctx     context.Context
	Logger  *slog.Logger
	Config  config.AppConfig
	Out     io.Writer
	Timeout time.Duration
}

func main() {
	logger := bootstrap.InitLogger("info", false)

	cmdCtx := &commandContext{
		Ctx:     context.Background(),
		Logger:  logger,
		Out:     os.Stdout,
		Timeout: defaultCommandTimeout,
	}
	if err := buildCLI(cmdCtx).Execute(); err != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func buildCLI(cmdCtx *commandContext) *cobra.Command {
	root := &cobra.Command{
		Use:   "async-export-admin",
		Short: "Operator tooling for the async export service",
		Long: `async-export-admin works directly against the export ledger (Postgres)
and the dictionary cache (Redis) using the same environment configuration
as the service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cmdCtx.Config = cfg
			cmdCtx.Out = cmd.OutOrStdout()
			return nil
		},
	}
	root.PersistentFlags().DurationVar(&cmdCtx.Timeout, "timeout", defaultCommandTimeout, "overall command timeout")

	root.AddCommand(
		buildMigrateCommand(cmdCtx),
		buildSubmitCommand(cmdCtx),
		buildStatusCommand(cmdCtx),
		buildListCommand(cmdCtx),
		buildStatsCommand(cmdCtx),
		buildResyncCommand(cmdCtx),
		buildColumnsSetCommand(cmdCtx),
		buildDictSetCommand(cmdCtx),
	)
	return root
}

func buildMigrateCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				cmdCtx.Logger.InfoContext(ctx, "running database migrations")
				return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
			})
		},
	}
}

// commandDeadline derives the context every command runs under.
func (cmdCtx *commandContext) commandDeadline() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	timeout := cmdCtx.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func withDatabase(cmdCtx *commandContext, f func(context.Context, *sql.DB) error) error {
	ctx, cancel := cmdCtx.commandDeadline()
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func withRedis(cmdCtx *commandContext, f func(context.Context, redis.UniversalClient) error) error {
	ctx, cancel := cmdCtx.commandDeadline()
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return f(ctx, client)
}
