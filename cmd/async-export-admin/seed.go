package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/target/async-export/internal/data"
	"github.com/target/async-export/internal/domain/export"
)

func buildColumnsSetCommand(cmdCtx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "columns-set",
		Short: "Upsert handler column specs from a YAML file into Postgres",
		Long: `columns-set reads a YAML document keyed by handler name, e.g.

  exampleHandler:
    - property: testName
      label: Name
    - property: testContent
      label: Sex
      dictionary: SEX

and stores each handler's layout in export_column_specs.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			specs, err := data.LoadFileColumnSpecRepo(file)
			if err != nil {
				return err
			}
			return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
				repo := data.NewColumnSpecRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})
				return upsertSpecs(ctx, repo, specs.Specs(), cmdCtx)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML column spec file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type specUpserter interface {
	Upsert(ctx context.Context, spec *export.ColumnSpec) error
}

func upsertSpecs(ctx context.Context, repo specUpserter, specs []*export.ColumnSpec, cmdCtx *commandContext) error {
	sort.Slice(specs, func(i, j int) bool { return specs[i].Handler < specs[j].Handler })
	for _, spec := range specs {
		if err := repo.Upsert(ctx, spec); err != nil {
			return fmt.Errorf("upsert %s: %w", spec.Handler, err)
		}
		if err := writef(cmdCtx.Out, "%s: %d columns\n", spec.Handler, len(spec.Columns)); err != nil {
			return err
		}
	}
	return nil
}

func buildDictSetCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		entry   string
		locales []string
	)

	cmd := &cobra.Command{
		Use:   "dict-set <code> <value>",
		Short: "Store a dictionary translation in Redis",
		Long: `dict-set writes the translation for one dictionary code and raw value, e.g.

  async-export-admin dict-set SEX 9 --locale default=Female --locale en=Female

stores {"default":"Female","en":"Female"} under SEX_9.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			key, err := dictionaryKey(args[0], args[1])
			if err != nil {
				return err
			}
			value, err := dictionaryEntry(entry, locales)
			if err != nil {
				return err
			}
			return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
				repo := data.NewDictionaryRepo(data.DictionaryRepoOptions{
					Client:  client,
					HashKey: cmdCtx.Config.Export.DictionaryHashKey,
					Logger:  cmdCtx.Logger,
				})
				if err := repo.Set(ctx, key, value); err != nil {
					return err
				}
				return writef(cmdCtx.Out, "%s = %s\n", key, value)
			})
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", `raw JSON entry, e.g. {"en":"Male"}`)
	cmd.Flags().StringArrayVar(&locales, "locale", nil, "locale=text pair; repeatable")
	return cmd
}

func dictionaryKey(code, value string) (string, error) {
	code, value = strings.TrimSpace(code), strings.TrimSpace(value)
	if code == "" || value == "" {
		return "", errors.New("dictionary code and value are required")
	}
	return code + export.DictionaryKeySeparator + value, nil
}

// dictionaryEntry builds the stored JSON object from either a raw entry or locale pairs.
func dictionaryEntry(raw string, pairs []string) (string, error) {
	if raw != "" && len(pairs) > 0 {
		return "", errors.New("use either --entry or --locale, not both")
	}

	entry := make(map[string]string, len(pairs))
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return "", fmt.Errorf("entry must be a JSON object of strings: %w", err)
		}
	}
	for _, p := range pairs {
		locale, text, ok := strings.Cut(p, "=")
		locale = strings.TrimSpace(locale)
		if !ok || locale == "" {
			return "", fmt.Errorf("invalid locale pair %q (want locale=text)", p)
		}
		entry[locale] = text
	}
	if len(entry) == 0 {
		return "", errors.New("at least one translation is required")
	}

	out, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}
	return string(out), nil
}
