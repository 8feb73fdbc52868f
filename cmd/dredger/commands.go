package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usestring/dredger/internal/cache"
	"github.com/usestring/dredger/internal/config"
	"github.com/usestring/dredger/internal/corpus"
	"github.com/usestring/dredger/internal/logging"
	"github.com/usestring/dredger/internal/render"
	"github.com/usestring/dredger/pkg/mcpsrv"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dredger <target> [lists...]",
		Short: "Infer the schema of a corpus of YAML or JSON documents",
		Long: `Dredger reads a file, or every matching file under a directory, and prints
the schema the documents share: nested objects as entities, scalar fields as
typed attributes, each with the number of documents it was seen in.

Keys named as lists hold collections of records; their items are merged into
one entity instead of being reported as a plain array.`,
		Example: `  dredger matches/ innings deliveries
  dredger --format jsonschema --select '.matches[]' season.yaml`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				v.Set(config.KeyLists, append(v.GetStringSlice(config.KeyLists), args[1:]...))
			}
			return runInfer(cmd, v, args[0])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file (yaml, json or toml)")
	flags.StringSlice("list", nil, "List designator key (repeatable)")
	flags.StringSlice("ext", config.DefaultExtensions, "File extensions read when walking a directory")
	flags.String("select", "", "jq expression selecting the records to analyse inside each document")
	flags.Int("workers", 0, "Files analysed in parallel (default: number of CPUs)")
	flags.Int("cache-max-items", config.DefaultCacheMaxItemsValue, "Files whose analysis is kept in memory")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("log-file", "", "Log file (default: stderr)")
	rootCmd.Flags().StringP("format", "f", config.FormatText, "Output format (text, json, jsonschema)")

	for key, flag := range map[string]string{
		config.KeyConfig:        "config",
		config.KeyLists:         "list",
		config.KeyExtensions:    "ext",
		config.KeySelect:        "select",
		config.KeyWorkers:       "workers",
		config.KeyCacheMaxItems: "cache-max-items",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFormat:     "log-format",
		config.KeyLogFile:       "log-file",
	} {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}
	cobra.CheckErr(v.BindPFlag(config.KeyFormat, rootCmd.Flags().Lookup("format")))

	rootCmd.AddCommand(newMCPCmd(v))
	return rootCmd
}

func newMCPCmd(v *viper.Viper) *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve schema inference tools over MCP on stdio",
		Long: `Start an MCP server on stdin/stdout exposing dredger_infer_schema,
dredger_find_documents and dredger_export_jsonschema. Completed runs are kept
in memory, the oldest dropped first, so later calls can refer to them.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcpsrv.NewServer(mcpsrv.WithSettings(v), mcpsrv.WithVersion(version))
			if err != nil {
				return err
			}
			defer server.Close()

			slog.Info("starting dredger MCP server on stdio")
			if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}

	mcpCmd.Flags().Int("max-runs", config.DefaultMaxRunsValue, "Runs kept for find and export calls")
	cobra.CheckErr(v.BindPFlag(config.KeyMaxRuns, mcpCmd.Flags().Lookup("max-runs")))
	return mcpCmd
}

func runInfer(cmd *cobra.Command, v *viper.Viper, target string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logCleanup, err := logging.Setup(logging.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCleanup()

	fragments, err := cache.NewFragmentCache(cfg.CacheMaxItems)
	if err != nil {
		return err
	}

	res, err := corpus.NewRunner(fragments).Run(cmd.Context(), target, corpus.Options{
		Lists:      cfg.Lists,
		Extensions: cfg.Extensions,
		Select:     cfg.Select,
		Workers:    cfg.Workers,
	})
	if err != nil {
		return err
	}

	if summary := res.Summary(); len(summary.Skipped) > 0 {
		if err := render.Skipped(cmd.ErrOrStderr(), summary.Skipped); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch cfg.Format {
	case config.FormatJSON:
		return render.JSON(out, res.Schema)
	case config.FormatJSONSchema:
		return render.JSONSchema(out, res.Schema)
	default:
		return render.Text(out, res.Schema)
	}
}
