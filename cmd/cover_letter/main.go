// Package main provides the cover_letter CLI: the HTTP API server for the
// browser extension plus local generate and render commands.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/llm"
)

// newLLMClient creates the model client used by generate. Tests replace it.
var newLLMClient = func(ctx context.Context, apiKey string, logger *slog.Logger) (llm.Client, error) {
	cfg := llm.DefaultConfig()
	cfg.Logger = logger
	return llm.NewClient(ctx, cfg, apiKey)
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cover_letter",
		Short:         "Cover letter generator",
		Long:          "Generates tailored cover letters from a job posting and a resume, and renders them as one-page PDF and DOCX documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file (flags override its values)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print detailed progress and layout information")

	cmd.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newRenderCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// fileConfig loads and validates the --config file, or returns an empty
// config when none was given.
func (o *rootOptions) fileConfig(cmd *cobra.Command) (config.Config, error) {
	if o.configPath == "" {
		return config.Config{}, nil
	}
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if o.verbose {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Loaded config from: %s\n", o.configPath)
	}
	return *cfg, nil
}

// logger writes text logs to w; --verbose lowers the level to debug.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
