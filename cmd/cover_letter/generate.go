package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/db"
	"github.com/jonathan/cover-letter/internal/fetch"
	"github.com/jonathan/cover-letter/internal/pipeline"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		job         string
		jobURL      string
		resume      string
		template    string
		outDir      string
		format      string
		apiKey      string
		useBrowser  bool
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a cover letter for a job posting and render it",
		Long: `Reads a job posting (file or URL) and a resume (PDF or text), asks the model for a cover letter,
extracts the candidate, company and position, and writes PDF and/or DOCX files.

Configuration can be loaded from a JSON or YAML file using --config. Command-line flags override config file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := root.fileConfig(cmd)
			if err != nil {
				return err
			}

			// Only explicitly set flags override the file.
			var cli config.Config
			if cmd.Flags().Changed("job") {
				cli.Job = job
			}
			if cmd.Flags().Changed("job-url") {
				cli.JobURL = jobURL
			}
			if cmd.Flags().Changed("resume") {
				cli.Resume = resume
			}
			if cmd.Flags().Changed("template") {
				cli.Template = template
			}
			if cmd.Flags().Changed("out-dir") {
				cli.OutDir = outDir
			}
			if cmd.Flags().Changed("format") {
				cli.Format = format
			}
			if cmd.Flags().Changed("api-key") {
				cli.APIKey = apiKey
			}
			if cmd.Flags().Changed("database-url") {
				cli.DatabaseURL = databaseURL
			}
			cli.UseBrowser = useBrowser
			cli.Verbose = root.verbose

			cfg := cli.MergeWithDefaults(fileCfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Job == "" && cfg.JobURL == "" {
				return fmt.Errorf("either --job or --job-url must be provided (via flag or config)")
			}
			if cfg.Resume == "" {
				return fmt.Errorf("--resume is required (via flag or config)")
			}

			formats, err := pipeline.ParseFormats(cfg.Format)
			if err != nil {
				return err
			}

			cfg.APIKey = firstNonEmpty(cfg.APIKey, os.Getenv("GEMINI_API_KEY"))
			if cfg.APIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
			}

			ctx := cmd.Context()
			logger := root.logger(cmd.ErrOrStderr())

			client, err := newLLMClient(ctx, cfg.APIKey, logger)
			if err != nil {
				return fmt.Errorf("failed to create LLM client: %w", err)
			}
			defer func() { _ = client.Close() }()

			// Fetched postings are cached only when a database is configured.
			var store fetch.PostingStore
			if cfg.JobURL != "" {
				if dbURL := firstNonEmpty(cfg.DatabaseURL, os.Getenv("DATABASE_URL")); dbURL != "" {
					database, err := db.Connect(ctx, dbURL)
					if err != nil {
						return fmt.Errorf("failed to connect to database: %w", err)
					}
					defer database.Close()
					store = database
				}
			}

			opts := pipeline.RunOptions{
				JobPath:      cfg.Job,
				JobURL:       cfg.JobURL,
				ResumePath:   cfg.Resume,
				TemplateType: cfg.Template,
				OutDir:       cfg.OutDir,
				Formats:      formats,
				UseBrowser:   cfg.UseBrowser,
				Verbose:      cfg.Verbose,
				Store:        store,
				Client:       client,
				Logger:       logger,
				Out:          cmd.OutOrStdout(),
			}
			if cfg.Verbose {
				opts.OnProgress = func(e pipeline.ProgressEvent) {
					logger.Debug(e.Message, "step", e.Step)
				}
			}

			result, err := pipeline.RunPipeline(ctx, opts)
			if err != nil {
				return err
			}
			if !cfg.Verbose {
				for _, p := range result.Paths {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&job, "job", "j", "", "Path to job posting text or HTML file (mutually exclusive with --job-url)")
	cmd.Flags().StringVar(&jobURL, "job-url", "", "URL to fetch the job posting from (mutually exclusive with --job)")
	cmd.Flags().StringVarP(&resume, "resume", "r", "", "Path to resume PDF or text file")
	cmd.Flags().StringVarP(&template, "template", "t", "", "Letter style: default, concise or enthusiastic")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the rendered documents (default \".\")")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: pdf, docx or both (default \"both\")")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	cmd.Flags().BoolVar(&useBrowser, "use-browser", false, "Render the job page in headless Chrome (for SPA job boards)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL for caching fetched postings (defaults to DATABASE_URL)")
	return cmd
}
