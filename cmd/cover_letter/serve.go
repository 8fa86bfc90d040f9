package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port        int
		databaseURL string
		apiKey      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start the HTTP server used by the browser extension. Requires DATABASE_URL, GEMINI_API_KEY and JWT_SECRET.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := root.fileConfig(cmd)
			if err != nil {
				return err
			}

			var cli config.Config
			if cmd.Flags().Changed("port") {
				cli.Port = port
			}
			cfg := cli.MergeWithDefaults(fileCfg)

			dbURL := firstNonEmpty(databaseURL, cfg.DatabaseURL, os.Getenv("DATABASE_URL"))
			if dbURL == "" {
				return fmt.Errorf("DATABASE_URL environment variable or --database-url flag is required")
			}
			key := firstNonEmpty(apiKey, cfg.APIKey, os.Getenv("GEMINI_API_KEY"))
			if key == "" {
				return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
			}

			srv, err := server.New(cmd.Context(), server.Config{
				Port:        cfg.Port,
				DatabaseURL: dbURL,
				APIKey:      key,
				Logger:      root.logger(cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Start()
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	return cmd
}
