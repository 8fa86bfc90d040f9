package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/observability"
	"github.com/jonathan/cover-letter/internal/pipeline"
	"github.com/jonathan/cover-letter/internal/types"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		in       string
		outDir   string
		format   string
		name     string
		company  string
		position string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render existing letter text to PDF and/or DOCX",
		Long:  `Lays out letter text (a file, or - for stdin) and writes one-page documents named after the candidate, company and position.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := root.fileConfig(cmd)
			if err != nil {
				return err
			}
			var cli config.Config
			if cmd.Flags().Changed("out-dir") {
				cli.OutDir = outDir
			}
			if cmd.Flags().Changed("format") {
				cli.Format = format
			}
			cfg := cli.MergeWithDefaults(fileCfg)

			formats, err := pipeline.ParseFormats(cfg.Format)
			if err != nil {
				return err
			}

			text, err := readLetter(cmd, in)
			if err != nil {
				return err
			}

			meta := types.LetterMetadata{CandidateName: name, Company: company, Position: position}.WithDefaults()
			logger := root.logger(cmd.ErrOrStderr())

			result, err := pipeline.RenderAll(cmd.Context(), text, meta, formats, pipeline.RenderOptions{
				Created: time.Now(),
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			paths, err := pipeline.WriteDocuments(cfg.OutDir, result.Documents)
			if err != nil {
				return err
			}

			if root.verbose {
				printer := observability.NewPrinter(cmd.OutOrStdout())
				printer.PrintLayoutSummary(result.Summary, result.Overflow)
				printer.PrintDocuments(paths)
				return nil
			}
			for _, p := range paths {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Letter text file, or - for stdin (required)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the rendered documents (default \".\")")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: pdf, docx or both (default \"both\")")
	cmd.Flags().StringVar(&name, "name", "", "Candidate name used in the filename")
	cmd.Flags().StringVar(&company, "company", "", "Company used in the filename")
	cmd.Flags().StringVar(&position, "position", "", "Position used in the filename")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func readLetter(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read letter: %w", err)
	}
	return string(data), nil
}
