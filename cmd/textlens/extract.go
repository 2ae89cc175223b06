package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jstepanek/textlens/internal/app"
	"github.com/jstepanek/textlens/internal/core/ingestion_engine"
	"github.com/jstepanek/textlens/internal/models"
)

func newExtractCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a PDF or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := extractFile(cmd, env, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text.Content)
			return nil
		},
	}
}

func extractFile(cmd *cobra.Command, env *cliEnv, path string) (models.ExtractedText, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.ExtractedText{}, err
	}
	ing := app.NewIngestor(env.cfg, env.log)
	text, err := ing.Extract(cmd.Context(), models.UploadedDocument{Name: filepath.Base(path), Raw: raw})
	if ie, ok := ingestion_engine.AsIngestionError(err); ok {
		return models.ExtractedText{}, errors.New(ie.Message())
	}
	return text, err
}
