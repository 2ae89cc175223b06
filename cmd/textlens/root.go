package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/config"
	"github.com/jstepanek/textlens/internal/logger"
)

// cliEnv is shared by every subcommand once the root has loaded config.
type cliEnv struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}
	var verbose bool

	root := &cobra.Command{
		Use:           "textlens",
		Short:         "Ask questions about a PDF or text document",
		Long:          `textlens extracts the text of a document and answers questions about it with a local Ollama model or a configured cloud provider.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.cfg = config.LoadConfig()
			level := "warn"
			if verbose {
				level = "debug"
			}
			env.log = logger.New(logger.Options{Level: level})
			for _, w := range env.cfg.Warnings {
				env.log.Warn("config", zap.String("warning", w))
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(newExtractCmd(env), newAskCmd(env), newSetupCmd(env))
	return root
}
