package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jstepanek/textlens/internal/core/llm"
)

func newSetupCmd(env *cliEnv) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Check the local Ollama server and pull the model if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				model = env.cfg.OllamaModel
			}
			out := cmd.OutOrStdout()

			admin, err := llm.NewOllamaAdmin(env.cfg.OllamaURL, nil)
			if err != nil {
				return err
			}
			if err := admin.Reachable(cmd.Context()); err != nil {
				return fmt.Errorf("ollama is not reachable at %s, start it with `ollama serve` and run setup again: %w", env.cfg.OllamaURL, err)
			}
			fmt.Fprintf(out, "Ollama is running at %s\n", env.cfg.OllamaURL)

			has, err := admin.HasModel(cmd.Context(), model)
			if err != nil {
				return err
			}
			if has {
				fmt.Fprintf(out, "Model %q is ready\n", model)
				return nil
			}

			fmt.Fprintf(out, "Pulling %q...\n", model)
			last := ""
			err = admin.Pull(cmd.Context(), model, func(status string, completed, total int64) {
				if total > 0 {
					fmt.Fprintf(out, "\r%s %3d%%", status, completed*100/total)
					return
				}
				if status != last {
					fmt.Fprintf(out, "\n%s", status)
					last = status
				}
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Model %q is ready\n", model)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model to pull (default OLLAMA_MODEL)")
	return cmd
}
