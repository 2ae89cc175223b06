package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jstepanek/textlens/internal/app"
	"github.com/jstepanek/textlens/internal/core/llm"
	"github.com/jstepanek/textlens/internal/core/prompt"
	"github.com/jstepanek/textlens/internal/models"
	"github.com/jstepanek/textlens/internal/services"
)

func newAskCmd(env *cliEnv) *cobra.Command {
	var (
		file     string
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "ask --file <path> <question>",
		Short: "Answer one question about a document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := &models.ProviderConfig{Model: model}
			if provider != "" {
				p, err := models.ParseProvider(provider)
				if err != nil {
					return err
				}
				pc.Provider = p
			}

			text, err := extractFile(cmd, env, file)
			if err != nil {
				return err
			}

			dispatcher, err := app.NewDispatcher(cmd.Context(), env.cfg, env.log)
			if err != nil {
				return err
			}
			defer dispatcher.Close()

			chat := services.NewChatService(prompt.NewComposer(env.cfg.PromptCharBudget, env.cfg.PromptHistoryTurns), dispatcher)
			answer, err := chat.Answer(cmd.Context(), text.Content, nil, strings.Join(args, " "), pc)
			if de, ok := llm.AsDispatchError(err); ok {
				return errors.New(de.Message())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "PDF or text file to ask about")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "ollama, openai, anthropic or gemini (default from DEFAULT_PROVIDER)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default from the provider's *_MODEL setting)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
