package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storyreelhq/storyreel/internal/client"
	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run generation over confirmed chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newGenerateKindCommand(ctx, "prompts", "Generate image prompts",
		func(api *client.Client) startFunc { return api.GeneratePrompts }))
	cmd.AddCommand(newGenerateKindCommand(ctx, "audio", "Generate narration audio",
		func(api *client.Client) startFunc { return api.GenerateAudio }))
	cmd.AddCommand(newGenerateKindCommand(ctx, "images", "Generate scene images",
		func(api *client.Client) startFunc { return api.GenerateImages }))
	return cmd
}

type startFunc = func(context.Context, domain.GenerationRequest) (*domain.GenerationTask, error)

func newGenerateKindCommand(ctx *commandContext, kind, short string, pick func(*client.Client) startFunc) *cobra.Command {
	var projectID string
	var chapterID string
	var sentenceIDs []string
	var credentialID string
	var model string
	var voice string
	var watch bool

	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" || credentialID == "" {
				return fmt.Errorf("--project and --credential are required")
			}
			if chapterID == "" && len(sentenceIDs) == 0 {
				return fmt.Errorf("--chapter or --sentence is required")
			}

			api := ctx.newClient()
			task, err := pick(api)(cmd.Context(), domain.GenerationRequest{
				ProjectID:    projectID,
				ChapterID:    chapterID,
				SentenceIDs:  sentenceIDs,
				CredentialID: credentialID,
				Model:        model,
				Voice:        voice,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s queued\n", task.ID)

			if !watch {
				return nil
			}
			return watchTask(cmd, api, task.ID, ctx.taskPollInterval())
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project id")
	cmd.Flags().StringVar(&chapterID, "chapter", "", "Chapter id (whole-chapter run)")
	cmd.Flags().StringArrayVar(&sentenceIDs, "sentence", nil, "Sentence id (repeatable, overrides --chapter scope)")
	cmd.Flags().StringVar(&credentialID, "credential", "", "Provider credential id")
	cmd.Flags().StringVar(&model, "model", "", "Model override")
	if kind == "audio" {
		cmd.Flags().StringVar(&voice, "voice", "", "Voice id (required for audio)")
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the task until it finishes")
	return cmd
}
