package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyreelhq/storyreel/internal/client"
	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters <project-id>",
		Short: "List a project's chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, err := ctx.newClient().ListChapters(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(chapters) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chapters")
				return nil
			}

			rows := make([][]string, 0, len(chapters))
			for _, ch := range chapters {
				confirmed := ""
				if ch.IsConfirmed {
					confirmed = "yes"
				}
				rows = append(rows, []string{
					ch.ID,
					strconv.Itoa(ch.ChapterNumber),
					ch.Title,
					strconv.Itoa(ch.WordCount),
					strconv.Itoa(ch.ParagraphCount),
					confirmed,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "#", "Title", "Words", "Paragraphs", "Confirmed"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.AddCommand(newChapterConfirmCommand(ctx))
	cmd.AddCommand(newChapterParagraphsCommand(ctx))
	cmd.AddCommand(newChapterEditCommand(ctx))
	return cmd
}

func newChapterParagraphsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "paragraphs <chapter-id>",
		Short: "List a chapter's paragraphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paragraphs, err := ctx.newClient().ListParagraphs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(paragraphs))
			for _, p := range paragraphs {
				content := p.Content
				if len(content) > 80 {
					content = content[:77] + "..."
				}
				rows = append(rows, []string{p.ID, strconv.Itoa(p.OrderIndex), content})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "#", "Content"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newChapterEditCommand(ctx *commandContext) *cobra.Command {
	var edits []string
	var deletes []string
	var confirm bool

	cmd := &cobra.Command{
		Use:   "edit <chapter-id>",
		Short: "Apply staged paragraph edits in one save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(edits) == 0 && len(deletes) == 0 && !confirm {
				return fmt.Errorf("nothing to do: pass --set, --delete or --confirm")
			}

			session := client.NewEditSession(ctx.newClient())
			if _, err := session.Open(cmd.Context(), args[0]); err != nil {
				return err
			}

			for _, spec := range edits {
				id, content, ok := strings.Cut(spec, "=")
				if !ok {
					return fmt.Errorf("--set needs paragraph-id=content, got %q", spec)
				}
				if err := session.Stage(id, domain.ActionEdit, content); err != nil {
					return err
				}
			}
			for _, id := range deletes {
				if err := session.Stage(id, domain.ActionDelete, ""); err != nil {
					return err
				}
			}

			if confirm {
				chapter, err := session.Confirm(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved and confirmed chapter %d %q\n",
					chapter.ChapterNumber, chapter.Title)
				return nil
			}

			if err := session.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d edit(s) and %d delete(s)\n", len(edits), len(deletes))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&edits, "set", nil, "Replace a paragraph: paragraph-id=new content (repeatable)")
	cmd.Flags().StringArrayVar(&deletes, "delete", nil, "Delete a paragraph by id (repeatable)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the chapter after saving")
	return cmd
}

func newChapterConfirmCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "confirm <chapter-id>",
		Short: "Lock a chapter's content for generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				answer, err := promptLine(cmd,
					fmt.Sprintf("Confirming chapter %s makes it read-only. Continue? [y/N] ", args[0]))
				if err != nil {
					return err
				}
				if answer != "y" && answer != "Y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			chapter, err := ctx.newClient().ConfirmChapter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chapter %d %q confirmed\n", chapter.ChapterNumber, chapter.Title)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}
