package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/storyreelhq/storyreel/internal/client"
	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := ctx.newClient().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{
					p.ID,
					p.Title,
					string(p.Status),
					strconv.Itoa(p.ProcessingProgress) + "%",
					strconv.Itoa(p.ChapterCount),
					strconv.Itoa(p.WordCount),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Status", "Progress", "Chapters", "Words"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.AddCommand(newProjectStatusCommand(ctx))
	cmd.AddCommand(newProjectArchiveCommand(ctx))
	cmd.AddCommand(newProjectDeleteCommand(ctx))
	return cmd
}

func newProjectStatusCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <project-id>",
		Short: "Show project status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := ctx.newClient()
			if !watch {
				state, err := api.ProjectStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printProjectState(cmd, state)
				return nil
			}

			done := make(chan struct{})
			watcher := client.NewProjectWatcher(api, ctx.projectPollInterval(), func(state *domain.ProjectState) {
				printProjectState(cmd, state)
				if state.Status.Terminal() {
					close(done)
				}
			}, nil)
			watcher.Watch(cmd.Context(), args[0])
			defer watcher.Stop()

			select {
			case <-done:
				return nil
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the project settles")
	return cmd
}

func printProjectState(cmd *cobra.Command, state *domain.ProjectState) {
	line := fmt.Sprintf("%s  %s %d%%  chapters=%d words=%d",
		state.ID, state.Status, state.ProcessingProgress, state.ChapterCount, state.WordCount)
	if state.ErrorMessage != "" {
		line += "  error=" + state.ErrorMessage
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

func newProjectArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.newClient().ArchiveProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Archived", args[0])
			return nil
		},
	}
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its derived content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				answer, err := promptLine(cmd, fmt.Sprintf("Delete project %s? [y/N] ", args[0]))
				if err != nil {
					return err
				}
				if answer != "y" && answer != "Y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			if err := ctx.newClient().DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var title string
	var description string
	var watch bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document and start parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			api := ctx.newClient()
			result, err := api.UploadProject(cmd.Context(), title, description, filepath.Base(args[0]), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s created, parse task %s queued\n",
				result.Project.ID, result.Task.ID)

			if !watch {
				return nil
			}
			return watchTask(cmd, api, result.Task.ID, ctx.taskPollInterval())
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Project title (defaults to the filename)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the parse task until it finishes")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Download the storyboard workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.newClient().DownloadStoryboard(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to the server-suggested name)")
	return cmd
}
