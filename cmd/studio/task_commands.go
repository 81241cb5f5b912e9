package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/storyreelhq/storyreel/internal/client"
	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect generation tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newTaskShowCommand(ctx))
	cmd.AddCommand(newTaskWatchCommand(ctx))
	cmd.AddCommand(newTaskRevokeCommand(ctx))
	return cmd
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := ctx.newClient().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(cmd, task)
			return nil
		},
	}
}

func newTaskWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Poll a task until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchTask(cmd, ctx.newClient(), args[0], ctx.taskPollInterval())
		},
	}
}

func newTaskRevokeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <task-id>",
		Short: "Cancel a pending task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.newClient().RevokeTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Revoked", args[0])
			return nil
		},
	}
}

// watchTask polls until the task settles and reports the outcome through the
// process exit code.
func watchTask(cmd *cobra.Command, api *client.Client, taskID string, interval time.Duration) error {
	done := make(chan *domain.GenerationTask, 1)
	failed := make(chan error, 1)

	poller := client.NewTaskPoller(api, taskID, nil,
		client.WithPollInterval(interval),
		client.WithProgressFunc(func(task *domain.GenerationTask) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d%%\n", task.ID, task.Status, task.Progress)
		}),
		client.WithDoneFunc(func(task *domain.GenerationTask) {
			done <- task
		}),
		client.WithErrorFunc(func(err error) {
			failed <- err
		}),
	)
	poller.Start(cmd.Context())
	defer poller.Stop()

	select {
	case err := <-failed:
		var taskErr *client.TaskFailedError
		if errors.As(err, &taskErr) {
			printTask(cmd, taskErr.Task)
			return err
		}
		return fmt.Errorf("watch task %s: %w", taskID, err)
	case task := <-done:
		printTask(cmd, task)
		return nil
	case <-cmd.Context().Done():
		return context.Cause(cmd.Context())
	}
}

func printTask(cmd *cobra.Command, task *domain.GenerationTask) {
	line := fmt.Sprintf("%s  %s %s %d%%", task.ID, task.Kind, task.Status, task.Progress)
	if task.Result != "" {
		line += "  " + task.Result
	}
	if task.ErrorMessage != "" {
		line += "  error=" + task.ErrorMessage
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
