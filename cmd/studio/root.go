package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/storyreelhq/storyreel/internal/client"
	"github.com/storyreelhq/storyreel/internal/config"
)

// commandContext carries the shared client and flag values across commands.
// The session token persists in a dotfile so consecutive invocations stay
// logged in.
type commandContext struct {
	serverFlag *string

	cfgOnce sync.Once
	cfg     config.Config
}

func newCommandContext(serverFlag *string) *commandContext {
	return &commandContext{serverFlag: serverFlag}
}

func (c *commandContext) config() config.Config {
	c.cfgOnce.Do(func() { c.cfg = config.Load() })
	return c.cfg
}

// taskPollInterval and projectPollInterval honor TASK_POLL_INTERVAL and
// PROJECT_POLL_INTERVAL so watch commands can be tuned per environment.
func (c *commandContext) taskPollInterval() time.Duration {
	return c.config().TaskPollInterval
}

func (c *commandContext) projectPollInterval() time.Duration {
	return c.config().ProjectPollInterval
}

func (c *commandContext) serverURL() string {
	if c.serverFlag != nil && *c.serverFlag != "" {
		return *c.serverFlag
	}
	if url := os.Getenv("STORYREEL_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func (c *commandContext) newClient() *client.Client {
	api := client.New(c.serverURL())
	if token, err := loadToken(); err == nil && token != "" {
		api.SetToken(token)
	}
	return api
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".storyreel", "token"), nil
}

func loadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func newRootCommand() *cobra.Command {
	var serverFlag string

	ctx := newCommandContext(&serverFlag)

	rootCmd := &cobra.Command{
		Use:           "studio",
		Short:         "StoryReel studio CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "API base URL (default $STORYREEL_API or http://localhost:8080)")

	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newRegisterCommand(ctx))
	rootCmd.AddCommand(newProjectsCommand(ctx))
	rootCmd.AddCommand(newUploadCommand(ctx))
	rootCmd.AddCommand(newChaptersCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newTasksCommand(ctx))
	rootCmd.AddCommand(newCredentialsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))

	return rootCmd
}
