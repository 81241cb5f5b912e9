package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCredentialsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage AI provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := ctx.newClient().ListCredentials(cmd.Context())
			if err != nil {
				return err
			}
			if len(creds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No credentials")
				return nil
			}

			rows := make([][]string, 0, len(creds))
			for _, c := range creds {
				rows = append(rows, []string{c.ID, c.Name, c.Provider, c.APIKey, c.DefaultModel})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Provider", "Key", "Default Model"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.AddCommand(newCredentialAddCommand(ctx))
	cmd.AddCommand(newCredentialRemoveCommand(ctx))
	cmd.AddCommand(newCredentialModelsCommand(ctx))
	cmd.AddCommand(newCredentialVoicesCommand(ctx))
	return cmd
}

func newCredentialAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	var provider string
	var apiKey string
	var baseURL string
	var defaultModel string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a provider credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || provider == "" {
				return fmt.Errorf("--name and --provider are required")
			}
			if apiKey == "" {
				var err error
				apiKey, err = promptLine(cmd, "API key: ")
				if err != nil {
					return err
				}
			}
			cred, err := ctx.newClient().CreateCredential(cmd.Context(), name, provider, apiKey, baseURL, defaultModel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored credential %s (%s, key %s)\n", cred.ID, cred.Provider, cred.APIKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider identifier (openai, minimax, ...)")
	cmd.Flags().StringVar(&apiKey, "key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override the provider's API base URL")
	cmd.Flags().StringVar(&defaultModel, "model", "", "Default model for this credential")
	return cmd
}

func newCredentialRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <credential-id>",
		Short: "Delete a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.newClient().DeleteCredential(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed", args[0])
			return nil
		},
	}
}

func newCredentialModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models <credential-id>",
		Short: "List models available to a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := ctx.newClient().CredentialModels(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(models, "\n"))
			return nil
		},
	}
}

func newCredentialVoicesCommand(ctx *commandContext) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "voices <credential-id>",
		Short: "List voices for text-to-speech",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := ctx.newClient().CredentialVoices(cmd.Context(), args[0], model)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(voices, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model whose voice presets to list")
	return cmd
}
