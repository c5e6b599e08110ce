package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"contenthub/features/apikey"
	"contenthub/internal/config"
)

func newKeysCommand(ctx *commandContext) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	keysCmd.AddCommand(newKeysCreateCommand(ctx))
	return keysCmd
}

func newKeysCreateCommand(ctx *commandContext) *cobra.Command {
	var name, source string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd.Context(), func(_ *config.Config, b *backend) error {
				plain, key, err := apikey.NewService(b.store).Create(cmd.Context(), name, source)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created key %s (%s)\n", key.ID, key.Name)
				fmt.Fprintf(out, "Key: %s\n", plain)
				fmt.Fprintln(out, "Store it now, it cannot be shown again.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Human readable key name")
	cmd.Flags().StringVar(&source, "source", "", "Source the key is issued to (cli, slack, ...)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
