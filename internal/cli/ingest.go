package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"contenthub/internal/app"
	"contenthub/internal/config"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Run a JSON payload through the ingestion pipeline",
		Long:  "Reads a JSON payload from <file> (or stdin when <file> is -) and ingests it as if it had arrived from --source.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("%s: payload is not valid JSON", args[0])
			}

			return ctx.withBackend(cmd.Context(), func(cfg *config.Config, b *backend) error {
				a, err := app.New(cfg, b.store, b.settings, nil)
				if err != nil {
					return err
				}
				adapter, ok := a.Registry.Resolve(source, raw)
				if !ok {
					return fmt.Errorf("unknown source %q, expected one of: %s", source, strings.Join(a.Registry.Names(), ", "))
				}

				res := a.Pipeline.Execute(cmd.Context(), adapter, raw, b.store)
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
				if !res.Success && !res.Duplicate {
					return fmt.Errorf("ingestion failed (log %s): %s", res.LogID, res.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "cli", "Source label the payload is ingested under")
	return cmd
}

func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path) // #nosec G304 -- operator supplied path
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
