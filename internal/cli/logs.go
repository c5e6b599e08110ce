package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"contenthub/features/ingestlog"
	"contenthub/internal/config"
	"contenthub/internal/ingestion"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the ingestion log",
	}
	logsCmd.AddCommand(newLogsListCommand(ctx))
	return logsCmd
}

func newLogsListCommand(ctx *commandContext) *cobra.Command {
	var (
		status string
		limit  int
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent ingestion attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !ingestion.LogStatus(status).Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			return ctx.withBackend(cmd.Context(), func(_ *config.Config, b *backend) error {
				svc := ingestlog.NewService(ingestlog.NewStoreRepo(b.store), nil)
				res, err := svc.List(cmd.Context(), ingestlog.Filter{Status: status, Page: page, Limit: limit})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(res.Entries) == 0 {
					fmt.Fprintln(out, "No ingestion logs")
					return nil
				}
				rows := make([][]string, 0, len(res.Entries))
				for _, e := range res.Entries {
					rows = append(rows, logRow(e))
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Status", "Source", "Title", "Time", "Created"}, rows, 4))
				fmt.Fprintf(out, "Page %d, %d total\n", res.Page, res.TotalDocs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show entries with this status")
	cmd.Flags().IntVar(&limit, "limit", 20, "Entries per page")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func logRow(e ingestion.LogEntry) []string {
	title := e.ContentTitle
	if title == "" && e.Error != "" {
		title = truncate(e.Error, 48)
	}
	elapsed := "-"
	if e.ProcessingTimeMs != nil {
		elapsed = strconv.FormatInt(*e.ProcessingTimeMs, 10) + "ms"
	}
	return []string{
		e.ID,
		string(e.Status),
		e.SourceType,
		truncate(title, 48),
		elapsed,
		e.CreatedAt.Local().Format("2006-01-02 15:04"),
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
