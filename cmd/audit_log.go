package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/pkg/client"
)

var auditLogOpts struct {
	limit    int
	all      bool
	filter   string
	category string
	status   string
	risk     string
}

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	Long: `Shows the most recent entries of the trail, oldest first.

Entries can be narrowed down by category, status and risk level, or by a
filter expression. The expression sees the fields id, category, message,
status, risk, session, metadata, duration_ms and time.`,
	Example: `  privaudit audit log -n 10
  privaudit audit log --all --category system
  privaudit audit log --risk high
  privaudit audit log --filter 'category == "proof" && duration_ms > 1000'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditLogOpts.limit < 0 {
			return fmt.Errorf("limit must not be negative")
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		opts := client.ListEntriesOpts{
			Filter:   auditLogOpts.filter,
			Category: core.Category(auditLogOpts.category),
			Status:   core.Status(auditLogOpts.status),
			Risk:     core.RiskLevel(auditLogOpts.risk),
		}
		if !auditLogOpts.all {
			limit := uint(auditLogOpts.limit)
			opts.Limit = &limit
		}

		log.Debug().Msg("Fetching audit log...")
		entries, correlation, err := cli.ListEntries(cmd.Context(), opts)
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log")
		}
		if len(entries) == 0 {
			log.Info().Msg("No audit entries found")
			return nil
		}
		log.Debug().Msgf("Retrieved %d audit entries", len(entries))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "ID", "Category", "Message", "Status", "Risk", "Duration",
		})

		for _, e := range entries {
			duration := faint("-")
			if e.DurationMs != nil {
				duration = fmt.Sprintf("%dms", *e.DurationMs)
			}
			t.AppendRow(table.Row{
				e.Timestamp.Local().Format(time.TimeOnly),
				faint(e.ID),
				e.Category,
				truncate(e.Message, 48),
				e.Status,
				riskLabel(e.RiskLevel),
				duration,
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntVarP(&auditLogOpts.limit, "limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().BoolVar(&auditLogOpts.all, "all", false, "Retrieve every retained entry (ignores --limit)")
	auditLogCmd.Flags().StringVar(&auditLogOpts.filter, "filter", "", "Filter expression")
	auditLogCmd.Flags().StringVar(&auditLogOpts.category, "category", "", "Only show entries of this category")
	auditLogCmd.Flags().StringVar(&auditLogOpts.status, "status", "", "Only show entries with this status")
	auditLogCmd.Flags().StringVar(&auditLogOpts.risk, "risk", "", "Only show entries with this risk level")
}
