package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/service"
)

var auditAppendOpts struct {
	metadata []string
	status   string
	duration int64
}

var auditAppendCmd = &cobra.Command{
	Use:   "append CATEGORY MESSAGE",
	Short: "Record a new entry in the audit trail",
	Long: `Appends an entry to the trail of the server. The risk level is derived by the
server from the category and the "sensitivity" / "complexity" metadata.`,
	Example: `  privaudit audit append proof "proof generated" -m complexity=high --duration 1840
  privaudit audit append inference "batch evaluated" -m sensitivity=high --status verified`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := parseKeyValues(auditAppendOpts.metadata)
		if err != nil {
			return err
		}
		req := service.AppendRequest{
			Category: core.Category(args[0]),
			Message:  args[1],
			Status:   core.Status(auditAppendOpts.status),
			Metadata: meta,
		}
		if cmd.Flags().Changed("duration") {
			if auditAppendOpts.duration < 0 {
				return fmt.Errorf("duration must not be negative")
			}
			req.DurationMs = &auditAppendOpts.duration
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		entry, correlation, err := cli.AppendEntry(cmd.Context(), req)
		if err != nil {
			return logError(err, correlation, "failed to append entry")
		}

		logSuccess("recorded entry %s with risk %s", bold(entry.ID), riskLabel(entry.RiskLevel))
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditAppendCmd)

	auditAppendCmd.Flags().StringArrayVarP(&auditAppendOpts.metadata, "meta", "m", nil, "Metadata as key=value (repeatable)")
	auditAppendCmd.Flags().StringVar(&auditAppendOpts.status, "status", "", "Status of the entry (default: recorded)")
	auditAppendCmd.Flags().Int64Var(&auditAppendOpts.duration, "duration", 0, "Processing time in milliseconds")
}
