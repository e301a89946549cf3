package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate counts of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching audit stats...")
		stats, correlation, err := cli.Stats(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit stats")
		}

		newPrinter().PrintStats(*stats)
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditStatsCmd)
}
