package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a snapshot of the audit trail",
	Long: `Asks the server to write a snapshot of its trail to the configured exporter.
A failed export leaves the trail untouched, so it can simply be retried.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Requesting export...")
		res, correlation, err := cli.Export(cmd.Context())
		if err != nil {
			return logError(err, correlation, "export failed")
		}

		logSuccess("exported %d records via %s", res.Records, bold(res.Sink))
		if res.Location != "" {
			log.Info().Msgf("Location:    %s", res.Location)
		}
		log.Info().Msgf("Export ID:   %s", res.ExportID)
		log.Info().Msgf("Fingerprint: %s", faint(res.Fingerprint))
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditExportCmd)
}
