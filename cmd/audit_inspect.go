package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var auditInspectCmd = &cobra.Command{
	Use:     "inspect ID",
	Short:   "Show full details of a specific audit log entry",
	Example: `  privaudit audit inspect cs3k1v2n8d0c73b7b0sg`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if id == "" {
			return fmt.Errorf("entry ID cannot be empty")
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msgf("Retrieving entry '%s'...", id)
		entry, correlation, err := cli.GetEntry(cmd.Context(), id)
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log entry")
		}

		newPrinter().PrintEntry(*entry)
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditInspectCmd)
}
