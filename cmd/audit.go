package cmd

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query, append to and export the audit trail of a server",
	Long:  `Administrative commands for the audit trail of a running server. Requires an authenticated session (privaudit login).`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
