package cmd

import (
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and trigger background tasks of a server",
	Long:  `Lists the sync and export tasks of a server, triggers them manually and shows the logs of their last run.`,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
