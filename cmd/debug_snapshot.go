package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/syncengine"
)

var (
	debugSnapshotScenario string
	debugSnapshotCycle    string
)

var debugSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Dump the snapshot of a scenario run",
	Long: `Replays a scenario against an empty local recorder and dumps the resulting
snapshot with all of its Go types. Useful to check metadata and derived risk
levels of a scenario before running it on a server.`,
	Example: `  privaudit debug snapshot --scenario scenario.yaml --cycle proof-generation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario := syncengine.DefaultScenario()
		if debugSnapshotScenario != "" {
			var err error
			if scenario, err = syncengine.LoadScenario(debugSnapshotScenario); err != nil {
				return err
			}
		}

		rec := audit.New(audit.Config{SkipBootstrap: true})
		engine := syncengine.New(rec, scenario)

		if debugSnapshotCycle == "" {
			if _, err := engine.RunAll(cmd.Context(), nil); err != nil {
				return err
			}
		} else {
			found := false
			for _, cycle := range scenario.Cycles {
				if cycle.Name != debugSnapshotCycle {
					continue
				}
				found = true
				if _, err := engine.RunCycle(cmd.Context(), cycle, nil); err != nil {
					return err
				}
			}
			if !found {
				return fmt.Errorf("cycle '%s' not found in scenario '%s'", debugSnapshotCycle, scenario.Name)
			}
		}

		cfg := spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		cfg.Dump(rec.Snapshot())
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugSnapshotCmd)

	debugSnapshotCmd.Flags().StringVar(&debugSnapshotScenario, "scenario", "", "scenario file (default: built-in scenario)")
	debugSnapshotCmd.Flags().StringVar(&debugSnapshotCycle, "cycle", "", "only replay this cycle")
}
