package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/syncengine"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Parses the configuration file, applies defaults and checks every section.
If a sync scenario is referenced, the scenario is validated as well.`,
	Example: `  privaudit config validate -f privaudit.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if f.ConfigPath == "" {
			return fmt.Errorf("config file not specified (use -f)")
		}
		cfg, err := f.LoadConfig()
		if err != nil {
			return logError(err, "", "configuration is invalid")
		}

		scenario := syncengine.DefaultScenario()
		if cfg.Sync.Scenario != "" {
			if scenario, err = syncengine.LoadScenario(cfg.Sync.Scenario); err != nil {
				return logError(err, "", "scenario is invalid")
			}
		}

		log.Info().
			Int("max_entries", cfg.Recorder.MaxEntries).
			Str("export", cfg.Export.Type).
			Bool("auto_export", cfg.AutoExport.Enabled).
			Bool("sync", cfg.Sync.Enabled).
			Str("scenario", scenario.Name).
			Int("cycles", len(scenario.Cycles)).
			Msg("loaded configuration")
		logSuccess("configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)

	f.bindConfigFlag(configValidateCmd.Flags())
}
