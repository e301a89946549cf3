package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/logging"
	"github.com/darmiel/privaudit/internal/syncengine"
)

var (
	demoScenario   string
	demoMaxEntries int
	demoExportDir  string
	demoPace       time.Duration
	demoRounds     int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a local audit session and narrate it",
	Long: `Runs every cycle of a scenario against a local recorder. Each recorded entry is
printed as it happens, followed by a report per sync cycle, the trail statistics
and a final export of the whole trail.

Without --scenario the built-in privacy pipeline scenario is used.`,
	Example: `  privaudit demo
  privaudit demo --scenario scenario.yaml --rounds 3 --max-entries 20
  privaudit demo -f privaudit.yaml --pace 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if demoScenario != "" {
			cfg.Sync.Scenario = demoScenario
		}
		if demoMaxEntries > 0 {
			cfg.Recorder.MaxEntries = demoMaxEntries
		}
		if demoExportDir != "" {
			cfg.Export.Type = audit.FileExporterType
			cfg.Export.Dir = demoExportDir
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		scenario, err := f.LoadScenario(cfg)
		if err != nil {
			return fmt.Errorf("loading scenario: %w", err)
		}

		printer := newPrinter()
		svc, err := f.GetLocalService(cfg, audit.WithObserver(printer))
		if err != nil {
			return err
		}
		defer func() {
			_ = svc.Exporter().Close()
		}()
		auto := attachAutoExport(cfg, svc, exportResultLogger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		engine := syncengine.New(svc.Recorder(), scenario,
			syncengine.WithPace(demoPace),
			syncengine.WithReportFunc(printer.PrintSyncReport))

		logger := logging.NewZLogger(log.Logger)
		for round := 0; round < demoRounds; round++ {
			if _, err := engine.RunAll(ctx, logger); err != nil {
				log.Warn().Err(err).Msg("demo interrupted")
				break
			}
		}

		if auto != nil {
			if err := auto.Close(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("waiting for automatic export")
			}
			log.Info().Int64("exported", auto.Exported()).Int64("failed", auto.Failed()).
				Msg("automatic exports finished")
		}

		printer.PrintStats(svc.Stats(cmd.Context()))

		res, err := svc.Export(cmd.Context())
		if err != nil {
			return logError(err, "", "final export failed, the trail is still in memory")
		}
		logSuccess("exported %d records via %s to %s (fingerprint %s)",
			res.Records, res.Sink, bold(res.Location), faint(truncate(res.Fingerprint, 16)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	f.bindConfigFlag(demoCmd.Flags())
	demoCmd.Flags().StringVar(&demoScenario, "scenario", "", "scenario file to replay (default: built-in scenario)")
	demoCmd.Flags().IntVar(&demoMaxEntries, "max-entries", 0, "bound of the audit trail (overrides recorder.max_entries)")
	demoCmd.Flags().StringVar(&demoExportDir, "export-dir", "", "export the trail as JSON files into this directory")
	demoCmd.Flags().DurationVar(&demoPace, "pace", 150*time.Millisecond, "delay between two steps of a cycle")
	demoCmd.Flags().IntVar(&demoRounds, "rounds", 1, "how often the whole scenario is replayed")
}
