package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/privaudit/internal/api"
	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/logging"
	"github.com/darmiel/privaudit/internal/syncengine"
	"github.com/darmiel/privaudit/internal/tasks"
)

const (
	SyncTaskName   = "sync"
	ExportTaskName = "export"
)

var serveNarrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the privaudit server",
	Long: `Starts the recorder together with the configured exporter and serves the admin API.
Sync cycles and periodic exports run as background tasks, see 'privaudit tasks list'.`,
	Example: `  privaudit serve -f privaudit.yaml
  privaudit serve -f privaudit.yaml --addr :9090 --narrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if cfg.Server.SigningKey == "" {
			return fmt.Errorf("server.signing_key is required to protect the admin API")
		}

		var opts []audit.Option
		if serveNarrate {
			opts = append(opts, audit.WithObserver(newPrinter()))
		}
		svc, err := f.GetLocalService(cfg, opts...)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Exporter().Close(); err != nil {
				log.Warn().Err(err).Msg("closing exporter")
			}
		}()
		log.Info().
			Str("session_id", svc.Recorder().SessionID()).
			Int("max_entries", svc.Recorder().MaxEntries()).
			Str("exporter", svc.Exporter().Name()).
			Msg("audit session started")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		auto := attachAutoExport(cfg, svc, exportResultLogger)

		taskManager := tasks.NewManager(ctx)
		if err := taskManager.Register(tasks.TaskDefinition{
			Name:     ExportTaskName,
			Interval: cfg.AutoExport.Interval,
			Handler: func(ctx context.Context, logger logging.InternalLogger) error {
				res, err := svc.Export(ctx)
				if err != nil {
					return err
				}
				logger.Info("exported %d records to %s (%s)", res.Records, res.Sink, res.Location)
				return nil
			},
		}); err != nil {
			return err
		}

		if cfg.Sync.Enabled {
			scenario, err := f.LoadScenario(cfg)
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}
			engine := syncengine.New(svc.Recorder(), scenario)
			if err := taskManager.Register(tasks.TaskDefinition{
				Name:     SyncTaskName,
				Interval: cfg.Sync.Interval,
				Handler:  engine.Task(),
			}); err != nil {
				return err
			}
			log.Info().
				Str("scenario", scenario.Name).
				Dur("interval", cfg.Sync.Interval).
				Msg("sync cycles scheduled")
		}

		srv := api.NewServer(svc, taskManager)
		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Routes([]byte(cfg.Server.SigningKey)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s...", cfg.Server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		select {
		case <-ctx.Done():
		case err := <-serverErr:
			return fmt.Errorf("server crashed: %w", err)
		}
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		taskManager.Wait()
		if auto != nil {
			if err := auto.Close(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("waiting for automatic export")
			}
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f.bindConfigFlag(serveCmd.Flags())
	serveCmd.Flags().String("addr", "", "address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNarrate, "narrate", false, "print every recorded entry to stdout")
}
