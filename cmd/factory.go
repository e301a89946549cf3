package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/cliconfig"
	"github.com/darmiel/privaudit/internal/config"
	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/service"
	"github.com/darmiel/privaudit/internal/syncengine"
	"github.com/darmiel/privaudit/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the privaudit server to connect to.
	RemoteAddr string

	// ConfigPath is the service configuration (recorder, export, sync, server).
	ConfigPath string
}

func NewFactory() *Factory {
	return &Factory{}
}

// GetClient returns an authenticated HTTP client for remote operations.
func (f *Factory) GetClient() (*client.Client, error) {
	server := f.RemoteAddr // prio 1: command-line flag
	if server == "" {
		server = viper.GetString(AddrKey) // prio 2: config/env
	}
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set PRIVAUDIT_ADDR)")
	}

	var token string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server); err == nil { // token prio 1: saved credential
			token = cred.Token
		}
	}

	if envToken := viper.GetString(TokenKey); envToken != "" { // token prio 2: env var
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}

// LoadConfig loads the service configuration, or the defaults if no file was given.
func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		log.Debug().Msg("no config file given, using defaults")
		return config.Default(), nil
	}
	return config.Load(f.ConfigPath)
}

// LoadScenario loads the scenario referenced by cfg, or the built-in one.
func (f *Factory) LoadScenario(cfg *config.Config) (*syncengine.Scenario, error) {
	if cfg.Sync.Scenario == "" {
		return syncengine.DefaultScenario(), nil
	}
	return syncengine.LoadScenario(cfg.Sync.Scenario)
}

// GetLocalService builds a recorder and the configured exporter for commands
// which run without a server.
func (f *Factory) GetLocalService(cfg *config.Config, opts ...audit.Option) (*service.AuditService, error) {
	exporter, err := audit.BuildExporter(cfg.Export)
	if err != nil {
		return nil, fmt.Errorf("building exporter: %w", err)
	}
	rec := audit.New(audit.RecorderConfig(cfg.Recorder), opts...)
	return service.NewAuditService(rec, exporter), nil
}

// attachAutoExport registers an AutoExporter on the recorder if enabled.
func attachAutoExport(cfg *config.Config, svc *service.AuditService, onResult audit.ResultFunc) *audit.AutoExporter {
	if !cfg.AutoExport.Enabled {
		return nil
	}
	auto := audit.NewAutoExporter(svc.Recorder(), svc.Exporter(), cfg.AutoExport.Every, onResult)
	svc.Recorder().AddObserver(auto)
	return auto
}

func exportResultLogger(res core.ExportResult, err error) {
	if err != nil {
		return // already logged by the auto exporter
	}
	log.Info().
		Str("export_id", res.ExportID).
		Str("location", res.Location).
		Int("records", res.Records).
		Msg("automatic export written")
}

func (f *Factory) bindConfigFlag(flags *pflag.FlagSet) {
	flags.StringVarP(&f.ConfigPath, "config", "f", "", "The privaudit service config file to use")
}
