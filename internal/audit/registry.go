package audit

import (
	"fmt"

	"github.com/darmiel/privaudit/internal/config"
	"github.com/darmiel/privaudit/internal/core"
)

// BuildExporter creates the exporter selected by the configuration.
func BuildExporter(cfg config.ExportConfig) (core.Exporter, error) {
	switch cfg.Type {
	case FileExporterType:
		return NewFileExporter(cfg.Dir)
	case JSONLExporterType:
		return NewJSONLExporter(cfg.Path)
	case RedisExporterType:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis export configuration missing")
		}
		return NewRedisExporter(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			MaxLen:   cfg.Redis.MaxLen,
		})
	case MemoryExporterType:
		return NewMemoryExporter(), nil
	case NoopExporterType, "":
		return NewNoopExporter(), nil
	default:
		return nil, fmt.Errorf("unknown exporter type '%s'", cfg.Type)
	}
}

// RecorderConfig converts the file configuration into a recorder Config.
func RecorderConfig(cfg config.RecorderConfig) Config {
	return Config{
		MaxEntries:    cfg.MaxEntries,
		RecordQueries: cfg.RecordQueries,
	}
}
