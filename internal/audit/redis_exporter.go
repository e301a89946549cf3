package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/darmiel/privaudit/internal/core"
)

const (
	RedisExporterType = "redis"

	DefaultRedisKey = "privaudit:exports"
)

// redisList is the subset of *redis.Client used by RedisExporter.
type redisList interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Key is the list every snapshot is pushed to.
	Key string

	// MaxLen keeps only the newest MaxLen snapshots in the list. Zero keeps all.
	MaxLen int64
}

var _ core.Exporter = (*RedisExporter)(nil)

// RedisExporter pushes every snapshot as a JSON document onto a redis list.
type RedisExporter struct {
	client redisList
	key    string
	maxLen int64
}

func NewRedisExporter(opts RedisOptions) (*RedisExporter, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newRedisExporter(client, opts.Key, opts.MaxLen), nil
}

func newRedisExporter(client redisList, key string, maxLen int64) *RedisExporter {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisExporter{
		client: client,
		key:    key,
		maxLen: maxLen,
	}
}

func (r *RedisExporter) Name() string {
	return RedisExporterType
}

func (r *RedisExporter) Export(ctx context.Context, snapshot core.Snapshot) (core.ExportResult, error) {
	res, err := newResult(r.Name(), snapshot, r.key)
	if err != nil {
		return core.ExportResult{}, err
	}

	payload, err := json.Marshal(struct {
		core.Snapshot
		Fingerprint string `json:"fingerprint"`
	}{
		Snapshot:    snapshot,
		Fingerprint: res.Fingerprint,
	})
	if err != nil {
		return core.ExportResult{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return core.ExportResult{}, fmt.Errorf("pushing snapshot to redis: %w", err)
	}
	if r.maxLen > 0 {
		if err := r.client.LTrim(ctx, r.key, -r.maxLen, -1).Err(); err != nil {
			return core.ExportResult{}, fmt.Errorf("trimming redis export list: %w", err)
		}
	}
	return res, nil
}

func (r *RedisExporter) Close() error {
	return r.client.Close()
}
