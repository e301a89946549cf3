package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/core"
)

// AuditService exposes the recorder and the configured exporter to the API
// and to local CLI commands. Errors carry the HTTP status they map to.
type AuditService struct {
	recorder *audit.Recorder
	exporter core.Exporter
}

func NewAuditService(recorder *audit.Recorder, exporter core.Exporter) *AuditService {
	if exporter == nil {
		exporter = audit.NewNoopExporter()
	}
	return &AuditService{
		recorder: recorder,
		exporter: exporter,
	}
}

func (s *AuditService) Recorder() *audit.Recorder {
	return s.recorder
}

func (s *AuditService) Exporter() core.Exporter {
	return s.exporter
}

func (s *AuditService) ListEntries(ctx context.Context, req ListRequest) ([]core.AuditEntry, error) {
	logger := log.Ctx(ctx)

	if req.Limit != nil && *req.Limit < 0 {
		return nil, httpError(http.StatusBadRequest,
			core.NewValidationError("limit", fmt.Sprintf("%d", *req.Limit), "must not be negative"))
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, httpError(http.StatusBadRequest,
			core.NewValidationError("category", string(req.Category), "unknown category"))
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, httpError(http.StatusBadRequest,
			core.NewValidationError("status", string(req.Status), "unknown status"))
	}

	if !req.filtered() {
		if req.Limit == nil {
			return s.recorder.QueryAll(), nil
		}
		entries, err := s.recorder.QueryLast(*req.Limit)
		if err != nil {
			return nil, httpError(http.StatusBadRequest, err)
		}
		return entries, nil
	}

	filter := audit.MatchAll
	if req.Filter != "" {
		compiled, err := audit.CompileFilter(req.Filter)
		if err != nil {
			return nil, httpError(http.StatusBadRequest, err)
		}
		filter = compiled
	}
	logger.Debug().Str("filter", req.Filter).Msg("applying audit log filters")

	entries, err := s.recorder.Find(func(e core.AuditEntry) bool {
		if req.Category != "" && e.Category != req.Category {
			return false
		}
		if req.Status != "" && e.Status != req.Status {
			return false
		}
		if req.Risk != "" && e.RiskLevel != req.Risk {
			return false
		}
		return filter(e)
	}, req.Limit)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, err)
	}
	return entries, nil
}

func (s *AuditService) GetEntry(_ context.Context, id string) (core.AuditEntry, error) {
	entry, ok := s.recorder.Get(id)
	if !ok {
		return core.AuditEntry{}, httpError(http.StatusNotFound,
			fmt.Errorf("audit entry '%s' not found (it may have been evicted)", id))
	}
	return entry, nil
}

func (s *AuditService) AppendEntry(ctx context.Context, req AppendRequest) (core.AuditEntry, error) {
	meta, err := audit.ParseMetadata(req.Metadata)
	if err != nil {
		return core.AuditEntry{}, httpError(http.StatusBadRequest, err)
	}
	entry, err := s.recorder.Append(req.Category, req.Message, audit.AppendOptions{
		Metadata:   meta,
		Status:     req.Status,
		DurationMs: req.DurationMs,
	})
	if err != nil {
		return core.AuditEntry{}, httpError(statusFor(err), err)
	}
	log.Ctx(ctx).Debug().
		Str("entry_id", entry.ID).
		Str("category", string(entry.Category)).
		Str("risk", string(entry.RiskLevel)).
		Msg("audit entry appended")
	return entry, nil
}

func (s *AuditService) Stats(_ context.Context) core.AuditStats {
	return s.recorder.Stats()
}

func (s *AuditService) Snapshot(_ context.Context) core.Snapshot {
	return s.recorder.Snapshot()
}

// Export writes a snapshot of the trail to the configured exporter. The trail
// itself is left untouched, whether or not the export succeeds.
func (s *AuditService) Export(ctx context.Context) (core.ExportResult, error) {
	res, err := audit.ExportSnapshot(ctx, s.recorder, s.exporter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("sink", s.exporter.Name()).Msg("export failed")
		return core.ExportResult{}, httpError(statusFor(err), err)
	}
	log.Ctx(ctx).Info().
		Str("export_id", res.ExportID).
		Str("sink", res.Sink).
		Str("location", res.Location).
		Int("records", res.Records).
		Msg("audit trail exported")
	return res, nil
}

func statusFor(err error) int {
	var exportErr *audit.ExportError
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &exportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
