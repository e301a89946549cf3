package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/privaudit/internal/api/presenter"
	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/service"
)

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

// handleListEntries returns the most recent audit entries, optionally filtered.
// Without a limit every retained entry is returned, limit=0 returns none.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	q := r.URL.Query()
	req := service.ListRequest{
		Filter:   q.Get("filter"),
		Category: core.Category(q.Get("category")),
		Status:   core.Status(q.Get("status")),
		Risk:     core.RiskLevel(q.Get("risk")),
	}
	if q.Has("limit") {
		limitStr := q.Get("limit")
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		req.Limit = &v
	}

	entries, err := s.audit.ListEntries(ctx, req)
	if err != nil {
		presenter.Err(w, r, err, "failed to retrieve audit entries")
		return
	}
	presenter.JSON(w, r, entries, http.StatusOK)
}

// handleGetEntry returns a single entry by its ID.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.audit.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		presenter.Err(w, r, err, "failed to retrieve audit entry")
		return
	}
	presenter.JSON(w, r, entry, http.StatusOK)
}

// handleAppendEntry records a caller supplied entry.
func (s *Server) handleAppendEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.AppendRequest
	if err := DecodePayload(r, &req, false); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to decode append request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	entry, err := s.audit.AppendEntry(ctx, req)
	if err != nil {
		presenter.Err(w, r, err, "failed to append audit entry")
		return
	}
	presenter.JSON(w, r, entry, http.StatusCreated)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.audit.Stats(r.Context()), http.StatusOK)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.audit.Snapshot(r.Context()), http.StatusOK)
}

// handleExport writes a snapshot to the configured exporter.
// A failing sink results in 502 Bad Gateway, the trail is unaffected.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.audit.Export(r.Context())
	if err != nil {
		presenter.Err(w, r, err, "export failed")
		return
	}
	presenter.JSON(w, r, res, http.StatusOK)
}
