package api

import (
	"net/http"

	"github.com/darmiel/privaudit/internal/api/presenter"
	"github.com/darmiel/privaudit/internal/buildinfo"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type AboutResponse struct {
	buildinfo.Info
	SessionID  string `json:"session_id"`
	MaxEntries int    `json:"max_entries"`
	Exporter   string `json:"exporter"`
}

// handleAbout responds with service information including version and the current audit session.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, AboutResponse{
		Info:       buildinfo.GetBuildInfo(),
		SessionID:  s.audit.Recorder().SessionID(),
		MaxEntries: s.audit.Recorder().MaxEntries(),
		Exporter:   s.audit.Exporter().Name(),
	}, http.StatusOK)
}
