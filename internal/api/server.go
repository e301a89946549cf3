package api

import (
	"net/http"

	"github.com/darmiel/privaudit/internal/api/middleware"
	"github.com/darmiel/privaudit/internal/service"
	"github.com/darmiel/privaudit/internal/tasks"
)

type Server struct {
	audit       *service.AuditService
	taskManager *tasks.Manager
}

func NewServer(audit *service.AuditService, taskManager *tasks.Manager) *Server {
	return &Server{
		audit:       audit,
		taskManager: taskManager,
	}
}

func (s *Server) Routes(signingKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+EntriesRoute, s.handleListEntries)
	adminMux.HandleFunc("POST "+EntriesRoute, s.handleAppendEntry)
	adminMux.HandleFunc("GET "+EntryRoute, s.handleGetEntry)
	adminMux.HandleFunc("GET "+StatsRoute, s.handleStats)
	adminMux.HandleFunc("GET "+SnapshotRoute, s.handleSnapshot)
	adminMux.HandleFunc("POST "+ExportRoute, s.handleExport)
	if s.taskManager != nil {
		adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
		adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
		adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	}
	adminHandler := middleware.AdminAuth(signingKey)(adminMux)
	mux.Handle(AuditParent, adminHandler)
	mux.Handle(TaskParent, adminHandler)

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
