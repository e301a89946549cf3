package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darmiel/privaudit/internal/api/middleware"
	"github.com/darmiel/privaudit/internal/api/presenter"
	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/logging"
	"github.com/darmiel/privaudit/internal/service"
	"github.com/darmiel/privaudit/internal/tasks"
)

var testSigningKey = []byte("test-signing-key")

type failingExporter struct{}

func (failingExporter) Name() string { return "failing" }

func (failingExporter) Export(context.Context, core.Snapshot) (core.ExportResult, error) {
	return core.ExportResult{}, errors.New("disk full")
}

func (failingExporter) Close() error { return nil }

type testServer struct {
	handler  http.Handler
	recorder *audit.Recorder
	token    string
}

func newTestServer(t *testing.T, exporter core.Exporter) *testServer {
	t.Helper()

	rec := audit.New(audit.Config{MaxEntries: 100, SkipBootstrap: true})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tm := tasks.NewManager(ctx)
	if err := tm.Register(tasks.TaskDefinition{
		Name: "noop",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			logger.Info("nothing to do")
			return nil
		},
	}); err != nil {
		t.Fatal(err)
	}

	token, err := middleware.SignAdminToken(testSigningKey, "tester", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	srv := NewServer(service.NewAuditService(rec, exporter), tm)
	return &testServer{
		handler:  srv.Routes(testSigningKey),
		recorder: rec,
		token:    token,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndAbout(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.token = ""

	if rr := ts.do(t, http.MethodGet, HealthCheckRoute, nil); rr.Code != http.StatusOK {
		t.Errorf("GET %s = %d, want 200", HealthCheckRoute, rr.Code)
	}

	rr := ts.do(t, http.MethodGet, AboutRoute, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET %s = %d, want 200", AboutRoute, rr.Code)
	}
	about := decode[AboutResponse](t, rr)
	if about.SessionID != ts.recorder.SessionID() || about.MaxEntries != 100 {
		t.Errorf("about = %+v", about)
	}
	if rr.Header().Get(middleware.CorrelationIDHeader) == "" {
		t.Error("missing correlation ID header")
	}
}

func TestAdminAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	expired, err := middleware.SignAdminToken(testSigningKey, "tester", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := middleware.SignAdminToken([]byte("other-key"), "tester", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "garbage", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired", token: expired, want: http.StatusUnauthorized},
		{name: "wrong key", token: foreign, want: http.StatusUnauthorized},
		{name: "valid", token: ts.token, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *ts
			c.token = tt.token
			if rr := c.do(t, http.MethodGet, StatsRoute, nil); rr.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", StatsRoute, rr.Code, tt.want)
			}
		})
	}
}

func TestAppendAndList(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, EntriesRoute, service.AppendRequest{
		Category: core.CategoryInference,
		Message:  "model evaluated",
		Metadata: map[string]any{"sensitivity": "high"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST %s = %d: %s", EntriesRoute, rr.Code, rr.Body)
	}
	created := decode[core.AuditEntry](t, rr)
	if created.RiskLevel != core.RiskHigh || created.Status != core.StatusRecorded {
		t.Errorf("created = %+v", created)
	}

	ts.do(t, http.MethodPost, EntriesRoute, service.AppendRequest{Category: core.CategorySystem, Message: "tick"})

	rr = ts.do(t, http.MethodGet, EntriesRoute+"?risk=high", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", EntriesRoute, rr.Code)
	}
	entries := decode[[]core.AuditEntry](t, rr)
	if len(entries) != 1 || entries[0].ID != created.ID {
		t.Errorf("filtered entries = %+v", entries)
	}

	rr = ts.do(t, http.MethodGet, EntriesRoute+"?limit=1", nil)
	entries = decode[[]core.AuditEntry](t, rr)
	if len(entries) != 1 || entries[0].Message != "tick" {
		t.Errorf("limited entries = %+v", entries)
	}

	for _, query := range []string{"?limit=0", "?limit=0&category=system", "?limit=0&filter=true"} {
		rr = ts.do(t, http.MethodGet, EntriesRoute+query, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s%s = %d", EntriesRoute, query, rr.Code)
		}
		if entries := decode[[]core.AuditEntry](t, rr); len(entries) != 0 {
			t.Errorf("GET %s%s returned %d entries, want 0", EntriesRoute, query, len(entries))
		}
	}

	rr = ts.do(t, http.MethodGet, EntriesRoute, nil)
	if entries := decode[[]core.AuditEntry](t, rr); len(entries) < 2 {
		t.Errorf("GET %s without limit returned %d entries, want all of them", EntriesRoute, len(entries))
	}

	rr = ts.do(t, http.MethodGet, EntriesRoute+"/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET entry = %d", rr.Code)
	}
	if got := decode[core.AuditEntry](t, rr); got.Message != "model evaluated" {
		t.Errorf("entry = %+v", got)
	}

	if rr := ts.do(t, http.MethodGet, EntriesRoute+"/unknown", nil); rr.Code != http.StatusNotFound {
		t.Errorf("GET unknown entry = %d, want 404", rr.Code)
	}
}

func TestAppendValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{name: "unknown category", body: service.AppendRequest{Category: "network", Message: "x"}},
		{name: "unknown status", body: service.AppendRequest{Category: core.CategorySystem, Message: "x", Status: "done"}},
		{name: "numeric metadata", body: map[string]any{"category": "system", "message": "x", "metadata": map[string]any{"n": 1}}},
		{name: "unknown field", body: map[string]any{"category": "system", "message": "x", "risk_level": "low"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, EntriesRoute, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("POST = %d, want 400: %s", rr.Code, rr.Body)
			}
			resp := decode[presenter.ErrorResponse](t, rr)
			if resp.Error == "" || resp.CorrelationID == "" {
				t.Errorf("error response = %+v", resp)
			}
		})
	}
	if n := ts.recorder.Len(); n != 0 {
		t.Errorf("rejected requests recorded %d entries", n)
	}

	if rr := ts.do(t, http.MethodGet, EntriesRoute+"?limit=-1", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("negative limit = %d, want 400", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, EntriesRoute+"?limit=abc", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid limit = %d, want 400", rr.Code)
	}
}

func TestStatsAndSnapshot(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, c := range []core.Category{core.CategoryProof, core.CategoryVerification, core.CategorySystem} {
		ts.do(t, http.MethodPost, EntriesRoute, service.AppendRequest{Category: c, Message: string(c)})
	}

	stats := decode[core.AuditStats](t, ts.do(t, http.MethodGet, StatsRoute, nil))
	if stats.TotalRecords != 3 || stats.ByRiskLevel[core.RiskMedium] != 2 || stats.ByRiskLevel[core.RiskLow] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	snapshot := decode[core.Snapshot](t, ts.do(t, http.MethodGet, SnapshotRoute, nil))
	if snapshot.TotalRecords != 3 || len(snapshot.Entries) != 3 || snapshot.SessionID != ts.recorder.SessionID() {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestExport(t *testing.T) {
	mem := audit.NewMemoryExporter()
	ts := newTestServer(t, mem)
	ts.do(t, http.MethodPost, EntriesRoute, service.AppendRequest{Category: core.CategorySystem, Message: "x"})

	rr := ts.do(t, http.MethodPost, ExportRoute, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST %s = %d: %s", ExportRoute, rr.Code, rr.Body)
	}
	res := decode[core.ExportResult](t, rr)
	if res.Records != 1 || res.Fingerprint == "" {
		t.Errorf("export result = %+v", res)
	}
	if mem.Count() != 1 {
		t.Errorf("exporter received %d snapshots", mem.Count())
	}
}

func TestExportFailure(t *testing.T) {
	ts := newTestServer(t, failingExporter{})
	ts.do(t, http.MethodPost, EntriesRoute, service.AppendRequest{Category: core.CategorySystem, Message: "x"})

	rr := ts.do(t, http.MethodPost, ExportRoute, nil)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("POST %s = %d, want 502", ExportRoute, rr.Code)
	}
	if n := ts.recorder.Len(); n != 1 {
		t.Errorf("failed export changed the log: %d entries", n)
	}
}

func TestTasks(t *testing.T) {
	ts := newTestServer(t, nil)

	list := decode[[]tasks.TaskStatus](t, ts.do(t, http.MethodGet, ListTasksRoute, nil))
	if len(list) != 1 || list[0].Name != "noop" {
		t.Errorf("tasks = %+v", list)
	}

	if rr := ts.do(t, http.MethodPost, "/v1/tasks/noop/trigger", nil); rr.Code != http.StatusAccepted {
		t.Errorf("trigger = %d, want 202", rr.Code)
	}
	if rr := ts.do(t, http.MethodPost, "/v1/tasks/missing/trigger", nil); rr.Code != http.StatusNotFound {
		t.Errorf("trigger missing = %d, want 404", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/v1/tasks/noop/logs", nil); rr.Code != http.StatusOK {
		t.Errorf("logs = %d, want 200", rr.Code)
	}
}

func TestTriggerRunningTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	started := make(chan struct{})
	release := make(chan struct{})
	tm := tasks.NewManager(ctx)
	if err := tm.Register(tasks.TaskDefinition{
		Name: "sync",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			close(started)
			<-release
			return nil
		},
	}); err != nil {
		t.Fatal(err)
	}

	token, err := middleware.SignAdminToken(testSigningKey, "tester", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rec := audit.New(audit.Config{SkipBootstrap: true})
	ts := &testServer{
		handler:  NewServer(service.NewAuditService(rec, nil), tm).Routes(testSigningKey),
		recorder: rec,
		token:    token,
	}

	if rr := ts.do(t, http.MethodPost, "/v1/tasks/sync/trigger", nil); rr.Code != http.StatusAccepted {
		t.Fatalf("first trigger = %d, want 202", rr.Code)
	}
	<-started
	if rr := ts.do(t, http.MethodPost, "/v1/tasks/sync/trigger", nil); rr.Code != http.StatusConflict {
		t.Errorf("trigger while running = %d, want 409", rr.Code)
	}
	close(release)
	tm.Wait()
}
