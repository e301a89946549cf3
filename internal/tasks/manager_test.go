package tasks

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darmiel/privaudit/internal/logging"
)

func TestManager_RegisterAndRunNow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx)

	var runs atomic.Int32
	err := m.Register(TaskDefinition{
		Name: "count",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			runs.Add(1)
			logger.Info("run #%d", runs.Load())
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var exists TaskExistsError
	if err := m.Register(TaskDefinition{Name: "count"}); !errors.As(err, &exists) {
		t.Errorf("Register() duplicate error = %v, want TaskExistsError", err)
	}

	if err := m.RunNow("count"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}

	status := m.ListStatus()
	if len(status) != 1 || status[0].Runs != 1 || status[0].LastResult != "success" {
		t.Errorf("ListStatus() = %+v", status)
	}
	if !status[0].NextRun.IsZero() {
		t.Errorf("manual task has a next run: %v", status[0].NextRun)
	}

	logs, err := m.GetLogs("count")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, l := range logs {
		if l.Message == "run #1" && l.Level == "info" {
			found = true
		}
	}
	if !found {
		t.Errorf("task logs do not contain the handler output: %+v", logs)
	}
}

func TestManager_UnknownTask(t *testing.T) {
	m := NewManager(context.Background())

	var notFound TaskNotFoundError
	if err := m.Trigger("missing"); !errors.As(err, &notFound) {
		t.Errorf("Trigger() error = %v, want TaskNotFoundError", err)
	}
	if _, err := m.GetLogs("missing"); !errors.As(err, &notFound) {
		t.Errorf("GetLogs() error = %v, want TaskNotFoundError", err)
	}
}

func TestManager_FailedRun(t *testing.T) {
	m := NewManager(context.Background())
	_ = m.Register(TaskDefinition{
		Name: "broken",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			return errors.New("sink unavailable")
		},
	})

	if err := m.RunNow("broken"); err == nil {
		t.Fatal("RunNow() expected error")
	}
	status := m.ListStatus()[0]
	if !strings.HasPrefix(status.LastResult, "failed") || !strings.Contains(status.LastResult, "sink unavailable") {
		t.Errorf("LastResult = %q", status.LastResult)
	}
}

func TestManager_Timeout(t *testing.T) {
	m := NewManager(context.Background(), WithDefaultTimeout(20*time.Millisecond))
	_ = m.Register(TaskDefinition{
		Name: "slow",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	if err := m.RunNow("slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunNow() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestManager_AlreadyRunning(t *testing.T) {
	m := NewManager(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	_ = m.Register(TaskDefinition{
		Name: "blocking",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			close(started)
			<-release
			return nil
		},
	})

	if err := m.Trigger("blocking"); err != nil {
		t.Fatal(err)
	}
	if err := m.Trigger("blocking"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Trigger() error = %v, want ErrAlreadyRunning", err)
	}
	<-started
	if err := m.RunNow("blocking"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("RunNow() error = %v, want ErrAlreadyRunning", err)
	}
	close(release)
	m.Wait()

	if status := m.ListStatus()[0]; status.Runs != 1 || status.Running {
		t.Errorf("status after run = %+v, want exactly one finished run", status)
	}
	if err := m.Trigger("blocking"); err != nil {
		t.Errorf("Trigger() after the run finished error = %v", err)
	}
	m.Wait()
}

func TestManager_Scheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ctx)

	var runs atomic.Int32
	_ = m.Register(TaskDefinition{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			runs.Add(1)
			return nil
		},
	})

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	m.Wait()

	if runs.Load() < 2 {
		t.Errorf("scheduled task ran %d times, want at least 2", runs.Load())
	}
	if next := m.ListStatus()[0].NextRun; next.IsZero() {
		t.Error("scheduled task has no next run")
	}
}
