package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned by Run if the previous run has not finished yet.
var ErrAlreadyRunning = errors.New("task is already running")

type RunnableTask struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Handler  TaskFunc

	registeredAt time.Time

	mu         sync.RWMutex
	Running    bool
	Runs       int
	LastRun    time.Time
	LastResult string
	Logs       []LogEntry
}

// Run executes the task and waits for it. It returns ErrAlreadyRunning if
// another run has not finished yet.
func (t *RunnableTask) Run(parent context.Context) error {
	if !t.start() {
		log.Warn().Str("task", t.Name).Msg("task is already running, skipping execution")
		return ErrAlreadyRunning
	}
	return t.execute(parent)
}

// start marks the task as running. It returns false if it already is.
func (t *RunnableTask) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Running {
		return false
	}
	t.Running = true
	t.Logs = make([]LogEntry, 0)
	return true
}

// execute runs the handler of a started task.
func (t *RunnableTask) execute(parent context.Context) error {
	l := log.With().Str("task", t.Name).Logger()

	defer func() {
		t.mu.Lock()
		t.Running = false
		t.Runs++
		t.LastRun = time.Now()
		t.mu.Unlock()
	}()

	taskLogger := NewCompositeLogger(t, l)
	taskLogger.Info("starting task execution")

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := t.Handler(ctx, taskLogger)
	duration := time.Since(start)

	t.mu.Lock()
	if err != nil {
		t.LastResult = fmt.Sprintf("failed: %v", err)
	} else {
		t.LastResult = "success"
	}
	t.mu.Unlock()

	if err != nil {
		taskLogger.Error("task failed after %s: %v", duration, err)
	} else {
		taskLogger.Info("task completed successfully in %s", duration)
	}
	return err
}

func (t *RunnableTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var nextTime time.Time
	if t.Interval > 0 {
		if !t.LastRun.IsZero() {
			nextTime = t.LastRun.Add(t.Interval)
		} else {
			nextTime = t.registeredAt.Add(t.Interval)
		}
	}

	return TaskStatus{
		Name:       t.Name,
		Running:    t.Running,
		Runs:       t.Runs,
		LastRun:    t.LastRun,
		LastResult: t.LastResult,
		NextRun:    nextTime,
	}
}

func (t *RunnableTask) GetLogs() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cpy := make([]LogEntry, len(t.Logs))
	copy(cpy, t.Logs)
	return cpy
}

func (t *RunnableTask) AppendLog(level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Logs = append(t.Logs, LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
	})

	if len(t.Logs) > MaxLogsPerTask {
		t.Logs = t.Logs[1:]
	}
}
