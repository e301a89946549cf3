package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	MaxLogsPerTask = 1000

	DefaultTimeout = 5 * time.Minute
)

type ManagerOption func(m *Manager)

// WithDefaultTimeout sets the timeout for tasks which do not define their own.
func WithDefaultTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.defaultTimeout = d
	}
}

// Manager runs named background tasks, either on a fixed interval or on demand.
// All runs stop when the context passed to NewManager is canceled.
type Manager struct {
	ctx            context.Context
	defaultTimeout time.Duration

	tasks sync.Map
	wg    sync.WaitGroup
}

func NewManager(ctx context.Context, opts ...ManagerOption) *Manager {
	m := &Manager{
		ctx:            ctx,
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Register(def TaskDefinition) error {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = m.defaultTimeout
	}
	task := &RunnableTask{
		Name:         def.Name,
		Interval:     def.Interval,
		Timeout:      timeout,
		Handler:      def.Handler,
		Logs:         make([]LogEntry, 0),
		registeredAt: time.Now(),
	}
	if _, loaded := m.tasks.LoadOrStore(def.Name, task); loaded {
		return TaskExistsError{Name: def.Name}
	}

	if def.Interval > 0 {
		m.wg.Add(1)
		go m.scheduler(task)
	}
	return nil
}

// Trigger starts a run of the task in the background. It returns
// ErrAlreadyRunning right away if the task is running.
func (m *Manager) Trigger(name string) error {
	task, err := m.get(name)
	if err != nil {
		return err
	}
	if !task.start() {
		return ErrAlreadyRunning
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := task.execute(m.ctx); err != nil {
			log.Debug().Err(err).Str("task", name).Msg("triggered run failed")
		}
	}()
	return nil
}

// RunNow runs the task and waits for it to finish.
func (m *Manager) RunNow(name string) error {
	task, err := m.get(name)
	if err != nil {
		return err
	}
	return task.Run(m.ctx)
}

func (m *Manager) ListStatus() []TaskStatus {
	list := make([]TaskStatus, 0)
	m.tasks.Range(func(key, value any) bool {
		task := value.(*RunnableTask)
		list = append(list, task.Status())
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func (m *Manager) GetLogs(name string) ([]LogEntry, error) {
	task, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return task.GetLogs(), nil
}

// Wait blocks until all schedulers and triggered runs have returned.
// Schedulers only return after the manager context is canceled.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) get(name string) (*RunnableTask, error) {
	t, ok := m.tasks.Load(name)
	if !ok {
		return nil, TaskNotFoundError{Name: name}
	}
	return t.(*RunnableTask), nil
}

func (m *Manager) scheduler(task *RunnableTask) {
	defer m.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			_ = task.Run(m.ctx)
		}
	}
}
