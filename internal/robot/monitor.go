package robot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/groutine"
)

// PollFunc is one monitoring poll, usually a single sensor read request.
type PollFunc func(ctx context.Context)

type pollTask struct {
	interval time.Duration
	poll     PollFunc
	cancel   context.CancelFunc
	done     <-chan struct{}
}

// Monitor runs named poll tasks at fixed intervals. Tasks can be defined at any time;
// they only run between Start and Stop. Redefining a name replaces the running task.
type Monitor struct {
	mu      sync.Mutex
	name    string
	logger  *logrus.Logger
	tasks   map[string]*pollTask
	parent  context.Context
	started bool
}

// NewMonitor creates a stopped monitor. name prefixes the goroutine labels.
func NewMonitor(name string, logger *logrus.Logger) *Monitor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Monitor{
		name:   name,
		logger: logger,
		tasks:  make(map[string]*pollTask),
	}
}

// Define registers or replaces a task. When the monitor is running, the task polls once
// right away and then every interval.
func (m *Monitor) Define(name string, interval time.Duration, poll PollFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.tasks[name]; ok {
		m.stopTask(old)
	}
	t := &pollTask{interval: interval, poll: poll}
	m.tasks[name] = t
	if m.started {
		m.runTask(name, t)
	}
}

// Remove stops and forgets a task.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[name]; ok {
		m.stopTask(t)
		delete(m.tasks, name)
	}
}

// Start runs every defined task until Stop or until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.logger.WithField("monitor", m.name).Info("Starting monitoring...")
	m.parent = ctx
	m.started = true
	for name, t := range m.tasks {
		m.runTask(name, t)
	}
}

// Stop halts every running task and waits for them to exit. Definitions are kept.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.logger.WithField("monitor", m.name).Info("Stopping monitoring...")
	m.started = false
	var done []<-chan struct{}
	for _, t := range m.tasks {
		if t.done != nil {
			done = append(done, t.done)
		}
		m.stopTask(t)
	}
	m.mu.Unlock()

	for _, d := range done {
		<-d
	}
}

// Clear stops the monitor and forgets every task.
func (m *Monitor) Clear() {
	m.Stop()
	m.mu.Lock()
	m.tasks = make(map[string]*pollTask)
	m.mu.Unlock()
}

// Started reports whether tasks are running.
func (m *Monitor) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Tasks returns the defined task names in order.
func (m *Monitor) Tasks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.tasks))
	for name := range m.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interval returns the interval of a defined task.
func (m *Monitor) Interval(name string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[name]
	if !ok {
		return 0, false
	}
	return t.interval, true
}

func (m *Monitor) runTask(name string, t *pollTask) {
	ctx, cancel := context.WithCancel(m.parent)
	t.cancel = cancel
	m.logger.WithFields(logrus.Fields{
		"monitor":  m.name,
		"task":     name,
		"interval": t.interval,
	}).Debug("Enable monitoring")
	t.poll(ctx)
	t.done = groutine.Every(ctx, m.name+"-"+name, t.interval, t.poll)
}

func (m *Monitor) stopTask(t *pollTask) {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}
