package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckFunc pings one dependency.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	fn      CheckFunc
	timeout time.Duration
}

type Monitor struct {
	checks []check

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Register adds a named dependency. Call before Start.
func (m *Monitor) Register(name string, timeout time.Duration, fn CheckFunc) {
	if fn == nil {
		return
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	m.checks = append(m.checks, check{name: name, fn: fn, timeout: timeout})
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

// GetStatus returns a copy of the last observed status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Status{
		Services:  make(map[string]bool, len(m.status.Services)),
		LastCheck: m.status.LastCheck,
	}
	for k, v := range m.status.Services {
		out.Services[k] = v
	}
	return out
}

func (m *Monitor) Names() []string {
	names := make([]string, 0, len(m.checks))
	for _, c := range m.checks {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and stores the result.
func (m *Monitor) Refresh() {
	services := make(map[string]bool, len(m.checks))
	for _, c := range m.checks {
		ok := m.run(c)
		services[c.name] = ok
	}

	m.mu.Lock()
	prev := m.status.Services
	m.status = Status{Services: services, LastCheck: time.Now()}
	m.mu.Unlock()

	for name, ok := range services {
		if was, seen := prev[name]; seen && was != ok {
			if ok {
				m.logger.Info("dependency recovered", zap.String("service", name))
			} else {
				m.logger.Warn("dependency unavailable", zap.String("service", name))
			}
		}
	}
}

func (m *Monitor) run(c check) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.fn(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("service", c.name), zap.Error(err))
		return false
	}
	return true
}
