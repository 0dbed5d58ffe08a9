package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Probe checks one dependency; a nil error means reachable.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name  string
	check Probe
}

// Monitor runs registered probes on a cron schedule and caches the result.
type Monitor struct {
	probes   []namedProbe
	timeout  time.Duration
	interval time.Duration
	cron     *cron.Cron
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		timeout:  3 * time.Second,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Register adds a named probe. Call before Start.
func (m *Monitor) Register(name string, probe Probe) {
	if probe == nil {
		return
	}
	m.probes = append(m.probes, namedProbe{name: name, check: probe})
}

// Start runs one round immediately and then schedules the rest.
func (m *Monitor) Start() error {
	m.Refresh(context.Background())
	schedule := fmt.Sprintf("@every %ds", int(m.interval.Seconds()))
	if _, err := m.cron.AddFunc(schedule, func() { m.Refresh(context.Background()) }); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop waits for a running round to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// IsOnline reports whether every probe passed in the latest round.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Services = make(map[string]bool, len(m.status.Services))
	for k, v := range m.status.Services {
		out.Services[k] = v
	}
	return out
}

// Refresh runs every probe once and stores the outcome.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Services:  make(map[string]bool, len(m.probes)),
		Healthy:   true,
		LastCheck: time.Now(),
	}
	for _, p := range m.probes {
		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := p.check(probeCtx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("service", p.name), zap.Error(err))
			status.Healthy = false
		}
		status.Services[p.name] = err == nil
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}
