// Package health probes the export backends (Redis, PostgreSQL, Kafka) the
// process is configured to write to and reports an aggregate status over
// HTTP next to the metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Pinger is satisfied by the backend clients in pkg/redis and pkg/postgres.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is the result of pinging one backend.
type Probe struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Report is the aggregate of all probes. Status is down if any probe is down.
type Report struct {
	Status Status  `json:"status"`
	Probes []Probe `json:"probes"`
}

// Checker holds named backends to probe.
type Checker struct {
	mu      sync.RWMutex
	targets map[string]Pinger
	timeout time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		targets: make(map[string]Pinger),
		timeout: timeout,
	}
}

func (c *Checker) Register(name string, p Pinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[name] = p
}

// Run pings every registered backend concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.targets))
	for name := range c.targets {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	probes := make([]Probe, len(names))
	var g errgroup.Group
	for i, name := range names {
		c.mu.RLock()
		target := c.targets[name]
		c.mu.RUnlock()
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			start := time.Now()
			err := target.Ping(pctx)
			p := Probe{
				Name:    name,
				Status:  StatusUp,
				Latency: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				p.Status = StatusDown
				p.Error = err.Error()
			}
			probes[i] = p
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusUp, Probes: probes}
	for _, p := range probes {
		if p.Status == StatusDown {
			report.Status = StatusDown
			break
		}
	}
	return report
}

// LiveHandler always answers 200 while the process is serving.
func (c *Checker) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
}

// ReadyHandler answers 200 only when every backend responds.
func (c *Checker) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		code := http.StatusOK
		if report.Status != StatusUp {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

// Routes returns the handlers keyed by path, ready for metrics.StartServer.
func (c *Checker) Routes() map[string]http.Handler {
	return map[string]http.Handler{
		"/health/live":  c.LiveHandler(),
		"/health/ready": c.ReadyHandler(),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
