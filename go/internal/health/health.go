// Package health reports readiness of the server's external dependencies.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/kiradelay/go/internal/httputil"
)

// Probe returns nil when the dependency it checks is reachable
type Probe func(ctx context.Context) error

// Status is the result of one readiness check
type Status struct {
	Healthy   bool              `json:"healthy"`
	CheckedAt time.Time         `json:"checked_at"`
	Checks    map[string]string `json:"checks"`
	Errors    []string          `json:"errors"`
}

type Checker struct {
	clock   clockwork.Clock
	timeout time.Duration

	mu     sync.RWMutex
	probes map[string]Probe
}

func NewChecker(clock clockwork.Clock, timeout time.Duration) *Checker {
	return &Checker{
		clock:   clock,
		timeout: timeout,
		probes:  make(map[string]Probe),
	}
}

// Register adds a named probe, replacing any probe with the same name
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = probe
}

// Check runs every probe concurrently, each bounded by the checker timeout
func (c *Checker) Check(ctx context.Context) Status {
	c.mu.RLock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.RUnlock()
	sort.Strings(names)

	results := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			results[i] = probe(pctx)
		}(i, probes[name])
	}
	wg.Wait()

	status := Status{
		Healthy:   true,
		CheckedAt: c.clock.Now().UTC(),
		Checks:    make(map[string]string, len(names)),
		Errors:    []string{},
	}
	for i, name := range names {
		if err := results[i]; err != nil {
			status.Healthy = false
			status.Checks[name] = "down"
			status.Errors = append(status.Errors, name+": "+err.Error())
			continue
		}
		status.Checks[name] = "up"
	}
	return status
}

// ServeHTTP writes the status as JSON, with 503 when any probe failed
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := c.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}
