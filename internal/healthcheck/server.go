// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package healthcheck serves liveness and readiness endpoints. Readiness is
// the conjunction of a base flag and named conditions, which probes keep
// current for each external dependency.
package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type Status int32

const (
	StatusStarting Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type Response struct {
	Healthy    bool            `json:"healthy"`
	Conditions map[string]bool `json:"conditions,omitempty"`
}

// Probe checks one dependency.
type Probe func(ctx context.Context) error

type Config struct {
	Port int
}

const defaultPort = 8090

// GetConfigFromEnv reads HEALTH_CHECK_PORT, falling back to 8090.
func GetConfigFromEnv() Config {
	port := defaultPort
	if p, err := strconv.Atoi(os.Getenv("HEALTH_CHECK_PORT")); err == nil && p > 0 && p < 65536 {
		port = p
	}
	return Config{Port: port}
}

type Server struct {
	port       int
	status     atomic.Int32
	ready      atomic.Bool
	conditions sync.Map // string -> bool

	mu     sync.Mutex
	probes map[string]Probe
	server *http.Server
}

func NewServer(config Config) *Server {
	if config.Port == 0 {
		config.Port = defaultPort
	}
	return &Server{port: config.Port, probes: map[string]Probe{}}
}

func (s *Server) SetStatus(status Status) {
	s.status.Store(int32(status))
	slog.Debug("Health check status updated", slog.String("status", status.String()))
}

func (s *Server) GetStatus() Status {
	return Status(s.status.Load())
}

func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	slog.Debug("Ready status updated", slog.Bool("ready", ready))
}

// SetReadyCondition sets a named condition. Every condition must hold, along
// with the base ready flag, for IsReady to report true.
func (s *Server) SetReadyCondition(name string, ready bool) {
	prev, loaded := s.conditions.Swap(name, ready)
	if !loaded || prev.(bool) != ready {
		slog.Info("Ready condition changed", slog.String("condition", name), slog.Bool("ready", ready))
	}
}

func (s *Server) ClearReadyCondition(name string) {
	s.conditions.Delete(name)
}

func (s *Server) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	ready := true
	s.conditions.Range(func(_, value any) bool {
		ready = value.(bool)
		return ready
	})
	return ready
}

func (s *Server) conditionSnapshot() map[string]bool {
	out := map[string]bool{}
	s.conditions.Range(func(key, value any) bool {
		out[key.(string)] = value.(bool)
		return true
	})
	return out
}

// AddProbe registers a dependency check whose result drives the readiness
// condition of the same name. The condition starts out not ready.
func (s *Server) AddProbe(name string, probe Probe) {
	s.mu.Lock()
	s.probes[name] = probe
	s.mu.Unlock()
	s.SetReadyCondition(name, false)
}

// RunProbes runs every probe once with the given per-probe timeout.
func (s *Server) RunProbes(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	probes := make(map[string]Probe, len(s.probes))
	for name, p := range s.probes {
		probes[name] = p
	}
	s.mu.Unlock()

	var errs []error
	for name, probe := range probes {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := probe(pctx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		s.SetReadyCondition(name, err == nil)
	}
	return errors.Join(errs...)
}

// WatchProbes runs the probes every interval until ctx is done.
func (s *Server) WatchProbes(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.RunProbes(ctx, interval); err != nil {
			slog.Warn("Dependency probe failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Handler returns the health endpoints without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, Response{Healthy: s.GetStatus() == StatusHealthy})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, Response{Healthy: s.IsReady(), Conditions: s.conditionSnapshot()})
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, Response{Healthy: s.GetStatus() != StatusUnhealthy})
	})
	return mux
}

// Start serves the health endpoints until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.SetStatus(StatusStarting)
	slog.Info("Starting health check server", slog.Int("port", s.port))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Health check server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	return s.Stop()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	slog.Info("Stopping health check server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode health check response", slog.Any("error", err))
	}
}
