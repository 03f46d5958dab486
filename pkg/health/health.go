// Package health exposes liveness, readiness and state endpoints so long
// headless simulation runs can be monitored.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/opd-ai/go-nbody/pkg/engine"
	"github.com/opd-ai/go-nbody/pkg/logging"
)

// HealthCheck defines the interface for individual health checks.
// Each component can implement this interface to provide its health status.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks for the application.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a new health check with the health checker.
// If a check with the same name already exists, it will be replaced.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth runs all registered checks. The overall status is
// "healthy" only if every check passes.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}

	// Execute all health checks
	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	return status
}

// LivenessHandler returns 200 OK while the process can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{"status": "alive"}
	_ = json.NewEncoder(w).Encode(response)
}

// ReadinessHandler runs every check and returns 200 OK when all pass,
// 503 Service Unavailable otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	// Create context with timeout for health checks
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")

	if health.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(health)
}

// SimulationHealthCheck fails once the world has halted on a corrupt frame.
type SimulationHealthCheck struct {
	world *engine.World
}

// NewSimulationHealthCheck creates a health check for world
func NewSimulationHealthCheck(world *engine.World) *SimulationHealthCheck {
	return &SimulationHealthCheck{world: world}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check reports the error that halted the world, if any.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	if err := s.world.Err(); err != nil {
		return fmt.Errorf("simulation halted at frame %d: %w", s.world.Frame(), err)
	}
	return nil
}

// ProgressHealthCheck fails when a running world has not advanced a frame
// for longer than stallAfter.
type ProgressHealthCheck struct {
	world      *engine.World
	stallAfter time.Duration
	now        func() time.Time

	mu        sync.Mutex
	lastFrame uint64
	lastMove  time.Time
}

// NewProgressHealthCheck creates a stall detector for world
func NewProgressHealthCheck(world *engine.World, stallAfter time.Duration) *ProgressHealthCheck {
	return &ProgressHealthCheck{
		world:      world,
		stallAfter: stallAfter,
		now:        time.Now,
		lastFrame:  world.Frame(),
		lastMove:   time.Now(),
	}
}

// Name returns the name of this health check.
func (p *ProgressHealthCheck) Name() string {
	return "progress"
}

// Check compares the frame counter with the one seen on the previous call.
func (p *ProgressHealthCheck) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	frame := p.world.Frame()
	if frame != p.lastFrame || !p.world.Running() {
		p.lastFrame = frame
		p.lastMove = now
		return nil
	}
	if stalled := now.Sub(p.lastMove); stalled > p.stallAfter {
		return fmt.Errorf("no frame advanced for %v (frame %d)", stalled.Round(time.Millisecond), frame)
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage.
// A nil getMemoryUsage reads the Go heap with CurrentMemoryMB.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = CurrentMemoryMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// CurrentMemoryMB returns the allocated heap in megabytes
func CurrentMemoryMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}

// stateResponse is the body of the /state endpoint
type stateResponse struct {
	Status   string             `json:"status"`
	Frame    uint64             `json:"frame"`
	SimTime  float64            `json:"simTime"`
	Bodies   int                `json:"bodies"`
	Mass     float64            `json:"totalMass"`
	Charge   float64            `json:"totalCharge"`
	Momentum [2]float64         `json:"momentum"`
	Center   *[2]float64        `json:"centerOfMass,omitempty"`
	State    []engine.BodyState `json:"state,omitempty"`
}

// StateHandler reports the world's telemetry as JSON. With ?bodies=1 the
// full body list is included.
func StateHandler(world *engine.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := world.Snapshot()
		p := snap.Momentum()
		c := snap.CenterOfMass()
		resp := stateResponse{
			Status:   world.Status().String(),
			Frame:    snap.Frame,
			SimTime:  snap.SimTime,
			Bodies:   len(snap.Bodies),
			Mass:     snap.TotalMass(),
			Charge:   snap.TotalCharge(),
			Momentum: [2]float64{p.X, p.Y},
		}
		// a corrupted frame has no meaningful centre
		if c.IsFinite() {
			resp.Center = &[2]float64{c.X, c.Y}
		}
		if r.URL.Query().Get("bodies") == "1" {
			resp.State = snap.Bodies
		}

		data, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, "state is not representable: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}

// NewMux routes /healthz, /readyz and /state
func NewMux(hc *HealthChecker, world *engine.World) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", hc.LivenessHandler)
	mux.HandleFunc("GET /readyz", hc.ReadinessHandler)
	mux.Handle("GET /state", StateHandler(world))
	return mux
}

// Serve runs an HTTP server on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, handler http.Handler, logger *logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
