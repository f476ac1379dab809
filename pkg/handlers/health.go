package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/config"
)

// ServiceInfo is the /ping payload: enough build and runtime facts to tell
// what exactly is deployed behind an address.
type ServiceInfo struct {
	Status        string    `json:"status"`
	Service       string    `json:"service"`
	Version       string    `json:"version"`
	Environment   string    `json:"environment"`
	GoVersion     string    `json:"go_version"`
	Hostname      string    `json:"hostname"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// HealthHandler serves the unauthenticated liveness endpoints.
type HealthHandler struct {
	cfg     *config.Config
	logger  *zap.Logger
	started time.Time
}

// NewHealthHandler creates a HealthHandler; uptime counts from this call.
func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, logger: logger, started: time.Now()}
}

// RegisterRoutes registers the liveness routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health answers load balancer probes with a bare "ok".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping reports service identity, build version, and process runtime facts.
// A failed hostname lookup leaves the field empty rather than failing the
// probe.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()

	info := ServiceInfo{
		Status:        "ok",
		Service:       "aps-engine",
		Version:       h.cfg.Version,
		Environment:   h.cfg.Env,
		GoVersion:     runtime.Version(),
		Hostname:      hostname,
		StartedAt:     h.started.UTC(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if err := WriteJSON(w, http.StatusOK, info); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
