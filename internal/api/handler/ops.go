// Package handler provides HTTP handlers for the SafeRoute API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/provider/resilience"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/internal/routing"
)

// readyTimeout bounds dependency checks in the readiness probe.
const readyTimeout = 2 * time.Second

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies the operational endpoints report on.
type OpsConfig struct {
	Version   string
	BuildTime string

	Graphs   routing.GraphProvider
	Risk     *risk.Holder
	Registry *resilience.Registry

	// DB is nil when the service runs without Postgres.
	DB Pinger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		cfg: cfg,
		now: time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":     h.cfg.Version,
			"buildTime":   h.cfg.BuildTime,
			"driveNodes":  h.nodeCount(routing.ModeDrive),
			"walkNodes":   h.nodeCount(routing.ModeWalk),
			"riskEntries": h.riskEntries(),
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - the service can take traffic once
// both networks are loaded and the database answers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{}
	ready := true

	for _, mode := range []routing.Mode{routing.ModeDrive, routing.ModeWalk} {
		ok := h.nodeCount(mode) > 0
		checks["graph_"+string(mode)] = okOrFail(ok)
		ready = ready && ok
	}

	if h.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := h.cfg.DB.Ping(ctx)
		cancel()
		checks["database"] = okOrFail(err == nil)
		ready = ready && err == nil
	}

	health := models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(h.now()),
		Details: checks,
	}
	status := http.StatusOK
	if !ready {
		health.Status = models.HealthStatusFail
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: h.subsystems(r.Context()),
		Providers:  h.providers(),
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		// An unhealthy provider only degrades the service; routing keeps working.
		if p.Status != models.HealthStatusOK {
			status.Status = worst(status.Status, models.HealthStatusDegraded)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystems(ctx context.Context) []models.SubsystemStatus {
	var out []models.SubsystemStatus

	for _, mode := range []routing.Mode{routing.ModeDrive, routing.ModeWalk} {
		s := models.SubsystemStatus{Name: "graph-" + string(mode), Status: models.HealthStatusOK}
		if h.nodeCount(mode) == 0 {
			s.Status = models.HealthStatusFail
			s.Detail = strPtr("network not loaded")
		}
		out = append(out, s)
	}

	riskStatus := models.SubsystemStatus{Name: "risk-index", Status: models.HealthStatusOK}
	if h.riskEntries() == 0 {
		riskStatus.Status = models.HealthStatusDegraded
		riskStatus.Detail = strPtr("no risk data loaded; all segments score zero")
	}
	out = append(out, riskStatus)

	if h.cfg.DB != nil {
		db := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
		pingCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		if err := h.cfg.DB.Ping(pingCtx); err != nil {
			db.Status = models.HealthStatusFail
			db.Detail = strPtr(err.Error())
		}
		cancel()
		out = append(out, db)
	}
	return out
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Registry.GetAllHealth()
	out := make([]models.ProviderStatus, len(all))
	for i, ph := range all {
		ps := models.ProviderStatus{
			Provider:      ph.Name,
			Status:        models.HealthStatusOK,
			CircuitState:  ph.CircuitState.String(),
			LastSuccessAt: timestampPtr(ph.LastSuccessAt),
			LastFailureAt: timestampPtr(ph.LastFailureAt),
		}
		switch {
		case ph.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case ph.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		}
		if ph.LastError != "" {
			ps.Message = strPtr(ph.LastError)
		}
		out[i] = ps
	}
	return out
}

func (h *OpsHandler) nodeCount(mode routing.Mode) int {
	if h.cfg.Graphs == nil {
		return 0
	}
	g, ok := h.cfg.Graphs.Graph(mode)
	if !ok {
		return 0
	}
	return g.NodeCount()
}

func (h *OpsHandler) riskEntries() int {
	if h.cfg.Risk == nil {
		return 0
	}
	return h.cfg.Risk.Load().Segments()
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

func okOrFail(ok bool) string {
	if ok {
		return string(models.HealthStatusOK)
	}
	return string(models.HealthStatusFail)
}

func strPtr(s string) *string {
	return &s
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
