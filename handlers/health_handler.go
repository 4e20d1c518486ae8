package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/services/policy"
	"github.com/amulyarudresh/CorpCard-Sentinel/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotStatsReporter exposes the policy snapshot cache counters
type SnapshotStatsReporter interface {
	GetCacheStats() policy.CacheStats
}

// HealthResponse is returned by both probes. Sentinel is set on readiness only.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Sentinel  *SentinelStatus   `json:"sentinel,omitempty"`
}

// SentinelStatus describes how submissions are currently evaluated
type SentinelStatus struct {
	FailureMode      string  `json:"failure_mode"`
	CachedPolicies   int     `json:"cached_policies"`
	SnapshotRevision uint64  `json:"snapshot_revision"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db          HealthChecker
	snapshot    SnapshotStatsReporter
	failureMode string
	logger      *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. snapshot may be nil.
func NewHealthHandler(db HealthChecker, snapshot SnapshotStatsReporter, failureMode string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		snapshot:    snapshot,
		failureMode: failureMode,
		logger:      logger,
	}
}

// HandleHealth handles GET /healthz.
// Liveness only: 200 while the process serves requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
	})
}

// HandleReadiness handles GET /readyz. Only the database gates readiness.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
		Checks:    map[string]string{"database": "healthy"},
		Sentinel:  h.sentinelStatus(),
	}
	status := http.StatusOK

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		response.Checks["database"] = "unhealthy"
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, status, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return errDatabaseNotConfigured
	}
	return h.db.HealthCheck(ctx)
}

func (h *HealthHandler) sentinelStatus() *SentinelStatus {
	s := &SentinelStatus{FailureMode: h.failureMode}
	if h.snapshot != nil {
		stats := h.snapshot.GetCacheStats()
		s.CachedPolicies = stats.Size
		s.SnapshotRevision = stats.Generation
		s.CacheHitRate = stats.HitRate
	}
	return s
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
