package handler

import (
	"net/http"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/persistence"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MonitoringHandler exposes read-only pool and transaction diagnostics.
// Snapshots are taken without locking out the data path, so numbers across
// fields may be a few microseconds apart.
type MonitoringHandler struct {
	BaseHandler
	db        *persistence.Database
	txManager *persistence.TxManager
}

// NewMonitoringHandler creates a new monitoring handler
func NewMonitoringHandler(db *persistence.Database, txManager *persistence.TxManager) *MonitoringHandler {
	return &MonitoringHandler{db: db, txManager: txManager}
}

// PoolMetricsResponse is the API shape of a pool snapshot
type PoolMetricsResponse struct {
	MaxOpenConnections int             `json:"max_open_connections"`
	OpenConnections    int             `json:"open_connections"`
	InUse              int             `json:"in_use"`
	Idle               int             `json:"idle"`
	WaitCount          int64           `json:"wait_count"`
	WaitDurationMs     float64         `json:"wait_duration_ms"`
	TotalQueries       int64           `json:"total_queries"`
	FailedQueries      int64           `json:"failed_queries"`
	SlowQueries        int64           `json:"slow_queries"`
	TotalAcquired      int64           `json:"total_acquired"`
	TotalReleased      int64           `json:"total_released"`
	AvgQueryTimeMs     float64         `json:"avg_query_time_ms"`
	UptimeMs           int64           `json:"uptime_ms"`
	ShuttingDown       bool            `json:"shutting_down"`
	RecentQueries      []QueryResponse `json:"recent_queries"`
}

// QueryResponse is the API shape of one tracked query
type QueryResponse struct {
	SQL        string    `json:"sql"`
	DurationMs float64   `json:"duration_ms"`
	Failed     bool      `json:"failed"`
	Slow       bool      `json:"slow"`
	At         time.Time `json:"at"`
}

func toQueryResponses(records []persistence.QueryRecord) []QueryResponse {
	out := make([]QueryResponse, 0, len(records))
	for _, q := range records {
		out = append(out, QueryResponse{
			SQL:        q.SQL,
			DurationMs: float64(q.Duration.Microseconds()) / 1000,
			Failed:     q.Failed,
			Slow:       q.Slow,
			At:         q.At,
		})
	}
	return out
}

// TxStatsResponse is the API shape of transaction counters
type TxStatsResponse struct {
	Committed       int64 `json:"committed"`
	RolledBack      int64 `json:"rolled_back"`
	Retried         int64 `json:"retried"`
	DeadlockRetried int64 `json:"deadlock_retried"`
	Exhausted       int64 `json:"exhausted"`
	Active          int64 `json:"active"`
}

// HealthResponse is the API shape of a health probe
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	LatencyMs int64  `json:"latency_ms"`
}

// PoolMetrics handles GET /api/v1/monitoring/pool
func (h *MonitoringHandler) PoolMetrics(c *gin.Context) {
	m := h.db.Metrics()

	h.Success(c, PoolMetricsResponse{
		MaxOpenConnections: m.MaxOpenConnections,
		OpenConnections:    m.OpenConnections,
		InUse:              m.InUse,
		Idle:               m.Idle,
		WaitCount:          m.WaitCount,
		WaitDurationMs:     float64(m.WaitDuration.Microseconds()) / 1000,
		TotalQueries:       m.TotalQueries,
		FailedQueries:      m.FailedQueries,
		SlowQueries:        m.SlowQueries,
		TotalAcquired:      m.TotalAcquired,
		TotalReleased:      m.TotalReleased,
		AvgQueryTimeMs:     float64(m.AvgQueryTime.Microseconds()) / 1000,
		UptimeMs:           m.Uptime.Milliseconds(),
		ShuttingDown:       h.db.IsShuttingDown(),
		RecentQueries:      toQueryResponses(m.RecentQueries),
	})
}

// QueryHistory handles GET /api/v1/monitoring/queries
func (h *MonitoringHandler) QueryHistory(c *gin.Context) {
	h.Success(c, toQueryResponses(h.db.QueryHistory()))
}

// SlowQueries handles GET /api/v1/monitoring/slow-queries
func (h *MonitoringHandler) SlowQueries(c *gin.Context) {
	h.Success(c, toQueryResponses(h.db.SlowQueries()))
}

// TxStats handles GET /api/v1/monitoring/transactions
func (h *MonitoringHandler) TxStats(c *gin.Context) {
	s := h.txManager.Stats()
	h.Success(c, TxStatsResponse{
		Committed:       s.Committed,
		RolledBack:      s.RolledBack,
		Retried:         s.Retried,
		DeadlockRetried: s.DeadlockRetried,
		Exhausted:       s.Exhausted,
		Active:          s.Active,
	})
}

// Health handles GET /health
func (h *MonitoringHandler) Health(c *gin.Context) {
	start := time.Now()
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(HealthResponse{
			Status:    "degraded",
			Database:  "unreachable",
			LatencyMs: time.Since(start).Milliseconds(),
		}))
		return
	}

	h.Success(c, HealthResponse{
		Status:    "ok",
		Database:  "ok",
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

// Ready handles GET /ready. A draining instance reports not ready so load
// balancers stop routing to it before connections are closed.
func (h *MonitoringHandler) Ready(c *gin.Context) {
	if h.db.IsShuttingDown() {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeShuttingDown, "The service is shutting down")
		return
	}
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Database is unreachable")
		return
	}
	h.Success(c, gin.H{"ready": true})
}
