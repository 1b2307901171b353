package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UpstreamProber checks reachability of the upstream gateway.
type UpstreamProber interface {
	Health(ctx context.Context) error
}

// RedisPinger is the subset of the redis client used for health checks.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// StatusHandler reports the health of the service's collaborators.
type StatusHandler struct {
	db       *gorm.DB
	redis    RedisPinger
	upstream UpstreamProber
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(db *gorm.DB, redisClient RedisPinger, upstream UpstreamProber) *StatusHandler {
	return &StatusHandler{db: db, redis: redisClient, upstream: upstream}
}

// serviceStatus describes one collaborator's health.
type serviceStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

// Get probes the database, redis, and upstream gateway and reports overall
// health: 200 when everything is up, 207 when degraded, 503 when all down.
func (h *StatusHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := map[string]serviceStatus{
		"database":    h.probeDatabase(ctx),
		"redis":       h.probeRedis(ctx),
		"llm_gateway": h.probeUpstream(ctx),
	}

	down := 0
	for _, svc := range services {
		if svc.Status == "down" {
			down++
		}
	}
	overall := "ok"
	httpStatus := http.StatusOK
	switch {
	case down == len(services):
		overall = "down"
		httpStatus = http.StatusServiceUnavailable
	case down > 0:
		overall = "degraded"
		httpStatus = http.StatusMultiStatus
	}

	c.JSON(httpStatus, gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
		"overall":   overall,
	})
}

// probeDatabase runs a trivial query against the relational store.
func (h *StatusHandler) probeDatabase(ctx context.Context) serviceStatus {
	if h.db == nil {
		return serviceStatus{Status: "down"}
	}
	start := time.Now()
	var one int
	if errQuery := h.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; errQuery != nil {
		return serviceStatus{Status: "down"}
	}
	return serviceStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
}

// probeRedis pings the counter store.
func (h *StatusHandler) probeRedis(ctx context.Context) serviceStatus {
	if h.redis == nil {
		return serviceStatus{Status: "down"}
	}
	start := time.Now()
	if errPing := h.redis.Ping(ctx).Err(); errPing != nil {
		return serviceStatus{Status: "down"}
	}
	return serviceStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
}

// probeUpstream checks the upstream gateway's health endpoint.
func (h *StatusHandler) probeUpstream(ctx context.Context) serviceStatus {
	if h.upstream == nil {
		return serviceStatus{Status: "down"}
	}
	start := time.Now()
	if errHealth := h.upstream.Health(ctx); errHealth != nil {
		return serviceStatus{Status: "down"}
	}
	return serviceStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
}
