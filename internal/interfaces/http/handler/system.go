package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CatalogStats reports the state of the in-memory catalog
type CatalogStats interface {
	Size() int
	LoadedAt() time.Time
}

// SystemHandler handles health and info endpoints
type SystemHandler struct {
	BaseHandler
	name        string
	version     string
	db          Pinger
	catalog     CatalogStats
	pingTimeout time.Duration
	startTime   time.Time
}

// NewSystemHandler creates a new SystemHandler. db and catalog may be nil.
func NewSystemHandler(name, version string, db Pinger, catalog CatalogStats) *SystemHandler {
	return &SystemHandler{
		name:        name,
		version:     version,
		db:          db,
		catalog:     catalog,
		pingTimeout: 2 * time.Second,
		startTime:   time.Now(),
	}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	GoVersion       string `json:"go_version"`
	Uptime          string `json:"uptime"`
	CatalogEntries  int    `json:"catalog_entries"`
	CatalogLoadedAt string `json:"catalog_loaded_at,omitempty"`
}

// Health answers 200 while the database answers a ping, 503 otherwise
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Database: "up",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}
	if h.db == nil {
		resp.Database = "unconfigured"
		h.Success(c, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		logger.L(c.Request.Context()).Warn("Health check database ping failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    resp,
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeUnavailable,
				Message:   "Database is unreachable",
				RequestID: getRequestID(c),
			},
		})
		return
	}
	h.Success(c, resp)
}

// Info returns version and uptime
// GET /system/info
func (h *SystemHandler) Info(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.catalog != nil {
		info.CatalogEntries = h.catalog.Size()
		if at := h.catalog.LoadedAt(); !at.IsZero() {
			info.CatalogLoadedAt = at.UTC().Format(time.RFC3339)
		}
	}
	h.Success(c, info)
}
