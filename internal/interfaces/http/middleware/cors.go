package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig lists the origins allowed to call the till API from a
// browser. An empty list allows same-origin requests only.
type CORSConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no cross-origin callers
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowCredentials: true, MaxAge: 12 * time.Hour}
}

// CORS applies DefaultCORSConfig
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig builds the gin-contrib/cors handler. Disallowed origins get
// 403; a "*" origin never carries credentials.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Accept", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition", "Retry-After"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	switch {
	case slices.Contains(cfg.AllowOrigins, "*"):
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	case len(cfg.AllowOrigins) == 0:
		c.AllowOriginFunc = func(string) bool { return false }
	default:
		c.AllowOrigins = cfg.AllowOrigins
	}
	return cors.New(c)
}
