package router

import (
	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/interfaces/http/handler"
	"github.com/anchala/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers of the till. Auth may be nil when
// operator login is disabled.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Sales   *handler.SalesHandler
	Ledger  *handler.LedgerHandler
	System  *handler.SystemHandler
}

// EngineConfig controls the middleware stack built by NewEngine
type EngineConfig struct {
	Logger           *zap.Logger
	ServiceName      string
	TracingEnabled   bool
	TracerProvider   trace.TracerProvider
	Meter            metric.Meter // nil records no request metrics
	ProfilingEnabled bool
	CORSAllowOrigins []string
	TrustedProxies   []string
	MaxBodyBytes     int64

	// Auth is applied to every /api/v1 route except its skip paths. Nil
	// leaves the API open.
	Auth *middleware.JWTMiddlewareConfig
	// LoginLimiter throttles POST /auth/login per client IP
	LoginLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the middleware stack in order:
// recovery, request logging, tracing, request metrics, profiling labels,
// CORS, security headers, body limit, then authentication on the API group.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        true,
			TracerProvider: cfg.TracerProvider,
		}), middleware.SpanAnnotator())
	}
	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			log.Warn("HTTP metrics not recorded", zap.Error(err))
		} else {
			engine.Use(metrics)
		}
	}
	if cfg.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.Secure())

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultBodyLimit
	}
	engine.Use(middleware.BodyLimit(maxBody))

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if cfg.Auth != nil {
		authCfg := *cfg.Auth
		if authCfg.Logger == nil {
			authCfg.Logger = log
		}
		r.Use(middleware.Authenticate(authCfg))
	}

	RegisterRoutes(r, h, cfg.LoginLimiter)
	r.Setup()
	for _, rt := range r.Routes() {
		log.Debug("Route mounted", zap.String("group", rt.Group), zap.String("method", rt.Method), zap.String("path", rt.Path))
	}
	return engine
}

// RegisterRoutes adds the till's domain groups to r
func RegisterRoutes(r *Router, h Handlers, loginLimiter *middleware.RateLimiter) {
	if h.System != nil {
		system := NewDomainGroup("system", "")
		system.GET("/health", h.System.Health)
		system.GET("/system/info", h.System.Info)
		r.Register(system)
	}

	if h.Auth != nil {
		authRoutes := NewDomainGroup("auth", "/auth")
		login := []gin.HandlerFunc{h.Auth.Login}
		if loginLimiter != nil {
			login = append([]gin.HandlerFunc{middleware.RateLimit(loginLimiter)}, login...)
		}
		authRoutes.POST("/login", login...)
		authRoutes.POST("/logout", h.Auth.Logout)
		authRoutes.GET("/me", h.Auth.Me)
		r.Register(authRoutes)
	}

	if h.Catalog != nil {
		catalogRoutes := NewDomainGroup("catalog", "/catalog")
		catalogRoutes.POST("/refresh", h.Catalog.Refresh)
		catalogRoutes.GET("/:code", h.Catalog.GetByCode)
		r.Register(catalogRoutes)
	}

	if h.Cart != nil {
		carts := NewDomainGroup("carts", "/carts")
		carts.POST("", h.Cart.Open)
		carts.GET("/:session", h.Cart.Get)
		carts.DELETE("/:session", h.Cart.Clear)
		carts.POST("/:session/lines", h.Cart.AddLine)
		carts.DELETE("/:session/lines/:index", h.Cart.RemoveLine)
		carts.POST("/:session/confirm", h.Cart.Confirm)
		r.Register(carts)

		bills := NewDomainGroup("bills", "/bills")
		bills.GET("/next", h.Cart.NextBillNo)
		r.Register(bills)
	}

	if h.Sales != nil {
		sales := NewDomainGroup("sales", "/sales")
		sales.GET("", h.Sales.List)
		sales.GET("/:bill_no", h.Sales.Get)
		sales.GET("/:bill_no/invoice", h.Sales.DownloadInvoice)
		r.Register(sales)

		customers := NewDomainGroup("customers", "/customers")
		customers.GET("/:customer/outstanding", h.Sales.Outstanding)
		r.Register(customers)
	}

	if h.Ledger != nil {
		ledger := NewDomainGroup("ledger", "")
		ledger.POST("/returns", h.Ledger.ProcessReturn)
		ledger.POST("/balance-payments", h.Ledger.RecordBalancePayment)
		r.Register(ledger)
	}
}
