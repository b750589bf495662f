package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	catalogapp "github.com/anchala/pos/internal/application/catalog"
	identityapp "github.com/anchala/pos/internal/application/identity"
	printingapp "github.com/anchala/pos/internal/application/printing"
	tradeapp "github.com/anchala/pos/internal/application/trade"
	"github.com/anchala/pos/internal/domain/printing"
	"github.com/anchala/pos/internal/infrastructure/auth"
	"github.com/anchala/pos/internal/infrastructure/cache"
	"github.com/anchala/pos/internal/infrastructure/config"
	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/infrastructure/migration"
	"github.com/anchala/pos/internal/infrastructure/persistence"
	printinginfra "github.com/anchala/pos/internal/infrastructure/printing"
	"github.com/anchala/pos/internal/infrastructure/storage"
	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"github.com/anchala/pos/internal/interfaces/http/handler"
	"github.com/anchala/pos/internal/interfaces/http/middleware"
	"github.com/anchala/pos/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Version is stamped at build time with -ldflags "-X main.Version=..."
var Version = "dev"

const (
	loginAttempts     = 10
	loginWindow       = time.Minute
	defaultMigrations = "migrations"
)

func main() {
	hashPIN := flag.String("hash-pin", "", "print the bcrypt hash of a PIN for auth.pin_hash and exit")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply pending schema migrations on startup")
	migrationsPath := flag.String("migrations", defaultMigrations, "path to the migrations directory")
	flag.Parse()

	if *hashPIN != "" {
		hash, err := auth.HashPIN(*hashPIN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash-pin: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Version: Version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Anchala POS",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}

	// Tracing is installed before the database so otelgorm picks up the provider
	tp, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	metricsCfg := telemetry.MetricsConfig{Config: telemetryCfg, ExportInterval: cfg.Telemetry.MetricsInterval}
	metricsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled
	mp, err := telemetry.NewMeterProvider(ctx, metricsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	logsCfg := telemetryCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	lp, err := telemetry.NewLoggerProvider(ctx, logsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	// Registered early so it runs after the later defers have logged
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = lp.Bridge(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
		Environment:     cfg.App.Env,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
			if err := tp.EnableSpanProfiles(); err != nil {
				log.Warn("Span profiles not enabled", zap.Error(err))
			}
		}
	}

	if !*skipMigrations {
		if err := runMigrations(&cfg.Database, *migrationsPath, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowQueryThresh),
		logger.WithFullSQL(!cfg.IsProduction()),
	)
	db, err := persistence.Open(ctx, &cfg.Database, gormLog, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL && !cfg.IsProduction(),
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := plugin.Register(db.Gorm); err != nil {
			log.Warn("Database tracing not registered", zap.Error(err))
		}
	}

	if mp.Enabled() {
		dbMetrics, err := telemetry.NewDBMetrics(mp.Meter("db.client"), db.SQL, telemetry.DBMetricsConfig{
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		})
		if err == nil {
			err = db.Gorm.Use(dbMetrics)
		}
		if err != nil {
			log.Warn("Database metrics not registered", zap.Error(err))
		} else {
			defer func() {
				_ = dbMetrics.Close()
			}()
		}
	}

	sqlDB := db.SQL

	// Redis backs both the catalog snapshot and the token blacklist. The
	// factory connects once; without Redis the catalog has no snapshot tier
	// and revoked tokens are tracked in process.
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	snapshots, closeSnapshots, err := cache.NewSnapshotStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create catalog snapshot store", zap.Error(err))
	}
	defer func() {
		_ = closeSnapshots()
	}()
	if rs, ok := snapshots.(*cache.RedisCatalogSnapshot); ok {
		blacklist = auth.NewRedisTokenBlacklist(rs.Client())
	} else if cfg.Redis.Enabled {
		log.Warn("Token blacklist kept in process, revocations are lost on restart")
	}

	// Repositories
	saleRepo := persistence.NewGormSaleRepository(db.Gorm)
	ledgerRepo := persistence.NewGormLedgerRepository(db.Gorm)
	catalogSource := persistence.NewGormCatalogSource(db.Gorm, cfg.Catalog.SourceTable,
		persistence.WithOrderColumn(cfg.Catalog.OrderColumn))

	// Invoices
	renderer, closeRenderer, err := newInvoiceRenderer(&cfg.Printing, log)
	if err != nil {
		log.Fatal("Failed to initialize invoice renderer", zap.Error(err))
	}
	defer closeRenderer()

	archive, err := newInvoiceArchive(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize invoice archive", zap.Error(err))
	}

	// Application services
	lookup := catalogapp.NewInventoryLookupService(catalogSource, log,
		catalogapp.WithSnapshotStore(snapshots),
		catalogapp.WithCacheTTL(cfg.Catalog.CacheTTL),
	)
	if _, err := lookup.Refresh(ctx); err != nil {
		log.Warn("Initial catalog load failed, lookups will retry", zap.Error(err))
	}

	sessions := tradeapp.NewCartSessions(tradeapp.CartSessionsConfig{
		IdleTimeout:   cfg.Cart.IdleTimeout,
		SweepInterval: cfg.Cart.SweepInterval,
	}, log)
	sessions.Start()

	invoiceService := printingapp.NewInvoiceService(renderer, archive, saleRepo, log)
	cartService := tradeapp.NewCartService(sessions, lookup, log)
	checkoutService := tradeapp.NewCheckoutService(sessions, saleRepo, saleRepo, invoiceService,
		tradeapp.CheckoutConfig{RequirePayment: cfg.Checkout.RequirePayment}, log)
	ledgerService := tradeapp.NewLedgerService(saleRepo, ledgerRepo, tradeapp.LedgerConfig{
		BoundPaymentsToBalance: cfg.Ledger.BoundPaymentsToBalance,
		ValidateReturnQuantity: cfg.Ledger.ValidateReturnQuantity,
	}, log)
	historyService := tradeapp.NewHistoryService(saleRepo, ledgerRepo)

	handlers := router.Handlers{
		Catalog: handler.NewCatalogHandler(lookup),
		Cart:    handler.NewCartHandler(cartService, checkoutService),
		Sales:   handler.NewSalesHandler(historyService, invoiceService),
		Ledger:  handler.NewLedgerHandler(ledgerService),
		System:  handler.NewSystemHandler(cfg.App.Name, Version, sqlDB, lookup),
	}

	engineCfg := router.EngineConfig{
		Logger:           log,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tp.Enabled(),
		TracerProvider:   tp.Provider(),
		ProfilingEnabled: cfg.Profiling.Enabled,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
	}
	if cfg.Auth.Enabled {
		tokens := auth.NewTokenService(cfg.Auth)
		authService := identityapp.NewAuthService(auth.NewOperatorAuthenticator(cfg.Auth), tokens, blacklist, log)
		handlers.Auth = handler.NewAuthHandler(authService, tokens)

		jwtCfg := middleware.DefaultJWTConfig(tokens)
		jwtCfg.TokenBlacklist = blacklist
		engineCfg.Auth = &jwtCfg
		engineCfg.LoginLimiter = middleware.NewRateLimiter(loginAttempts, loginWindow)
	} else {
		log.Warn("Operator authentication disabled, the API is open")
	}

	if mp.Enabled() {
		engineCfg.Meter = mp.Meter("http.server")
	}

	engine := router.NewEngine(engineCfg, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sessions.Stop(shutdownCtx); err != nil {
		log.Warn("Cart sweeper did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runMigrations applies pending migrations over a dedicated connection
func runMigrations(cfg *config.DatabaseConfig, path string, log *zap.Logger) error {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	m, err := migration.New(conn, migration.Config{
		MigrationsPath: path,
		Schema:         cfg.Schema,
	}, log)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

// newInvoiceRenderer wires the template engine and, for PDF output, a
// headless Chrome. The returned func releases the browser.
func newInvoiceRenderer(cfg *config.PrintingConfig, log *zap.Logger) (*printinginfra.InvoiceRenderer, func(), error) {
	opts := []printinginfra.TemplateEngineOption{}
	if cfg.Locale != "" {
		tag, err := language.Parse(cfg.Locale)
		if err != nil {
			log.Warn("Unknown printing locale, using default", zap.String("locale", cfg.Locale), zap.Error(err))
		} else {
			opts = append(opts, printinginfra.WithLocale(tag))
		}
	}
	if cfg.CurrencySign != "" {
		opts = append(opts, printinginfra.WithCurrencySign(cfg.CurrencySign))
	}

	shop := printinginfra.ShopInfo{
		Name:    cfg.ShopName,
		Address: cfg.ShopAddress,
		Phone:   cfg.ShopPhone,
		Footer:  cfg.FooterMessage,
	}
	if cfg.LogoPath != "" {
		logo, err := printinginfra.LoadLogoDataURI(cfg.LogoPath)
		if err != nil {
			log.Warn("Invoice logo not loaded", zap.String("path", cfg.LogoPath), zap.Error(err))
		} else {
			shop.LogoDataURI = logo
		}
	}

	format := printing.ParseOutputFormat(cfg.Format)
	closer := func() {}

	var pdf printinginfra.PDFRenderer
	if format == printing.FormatPDF {
		chrome := printinginfra.NewChromedpRenderer(printinginfra.ChromedpConfig{
			DefaultTimeout: cfg.RenderTimeout,
			ExecPath:       cfg.ChromePath,
			NoSandbox:      true,
			Logger:         log,
		})
		pdf = chrome
		closer = func() {
			if err := chrome.Close(); err != nil {
				log.Warn("Error closing Chrome", zap.Error(err))
			}
		}
	}

	renderer, err := printinginfra.NewInvoiceRenderer(printinginfra.NewTemplateEngine(opts...), pdf, printinginfra.InvoiceRendererConfig{
		Format:    format,
		PaperSize: printing.PaperSize(strings.ToUpper(strings.TrimSpace(cfg.PaperSize))),
		Shop:      shop,
		Timeout:   cfg.RenderTimeout,
		Logger:    log,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return renderer, closer, nil
}

// newInvoiceArchive returns nil when archiving is switched off
func newInvoiceArchive(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (printing.InvoiceArchive, error) {
	switch cfg.Type {
	case "none":
		log.Info("Invoice archiving disabled")
		return nil, nil
	case "s3":
		store, err := storage.NewS3InvoiceStore(ctx, &cfg.S3, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Archiving invoices to S3", zap.String("bucket", store.Bucket()))
		return store, nil
	default:
		fs, err := printinginfra.NewFileSystemStorage(printinginfra.FileSystemStorageConfig{
			BasePath: cfg.LocalPath,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Archiving invoices locally", zap.String("path", cfg.LocalPath))
		return fs, nil
	}
}
