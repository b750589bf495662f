package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Catalog   CatalogConfig
	Cart      CartConfig
	Checkout  CheckoutConfig
	Ledger    LedgerConfig
	Printing  PrintingConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	Schema          string // schema holding purchase_audit, sales, billbook, returns, balance_payments
	SSLMode         string
	SSLRootCert     string // CA bundle used to verify the server certificate
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	SlowQueryThresh time.Duration
	// ConnectRetries is how many extra pings are tried at startup, for
	// tills that boot before their database
	ConnectRetries int
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// CatalogConfig controls the inventory lookup cache
type CatalogConfig struct {
	CacheTTL    time.Duration // bounded staleness of the local catalog copy
	SourceTable string        // externally maintained purchase audit table
	OrderColumn string        // source column that orders duplicate codes, oldest first
}

// CartConfig controls session-scoped carts
type CartConfig struct {
	IdleTimeout   time.Duration // abandoned carts are discarded after this long
	SweepInterval time.Duration
}

// CheckoutConfig controls sale confirmation
type CheckoutConfig struct {
	RequirePayment bool // reject confirmations with paid == 0
}

// LedgerConfig controls returns and balance payments
type LedgerConfig struct {
	BoundPaymentsToBalance bool // reject balance payments above the outstanding balance
	ValidateReturnQuantity bool // reject returns above the sold quantity
}

// PrintingConfig holds invoice layout and rendering settings
type PrintingConfig struct {
	Format        string // pdf, html
	PaperSize     string // A4, A5, RECEIPT_80MM
	ShopName      string
	ShopAddress   string
	ShopPhone     string
	FooterMessage string
	LogoPath      string // optional header logo (png/jpeg/svg)
	Locale        string // BCP 47 tag used to group digits, e.g. en-IN
	CurrencySign  string
	ChromePath    string // empty = let chromedp find Chrome
	RenderTimeout time.Duration
}

// StorageConfig selects where rendered invoices are archived
type StorageConfig struct {
	Type      string // local, s3, none
	LocalPath string
	S3        S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// AuthConfig holds single-operator authentication settings
type AuthConfig struct {
	Enabled      bool
	OperatorName string
	PINHash      string // bcrypt hash of the operator PIN
	JWTSecret    string
	TokenTTL     time.Duration
	Issuer       string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for span marking
	// Metrics and log export share the collector endpoint
	MetricsEnabled  bool
	MetricsInterval time.Duration // how often metrics are pushed
	LogsEnabled     bool          // ship zap entries as OTLP log records
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	SpanProfiles    bool // attach span ids to CPU profiles (needs telemetry)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with POS_ prefix (e.g., POS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/anchala-pos")

	// Booleans cannot be told apart from "unset" after the fact
	v.SetDefault("ledger.bound_payments_to_balance", true)
	v.SetDefault("ledger.validate_return_quantity", true)
	v.SetDefault("telemetry.metrics_enabled", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			Schema:          v.GetString("database.schema"),
			SSLMode:         v.GetString("database.sslmode"),
			SSLRootCert:     v.GetString("database.sslrootcert"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			SlowQueryThresh: v.GetDuration("database.slow_query_thresh"),
			ConnectRetries:  v.GetInt("database.connect_retries"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Catalog: CatalogConfig{
			CacheTTL:    v.GetDuration("catalog.cache_ttl"),
			SourceTable: v.GetString("catalog.source_table"),
			OrderColumn: v.GetString("catalog.order_column"),
		},
		Cart: CartConfig{
			IdleTimeout:   v.GetDuration("cart.idle_timeout"),
			SweepInterval: v.GetDuration("cart.sweep_interval"),
		},
		Checkout: CheckoutConfig{
			RequirePayment: v.GetBool("checkout.require_payment"),
		},
		Ledger: LedgerConfig{
			BoundPaymentsToBalance: v.GetBool("ledger.bound_payments_to_balance"),
			ValidateReturnQuantity: v.GetBool("ledger.validate_return_quantity"),
		},
		Printing: PrintingConfig{
			Format:        v.GetString("printing.format"),
			PaperSize:     v.GetString("printing.paper_size"),
			ShopName:      v.GetString("printing.shop_name"),
			ShopAddress:   v.GetString("printing.shop_address"),
			ShopPhone:     v.GetString("printing.shop_phone"),
			FooterMessage: v.GetString("printing.footer_message"),
			LogoPath:      v.GetString("printing.logo_path"),
			Locale:        v.GetString("printing.locale"),
			CurrencySign:  v.GetString("printing.currency_sign"),
			ChromePath:    v.GetString("printing.chrome_path"),
			RenderTimeout: v.GetDuration("printing.render_timeout"),
		},
		Storage: StorageConfig{
			Type:      v.GetString("storage.type"),
			LocalPath: v.GetString("storage.local_path"),
			S3: S3Config{
				Endpoint:        v.GetString("storage.s3.endpoint"),
				Region:          v.GetString("storage.s3.region"),
				Bucket:          v.GetString("storage.s3.bucket"),
				AccessKeyID:     v.GetString("storage.s3.access_key_id"),
				SecretAccessKey: v.GetString("storage.s3.secret_access_key"),
				UsePathStyle:    v.GetBool("storage.s3.use_path_style"),
				Prefix:          v.GetString("storage.s3.prefix"),
			},
		},
		Auth: AuthConfig{
			Enabled:      v.GetBool("auth.enabled"),
			OperatorName: v.GetString("auth.operator_name"),
			PINHash:      v.GetString("auth.pin_hash"),
			JWTSecret:    v.GetString("auth.jwt_secret"),
			TokenTTL:     v.GetDuration("auth.token_ttl"),
			Issuer:       v.GetString("auth.issuer"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_thresh"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:         v.GetBool("profiling.enabled"),
			ServerAddress:   v.GetString("profiling.server_address"),
			ApplicationName: v.GetString("profiling.application_name"),
			SpanProfiles:    v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "anchala-pos"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "pos"
	}
	if cfg.Database.Schema == "" {
		cfg.Database.Schema = "public"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.SlowQueryThresh == 0 {
		cfg.Database.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = 10 * time.Minute
	}
	if cfg.Catalog.SourceTable == "" {
		cfg.Catalog.SourceTable = "purchase_audit"
	}
	if cfg.Cart.IdleTimeout == 0 {
		cfg.Cart.IdleTimeout = 2 * time.Hour
	}
	if cfg.Cart.SweepInterval == 0 {
		cfg.Cart.SweepInterval = 5 * time.Minute
	}
	if cfg.Printing.Format == "" {
		cfg.Printing.Format = "pdf"
	}
	if cfg.Printing.PaperSize == "" {
		cfg.Printing.PaperSize = "A4"
	}
	if cfg.Printing.ShopName == "" {
		cfg.Printing.ShopName = "Anchala"
	}
	if cfg.Printing.FooterMessage == "" {
		cfg.Printing.FooterMessage = "Thank you for shopping with us!"
	}
	if cfg.Printing.Locale == "" {
		cfg.Printing.Locale = "en-IN"
	}
	if cfg.Printing.CurrencySign == "" {
		cfg.Printing.CurrencySign = "₹"
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 30 * time.Second
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./invoices"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Storage.S3.Prefix == "" {
		cfg.Storage.S3.Prefix = "invoices/"
	}
	if cfg.Auth.OperatorName == "" {
		cfg.Auth.OperatorName = "operator"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "anchala-pos"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "anchala-pos"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsInterval <= 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = "anchala-pos"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("catalog.cache_ttl cannot be negative")
	}

	switch c.Storage.Type {
	case "local", "none":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.type is s3")
		}
	default:
		return fmt.Errorf("storage.type must be one of local, s3, none, got %q", c.Storage.Type)
	}

	switch strings.ToLower(c.Printing.Format) {
	case "pdf", "html":
	default:
		return fmt.Errorf("printing.format must be pdf or html, got %q", c.Printing.Format)
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
		}
		if c.Auth.PINHash == "" {
			return fmt.Errorf("auth.pin_hash is required when auth is enabled")
		}
	}

	if c.App.Env == "production" {
		if !c.Auth.Enabled {
			return fmt.Errorf("auth.enabled must be true in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	if d.SSLRootCert != "" {
		q.Set("sslrootcert", d.SSLRootCert)
	}
	if d.Schema != "" && d.Schema != "public" {
		q.Set("search_path", d.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
