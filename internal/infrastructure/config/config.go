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
	App         AppConfig
	Database    DatabaseConfig
	Transaction TransactionConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds connection pool settings. StatementTimeout is pushed
// into the DSN so Postgres cancels runaway statements server-side; QueryTimeout
// bounds individual tracked queries client-side.
type DatabaseConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MinIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	ConnectTimeout     time.Duration // per-acquire wait budget before POOL_TIMEOUT
	StatementTimeout   time.Duration // server-side statement_timeout, 0 = unset
	QueryTimeout       time.Duration // client-side per-query context deadline
	SlowQueryThreshold time.Duration
	ShutdownGrace      time.Duration // drain budget before forcing pool close
}

// TransactionConfig holds retry and timeout settings for managed transactions
type TransactionConfig struct {
	MaxRetries     int           // total attempts, not additional retries
	BaseDelay      time.Duration // first backoff delay
	MaxDelay       time.Duration // backoff cap
	Multiplier     float64
	JitterFraction float64 // +/- fraction applied to each delay
	DefaultTimeout time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
	AllowedOrigins []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // 0.0-1.0, 1.0 = 100%
	ServiceName       string
	Insecure          bool // non-TLS connection, development only
	DBTraceEnabled    bool // enable query tracing via otelgorm
	DBLogFullSQL      bool // record full SQL in spans, dev only
	LogsEnabled       bool // ship logs to the collector alongside traces
	ProfilerEnabled   bool
	ProfilerAddress   string // pyroscope server, e.g. "http://pyroscope:4040"
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DMS_ prefix (e.g., DMS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("DMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("database.host"),
			Port:               v.GetInt("database.port"),
			User:               v.GetString("database.user"),
			Password:           v.GetString("database.password"),
			DBName:             v.GetString("database.dbname"),
			SSLMode:            v.GetString("database.sslmode"),
			MaxOpenConns:       v.GetInt("database.max_open_conns"),
			MinIdleConns:       v.GetInt("database.min_idle_conns"),
			ConnMaxLifetime:    v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime:    v.GetDuration("database.conn_max_idle_time"),
			ConnectTimeout:     v.GetDuration("database.connect_timeout"),
			StatementTimeout:   v.GetDuration("database.statement_timeout"),
			QueryTimeout:       v.GetDuration("database.query_timeout"),
			SlowQueryThreshold: v.GetDuration("database.slow_query_threshold"),
			ShutdownGrace:      v.GetDuration("database.shutdown_grace"),
		},
		Transaction: TransactionConfig{
			MaxRetries:     v.GetInt("transaction.max_retries"),
			BaseDelay:      v.GetDuration("transaction.base_delay"),
			MaxDelay:       v.GetDuration("transaction.max_delay"),
			Multiplier:     v.GetFloat64("transaction.multiplier"),
			JitterFraction: v.GetFloat64("transaction.jitter_fraction"),
			DefaultTimeout: v.GetDuration("transaction.default_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilerEnabled:   v.GetBool("telemetry.profiler_enabled"),
			ProfilerAddress:   v.GetString("telemetry.profiler_address"),
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
		cfg.App.Name = "dealerdesk-backend"
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
		cfg.Database.DBName = "dealerdesk"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MinIdleConns == 0 {
		cfg.Database.MinIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30 * time.Second
	}
	if cfg.Database.ConnectTimeout == 0 {
		cfg.Database.ConnectTimeout = 2 * time.Second
	}
	if cfg.Database.QueryTimeout == 0 {
		cfg.Database.QueryTimeout = 30 * time.Second
	}
	if cfg.Database.SlowQueryThreshold == 0 {
		cfg.Database.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.Database.ShutdownGrace == 0 {
		cfg.Database.ShutdownGrace = 10 * time.Second
	}
	if cfg.Transaction.MaxRetries == 0 {
		cfg.Transaction.MaxRetries = 3
	}
	if cfg.Transaction.BaseDelay == 0 {
		cfg.Transaction.BaseDelay = 50 * time.Millisecond
	}
	if cfg.Transaction.MaxDelay == 0 {
		cfg.Transaction.MaxDelay = time.Second
	}
	if cfg.Transaction.Multiplier == 0 {
		cfg.Transaction.Multiplier = 2.0
	}
	if cfg.Transaction.JitterFraction == 0 {
		cfg.Transaction.JitterFraction = 0.25
	}
	if cfg.Transaction.DefaultTimeout == 0 {
		cfg.Transaction.DefaultTimeout = 30 * time.Second
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
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MinIdleConns < 0 {
		return fmt.Errorf("database.min_idle_conns cannot be negative")
	}
	if c.Database.MinIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.min_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MinIdleConns, c.Database.MaxOpenConns)
	}
	if c.Transaction.MaxRetries < 1 {
		return fmt.Errorf("transaction.max_retries must be at least 1")
	}
	if c.Transaction.Multiplier < 1.0 {
		return fmt.Errorf("transaction.multiplier must be at least 1.0, got %f", c.Transaction.Multiplier)
	}
	if c.Transaction.JitterFraction < 0 || c.Transaction.JitterFraction >= 1 {
		return fmt.Errorf("transaction.jitter_fraction must be in [0, 1), got %f", c.Transaction.JitterFraction)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		// Full SQL in traces leaks customer data through the collector
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
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
	if d.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(d.ConnectTimeout.Seconds())))
	}
	if d.StatementTimeout > 0 {
		q.Set("options", fmt.Sprintf("-c statement_timeout=%d", d.StatementTimeout.Milliseconds()))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
