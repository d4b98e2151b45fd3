// Package config loads focco-sync settings from config.toml and
// FOCCO_SYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // focco.timezone must resolve on minimal images

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "FOCCO_SYNC"

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Focco     FoccoConfig     `mapstructure:"focco"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // development or production
	Port string `mapstructure:"port"`
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// MigrationsPath is where "migrate create" writes new files
	MigrationsPath string `mapstructure:"migrations_path"`
}

// JWTConfig holds the settings of the bearer tokens protecting the API
type JWTConfig struct {
	Secret                string        `mapstructure:"secret"`
	Issuer                string        `mapstructure:"issuer"`
	AccessTokenExpiration time.Duration `mapstructure:"access_token_expiration"`
}

type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxBodySize    int64         `mapstructure:"max_body_size"`
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
}

// FoccoConfig holds the ERP connection and the De-Para code tables
type FoccoConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// Timezone renders orderDate/requestDate (IANA name)
	Timezone string       `mapstructure:"timezone"`
	DePara   DeParaConfig `mapstructure:"depara"`
}

// DeParaConfig translates host codes into Focco codes. Viper lower-cases
// the keys of every table.
type DeParaConfig struct {
	// Strict rejects codes missing from a table instead of passing them through
	Strict       bool              `mapstructure:"strict"`
	OrderType    map[string]string `mapstructure:"order_type"`
	PaymentTerms map[string]string `mapstructure:"payment_terms"`
	Tax          map[string]string `mapstructure:"tax"`
}

// SchedulerConfig holds the periodic invoice polling and stock sync settings.
// A zero interval disables the corresponding job.
type SchedulerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	JobTimeout          time.Duration `mapstructure:"job_timeout"`
	InvoicePollInterval time.Duration `mapstructure:"invoice_poll_interval"`
	StockSyncInterval   time.Duration `mapstructure:"stock_sync_interval"`
	HistorySize         int           `mapstructure:"history_size"`
}

// TelemetryConfig holds OpenTelemetry export and SQL logging settings
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // OTLP gRPC, host:port
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"` // defaults to app.name
	Insecure          bool    `mapstructure:"insecure"`
	LogsEnabled       bool    `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool    `mapstructure:"db_trace_enabled"`
	// DBLogFullSQL logs statements with their values; refused in production
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// defaults lists every key with its built-in value. AutomaticEnv only
// overrides keys viper knows about, so secrets are listed empty.
var defaults = map[string]any{
	"app.name": "focco-sync",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "focco_sync",
	"database.sslmode":            "disable",
	"database.max_open_conns":     10,
	"database.max_idle_conns":     2,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.migrations_path":    "migrations",

	"jwt.secret":                  "",
	"jwt.issuer":                  "focco-sync",
	"jwt.access_token_expiration": time.Hour,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout": 15 * time.Second,
	// confirm waits for one ERP call of up to focco.timeout_seconds
	"http.write_timeout":    30 * time.Second,
	"http.idle_timeout":     time.Minute,
	"http.max_header_bytes": 1 << 20,
	"http.max_body_size":    1 << 20,
	"http.trusted_proxies":  []string{},

	"focco.base_url":        "",
	"focco.token":           "",
	"focco.timeout_seconds": 10,
	"focco.timezone":        "UTC",
	"focco.depara.strict":   false,

	"scheduler.enabled":               false,
	"scheduler.job_timeout":           10 * time.Minute,
	"scheduler.invoice_poll_interval": time.Duration(0),
	"scheduler.stock_sync_interval":   time.Duration(0),
	"scheduler.history_size":          50,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
}

// Load reads config.toml from ., ./config or /etc/focco-sync. Values are
// resolved from FOCCO_SYNC_ variables (FOCCO_SYNC_FOCCO_TOKEN for
// focco.token) first, then the file, then the built-in defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file, which must exist.
// An empty path searches the default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/focco-sync")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0 && db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns must be between 0 and max_open_conns (%d), got %d", db.MaxOpenConns, db.MaxIdleConns)

	f := c.Focco
	if f.BaseURL != "" {
		u, err := url.Parse(f.BaseURL)
		check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
			"focco.base_url must be an absolute http(s) URL, got %q", f.BaseURL)
	}
	check(f.TimeoutSeconds > 0 && f.TimeoutSeconds <= 300,
		"focco.timeout_seconds must be between 1 and 300, got %d", f.TimeoutSeconds)
	if _, err := time.LoadLocation(f.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("focco.timezone: %w", err))
	}

	s := c.Scheduler
	check(s.InvoicePollInterval >= 0 && s.StockSyncInterval >= 0, "scheduler intervals cannot be negative")
	check(!s.Enabled || s.InvoicePollInterval > 0 || s.StockSyncInterval > 0,
		"scheduler is enabled but no interval is configured")

	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0 and 1, got %g", c.Telemetry.SamplingRatio)

	if c.App.IsProduction() {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(db.Password != "", "database.password is required in production")
		check(f.BaseURL != "" && f.Token != "", "focco.base_url and focco.token are required in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
	}

	return errors.Join(errs...)
}

// Location returns the time zone used for ERP calendar dates
func (f *FoccoConfig) Location() *time.Location {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
	u.RawQuery = q.Encode()
	return u.String()
}
