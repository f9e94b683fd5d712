// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers both binaries: the CLI
// client (base URL, token path, locale, transport timeout) and the local
// dev server (port, timeouts, database path, uploads, rate limiting,
// observability).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the dev server.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings for the dev server.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Client holds the settings consumed by the CLI client.
type Client struct {
	BaseURL     string        // ESTANTE_BASE_URL, e.g. "http://localhost:9000"
	TokenPath   string        // ESTANTE_TOKEN_PATH, encrypted token file location
	TokenSecret string        // ESTANTE_TOKEN_SECRET, passphrase protecting the token file
	Locale      string        // ESTANTE_LOCALE, BCP 47 tag (pt-BR default)
	HTTPTimeout time.Duration // HTTP_TIMEOUT, transport-level request timeout
}

// Server holds the settings consumed by the dev server.
type Server struct {
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	GinMode           string        // debug|release|test

	DBPath    string // SQLite path
	UploadDir string // where uploaded cover images are stored
	BaseURL   string // public base URL used to build upload result links

	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	CORS CORSConfig
	OTEL OTELConfig
}

// Config holds all configuration values for the application.
type Config struct {
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	Client Client
	Server Server
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Client: Client{
			BaseURL:     getenv("ESTANTE_BASE_URL", "http://localhost:9000"),
			TokenPath:   getenv("ESTANTE_TOKEN_PATH", defaultTokenPath()),
			TokenSecret: getenv("ESTANTE_TOKEN_SECRET", "estante-local"),
			Locale:      getenv("ESTANTE_LOCALE", "pt-BR"),
			HTTPTimeout: getdur("HTTP_TIMEOUT", 30*time.Second),
		},

		Server: Server{
			Port:              getenv("PORT", "9000"),
			ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
			ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
			WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
			IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
			GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

			DBPath:    getenv("DB_PATH", "estante.db"),
			UploadDir: getenv("UPLOAD_DIR", "uploads"),
			BaseURL:   getenv("SERVER_BASE_URL", ""),

			RateRPS:   getfloat("RATE_RPS", 10.0),
			RateBurst: getint("RATE_BURST", 20),

			CORS: CORSConfig{
				AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
			},
			OTEL: OTELConfig{
				Enabled:     getbool("OTEL_ENABLED", false),
				Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
				ServiceName: getenv("OTEL_SERVICE_NAME", "estante-devserver"),
				SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			},
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.Server.GinMode {
	case "debug", "release", "test":
	default:
		cfg.Server.GinMode = "release"
	}
	cfg.Client.BaseURL = strings.TrimRight(cfg.Client.BaseURL, "/")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:" + cfg.Server.Port
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Client.BaseURL) == "" {
		return cfg, errors.New("ESTANTE_BASE_URL must not be empty")
	}
	if strings.TrimSpace(cfg.Client.TokenPath) == "" {
		return cfg, errors.New("ESTANTE_TOKEN_PATH must not be empty")
	}
	if cfg.Client.HTTPTimeout <= 0 {
		return cfg, errors.New("HTTP_TIMEOUT must be a positive duration")
	}
	if strings.TrimSpace(cfg.Server.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.ReadHeaderTimeout <= 0 ||
		cfg.Server.WriteTimeout <= 0 || cfg.Server.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if strings.TrimSpace(cfg.Server.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Server.UploadDir) == "" {
		return cfg, errors.New("UPLOAD_DIR must not be empty")
	}
	if cfg.Server.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.Server.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Server.OTEL.SampleRatio < 0 || cfg.Server.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// defaultTokenPath places the encrypted token file under the user's home
// directory, falling back to the working directory when home is unknown.
func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".estante_token"
	}
	return home + string(os.PathSeparator) + ".estante_token"
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
