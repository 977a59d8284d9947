// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as bot credentials, quota limits, link TTLs, blob storage backends,
// server timeouts, logging, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nkarimi/go-file-relay/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-file-relay")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BotConfig defines the Telegram ingress settings.
type BotConfig struct {
	Token        string // BOT_TOKEN (required for serving)
	AdminUserID  int64  // ADMIN_USER_ID (0 disables admin commands)
	RequiredChat string // REQUIRED_CHAT (@channel; empty disables the gate)
	PollTimeout  time.Duration
}

// QuotaConfig defines the entitlement and daily-limit settings.
type QuotaConfig struct {
	FreeDailyLimit    int           // conversions per UTC day for free users
	ReferralThreshold int           // referrals needed for a premium grant
	PremiumDuration   time.Duration // length of a referral-earned grant
}

// BlobConfig defines the payload storage backend.
type BlobConfig struct {
	Backend string // fs|s3|memory
	Dir     string // fs backend root

	// S3 backend settings.
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath        string        // SQLite path
	PublicBaseURL string        // absolute prefix for issued links
	MaxPayload    int64         // max object size in bytes
	LinkTTL       time.Duration // object lifetime from issuance
	StateTTL      time.Duration // conversation prompt lifetime
	SweepInterval time.Duration // background expiry sweep period

	Bot   BotConfig
	Quota QuotaConfig
	Blob  BlobConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Error reporting
	SentryDSN string // empty disables Sentry

	// Observability
	OTEL OTELConfig
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
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:        getenv("DB_PATH", "relay.db"),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MaxPayload:    getint64("MAX_PAYLOAD_BYTES", 50<<20),
		LinkTTL:       getdur("LINK_TTL", 48*time.Hour),
		StateTTL:      getdur("STATE_TTL", time.Hour),
		SweepInterval: getdur("SWEEP_INTERVAL", 10*time.Minute),

		Bot: BotConfig{
			Token:        getenv("BOT_TOKEN", ""),
			AdminUserID:  getint64("ADMIN_USER_ID", 0),
			RequiredChat: getenv("REQUIRED_CHAT", ""),
			PollTimeout:  getdur("BOT_POLL_TIMEOUT", 30*time.Second),
		},
		Quota: QuotaConfig{
			FreeDailyLimit:    getint("FREE_DAILY_LIMIT", 2),
			ReferralThreshold: getint("REFERRAL_PREMIUM_THRESHOLD", 5),
			PremiumDuration:   getdur("PREMIUM_DURATION", 720*time.Hour),
		},
		Blob: BlobConfig{
			Backend:     strings.ToLower(getenv("BLOB_BACKEND", "fs")),
			Dir:         getenv("BLOB_DIR", "blobs"),
			S3Endpoint:  getenv("S3_ENDPOINT", ""),
			S3Region:    getenv("S3_REGION", "us-east-1"),
			S3Bucket:    getenv("S3_BUCKET", ""),
			S3AccessKey: getenv("S3_ACCESS_KEY", ""),
			S3SecretKey: getenv("S3_SECRET_KEY", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Error reporting
		SentryDSN: getenv("SENTRY_DSN", ""),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-file-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if !strings.HasPrefix(cfg.PublicBaseURL, "http://") && !strings.HasPrefix(cfg.PublicBaseURL, "https://") {
		return cfg, errors.New("PUBLIC_BASE_URL must start with http:// or https://")
	}
	if cfg.MaxPayload <= 0 {
		return cfg, errors.New("MAX_PAYLOAD_BYTES must be > 0")
	}
	if cfg.LinkTTL <= 0 {
		return cfg, errors.New("LINK_TTL must be > 0")
	}
	if cfg.StateTTL <= 0 {
		return cfg, errors.New("STATE_TTL must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return cfg, errors.New("SWEEP_INTERVAL must be > 0")
	}
	if cfg.Quota.FreeDailyLimit < 0 {
		return cfg, errors.New("FREE_DAILY_LIMIT must be >= 0")
	}
	if cfg.Quota.ReferralThreshold < 1 {
		return cfg, errors.New("REFERRAL_PREMIUM_THRESHOLD must be >= 1")
	}
	if cfg.Quota.PremiumDuration <= 0 {
		return cfg, errors.New("PREMIUM_DURATION must be > 0")
	}
	switch cfg.Blob.Backend {
	case "fs", "memory":
	case "s3":
		if strings.TrimSpace(cfg.Blob.S3Bucket) == "" {
			return cfg, errors.New("S3_BUCKET must not be empty when BLOB_BACKEND=s3")
		}
	default:
		return cfg, errors.New("BLOB_BACKEND must be one of: fs, s3, memory")
	}
	if cfg.Blob.Backend == "fs" && strings.TrimSpace(cfg.Blob.Dir) == "" {
		return cfg, errors.New("BLOB_DIR must not be empty when BLOB_BACKEND=fs")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- env helpers ----

func getenv(k, def string) string {
	v, _ := os.LookupEnv(k)
	return sysutil.FirstNonEmpty(v, def)
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

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
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

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
