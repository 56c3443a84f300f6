package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with BOOKMARKER_BACKEND.
const (
	BackendRedis    = "redis"
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// MinSessionSecretLength is the shortest accepted HS256 signing key.
const MinSessionSecretLength = 32

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Backend string // redis | supabase | postgres | memory

	// Sessions
	SessionSecret string        // HS256 cookie signing key
	SessionTTL    time.Duration // cookie and slot lifetime
	CookieSecure  bool          // Secure flag on the session cookie

	// Explicit admin provisioning (both empty = disabled)
	AdminUsername string
	AdminPassword string

	GCInterval time.Duration // interval to run the orphan collector (default: 24h)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisPoolSize         int           // Redis connection pool size

	// Connection retry, shared by Redis and Postgres
	ConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	WarnThreshold  int           // warn after this many attempts

	// Postgres
	PostgresDSN string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string        // optional, enables the admin user endpoints
	SupabaseTimeout    time.Duration // per-call HTTP timeout

	// Login/register rate limit
	RateLimitBurst  int
	RateLimitPerMin int

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict infra endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKMARKER_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKMARKER_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("BOOKMARKER_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("BOOKMARKER_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKMARKER_PRETTY_LOG", true),

		Backend: strings.ToLower(getenv("BOOKMARKER_BACKEND", BackendRedis)),

		// Sessions
		SessionSecret: requireEnv("BOOKMARKER_SESSION_SECRET"),
		SessionTTL:    mustDuration("BOOKMARKER_SESSION_TTL", 24*time.Hour),
		CookieSecure:  mustBool("BOOKMARKER_COOKIE_SECURE", true),

		AdminUsername: getenv("BOOKMARKER_ADMIN_USERNAME", ""),
		AdminPassword: getenv("BOOKMARKER_ADMIN_PASSWORD", ""),

		GCInterval: mustDuration("BOOKMARKER_GC_INTERVAL", 24*time.Hour),

		// Retry settings
		ConnectTimeout: mustDuration("BOOKMARKER_CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:  mustDuration("BOOKMARKER_RETRY_INTERVAL", 2*time.Second),
		MaxWait:        mustDuration("BOOKMARKER_MAX_WAIT", 10*time.Second),
		PingTimeout:    mustDuration("BOOKMARKER_PING_TIMEOUT", 5*time.Second),
		WarnThreshold:  getenvInt("BOOKMARKER_WARN_THRESHOLD", 3),

		SupabaseTimeout: mustDuration("BOOKMARKER_SUPABASE_TIMEOUT", 10*time.Second),

		RateLimitBurst:  getenvInt("BOOKMARKER_RATE_LIMIT_BURST", 10),
		RateLimitPerMin: getenvInt("BOOKMARKER_RATE_LIMIT_PER_MIN", 30),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BOOKMARKER_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BOOKMARKER_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKMARKER_TRUST_PROXY", false),
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		panic(fmt.Sprintf("❌ FATAL: BOOKMARKER_SESSION_SECRET must be at least %d bytes", MinSessionSecretLength))
	}
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		panic("❌ FATAL: BOOKMARKER_ADMIN_USERNAME and BOOKMARKER_ADMIN_PASSWORD must be set together")
	}

	switch cfg.Backend {
	case BackendRedis:
		loadRedis(cfg)
	case BackendPostgres:
		cfg.PostgresDSN = requireEnv("BOOKMARKER_POSTGRES_DSN")
	case BackendSupabase:
		cfg.SupabaseURL = strings.TrimRight(requireEnv("BOOKMARKER_SUPABASE_URL"), "/")
		cfg.SupabaseAnonKey = requireEnv("BOOKMARKER_SUPABASE_ANON_KEY")
		cfg.SupabaseServiceKey = getenv("BOOKMARKER_SUPABASE_SERVICE_KEY", "")
	case BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown BOOKMARKER_BACKEND %q (want redis, supabase, postgres or memory)", cfg.Backend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("BOOKMARKER_REDIS_ADDR")
	cfg.RedisUser = getenv("BOOKMARKER_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("BOOKMARKER_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("BOOKMARKER_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("BOOKMARKER_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: BOOKMARKER_REDIS_PASSWORD is required when BOOKMARKER_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	const hidden = "***REDACTED***"
	redact := func(s *string) {
		if *s != "" {
			*s = hidden
		}
	}
	redact(&c.SessionSecret)
	redact(&c.AdminPassword)
	redact(&c.RedisUser)
	redact(&c.RedisPassword)
	redact(&c.PostgresDSN)
	redact(&c.SupabaseAnonKey)
	redact(&c.SupabaseServiceKey)
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
