package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int
	MaxIdle     int
	AutoMigrate bool
}

// GetDSN builds a lib/pq key/value connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config pallyops-api configuration
type Config struct {
	App struct {
		Name    string
		Version string
		Debug   bool
	}
	HTTP struct {
		Addr        string
		FrontendURL string
		// TrustedProxies are IPs or CIDRs whose forwarding headers are believed.
		TrustedProxies []string
	}
	DBEnabled    bool
	Database     DatabaseConfig
	RedisEnabled bool
	Redis        RedisConfig
	Auth         struct {
		JWTSecret       string
		TokenTTL        time.Duration
		BcryptCost      int
		SessionSweepDur time.Duration
	}
	Timezone           string
	RateLimitPerMinute int
	SummaryCacheTTL    time.Duration
	EventsStream       string
	Log                struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.App.Name = getEnv("APP_NAME", "PallyOps Tracker")
	cfg.App.Version = getEnv("APP_VERSION", "1.0.0")
	cfg.App.Debug = parseBool(getEnv("DEBUG", "false"), false)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")
	cfg.HTTP.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")
	cfg.HTTP.TrustedProxies = splitList(getEnv("TRUSTED_PROXIES", ""))

	// Without a reachable DB the API falls back to in-memory repositories.
	cfg.DBEnabled = parseBool(getEnv("DB_ENABLED", "true"), true)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "pallyops")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.Database.AutoMigrate = parseBool(getEnv("DB_AUTO_MIGRATE", "true"), true)

	cfg.RedisEnabled = parseBool(getEnv("REDIS_ENABLED", "true"), true)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET_KEY", "")
	cfg.Auth.TokenTTL = time.Duration(parseInt(getEnv("JWT_EXPIRATION_HOURS", "24"), 24)) * time.Hour
	cfg.Auth.BcryptCost = parseInt(getEnv("BCRYPT_COST", "12"), 12)
	cfg.Auth.SessionSweepDur = parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1h"), time.Hour)

	cfg.Timezone = getEnv("TIMEZONE", "Africa/Lagos")
	cfg.RateLimitPerMinute = parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "60"), 60)
	cfg.SummaryCacheTTL = parseDuration(getEnv("SUMMARY_CACHE_TTL", "1h"), time.Hour)
	cfg.EventsStream = getEnv("EVENTS_STREAM", "pallyops:operations")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	return cfg
}

// Validate reports the first setting the API cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if !c.App.Debug {
			return errors.New("JWT_SECRET_KEY is required")
		}
		c.Auth.JWTSecret = "pallyops-debug-secret"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES; a bare IP becomes a
// single-address prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.HTTP.TrustedProxies))
	for _, v := range c.HTTP.TrustedProxies {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", v, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", v, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// CORSOrigins lists the origins allowed to call the API from a browser.
func (c *Config) CORSOrigins() []string {
	origins := []string{strings.TrimRight(c.HTTP.FrontendURL, "/")}
	if c.App.Debug {
		origins = append(origins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:8000",
		)
	}
	return origins
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
