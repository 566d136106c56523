package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	DBDriver string // postgres or memory
	DSN      string

	Port      string
	AdminPort string

	UploadDir string
	MediaURL  string

	RequestTimeout  time.Duration
	RateLimitPerMin int  // 0 disables
	TrustProxy      bool // take the client address from X-Forwarded-For
	MaxUploadBytes  int64
	CORSOrigins     []string

	Admin Admin
}

func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

// Load reads the environment. Call godotenv.Load first to honor a .env file.
func Load() (Config, error) {
	c := Config{
		AppEnv:    strings.ToLower(os.Getenv("APP_ENV")),
		LogLevel:  env("LOG_LEVEL", "info"),
		DBDriver:  strings.ToLower(env("DB_DRIVER", "postgres")),
		DSN:       dsn(),
		Port:      env("PORT", "8538"),
		AdminPort: env("ADMIN_PORT", "8000"),
		UploadDir: env("UPLOAD_DIR", "uploads"),
		MediaURL:  env("MEDIA_URL", "/uploads/"),
	}
	if !strings.HasSuffix(c.MediaURL, "/") {
		c.MediaURL += "/"
	}
	if c.DBDriver != "postgres" && c.DBDriver != "memory" {
		return c, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver)
	}

	var err error
	if c.RequestTimeout, err = time.ParseDuration(env("REQUEST_TIMEOUT", "30s")); err != nil {
		return c, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if c.RateLimitPerMin, err = strconv.Atoi(env("RATE_LIMIT_PER_MIN", "0")); err != nil || c.RateLimitPerMin < 0 {
		return c, fmt.Errorf("RATE_LIMIT_PER_MIN: invalid value %q", os.Getenv("RATE_LIMIT_PER_MIN"))
	}
	if c.TrustProxy, err = strconv.ParseBool(env("TRUST_PROXY", "false")); err != nil {
		return c, fmt.Errorf("TRUST_PROXY: %w", err)
	}
	mb, err := strconv.Atoi(env("MAX_UPLOAD_MB", "25"))
	if err != nil || mb <= 0 {
		return c, fmt.Errorf("MAX_UPLOAD_MB: invalid value %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	c.MaxUploadBytes = int64(mb) << 20

	for _, o := range strings.Split(env("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.CORSOrigins = append(c.CORSOrigins, o)
		}
	}

	if c.Admin, err = LoadAdmin(os.Getenv("ADMIN_CONFIG")); err != nil {
		return c, err
	}
	return c, nil
}

// dsn prefers DB_DSN, else assembles one from the DB_* and POSTGRES_* variables.
func dsn() string {
	if v := strings.TrimSpace(os.Getenv("DB_DSN")); v != "" {
		return v
	}
	host := env("DB_HOST", "localhost")
	port := env("DB_PORT", "5432")
	user := env("DB_USER", env("POSTGRES_USER", "postgres"))
	pass := env("DB_PASSWORD", env("POSTGRES_PASSWORD", "postgres"))
	name := env("DB_NAME", env("POSTGRES_DB", "armstrong"))
	ssl := env("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
