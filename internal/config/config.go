package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	Environment string
	Port        string
	GinMode     string

	DB    DBConfig
	Log   LogConfig
	Redis RedisConfig
	SMTP  SMTPConfig

	CORSOrigins    []string
	AuthJWTSecret  string
	UploadDir      string
	UploadMaxBytes int64
	CacheTTL       time.Duration

	TaxScheduleFile string
	HealthURL       string
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type LogConfig struct {
	Level         string
	Format        string
	IncludeCaller bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	AlertTo string
}

// Enabled reports whether alert mail can be sent.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.AlertTo != ""
}

// Load loads configuration from configs/.env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found, using environment only")
	}

	return Config{
		AppName:     getenv("APP_NAME", "reviewledger"),
		Environment: getenv("APP_ENV", "development"),
		Port:        getenv("PORT", "8080"),
		GinMode:     getenv("GIN_MODE", "debug"),
		DB: DBConfig{
			Driver:     strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
			Host:       getenv("DB_HOST", "localhost"),
			Port:       getenv("DB_PORT", "5432"),
			User:       getenv("DB_USER", "postgres"),
			Password:   getenv("DB_PASSWORD", "postgres"),
			Name:       getenv("DB_NAME", "postgres"),
			SSLMode:    getenv("DB_SSLMODE", "disable"),
			SQLitePath: getenv("DB_SQLITE_PATH", "reviewledger.db"),
		},
		Log: LogConfig{
			Level:         getenv("LOG_LEVEL", "info"),
			Format:        getenv("LOG_FORMAT", "json"),
			IncludeCaller: getenvBool("LOG_INCLUDE_CALLER", false),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:    strings.TrimSpace(getenv("SMTP_HOST", "")),
			Port:    getenvInt("SMTP_PORT", 587),
			User:    getenv("SMTP_USER", ""),
			Pass:    getenv("SMTP_PASS", ""),
			AlertTo: strings.TrimSpace(getenv("ALERT_EMAIL_TO", "")),
		},
		CORSOrigins:     splitList(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		AuthJWTSecret:   strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		UploadDir:       getenv("UPLOAD_DIR", "public/uploads"),
		UploadMaxBytes:  getenvInt64("UPLOAD_MAX_BYTES", 10<<20),
		CacheTTL:        time.Duration(getenvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		TaxScheduleFile: strings.TrimSpace(getenv("TAX_SCHEDULE_FILE", "")),
		HealthURL:       getenv("HEALTH_URL", "http://localhost:8080/api/health"),
	}
}

// DSN builds the postgres connection URL.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// IsProduction reports whether the service runs in release mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.GinMode == "release"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
