package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Ticket       TicketConfig
	Policy       PolicyConfig
	Blob         BlobConfig
	Realtime     RealtimeConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how actor tokens are verified and how profiles map to capabilities.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminProfiles         []string
	SupportProfiles       []string
}

// TicketConfig controls identifier allocation and creation defaults.
type TicketConfig struct {
	IDPrefix        string
	TimeZone        string
	DefaultPriority string
}

// PolicyConfig points to the SLA rules and category directory file.
type PolicyConfig struct {
	Path string
}

// BlobConfig configures attachment storage.
type BlobConfig struct {
	Root          string
	PublicBaseURL string
	MaxBytes      int64
}

// RealtimeConfig configures event fan-out to connected actors.
type RealtimeConfig struct {
	Stream             string
	BufferSize         int
	HeartbeatSeconds   int
	StreamBlockSeconds int
}

// NotificationConfig holds survey delivery settings.
type NotificationConfig struct {
	EmailFrom     string
	SurveyBaseURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminProfiles:         getEnvAsList("AUTH_ADMIN_PROFILES", []string{"admin", "superadmin"}),
			SupportProfiles:       getEnvAsList("AUTH_SUPPORT_PROFILES", []string{"soporte", "support"}),
		},
		Ticket: TicketConfig{
			IDPrefix:        getEnv("TICKET_ID_PREFIX", "CRM"),
			TimeZone:        getEnv("TICKET_TIMEZONE", "UTC"),
			DefaultPriority: os.Getenv("TICKET_DEFAULT_PRIORITY"),
		},
		Policy: PolicyConfig{
			Path: getEnv("POLICY_FILE", "config/policy.yaml"),
		},
		Blob: BlobConfig{
			Root:          getEnv("BLOB_ROOT", "data/attachments"),
			PublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", "/attachments"),
			MaxBytes:      int64(getEnvAsInt("BLOB_MAX_BYTES", 10<<20)),
		},
		Realtime: RealtimeConfig{
			Stream:             getEnv("REALTIME_STREAM", "support-desk:events"),
			BufferSize:         getEnvAsInt("REALTIME_BUFFER_SIZE", 64),
			HeartbeatSeconds:   getEnvAsInt("REALTIME_HEARTBEAT_SECONDS", 15),
			StreamBlockSeconds: getEnvAsInt("REALTIME_STREAM_BLOCK_SECONDS", 5),
		},
		Notification: NotificationConfig{
			EmailFrom:     getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SurveyBaseURL: getEnv("NOTIFY_SURVEY_BASE_URL", "http://localhost:8080/surveys"),
		},
	}

	if cfg.Ticket.IDPrefix == "" {
		return nil, fmt.Errorf("TICKET_ID_PREFIX must not be empty")
	}
	if _, err := cfg.Ticket.Location(); err != nil {
		return nil, fmt.Errorf("invalid TICKET_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Location resolves the time zone used to compute ticket id periods.
func (t TicketConfig) Location() (*time.Location, error) {
	return time.LoadLocation(t.TimeZone)
}

// Heartbeat returns the SSE keep-alive interval.
func (r RealtimeConfig) Heartbeat() time.Duration {
	if r.HeartbeatSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(r.HeartbeatSeconds) * time.Second
}

// StreamBlock returns how long the relay blocks on a stream read.
func (r RealtimeConfig) StreamBlock() time.Duration {
	if r.StreamBlockSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.StreamBlockSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
