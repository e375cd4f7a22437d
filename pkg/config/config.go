package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Student conflict scopes understood by the generator.
const (
	StudentScopeDepartment  = "department"
	StudentScopeInstitution = "institution"
)

// DefaultSlots is the institution-wide teaching grid; 12:00 is the lunch break.
var DefaultSlots = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00"}

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
	Scheduler SchedulerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// JWTConfig holds what is needed to verify access tokens issued by the accounts service.
// An empty Issuer skips the iss check.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig governs read-side caching of timetable views.
type TimetableConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SchedulerConfig tunes the timetable generator.
type SchedulerConfig struct {
	RunTimeout   time.Duration
	Slots        []string
	StudentScope string
	BatchWorkers int
	BatchRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:     v.GetBool("REDIS_ENABLED"),
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		CacheEnabled: v.GetBool("ENABLE_TIMETABLE_CACHE"),
		CacheTTL:     parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 10*time.Minute),
	}

	slots := splitAndTrim(v.GetString("SCHEDULER_SLOTS"))
	if len(slots) == 0 {
		slots = append([]string(nil), DefaultSlots...)
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	scope := strings.ToLower(strings.TrimSpace(v.GetString("SCHEDULER_STUDENT_SCOPE")))
	switch scope {
	case StudentScopeDepartment, StudentScopeInstitution:
	default:
		return nil, fmt.Errorf("SCHEDULER_STUDENT_SCOPE must be %q or %q, got %q", StudentScopeDepartment, StudentScopeInstitution, scope)
	}

	cfg.Scheduler = SchedulerConfig{
		RunTimeout:   parseDuration(v.GetString("SCHEDULER_RUN_TIMEOUT"), 30*time.Second),
		Slots:        slots,
		StudentScope: scope,
		BatchWorkers: v.GetInt("SCHEDULER_BATCH_WORKERS"),
		BatchRetries: v.GetInt("SCHEDULER_BATCH_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_TIMETABLE_CACHE", false)
	v.SetDefault("TIMETABLE_CACHE_TTL", "10m")

	v.SetDefault("SCHEDULER_RUN_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_SLOTS", strings.Join(DefaultSlots, ","))
	v.SetDefault("SCHEDULER_STUDENT_SCOPE", StudentScopeDepartment)
	v.SetDefault("SCHEDULER_BATCH_WORKERS", 2)
	v.SetDefault("SCHEDULER_BATCH_RETRIES", 1)
}

// validateSlots requires strictly ascending, zero-padded HH:MM start times. Stored slots
// are compared as text, so "9:00" would sort after "10:00".
func validateSlots(slots []string) error {
	var prev time.Time
	for i, raw := range slots {
		parsed, err := time.Parse("15:04", raw)
		if err != nil {
			return fmt.Errorf("SCHEDULER_SLOTS entry %q is not HH:MM: %w", raw, err)
		}
		if parsed.Format("15:04") != raw {
			return fmt.Errorf("SCHEDULER_SLOTS entry %q must be zero-padded HH:MM", raw)
		}
		if i > 0 && !parsed.After(prev) {
			return fmt.Errorf("SCHEDULER_SLOTS must be strictly ascending, %q follows %q", raw, slots[i-1])
		}
		prev = parsed
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
