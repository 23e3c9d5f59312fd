package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Referential policies for soft course/lab references on bookings.
const (
	PolicyStrict = "strict"
	PolicyWarn   = "warn"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Booking  BookingConfig
	Cache    CacheConfig
	Export   ExportConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BookingConfig carries the canonical slot grid and the write policies
// applied by the schedule service.
type BookingConfig struct {
	TimeSlots         []string
	ReferentialPolicy string
	DefaultLabCode    string
	DefaultPageSize   int
	MaxPageSize       int
}

// CacheConfig governs the schedule day-view cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ExportConfig tunes booking sheet exports.
type ExportConfig struct {
	Enabled    bool
	MaxDays    int
	SheetTitle string
}

// defaultTimeSlots is the fixed daily grid every booking draws from. Labels
// are opaque: two distinct labels never conflict.
var defaultTimeSlots = []string{
	"07:00", "07:45", "08:30", "09:05", "09:15", "10:00", "10:45",
	"11:30", "12:15", "13:00", "13:45", "14:30", "15:05", "15:15",
	"16:00", "16:45", "17:30", "18:15", "19:00", "19:45", "20:30",
	"21:05", "21:15", "22:00", "22:45", "23:30",
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 30*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	slots := splitAndTrim(v.GetString("BOOKING_TIME_SLOTS"))
	if len(slots) == 0 {
		slots = defaultTimeSlots
	}
	policy := strings.ToLower(v.GetString("BOOKING_REFERENTIAL_POLICY"))
	if policy != PolicyWarn {
		policy = PolicyStrict
	}
	cfg.Booking = BookingConfig{
		TimeSlots:         slots,
		ReferentialPolicy: policy,
		DefaultLabCode:    v.GetString("BOOKING_DEFAULT_LAB"),
		DefaultPageSize:   v.GetInt("PAGE_SIZE_DEFAULT"),
		MaxPageSize:       v.GetInt("PAGE_SIZE_MAX"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_SCHEDULE_CACHE"),
		TTL:     parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled:    v.GetBool("ENABLE_EXPORTS"),
		MaxDays:    v.GetInt("EXPORT_MAX_DAYS"),
		SheetTitle: v.GetString("EXPORT_SHEET_TITLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lumus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "720h")
	v.SetDefault("JWT_ISSUER", "lumus-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOKING_TIME_SLOTS", "")
	v.SetDefault("BOOKING_REFERENTIAL_POLICY", PolicyStrict)
	v.SetDefault("BOOKING_DEFAULT_LAB", "LAB01")
	v.SetDefault("PAGE_SIZE_DEFAULT", 20)
	v.SetDefault("PAGE_SIZE_MAX", 100)

	v.SetDefault("ENABLE_SCHEDULE_CACHE", false)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_MAX_DAYS", 92)
	v.SetDefault("EXPORT_SHEET_TITLE", "Lab booking sheet")
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
