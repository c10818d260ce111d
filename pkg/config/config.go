package config

import (
	"errors"
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

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BaseURL   string

	// TrustedProxies lists proxy CIDRs allowed to set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Sessions   SessionConfig
	Attendance AttendanceConfig
	Roster     RosterConfig
	Matrix     MatrixConfig
	QR         QRConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig guards the instructor endpoints when Enabled is set.
type JWTConfig struct {
	Enabled    bool
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig tunes code issuance and the attendance window.
type SessionConfig struct {
	Validity     time.Duration
	CodeLength   int
	CodeAttempts int
}

// AttendanceConfig throttles the public submission endpoint.
type AttendanceConfig struct {
	RateLimitPerMin int
}

// RosterConfig bounds roster uploads.
type RosterConfig struct {
	MaxUploadBytes int64
}

// MatrixConfig governs caching of reconstructed attendance matrices.
type MatrixConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// QRConfig controls rendered QR images.
type QRConfig struct {
	Size int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Enabled:    v.GetBool("ENABLE_INSTRUCTOR_AUTH"),
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.TrustedProxies = splitAndTrim(v.GetString("TRUSTED_PROXIES"))

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sessions = SessionConfig{
		Validity:     parseDuration(v.GetString("SESSION_VALIDITY"), 2*time.Hour),
		CodeLength:   v.GetInt("SESSION_CODE_LENGTH"),
		CodeAttempts: v.GetInt("SESSION_CODE_ATTEMPTS"),
	}

	cfg.Attendance = AttendanceConfig{
		RateLimitPerMin: v.GetInt("ATTENDANCE_RATE_LIMIT_PER_MIN"),
	}

	maxUpload := v.GetInt64("ROSTER_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Roster = RosterConfig{MaxUploadBytes: maxUpload}

	cfg.Matrix = MatrixConfig{
		CacheEnabled: v.GetBool("ENABLE_MATRIX_CACHE"),
		CacheTTL:     parseDuration(v.GetString("MATRIX_CACHE_TTL"), 5*time.Minute),
	}

	cfg.QR = QRConfig{Size: v.GetInt("QR_SIZE")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_INSTRUCTOR_AUTH", false)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "qr-attendance")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_VALIDITY", "2h")
	v.SetDefault("SESSION_CODE_LENGTH", 8)
	v.SetDefault("SESSION_CODE_ATTEMPTS", 5)

	v.SetDefault("ATTENDANCE_RATE_LIMIT_PER_MIN", 30)
	v.SetDefault("ROSTER_MAX_UPLOAD_BYTES", 10*1024*1024)

	v.SetDefault("ENABLE_MATRIX_CACHE", false)
	v.SetDefault("MATRIX_CACHE_TTL", "5m")

	v.SetDefault("QR_SIZE", 300)
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

// isMissingFile reports a missing explicit .env, which viper surfaces as a path error.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
