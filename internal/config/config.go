package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Kakao OAuth
	Kakao KakaoConfig

	// Account projection cache
	AccountCacheSize int
	AccountCacheTTL  time.Duration

	// Server
	Port          string
	CORSOrigins   string
	AuthRateLimit int
	AppEnv        string
	SentryDSN     string
}

// KakaoConfig carries everything the Kakao client needs. Host, client id,
// redirect URIs and timeout have no defaults.
type KakaoConfig struct {
	Host              string
	APIHost           string
	ClientID          string
	ClientSecret      string
	SignUpRedirectURI string
	RedirectURI       string
	FallbackRedirect  string
	Timeout           time.Duration
	StateSecret       string
	StateTTL          time.Duration
}

var ErrMissingKakaoConfig = errors.New("kakao configuration incomplete")

func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "accounts_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Kakao: KakaoConfig{
			Host:              strings.TrimRight(getEnv("KAKAO_HOST", ""), "/"),
			APIHost:           strings.TrimRight(getEnv("KAKAO_API_HOST", "https://kapi.kakao.com"), "/"),
			ClientID:          getEnv("KAKAO_REST_API_KEY", ""),
			ClientSecret:      getEnv("KAKAO_CLIENT_SECRET", ""),
			SignUpRedirectURI: getEnv("KAKAO_SIGNUP_REDIRECT_URI", ""),
			RedirectURI:       getEnv("KAKAO_REDIRECT_URI", ""),
			FallbackRedirect:  getEnv("KAKAO_FALLBACK_REDIRECT", "/"),
			Timeout:           parseDuration(getEnv("KAKAO_TIMEOUT", ""), 0),
			StateSecret:       getEnv("KAKAO_STATE_SECRET", ""),
			StateTTL:          parseDuration(getEnv("KAKAO_STATE_TTL", "10m"), 10*time.Minute),
		},

		AccountCacheSize: parseInt(getEnv("ACCOUNT_CACHE_SIZE", "1000"), 1000),
		AccountCacheTTL:  parseDuration(getEnv("ACCOUNT_CACHE_TTL", "1m"), time.Minute),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		// requests per minute per IP on sign-up and sign-in, 0 disables
		AuthRateLimit: parseInt(getEnv("AUTH_RATE_LIMIT", "10"), 10),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Validate reports every required Kakao setting that is missing.
func (k KakaoConfig) Validate() error {
	var missing []string
	if k.Host == "" {
		missing = append(missing, "KAKAO_HOST")
	}
	if k.APIHost == "" {
		missing = append(missing, "KAKAO_API_HOST")
	}
	if k.ClientID == "" {
		missing = append(missing, "KAKAO_REST_API_KEY")
	}
	if k.SignUpRedirectURI == "" {
		missing = append(missing, "KAKAO_SIGNUP_REDIRECT_URI")
	}
	if k.RedirectURI == "" {
		missing = append(missing, "KAKAO_REDIRECT_URI")
	}
	if k.Timeout <= 0 {
		missing = append(missing, "KAKAO_TIMEOUT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKakaoConfig, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
