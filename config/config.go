package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Projects ProjectsConfig
	App      AppConfig
}

type ServerConfig struct {
	Port              string
	CORSEnabled       bool
	CORSAllowedOrigin string
	RateLimitRPS      float64
	RateLimitBurst    int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig carries everything the session verifier, the authorization
// gate and the OAuth providers need. It is handed to constructors at startup.
type AuthConfig struct {
	Secret                  string
	SessionTTL              time.Duration
	CookieName              string
	CookieDomain            string
	CookieSecure            bool
	AdminEmails             []string
	FirebaseCredentialsPath string
	Google                  GoogleOAuthConfig
	OAuthSuccessURL         string
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

type ProjectsConfig struct {
	StageNames []string
	Store      string
}

type AppConfig struct {
	Environment   string
	LogLevel      string
	Version       string
	SweepSchedule string
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnv("PORT", "8080"),
			CORSEnabled:       getEnvAsBool("CORS_ENABLED", false),
			CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", ""),
			RateLimitRPS:      getEnvAsFloat("RATE_LIMIT_RPS", 5),
			RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "projects"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Secret:                  getEnv("AUTH_SECRET", ""),
			SessionTTL:              getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
			CookieName:              getEnv("SESSION_COOKIE_NAME", "session_token"),
			CookieDomain:            getEnv("SESSION_COOKIE_DOMAIN", ""),
			CookieSecure:            getEnvAsBool("SESSION_COOKIE_SECURE", false),
			AdminEmails:             getEnvAsList("ADMIN_EMAILS"),
			FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			Google: GoogleOAuthConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
			},
			OAuthSuccessURL: getEnv("OAUTH_SUCCESS_URL", "/"),
		},
		Projects: ProjectsConfig{
			StageNames: getEnvAsList("PROJECT_STAGES"),
			Store:      getEnv("PROJECT_STORE", StorePostgres),
		},
		App: AppConfig{
			Environment:   getEnv("APP_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			Version:       getEnv("APP_VERSION", "1.0.0"),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 */15 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("AUTH_SECRET is required")
	}
	if c.App.Environment == "production" && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 bytes in production")
	}

	if c.Server.CORSEnabled {
		if c.Server.CORSAllowedOrigin == "" {
			return fmt.Errorf("CORS_ALLOWED_ORIGIN is required when CORS_ENABLED is set")
		}
		for _, o := range splitList(c.Server.CORSAllowedOrigin) {
			if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
				return fmt.Errorf("CORS_ALLOWED_ORIGIN %q must be * or an http(s) origin", o)
			}
		}
	}

	switch c.Projects.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("PROJECT_STORE must be %q or %q", StorePostgres, StoreMemory)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma separated value, dropping blank entries.
func getEnvAsList(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
