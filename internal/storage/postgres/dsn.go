package postgres

import (
	"fmt"
	"net/url"

	"github.com/GoSim-25-26J-441/project-auth/config"
)

// DSN renders the keyword/value connection string understood by lib/pq.
func DSN(cfg *config.DatabaseConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, quote(cfg.Password), cfg.Name, sslmode,
	)
}

// URL renders the same settings as a postgres:// URL for pgx.
func URL(cfg *config.DatabaseConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

func quote(v string) string {
	if v == "" {
		return "''"
	}
	return v
}
