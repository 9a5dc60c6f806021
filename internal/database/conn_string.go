package database

import (
	"fmt"
	"net/url"

	"github.com/dmerrick/chatwire/internal/config"
)

// BuildConnString renders the archive database settings as a
// postgres:// URL for pgxpool. The password is query-escaped so
// generated secrets with URL metacharacters survive the round trip.
func BuildConnString(cfg config.DBConfig) string {
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
