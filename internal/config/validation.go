package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Validate performs fail-fast validation of the loaded configuration.
// It is called by Load; callers constructing Config by hand (tests) may call
// it directly.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("%w: model catalog is empty", ErrInvalidModelName)
	}
	for _, m := range c.Models {
		if m.ID == "" || m.APIIdentifier == "" {
			return fmt.Errorf("%w: catalog entry %+v", ErrInvalidModelName, m)
		}
	}

	if c.Dimension <= 0 || c.Dimension > 8192 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, c.Dimension)
	}

	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	return nil
}

// ValidateServe performs the additional checks required before starting the
// HTTP server: provider and vector index credentials must be present.
func (c *Config) ValidateServe() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrMissingAPIKey)
	}
	if c.VectorIndex.APIKey == "" {
		return fmt.Errorf("%w: PINECONE_API_KEY not set", ErrMissingAPIKey)
	}
	if c.VectorIndex.Index == "" {
		return ErrMissingIndexName
	}
	return nil
}

// splitDatabaseURL parses a postgres:// URL into its components.
func splitDatabaseURL(raw string) (host string, port int, user, password, dbName, sslMode string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, "", "", "", "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", 0, "", "", "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host = u.Hostname()
	port = 5432
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, "", "", "", "", fmt.Errorf("invalid port %q: %w", p, err)
		}
	}

	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}

	dbName = strings.TrimPrefix(u.Path, "/")
	sslMode = u.Query().Get("sslmode")
	return host, port, user, password, dbName, sslMode, nil
}
