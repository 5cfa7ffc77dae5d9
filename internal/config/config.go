// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// DefaultAutomationPath is the service endpoint on the automation instance
// that accepts a forwarded access token.
const DefaultAutomationPath = "/api/services/novafos/update_token"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	ClearPolicy       model.ClearPolicy
	CDPURL            string
	AutomationPath    string
	AutomationTimeout time.Duration
	IngestToken       string
}

// HasCDP returns true when a DevTools endpoint is configured. Used by the
// composition root to decide whether to start the live traffic watcher.
func (c *Config) HasCDP() bool {
	return c.CDPURL != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional: BEARERWATCH_LISTEN_ADDR (127.0.0.1:8765),
// BEARERWATCH_DB_PATH (bearerwatch.db), BEARERWATCH_CLEAR_POLICY (owner),
// BEARERWATCH_CDP_URL (unset, watcher disabled), BEARERWATCH_AUTOMATION_PATH,
// BEARERWATCH_AUTOMATION_TIMEOUT (10s) and BEARERWATCH_INGEST_TOKEN (unset).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8765"
	if v, ok := os.LookupEnv("BEARERWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "bearerwatch.db"
	if v, ok := os.LookupEnv("BEARERWATCH_DB_PATH"); ok {
		dbPath = v
	}

	policy := model.ClearPolicyOwner
	if v, ok := os.LookupEnv("BEARERWATCH_CLEAR_POLICY"); ok {
		parsed, err := model.ParseClearPolicy(v)
		if err != nil {
			return nil, fmt.Errorf("BEARERWATCH_CLEAR_POLICY: %w", err)
		}
		policy = parsed
	}

	cdpURL := os.Getenv("BEARERWATCH_CDP_URL")
	if cdpURL != "" {
		u, err := url.Parse(cdpURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("BEARERWATCH_CDP_URL has invalid URL %q", cdpURL)
		}
	}

	automationPath := DefaultAutomationPath
	if v, ok := os.LookupEnv("BEARERWATCH_AUTOMATION_PATH"); ok && v != "" {
		if v[0] != '/' {
			return nil, fmt.Errorf("BEARERWATCH_AUTOMATION_PATH must start with '/', got %q", v)
		}
		automationPath = v
	}

	timeout := 10 * time.Second
	if v, ok := os.LookupEnv("BEARERWATCH_AUTOMATION_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("BEARERWATCH_AUTOMATION_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("BEARERWATCH_AUTOMATION_TIMEOUT must be positive, got %s", parsed)
		}
		timeout = parsed
	}

	return &Config{
		ListenAddr:        listenAddr,
		DBPath:            dbPath,
		ClearPolicy:       policy,
		CDPURL:            cdpURL,
		AutomationPath:    automationPath,
		AutomationTimeout: timeout,
		IngestToken:       os.Getenv("BEARERWATCH_INGEST_TOKEN"),
	}, nil
}
