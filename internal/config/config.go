// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultEndpoint    = "https://aranet.cloud/api"
	DefaultCacheFile   = "aranet_login.json"
	DefaultCacheMaxAge = 595 * time.Second
	DefaultDBPath      = "aranet.db"
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Endpoint    string
	Username    string
	Password    string
	SpaceName   string
	CacheFile   string // empty disables the login cache
	CacheMaxAge time.Duration
	DBPath      string
	HTTPTimeout time.Duration
}

// Load reads configuration from environment variables and returns a
// validated Config. ARANET_USERNAME, ARANET_PASSWORD and ARANET_SPACE_NAME
// are required. Optional variables: ARANET_ENDPOINT (production cloud URL),
// ARANET_CACHE_FILE (aranet_login.json; set to an empty string to disable
// the login cache), ARANET_CACHE_MAX_AGE (595s; zero or negative disables
// expiry), ARANET_DB_PATH (aranet.db), ARANET_HTTP_TIMEOUT (30s).
func Load() (*Config, error) {
	username := os.Getenv("ARANET_USERNAME")
	password := os.Getenv("ARANET_PASSWORD")
	spaceName := os.Getenv("ARANET_SPACE_NAME")

	var missing []string
	if username == "" {
		missing = append(missing, "ARANET_USERNAME")
	}
	if password == "" {
		missing = append(missing, "ARANET_PASSWORD")
	}
	if spaceName == "" {
		missing = append(missing, "ARANET_SPACE_NAME")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	endpoint := DefaultEndpoint
	if v, ok := os.LookupEnv("ARANET_ENDPOINT"); ok && v != "" {
		endpoint = v
	}
	endpoint = strings.TrimRight(endpoint, "/")

	cacheFile := DefaultCacheFile
	if v, ok := os.LookupEnv("ARANET_CACHE_FILE"); ok {
		cacheFile = v
	}

	cacheMaxAge := DefaultCacheMaxAge
	if v, ok := os.LookupEnv("ARANET_CACHE_MAX_AGE"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ARANET_CACHE_MAX_AGE has invalid duration %q: %w", v, err)
		}
		cacheMaxAge = parsed
	}

	dbPath := DefaultDBPath
	if v, ok := os.LookupEnv("ARANET_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	httpTimeout := DefaultHTTPTimeout
	if v, ok := os.LookupEnv("ARANET_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ARANET_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		httpTimeout = parsed
	}

	return &Config{
		Endpoint:    endpoint,
		Username:    username,
		Password:    password,
		SpaceName:   spaceName,
		CacheFile:   cacheFile,
		CacheMaxAge: cacheMaxAge,
		DBPath:      dbPath,
		HTTPTimeout: httpTimeout,
	}, nil
}
