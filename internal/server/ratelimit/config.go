package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom builds a Config from the RATE_LIMIT_* values returned by
// getenv. Unparseable values fall back to their defaults.
func LoadConfigFrom(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(env.string("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(env.string("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: DefaultEndpointConfigs(env.int("RATE_LIMIT_GENERATE_PER_HOUR", 30)),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. generatePerHour
// caps model calls per client.
func DefaultEndpointConfigs(generatePerHour int) []EndpointConfig {
	return []EndpointConfig{
		// Model calls
		{Path: "/generate", Method: "POST", Limit: generatePerHour, Window: time.Hour, Burst: 5},

		// Credential checks
		{Path: "/auth/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/auth/register", Method: "POST", Limit: 5, Window: time.Minute, Burst: 2},
		{Path: "/auth/password", Method: "PUT", Limit: 5, Window: time.Minute, Burst: 2},

		// Uploads and rendering
		{Path: "/upload-resume", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/generate-pdf", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/generate-docx", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},

		// Reads
		{Path: "/letters/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},
	}
}

type envReader func(string) string

func (e envReader) string(key, defaultValue string) string {
	if value := strings.TrimSpace(e(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) int(key string, defaultValue int) int {
	if v, err := strconv.Atoi(e.string(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func (e envReader) bool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(e.string(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(e.string(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
