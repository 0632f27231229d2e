package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/proxy"
	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/robfig/cron/v3"
)

type Config struct {
	DatabaseFile  string // Optional: path to SQLite database file (default: ./owsgate.db)
	PepperFile    string // Optional: path to the secret hashing pepper (default: ./pepper)
	GatewayURL    string // Public base URL of the gateway (default: http://localhost:8080)
	ProtectedPath string // Proxy mount prefix (default: /ows)

	TokenType      string        // random_token, signed_token or custom_token (default: random_token)
	TokenExpiresIn time.Duration // Token lifetime (default: 1h)
	TokenCertFile  string        // Required for signed_token
	TokenKeyFile   string        // Required for signed_token
	TokenSecret    string        // Required for custom_token
	TokenIssuer    string        // Issuer claim (default: owsgate)
	RequiredScopes []string      // Scopes the proxy gate requires (default: compute)

	ProxyTimeout    time.Duration // Outbound timeout (default: 30s)
	RequestHeaders  http.Header   // Optional: fixed headers added to forwarded requests
	ResponseHeaders http.Header   // Optional: fixed headers added to proxied responses
	ServicesFile    string        // Optional: YAML services file
	ServicesWatch   bool          // Reload the services file on change (default: true)

	AdminUser     string // Admin basic-auth user (default: admin)
	AdminPassword string // Admin basic-auth password; admin routes are off when empty

	HousekeepingSchedule string // Cron schedule of the expired token purge; empty disables it
	MetricsEnabled       bool   // Expose /metrics (default: true)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		DatabaseFile:  getEnvOrDefault("GATEWAY_DATABASE_FILE", "owsgate.db"),
		PepperFile:    getEnvOrDefault("GATEWAY_PEPPER_FILE", "pepper"),
		GatewayURL:    strings.TrimSuffix(getEnvOrDefault("GATEWAY_URL", "http://localhost:8080"), "/"),
		ProtectedPath: strings.TrimSuffix(getEnvOrDefault("GATEWAY_PROTECTED_PATH", "/ows"), "/"),

		TokenType:      getEnvOrDefault("GATEWAY_TOKEN_TYPE", string(tokens.KindRandom)),
		TokenExpiresIn: getEnvSecondsOrDefault("GATEWAY_TOKEN_EXPIRES_IN", time.Hour),
		TokenCertFile:  os.Getenv("GATEWAY_TOKEN_CERTFILE"),
		TokenKeyFile:   os.Getenv("GATEWAY_TOKEN_KEYFILE"),
		TokenSecret:    os.Getenv("GATEWAY_TOKEN_SECRET"),
		TokenIssuer:    getEnvOrDefault("GATEWAY_TOKEN_ISSUER", "owsgate"),
		RequiredScopes: httpx.ParseSpaceDelimitedFields(getEnvOrDefault("GATEWAY_REQUIRED_SCOPES", strings.Join(proxy.DefaultRequiredScopes, " "))),

		ProxyTimeout:    getEnvDurationOrDefault("GATEWAY_PROXY_TIMEOUT", proxy.DefaultTimeout),
		RequestHeaders:  parseHeaders(os.Getenv("GATEWAY_REQUEST_HEADERS")),
		ResponseHeaders: parseHeaders(os.Getenv("GATEWAY_RESPONSE_HEADERS")),
		ServicesFile:    os.Getenv("GATEWAY_SERVICES_FILE"),
		ServicesWatch:   getEnvBoolOrDefault("GATEWAY_SERVICES_WATCH", true),

		AdminUser:     getEnvOrDefault("GATEWAY_ADMIN_USER", "admin"),
		AdminPassword: os.Getenv("GATEWAY_ADMIN_PASSWORD"),

		HousekeepingSchedule: getEnvOrDefault("GATEWAY_HOUSEKEEPING_SCHEDULE", service.DefaultHousekeepingSchedule),
		MetricsEnabled:       getEnvBoolOrDefault("GATEWAY_METRICS_ENABLED", true),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// An explicitly empty schedule turns housekeeping off.
	if v, ok := os.LookupEnv("GATEWAY_HOUSEKEEPING_SCHEDULE"); ok && strings.TrimSpace(v) == "" {
		cfg.HousekeepingSchedule = ""
	}

	return cfg
}

// Validate reports every setting that would stop the gateway from starting.
func (c Config) Validate() error {
	var errs []error

	kind, err := tokens.ParseKind(c.TokenType)
	if err != nil {
		errs = append(errs, err)
	}
	switch kind {
	case tokens.KindSigned:
		if c.TokenCertFile == "" || c.TokenKeyFile == "" {
			errs = append(errs, errors.New("signed_token requires GATEWAY_TOKEN_CERTFILE and GATEWAY_TOKEN_KEYFILE"))
		}
	case tokens.KindCustom:
		if c.TokenSecret == "" {
			errs = append(errs, errors.New("custom_token requires GATEWAY_TOKEN_SECRET"))
		}
	}

	if !domain.IsHTTPURL(c.GatewayURL) {
		errs = append(errs, fmt.Errorf("GATEWAY_URL %q is not an absolute http(s) url", c.GatewayURL))
	}
	if !strings.HasPrefix(c.ProtectedPath, "/") {
		errs = append(errs, fmt.Errorf("GATEWAY_PROTECTED_PATH %q must start with /", c.ProtectedPath))
	}
	if len(c.RequiredScopes) == 0 {
		errs = append(errs, errors.New("GATEWAY_REQUIRED_SCOPES must name at least one scope"))
	}
	if c.ProxyTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_PROXY_TIMEOUT must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.HousekeepingSchedule != "" {
		if _, err := cron.ParseStandard(c.HousekeepingSchedule); err != nil {
			errs = append(errs, fmt.Errorf("GATEWAY_HOUSEKEEPING_SCHEDULE %q: %w", c.HousekeepingSchedule, err))
		}
	}

	return errors.Join(errs...)
}

// parseHeaders reads "Name: value; Other: value" into a header set.
// Malformed entries are skipped.
func parseHeaders(s string) http.Header {
	h := http.Header{}
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		h.Add(name, strings.TrimSpace(value))
	}
	if len(h) == 0 {
		return nil
	}
	return h
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

// getEnvSecondsOrDefault is getEnvDurationOrDefault for settings that are
// documented in seconds. Zero or negative means no expiry.
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return getEnvDurationOrDefault(key, defaultValue)
}
