// env.go - environment variable overrides and their validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COMINGSOON"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "COMINGSOON_DEBUG", validateEnvBool},
		{"main.log.level", "COMINGSOON_LOG_LEVEL", validateEnvLogLevel},

		// Web server
		{"webserver.listen", "COMINGSOON_LISTEN", validateEnvListen},
		{"webserver.autotls", "COMINGSOON_AUTOTLS", validateEnvBool},
		{"webserver.host", "COMINGSOON_HOST", nil},

		// Signup endpoint
		{"signup.baseurl", "COMINGSOON_SIGNUP_BASEURL", validateEnvURL},
		{"signup.path", "COMINGSOON_SIGNUP_PATH", validateEnvPath},
		{"signup.timeout", "COMINGSOON_SIGNUP_TIMEOUT", validateEnvDuration},

		// CAPTCHA
		{"captcha.provider", "COMINGSOON_CAPTCHA_PROVIDER", validateEnvCaptchaProvider},
		{"captcha.sitekey", "COMINGSOON_CAPTCHA_SITEKEY", nil},
		{"captcha.theme", "COMINGSOON_CAPTCHA_THEME", nil},

		// Session
		{"session.secret", "COMINGSOON_SESSION_SECRET", validateEnvSecret},
		{"session.secretfile", "COMINGSOON_SESSION_SECRET_FILE", nil},
		{"session.secure", "COMINGSOON_SESSION_SECURE", validateEnvBool},

		// Sentry
		{"sentry.enabled", "COMINGSOON_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "COMINGSOON_SENTRY_DSN", validateEnvURL},
		{"sentry.dsnfile", "COMINGSOON_SENTRY_DSN_FILE", nil},
		{"sentry.environment", "COMINGSOON_SENTRY_ENVIRONMENT", nil},

		// Metrics
		{"metrics.enabled", "COMINGSOON_METRICS_ENABLED", validateEnvBool},
		{"metrics.listen", "COMINGSOON_METRICS_LISTEN", validateEnvListen},
	}
}

// bindEnvVars binds every override on v and validates values that are set.
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error; got '%s'", value)
	}
}

func validateEnvListen(value string) error {
	if !strings.Contains(value, ":") {
		return fmt.Errorf("listen address must be host:port or :port, got '%s'", value)
	}
	port := value[strings.LastIndex(value, ":")+1:]
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port in '%s'", value)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func validateEnvPath(value string) error {
	if !strings.HasPrefix(value, "/") {
		return fmt.Errorf("path must start with '/', got '%s'", value)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvCaptchaProvider(value string) error {
	if !isKnownCaptchaProvider(value) {
		return fmt.Errorf("captcha provider must be one of %s, got '%s'",
			strings.Join(captchaProviders, ", "), value)
	}
	return nil
}

// minSecretLength is the shortest accepted cookie signing key.
const minSecretLength = 32

func validateEnvSecret(value string) error {
	if len(value) < minSecretLength {
		return fmt.Errorf("session secret must be at least %d characters", minSecretLength)
	}
	return nil
}
