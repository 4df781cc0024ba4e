// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// captchaProviders are the accepted captcha.provider values.
var captchaProviders = []string{"recaptcha", "hcaptcha", "turnstile"}

func isKnownCaptchaProvider(name string) bool {
	return slices.Contains(captchaProviders, strings.ToLower(strings.TrimSpace(name)))
}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateWebServerSettings,
		validateSignupSettings,
		validateCaptchaSettings,
		validateSessionSettings,
		validateRateLimitSettings,
		validateSentrySettings,
		validateMetricsSettings,
		validatePageSettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateWebServerSettings(s *Settings) []string {
	var errs []string
	if s.WebServer.Listen == "" {
		errs = append(errs, "webserver.listen must be set")
	} else if err := validateEnvListen(s.WebServer.Listen); err != nil {
		errs = append(errs, "webserver.listen: "+err.Error())
	}
	if s.WebServer.AutoTLS && s.WebServer.Host == "" {
		errs = append(errs, "webserver.host is required when autotls is enabled")
	}
	if s.WebServer.BasePath != "" && !strings.HasPrefix(s.WebServer.BasePath, "/") {
		errs = append(errs, "webserver.basepath must start with '/'")
	}
	return errs
}

func validateSignupSettings(s *Settings) []string {
	var errs []string
	if err := validateEnvURL(s.Signup.BaseURL); err != nil {
		errs = append(errs, "signup.baseurl: "+err.Error())
	}
	if s.Signup.Path != "" {
		if err := validateEnvPath(s.Signup.Path); err != nil {
			errs = append(errs, "signup.path: "+err.Error())
		}
	}
	if s.Signup.Timeout < 0 {
		errs = append(errs, "signup.timeout must not be negative")
	}
	return errs
}

func validateCaptchaSettings(s *Settings) []string {
	var errs []string
	if !isKnownCaptchaProvider(s.Captcha.Provider) {
		errs = append(errs, fmt.Sprintf("captcha.provider must be one of %s", strings.Join(captchaProviders, ", ")))
	}
	if s.Captcha.Theme != "" && s.Captcha.Theme != "dark" && s.Captcha.Theme != "light" {
		errs = append(errs, "captcha.theme must be dark or light")
	}
	return errs
}

func validateSessionSettings(s *Settings) []string {
	var errs []string
	if err := validateEnvSecret(s.Session.Secret); err != nil {
		errs = append(errs, "session.secret: "+err.Error())
	}
	if s.Session.CookieName == "" {
		errs = append(errs, "session.cookiename must be set")
	}
	if s.Session.MaxAge < 0 {
		errs = append(errs, "session.maxage must not be negative")
	}
	if s.Session.IdleTTL <= 0 {
		errs = append(errs, "session.idlettl must be positive")
	}
	return errs
}

func validateRateLimitSettings(s *Settings) []string {
	if !s.RateLimit.Enabled {
		return nil
	}
	var errs []string
	if s.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, "ratelimit.requestspersecond must be positive")
	}
	if s.RateLimit.Burst < 1 {
		errs = append(errs, "ratelimit.burst must be at least 1")
	}
	return errs
}

func validateSentrySettings(s *Settings) []string {
	if !s.Sentry.Enabled {
		return nil
	}
	var errs []string
	if _, err := url.Parse(s.Sentry.DSN); err != nil || s.Sentry.DSN == "" {
		errs = append(errs, "sentry.dsn must be a valid DSN when sentry is enabled")
	}
	if s.Sentry.SampleRate < 0 || s.Sentry.SampleRate > 1 {
		errs = append(errs, "sentry.samplerate must be between 0 and 1")
	}
	return errs
}

func validateMetricsSettings(s *Settings) []string {
	if !s.Metrics.Enabled {
		return nil
	}
	var errs []string
	if s.Metrics.Listen == "" && !strings.HasPrefix(s.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with '/'")
	}
	if s.Metrics.Listen != "" {
		if err := validateEnvListen(s.Metrics.Listen); err != nil {
			errs = append(errs, "metrics.listen: "+err.Error())
		}
	}
	return errs
}

func validatePageSettings(s *Settings) []string {
	var errs []string
	if s.Page.StarCount < 0 {
		errs = append(errs, "page.starcount must not be negative")
	}
	return errs
}
