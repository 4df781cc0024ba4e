package captcha

import (
	"fmt"
	"strings"
)

// Provider describes a CAPTCHA service: the script the page loads, the
// container class the script binds to, and the form field the solved
// token is posted in.
type Provider struct {
	Name          string
	ScriptURL     string
	WidgetClass   string
	ResponseField string
	// CallbackAttr and ExpiredAttr name the data attributes the script
	// reads to find the page's onChange callbacks.
	CallbackAttr string
	ExpiredAttr  string
	ThemeAttr    string
}

// Supported providers.
var (
	ReCAPTCHA = Provider{
		Name:          "recaptcha",
		ScriptURL:     "https://www.google.com/recaptcha/api.js",
		WidgetClass:   "g-recaptcha",
		ResponseField: "g-recaptcha-response",
		CallbackAttr:  "data-callback",
		ExpiredAttr:   "data-expired-callback",
		ThemeAttr:     "data-theme",
	}
	HCaptcha = Provider{
		Name:          "hcaptcha",
		ScriptURL:     "https://js.hcaptcha.com/1/api.js",
		WidgetClass:   "h-captcha",
		ResponseField: "h-captcha-response",
		CallbackAttr:  "data-callback",
		ExpiredAttr:   "data-expired-callback",
		ThemeAttr:     "data-theme",
	}
	Turnstile = Provider{
		Name:          "turnstile",
		ScriptURL:     "https://challenges.cloudflare.com/turnstile/v0/api.js",
		WidgetClass:   "cf-turnstile",
		ResponseField: "cf-turnstile-response",
		CallbackAttr:  "data-callback",
		ExpiredAttr:   "data-expired-callback",
		ThemeAttr:     "data-theme",
	}
)

// DefaultProvider is used when none is configured.
var DefaultProvider = ReCAPTCHA

// LookupProvider returns the provider registered under name (case-insensitive).
// An empty name returns DefaultProvider.
func LookupProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultProvider, nil
	case ReCAPTCHA.Name:
		return ReCAPTCHA, nil
	case HCaptcha.Name:
		return HCaptcha, nil
	case Turnstile.Name:
		return Turnstile, nil
	default:
		return Provider{}, fmt.Errorf("unknown captcha provider %q", name)
	}
}

// ProviderNames lists the accepted provider names.
func ProviderNames() []string {
	return []string{ReCAPTCHA.Name, HCaptcha.Name, Turnstile.Name}
}
