// sensitive.go
package logger

import (
	"regexp"
	"strconv"
	"strings"
)

const redactedValue = "[REDACTED]"

// SensitiveDataPatterns match secrets embedded in free-form strings
var SensitiveDataPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),

	// Provider response fields and generic secrets
	regexp.MustCompile(`(?i)((g-recaptcha-response|h-captcha-response|cf-turnstile-response|token|secret|passw(or)?d)[\s:=]+)([^;,\s&"]{5,})`),

	// Cookies
	regexp.MustCompile(`(?i)((session|csrf|_csrf|sid)=)([^;,\s]{5,})`),
}

// SensitiveKeywords mark field keys whose values are never logged
var SensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "token", "authorization",
	"cookie", "csrf", "dsn",
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// RedactSensitiveData replaces secrets found in input with [REDACTED]
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "$1"+redactedValue)
	}
	return emailPattern.ReplaceAllStringFunc(input, RedactEmail)
}

// RedactEmail keeps the first character of the local part and the domain,
// so "jane.doe@example.com" becomes "j***@example.com".
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return redactedValue
	}
	return email[:1] + "***" + email[at:]
}

// RedactToken reports only whether a token is present and its length.
func RedactToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return "<" + strconv.Itoa(len(token)) + " chars>"
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, sensitive := range SensitiveKeywords {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	return false
}

func isEmailKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "email")
}
