// Package secrets resolves credentials that should not live in config.yaml:
// the session signing secret and the Sentry DSN. A value may reference
// environment variables, or be read from a mounted file such as a Docker
// or Kubernetes secret.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/logger"
)

// maxFileSize bounds secret files; a secret is a short string.
const maxFileSize = 64 * 1024

// Expand replaces ${VAR} and ${VAR:-fallback} references in s. A reference
// without a fallback to an unset or empty variable is an error.
func Expand(s string) (string, error) {
	var missing []string
	expanded := os.Expand(s, func(ref string) string {
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("environment variable(s) not set: %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile returns the contents of a secret file without trailing newlines.
// Files readable by group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", fileError(err, path)
	case !info.Mode().IsRegular():
		return "", fileError(errors.NewStd("not a regular file"), path)
	case info.Size() > maxFileSize:
		return "", fileError(errors.NewStd("file too large"), path)
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module("secrets").Warn("Secret file is readable by other users",
			logger.String("path", path),
			logger.String("mode", perm.String()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fileError(err, path)
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(errors.NewStd("file is empty"), path)
	}
	return secret, nil
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("path", path).
		Build()
}

// Resolve returns the secret from file when it is set, otherwise value
// with environment references expanded. Both empty yields "".
func Resolve(file, value string) (string, error) {
	if file != "" {
		return ReadFile(file)
	}
	if value == "" {
		return "", nil
	}
	return Expand(value)
}
