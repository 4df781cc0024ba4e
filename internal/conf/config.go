// config.go: settings structure and loading for the coming-soon service
package conf

import (
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the complete service configuration.
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug mode

	Main struct {
		Name string      `yaml:"name"` // name shown in logs and the User-Agent
		Log  LogSettings `yaml:"log"`  // logging configuration
	} `yaml:"main"`

	WebServer WebServerSettings `yaml:"webserver"`
	Signup    SignupSettings    `yaml:"signup"`
	Captcha   CaptchaSettings   `yaml:"captcha"`
	Session   SessionSettings   `yaml:"session"`
	RateLimit RateLimitSettings `yaml:"ratelimit"`
	Toast     ToastSettings     `yaml:"toast"`
	Sentry    SentrySettings    `yaml:"sentry"`
	Metrics   MetricsSettings   `yaml:"metrics"`
	Page      PageSettings      `yaml:"page"`

	Version   string `yaml:"-"` // set from build flags
	BuildDate string `yaml:"-"`
}

// LogSettings configures the central logger.
type LogSettings struct {
	Level    string            `yaml:"level"`    // default level: trace, debug, info, warn, error
	Timezone string            `yaml:"timezone"` // "Local", "UTC" or IANA name
	File     bool              `yaml:"file"`     // also write JSON logs to Path
	Path     string            `yaml:"path"`     // JSON log file path
	Modules  map[string]string `yaml:"modules"`  // per-module levels
}

// WebServerSettings configures the HTTP listener.
type WebServerSettings struct {
	Listen          string        `yaml:"listen"`          // host:port to bind, e.g. ":8080"
	AutoTLS         bool          `yaml:"autotls"`         // obtain certificates with ACME
	Host            string        `yaml:"host"`            // public hostname, required for autotls
	BasePath        string        `yaml:"basepath"`        // path prefix when served behind a proxy
	ReadTimeout     time.Duration `yaml:"readtimeout"`     // server read timeout
	WriteTimeout    time.Duration `yaml:"writetimeout"`    // server write timeout
	ShutdownTimeout time.Duration `yaml:"shutdowntimeout"` // graceful shutdown budget
}

// SignupSettings configures the notification-signup endpoint client.
type SignupSettings struct {
	BaseURL   string        `yaml:"baseurl"`   // absolute URL the path is resolved against
	Path      string        `yaml:"path"`      // endpoint path, default /api/notifyme
	Timeout   time.Duration `yaml:"timeout"`   // transport timeout for one request
	UserAgent string        `yaml:"useragent"` // outbound User-Agent
}

// CaptchaSettings configures the challenge widget.
type CaptchaSettings struct {
	Provider string `yaml:"provider"` // recaptcha, hcaptcha or turnstile
	SiteKey  string `yaml:"sitekey"`  // public site key; the widget cannot render without it
	Theme    string `yaml:"theme"`    // widget theme, "dark" or "light"
}

// SessionSettings configures the visitor cookie and form store.
type SessionSettings struct {
	Secret     string        `yaml:"secret"`     // cookie signing key; ${VAR} references are expanded
	SecretFile string        `yaml:"secretfile"` // read the secret from this file instead
	CookieName string        `yaml:"cookiename"` // cookie name
	MaxAge     int           `yaml:"maxage"`     // cookie lifetime in seconds
	IdleTTL    time.Duration `yaml:"idlettl"`    // discard a visitor's form after this idle time
	Secure     bool          `yaml:"secure"`     // set the Secure cookie attribute
}

// RateLimitSettings configures per-client limits on POST routes.
type RateLimitSettings struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerSecond float64       `yaml:"requestspersecond"` // sustained rate
	Burst             int           `yaml:"burst"`             // bucket size
	ExpiresIn         time.Duration `yaml:"expiresin"`         // forget idle clients after this
}

// ToastSettings configures visitor notifications.
type ToastSettings struct {
	Duration time.Duration `yaml:"duration"` // how long a toast is shown
}

// SentrySettings configures opt-in error reporting.
type SentrySettings struct {
	Enabled     bool    `yaml:"enabled"`     // opt-in
	DSN         string  `yaml:"dsn"`         // project DSN; ${VAR} references are expanded
	DSNFile     string  `yaml:"dsnfile"`     // read the DSN from this file instead
	Environment string  `yaml:"environment"` // deployment name
	SampleRate  float64 `yaml:"samplerate"`  // event sample rate 0..1
	Debug       bool    `yaml:"debug"`       // SDK debug output
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`   // route on the main server
	Listen  string `yaml:"listen"` // optional separate listener, e.g. "127.0.0.1:9090"
}

// PageSettings holds the landing page copy and decoration.
type PageSettings struct {
	Title      string   `yaml:"title"`      // document title
	EventName  string   `yaml:"eventname"`  // event name above the headline
	Headline   string   `yaml:"headline"`   // text before the highlighted word
	Highlight  string   `yaml:"highlight"`  // gradient-highlighted word(s)
	Tagline    string   `yaml:"tagline"`    // paragraph below the headline
	Background string   `yaml:"background"` // background image URL
	StarCount  int      `yaml:"starcount"`  // twinkling stars
	StarSeed   int64    `yaml:"starseed"`   // seed for star placement
	OrbColors  []string `yaml:"orbcolors"`  // floating orb colours
}

// LoggingConfig converts log settings into the logger's configuration.
func (s *Settings) LoggingConfig() *logger.LoggingConfig {
	level := s.Main.Log.Level
	if s.Debug {
		level = string(logger.LogLevelDebug)
	}
	return &logger.LoggingConfig{
		Timezone:     s.Main.Log.Timezone,
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
		FileOutput: &logger.FileOutput{
			Enabled: s.Main.Log.File,
			Path:    s.Main.Log.Path,
			Level:   level,
		},
		ModuleLevels: s.Main.Log.Modules,
	}
}

// Load reads the configuration file and environment variables using the
// global viper instance, which the CLI binds its flags to.
func Load() (*Settings, error) {
	return LoadWith(viper.GetViper())
}

// LoadWith loads settings through v. If v has no config file set, the
// default search paths are used and a default file is written when none exists.
func LoadWith(v *viper.Viper) (*Settings, error) {
	if err := initViper(v); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_viper").
			Build()
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "resolve_secrets").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryValidation).
			Context("operation", "validate_settings").
			Build()
	}

	return settings, nil
}

// resolveSecrets replaces the session secret and Sentry DSN with their
// file or environment values.
func resolveSecrets(s *Settings) error {
	secret, err := secrets.Resolve(s.Session.SecretFile, s.Session.Secret)
	if err != nil {
		return fmt.Errorf("session.secret: %w", err)
	}
	s.Session.Secret = secret

	dsn, err := secrets.Resolve(s.Sentry.DSNFile, s.Sentry.DSN)
	if err != nil {
		return fmt.Errorf("sentry.dsn: %w", err)
	}
	s.Sentry.DSN = dsn
	return nil
}

// initViper registers defaults and environment bindings, then reads the config file.
func initViper(v *viper.Viper) error {
	v.SetConfigType("yaml")

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	// Explicit --config path
	if v.ConfigFileUsed() != "" {
		return v.ReadInConfig()
	}

	v.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(v, configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it.
func createDefaultConfig(v *viper.Viper, dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}

	// Persist a generated cookie secret so sessions survive restarts
	if v.GetString("session.secret") == "" {
		defaultConfig = bytes.Replace(defaultConfig,
			[]byte(`secret: ""`), []byte(fmt.Sprintf("secret: %q", GenerateRandomSecret())), 1)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, defaultConfig, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("Created default config file", logger.String("path", configPath))

	v.SetConfigFile(configPath)
	return v.MergeInConfig()
}

// DefaultConfigYAML returns the embedded default configuration.
func DefaultConfigYAML() ([]byte, error) {
	return fs.ReadFile(configFiles, "config.yaml")
}

// SaveYAMLConfig writes settings to configPath atomically.
// Comments and ordering of an existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// GenerateRandomSecret returns 256 bits of URL-safe randomness.
func GenerateRandomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		GetLogger().Error("Failed to generate random secret", logger.Error(err))
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// GetLogger returns the configuration module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
