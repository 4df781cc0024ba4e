// Package telemetry provides opt-in, privacy-preserving error reporting to Sentry.
package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/logger"
)

var sentryInitialized atomic.Bool

// InitSentry initializes Sentry when the user has opted in. A disabled
// configuration is not an error.
func InitSentry(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		GetLogger().Info("Sentry telemetry is disabled (opt-in required)")
		return nil
	}

	release := "comingsoon"
	if settings.Version != "" {
		release = fmt.Sprintf("comingsoon@%s", settings.Version)
	}

	return initWithOptions(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Environment:      settings.Sentry.Environment,
		Release:          release,
		SampleRate:       settings.Sentry.SampleRate,
		Debug:            settings.Sentry.Debug,
		AttachStacktrace: false,
		ServerName:       "", // no hostname leakage
	})
}

// initWithOptions installs the privacy hook, initializes the SDK and
// registers the errors package reporter.
func initWithOptions(opts sentry.ClientOptions) error {
	opts.BeforeSend = func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		return applyPrivacyFilters(event)
	}

	if err := sentry.Init(opts); err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetContext("application", map[string]any{
			"name":       "comingsoon",
			"go_version": runtime.Version(),
		})
	})

	sentryInitialized.Store(true)
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))

	GetLogger().Info("Sentry telemetry initialized",
		logger.String("environment", opts.Environment),
		logger.String("release", opts.Release))
	return nil
}

// IsEnabled reports whether Sentry has been initialized.
func IsEnabled() bool {
	return sentryInitialized.Load()
}

// CaptureError reports err for component. Errors already reported by the
// errors package, and validation or rejection outcomes, are skipped.
func CaptureError(err error, component string) {
	if err == nil || !IsEnabled() {
		return
	}

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		if ee.IsReported() {
			return
		}
		if cat := ee.Category; cat == errors.CategoryValidation || cat == errors.CategoryRejection {
			return
		}
	}

	message := errors.ScrubMessage(err.Error())
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetLevel(sentry.LevelError)
		scope.SetFingerprint([]string{component, fmt.Sprintf("%T", err)})

		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = message
		event.Exception = []sentry.Exception{{Type: fmt.Sprintf("%T", err), Value: message}}
		sentry.CaptureEvent(event)
	})

	if ee != nil {
		ee.MarkReported()
	}
}

// CapturePanic reports a recovered panic value.
func CapturePanic(recovered any, component string) {
	if recovered == nil || !IsEnabled() {
		return
	}
	CaptureError(fmt.Errorf("panic: %v", recovered), component)
}

// Flush waits up to timeout for queued events to be sent.
func Flush(timeout time.Duration) bool {
	if !IsEnabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// GetLogger returns the telemetry module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
