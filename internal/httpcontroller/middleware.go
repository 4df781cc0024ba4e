package httpcontroller

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/landing"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/telemetry"
)

// CSRFContextKey is the key used to store the CSRF token in the context
const CSRFContextKey = "comingsoon-csrf"

const (
	csrfCookieName   = "csrf"
	csrfCookieMaxAge = 1800 // 30 minutes token lifetime
	csrfTokenLength  = 32

	gzipLevel     = 6
	gzipMinLength = 1024

	maxBodySize = "16K"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(s.recoverMiddleware())
	s.Echo.Use(s.requestIDMiddleware())
	s.Echo.Use(s.requestLogger())
	if s.metrics != nil {
		s.Echo.Use(s.metricsMiddleware())
	}
	s.Echo.Use(s.secureMiddleware())
	s.Echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     gzipLevel,
		MinLength: gzipMinLength,
	}))
	s.Echo.Use(s.cacheControlMiddleware())
	s.Echo.Use(s.csrfMiddleware())
}

// recoverMiddleware turns handler panics into 500 responses and reports them.
func (s *Server) recoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.WithContext(c.Request().Context()).Error("Recovered from panic",
				logger.Error(err),
				logger.String("route", c.Path()),
				logger.Int("stack_bytes", len(stack)))
			telemetry.CapturePanic(err, "http-controller")
			return err
		},
	})
}

// requestIDMiddleware assigns each request an ID and carries it in the
// request context so log lines can be correlated.
func (s *Server) requestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.NewString()[:8]
		},
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// requestLogger logs one line per request, levelled by status code.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	accessLog := s.log.Module("access")

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURIPath:      true,
		LogStatus:       true,
		LogLatency:      true,
		LogRemoteIP:     true,
		LogMethod:       true,
		LogError:        true,
		LogResponseSize: true,
		LogUserAgent:    true,
		LogRequestID:    true,
		HandleError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := logger.LogLevelInfo
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = logger.LogLevelError
			case v.Status >= http.StatusBadRequest:
				level = logger.LogLevelWarn
			case strings.HasPrefix(v.URIPath, s.page.BasePath+"/assets/"):
				level = logger.LogLevelDebug
			}

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("path", v.URIPath),
				logger.Int("status", v.Status),
				logger.Float64("latency_ms", float64(v.Latency)/float64(time.Millisecond)),
				logger.String("remote_ip", v.RemoteIP),
				logger.String("request_id", v.RequestID),
			}
			if v.ResponseSize > 0 {
				fields = append(fields, logger.Int64("resp_size", v.ResponseSize))
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}
			if v.Status >= http.StatusBadRequest && v.UserAgent != "" {
				fields = append(fields, logger.String("user_agent", v.UserAgent))
			}

			accessLog.Log(level, "HTTP request", fields...)
			return nil
		},
	})
}

// metricsMiddleware records request counts and latency by route pattern.
func (s *Server) metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			s.metrics.HTTP.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start).Seconds())
			return err
		}
	}
}

// secureMiddleware sets the standard security headers.
func (s *Server) secureMiddleware() echo.MiddlewareFunc {
	cfg := middleware.SecureConfig{
		XSSProtection:      "0",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	if s.Settings.WebServer.AutoTLS {
		const oneYear = 31536000
		cfg.HSTSMaxAge = oneYear
	}
	return middleware.SecureWithConfig(cfg)
}

// cacheControlMiddleware lets browsers cache assets and never the page,
// which carries visitor state.
func (s *Server) cacheControlMiddleware() echo.MiddlewareFunc {
	assetPrefix := s.page.BasePath + "/assets/"

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Set("Vary", landing.FragmentHeader)
			if strings.HasPrefix(c.Request().URL.Path, assetPrefix) {
				header.Set("Cache-Control", "public, max-age=3600, must-revalidate")
			} else {
				header.Set("Cache-Control", "no-store")
			}
			return next(c)
		}
	}
}

// csrfMiddleware protects the form posts. The token travels in the
// "_csrf" form field or the X-CSRF-Token header.
func (s *Server) csrfMiddleware() echo.MiddlewareFunc {
	csrfLog := s.log.Module("csrf")
	base := s.page.BasePath

	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     csrfCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   s.Settings.Session.Secure || s.Settings.WebServer.AutoTLS,
		CookieSameSite: http.SameSiteLaxMode,
		CookieMaxAge:   csrfCookieMaxAge,
		TokenLength:    csrfTokenLength,
		ContextKey:     CSRFContextKey,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, base+"/assets/") ||
				path == base+"/healthz" ||
				path == s.metricsPath()
		},
		ErrorHandler: func(err error, c echo.Context) error {
			csrfLog.WithContext(c.Request().Context()).Warn("CSRF token validation failed",
				logger.Error(err),
				logger.String("path", c.Request().URL.Path),
				logger.Bool("header_present", c.Request().Header.Get("X-CSRF-Token") != ""))
			return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
		},
	})
}

// rateLimiter limits POST routes per client IP. Refused requests get a
// JSON 429 so scripted clients can back off.
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	cfg := s.Settings.RateLimit
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RequestsPerSecond),
				Burst:     cfg.Burst,
				ExpiresIn: cfg.ExpiresIn,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if s.metrics != nil {
				s.metrics.HTTP.RecordRateLimited(c.Path())
			}
			s.log.WithContext(c.Request().Context()).Warn("Rate limit exceeded",
				logger.String("route", c.Path()),
				logger.String("remote_ip", identifier))
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests, please wait before trying again",
			})
		},
	})
}

// metricsPath is the metrics route on the main listener, or "" when
// metrics are disabled or served elsewhere.
func (s *Server) metricsPath() string {
	m := s.Settings.Metrics
	if s.metrics == nil || !m.Enabled || m.Listen != "" {
		return ""
	}
	path := m.Path
	if path == "" {
		path = "/metrics"
	}
	return s.page.BasePath + path
}
