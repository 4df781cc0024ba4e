// Package httpcontroller serves the landing page and its signup endpoints.
package httpcontroller

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/acme/autocert"

	"github.com/tphakala/comingsoon/internal/captcha"
	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/landing"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/observability"
	"github.com/tphakala/comingsoon/internal/session"
	"github.com/tphakala/comingsoon/internal/telemetry"
)

// Server encapsulates the Echo server and what its handlers need.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings

	sessions *session.Store
	metrics  *observability.Metrics // nil when metrics are disabled
	provider captcha.Provider
	page     landing.PageData
	log      logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the parent logger; the server logs under module "http".
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics enables request metrics and, unless a separate metrics
// listener is configured, the metrics route.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds a server with middleware and routes installed.
func New(settings *conf.Settings, sessions *session.Store, opts ...Option) (*Server, error) {
	if settings == nil || sessions == nil {
		return nil, errors.Newf("http server requires settings and a session store").
			Component("http-controller").
			Category(errors.CategoryConfiguration).
			Build()
	}

	provider, err := captcha.LookupProvider(settings.Captcha.Provider)
	if err != nil {
		return nil, errors.New(err).
			Component("http-controller").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Server{
		Echo:     echo.New(),
		Settings: settings,
		sessions: sessions,
		provider: provider,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("http")
	} else {
		s.log = s.log.Module("http")
	}
	s.page = basePageData(settings, provider)

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()
	s.Echo.Logger = NewEchoLoggerAdapter(s.log.Module("echo"), settings.Debug)
	s.Echo.HTTPErrorHandler = s.errorHandler

	s.configureMiddleware()
	s.initRoutes()
	return s, nil
}

// basePageData copies the static page settings; visitor state is filled
// in per request.
func basePageData(settings *conf.Settings, provider captcha.Provider) landing.PageData {
	p := settings.Page
	base := strings.TrimRight(settings.WebServer.BasePath, "/")

	background := p.Background
	if strings.HasPrefix(background, "/") && !strings.HasPrefix(background, "//") {
		background = base + background
	}

	return landing.PageData{
		Title:        p.Title,
		EventName:    p.EventName,
		Headline:     p.Headline,
		Highlight:    p.Highlight,
		Tagline:      p.Tagline,
		Background:   background,
		StarCount:    p.StarCount,
		StarSeed:     p.StarSeed,
		OrbColors:    p.OrbColors,
		BasePath:     base,
		Provider:     provider,
		SiteKey:      settings.Captcha.SiteKey,
		CaptchaTheme: settings.Captcha.Theme,
	}
}

// Start listens and serves until Shutdown is called. A clean shutdown
// returns nil.
func (s *Server) Start() error {
	ws := s.Settings.WebServer
	var err error

	if ws.AutoTLS {
		configPaths, pathErr := conf.GetDefaultConfigPaths()
		if pathErr != nil {
			return pathErr
		}
		s.Echo.AutoTLSManager.Prompt = autocert.AcceptTOS
		s.Echo.AutoTLSManager.Cache = autocert.DirCache(filepath.Join(configPaths[0], "autocert"))
		s.Echo.AutoTLSManager.HostPolicy = autocert.HostWhitelist(ws.Host)

		s.log.Info("Starting HTTPS server", logger.String("listen", ws.Listen), logger.String("host", ws.Host))
		err = s.Echo.StartAutoTLS(ws.Listen)
	} else {
		// Configure echo's own server; Shutdown only stops that one
		s.Echo.Server.ReadTimeout = ws.ReadTimeout
		s.Echo.Server.WriteTimeout = ws.WriteTimeout
		s.log.Info("Starting HTTP server", logger.String("listen", ws.Listen))
		err = s.Echo.Start(ws.Listen)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New(err).
			Component("http-controller").
			Category(errors.CategoryNetwork).
			Context("listen", ws.Listen).
			Build()
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.Echo.Shutdown(ctx)
}

// errorHandler logs and reports server errors before echo writes the response.
// The request logger handles errors itself, so an error arriving with the
// response already written has been logged once and is ignored.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if code >= http.StatusInternalServerError {
		s.log.WithContext(c.Request().Context()).Error("Request failed",
			logger.Error(err),
			logger.String("method", c.Request().Method),
			logger.String("route", c.Path()))
		telemetry.CaptureError(err, "http-controller")
	}

	s.Echo.DefaultHTTPErrorHandler(err, c)
}
