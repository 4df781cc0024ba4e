package httpcontroller

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/comingsoon/internal/landing"
)

// initRoutes registers all routes under the configured base path.
func (s *Server) initRoutes() {
	g := s.Echo.Group(s.page.BasePath)

	g.GET("/", s.handleIndex)
	g.GET("/healthz", s.handleHealth)
	g.StaticFS("/assets", landing.Assets)

	limited := []echo.MiddlewareFunc{middleware.BodyLimit(maxBodySize), s.rateLimiter()}
	g.POST("/signup", s.handleSignup, limited...)
	g.POST("/captcha", s.handleCaptcha, limited...)

	if s.metricsPath() != "" {
		s.Echo.GET(s.metricsPath(), echo.WrapHandler(s.metrics.Handler()))
	}
}
