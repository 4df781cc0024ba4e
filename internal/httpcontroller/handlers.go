package httpcontroller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"

	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/landing"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/session"
)

// handleIndex renders the landing page with the visitor's form state and
// any toasts not yet shown.
func (s *Server) handleIndex(c echo.Context) error {
	visit, err := s.sessions.Visit(c.Response(), c.Request())
	if err != nil {
		return err
	}
	return s.render(c, landing.Page(s.pageData(c, visit)))
}

// handleSignup submits the posted fields through the visitor's form. A post
// arriving while a submission is in flight leaves the form untouched.
// Fragment requests get the form markup back; plain form posts are
// redirected to the page, which shows the resulting toasts.
func (s *Server) handleSignup(c echo.Context) error {
	visit, err := s.sessions.Visit(c.Response(), c.Request())
	if err != nil {
		return err
	}

	// The signup outlives the request if the visitor disconnects
	ctx := context.WithoutCancel(c.Request().Context())
	outcome := visit.Form.SubmitInput(ctx, c.FormValue("email"), c.FormValue(s.provider.ResponseField))
	s.log.WithContext(c.Request().Context()).Debug("Signup submitted",
		logger.String("visitor", visit.ID),
		logger.String("outcome", outcome.String()))

	if isFragmentRequest(c) {
		return s.render(c, landing.FormFragment(s.pageData(c, visit)))
	}
	return c.Redirect(http.StatusSeeOther, s.page.BasePath+"/")
}

// handleCaptcha receives the widget's token callbacks. An empty token
// means the challenge expired.
func (s *Server) handleCaptcha(c echo.Context) error {
	visit, err := s.sessions.Visit(c.Response(), c.Request())
	if err != nil {
		return err
	}
	visit.Widget.OnChange(c.FormValue("token"))
	return c.NoContent(http.StatusNoContent)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Visits  int    `json:"visits"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.Settings.Version,
		Visits:  s.sessions.Len(),
	})
}

// pageData fills the static page data with the visit's state. Pending
// toasts are drained, so each is rendered once.
func (s *Server) pageData(c echo.Context, visit *session.Visit) landing.PageData {
	d := s.page
	snap := visit.Form.Snapshot()

	d.CSRFToken, _ = c.Get(CSRFContextKey).(string)
	d.Email = snap.Email
	d.IsLoading = snap.IsLoading
	d.Generation = visit.Widget.Generation()
	d.Toasts = visit.Tray.Drain()
	return d
}

func (s *Server) render(c echo.Context, node g.Node) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	if err := node.Render(c.Response()); err != nil {
		return errors.New(err).
			Component("http-controller").
			Category(errors.CategoryState).
			Context("operation", "render").
			Build()
	}
	return nil
}

// isFragmentRequest reports whether the page script asked for the form
// fragment instead of a full page.
func isFragmentRequest(c echo.Context) bool {
	return c.Request().Header.Get(landing.FragmentHeader) == "true"
}
