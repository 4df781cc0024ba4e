package telemetry

import (
	"github.com/getsentry/sentry-go"

	"github.com/tphakala/comingsoon/internal/errors"
)

// applyPrivacyFilters strips visitor identity from an event and scrubs
// emails, tokens and query strings from its text.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	event.User = sentry.User{}
	event.ServerName = ""

	if event.Request != nil {
		event.Request.Cookies = ""
		event.Request.Data = ""
		event.Request.QueryString = ""
		event.Request.Env = nil
		for name := range event.Request.Headers {
			if !allowedHeaders[name] {
				delete(event.Request.Headers, name)
			}
		}
		event.Request.URL = errors.ScrubMessage(event.Request.URL)
	}

	event.Message = errors.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = errors.ScrubMessage(event.Exception[i].Value)
	}
	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = errors.ScrubMessage(event.Breadcrumbs[i].Message)
		event.Breadcrumbs[i].Data = nil
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}

// allowedHeaders are request headers kept on events.
var allowedHeaders = map[string]bool{
	"Content-Type": true,
	"Accept":       true,
	"Hx-Request":   true,
	"X-Request-Id": true,
}
