// Package notifyme is the client for the notification-signup endpoint
// (POST /api/notifyme). It turns the endpoint's reply into a tagged Result
// and every other outcome into an error.
package notifyme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tphakala/comingsoon/internal/errors"
	"github.com/tphakala/comingsoon/internal/httpclient"
	"github.com/tphakala/comingsoon/internal/logger"
)

const (
	// DefaultPath is the endpoint path resolved against the base URL.
	DefaultPath = "/api/notifyme"

	// maxResponseBytes caps how much of the reply is read.
	maxResponseBytes = 64 << 10
)

// Kind tags the outcome of a completed exchange.
type Kind int

const (
	// KindAccepted means the endpoint replied success:true.
	KindAccepted Kind = iota + 1
	// KindRejected means the endpoint replied success:false.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindAccepted:
		return "accepted"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Request is the JSON body sent to the endpoint.
type Request struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Result is the decoded endpoint reply.
type Result struct {
	Kind    Kind
	Message string
}

// Accepted reports whether the endpoint accepted the signup.
func (r Result) Accepted() bool { return r.Kind == KindAccepted }

// response mirrors the wire shape; pointers make missing or null fields detectable.
type response struct {
	Success *bool   `json:"success"`
	Message *string `json:"message"`
}

// Subscriber submits signup requests. *Client implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, req Request) (Result, error)
}

// Client posts signup requests to the endpoint.
type Client struct {
	endpoint string
	http     *httpclient.Client
	log      logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger; the default discards.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient replaces the outbound client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// ResolveEndpoint joins path onto baseURL. An empty path means DefaultPath.
func ResolveEndpoint(baseURL, path string) (string, error) {
	if path == "" {
		path = DefaultPath
	}
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = fmt.Errorf("base URL %q must be absolute", baseURL)
		}
		return "", errors.New(err).
			Component("notifyme").
			Category(errors.CategoryConfiguration).
			Context("base_url", baseURL).
			Build()
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.New(err).
			Component("notifyme").
			Category(errors.CategoryConfiguration).
			Context("path", path).
			Build()
	}
	return base.ResolveReference(ref).String(), nil
}

// NewClient creates a client that posts to endpoint (an absolute URL).
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		log:      logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(nil)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Subscribe performs exactly one POST of req and decodes the reply.
//
// A 2xx reply with a boolean "success" yields a Result. Network failures,
// non-2xx statuses, bodies that aren't JSON objects, and replies without
// "success" are returned as errors.
func (c *Client) Subscribe(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	resp, cancel, err := c.http.PostJSON(ctx, c.endpoint, req)
	defer cancel()
	if err != nil {
		return Result{}, errors.New(err).
			Component("notifyme").
			Category(errors.CategoryNetwork).
			NetworkContext(c.endpoint, 0).
			Timing("subscribe_request", time.Since(start)).
			Build()
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug("Failed to close response body", logger.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, errors.New(err).
			Component("notifyme").
			Category(errors.CategoryNetwork).
			Context("operation", "read_response").
			Build()
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Result{}, errors.Newf("endpoint returned status %d", resp.StatusCode).
			Component("notifyme").
			Category(errors.CategoryHTTP).
			Context("operation", "subscribe_request").
			Context("status_code", resp.StatusCode).
			Build()
	}

	result, err := decodeResult(body)
	if err != nil {
		return Result{}, err
	}

	c.log.Debug("Signup endpoint replied",
		logger.String("outcome", result.Kind.String()),
		logger.Duration("elapsed", time.Since(start)))

	return result, nil
}

// decodeResult interprets a 2xx reply body.
func decodeResult(body []byte) (Result, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return Result{}, errors.New(err).
			Component("notifyme").
			Category(errors.CategoryFileParsing).
			Context("operation", "decode_response").
			Build()
	}
	if r.Success == nil || r.Message == nil {
		return Result{}, errors.Newf("response is missing the success or message field").
			Component("notifyme").
			Category(errors.CategoryFileParsing).
			Context("operation", "decode_response").
			Context("has_success", r.Success != nil).
			Build()
	}

	if *r.Success {
		return Result{Kind: KindAccepted, Message: *r.Message}, nil
	}
	return Result{Kind: KindRejected, Message: *r.Message}, nil
}
