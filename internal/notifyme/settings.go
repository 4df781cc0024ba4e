package notifyme

import (
	"net/http"
	"time"

	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/httpclient"
	"github.com/tphakala/comingsoon/internal/logger"
)

// NewFromSettings builds a client for the configured endpoint with its own
// connection pool. Outbound requests are logged at debug level.
func NewFromSettings(s *conf.SignupSettings, opts ...Option) (*Client, error) {
	endpoint, err := ResolveEndpoint(s.BaseURL, s.Path)
	if err != nil {
		return nil, err
	}

	hc := httpclient.New(&httpclient.Config{
		DefaultTimeout: s.Timeout,
		UserAgent:      s.UserAgent,
	})

	c := NewClient(endpoint, append([]Option{WithHTTPClient(hc)}, opts...)...)
	hc.SetObserver(func(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		fields := []logger.Field{
			logger.String("method", req.Method),
			logger.Duration("elapsed", elapsed),
		}
		if resp != nil {
			fields = append(fields, logger.Int("status", resp.StatusCode))
		}
		if err != nil {
			fields = append(fields, logger.Error(err))
		}
		c.log.Debug("Signup endpoint call", fields...)
	})
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}
