package observability

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource yields the current bearer token, or "" when unauthenticated.
type TokenSource func() string

type headerTransport struct {
	base  http.RoundTripper
	token TokenSource
}

// NewTransport builds the round tripper used for every API request: it tags
// requests with an id, attaches the bearer token and wraps everything in
// otel tracing.
func NewTransport(token TokenSource) http.RoundTripper {
	return otelhttp.NewTransport(&headerTransport{
		base:  http.DefaultTransport,
		token: token,
	})
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-Id", uuid.NewString())
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != nil {
		if tok := t.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return t.base.RoundTrip(req)
}
