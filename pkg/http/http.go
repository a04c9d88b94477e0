package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/globalbusinessadvisors/secretscout/version"
)

// HTTPClient provides an interface for working with Go's http client or
// swapping it out with other types for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultRequestTimeout bounds a single request. Retries run against
// fresh requests, so each attempt gets the full budget.
const DefaultRequestTimeout = 30 * time.Second

var once sync.Once
var client *http.Client

// NewClient creates a http client with preferred configuration
func NewClient() *http.Client {
	once.Do(func() {
		client = &http.Client{
			Timeout: DefaultRequestTimeout,
			Transport: &customRoundTripper{
				rt: http.DefaultTransport,
			},
		}
	})
	return client
}

type customRoundTripper struct {
	rt http.RoundTripper
}

func (rt *customRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", version.GlobalUserAgent)
	return rt.rt.RoundTrip(req)
}
