package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/anayy09/Navigator-AI-Console/internal/httpapi"
	openai "github.com/sashabaranov/go-openai"
)

// MapError translates an upstream failure into a caller-facing API error.
//
// Upstream 401 and 429 both become a 429 budget error: a 401 here means the
// gateway's own key was throttled or exhausted, which is a quota condition
// from the caller's point of view, not an authentication one. Connection
// failures and timeouts become 503. Everything else collapses to 500.
func MapError(err error) *httpapi.Error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return mapStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return mapStatus(reqErr.HTTPStatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return httpapi.UpstreamUnavailable(err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return httpapi.UpstreamUnavailable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return httpapi.UpstreamUnavailable(err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return httpapi.UpstreamUnavailable(err)
	}

	return httpapi.Internal(err)
}

// mapStatus maps an upstream HTTP status to the caller-facing taxonomy.
func mapStatus(status int, err error) *httpapi.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		return httpapi.UpstreamBudget(err)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return httpapi.UpstreamUnavailable(err)
	default:
		return httpapi.Internal(err)
	}
}
