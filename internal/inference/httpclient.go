package inference

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultHTTPTimeout = 30 * time.Second

// NewHTTPClient returns an *http.Client that retries connection errors, 429 and 5xx responses
// with exponential backoff. Provider SDKs are configured with this client and their own retries disabled.
func NewHTTPClient(retryMax int, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = timeout
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil // disable retryablehttp's default logger; failures surface as degraded results

	return retryClient.StandardClient()
}
