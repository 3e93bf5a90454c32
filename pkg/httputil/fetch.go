package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lheinrich/collagen/pkg/observability"
)

// MaxFetchSize caps a single image download. Anything larger than this is
// almost certainly not an image meant for a collage.
const MaxFetchSize = 64 << 20 // 64 MiB

// fetchTimeout bounds a single download attempt.
const fetchTimeout = 30 * time.Second

// fetchClient is shared by all fetches so connections are reused.
var fetchClient = &http.Client{Timeout: fetchTimeout}

// IsURL reports whether s looks like an http(s) URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads the resource at rawURL, retrying transient failures with
// exponential backoff. Network errors, 5xx responses, and 429 responses are
// retried; any other non-2xx status fails immediately.
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, err = fetchOnce(ctx, rawURL)
		return err
	})
	return data, err
}

func fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	resp, err := fetchClient.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Fall through to the body read.
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RetryableError{Err: fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)}
	default:
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize+1))
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return nil, &RetryableError{Err: err}
	}
	if len(data) > MaxFetchSize {
		return nil, fmt.Errorf("fetch %s: response exceeds %d bytes", rawURL, MaxFetchSize)
	}
	return data, nil
}
