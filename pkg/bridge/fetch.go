package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// FetchReason classifies why a media fetch failed.
type FetchReason string

const (
	FetchTimeout FetchReason = "timeout"
	FetchNetwork FetchReason = "network"
	FetchStatus  FetchReason = "status"
)

// FetchError reports a failed media download. Callers log it and drop the
// message; it is never retried.
type FetchError struct {
	URL    string
	Reason FetchReason
	Status int   // HTTP status code, set when Reason == FetchStatus
	Err    error // underlying transport error, nil for status failures
}

func (e *FetchError) Error() string {
	if e.Reason == FetchStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher downloads media referenced by broker payloads. One GET per
// message, body read fully into memory, default redirect policy.
type HTTPFetcher struct {
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a fetcher whose timeout bounds the whole request,
// including reading the body.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves url and returns the body bytes, or a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: FetchNetwork, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: fetchReason(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Reason: FetchStatus, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: fetchReason(err), Err: err}
	}
	return data, nil
}

func fetchReason(err error) FetchReason {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FetchTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}
	return FetchNetwork
}
