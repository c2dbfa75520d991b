package toolchain

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	userAgent       = "infs-toolchain-manager"
	githubMediaType = "application/vnd.github+json"
)

// fetcher performs GET requests with a fixed header set.
type fetcher struct {
	client  *http.Client
	headers map[string]string
}

func newFetcher(client *http.Client, token string, github bool) *fetcher {
	h := map[string]string{"User-Agent": userAgent}
	if github {
		h["Accept"] = githubMediaType
		if token != "" {
			h["Authorization"] = "Bearer " + token
		}
	}
	return &fetcher{client: client, headers: h}
}

// get returns the body of a successful response. Non-2xx statuses map to
// HTTPError, RateLimitError or NotFoundError.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return body, nil
}
