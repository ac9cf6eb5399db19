package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fairyhunter13/feedbridge/internal/apperr"
)

const opFetch = "feed.fetch"

// Fetcher downloads channel feed documents. Safe for concurrent use.
type Fetcher struct {
	httpc *http.Client
}

// NewFetcher returns a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{httpc: &http.Client{Timeout: timeout}}
}

// Fetch downloads and parses the feed at feedURL, authenticating with the
// channel's static secret as a query-string parameter.
func (f *Fetcher) Fetch(ctx context.Context, feedURL, secret string) (*Document, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, apperr.TransportErr(opFetch, err)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.TransportErr(opFetch, err)
	}
	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, apperr.TransportErr(opFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.TransportErr(opFetch, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.TransportErr(opFetch, err)
	}
	return Parse(body)
}
