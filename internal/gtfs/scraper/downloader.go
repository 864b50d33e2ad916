package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tfitracker-data/internal/common/logger"
)

// HTTPSourceFetcher fetches the operator/link CSV over HTTP.
type HTTPSourceFetcher struct {
	client *http.Client
	url    string
	logger logger.Logger
}

func NewHTTPSourceFetcher(url string, log logger.Logger) *HTTPSourceFetcher {
	return &HTTPSourceFetcher{
		client: &http.Client{Timeout: 1 * time.Minute},
		url:    url,
		logger: log,
	}
}

func (f *HTTPSourceFetcher) FetchSources(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching source list: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// HTTPFeedFetcher downloads feed ZIP bytes.
type HTTPFeedFetcher struct {
	client *http.Client
	logger logger.Logger
}

func NewHTTPFeedFetcher(log logger.Logger) *HTTPFeedFetcher {
	return &HTTPFeedFetcher{
		client: &http.Client{
			Timeout: 5 * time.Minute, // feed ZIPs can be large
		},
		logger: log,
	}
}

func (d *HTTPFeedFetcher) FetchFeed(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	d.logger.Info("Starting download", "url", link)
	start := time.Now()

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading feed: %w", err)
	}

	d.logger.Info("Download completed",
		"url", link,
		"size_bytes", len(body),
		"elapsed", time.Since(start).String())
	return body, nil
}
