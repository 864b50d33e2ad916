package scraper

import (
	"context"
	"io"
)

// SourceFetcher retrieves the operator/link source list.
type SourceFetcher interface {
	FetchSources(ctx context.Context) (io.ReadCloser, error)
}

// FeedFetcher retrieves a feed ZIP by its link.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, link string) ([]byte, error)
}
