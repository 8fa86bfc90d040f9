package ingestion

import (
	"context"
	"fmt"

	"github.com/jonathan/cover-letter/internal/fetch"
)

// IngestFromURL fetches a job posting through the cached fetcher and
// prepares its text.
func IngestFromURL(ctx context.Context, fetcher *fetch.CachedFetcher, urlStr string) (string, *Metadata, error) {
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(nil, nil)
	}

	result, err := fetcher.JobPosting(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch job posting: %w", err)
	}

	text, metadata := PrepareJobText(result.Text, "url")
	metadata.URL = urlStr
	metadata.Platform = string(result.Platform)
	return text, metadata, nil
}
