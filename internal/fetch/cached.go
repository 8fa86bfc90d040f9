package fetch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cover-letter/internal/db"
)

// PostingStore persists fetched job posting text.
type PostingStore interface {
	GetFreshJobPosting(ctx context.Context, url string, maxAge time.Duration) (*db.JobPosting, error)
	UpsertJobPosting(ctx context.Context, posting *db.JobPosting) error
}

// CachedFetcher wraps JobPosting with a store-backed cache.
type CachedFetcher struct {
	store     PostingStore
	options   *Options
	cacheTTL  time.Duration
	skipCache bool
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: db.DefaultJobPostingTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher. A nil store disables caching.
func NewCachedFetcher(store PostingStore, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = db.DefaultJobPostingTTL
	}
	return &CachedFetcher{
		store:     store,
		options:   config.Options.withDefaults(),
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	PostingID uuid.UUID
}

// JobPosting returns the cached posting text when it is younger than the
// TTL, otherwise fetches it and stores the result. A failed store write is
// logged and the fetched result is still returned.
func (f *CachedFetcher) JobPosting(ctx context.Context, urlStr string) (*CachedResult, error) {
	useCache := f.store != nil && !f.skipCache

	if useCache {
		cached, err := f.store.GetFreshJobPosting(ctx, urlStr, f.cacheTTL)
		if err != nil {
			f.options.Logger.Warn("job posting cache lookup failed", "url", urlStr, "error", err)
		} else if cached != nil {
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					Text:       cached.Text,
					StatusCode: 200,
					Platform:   Platform(cached.Platform),
				},
				FromCache: true,
				PostingID: cached.ID,
			}, nil
		}
	}

	result, err := JobPosting(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	out := &CachedResult{Result: result}
	if f.store == nil {
		return out, nil
	}

	posting := &db.JobPosting{
		URL:      urlStr,
		Platform: string(result.Platform),
		Text:     result.Text,
	}
	if err := f.store.UpsertJobPosting(ctx, posting); err != nil {
		f.options.Logger.Warn("failed to cache job posting", "url", urlStr, "error", err)
		return out, nil
	}
	out.PostingID = posting.ID
	return out, nil
}
