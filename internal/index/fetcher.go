package index

import (
	"context"
	"sync"
	"time"

	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/pep440"
)

// Fetcher defaults
const (
	DefaultTimeout = 10 * time.Second
	DefaultThreads = 10
)

// Request asks for the latest release of a package.
type Request struct {
	Package          string
	Specifier        pep440.SpecifierSet
	AllowPrereleases bool
}

// Fetcher finds the latest acceptable release of packages on an index.
// Lookups never fail: any error yields pep440.Default.
type Fetcher struct {
	source  ReleaseSource
	cache   *Cache
	timeout time.Duration
	threads int
}

// FetcherOption is a functional option for configuring Fetcher
type FetcherOption func(*Fetcher)

// WithCache enables the release cache; nil disables it
func WithCache(cache *Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// WithTimeout bounds each package lookup, retries included
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithThreads sets how many lookups run at once
func WithThreads(threads int) FetcherOption {
	return func(f *Fetcher) {
		f.threads = max(threads, 1)
	}
}

// NewFetcher creates a fetcher reading from source.
func NewFetcher(source ReleaseSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:  source,
		timeout: DefaultTimeout,
		threads: DefaultThreads,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Releases returns the published versions of project, from the cache when fresh.
func (f *Fetcher) Releases(ctx context.Context, project string) ([]string, error) {
	key := CacheKey(f.source.URL(project), project)

	if f.cache != nil {
		if releases, ok := f.cache.Get(key); ok {
			logger.Debug("Cache hit for %s", project)
			return releases, nil
		}
	}

	releases, err := f.source.Releases(ctx, project)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Set(key, releases); err != nil {
			logger.Warn("Failed to update release cache: %v", err)
		}
	}

	return releases, nil
}

// FetchLastVersion returns the highest release of req.Package satisfying the
// specifier and pre-release policy, in the index's spelling. Unknown
// packages, network failures, timeouts and empty candidate lists all give
// pep440.Default.
func (f *Fetcher) FetchLastVersion(ctx context.Context, req Request) string {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	logger.Info("> Fetching latest datas for %s...", req.Package)

	releases, err := f.Releases(ctx, req.Package)
	if err != nil {
		logger.Debug("!> %s: %v", req.Package, err)
		return pep440.Default
	}

	candidates := req.Specifier.Filter(releases, req.AllowPrereleases)
	latest, ok := pep440.Latest(candidates)
	if !ok || pep440.CompareStrings(latest, pep440.Default) <= 0 {
		latest = pep440.Default
	}

	logger.Debug("-> Last version of %s%s is %s.", req.Package, req.Specifier, latest)
	return latest
}

// FetchLastVersions looks up every request, running up to the configured
// number of lookups at once. The result maps each requested package to its
// latest version.
func (f *Fetcher) FetchLastVersions(ctx context.Context, reqs []Request) map[string]string {
	results := make([]string, len(reqs))

	if f.threads <= 1 {
		for i, req := range reqs {
			results[i] = f.FetchLastVersion(ctx, req)
		}
	} else {
		sem := make(chan struct{}, f.threads)
		var wg sync.WaitGroup

		for i, req := range reqs {
			wg.Add(1)
			go func(idx int, req Request) {
				defer wg.Done()

				sem <- struct{}{}
				defer func() { <-sem }()

				results[idx] = f.FetchLastVersion(ctx, req)
			}(i, req)
		}

		wg.Wait()
	}

	versions := make(map[string]string, len(reqs))
	for i, req := range reqs {
		versions[req.Package] = results[i]
	}
	return versions
}
