// Package index looks up the latest published versions of Python packages.
//
// The package implements:
//   - Release sources for the PyPI JSON API, PEP 503 simple repositories
//     and flat find-links pages
//   - An HTTP client with retries, exponential backoff and request pacing
//   - An optional on-disk TTL cache of release lists
//   - A fetcher applying version specifiers and the pre-release policy,
//     with bounded concurrent lookups
//
// Usage:
//
//	source, err := index.NewSource(index.KindJSON, "https://pypi.org/pypi", index.NewRetryableHTTPClient())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fetcher := index.NewFetcher(source, index.WithThreads(10))
//	latest := fetcher.FetchLastVersions(ctx, requests)
package index
