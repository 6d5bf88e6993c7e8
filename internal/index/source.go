package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error variables for release sources
var (
	// ErrUnknownIndex is returned for an index kind no source implements
	ErrUnknownIndex = errors.New("unknown index kind")
	// ErrProjectNotFound is returned when the index answers 404 for a project
	ErrProjectNotFound = errors.New("project not found on index")
	// ErrUnexpectedStatus is returned for non-success responses that are not retried
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrMalformedResponse is returned when an index page cannot be interpreted
	ErrMalformedResponse = errors.New("malformed index response")
)

// Index kinds accepted by NewSource
const (
	KindJSON      = "json"
	KindSimple    = "simple"
	KindFindLinks = "find-links"
)

// Kinds returns the supported index kinds.
func Kinds() []string {
	return []string{KindJSON, KindSimple, KindFindLinks}
}

// ReleaseSource lists the published versions of a project.
type ReleaseSource interface {
	// Releases returns every version string the index publishes for project,
	// in the index's own spelling
	Releases(ctx context.Context, project string) ([]string, error)
	// URL returns the location queried for project
	URL(project string) string
}

// NewSource returns the release source for an index kind.
func NewSource(kind, serviceURL string, client *RetryableHTTPClient) (ReleaseSource, error) {
	if client == nil {
		client = NewRetryableHTTPClient()
	}
	serviceURL = strings.TrimRight(serviceURL, "/")

	switch kind {
	case KindJSON, "":
		return &JSONSource{ServiceURL: serviceURL, client: client}, nil
	case KindSimple:
		return &SimpleSource{ServiceURL: serviceURL, client: client}, nil
	case KindFindLinks:
		return &FindLinksSource{PageURL: serviceURL, client: client}, nil
	}
	return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownIndex, kind, strings.Join(Kinds(), ", "))
}

// fetchBody GETs url and returns the body of a 200 response
func fetchBody(ctx context.Context, client *RetryableHTTPClient, url string) ([]byte, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// appendUnique appends v unless already present
func appendUnique(list []string, seen map[string]bool, v string) []string {
	if seen[v] {
		return list
	}
	seen[v] = true
	return append(list, v)
}
