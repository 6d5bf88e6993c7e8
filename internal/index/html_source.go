package index

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/obentoo/bvc/internal/common/dist"
)

// SimpleSource reads releases from a PEP 503 simple repository:
// {service}/{normalized-project}/ lists one anchor per distribution file.
type SimpleSource struct {
	ServiceURL string
	client     *RetryableHTTPClient
}

// URL returns the project page location.
func (s *SimpleSource) URL(project string) string {
	return s.ServiceURL + "/" + dist.NormalizeName(project) + "/"
}

// Releases extracts versions from the distribution filenames on the project
// page. Files marked with data-yanked are skipped.
func (s *SimpleSource) Releases(ctx context.Context, project string) ([]string, error) {
	body, err := fetchBody(ctx, s.client, s.URL(project))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", ErrMalformedResponse, err)
	}

	var versions []string
	seen := make(map[string]bool)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if _, yanked := a.Attr("data-yanked"); yanked {
			return
		}

		name := strings.TrimSpace(a.Text())
		if name == "" {
			href, _ := a.Attr("href")
			name = filenameFromHref(href)
		}

		if version, ok := releaseOf(name, project); ok {
			versions = appendUnique(versions, seen, version)
		}
	})

	return versions, nil
}

// FindLinksSource reads releases from a flat HTML page of links to
// distribution files, as used by buildout's find-links option.
type FindLinksSource struct {
	PageURL string
	client  *RetryableHTTPClient
}

// URL returns the page location; the same page serves every project.
func (s *FindLinksSource) URL(string) string {
	return s.PageURL + "/"
}

// Releases returns the versions of the project's files linked from the page.
func (s *FindLinksSource) Releases(ctx context.Context, project string) ([]string, error) {
	body, err := fetchBody(ctx, s.client, s.URL(project))
	if err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", ErrMalformedResponse, err)
	}

	nodes, err := htmlquery.QueryAll(doc, "//a[@href]")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var versions []string
	seen := make(map[string]bool)

	for _, n := range nodes {
		name := filenameFromHref(htmlquery.SelectAttr(n, "href"))
		if version, ok := releaseOf(name, project); ok {
			versions = appendUnique(versions, seen, version)
		}
	}

	return versions, nil
}

// filenameFromHref returns the unescaped last path segment of a link,
// without query string or fragment
func filenameFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// releaseOf returns the version of a distribution file of project
func releaseOf(filename, project string) (string, bool) {
	f, err := dist.ParseFilenameFor(filename, project)
	if err != nil || !f.Matches(project) {
		return "", false
	}
	return f.Version, true
}
