package index

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// JSONSource reads releases from the PyPI JSON API: {service}/{project}/json.
type JSONSource struct {
	ServiceURL string
	client     *RetryableHTTPClient
}

// URL returns the JSON document location for project.
func (s *JSONSource) URL(project string) string {
	return s.ServiceURL + "/" + url.PathEscape(project) + "/json"
}

// Releases returns the keys of the "releases" object. A release whose files
// are all yanked is left out; a release without files is kept.
func (s *JSONSource) Releases(ctx context.Context, project string) ([]string, error) {
	body, err := fetchBody(ctx, s.client, s.URL(project))
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON for %s", ErrMalformedResponse, project)
	}

	releases := gjson.GetBytes(body, "releases")
	if !releases.IsObject() {
		return nil, fmt.Errorf("%w: no releases object for %s", ErrMalformedResponse, project)
	}

	var versions []string
	releases.ForEach(func(key, files gjson.Result) bool {
		if !allYanked(files) {
			versions = append(versions, key.String())
		}
		return true
	})

	return versions, nil
}

// allYanked reports whether a release has files and every one is yanked
func allYanked(files gjson.Result) bool {
	list := files.Array()
	if len(list) == 0 {
		return false
	}
	for _, f := range list {
		if !f.Get("yanked").Bool() {
			return false
		}
	}
	return true
}
