// Package assets implements the two-phase static-asset filter and the
// cross-origin URL→local-path mapping used when rewriting a captured
// page's asset references into a locally-buildable tree.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// FilterConfig is the URL-only and MIME-type filter rule set. An empty
// slice in any field means that rule imposes no restriction.
type FilterConfig struct {
	AllowedExtensions   []string // e.g. ".png", ".woff2"
	IncludeGlobs        []string
	ExcludeGlobs        []string
	AllowedMIMEPrefixes []string // e.g. "image/", "font/"
}

// AllowsURL runs the URL-only filter phase, resolved before any network
// fetch: extension allow-list, then include-globs (if configured, at least
// one must match), then exclude-globs (any match rejects).
func (f FilterConfig) AllowsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path

	if len(f.AllowedExtensions) > 0 && !hasAnyExt(p, f.AllowedExtensions) {
		return false
	}
	if len(f.IncludeGlobs) > 0 && !matchesAny(f.IncludeGlobs, p) {
		return false
	}
	if matchesAny(f.ExcludeGlobs, p) {
		return false
	}
	return true
}

// AllowsMIME runs the MIME-type filter phase, resolved once response
// headers arrive but before the body is read into memory.
func (f FilterConfig) AllowsMIME(contentType string) bool {
	if len(f.AllowedMIMEPrefixes) == 0 {
		return true
	}
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, prefix := range f.AllowedMIMEPrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

func hasAnyExt(p string, exts []string) bool {
	ext := path.Ext(p)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func matchesAny(globs []string, p string) bool {
	for _, g := range globs {
		if ok, _ := path.Match(g, p); ok {
			return true
		}
	}
	return false
}

// HTTPDoer is the minimal HTTP client surface this package needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchResult is one asset body fetch outcome.
type FetchResult struct {
	Body        []byte
	ContentType string
	Truncated   bool // true if the body is shorter than the announced content-length
}

// ErrFilteredByMIME marks a response whose MIME type failed the filter's
// second phase; the body was never read.
var ErrFilteredByMIME = fmt.Errorf("asset rejected by MIME-type filter")

// Fetch retrieves one asset body, applying the MIME-type filter phase after
// headers arrive and before the body is read, then the truncated-response
// retry rule: if the announced Content-Length exceeds the received body
// length, one direct-fetch retry is attempted; if the retry is still
// truncated, the partial body is accepted and Truncated is set.
func Fetch(ctx context.Context, client HTTPDoer, filter FilterConfig, rawURL string) (FetchResult, error) {
	result, err := fetchOnce(ctx, client, filter, rawURL)
	if err != nil {
		return FetchResult{}, err
	}
	if !result.Truncated {
		return result, nil
	}

	retry, err := fetchOnce(ctx, client, filter, rawURL)
	if err != nil {
		return result, nil
	}
	return retry, nil
}

func fetchOnce(ctx context.Context, client HTTPDoer, filter FilterConfig, rawURL string) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("building asset request for %s: %w", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetching asset %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !filter.AllowsMIME(contentType) {
		return FetchResult{}, ErrFilteredByMIME
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("reading asset body for %s: %w", rawURL, err)
	}

	truncated := resp.ContentLength > 0 && int64(len(body)) < resp.ContentLength
	return FetchResult{Body: body, ContentType: contentType, Truncated: truncated}, nil
}
