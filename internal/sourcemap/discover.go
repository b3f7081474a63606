package sourcemap

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// LocationType identifies where a sourceMappingURL was found.
type LocationType string

const (
	LocationHTTPHeader   LocationType = "http-header"
	LocationJSComment    LocationType = "js-comment"
	LocationCSSComment   LocationType = "css-comment"
	LocationInlineDataURI LocationType = "inline-data-uri"
	LocationURLProbe     LocationType = "url-probe"
)

// DiscoveryResult is the outcome of locating a bundle's source map.
type DiscoveryResult struct {
	Found         bool
	SourceMapURL  string
	LocationType  LocationType
	BundleContent []byte
	// DiscoveryFailed is set when an upstream HTTP failure prevented
	// discovery from completing (distinct from a normal "not found").
	DiscoveryFailed bool
	Err             error
}

// HTTPDoer is the minimal HTTP client surface the discoverer needs, letting
// callers inject retry/logging middleware (out of scope here).
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Discover locates a sidecar source map for bundleURL following the ECMA-426
// resolution order: HTTP headers, trailing comment, data URI, then a HEAD
// probe against "{bundleURL}.map".
func Discover(client HTTPDoer, bundleURL string) DiscoveryResult {
	req, err := http.NewRequest(http.MethodGet, bundleURL, nil)
	if err != nil {
		return DiscoveryResult{DiscoveryFailed: true, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return DiscoveryResult{DiscoveryFailed: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DiscoveryResult{DiscoveryFailed: true, Err: err}
	}

	// 1. HTTP headers: prefer SourceMap over X-SourceMap.
	if hdr := resp.Header.Get("SourceMap"); hdr != "" {
		return resolveFound(bundleURL, hdr, LocationHTTPHeader, body)
	}
	if hdr := resp.Header.Get("X-SourceMap"); hdr != "" {
		return resolveFound(bundleURL, hdr, LocationHTTPHeader, body)
	}

	// 2. Trailing comment scan.
	isCSS := strings.Contains(resp.Header.Get("Content-Type"), "css") || strings.HasSuffix(strings.ToLower(strippedPath(bundleURL)), ".css")
	if found, ok := ScanTrailingSourceMappingURL(body, isCSS); ok {
		return resolveFound(bundleURL, found, commentLocationType(isCSS), body)
	}

	// 4. URL probe: HEAD {bundleURL}.map
	probeURL := bundleURL + ".map"
	headReq, err := http.NewRequest(http.MethodHead, probeURL, nil)
	if err != nil {
		return DiscoveryResult{Found: false, BundleContent: body}
	}
	headResp, err := client.Do(headReq)
	if err != nil {
		// HEAD failure is not a discovery failure: the bundle itself loaded
		// fine, we simply found no map.
		return DiscoveryResult{Found: false, BundleContent: body}
	}
	defer headResp.Body.Close()

	if headResp.StatusCode == http.StatusOK && isPlausibleSourceMapContentType(headResp.Header.Get("Content-Type")) {
		return DiscoveryResult{
			Found:         true,
			SourceMapURL:  probeURL,
			LocationType:  LocationURLProbe,
			BundleContent: body,
		}
	}

	return DiscoveryResult{Found: false, BundleContent: body}
}

func commentLocationType(isCSS bool) LocationType {
	if isCSS {
		return LocationCSSComment
	}
	return LocationJSComment
}

func resolveFound(bundleURL, rawURL string, loc LocationType, body []byte) DiscoveryResult {
	if strings.HasPrefix(rawURL, "data:") {
		return DiscoveryResult{Found: true, SourceMapURL: rawURL, LocationType: LocationInlineDataURI, BundleContent: body}
	}
	resolved, err := resolveRelative(bundleURL, rawURL)
	if err != nil {
		return DiscoveryResult{Found: true, SourceMapURL: rawURL, LocationType: loc, BundleContent: body}
	}
	return DiscoveryResult{Found: true, SourceMapURL: resolved, LocationType: loc, BundleContent: body}
}

func resolveRelative(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// isPlausibleSourceMapContentType rejects text/html (SPA fallback) and
// accepts application/json, application/octet-stream, text/plain, or an
// absent Content-Type header.
func isPlausibleSourceMapContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt := ct
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		mt = ct[:idx]
	}
	mt = strings.TrimSpace(strings.ToLower(mt))
	switch mt {
	case "text/html":
		return false
	case "application/json", "application/octet-stream", "text/plain":
		return true
	default:
		return true
	}
}

func strippedPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

