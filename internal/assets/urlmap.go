package assets

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// recognizedCDNSubdomains are first-label subdomains treated as content
// delivery hosts rather than fully foreign origins: their assets are mapped
// under a `_<subdomain>/` prefix instead of the generic `_external/` bucket.
var recognizedCDNSubdomains = map[string]bool{
	"cdn": true, "static": true, "assets": true, "images": true, "media": true,
}

// MapURL computes the local path an asset URL should be written to,
// relative to the reconstructed project root, given the bundle's own URL.
//
//   - Same-origin URLs map to the asset URL's pathname: the root path
//     becomes "index.html"; an extensionless path gets "/index.html"
//     appended (mirroring how a dev server resolves directory requests).
//   - A recognized CDN subdomain (cdn., static., assets., images., media.)
//     maps under a "_<subdomain>/" prefix.
//   - Any other cross-origin URL maps to "_external/<12-hex-md5>_<name>",
//     where <name> is the sanitized last path segment.
func MapURL(bundleURL, assetURL string) (string, error) {
	bundle, err := url.Parse(bundleURL)
	if err != nil {
		return "", fmt.Errorf("parsing bundle URL %s: %w", bundleURL, err)
	}
	asset, err := url.Parse(assetURL)
	if err != nil {
		return "", fmt.Errorf("parsing asset URL %s: %w", assetURL, err)
	}

	if sameOrigin(bundle, asset) {
		return samePathMapping(asset.Path), nil
	}

	if sub, ok := cdnSubdomain(asset.Hostname()); ok {
		return "_" + sub + "/" + sanitizeRemainder(asset.Path), nil
	}

	return externalMapping(assetURL, asset.Path), nil
}

func sameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}

func samePathMapping(p string) string {
	trimmed := strings.TrimPrefix(p, "/")
	if trimmed == "" {
		return "index.html"
	}
	if path.Ext(trimmed) == "" {
		return strings.TrimSuffix(trimmed, "/") + "/index.html"
	}
	return trimmed
}

func cdnSubdomain(host string) (string, bool) {
	first, _, _ := strings.Cut(host, ".")
	if recognizedCDNSubdomains[first] {
		return first, true
	}
	return "", false
}

func externalMapping(fullURL, p string) string {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(fullURL)))[:12]
	name := sanitizeName(path.Base(p))
	if name == "" || name == "." || name == "/" {
		name = "asset"
	}
	return "_external/" + hash + "_" + name
}

func sanitizeRemainder(p string) string {
	trimmed := strings.TrimPrefix(p, "/")
	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		segments[i] = sanitizeName(seg)
	}
	return strings.Join(segments, "/")
}

var nameSanitizeAllowed = func(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_'
}

// sanitizeName replaces every character outside [A-Za-z0-9._-] with an
// underscore, so a path segment is always a safe local filename.
func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if nameSanitizeAllowed(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
