// Package registry fetches npm registry package metadata (C6) and plans a
// version search order across it (C7).
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer is the injectable subset of *http.Client this package depends on.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultRegistryBase = "https://registry.npmjs.org"
const defaultUnpkgBase = "https://unpkg.com"

// Client fetches package documents and published file contents/listings.
type Client struct {
	HTTP         HTTPDoer
	RegistryBase string
	UnpkgBase    string
}

// NewClient builds a Client against the public npm registry and unpkg.
func NewClient(doer HTTPDoer) *Client {
	return &Client{HTTP: doer, RegistryBase: defaultRegistryBase, UnpkgBase: defaultUnpkgBase}
}

// rawPackageDoc is the subset of the npm package document this package needs.
type rawPackageDoc struct {
	Name     string                     `json:"name"`
	DistTags orderedDistTags            `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
	Time     map[string]string          `json:"time"`
}

// rawVersionFields is the subset of one version's package.json this package
// needs to locate its entry points.
type rawVersionFields struct {
	Main    string          `json:"main"`
	Module  string          `json:"module"`
	Browser string          `json:"browser"`
	Types   string          `json:"types"`
	Exports json.RawMessage `json:"exports"`
}

// VersionDetails is the entry-point-relevant subset of one published
// version's package.json, used to resolve which published file a
// candidate's extracted content should actually be compared against
// instead of guessing from a fixed fallback list alone.
type VersionDetails struct {
	Main    string
	Module  string
	Browser string
	Exports json.RawMessage
}

// orderedDistTags preserves the dist-tags object's key declaration order,
// which the version planner (C7) needs to dedupe dist-tag targets in
// declaration order rather than arbitrary map order.
type orderedDistTags struct {
	Order  []string
	Values map[string]string
}

func (d *orderedDistTags) UnmarshalJSON(data []byte) error {
	d.Values = make(map[string]string)
	dec := json.NewDecoder(strings.NewReader(string(data)))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object for dist-tags")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if _, seen := d.Values[key]; !seen {
			d.Order = append(d.Order, key)
		}
		d.Values[key] = value
	}
	return nil
}

// Metadata is the C6 registry metadata result: one document per package.
type Metadata struct {
	Name         string
	Versions     []string
	VersionTimes map[string]string // RFC3339, as returned by the registry
	DistTags     map[string]string
	DistTagOrder []string // dist-tag names in declaration order
	// VersionDetails holds each version's main/module/browser/exports
	// fields, keyed by version string, so callers can resolve the
	// package.json-declared entry point instead of guessing at one.
	VersionDetails map[string]VersionDetails
}

// NotFoundError marks a durable-negative 404 response, distinguished from
// transient failures so callers know it is safe to cache.
type NotFoundError struct {
	Package string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s", e.Package)
}

// FetchMetadata makes one registry call per package and returns its
// versions, dist-tags, and publish times. A 404 response is returned as a
// *NotFoundError (a durable negative); any other failure is a transient
// error that callers must not cache.
func (c *Client) FetchMetadata(ctx context.Context, packageName string) (Metadata, error) {
	url := fmt.Sprintf("%s/%s", c.RegistryBase, escapePackagePath(packageName))
	req, err := newGetRequest(ctx, url)
	if err != nil {
		return Metadata{}, fmt.Errorf("building metadata request for %s: %w", packageName, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetching metadata for %s: %w", packageName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Metadata{}, &NotFoundError{Package: packageName}
	}
	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("registry returned %d for %s", resp.StatusCode, packageName)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading metadata body for %s: %w", packageName, err)
	}

	var doc rawPackageDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Metadata{}, fmt.Errorf("parsing metadata for %s: %w", packageName, err)
	}

	versions := make([]string, 0, len(doc.Versions))
	details := make(map[string]VersionDetails, len(doc.Versions))
	for v, raw := range doc.Versions {
		versions = append(versions, v)

		var fields rawVersionFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue // a malformed per-version entry just yields no entry-point hints for it
		}
		details[v] = VersionDetails{
			Main:    fields.Main,
			Module:  fields.Module,
			Browser: fields.Browser,
			Exports: fields.Exports,
		}
	}

	return Metadata{
		Name:           doc.Name,
		Versions:       versions,
		VersionTimes:   doc.Time,
		DistTags:       doc.DistTags.Values,
		DistTagOrder:   doc.DistTags.Order,
		VersionDetails: details,
	}, nil
}

// EntryPointHints returns the package.json-declared entry-point candidates
// for one version, most-specific first: the "." export condition's
// resolved paths (import/require/default, in that order), then module,
// then browser, then main. Conditions nested more than one level deep
// (e.g. "import": {"default": "..."}) are also unwrapped. Missing or
// unparsed fields simply contribute nothing.
func (d VersionDetails) EntryPointHints() []string {
	var hints []string
	hints = append(hints, exportsEntryPoints(d.Exports)...)
	for _, v := range []string{d.Module, d.Browser, d.Main} {
		if v != "" {
			hints = append(hints, strings.TrimPrefix(v, "./"))
		}
	}
	return dedupeStrings(hints)
}

// exportsEntryPoints extracts candidate paths from a package.json
// "exports" field, which may be a bare string, a map keyed by subpath
// ("."), or a map of condition names ("import"/"require"/"default") whose
// values are themselves strings or further condition maps.
func exportsEntryPoints(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []string{strings.TrimPrefix(asString, "./")}
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return nil
	}

	root, ok := asObject["."]
	if ok {
		return exportsEntryPoints(root)
	}

	var out []string
	for _, key := range []string{"import", "module", "require", "browser", "default"} {
		if v, ok := asObject[key]; ok {
			out = append(out, exportsEntryPoints(v)...)
		}
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// FetchFile fetches the content of one file from a published package
// version via unpkg.
func (c *Client) FetchFile(ctx context.Context, pkg, version, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s@%s/%s", c.UnpkgBase, escapePackagePath(pkg), version, strings.TrimPrefix(path, "/"))
	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("building file request for %s@%s/%s: %w", pkg, version, path, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s@%s/%s: %w", pkg, version, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unpkg returned %d for %s@%s/%s", resp.StatusCode, pkg, version, path)
	}
	return io.ReadAll(resp.Body)
}

// unpkgMeta is the shape of unpkg's `?meta` file-listing response.
type unpkgMeta struct {
	Files []unpkgMetaEntry `json:"files"`
}

type unpkgMetaEntry struct {
	Path string           `json:"path"`
	Type string           `json:"type"`
	Files []unpkgMetaEntry `json:"files"`
}

// FetchFileList fetches the full recursive file listing for a package
// version via unpkg's `?meta` endpoint, flattened to leaf file paths.
func (c *Client) FetchFileList(ctx context.Context, pkg, version string) ([]string, error) {
	url := fmt.Sprintf("%s/%s@%s/?meta", c.UnpkgBase, escapePackagePath(pkg), version)
	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("building file-list request for %s@%s: %w", pkg, version, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching file list for %s@%s: %w", pkg, version, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unpkg returned %d for %s@%s file list", resp.StatusCode, pkg, version)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading file list for %s@%s: %w", pkg, version, err)
	}

	var meta unpkgMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parsing file list for %s@%s: %w", pkg, version, err)
	}

	var out []string
	flattenMeta(meta.Files, &out)
	return out, nil
}

func flattenMeta(entries []unpkgMetaEntry, out *[]string) {
	for _, e := range entries {
		if e.Type == "directory" {
			flattenMeta(e.Files, out)
			continue
		}
		*out = append(*out, e.Path)
	}
}

func newGetRequest(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

func escapePackagePath(pkg string) string {
	if !strings.HasPrefix(pkg, "@") {
		return pkg
	}
	scope, name, ok := strings.Cut(pkg, "/")
	if !ok {
		return pkg
	}
	return scope + "%2F" + name
}
