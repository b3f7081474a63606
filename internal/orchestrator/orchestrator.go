// Package orchestrator implements the fingerprint orchestrator (C9): for
// each candidate package, look up a cached match, else fetch metadata, plan
// a version search order, and check versions and their entry points under
// bounded concurrency until an exact match is found or the plan is
// exhausted.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"web2local/internal/cache"
	"web2local/internal/fingerprint"
	"web2local/internal/registry"
)

// Concurrency limits for the three nested axes: packages, versions within a
// package, and entry points within a version.
const (
	DefaultPackageConcurrency    = 5
	DefaultVersionConcurrency    = 10
	DefaultEntryPointConcurrency = 5
)

// exactMatchThreshold is the similarity at or above which a match is
// considered certain, short-circuiting remaining checks for that package.
const exactMatchThreshold = 0.99

// multiFileFileCountThreshold marks a package as multi-file when more than
// this many extracted files were attributed to it.
const multiFileFileCountThreshold = 20

// ExtractedFile is one recovered source file the orchestrator attempts to
// match against a package's published versions.
type ExtractedFile struct {
	Path string
	Content string
}

// PackageCandidate names one suspected npm package this file tree imports,
// plus the extracted files attributed to it.
type PackageCandidate struct {
	Name        string
	VersionHint string
	Files       []ExtractedFile
}

// Match is the orchestrator's verdict for one package: either a resolved
// version with its strategy/similarity, or no match.
type Match struct {
	Package    string
	Version    string
	Similarity float64
	Strategy   fingerprint.Strategy
	Found      bool
}

// Options configures concurrency and pre-release inclusion.
type Options struct {
	PackageConcurrency    int
	VersionConcurrency    int
	EntryPointConcurrency int
	IncludePrerelease     bool
}

func (o Options) withDefaults() Options {
	if o.PackageConcurrency <= 0 {
		o.PackageConcurrency = DefaultPackageConcurrency
	}
	if o.VersionConcurrency <= 0 {
		o.VersionConcurrency = DefaultVersionConcurrency
	}
	if o.EntryPointConcurrency <= 0 {
		o.EntryPointConcurrency = DefaultEntryPointConcurrency
	}
	return o
}

// Orchestrator wires the registry client, cache, and similarity engine
// together to resolve package-candidate matches.
type Orchestrator struct {
	Registry *registry.Client
	Cache    cache.Store
	Options  Options
	Now      func() int64 // injectable for deterministic tests; defaults to time.Now().Unix()
}

// New builds an Orchestrator with the given collaborators.
func New(reg *registry.Client, store cache.Store, opts Options) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Cache:    store,
		Options:  opts.withDefaults(),
		Now:      func() int64 { return time.Now().Unix() },
	}
}

// Event is one fire-and-forget progress notification the orchestrator emits
// as each package candidate finishes resolving. Per this package's concurrency
// model, progress callbacks fire synchronously from worker completion and
// must not block — Notify implementations (internal/progress) are expected
// to buffer or drop rather than stall the caller.
type Event struct {
	RunID   string
	Package string
	Match   Match
}

// Notify receives one progress Event. A nil Notify is valid and simply
// disables progress reporting.
type Notify func(Event)

// Run is the result of one ResolveAll invocation tagged with a run ID, so
// an external collaborator (a TUI, a websocket client) can correlate
// progress events with the run that produced them.
type Run struct {
	ID      string
	Matches []Match
}

// Resolve is ResolveAll plus a generated run ID and optional progress
// notifications, one per candidate as it finishes.
func (o *Orchestrator) Resolve(ctx context.Context, candidates []PackageCandidate, notify Notify) Run {
	runID := uuid.New().String()
	matches := o.resolveAllNotifying(ctx, candidates, runID, notify)
	return Run{ID: runID, Matches: matches}
}

// ResolveAll matches every candidate concurrently, bounded by
// Options.PackageConcurrency.
func (o *Orchestrator) ResolveAll(ctx context.Context, candidates []PackageCandidate) []Match {
	return o.resolveAllNotifying(ctx, candidates, "", nil)
}

func (o *Orchestrator) resolveAllNotifying(ctx context.Context, candidates []PackageCandidate, runID string, notify Notify) []Match {
	sem := semaphore.NewWeighted(int64(o.Options.PackageConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	results := make([]Match, len(candidates))
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			m := o.resolveOne(gctx, cand)
			results[i] = m
			if notify != nil {
				notify(Event{RunID: runID, Package: cand.Name, Match: m})
			}
			return nil
		})
	}
	_ = g.Wait() // per-package errors are absorbed into Match{Found:false}; only ctx cancellation aborts early
	return results
}

// resolveOne resolves a single package candidate: cache lookup, metadata
// fetch, version plan, bounded-parallel version checks, structural fallback.
func (o *Orchestrator) resolveOne(ctx context.Context, cand PackageCandidate) Match {
	normalizedHash := aggregateNormalizedHash(cand.Files)

	if cached, ok := o.Cache.GetMatchResult(cand.Name, normalizedHash); ok {
		return Match{
			Package:    cand.Name,
			Version:    cached.Value.Version,
			Similarity: cached.Value.Similarity,
			Strategy:   fingerprint.Strategy(cached.Value.Strategy),
			Found:      cached.Value.Found,
		}
	}

	meta, err := o.Registry.FetchMetadata(ctx, cand.Name)
	if err != nil {
		wrapped := errors.Wrap(err, "fetching registry metadata")
		if nf, ok := errors.Cause(wrapped).(*registry.NotFoundError); ok {
			// A durable negative: safe to cache, unlike a transient network/5xx error.
			o.Cache.SetNpmPackageExistence(nf.Package, false, o.Now())
		}
		return Match{Package: cand.Name, Found: false}
	}
	o.Cache.SetNpmPackageExistence(cand.Name, true, o.Now())

	plan := registry.PlanVersions(meta, registry.PlanOptions{
		VersionHint:       cand.VersionHint,
		IncludePrerelease: o.Options.IncludePrerelease,
	})

	best := o.checkVersions(ctx, cand, plan.Versions, meta)

	if !best.Found || best.Similarity < exactMatchThreshold {
		if structural := o.tryStructuralFallback(ctx, cand, plan.Versions); structural.Found && structural.Similarity > best.Similarity {
			best = structural
		}
	}

	result := cache.MatchResult{
		Version:    best.Version,
		Similarity: best.Similarity,
		Strategy:   string(best.Strategy),
		Found:      best.Found,
	}
	o.Cache.SetMatchResult(cand.Name, normalizedHash, result, o.Now())
	return best
}

// checkVersions checks versions concurrently (bounded by
// Options.VersionConcurrency), cancelling remaining checks for this package
// once an exact match is found.
func (o *Orchestrator) checkVersions(ctx context.Context, cand PackageCandidate, versions []string, meta registry.Metadata) Match {
	vctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(vctx)
	sem := semaphore.NewWeighted(int64(o.Options.VersionConcurrency))

	var mu sync.Mutex
	best := Match{Package: cand.Name, Found: false}

	for _, version := range versions {
		version := version
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			select {
			case <-gctx.Done():
				return nil
			default:
			}

			m := o.checkVersion(gctx, cand, version, meta)

			mu.Lock()
			if m.Similarity > best.Similarity {
				best = m
			}
			exact := best.Found && best.Similarity >= exactMatchThreshold
			mu.Unlock()

			if exact {
				cancel() // short-circuit sibling checks; cache write happens after Wait() returns
			}
			return nil
		})
	}
	_ = g.Wait()
	return best
}

// checkVersion checks one package version across its candidate entry
// points, bounded by Options.EntryPointConcurrency, keeping the best
// per-file similarity seen.
func (o *Orchestrator) checkVersion(ctx context.Context, cand PackageCandidate, version string, meta registry.Metadata) Match {
	if cachedFp, ok := o.Cache.GetFingerprint(cand.Name, version); ok {
		return bestAgainstCachedFingerprint(cand, cachedFp.Value, version)
	}

	entryPoints := candidateEntryPoints(cand.Name, meta.VersionDetails[version].EntryPointHints())

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(o.Options.EntryPointConcurrency))

	var mu sync.Mutex
	best := Match{Package: cand.Name, Version: version, Found: false}

	for _, ep := range entryPoints {
		ep := ep
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			content, err := o.Registry.FetchFile(gctx, cand.Name, version, ep)
			if err != nil {
				return nil // missing entry point at this path is not an error, just a miss
			}
			candidateFp := fingerprint.NewFingerprint(string(content))

			mu.Lock()
			defer mu.Unlock()
			for _, f := range cand.Files {
				extractedFp := fingerprint.NewFingerprint(f.Content)
				scored := fingerprint.Compare(extractedFp, candidateFp)
				if scored.Similarity > best.Similarity {
					best = Match{
						Package:    cand.Name,
						Version:    version,
						Similarity: scored.Similarity,
						Strategy:   scored.Strategy,
						Found:      true,
					}
					o.Cache.SetFingerprint(cand.Name, version, cache.Fingerprint{
						ContentHash:    candidateFp.ContentHash,
						NormalizedHash: candidateFp.NormalizedHash,
						Signature:      candidateFp.Signature,
						Length:         candidateFp.ContentLength,
					}, o.Now())
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return best
}

func bestAgainstCachedFingerprint(cand PackageCandidate, fp cache.Fingerprint, version string) Match {
	candidateFp := fingerprint.Fingerprint{
		ContentHash:    fp.ContentHash,
		NormalizedHash: fp.NormalizedHash,
		Signature:      fp.Signature,
		ContentLength:  fp.Length,
	}
	best := Match{Package: cand.Name, Version: version, Found: false}
	for _, f := range cand.Files {
		scored := fingerprint.Compare(fingerprint.NewFingerprint(f.Content), candidateFp)
		if scored.Similarity > best.Similarity {
			best = Match{Package: cand.Name, Version: version, Similarity: scored.Similarity, Strategy: scored.Strategy, Found: true}
		}
	}
	return best
}

// tryStructuralFallback compares basename sets against each version's
// published file list when no exact per-file content match was found and the
// package looks multi-file. It checks only the first few plan versions to
// bound registry calls; this is a last-resort signal, not exhaustive search.
func (o *Orchestrator) tryStructuralFallback(ctx context.Context, cand PackageCandidate, versions []string) Match {
	if !isMultiFile(cand) {
		return Match{Package: cand.Name, Found: false}
	}

	extractedBasenames := basenamesOf(cand.Files)

	const maxVersionsToTry = 5
	tryVersions := versions
	if len(tryVersions) > maxVersionsToTry {
		tryVersions = tryVersions[:maxVersionsToTry]
	}

	best := Match{Package: cand.Name, Found: false}
	for _, version := range tryVersions {
		var files []string
		if cached, ok := o.Cache.GetFileList(cand.Name, version); ok {
			files = cached.Value.Files
		} else {
			fetched, err := o.Registry.FetchFileList(ctx, cand.Name, version)
			if err != nil {
				continue
			}
			o.Cache.SetFileList(cand.Name, version, cache.FileList{Files: fetched}, o.Now())
			files = fetched
		}

		scored := fingerprint.StructuralCompare(extractedBasenames, basenamesOfPaths(files))
		if scored.Similarity > best.Similarity {
			best = Match{Package: cand.Name, Version: version, Similarity: scored.Similarity, Strategy: scored.Strategy, Found: true}
		}
	}
	return best
}

// isMultiFile judges a package candidate multi-file per C9: more than 20
// extracted files, or no single file looking like a standard entry point,
// or the apparent entry is suspiciously small relative to the rest.
func isMultiFile(cand PackageCandidate) bool {
	if len(cand.Files) > multiFileFileCountThreshold {
		return true
	}
	hasStandardEntry := false
	var entryLen, totalLen int
	for _, f := range cand.Files {
		totalLen += len(f.Content)
		if looksLikeStandardEntry(f.Path) {
			hasStandardEntry = true
			entryLen = len(f.Content)
		}
	}
	if !hasStandardEntry {
		return true
	}
	if totalLen > 0 && entryLen < totalLen/10 {
		return true
	}
	return false
}

func looksLikeStandardEntry(path string) bool {
	switch {
	case hasSuffixAny(path, "index.js", "index.mjs", "index.cjs", "index.ts", "main.js"):
		return true
	default:
		return false
	}
}

func hasSuffixAny(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// candidateEntryPoints returns the entry-point paths tried for a package
// version: hints (the package.json-declared main/module/browser/exports
// paths for that version, most specific first) tried ahead of a fixed
// fallback list covering common bundler output conventions, for versions
// whose metadata didn't resolve a usable hint.
func candidateEntryPoints(pkgName string, hints []string) []string {
	base := baseName(pkgName)
	fallback := []string{
		"index.js",
		"dist/index.js",
		"dist/" + base + ".min.js",
		"dist/" + base + ".cjs.js",
		"dist/" + base + ".esm.js",
		"umd/" + base + ".min.js",
		"cjs/" + base + ".production.min.js",
		"cjs/" + base + ".development.js",
	}
	if len(hints) == 0 {
		return fallback
	}
	seen := make(map[string]bool, len(hints))
	out := make([]string, 0, len(hints)+len(fallback))
	for _, h := range hints {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	for _, f := range fallback {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func baseName(pkgName string) string {
	for i := len(pkgName) - 1; i >= 0; i-- {
		if pkgName[i] == '/' {
			return pkgName[i+1:]
		}
	}
	return pkgName
}

func basenamesOf(files []ExtractedFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = basenamePath(f.Path)
	}
	return names
}

func basenamesOfPaths(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = basenamePath(p)
	}
	return names
}

func basenamePath(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

// aggregateNormalizedHash combines each extracted file's normalized hash
// into one stable cache key for the package candidate as a whole.
func aggregateNormalizedHash(files []ExtractedFile) string {
	hashes := make([]string, len(files))
	for i, f := range files {
		hashes[i] = fingerprint.NormalizedHash(f.Content)
	}
	sort.Strings(hashes)
	combined := ""
	for _, h := range hashes {
		combined += h
	}
	return fingerprint.ContentHash(combined)
}

// Warnf writes a non-fatal diagnostic, following the warning-to-stderr
// convention used throughout the pre-bundling pipeline this package draws
// concurrency patterns from.
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
