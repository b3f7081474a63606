// Package cache implements the fingerprint cache (C5): a disk-backed store
// fronted by an in-process LRU, keyed by package name and package@version,
// that the registry fetcher, version planner, and orchestrator consult
// before doing network work.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry wraps any cached value with the time it was fetched, so callers can
// judge staleness without the cache itself imposing a TTL policy.
type Entry[T any] struct {
	Value     T     `json:"value"`
	FetchedAt int64 `json:"fetchedAt"`
}

// Metadata is the cached shape of a registry metadata fetch (C6).
type Metadata struct {
	Name          string            `json:"name"`
	Versions      []string          `json:"versions"`
	VersionTimes  map[string]int64  `json:"versionTimes"`
	DistTags      map[string]string `json:"distTags"`
}

// FileList is the cached published-file listing for a package version, used
// by the structural similarity fallback.
type FileList struct {
	Files []string `json:"files"`
}

// Fingerprint mirrors the per-file content-identity signals cached for a
// package version's resolved entry point.
type Fingerprint struct {
	ContentHash    string `json:"contentHash"`
	NormalizedHash string `json:"normalizedHash"`
	Signature      string `json:"signature"`
	Length         int    `json:"length"`
}

// MinifiedFingerprint mirrors the minification-robust feature sets cached
// for a package version.
type MinifiedFingerprint struct {
	StringLiterals []string `json:"stringLiterals"`
	CallPatterns   []string `json:"callPatterns"`
	NumericConsts  []string `json:"numericConsts"`
	Length         int      `json:"length"`
}

// MatchResult is the cached outcome of matching an extracted file's
// normalized hash against a package's published versions. Version is empty
// when no match was found; negative results are cached same as positive.
type MatchResult struct {
	Version    string  `json:"version"`
	Similarity float64 `json:"similarity"`
	Strategy   string  `json:"strategy"`
	Found      bool    `json:"found"`
}

// Store is the cache collaborator interface exposed to the core. The store
// owns serialization: callers never need their own locking around a Store.
type Store interface {
	GetMetadata(packageName string) (Entry[Metadata], bool)
	SetMetadata(packageName string, m Metadata, fetchedAt int64)

	GetNpmPackageExistence(packageName string) (Entry[bool], bool)
	SetNpmPackageExistence(packageName string, exists bool, fetchedAt int64)

	GetFingerprint(packageName, version string) (Entry[Fingerprint], bool)
	SetFingerprint(packageName, version string, fp Fingerprint, fetchedAt int64)

	GetMinifiedFingerprint(packageName, version string) (Entry[MinifiedFingerprint], bool)
	SetMinifiedFingerprint(packageName, version string, fp MinifiedFingerprint, fetchedAt int64)

	GetFileList(packageName, version string) (Entry[FileList], bool)
	SetFileList(packageName, version string, fl FileList, fetchedAt int64)

	GetMatchResult(packageName, extractedNormalizedHash string) (Entry[MatchResult], bool)
	SetMatchResult(packageName, extractedNormalizedHash string, m MatchResult, fetchedAt int64)
}

// diskStore persists every entry as one JSON file under baseDir, fronted by
// an in-process LRU keyed on the same cache key. Disk is the durable
// source of truth; the LRU only avoids repeated file reads within a run.
type diskStore struct {
	baseDir string
	mu      sync.Mutex
	memo    *lru.Cache[string, json.RawMessage]
}

// NewDiskStore creates a Store rooted at baseDir, creating it if needed.
func NewDiskStore(baseDir string, lruSize int) (Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", baseDir, err)
	}
	if lruSize <= 0 {
		lruSize = 1024
	}
	memo, err := lru.New[string, json.RawMessage](lruSize)
	if err != nil {
		return nil, fmt.Errorf("creating in-process cache: %w", err)
	}
	return &diskStore{baseDir: baseDir, memo: memo}, nil
}

func metadataKey(pkg string) string              { return "metadata/" + sanitizeKey(pkg) }
func existenceKey(pkg string) string              { return "existence/" + sanitizeKey(pkg) }
func fingerprintKey(pkg, version string) string   { return "fingerprint/" + sanitizeKey(pkg) + "/" + sanitizeKey(version) }
func minifiedKey(pkg, version string) string      { return "minified/" + sanitizeKey(pkg) + "/" + sanitizeKey(version) }
func fileListKey(pkg, version string) string      { return "filelist/" + sanitizeKey(pkg) + "/" + sanitizeKey(version) }
func matchResultKey(pkg, hash string) string      { return "match/" + sanitizeKey(pkg) + "/" + sanitizeKey(hash) }

// sanitizeKey replaces path separators in scoped package names (@scope/name)
// and other cache keys so they map to a single filesystem path segment.
func sanitizeKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '/', '\\', ':':
			out = append(out, '_')
		default:
			out = append(out, key[i])
		}
	}
	return string(out)
}

func (s *diskStore) path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func (s *diskStore) read(key string, out any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.memo.Get(key); ok {
		return json.Unmarshal(raw, out) == nil
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	s.memo.Add(key, json.RawMessage(data))
	return true
}

func (s *diskStore) write(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		return
	}
	s.memo.Add(key, json.RawMessage(data))
}

func (s *diskStore) GetMetadata(packageName string) (Entry[Metadata], bool) {
	var e Entry[Metadata]
	ok := s.read(metadataKey(packageName), &e)
	return e, ok
}

func (s *diskStore) SetMetadata(packageName string, m Metadata, fetchedAt int64) {
	s.write(metadataKey(packageName), Entry[Metadata]{Value: m, FetchedAt: fetchedAt})
}

func (s *diskStore) GetNpmPackageExistence(packageName string) (Entry[bool], bool) {
	var e Entry[bool]
	ok := s.read(existenceKey(packageName), &e)
	return e, ok
}

func (s *diskStore) SetNpmPackageExistence(packageName string, exists bool, fetchedAt int64) {
	s.write(existenceKey(packageName), Entry[bool]{Value: exists, FetchedAt: fetchedAt})
}

func (s *diskStore) GetFingerprint(packageName, version string) (Entry[Fingerprint], bool) {
	var e Entry[Fingerprint]
	ok := s.read(fingerprintKey(packageName, version), &e)
	return e, ok
}

func (s *diskStore) SetFingerprint(packageName, version string, fp Fingerprint, fetchedAt int64) {
	s.write(fingerprintKey(packageName, version), Entry[Fingerprint]{Value: fp, FetchedAt: fetchedAt})
}

func (s *diskStore) GetMinifiedFingerprint(packageName, version string) (Entry[MinifiedFingerprint], bool) {
	var e Entry[MinifiedFingerprint]
	ok := s.read(minifiedKey(packageName, version), &e)
	return e, ok
}

func (s *diskStore) SetMinifiedFingerprint(packageName, version string, fp MinifiedFingerprint, fetchedAt int64) {
	s.write(minifiedKey(packageName, version), Entry[MinifiedFingerprint]{Value: fp, FetchedAt: fetchedAt})
}

func (s *diskStore) GetFileList(packageName, version string) (Entry[FileList], bool) {
	var e Entry[FileList]
	ok := s.read(fileListKey(packageName, version), &e)
	return e, ok
}

func (s *diskStore) SetFileList(packageName, version string, fl FileList, fetchedAt int64) {
	s.write(fileListKey(packageName, version), Entry[FileList]{Value: fl, FetchedAt: fetchedAt})
}

func (s *diskStore) GetMatchResult(packageName, extractedNormalizedHash string) (Entry[MatchResult], bool) {
	var e Entry[MatchResult]
	ok := s.read(matchResultKey(packageName, extractedNormalizedHash), &e)
	return e, ok
}

func (s *diskStore) SetMatchResult(packageName, extractedNormalizedHash string, m MatchResult, fetchedAt int64) {
	s.write(matchResultKey(packageName, extractedNormalizedHash), Entry[MatchResult]{Value: m, FetchedAt: fetchedAt})
}
