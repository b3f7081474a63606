package orchestrator

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"web2local/internal/cache"
	"web2local/internal/registry"
)

type fakeDoer struct {
	responses map[string]*http.Response
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.String()
	if resp, ok := f.responses[key]; ok {
		return resp, nil
	}
	return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func jsonResp(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func newTestOrchestrator(t *testing.T, doer *fakeDoer) *Orchestrator {
	t.Helper()
	store, err := cache.NewDiskStore(filepath.Join(t.TempDir(), "cache"), 64)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	o := New(registry.NewClient(doer), store, Options{})
	o.Now = func() int64 { return 1000 }
	return o
}

func TestResolveAll_ExactMatch(t *testing.T) {
	content := `export function leftPad(str, len, ch) { return str; }`
	metaDoc := `{"name":"left-pad","dist-tags":{"latest":"1.3.0"},"versions":{"1.3.0":{}},"time":{"1.3.0":"2020-01-01T00:00:00.000Z"}}`
	doer := &fakeDoer{responses: map[string]*http.Response{
		"GET https://registry.npmjs.org/left-pad":           jsonResp(200, metaDoc),
		"GET https://unpkg.com/left-pad@1.3.0/index.js":      jsonResp(200, content),
	}}
	o := newTestOrchestrator(t, doer)

	results := o.ResolveAll(context.Background(), []PackageCandidate{
		{Name: "left-pad", Files: []ExtractedFile{{Path: "index.js", Content: content}}},
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Found || results[0].Version != "1.3.0" {
		t.Fatalf("expected exact match at 1.3.0, got %+v", results[0])
	}
}

func TestResolveAll_NotFoundPackageCachedNegative(t *testing.T) {
	doer := &fakeDoer{responses: map[string]*http.Response{}}
	o := newTestOrchestrator(t, doer)

	results := o.ResolveAll(context.Background(), []PackageCandidate{
		{Name: "totally-nonexistent-pkg", Files: []ExtractedFile{{Path: "index.js", Content: "x"}}},
	})
	if results[0].Found {
		t.Fatalf("expected no match for nonexistent package, got %+v", results[0])
	}
	entry, ok := o.Cache.GetNpmPackageExistence("totally-nonexistent-pkg")
	if !ok || entry.Value != false {
		t.Fatalf("expected cached negative existence, got ok=%v value=%+v", ok, entry.Value)
	}
}

func TestResolveAll_CachedMatchShortCircuits(t *testing.T) {
	doer := &fakeDoer{responses: map[string]*http.Response{}}
	o := newTestOrchestrator(t, doer)

	content := "some content"
	cand := PackageCandidate{Name: "foo", Files: []ExtractedFile{{Path: "index.js", Content: content}}}
	hash := aggregateNormalizedHash(cand.Files)
	o.Cache.SetMatchResult("foo", hash, cache.MatchResult{Version: "2.0.0", Similarity: 1.0, Found: true}, 1)

	results := o.ResolveAll(context.Background(), []PackageCandidate{cand})
	if !results[0].Found || results[0].Version != "2.0.0" {
		t.Fatalf("expected cached match returned without registry calls, got %+v", results[0])
	}
}

func TestResolve_TagsRunWithIDAndFiresProgress(t *testing.T) {
	content := "some content"
	doer := &fakeDoer{responses: map[string]*http.Response{}}
	o := newTestOrchestrator(t, doer)
	cand := PackageCandidate{Name: "foo", Files: []ExtractedFile{{Path: "index.js", Content: content}}}
	hash := aggregateNormalizedHash(cand.Files)
	o.Cache.SetMatchResult("foo", hash, cache.MatchResult{Version: "2.0.0", Similarity: 1.0, Found: true}, 1)

	var events []Event
	var mu sync.Mutex
	run := o.Resolve(context.Background(), []PackageCandidate{cand}, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	if run.ID == "" {
		t.Fatalf("expected a generated run ID")
	}
	if len(run.Matches) != 1 || !run.Matches[0].Found {
		t.Fatalf("expected cached match surfaced, got %+v", run.Matches)
	}
	if len(events) != 1 || events[0].RunID != run.ID || events[0].Package != "foo" {
		t.Fatalf("expected one progress event tagged with the run ID, got %+v", events)
	}
}

func TestIsMultiFile_NoStandardEntry(t *testing.T) {
	cand := PackageCandidate{Files: []ExtractedFile{{Path: "weird-name.js", Content: "x"}}}
	if !isMultiFile(cand) {
		t.Fatal("expected package with no standard entry point to be judged multi-file")
	}
}

func TestIsMultiFile_StandardEntryDominant(t *testing.T) {
	cand := PackageCandidate{Files: []ExtractedFile{{Path: "index.js", Content: strings.Repeat("x", 1000)}}}
	if isMultiFile(cand) {
		t.Fatal("expected single dominant index.js to not be judged multi-file")
	}
}

func TestCandidateEntryPoints_IncludesFallbacks(t *testing.T) {
	eps := candidateEntryPoints("react-dom", nil)
	found := false
	for _, ep := range eps {
		if ep == "cjs/react-dom.production.min.js" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected production.min.js fallback present, got %v", eps)
	}
}

func TestCandidateEntryPoints_HintsTriedBeforeFallbacks(t *testing.T) {
	eps := candidateEntryPoints("react-dom", []string{"esm/react-dom.js"})
	if eps[0] != "esm/react-dom.js" {
		t.Fatalf("expected hint to be tried first, got %v", eps)
	}
}

func TestAggregateNormalizedHash_OrderIndependent(t *testing.T) {
	a := []ExtractedFile{{Content: "one"}, {Content: "two"}}
	b := []ExtractedFile{{Content: "two"}, {Content: "one"}}
	if aggregateNormalizedHash(a) != aggregateNormalizedHash(b) {
		t.Fatal("expected hash to be independent of file order")
	}
}
