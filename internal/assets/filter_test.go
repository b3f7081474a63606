package assets

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type stubDoer struct {
	responses []*http.Response
	calls     int
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	resp := s.responses[s.calls]
	if s.calls < len(s.responses)-1 {
		s.calls++
	}
	return resp, nil
}

func fakeResponse(body string, contentType string, contentLength int64) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: contentLength,
	}
}

func TestFilterConfig_AllowsURL_ExtensionAllowList(t *testing.T) {
	f := FilterConfig{AllowedExtensions: []string{".png", ".jpg"}}
	if !f.AllowsURL("https://example.com/img/logo.png") {
		t.Fatalf("expected .png to pass")
	}
	if f.AllowsURL("https://example.com/img/logo.svg") {
		t.Fatalf("expected .svg to be rejected")
	}
}

func TestFilterConfig_AllowsURL_IncludeAndExcludeGlobs(t *testing.T) {
	f := FilterConfig{IncludeGlobs: []string{"/static/*"}, ExcludeGlobs: []string{"/static/*.map"}}
	if !f.AllowsURL("https://example.com/static/app.js") {
		t.Fatalf("expected include-glob match to pass")
	}
	if f.AllowsURL("https://example.com/other/app.js") {
		t.Fatalf("expected non-matching include-glob to be rejected")
	}
	if f.AllowsURL("https://example.com/static/app.js.map") {
		t.Fatalf("expected exclude-glob match to be rejected even though include matched")
	}
}

func TestFilterConfig_AllowsMIME_PrefixMatch(t *testing.T) {
	f := FilterConfig{AllowedMIMEPrefixes: []string{"image/", "font/"}}
	if !f.AllowsMIME("image/png") {
		t.Fatalf("expected image/png to pass")
	}
	if !f.AllowsMIME("font/woff2; charset=binary") {
		t.Fatalf("expected font/woff2 with parameters to pass")
	}
	if f.AllowsMIME("text/html") {
		t.Fatalf("expected text/html to be rejected")
	}
}

func TestFilterConfig_AllowsMIME_EmptyRuleAllowsAll(t *testing.T) {
	f := FilterConfig{}
	if !f.AllowsMIME("anything/whatever") {
		t.Fatalf("expected no MIME restriction to allow everything")
	}
}

func TestFetch_RejectsDisallowedMIMEWithoutReadingBody(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{fakeResponse("<html></html>", "text/html", 13)}}
	f := FilterConfig{AllowedMIMEPrefixes: []string{"image/"}}
	_, err := Fetch(context.Background(), doer, f, "https://example.com/page.html")
	if err != ErrFilteredByMIME {
		t.Fatalf("expected ErrFilteredByMIME, got %v", err)
	}
}

func TestFetch_DetectsTruncatedResponseAndRetries(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{
		fakeResponse("short", "image/png", 100),
		fakeResponse("short", "image/png", 100),
	}}
	result, err := Fetch(context.Background(), doer, FilterConfig{}, "https://example.com/img.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Truncated {
		t.Fatalf("expected truncated result recorded")
	}
	if doer.calls != 1 {
		t.Fatalf("expected exactly one retry (2 total responses consumed), got calls index %d", doer.calls)
	}
	if string(result.Body) != "short" {
		t.Fatalf("expected partial body accepted, got %q", result.Body)
	}
}

func TestFetch_CompleteResponseIsNotRetried(t *testing.T) {
	doer := &stubDoer{responses: []*http.Response{
		fakeResponse("complete body", "image/png", 13),
	}}
	result, err := Fetch(context.Background(), doer, FilterConfig{}, "https://example.com/img.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Truncated {
		t.Fatalf("expected a complete response not to be marked truncated")
	}
	if doer.calls != 0 {
		t.Fatalf("expected no retry for a complete response, got calls index %d", doer.calls)
	}
}
