package gather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"claimcheck/internal/model"
)

func testConfig(scraperURL, imageURL string) model.GatherConfig {
	return model.GatherConfig{
		ScraperURL:      scraperURL,
		ImageCheckerURL: imageURL,
		ScraperTimeout:  2 * time.Second,
		ImageTimeout:    2 * time.Second,
		MaxEvidence:     5,
		CacheTTL:        time.Minute,
		UserAgent:       "claimcheck-test",
	}
}

func TestGather_TextSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "flooding in Bandra" {
			t.Errorf("Expected query forwarded, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "claimcheck-test" {
			t.Errorf("Expected custom user agent, got %q", got)
		}
		_, _ = w.Write([]byte(`{"results": [
			{"url": "https://news.example.com/a", "snippet": "Flooding reported in Bandra.", "published_at": "2026-08-27"},
			{"url": "https://news.example.com/b", "title": "Rain update", "snippet": ""}
		]}`))
	}))
	defer server.Close()

	g := New(testConfig(server.URL, ""))

	got := g.Gather(context.Background(), "flooding in Bandra", nil)

	if len(got) != 2 {
		t.Fatalf("Expected 2 evidence items, got %d", len(got))
	}
	if got[0].Source != model.SourceOfficial {
		t.Errorf("Expected default source official, got %s", got[0].Source)
	}
	if got[0].Date != "2026-08-27" {
		t.Errorf("Expected published date carried over, got %q", got[0].Date)
	}
	if got[1].Snippet != "Rain update" {
		t.Errorf("Expected title used as snippet fallback, got %q", got[1].Snippet)
	}
}

func TestGather_CapsToMaxEvidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [
			{"url": "https://e.com/1", "snippet": "one"},
			{"url": "https://e.com/2", "snippet": "two"},
			{"url": "https://e.com/3", "snippet": "three"},
			{"url": "https://e.com/4", "snippet": "four"}
		]}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.MaxEvidence = 2
	g := New(cfg)

	got := g.Gather(context.Background(), "query", nil)
	if len(got) != 2 {
		t.Errorf("Expected evidence capped at 2, got %d", len(got))
	}
}

func TestGather_ImageMatchesPrepended(t *testing.T) {
	scraper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"url": "https://news.example.com/a", "snippet": "text evidence"}]}`))
	}))
	defer scraper.Close()

	imageChecker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"matches": [
			{"url": "https://archive.example.com/2019", "meta": {"desc": "2019 flood photo", "date": "2019-08-10"}},
			{"id": "seed-42", "meta": {}}
		]}`))
	}))
	defer imageChecker.Close()

	g := New(testConfig(scraper.URL, imageChecker.URL))

	got := g.Gather(context.Background(), "flooding", []string{"https://img.example.com/x.jpg"})

	if len(got) != 3 {
		t.Fatalf("Expected 3 evidence items, got %d", len(got))
	}
	if got[0].Source != model.SourceImageMatch || got[1].Source != model.SourceImageMatch {
		t.Error("Expected image matches prepended before text evidence")
	}
	if got[1].URL != "seed-42" {
		t.Errorf("Expected seed ID as URL fallback, got %q", got[1].URL)
	}
	if got[1].Snippet != "Matched seed image" {
		t.Errorf("Expected placeholder snippet, got %q", got[1].Snippet)
	}
	if got[2].Snippet != "text evidence" {
		t.Errorf("Expected text evidence last, got %q", got[2].Snippet)
	}
}

func TestGather_ImageCheckerSkippedWithoutMedia(t *testing.T) {
	imageChecker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Expected no image-checker call without media")
	}))
	defer imageChecker.Close()

	g := New(testConfig("", imageChecker.URL))

	if got := g.Gather(context.Background(), "text only claim", nil); got != nil {
		t.Errorf("Expected no evidence, got %v", got)
	}
}

func TestGather_FailuresAreBestEffort(t *testing.T) {
	scraper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer scraper.Close()

	imageChecker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer imageChecker.Close()

	g := New(testConfig(scraper.URL, imageChecker.URL))

	got := g.Gather(context.Background(), "flooding", []string{"https://img.example.com/x.jpg"})
	if len(got) != 0 {
		t.Errorf("Expected empty evidence on oracle failures, got %d items", len(got))
	}
}

func TestGather_ScraperResponseCached(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"results": [{"url": "https://e.com/1", "snippet": "cached"}]}`))
	}))
	defer server.Close()

	g := New(testConfig(server.URL, ""))

	for i := 0; i < 3; i++ {
		if got := g.Gather(context.Background(), "same query", nil); len(got) != 1 {
			t.Fatalf("Expected 1 evidence item, got %d", len(got))
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected a single upstream call for repeated queries, got %d", n)
	}

	_ = g.Gather(context.Background(), "different query", nil)
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("Expected cache miss for a different query, got %d calls", n)
	}
}

func TestGather_NoScraperConfigured(t *testing.T) {
	g := New(testConfig("", ""))

	if got := g.Gather(context.Background(), "anything", nil); got != nil {
		t.Errorf("Expected nil evidence without a scraper, got %v", got)
	}
}
