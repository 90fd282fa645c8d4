package gather

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"claimcheck/internal/model"
)

const maxBodyBytes = 2_000_000

// Gatherer queries the scraper and image-matcher oracles and normalizes
// their results into a uniform evidence list. Every external call is
// independently best-effort: a failure degrades evidence quality but never
// aborts the pipeline.
type Gatherer struct {
	scraperURL      string
	imageCheckerURL string
	scraperClient   *http.Client
	imageClient     *http.Client
	userAgent       string
	maxEvidence     int
	cache           *gocache.Cache
	cacheTTL        time.Duration
}

// New creates a Gatherer from configuration
func New(cfg model.GatherConfig) *Gatherer {
	maxEvidence := cfg.MaxEvidence
	if maxEvidence <= 0 {
		maxEvidence = 5
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Gatherer{
		scraperURL:      cfg.ScraperURL,
		imageCheckerURL: cfg.ImageCheckerURL,
		scraperClient:   &http.Client{Timeout: cfg.ScraperTimeout},
		imageClient:     &http.Client{Timeout: cfg.ImageTimeout},
		userAgent:       cfg.UserAgent,
		maxEvidence:     maxEvidence,
		cache:           gocache.New(cacheTTL, 10*time.Minute),
		cacheTTL:        cacheTTL,
	}
}

// Gather collects evidence for a claim. Text search runs first; image
// matching runs only when media URLs are present, and its matches are
// prepended so downstream fusion treats them as the highest-weight signal.
func (g *Gatherer) Gather(ctx context.Context, text string, media []string) []model.Evidence {
	evidence := g.searchText(ctx, text)

	if len(media) > 0 {
		matches := g.matchImages(ctx, media)
		if len(matches) > 0 {
			evidence = append(matches, evidence...)
		}
	}

	return evidence
}

// scraperResponse is the scraper oracle wire format
type scraperResponse struct {
	Results []struct {
		Source      string `json:"source"`
		URL         string `json:"url"`
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		PublishedAt string `json:"published_at"`
	} `json:"results"`
}

// searchText queries the scraper oracle and keeps the top results
func (g *Gatherer) searchText(ctx context.Context, text string) []model.Evidence {
	if g.scraperURL == "" {
		return nil
	}

	body, err := g.cachedGet(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: scraper call failed: %v\n", err)
		return nil
	}

	var parsed scraperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: scraper returned malformed body: %v\n", err)
		return nil
	}

	var evidence []model.Evidence
	for _, r := range parsed.Results {
		if len(evidence) >= g.maxEvidence {
			break
		}
		source := r.Source
		if source == "" {
			source = model.SourceOfficial
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.Title
		}
		evidence = append(evidence, model.Evidence{
			Source:  source,
			URL:     r.URL,
			Snippet: CleanSnippet(snippet),
			Date:    r.PublishedAt,
		})
	}
	return evidence
}

// cachedGet performs the scraper GET, reusing responses for requeued jobs
// within the cache TTL
func (g *Gatherer) cachedGet(ctx context.Context, query string) ([]byte, error) {
	key := cacheKey(query)
	if cached, found := g.cache.Get(key); found {
		return cached.([]byte), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.scraperURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.scraperClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("scraper status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	g.cache.Set(key, body, g.cacheTTL)
	return body, nil
}

// imageMatchResponse is the image-matcher oracle wire format
type imageMatchResponse struct {
	Matches []struct {
		URL  string `json:"url"`
		ID   string `json:"id"`
		Meta struct {
			Desc string `json:"desc"`
			Date string `json:"date"`
		} `json:"meta"`
	} `json:"matches"`
}

// matchImages posts media URLs to the image matcher. A match against the
// known-stale-image index is the strongest single misinformation signal the
// pipeline has, so the caller prepends these.
func (g *Gatherer) matchImages(ctx context.Context, media []string) []model.Evidence {
	if g.imageCheckerURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string][]string{"urls": media})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.imageCheckerURL, bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: image-checker request: %v\n", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.imageClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: image-checker call failed: %v\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "Warning: image-checker status: %d\n", resp.StatusCode)
		return nil
	}

	var parsed imageMatchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&parsed); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: image-checker returned malformed body: %v\n", err)
		return nil
	}

	var evidence []model.Evidence
	for _, m := range parsed.Matches {
		matchURL := m.URL
		if matchURL == "" {
			matchURL = m.ID
		}
		snippet := CleanSnippet(m.Meta.Desc)
		if snippet == "" {
			snippet = "Matched seed image"
		}
		evidence = append(evidence, model.Evidence{
			Source:  model.SourceImageMatch,
			URL:     matchURL,
			Snippet: snippet,
			Date:    m.Meta.Date,
		})
	}
	return evidence
}

func cacheKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return "claimcheck:scrape:v1:" + hex.EncodeToString(hash[:])
}
