// Package validate probes evidence URLs so that undated scraper results can
// still produce a dated recency verdict. Probing is strictly best-effort:
// failures leave evidence unchanged.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"claimcheck/internal/model"
)

// Prober performs bounded-concurrency HEAD requests over evidence URLs,
// honoring robots.txt and a per-host rate limit.
type Prober struct {
	httpClient *http.Client
	robots     *RobotsChecker
	workers    int
	limiters   map[string]*rate.Limiter
	mu         sync.Mutex
	perHost    rate.Limit
}

// NewProber creates a Prober from configuration
func NewProber(cfg model.ProbeConfig, userAgent string) *Prober {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 10
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Prober{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:   NewRobotsChecker(userAgent, timeout),
		workers:  workers,
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(rps),
	}
}

// Backfill probes evidence items that have a URL but no date, filling the
// date from the Last-Modified header when the origin provides one. Items
// are never removed or reordered.
func (p *Prober) Backfill(ctx context.Context, evidence []model.Evidence) []model.Evidence {
	if len(evidence) == 0 {
		return evidence
	}

	out := make([]model.Evidence, len(evidence))
	copy(out, evidence)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.workers)

	for i := range out {
		if out[i].URL == "" || out[i].Date != "" {
			continue
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if date, ok := p.probeDate(ctx, out[idx].URL); ok {
				out[idx].Date = date
			}
		}(i)
	}

	wg.Wait()
	return out
}

// probeDate HEADs a single URL and returns its Last-Modified date in
// ISO-8601, if any
func (p *Prober) probeDate(ctx context.Context, rawURL string) (string, bool) {
	if !p.robots.CanFetch(ctx, rawURL) {
		return "", false
	}

	if err := p.limiterFor(rawURL).Wait(ctx); err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", p.robots.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			fmt.Fprintf(os.Stderr, "Warning: evidence link dead: %s (%d)\n", rawURL, resp.StatusCode)
		}
		return "", false
	}

	lastModified := resp.Header.Get("Last-Modified")
	if lastModified == "" {
		return "", false
	}
	t, err := time.Parse(time.RFC1123, lastModified)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func (p *Prober) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		host = parsed.Host
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(p.perHost, 5)
		p.limiters[host] = limiter
	}
	return limiter
}
