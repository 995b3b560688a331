package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nicobailon/homegrid/internal/grid"
	"golang.org/x/time/rate"
)

// Prober checks that tile images are reachable so broken tiles can be
// dropped from their row.
type Prober struct {
	http    *http.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	results map[string]error
}

func NewProber(hc *http.Client, requestsPerSecond float64) *Prober {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 8
	}
	return &Prober{
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), max(1, int(requestsPerSecond))),
		results: make(map[string]error),
	}
}

// Probe issues a HEAD request for url. An empty url fails immediately.
// Successes and client errors are remembered per url; server errors and
// transport failures are retried on the next call.
func (p *Prober) Probe(ctx context.Context, url string) error {
	if url == "" {
		return grid.ErrTileAssetMissing
	}
	p.mu.Lock()
	res, seen := p.results[url]
	p.mu.Unlock()
	if seen {
		return res
	}

	err := p.head(ctx, url)
	if ctx.Err() != nil || !definite(err) {
		return err
	}
	p.mu.Lock()
	p.results[url] = err
	p.mu.Unlock()
	return err
}

func (p *Prober) head(ctx context.Context, url string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", grid.ErrTileAssetMissing, err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", grid.ErrTileAssetMissing, err)
	}
	resp.Body.Close()

	// Some CDNs refuse HEAD; that says nothing about the asset.
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %w", grid.ErrTileAssetMissing, &HTTPError{URL: url, Status: resp.StatusCode})
	}
	return nil
}

func definite(err error) bool {
	if err == nil {
		return true
	}
	var he *HTTPError
	if !errors.As(err, &he) {
		return false
	}
	switch he.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return he.Status >= 400 && he.Status < 500
}
