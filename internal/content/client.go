// Package content talks to the home/sets JSON API and turns its payloads
// into grid row drafts.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nicobailon/homegrid/internal/cache"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/logging"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var contentLog = logging.ForComponent(logging.CompContent)

const (
	homePath = "/home.json"
	setsPath = "/sets/"

	maxBodyBytes = 16 << 20
)

type Options struct {
	BaseURL           string
	ImageRatio        string
	Timeout           time.Duration
	RequestsPerSecond float64
	// Cache is optional. Fresh entries skip the network; stale entries are
	// served when the network fails.
	Cache      *cache.Store
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client implements grid.ContentService over HTTP.
type Client struct {
	baseURL    string
	imageRatio string
	http       *http.Client
	limiter    *rate.Limiter
	cache      *cache.Store
	cacheTTL   time.Duration
	flight     singleflight.Group
	now        func() time.Time
}

var _ grid.ContentService = (*Client)(nil)

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 8
	}
	ratio := opts.ImageRatio
	if ratio == "" {
		ratio = "1.78"
	}
	return &Client{
		baseURL:    opts.BaseURL,
		imageRatio: ratio,
		http:       hc,
		limiter:    rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		now:        time.Now,
	}
}

// FetchInitialBatch loads home.json. Containers with items become rows;
// containers with only a refId become deferred refs.
func (c *Client) FetchInitialBatch(ctx context.Context) (grid.InitialBatch, error) {
	body, err := c.get(ctx, c.baseURL+homePath)
	if err != nil {
		return grid.InitialBatch{}, fmt.Errorf("home: %w: %w", grid.ErrDataUnavailable, err)
	}

	var resp homeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return grid.InitialBatch{}, fmt.Errorf("home: decode: %w: %w", grid.ErrDataUnavailable, err)
	}
	containers := resp.Data.StandardCollection.Containers
	if containers == nil {
		return grid.InitialBatch{}, fmt.Errorf("home: containers missing: %w", grid.ErrDataUnavailable)
	}

	var batch grid.InitialBatch
	for i, ct := range containers {
		switch {
		case ct.Set == nil:
			contentLog.Warn("container_without_set", slog.Int("index", i))
		case ct.Set.Items != nil:
			d := ct.Set.draft(c.imageRatio)
			if len(d.Tiles) == 0 {
				contentLog.Warn("container_missing_items", slog.Int("index", i), slog.String("title", d.Title))
				continue
			}
			batch.Rows = append(batch.Rows, d)
		case ct.Set.RefID != "":
			batch.Refs = append(batch.Refs, grid.DeferredRef(ct.Set.RefID))
		default:
			contentLog.Warn("container_missing_items_or_ref", slog.Int("index", i))
		}
	}
	contentLog.Info("home_loaded", slog.Int("rows", len(batch.Rows)), slog.Int("refs", len(batch.Refs)))
	return batch, nil
}

// ResolveRef loads sets/<ref>.json and builds a row from the first known set
// type in the payload.
func (c *Client) ResolveRef(ctx context.Context, ref grid.DeferredRef) (grid.RowDraft, error) {
	if ref == "" {
		return grid.RowDraft{}, fmt.Errorf("empty ref: %w", grid.ErrRefResolution)
	}
	body, err := c.get(ctx, c.baseURL+setsPath+url.PathEscape(string(ref))+".json")
	if err != nil {
		return grid.RowDraft{}, fmt.Errorf("ref %s: %w: %w", ref, grid.ErrRefResolution, err)
	}

	var resp setResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return grid.RowDraft{}, fmt.Errorf("ref %s: decode: %w: %w", ref, grid.ErrRefResolution, err)
	}
	for _, kind := range setTypes {
		if s := resp.Data[kind]; s != nil {
			d := s.draft(c.imageRatio)
			d.Ref = ref
			return d, nil
		}
	}
	return grid.RowDraft{}, fmt.Errorf("ref %s: no known set type: %w", ref, grid.ErrRefResolution)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	v, err, _ := c.flight.Do(u, func() (any, error) {
		return c.fetch(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	var stale []byte
	if c.cache != nil {
		e, ok, err := c.cache.Get(ctx, u)
		if err != nil {
			contentLog.Warn("cache_get_failed", slog.String("url", u), slog.Any("err", err))
		} else if ok {
			if e.Fresh(c.cacheTTL, c.now()) {
				contentLog.Debug("cache_hit", slog.String("url", u))
				return e.Body, nil
			}
			stale = e.Body
		}
	}

	body, err := c.download(ctx, u)
	if err != nil {
		if stale != nil && ctx.Err() == nil {
			contentLog.Warn("serving_stale_cache", slog.String("url", u), slog.Any("err", err))
			return stale, nil
		}
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, u, body); err != nil {
			contentLog.Warn("cache_put_failed", slog.String("url", u), slog.Any("err", err))
		}
	}
	return body, nil
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Status)
}

func (c *Client) download(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{URL: u, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	contentLog.Debug("fetched", slog.String("url", u), slog.Int("bytes", len(body)), slog.Duration("took", time.Since(start)))
	return body, nil
}

// IsHTTPStatus reports whether err carries an HTTP status code equal to code.
func IsHTTPStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == code
}
