package grid

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options tunes pagination, navigation and preview timing.
type Options struct {
	// PrefetchThresholdRows triggers a fetch when fewer rows than this remain
	// below the focused row.
	PrefetchThresholdRows int
	// FetchBatchLimit caps the refs resolved per trigger.
	FetchBatchLimit int
	PreviewDelay    time.Duration
	Dedup           DedupKey
	// ResolveConcurrency bounds in-flight ResolveRef calls within a batch.
	ResolveConcurrency int
}

func DefaultOptions() Options {
	return Options{
		PrefetchThresholdRows: 3,
		FetchBatchLimit:       2,
		PreviewDelay:          3 * time.Second,
		Dedup:                 DedupBoth,
		ResolveConcurrency:    4,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.PrefetchThresholdRows < 0 {
		o.PrefetchThresholdRows = d.PrefetchThresholdRows
	}
	if o.FetchBatchLimit <= 0 {
		o.FetchBatchLimit = d.FetchBatchLimit
	}
	if o.PreviewDelay < 0 {
		o.PreviewDelay = d.PreviewDelay
	}
	switch o.Dedup {
	case DedupTitle, DedupRef, DedupBoth:
	default:
		o.Dedup = d.Dedup
	}
	if o.ResolveConcurrency <= 0 {
		o.ResolveConcurrency = 1
	}
	return o
}

// Pipeline feeds rows into the store through two FIFO queues: deferred refs
// waiting to be resolved and row ids waiting to be rendered. The ready queue
// is the ordering authority for render order.
type Pipeline struct {
	store   *RowStore
	content ContentService
	opts    Options

	mu       sync.Mutex
	turn     *sync.Cond
	deferred []DeferredRef
	ready    []RowID

	// Batches commit in the order their refs were popped.
	nextTicket uint64
	committing uint64
}

func NewPipeline(store *RowStore, content ContentService, opts Options) *Pipeline {
	p := &Pipeline{store: store, content: content, opts: opts.normalized()}
	p.turn = sync.NewCond(&p.mu)
	return p
}

// LoadInitial fetches the initial batch and seeds the queues. A failed fetch
// degrades to an empty grid.
func (p *Pipeline) LoadInitial(ctx context.Context) {
	batch, err := p.content.FetchInitialBatch(ctx)
	if err != nil {
		gridLog.Error("initial_load_failed", slog.Any("err", err))
		return
	}
	if len(batch.Rows) == 0 && len(batch.Refs) == 0 {
		gridLog.Error("initial_load_empty", slog.Any("err", ErrDataUnavailable))
		return
	}
	p.SeedInitial(batch.Rows, batch.Refs)
}

// SeedInitial stores, marks rendered and queues the eager rows, then queues
// the deferred refs.
func (p *Pipeline) SeedInitial(drafts []RowDraft, refs []DeferredRef) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range drafts {
		p.commitLocked(d)
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		p.deferred = append(p.deferred, ref)
	}
	gridLog.Debug("seeded", slog.Int("ready", len(p.ready)), slog.Int("deferred", len(p.deferred)))
}

// commitLocked turns a draft into a rendered, queued row unless it is empty
// or a duplicate.
func (p *Pipeline) commitLocked(d RowDraft) bool {
	row, err := p.store.CreateRow(d)
	if err != nil {
		return false
	}
	if err := p.store.MarkRenderedUnique(row, p.opts.Dedup); err != nil {
		if errors.Is(err, ErrDuplicateRow) {
			gridLog.Warn("duplicate_row", slog.String("title", row.Title), slog.String("ref", string(row.Ref)), slog.Uint64("id", uint64(row.ID)))
		} else {
			gridLog.Error("mark_rendered_failed", slog.Any("err", err))
		}
		return false
	}
	p.ready = append(p.ready, row.ID)
	return true
}

// FetchMore pops up to limit refs and resolves them. Resolutions run
// concurrently, but rows are committed in pop order with the duplicate check
// and mark-rendered done as one step. Failed refs are logged and dropped.
// The returned count is the number of rows queued for render; the error is
// non-nil only when ctx ended.
func (p *Pipeline) FetchMore(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	p.mu.Lock()
	n := min(limit, len(p.deferred))
	batch := make([]DeferredRef, n)
	copy(batch, p.deferred[:n])
	p.deferred = p.deferred[n:]
	ticket := p.nextTicket
	p.nextTicket++
	p.mu.Unlock()

	drafts := make([]RowDraft, n)
	resolved := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.ResolveConcurrency)
	for i, ref := range batch {
		g.Go(func() error {
			d, err := p.content.ResolveRef(gctx, ref)
			if err != nil {
				gridLog.Warn("ref_resolution_failed", slog.String("ref", string(ref)), slog.Any("err", err))
				return nil
			}
			d.Ref = ref
			drafts[i] = d
			resolved[i] = true
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.committing != ticket {
		p.turn.Wait()
	}
	defer func() {
		p.committing++
		p.turn.Broadcast()
	}()

	if err := ctx.Err(); err != nil {
		gridLog.Warn("fetch_cancelled", slog.Int("dropped", n), slog.Any("err", err))
		return 0, err
	}

	queued := 0
	for i := range batch {
		if !resolved[i] {
			continue
		}
		if p.commitLocked(drafts[i]) {
			queued++
		}
	}
	gridLog.Debug("fetched", slog.Int("refs", n), slog.Int("queued", queued), slog.Int("pending", len(p.deferred)))
	return queued, nil
}

// DrainReady pops every ready row in FIFO order.
func (p *Pipeline) DrainReady() []*Row {
	p.mu.Lock()
	ids := p.ready
	p.ready = nil
	p.mu.Unlock()

	rows := make([]*Row, 0, len(ids))
	for _, id := range ids {
		if row, ok := p.store.Get(id); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// Pending is the number of deferred refs not yet popped.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.deferred)
}

// Store exposes the backing row store.
func (p *Pipeline) Store() *RowStore { return p.store }

// Options returns the normalized options.
func (p *Pipeline) Options() Options { return p.opts }
