package grid

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

func tiles(titles ...string) []Tile {
	out := make([]Tile, len(titles))
	for i, t := range titles {
		out[i] = Tile{Title: t, ImageURL: "img/" + t, VideoURL: "vid/" + t, ContentID: "c-" + t}
	}
	return out
}

func draft(title string, n int) RowDraft {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s-%d", title, i)
	}
	return RowDraft{Title: title, Tiles: tiles(names...)}
}

type fakeContent struct {
	mu       sync.Mutex
	initial  InitialBatch
	initErr  error
	rows     map[DeferredRef]RowDraft
	errs     map[DeferredRef]error
	waitFor  map[DeferredRef]chan struct{}
	doneCh   map[DeferredRef]chan struct{}
	resolved []DeferredRef
	calls    int
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		rows:    make(map[DeferredRef]RowDraft),
		errs:    make(map[DeferredRef]error),
		waitFor: make(map[DeferredRef]chan struct{}),
		doneCh:  make(map[DeferredRef]chan struct{}),
	}
}

func (f *fakeContent) FetchInitialBatch(ctx context.Context) (InitialBatch, error) {
	return f.initial, f.initErr
}

func (f *fakeContent) ResolveRef(ctx context.Context, ref DeferredRef) (RowDraft, error) {
	f.mu.Lock()
	f.calls++
	wait := f.waitFor[ref]
	done := f.doneCh[ref]
	f.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return RowDraft{}, ctx.Err()
		}
	}
	defer func() {
		f.mu.Lock()
		f.resolved = append(f.resolved, ref)
		f.mu.Unlock()
		if done != nil {
			close(done)
		}
	}()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[ref]; err != nil {
		return RowDraft{}, err
	}
	d, ok := f.rows[ref]
	if !ok {
		return RowDraft{}, fmt.Errorf("ref %s: %w", ref, ErrRefResolution)
	}
	return d, nil
}

// resolveAfter makes first wait until second has resolved.
func (f *fakeContent) resolveAfter(first, second DeferredRef) {
	ch := make(chan struct{})
	f.waitFor[first] = ch
	f.doneCh[second] = ch
}

type event struct {
	kind string
	a, b int
	text string
}

type fakePresenter struct {
	mu       sync.Mutex
	rows     []string
	events   []event
	preview  *Tile
	shown    []string
	removed  int
	subtitle map[int]string
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{subtitle: make(map[int]string)}
}

func (p *fakePresenter) record(e event) {
	p.events = append(p.events, e)
}

func (p *fakePresenter) AppendRow(row *Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append(p.rows, row.Title)
	p.record(event{kind: "append", text: row.Title})
}

func (p *fakePresenter) HighlightTile(rowPos, tileIndex int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(event{kind: "highlight", a: rowPos, b: tileIndex})
}

func (p *fakePresenter) ClearHighlight() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(event{kind: "clear"})
}

func (p *fakePresenter) ScrollRowIntoView(rowPos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(event{kind: "scroll", a: rowPos})
}

func (p *fakePresenter) ScrollToTop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(event{kind: "top"})
}

func (p *fakePresenter) SetRowSubtitle(rowPos int, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subtitle[rowPos] = text
	p.record(event{kind: "subtitle", a: rowPos, text: text})
}

func (p *fakePresenter) ShowPreview(tile Tile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preview = &tile
	p.shown = append(p.shown, tile.Title)
}

func (p *fakePresenter) RemovePreview() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preview = nil
	p.removed++
}

func (p *fakePresenter) RemoveTileOnLoadFailure(rowPos, tileIndex int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(event{kind: "drop", a: rowPos, b: tileIndex})
}

func (p *fakePresenter) lastHighlight() (int, int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].kind == "highlight" {
			return p.events[i].a, p.events[i].b, true
		}
	}
	return 0, 0, false
}

// manualClock fires callbacks only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type harness struct {
	content  *fakeContent
	view     *fakePresenter
	clock    *manualClock
	store    *RowStore
	pipeline *Pipeline
	ctrl     *Controller
}

func newHarness(opts Options) *harness {
	h := &harness{
		content: newFakeContent(),
		view:    newFakePresenter(),
		clock:   &manualClock{},
		store:   NewRowStore(),
	}
	h.pipeline = NewPipeline(h.store, h.content, opts)
	h.ctrl = NewController(h.pipeline, h.view, NewPreviewScheduler(h.clock, h.view))
	return h
}

func (h *harness) titles() []string {
	var out []string
	for _, r := range h.ctrl.Rows() {
		out = append(out, r.Title)
	}
	return out
}
