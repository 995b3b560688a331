package grid

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Effect describes what a command did. A zero Effect is a navigation no-op.
type Effect struct {
	Moved bool
	// Prefetch asks the caller to run Prefetch and then RenderQueued.
	Prefetch bool
}

// Controller owns focus. It is the only writer of focus state and drives the
// presenter as a write-only sink.
type Controller struct {
	pipeline *Pipeline
	view     Presenter
	preview  *PreviewScheduler
	opts     Options

	mu      sync.Mutex
	rows    []*Row
	hidden  map[RowID]map[int]bool
	pos     int
	focused bool

	fetches singleflight.Group
}

func NewController(p *Pipeline, view Presenter, preview *PreviewScheduler) *Controller {
	return &Controller{
		pipeline: p,
		view:     view,
		preview:  preview,
		opts:     p.Options(),
		hidden:   make(map[RowID]map[int]bool),
	}
}

// Start renders the initial rows and focuses row 0, tile 0.
func (c *Controller) Start() int {
	n := c.RenderQueued()
	gridLog.Info("grid_started", slog.Int("rows", n), slog.Int("pending", c.pipeline.Pending()))
	return n
}

// RenderQueued hands every ready row to the presenter in queue order. The
// first rendered row receives initial focus.
func (c *Controller) RenderQueued() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.pipeline.DrainReady()
	for _, row := range rows {
		c.rows = append(c.rows, row)
		c.view.AppendRow(row)
	}
	if !c.focused && len(c.rows) > 0 {
		c.focused = true
		c.pos = 0
		c.focusLocked()
	}
	return len(rows)
}

// Handle applies cmd. It never blocks on the network.
func (c *Controller) Handle(cmd Command) Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.rows) == 0 {
		return Effect{Prefetch: cmd == Down && c.pipeline.Pending() > 0}
	}
	row := c.rows[c.pos]

	switch cmd {
	case Right, Left:
		dir := 1
		if cmd == Left {
			dir = -1
		}
		next, ok := c.stepLocked(row, dir)
		if !ok {
			return Effect{}
		}
		c.preview.Cancel()
		row.TileIndex = next
		c.focusLocked()
		return Effect{Moved: true}

	case Down:
		if c.pos >= len(c.rows)-1 {
			return Effect{Prefetch: c.pipeline.Pending() > 0}
		}
		c.preview.Cancel()
		c.view.SetRowSubtitle(c.pos, "")
		c.pos++
		c.focusLocked()
		remaining := len(c.rows) - 1 - c.pos
		return Effect{
			Moved:    true,
			Prefetch: remaining < c.opts.PrefetchThresholdRows && c.pipeline.Pending() > 0,
		}

	case Up:
		if c.pos == 0 {
			return Effect{}
		}
		c.preview.Cancel()
		c.view.SetRowSubtitle(c.pos, "")
		c.pos--
		c.focusLocked()
		return Effect{Moved: true}
	}
	return Effect{}
}

// Prefetch resolves the next batch of deferred refs. Overlapping calls share
// one fetch.
func (c *Controller) Prefetch(ctx context.Context) (int, error) {
	v, err, shared := c.fetches.Do("fetch", func() (any, error) {
		return c.pipeline.FetchMore(ctx, c.opts.FetchBatchLimit)
	})
	if shared {
		gridLog.Debug("prefetch_coalesced")
	}
	n, _ := v.(int)
	return n, err
}

// Dispatch runs Handle and, when asked for, a synchronous prefetch followed
// by RenderQueued.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) (Effect, error) {
	eff := c.Handle(cmd)
	if !eff.Prefetch {
		return eff, nil
	}
	if _, err := c.Prefetch(ctx); err != nil {
		return eff, err
	}
	c.RenderQueued()
	return eff, nil
}

// TileLoadFailed hides a tile whose asset could not be loaded. Sibling tiles
// keep their indexes. If the focused tile vanished, focus moves to the
// nearest visible neighbour.
func (c *Controller) TileLoadFailed(rowPos, tileIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rowPos < 0 || rowPos >= len(c.rows) {
		return
	}
	row := c.rows[rowPos]
	if tileIndex < 0 || tileIndex >= len(row.Children) || c.isHiddenLocked(row, tileIndex) {
		return
	}
	if c.hidden[row.ID] == nil {
		c.hidden[row.ID] = make(map[int]bool)
	}
	c.hidden[row.ID][tileIndex] = true
	c.view.RemoveTileOnLoadFailure(rowPos, tileIndex)
	gridLog.Warn("tile_asset_failed", slog.String("row", row.Title), slog.Int("tile", tileIndex), slog.String("title", row.Children[tileIndex].Title))

	if row.TileIndex != tileIndex {
		return
	}
	if next, ok := c.stepLocked(row, 1); ok {
		row.TileIndex = next
	} else if prev, ok := c.stepLocked(row, -1); ok {
		row.TileIndex = prev
	}
	if rowPos == c.pos {
		c.preview.Cancel()
		c.focusLocked()
	}
}

// stepLocked finds the next visible tile in direction dir.
func (c *Controller) stepLocked(row *Row, dir int) (int, bool) {
	for i := row.TileIndex + dir; i >= 0 && i < len(row.Children); i += dir {
		if !c.isHiddenLocked(row, i) {
			return i, true
		}
	}
	return 0, false
}

func (c *Controller) isHiddenLocked(row *Row, i int) bool {
	return c.hidden[row.ID][i]
}

// focusLocked pushes the current focus to the presenter and re-arms the
// preview. Callers cancel the preview before changing focus.
func (c *Controller) focusLocked() {
	row := c.rows[c.pos]
	c.view.ClearHighlight()
	c.view.ScrollRowIntoView(c.pos)
	if c.pos == 0 {
		c.view.ScrollToTop()
	}

	tile, ok := row.Focused()
	if !ok || c.isHiddenLocked(row, row.TileIndex) {
		c.view.SetRowSubtitle(c.pos, "")
		c.preview.Cancel()
		return
	}
	c.view.HighlightTile(c.pos, row.TileIndex)
	c.view.SetRowSubtitle(c.pos, tile.Title)
	c.preview.Arm(tile, c.opts.PreviewDelay)
}

// Focus returns the focused row position and tile index.
func (c *Controller) Focus() (rowPos, tileIndex int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rows) == 0 {
		return 0, 0, false
	}
	return c.pos, c.rows[c.pos].TileIndex, true
}

// FocusedTile returns the tile under focus.
func (c *Controller) FocusedTile() (Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rows) == 0 {
		return Tile{}, false
	}
	row := c.rows[c.pos]
	if c.isHiddenLocked(row, row.TileIndex) {
		return Tile{}, false
	}
	return row.Focused()
}

// Rows returns the presented rows in render order.
func (c *Controller) Rows() []*Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Row, len(c.rows))
	copy(out, c.rows)
	return out
}

func (c *Controller) RowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Hidden reports whether a tile was dropped after an asset failure.
func (c *Controller) Hidden(rowPos, tileIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rowPos < 0 || rowPos >= len(c.rows) {
		return false
	}
	return c.isHiddenLocked(c.rows[rowPos], tileIndex)
}

// Pending is the number of deferred refs still queued.
func (c *Controller) Pending() int { return c.pipeline.Pending() }

// Preview returns the scheduler owned by this controller.
func (c *Controller) Preview() *PreviewScheduler { return c.preview }
