package grid

import (
	"log/slog"
	"sync"
	"time"
)

// PreviewSink is the part of the presenter the preview slot drives.
type PreviewSink interface {
	ShowPreview(tile Tile)
	RemovePreview()
}

type pendingPreview struct {
	tile      Tile
	timer     Timer
	cancelled bool
}

// PreviewScheduler holds at most one pending preview timer and at most one
// visible preview.
type PreviewScheduler struct {
	clock Clock
	sink  PreviewSink

	// OnActivate runs after a preview becomes visible.
	OnActivate func(Tile)

	mu      sync.Mutex
	pending *pendingPreview
	active  *Tile
}

func NewPreviewScheduler(clock Clock, sink PreviewSink) *PreviewScheduler {
	if clock == nil {
		clock = WallClock()
	}
	return &PreviewScheduler{clock: clock, sink: sink}
}

// Arm cancels any pending or visible preview and schedules tile to show
// after delay.
func (s *PreviewScheduler) Arm(tile Tile, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	if tile.VideoURL == "" {
		gridLog.Debug("preview_without_video", slog.String("title", tile.Title), slog.Any("err", ErrTileAssetMissing))
	}
	p := &pendingPreview{tile: tile}
	s.pending = p
	p.timer = s.clock.AfterFunc(delay, func() { s.fire(p) })
}

// Cancel stops the pending timer and removes the visible preview.
func (s *PreviewScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *PreviewScheduler) cancelLocked() {
	if s.pending != nil {
		s.pending.cancelled = true
		if s.pending.timer != nil {
			s.pending.timer.Stop()
		}
		s.pending = nil
	}
	if s.active != nil {
		s.active = nil
		s.sink.RemovePreview()
	}
}

func (s *PreviewScheduler) fire(p *pendingPreview) {
	s.mu.Lock()
	if p.cancelled {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	tile := p.tile
	s.active = &tile
	s.sink.ShowPreview(tile)
	hook := s.OnActivate
	s.mu.Unlock()

	if hook != nil {
		hook(tile)
	}
}

// Active returns the visible preview tile, if any.
func (s *PreviewScheduler) Active() (Tile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Tile{}, false
	}
	return *s.active, true
}

// Pending reports whether a preview is scheduled but not yet shown.
func (s *PreviewScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
