package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nicobailon/homegrid/internal/deps"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/shell"
)

type initialLoadedMsg struct{}

type rowsFetchedMsg struct {
	resolved int
	err      error
}

type tileProbedMsg struct {
	rowPos int
	failed []int
}

// previewFireMsg carries a clock callback onto the Update goroutine.
type previewFireMsg struct {
	run func()
}

func loadInitialCmd(ctx context.Context, p *grid.Pipeline) tea.Cmd {
	return func() tea.Msg {
		p.LoadInitial(ctx)
		return initialLoadedMsg{}
	}
}

func prefetchCmd(ctx context.Context, c *grid.Controller) tea.Cmd {
	return func() tea.Msg {
		n, err := c.Prefetch(ctx)
		return rowsFetchedMsg{resolved: n, err: err}
	}
}

func probeRowCmd(ctx context.Context, prober AssetProber, rowPos int, tiles []grid.Tile) tea.Cmd {
	return func() tea.Msg {
		var failed []int
		for i, t := range tiles {
			if err := prober.Probe(ctx, t.ImageURL); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				failed = append(failed, i)
			}
		}
		return tileProbedMsg{rowPos: rowPos, failed: failed}
	}
}

func playCmd(c shell.Commander, preferred string, tile grid.Tile) tea.Cmd {
	return func() tea.Msg {
		player, err := deps.Player(c, preferred)
		if err != nil {
			return ErrorMsg{Err: err, Op: "play"}
		}
		if err := deps.Play(c, player, tile.VideoURL); err != nil {
			return ErrorMsg{Err: err, Op: "play"}
		}
		return SuccessMsg{Message: "Playing " + tile.Title + " in " + player.Name}
	}
}

// programClock fires timers through the running program so callbacks never
// race the model.
type programClock struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (c *programClock) attach(send func(tea.Msg)) {
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()
}

func (c *programClock) AfterFunc(d time.Duration, f func()) grid.Timer {
	return time.AfterFunc(d, func() {
		c.mu.Lock()
		send := c.send
		c.mu.Unlock()
		if send != nil {
			send(previewFireMsg{run: f})
		}
	})
}
