package main

import (
	"fmt"
	"io"
	"time"

	"github.com/nicobailon/homegrid/internal/grid"
)

// textPresenter prints presenter calls for nav --trace.
type textPresenter struct {
	w     io.Writer
	trace bool
}

func (p *textPresenter) printf(format string, args ...any) {
	if p.trace {
		fmt.Fprintf(p.w, "  "+format+"\n", args...)
	}
}

func (p *textPresenter) AppendRow(row *grid.Row) {
	p.printf("append row %d %q (%d tiles)", row.ID, row.Title, len(row.Children))
}

func (p *textPresenter) HighlightTile(rowPos, tileIndex int) {
	p.printf("highlight %d,%d", rowPos, tileIndex)
}

func (p *textPresenter) ClearHighlight() {}

func (p *textPresenter) ScrollRowIntoView(rowPos int) {
	p.printf("scroll to row %d", rowPos)
}

func (p *textPresenter) ScrollToTop() {
	p.printf("scroll to top")
}

func (p *textPresenter) SetRowSubtitle(rowPos int, text string) {
	if text != "" {
		p.printf("subtitle %d %q", rowPos, text)
	}
}

func (p *textPresenter) ShowPreview(tile grid.Tile) {
	p.printf("preview %q", tile.Title)
}

func (p *textPresenter) RemovePreview() {}

func (p *textPresenter) RemoveTileOnLoadFailure(rowPos, tileIndex int) {
	p.printf("drop tile %d,%d", rowPos, tileIndex)
}

// heldClock never fires. A headless replay has no dwell time, so previews
// stay armed.
type heldClock struct{}

type heldTimer struct{}

func (heldTimer) Stop() bool { return true }

func (heldClock) AfterFunc(time.Duration, func()) grid.Timer { return heldTimer{} }
