package tui

import (
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/tui/views"
)

// screen is the presenter the controller drives. It only records what to
// draw; View reads it back.
type screen struct {
	grid    views.GridState
	preview *grid.Tile
}

var _ grid.Presenter = (*screen)(nil)

func newScreen() *screen {
	return &screen{}
}

func (s *screen) AppendRow(row *grid.Row) {
	tiles := make([]grid.Tile, len(row.Children))
	copy(tiles, row.Children)
	s.grid.Rows = append(s.grid.Rows, views.RowView{Title: row.Title, Tiles: tiles})
}

func (s *screen) HighlightTile(rowPos, tileIndex int) {
	s.grid.Highlighted = true
	s.grid.FocusRow = rowPos
	s.grid.FocusTile = tileIndex
}

func (s *screen) ClearHighlight() {
	s.grid.Highlighted = false
}

func (s *screen) ScrollRowIntoView(rowPos int) {
	s.grid.ScrollRow = rowPos
}

func (s *screen) ScrollToTop() {
	s.grid.ScrollRow = 0
	s.grid.TopRow = 0
}

func (s *screen) SetRowSubtitle(rowPos int, text string) {
	if rowPos < 0 || rowPos >= len(s.grid.Rows) {
		return
	}
	s.grid.Rows[rowPos].Subtitle = text
}

func (s *screen) ShowPreview(tile grid.Tile) {
	s.preview = &tile
}

func (s *screen) RemovePreview() {
	s.preview = nil
}

func (s *screen) RemoveTileOnLoadFailure(rowPos, tileIndex int) {
	if rowPos < 0 || rowPos >= len(s.grid.Rows) {
		return
	}
	row := &s.grid.Rows[rowPos]
	if row.Dropped == nil {
		row.Dropped = make(map[int]bool)
	}
	row.Dropped[tileIndex] = true
}
