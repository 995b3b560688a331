package views

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/stretchr/testify/assert"
)

func rowView(title string, n int) RowView {
	r := RowView{Title: title}
	for i := 0; i < n; i++ {
		r.Tiles = append(r.Tiles, grid.Tile{Title: fmt.Sprintf("%s %d", title, i), VideoURL: "v"})
	}
	return r
}

func TestUpdateScrollFollowsFocusedRow(t *testing.T) {
	g := &GridState{}
	for i := 0; i < 10; i++ {
		g.Rows = append(g.Rows, rowView(fmt.Sprintf("Row %d", i), 3))
	}
	height := RowLines * 3

	g.ScrollRow = 5
	g.UpdateScroll(120, height)
	assert.Equal(t, 3, g.TopRow)

	g.ScrollRow = 1
	g.UpdateScroll(120, height)
	assert.Equal(t, 1, g.TopRow)

	g.ScrollRow = 9
	g.UpdateScroll(120, height)
	assert.Equal(t, 7, g.TopRow)
}

func TestUpdateScrollFollowsFocusedTile(t *testing.T) {
	g := &GridState{Rows: []RowView{rowView("Wide", 12)}, Highlighted: true}
	width := TileWidth*3 + 4

	g.FocusTile = 7
	g.UpdateScroll(width, RowLines)
	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 5, g.Rows[0].Offset)

	g.FocusTile = 2
	g.UpdateScroll(width, RowLines)
	assert.Equal(t, 2, g.Rows[0].Offset)
}

func TestDroppedTilesLeaveTheWindow(t *testing.T) {
	r := rowView("Mixed", 5)
	r.Dropped = map[int]bool{1: true, 3: true}
	assert.Equal(t, []int{0, 2, 4}, r.Visible())

	g := &GridState{Rows: []RowView{r}, Highlighted: true, FocusTile: 2}
	out := g.RenderView(200, RowLines)
	assert.Contains(t, out, "Mixed 2")
	assert.NotContains(t, out, "Mixed 1")
	assert.NotContains(t, out, "Mixed 3")
}

func TestRenderViewShowsSubtitle(t *testing.T) {
	r := rowView("Trending", 2)
	r.Subtitle = "Trending 1"
	g := &GridState{Rows: []RowView{r}}
	out := g.RenderView(120, RowLines*2)
	assert.Contains(t, out, "Trending · Trending 1")
}

func TestTruncateCountsCells(t *testing.T) {
	assert.Equal(t, "Loki", Truncate("Loki", 10))
	assert.Equal(t, "", Truncate("Loki", 0))

	wide := Truncate(strings.Repeat("漢", 10), 7)
	assert.LessOrEqual(t, runewidth.StringWidth(wide), 7)
	assert.True(t, strings.HasSuffix(wide, "…"))
}

func TestEmptyGridPlaceholder(t *testing.T) {
	g := &GridState{}
	assert.Contains(t, g.RenderView(80, 10), "No rows yet")
}
