package views

import (
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/tui/theme"
)

const (
	TileWidth = 28
	// RowLines is the height of one rendered row: header, bordered card and
	// a spacer.
	RowLines = 7
)

type RowView struct {
	Title    string
	Subtitle string
	Tiles    []grid.Tile
	Dropped  map[int]bool
	// Offset is the first visible tile, counted among tiles not dropped.
	Offset int
}

// Visible returns the tile indexes that are still on screen.
func (r *RowView) Visible() []int {
	out := make([]int, 0, len(r.Tiles))
	for i := range r.Tiles {
		if !r.Dropped[i] {
			out = append(out, i)
		}
	}
	return out
}

type GridState struct {
	Rows        []RowView
	FocusRow    int
	FocusTile   int
	Highlighted bool
	ScrollRow   int
	TopRow      int
	Cols        int
}

func VisibleRows(height int) int {
	n := height / RowLines
	if n < 1 {
		n = 1
	}
	return n
}

// UpdateScroll keeps ScrollRow inside the vertical window and the focused
// tile inside its row's horizontal window.
func (g *GridState) UpdateScroll(width, height int) {
	g.Cols = (width - 4) / TileWidth
	if g.Cols < 1 {
		g.Cols = 1
	}

	visible := VisibleRows(height)
	if g.ScrollRow < g.TopRow {
		g.TopRow = g.ScrollRow
	} else if g.ScrollRow >= g.TopRow+visible {
		g.TopRow = g.ScrollRow - visible + 1
	}
	if limit := len(g.Rows) - visible; g.TopRow > limit {
		g.TopRow = limit
	}
	if g.TopRow < 0 {
		g.TopRow = 0
	}

	for i := range g.Rows {
		row := &g.Rows[i]
		vis := row.Visible()
		if g.Highlighted && i == g.FocusRow {
			p := indexOf(vis, g.FocusTile)
			if p >= 0 && p < row.Offset {
				row.Offset = p
			} else if p >= row.Offset+g.Cols {
				row.Offset = p - g.Cols + 1
			}
		}
		if limit := len(vis) - g.Cols; row.Offset > limit {
			row.Offset = limit
		}
		if row.Offset < 0 {
			row.Offset = 0
		}
	}
}

func (g *GridState) RenderView(width, height int) string {
	if len(g.Rows) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.DimStyle.Render("No rows yet"))
	}
	g.UpdateScroll(width, height)

	end := g.TopRow + VisibleRows(height)
	if end > len(g.Rows) {
		end = len(g.Rows)
	}
	var blocks []string
	for i := g.TopRow; i < end; i++ {
		blocks = append(blocks, g.renderRow(i, width))
	}
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Height(height).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

func (g *GridState) renderRow(i, width int) string {
	row := &g.Rows[i]
	vis := row.Visible()

	title := row.Title
	if title == "" {
		title = "Untitled"
	}
	header := theme.SectionStyle.Render(theme.IconRow + " " + Truncate(title, width/2))
	if row.Subtitle != "" {
		header += theme.SeparatorStyle.Render(" · ") + theme.SubtitleStyle.Render(Truncate(row.Subtitle, width/2-4))
	}

	end := row.Offset + g.Cols
	if end > len(vis) {
		end = len(vis)
	}
	more := ""
	if row.Offset > 0 {
		more += "‹"
	}
	if end < len(vis) {
		more += "›"
	}
	if more != "" {
		header += "  " + theme.DimStyle.Render(more)
	}

	if len(vis) == 0 {
		empty := theme.TileMetaStyle.Render(theme.IconMissing + " nothing to show")
		return header + "\n" + lipgloss.NewStyle().Height(RowLines-2).Render(empty) + "\n"
	}

	var cards []string
	for _, idx := range vis[row.Offset:end] {
		focused := g.Highlighted && i == g.FocusRow && idx == g.FocusTile
		cards = append(cards, RenderTile(row.Tiles[idx], focused, TileWidth))
	}
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n"
}

// RenderTile draws one bordered card.
func RenderTile(t grid.Tile, focused bool, width int) string {
	inner := width - 4
	nameStyle := theme.TileNameStyle
	border := theme.SurfaceBg
	if focused {
		nameStyle = theme.TileNameFocused
		border = theme.SuccessColor
	}

	name := nameStyle.Render(Truncate(t.Title, inner))
	if t.Title == "" {
		name = theme.TileMetaStyle.Render("untitled")
	}

	video := theme.TileMetaStyle.Render("no preview")
	if t.VideoURL != "" {
		video = theme.TileVideoStyle.Render(theme.IconPlay + " preview")
	}

	image := theme.TileMetaStyle.Render(theme.IconMissing + " no image")
	if t.ImageURL != "" {
		image = theme.TileMetaStyle.Render(Truncate(path.Base(t.ImageURL), inner))
	}

	return lipgloss.NewStyle().
		Width(width-2).
		Height(3).
		Padding(0, 1).
		Border(theme.PanelBorder).
		BorderForeground(border).
		Render(strings.Join([]string{name, video, image}, "\n"))
}

// Truncate shortens s to at most w terminal cells.
func Truncate(s string, w int) string {
	if w < 1 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}
