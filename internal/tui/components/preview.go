package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/tui/theme"
	"github.com/nicobailon/homegrid/internal/tui/views"
)

type PreviewContext struct {
	// Active is the visible preview, nil when none is shown.
	Active *grid.Tile
	// Focused is the tile under focus while its preview is still armed.
	Focused  *grid.Tile
	Armed    bool
	RowTitle string
	Width    int
}

// RenderPreview draws the preview slot below the grid.
func RenderPreview(ctx PreviewContext) string {
	switch {
	case ctx.Active != nil:
		return renderActive(*ctx.Active, ctx.RowTitle, ctx.Width)
	case ctx.Armed && ctx.Focused != nil:
		hint := theme.DimStyle.Render(theme.IconLoading + " preview of ") +
			theme.SubTextStyle.Render(views.Truncate(ctx.Focused.Title, ctx.Width-20))
		return lipgloss.NewStyle().Padding(0, 2).Render(hint)
	default:
		return ""
	}
}

func renderActive(t grid.Tile, rowTitle string, width int) string {
	maxW := width - 16
	video := theme.WarnStyle.Render(theme.IconMissing + " no video")
	if t.VideoURL != "" {
		video = theme.TileVideoStyle.Render(views.Truncate(t.VideoURL, maxW))
	}
	lines := []string{
		kvLine("Title", theme.TextStyle.Render(views.Truncate(t.Title, maxW))),
		kvLine("Row", theme.SubTextStyle.Render(views.Truncate(rowTitle, maxW))),
		kvLine("Video", video),
	}
	if t.ContentID != "" {
		lines = append(lines, kvLine("ID", theme.DimStyle.Render(t.ContentID)))
	}
	return renderCard(theme.IconPlay+" Preview", strings.Join(lines, "\n"), width)
}

func kvLine(key, value string) string {
	return theme.DimStyle.Render(fmt.Sprintf("%-8s", key)) + value
}

func renderCard(title, content string, width int) string {
	cardWidth := width - 4
	if cardWidth < 20 {
		cardWidth = 20
	}

	titleBar := lipgloss.NewStyle().
		Foreground(theme.BaseBg).
		Background(theme.Accent).
		Bold(true).
		Width(cardWidth).
		Padding(0, 1).
		Render(title)

	cardBody := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Accent).
		BorderTop(false).
		Padding(0, 1).
		Width(cardWidth).
		Render(content)

	return lipgloss.NewStyle().PaddingLeft(2).Render(titleBar + "\n" + cardBody)
}
