package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestApplyRebuildsDerivedStyles(t *testing.T) {
	t.Cleanup(func() { Apply("catppuccin-mocha") })

	assert.True(t, Apply("mono"))
	assert.Equal(t, lipgloss.Color("#ffffff"), SuccessStyle.GetForeground())
	assert.Equal(t, ErrorColor, ErrorStyle.GetForeground())
	assert.Equal(t, WarnColor, WarnStyle.GetForeground())
	assert.Equal(t, Teal, KeyStyle.GetForeground())
	assert.Equal(t, SuccessColor, TileNameFocused.GetForeground())

	toasts := Toasts()
	assert.Equal(t, SuccessColor, toasts.Success.GetForeground())
	assert.Equal(t, ErrorColor, toasts.Error.GetForeground())

	assert.True(t, Apply("catppuccin-mocha"))
	assert.Equal(t, lipgloss.Color("#a6e3a1"), Toasts().Success.GetForeground())
}

func TestApplyUnknownKeepsPalette(t *testing.T) {
	before := Accent
	assert.False(t, Apply("solarized"))
	assert.Equal(t, before, Accent)
}
