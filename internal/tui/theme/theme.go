package theme

import "github.com/charmbracelet/lipgloss"

var (
	BaseBg       = lipgloss.Color("#11111b")
	SurfaceBg    = lipgloss.Color("#313244")
	Accent       = lipgloss.Color("#cba6f7")
	Accent2      = lipgloss.Color("#89b4fa")
	Teal         = lipgloss.Color("#94e2d5")
	Peach        = lipgloss.Color("#fab387")
	SuccessColor = lipgloss.Color("#a6e3a1")
	WarnColor    = lipgloss.Color("#f9e2af")
	ErrorColor   = lipgloss.Color("#f38ba8")
	TextColor    = lipgloss.Color("#cdd6f4")
	SubTextColor = lipgloss.Color("#a6adc8")
	DimColor     = lipgloss.Color("#6c7086")
	OverlayColor = lipgloss.Color("#45475a")
	Flamingo     = lipgloss.Color("#f5c2e7")
)

const (
	IconPlay    = "▶"
	IconRow     = "▤"
	IconMissing = "⊘"
	IconLoading = "…"
	IconOK      = "✓"
	IconError   = "✗"
	IconWarn    = "!"
	IconInfo    = "·"
)

var (
	SectionStyle   lipgloss.Style
	TextStyle      lipgloss.Style
	SubTextStyle   lipgloss.Style
	DimStyle       lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	WarnStyle      lipgloss.Style
	KeyStyle       lipgloss.Style
	SeparatorStyle lipgloss.Style
	SubtitleStyle  lipgloss.Style
)

var PanelBorder = lipgloss.RoundedBorder()

var (
	TileNameStyle   lipgloss.Style
	TileNameFocused lipgloss.Style
	TileMetaStyle   lipgloss.Style
	TileVideoStyle  lipgloss.Style
)

func init() {
	build()
}

// build derives every style from the current palette.
func build() {
	SectionStyle = lipgloss.NewStyle().
		Foreground(Accent2).
		Bold(true)
	TextStyle = lipgloss.NewStyle().
		Foreground(TextColor)
	SubTextStyle = lipgloss.NewStyle().
		Foreground(SubTextColor)
	DimStyle = lipgloss.NewStyle().
		Foreground(DimColor)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
	SuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)
	WarnStyle = lipgloss.NewStyle().
		Foreground(WarnColor)
	KeyStyle = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)
	SeparatorStyle = lipgloss.NewStyle().
		Foreground(OverlayColor)
	SubtitleStyle = lipgloss.NewStyle().
		Foreground(Peach)

	TileNameStyle = lipgloss.NewStyle().Foreground(TextColor)
	TileNameFocused = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	TileMetaStyle = lipgloss.NewStyle().Foreground(DimColor)
	TileVideoStyle = lipgloss.NewStyle().Foreground(Teal)
}

// Apply switches to the named palette. Unknown names keep the current one.
func Apply(name string) bool {
	switch name {
	case "catppuccin-mocha":
		Accent = lipgloss.Color("#cba6f7")
		Accent2 = lipgloss.Color("#89b4fa")
		Teal = lipgloss.Color("#94e2d5")
		Peach = lipgloss.Color("#fab387")
		SuccessColor = lipgloss.Color("#a6e3a1")
		WarnColor = lipgloss.Color("#f9e2af")
		ErrorColor = lipgloss.Color("#f38ba8")
		Flamingo = lipgloss.Color("#f5c2e7")
	case "mono":
		Accent = lipgloss.Color("#d0d0d0")
		Accent2 = lipgloss.Color("#b0b0b0")
		Teal = lipgloss.Color("#e0e0e0")
		Peach = lipgloss.Color("#c0c0c0")
		SuccessColor = lipgloss.Color("#ffffff")
		WarnColor = lipgloss.Color("#e8e8e8")
		ErrorColor = lipgloss.Color("#f0f0f0")
		Flamingo = lipgloss.Color("#d8d8d8")
	default:
		return false
	}
	build()
	return true
}

// ToastStyles colours the status line above the help footer.
type ToastStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

func Toasts() ToastStyles {
	return ToastStyles{
		Success: SuccessStyle,
		Error:   ErrorStyle,
		Warning: WarnStyle,
		Info:    SubTextStyle,
	}
}

// Logo renders the application name.
func Logo() string {
	return lipgloss.NewStyle().Foreground(SuccessColor).Bold(true).Render("▲ ") +
		lipgloss.NewStyle().Foreground(Flamingo).Bold(true).Render("home") +
		lipgloss.NewStyle().Foreground(Accent).Bold(true).Render("grid")
}
