package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/history"
	"github.com/nicobailon/homegrid/internal/logging"
	"github.com/nicobailon/homegrid/internal/shell"
	"github.com/nicobailon/homegrid/internal/tui/components"
	"github.com/nicobailon/homegrid/internal/tui/theme"
	"github.com/nicobailon/homegrid/internal/tui/views"
)

var uiLog = logging.ForComponent(logging.CompUI)

// AssetProber reports whether a tile image can be loaded.
type AssetProber interface {
	Probe(ctx context.Context, url string) error
}

type Deps struct {
	Content grid.ContentService
	Options grid.Options
	// Prober is optional; nil skips asset checks.
	Prober  AssetProber
	History *history.Store
	// Clock overrides the program clock, mainly for tests.
	Clock grid.Clock
	// Commander launches the external player; nil disables playback.
	Commander shell.Commander
	Player    string
}

type model struct {
	deps     Deps
	ctx      context.Context
	cancel   context.CancelFunc
	pipeline *grid.Pipeline
	ctrl     *grid.Controller
	screen   *screen
	clock    *programClock

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	loading  bool
	fetching bool
	width    int
	height   int
	toast    *toast
}

type App struct {
	deps Deps
}

func New(deps Deps) *App {
	return &App{deps: deps}
}

func (a *App) Run() error {
	m := initialModel(a.deps)
	defer m.shutdown()
	p := tea.NewProgram(m, tea.WithAltScreen())
	if m.clock != nil {
		m.clock.attach(p.Send)
	}
	_, err := p.Run()
	return err
}

func initialModel(deps Deps) model {
	ctx, cancel := context.WithCancel(context.Background())
	scr := newScreen()

	var clock grid.Clock = deps.Clock
	var pc *programClock
	if clock == nil {
		pc = &programClock{}
		clock = pc
	}

	store := grid.NewRowStore()
	pipeline := grid.NewPipeline(store, deps.Content, deps.Options)
	preview := grid.NewPreviewScheduler(clock, scr)
	ctrl := grid.NewController(pipeline, scr, preview)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	m := model{
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
		pipeline: pipeline,
		ctrl:     ctrl,
		screen:   scr,
		clock:    pc,
		keys:     defaultKeyMap(),
		help:     newHelp(),
		spinner:  s,
		loading:  true,
	}
	preview.OnActivate = m.recordView
	return m
}

func newHelp() help.Model {
	h := help.New()
	h.Styles.ShortKey = theme.KeyStyle
	h.Styles.FullKey = theme.KeyStyle
	h.Styles.ShortDesc = theme.DimStyle
	h.Styles.FullDesc = theme.DimStyle
	h.Styles.ShortSeparator = theme.SeparatorStyle
	h.Styles.FullSeparator = theme.SeparatorStyle
	return h
}

func (m model) shutdown() {
	m.cancel()
	m.ctrl.Preview().Cancel()
}

// recordView runs when a preview becomes visible.
func (m model) recordView(tile grid.Tile) {
	if m.deps.History == nil {
		return
	}
	rowTitle := ""
	if pos, _, ok := m.ctrl.Focus(); ok {
		rowTitle = m.ctrl.Rows()[pos].Title
	}
	m.deps.History.Add(tile.ContentID, tile.Title, rowTitle, tile.VideoURL)
	if err := m.deps.History.Save(); err != nil {
		uiLog.Warn("history_save_failed", slog.Any("err", err))
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadInitialCmd(m.ctx, m.pipeline))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case initialLoadedMsg:
		m.loading = false
		n := m.ctrl.Start()
		cmds := m.probeRows(0, n)
		switch {
		case n == 0 && m.ctrl.Pending() > 0:
			cmds = append(cmds, NewInfoCmd("No rows yet, press ↓ to load more"))
		case n == 0:
			cmds = append(cmds, NewWarningCmd("No rows available"))
		default:
			cmds = append(cmds, NewSuccessCmd(fmt.Sprintf("Loaded %d rows", n)))
		}
		return m, tea.Batch(cmds...)

	case rowsFetchedMsg:
		m.fetching = false
		before := m.ctrl.RowCount()
		n := m.ctrl.RenderQueued()
		cmds := m.probeRows(before, before+n)
		if msg.err != nil && m.ctx.Err() == nil {
			cmds = append(cmds, NewErrorCmd(msg.err, "fetch rows"))
		}
		uiLog.Debug("rows_fetched", slog.Int("resolved", msg.resolved), slog.Int("rendered", n), slog.Int("pending", m.ctrl.Pending()))
		return m, tea.Batch(cmds...)

	case tileProbedMsg:
		for _, idx := range msg.failed {
			m.ctrl.TileLoadFailed(msg.rowPos, idx)
		}
		return m, nil

	case previewFireMsg:
		msg.run()
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.fetching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SuccessMsg:
		return m.showToast(msg.Message, toastSuccess)
	case ErrorMsg:
		return m.showToast(msg.Error(), toastError)
	case WarningMsg:
		return m.showToast(msg.Message, toastWarning)
	case InfoMsg:
		return m.showToast(msg.Message, toastInfo)
	case toastExpiredMsg:
		if m.toast != nil && m.toast.expired(time.Now()) {
			m.toast = nil
		}
		return m, nil
	}
	return m, nil
}

func (m model) showToast(message string, kind toastKind) (tea.Model, tea.Cmd) {
	m.toast = newToast(message, kind, time.Now())
	return m, toastExpireCmd()
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.loading {
		return m, nil
	}

	var cmd grid.Command
	switch {
	case key.Matches(msg, m.keys.Left):
		cmd = grid.Left
	case key.Matches(msg, m.keys.Right):
		cmd = grid.Right
	case key.Matches(msg, m.keys.Up):
		cmd = grid.Up
	case key.Matches(msg, m.keys.Down):
		cmd = grid.Down
	case key.Matches(msg, m.keys.Play):
		return m, m.play()
	default:
		return m, nil
	}

	eff := m.ctrl.Handle(cmd)
	if eff.Prefetch && !m.fetching {
		m.fetching = true
		return m, tea.Batch(prefetchCmd(m.ctx, m.ctrl), m.spinner.Tick)
	}
	if cmd == grid.Down && !eff.Moved && !eff.Prefetch && !m.fetching && m.ctrl.Pending() == 0 && m.ctrl.RowCount() > 0 {
		return m, NewInfoCmd("End of catalog")
	}
	return m, nil
}

func (m model) play() tea.Cmd {
	tile, ok := m.ctrl.FocusedTile()
	if !ok || m.deps.Commander == nil {
		return nil
	}
	if tile.VideoURL == "" {
		return NewWarningCmd("No video for " + tile.Title)
	}
	return playCmd(m.deps.Commander, m.deps.Player, tile)
}

func (m model) probeRows(from, to int) []tea.Cmd {
	if m.deps.Prober == nil || from >= to {
		return nil
	}
	rows := m.ctrl.Rows()
	var cmds []tea.Cmd
	for pos := from; pos < to && pos < len(rows); pos++ {
		cmds = append(cmds, probeRowCmd(m.ctx, m.deps.Prober, pos, rows[pos].Children))
	}
	return cmds
}

func (m model) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	header := lipgloss.NewStyle().Padding(1, 2, 0, 2).Render(theme.Logo() + "  " + m.status())
	preview := m.previewView(width)
	footer := m.footerView()

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(footer) - 1
	if preview != "" {
		bodyHeight -= lipgloss.Height(preview)
	}
	if bodyHeight < views.RowLines {
		bodyHeight = views.RowLines
	}
	body := m.screen.grid.RenderView(width, bodyHeight)

	parts := []string{header, "", body}
	if preview != "" {
		parts = append(parts, preview)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) status() string {
	switch {
	case m.loading:
		return m.spinner.View() + theme.SubTextStyle.Render(" loading rows")
	case m.fetching:
		return m.spinner.View() + theme.SubTextStyle.Render(" fetching more rows")
	}
	text := fmt.Sprintf("%d rows", m.ctrl.RowCount())
	if p := m.ctrl.Pending(); p > 0 {
		text += fmt.Sprintf(" · %d pending", p)
	}
	return theme.DimStyle.Render(text)
}

func (m model) previewView(width int) string {
	ctx := components.PreviewContext{
		Active: m.screen.preview,
		Armed:  m.ctrl.Preview().Pending(),
		Width:  width,
	}
	if tile, ok := m.ctrl.FocusedTile(); ok {
		ctx.Focused = &tile
	}
	if pos, _, ok := m.ctrl.Focus(); ok {
		ctx.RowTitle = m.ctrl.Rows()[pos].Title
	}
	return components.RenderPreview(ctx)
}

func (m model) footerView() string {
	line := lipgloss.NewStyle().Padding(0, 2).Render(m.help.View(m.keys))
	if m.toast != nil {
		line = lipgloss.NewStyle().Padding(0, 2).Render(m.toast.render(theme.Toasts())) + "\n" + line
	}
	return line
}
