package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nicobailon/homegrid/internal/content"
	"github.com/nicobailon/homegrid/internal/deps"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubContent struct {
	initial grid.InitialBatch
	rows    map[grid.DeferredRef]grid.RowDraft
}

func (s *stubContent) FetchInitialBatch(ctx context.Context) (grid.InitialBatch, error) {
	return s.initial, nil
}

func (s *stubContent) ResolveRef(ctx context.Context, ref grid.DeferredRef) (grid.RowDraft, error) {
	d, ok := s.rows[ref]
	if !ok {
		return grid.RowDraft{}, grid.ErrRefResolution
	}
	return d, nil
}

func row(title string, n int) grid.RowDraft {
	d := grid.RowDraft{Title: title}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s %d", title, i)
		d.Tiles = append(d.Tiles, grid.Tile{
			Title:     name,
			ImageURL:  "http://img/" + name,
			VideoURL:  "http://vid/" + name,
			ContentID: "id-" + name,
		})
	}
	return d
}

type stepClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*stepTimer
}

type stepTimer struct {
	at      time.Duration
	f       func()
	stopped bool
}

func (t *stepTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *stepClock) AfterFunc(d time.Duration, f func()) grid.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &stepTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*stepTimer
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && t.at <= c.now {
			due = append(due, t)
		} else if !t.stopped {
			kept = append(kept, t)
		}
	}
	c.timers = kept
	c.mu.Unlock()
	for _, t := range due {
		t.stopped = true
		t.f()
	}
}

type stubProber struct {
	bad map[string]bool
}

func (p stubProber) Probe(ctx context.Context, url string) error {
	if p.bad[url] {
		return errors.New("404")
	}
	return nil
}

func newTestModel(t *testing.T, content *stubContent) (model, *stepClock) {
	t.Helper()
	clock := &stepClock{}
	opts := grid.DefaultOptions()
	opts.PrefetchThresholdRows = 2
	opts.FetchBatchLimit = 2
	m := initialModel(Deps{Content: content, Options: opts, Clock: clock})
	t.Cleanup(m.shutdown)
	return m, clock
}

func loaded(t *testing.T, m model) model {
	t.Helper()
	msg := loadInitialCmd(m.ctx, m.pipeline)()
	next, _ := m.Update(msg)
	return next.(model)
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(model), cmd
}

func pressRune(m model, r rune) (model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(model), cmd
}

func twoRowContent() *stubContent {
	return &stubContent{
		initial: grid.InitialBatch{
			Rows: []grid.RowDraft{row("Featured", 4), row("Kids", 3)},
			Refs: []grid.DeferredRef{"ref-a", "ref-b", "ref-c"},
		},
		rows: map[grid.DeferredRef]grid.RowDraft{
			"ref-a": row("Trending", 2),
			"ref-b": row("Classics", 2),
			"ref-c": row("Docs", 2),
		},
	}
}

func TestInitialLoadFocusesFirstTile(t *testing.T) {
	m, _ := newTestModel(t, twoRowContent())
	assert.True(t, m.loading)

	m = loaded(t, m)
	assert.False(t, m.loading)
	require.Len(t, m.screen.grid.Rows, 2)
	assert.Equal(t, "Featured", m.screen.grid.Rows[0].Title)
	assert.True(t, m.screen.grid.Highlighted)
	assert.Equal(t, 0, m.screen.grid.FocusRow)
	assert.Equal(t, 0, m.screen.grid.FocusTile)
	assert.Equal(t, "Featured 0", m.screen.grid.Rows[0].Subtitle)
}

func TestKeysIgnoredWhileLoading(t *testing.T) {
	m, _ := newTestModel(t, twoRowContent())
	m, cmd := press(m, tea.KeyDown)
	assert.Nil(t, cmd)
	assert.Empty(t, m.screen.grid.Rows)
}

func TestArrowAndVimKeysMoveFocus(t *testing.T) {
	m, _ := newTestModel(t, twoRowContent())
	m = loaded(t, m)

	m, _ = press(m, tea.KeyRight)
	m, _ = pressRune(m, 'l')
	assert.Equal(t, 2, m.screen.grid.FocusTile)

	m, _ = pressRune(m, 'h')
	assert.Equal(t, 1, m.screen.grid.FocusTile)
	assert.Equal(t, "Featured 1", m.screen.grid.Rows[0].Subtitle)

	m, _ = pressRune(m, 'j')
	assert.Equal(t, 1, m.screen.grid.FocusRow)
	assert.Equal(t, 0, m.screen.grid.FocusTile)
	assert.Empty(t, m.screen.grid.Rows[0].Subtitle)
	assert.Equal(t, "Kids 0", m.screen.grid.Rows[1].Subtitle)

	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, 0, m.screen.grid.FocusRow)
	assert.Equal(t, 1, m.screen.grid.FocusTile)
}

func TestDownNearFrontierFetchesMoreRows(t *testing.T) {
	m, _ := newTestModel(t, twoRowContent())
	m = loaded(t, m)

	m, cmd := press(m, tea.KeyDown)
	require.NotNil(t, cmd)
	assert.True(t, m.fetching)
	assert.Equal(t, 1, m.screen.grid.FocusRow)

	// A second trigger while fetching does not start another fetch.
	_, again := press(m, tea.KeyDown)
	assert.Nil(t, again)

	next, _ := m.Update(prefetchCmd(m.ctx, m.ctrl)())
	m = next.(model)
	assert.False(t, m.fetching)
	require.Len(t, m.screen.grid.Rows, 4)
	assert.Equal(t, "Trending", m.screen.grid.Rows[2].Title)
	assert.Equal(t, "Classics", m.screen.grid.Rows[3].Title)
	assert.Equal(t, 1, m.ctrl.Pending())
}

func TestEndOfCatalogToast(t *testing.T) {
	content := &stubContent{initial: grid.InitialBatch{Rows: []grid.RowDraft{row("Only", 2)}}}
	m, _ := newTestModel(t, content)
	m = loaded(t, m)

	_, cmd := press(m, tea.KeyDown)
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, InfoMsg{Message: "End of catalog"}, msg)

	next, _ := m.Update(msg)
	m = next.(model)
	require.NotNil(t, m.toast)
	assert.Equal(t, toastInfo, m.toast.kind)
}

func TestEmptyCatalogWarns(t *testing.T) {
	m, _ := newTestModel(t, &stubContent{})
	next, cmd := m.Update(initialLoadedMsg{})
	m = next.(model)
	assert.False(t, m.loading)
	assert.Empty(t, m.screen.grid.Rows)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "No rows yet")
}

// collect runs cmd and flattens any batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func TestDeferredOnlyCatalogPromptsToLoad(t *testing.T) {
	src := &stubContent{
		initial: grid.InitialBatch{Refs: []grid.DeferredRef{"ref-a"}},
		rows:    map[grid.DeferredRef]grid.RowDraft{"ref-a": row("Trending", 2)},
	}
	m, _ := newTestModel(t, src)
	next, cmd := m.Update(loadInitialCmd(m.ctx, m.pipeline)())
	m = next.(model)
	assert.Empty(t, m.screen.grid.Rows)
	assert.Equal(t, 1, m.ctrl.Pending())
	assert.Contains(t, collect(cmd), tea.Msg(InfoMsg{Message: "No rows yet, press ↓ to load more"}))

	m, cmd = press(m, tea.KeyDown)
	require.NotNil(t, cmd)
	next, _ = m.Update(prefetchCmd(m.ctx, m.ctrl)())
	m = next.(model)
	require.Len(t, m.screen.grid.Rows, 1)
	assert.Equal(t, "Trending", m.screen.grid.Rows[0].Title)
}

func TestErrorMsgDescribesFailures(t *testing.T) {
	tests := []struct {
		name string
		msg  ErrorMsg
		want string
	}{
		{
			name: "missing player",
			msg:  ErrorMsg{Err: deps.MissingDep{Dependency: deps.Dependency{Name: "mpv"}}, Op: "play"},
			want: "play: no video player found, install mpv via your package manager",
		},
		{
			name: "server error behind ref failure",
			msg:  ErrorMsg{Err: fmt.Errorf("%w: %w", grid.ErrRefResolution, &content.HTTPError{URL: "u", Status: 503}), Op: "fetch rows"},
			want: "fetch rows: content service unavailable (HTTP 503), try again later",
		},
		{
			name: "not found",
			msg:  ErrorMsg{Err: &content.HTTPError{URL: "u", Status: 404}},
			want: "catalog entry not found (HTTP 404)",
		},
		{
			name: "ref failure",
			msg:  ErrorMsg{Err: fmt.Errorf("ref-a: %w", grid.ErrRefResolution), Op: "fetch rows"},
			want: "fetch rows: some rows could not be loaded",
		},
		{
			name: "unavailable",
			msg:  ErrorMsg{Err: grid.ErrDataUnavailable},
			want: "content unavailable",
		},
		{
			name: "timeout",
			msg:  ErrorMsg{Err: fmt.Errorf("get home: %w", context.DeadlineExceeded)},
			want: "content service timed out",
		},
		{
			name: "other",
			msg:  ErrorMsg{Err: errors.New("boom"), Op: "play"},
			want: "play: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.Error())
		})
	}
}

func TestToastExpiresAfterDuration(t *testing.T) {
	now := time.Now()
	ts := newToast("Loaded 2 rows", toastSuccess, now)
	assert.False(t, ts.expired(now.Add(toastDuration-time.Millisecond)))
	assert.True(t, ts.expired(now.Add(toastDuration+time.Millisecond)))

	m, _ := newTestModel(t, twoRowContent())
	next, _ := m.Update(ErrorMsg{Err: grid.ErrDataUnavailable, Op: "load"})
	m = next.(model)
	require.NotNil(t, m.toast)
	assert.Equal(t, toastError, m.toast.kind)
	assert.Contains(t, m.View(), "load: content unavailable")
}

func TestPreviewShowsAfterDelayAndRecordsHistory(t *testing.T) {
	store, err := history.LoadFrom(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	clock := &stepClock{}
	m := initialModel(Deps{Content: twoRowContent(), Options: grid.DefaultOptions(), Clock: clock, History: store})
	t.Cleanup(m.shutdown)
	m = loaded(t, m)

	clock.Advance(2 * time.Second)
	assert.Nil(t, m.screen.preview)

	clock.Advance(time.Second)
	require.NotNil(t, m.screen.preview)
	assert.Equal(t, "Featured 0", m.screen.preview.Title)
	assert.Contains(t, m.View(), "Preview")

	recent := store.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "id-Featured 0", recent[0].ContentID)
	assert.Equal(t, "Featured", recent[0].RowTitle)

	m, _ = press(m, tea.KeyRight)
	assert.Nil(t, m.screen.preview)
}

func TestProbeFailureDropsTile(t *testing.T) {
	prober := stubProber{bad: map[string]bool{"http://img/Featured 0": true}}
	clock := &stepClock{}
	m := initialModel(Deps{Content: twoRowContent(), Options: grid.DefaultOptions(), Clock: clock, Prober: prober})
	t.Cleanup(m.shutdown)
	m = loaded(t, m)

	msg := probeRowCmd(m.ctx, prober, 0, m.ctrl.Rows()[0].Children)()
	assert.Equal(t, tileProbedMsg{rowPos: 0, failed: []int{0}}, msg)

	next, _ := m.Update(msg)
	m = next.(model)
	assert.True(t, m.screen.grid.Rows[0].Dropped[0])
	assert.Equal(t, 1, m.screen.grid.FocusTile)
	assert.Equal(t, []int{1, 2, 3}, m.screen.grid.Rows[0].Visible())

	m, _ = press(m, tea.KeyLeft)
	assert.Equal(t, 1, m.screen.grid.FocusTile)
}

type recordingCommander struct {
	started []string
}

func (c *recordingCommander) LookPath(name string) (string, error) {
	if name == "mpv" {
		return "/usr/bin/mpv", nil
	}
	return "", errors.New("not found")
}

func (c *recordingCommander) Start(name string, args ...string) error {
	c.started = append(c.started, name+" "+args[len(args)-1])
	return nil
}

func TestEnterPlaysFocusedTile(t *testing.T) {
	commander := &recordingCommander{}
	m := initialModel(Deps{Content: twoRowContent(), Options: grid.DefaultOptions(), Clock: &stepClock{}, Commander: commander, Player: "mpv"})
	t.Cleanup(m.shutdown)
	m = loaded(t, m)

	m, _ = press(m, tea.KeyRight)
	_, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, SuccessMsg{Message: "Playing Featured 1 in mpv"}, cmd())
	assert.Equal(t, []string{"mpv http://vid/Featured 1"}, commander.started)
}

func TestEnterWithoutVideoWarns(t *testing.T) {
	content := &stubContent{initial: grid.InitialBatch{Rows: []grid.RowDraft{{
		Title: "Extras",
		Tiles: []grid.Tile{{Title: "Trailer", ImageURL: "http://img/trailer"}},
	}}}}
	m := initialModel(Deps{Content: content, Options: grid.DefaultOptions(), Clock: &stepClock{}, Commander: &recordingCommander{}})
	t.Cleanup(m.shutdown)
	m = loaded(t, m)

	_, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, WarningMsg{Message: "No video for Trailer"}, cmd())
}

func TestProgramClockDeliversThroughUpdate(t *testing.T) {
	pc := &programClock{}
	got := make(chan tea.Msg, 1)
	pc.attach(func(msg tea.Msg) { got <- msg })

	fired := false
	pc.AfterFunc(time.Millisecond, func() { fired = true })

	var msg tea.Msg
	select {
	case msg = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never delivered")
	}
	assert.False(t, fired)

	m, _ := newTestModel(t, twoRowContent())
	m.Update(msg)
	assert.True(t, fired)
}

func TestQuitStopsProgram(t *testing.T) {
	m, _ := newTestModel(t, twoRowContent())
	m = loaded(t, m)
	_, cmd := pressRune(m, 'q')
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())
}

func TestViewRendersRowsAndStatus(t *testing.T) {
	m, _ := newTestModel(t, twoRowContent())
	m = loaded(t, m)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(model)

	out := m.View()
	assert.Contains(t, out, "Featured")
	assert.Contains(t, out, "Kids")
	assert.Contains(t, out, "2 rows")
	assert.Contains(t, out, "3 pending")
	assert.True(t, strings.Contains(out, "Featured 0"))
}
