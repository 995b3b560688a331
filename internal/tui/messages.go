package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nicobailon/homegrid/internal/content"
	"github.com/nicobailon/homegrid/internal/deps"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/tui/theme"
)

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
	toastWarning
	toastInfo
)

const toastDuration = 3 * time.Second

// toast is the one-line status shown above the help footer.
type toast struct {
	message   string
	kind      toastKind
	expiresAt time.Time
}

func newToast(message string, kind toastKind, now time.Time) *toast {
	return &toast{message: message, kind: kind, expiresAt: now.Add(toastDuration)}
}

func (t *toast) expired(now time.Time) bool {
	return now.After(t.expiresAt)
}

func (t *toast) render(styles theme.ToastStyles) string {
	switch t.kind {
	case toastSuccess:
		return styles.Success.Render(theme.IconOK + " " + t.message)
	case toastError:
		return styles.Error.Render(theme.IconError + " " + t.message)
	case toastWarning:
		return styles.Warning.Render(theme.IconWarn + " " + t.message)
	default:
		return styles.Info.Render(theme.IconInfo + " " + t.message)
	}
}

type SuccessMsg struct {
	Message string
}

// ErrorMsg reports a failed operation such as "fetch rows" or "play".
type ErrorMsg struct {
	Err error
	Op  string
}

func (e ErrorMsg) Error() string {
	text := describeError(e.Err)
	if e.Op == "" {
		return text
	}
	return e.Op + ": " + text
}

type WarningMsg struct {
	Message string
}

type InfoMsg struct {
	Message string
}

type toastExpiredMsg struct{}

// describeError turns content and playback failures into toast text.
func describeError(err error) string {
	var missing deps.MissingDep
	var he *content.HTTPError
	switch {
	case errors.As(err, &missing):
		return "no video player found, " + deps.InstallHint(missing)
	case errors.As(err, &he):
		switch {
		case he.Status == http.StatusNotFound:
			return "catalog entry not found (HTTP 404)"
		case he.Status == http.StatusTooManyRequests:
			return "rate limited by the content service, slow down"
		case he.Status >= 500:
			return fmt.Sprintf("content service unavailable (HTTP %d), try again later", he.Status)
		default:
			return fmt.Sprintf("content request rejected (HTTP %d)", he.Status)
		}
	case errors.Is(err, context.DeadlineExceeded):
		return "content service timed out"
	case errors.Is(err, grid.ErrDataUnavailable):
		return "content unavailable"
	case errors.Is(err, grid.ErrRefResolution):
		return "some rows could not be loaded"
	case err == nil:
		return "unknown error"
	}
	return err.Error()
}

func NewSuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return SuccessMsg{Message: message}
	}
}

func NewErrorCmd(err error, op string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err, Op: op}
	}
}

func NewWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return WarningMsg{Message: message}
	}
}

func NewInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return InfoMsg{Message: message}
	}
}

func toastExpireCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}
