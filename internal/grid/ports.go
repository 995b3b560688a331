package grid

import (
	"context"
	"time"
)

// ContentService fetches rows. Errors are absorbed and logged by the
// pipeline; they never reach navigation.
type ContentService interface {
	FetchInitialBatch(ctx context.Context) (InitialBatch, error)
	ResolveRef(ctx context.Context, ref DeferredRef) (RowDraft, error)
}

// Presenter is a write-only sink driven by the controller. Positions are
// indexes into render order.
type Presenter interface {
	AppendRow(row *Row)
	HighlightTile(rowPos, tileIndex int)
	ClearHighlight()
	ScrollRowIntoView(rowPos int)
	ScrollToTop()
	SetRowSubtitle(rowPos int, text string)
	ShowPreview(tile Tile)
	RemovePreview()
	RemoveTileOnLoadFailure(rowPos, tileIndex int)
}

// Timer is a pending clock callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Production code uses the wall clock; tests
// drive a manual one.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock returns a Clock backed by time.AfterFunc.
func WallClock() Clock { return wallClock{} }
