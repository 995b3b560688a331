// Package grid holds the lazy-paginated row grid: row identity, the
// deferred/ready pagination queues, two-axis focus navigation and the
// debounced preview slot.
package grid

import "fmt"

// RowID identifies a row for the lifetime of the process. IDs come from a
// monotonic counter and are never reused.
type RowID uint64

// DeferredRef is an opaque token for a row that has not been fetched yet.
type DeferredRef string

// Tile is a single focusable item in a row. Empty URLs mean the asset is
// missing.
type Tile struct {
	Title     string
	ImageURL  string
	VideoURL  string
	ContentID string
}

// RowDraft is a row as returned by the content service, before the store
// assigns it an identity.
type RowDraft struct {
	Title string
	Tiles []Tile
	Ref   DeferredRef
}

// Row is a titled, ordered collection of tiles. Only TileIndex changes after
// creation.
type Row struct {
	ID        RowID
	Title     string
	TileIndex int
	Children  []Tile
	Ref       DeferredRef
}

// Focused returns the tile at TileIndex.
func (r *Row) Focused() (Tile, bool) {
	if r == nil || r.TileIndex < 0 || r.TileIndex >= len(r.Children) {
		return Tile{}, false
	}
	return r.Children[r.TileIndex], true
}

// InitialBatch is the eagerly fetched part of the grid.
type InitialBatch struct {
	Rows []RowDraft
	Refs []DeferredRef
}

// Command is a directional navigation command, independent of input device.
type Command int

const (
	Left Command = iota
	Right
	Up
	Down
)

func (c Command) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand maps "left", "right", "up" and "down" to a Command.
func ParseCommand(s string) (Command, error) {
	switch s {
	case "left", "h":
		return Left, nil
	case "right", "l":
		return Right, nil
	case "up", "k":
		return Up, nil
	case "down", "j":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// DedupKey selects how resolved rows are recognized as duplicates.
type DedupKey string

const (
	DedupTitle DedupKey = "title"
	DedupRef   DedupKey = "ref"
	DedupBoth  DedupKey = "both"
)
