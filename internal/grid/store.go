package grid

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nicobailon/homegrid/internal/logging"
)

var gridLog = logging.ForComponent(logging.CompGrid)

// RowStore owns rows and their identity. Render order records the rows that
// were committed for display, in commit order.
type RowStore struct {
	mu          sync.RWMutex
	nextID      RowID
	rows        map[RowID]*Row
	renderOrder []RowID
	rendered    map[RowID]struct{}
	titles      map[string]struct{}
	refs        map[DeferredRef]struct{}
}

func NewRowStore() *RowStore {
	return &RowStore{
		rows:     make(map[RowID]*Row),
		rendered: make(map[RowID]struct{}),
		titles:   make(map[string]struct{}),
		refs:     make(map[DeferredRef]struct{}),
	}
}

// CreateRow assigns the next id and stores the row. An empty draft still
// consumes an id but is discarded.
func (s *RowStore) CreateRow(d RowDraft) (*Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if len(d.Tiles) == 0 {
		gridLog.Warn("row_discarded", slog.String("title", d.Title), slog.String("ref", string(d.Ref)), slog.Any("err", ErrEmptyRow))
		return nil, fmt.Errorf("row %q: %w", d.Title, ErrEmptyRow)
	}
	children := make([]Tile, len(d.Tiles))
	copy(children, d.Tiles)
	row := &Row{ID: id, Title: d.Title, Children: children, Ref: d.Ref}
	s.rows[id] = row
	return row, nil
}

func (s *RowStore) Get(id RowID) (*Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	return row, ok
}

// IsTitleRendered reports whether a row with title was marked rendered.
// Stored but unrendered rows do not count.
func (s *RowStore) IsTitleRendered(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.titles[title]
	return ok
}

// IsRefRendered reports whether a row resolved from ref was marked rendered.
func (s *RowStore) IsRefRendered(ref DeferredRef) bool {
	if ref == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.refs[ref]
	return ok
}

// MarkRendered appends row to render order.
func (s *RowStore) MarkRendered(row *Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markLocked(row)
}

func (s *RowStore) markLocked(row *Row) error {
	if _, ok := s.rows[row.ID]; !ok {
		return fmt.Errorf("row %d not in store", row.ID)
	}
	if _, ok := s.rendered[row.ID]; ok {
		return fmt.Errorf("row %d %q: %w", row.ID, row.Title, ErrDuplicateRow)
	}
	s.rendered[row.ID] = struct{}{}
	s.renderOrder = append(s.renderOrder, row.ID)
	s.titles[row.Title] = struct{}{}
	if row.Ref != "" {
		s.refs[row.Ref] = struct{}{}
	}
	return nil
}

// MarkRenderedUnique checks the dedup key and marks the row rendered as one
// step, so two concurrent commits of the same title cannot both pass.
func (s *RowStore) MarkRenderedUnique(row *Row, key DedupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkTitle := key == DedupTitle || key == DedupBoth || key == ""
	checkRef := key == DedupRef || key == DedupBoth || key == ""
	if checkTitle {
		if _, ok := s.titles[row.Title]; ok {
			return fmt.Errorf("title %q: %w", row.Title, ErrDuplicateRow)
		}
	}
	if checkRef && row.Ref != "" {
		if _, ok := s.refs[row.Ref]; ok {
			return fmt.Errorf("ref %q: %w", row.Ref, ErrDuplicateRow)
		}
	}
	return s.markLocked(row)
}

// RenderOrder returns a copy of the render-order ids.
func (s *RowStore) RenderOrder() []RowID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RowID, len(s.renderOrder))
	copy(out, s.renderOrder)
	return out
}

// Len is the number of stored rows, rendered or not.
func (s *RowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
