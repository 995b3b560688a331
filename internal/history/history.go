package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const maxEntries = 50

type Entry struct {
	ContentID string    `json:"content_id"`
	Title     string    `json:"title"`
	RowTitle  string    `json:"row_title"`
	VideoURL  string    `json:"video_url,omitempty"`
	Views     int       `json:"views"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store is the list of tiles whose preview played, most recent first.
type Store struct {
	Entries []Entry `json:"entries"`
	path    string
	now     func() time.Time
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "homegrid")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "homegrid")
}

func Load() (*Store, error) {
	return LoadFrom(filepath.Join(configDir(), "history.json"))
}

// LoadFrom reads path. A missing or corrupt file yields an empty store.
func LoadFrom(path string) (*Store, error) {
	s := &Store{path: path, Entries: []Entry{}, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		s.Entries = []Entry{}
		return s, nil
	}
	return s, nil
}

func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Add records a preview of contentID. Entries without a content id are keyed
// by title.
func (s *Store) Add(contentID, title, rowTitle, videoURL string) {
	now := s.now()
	for i, e := range s.Entries {
		if e.ContentID == contentID && (contentID != "" || e.Title == title) {
			s.Entries[i].Views++
			s.Entries[i].LastSeen = now
			s.Entries[i].RowTitle = rowTitle
			s.prune()
			return
		}
	}
	s.Entries = append(s.Entries, Entry{
		ContentID: contentID,
		Title:     title,
		RowTitle:  rowTitle,
		VideoURL:  videoURL,
		Views:     1,
		LastSeen:  now,
	})
	s.prune()
}

func (s *Store) prune() {
	sort.SliceStable(s.Entries, func(i, j int) bool {
		return s.Entries[i].LastSeen.After(s.Entries[j].LastSeen)
	})
	if len(s.Entries) > maxEntries {
		s.Entries = s.Entries[:maxEntries]
	}
}

// Recent returns up to limit entries, most recent first.
func (s *Store) Recent(limit int) []Entry {
	if limit <= 0 || limit > len(s.Entries) {
		limit = len(s.Entries)
	}
	out := make([]Entry, limit)
	copy(out, s.Entries[:limit])
	return out
}

func (s *Store) Path() string { return s.path }
