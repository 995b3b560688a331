package content

import (
	"log/slog"
	"sort"

	"github.com/nicobailon/homegrid/internal/grid"
)

// Set types a sets/<refId>.json payload may carry, in lookup order.
var setTypes = []string{"CuratedSet", "TrendingSet", "PersonalizedCuratedSet"}

type homeResponse struct {
	Data struct {
		StandardCollection struct {
			Containers []container `json:"containers"`
		} `json:"StandardCollection"`
	} `json:"data"`
}

type setResponse struct {
	Data map[string]*set `json:"data"`
}

type container struct {
	Set *set `json:"set"`
}

type set struct {
	RefID string `json:"refId"`
	Items []item `json:"items"`
	Text  text   `json:"text"`
}

type text struct {
	Title struct {
		Full map[string]localized `json:"full"`
	} `json:"title"`
}

type localized struct {
	Default struct {
		Content string `json:"content"`
	} `json:"default"`
}

type imageRef struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

type item struct {
	ContentID string `json:"contentId"`
	Text      text   `json:"text"`
	Image     struct {
		Tile map[string]map[string]imageRef `json:"tile"`
	} `json:"image"`
	VideoArt []struct {
		MediaMetadata struct {
			URLs []struct {
				URL string `json:"url"`
			} `json:"urls"`
		} `json:"mediaMetadata"`
	} `json:"videoArt"`
}

// firstContent returns the first non-empty localized content, by key order.
func firstContent(m map[string]localized) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if c := m[k].Default.Content; c != "" {
			return c
		}
	}
	return ""
}

func (s *set) title() string {
	return s.Text.Title.Full["set"].Default.Content
}

func (it *item) imageURL(ratio string) string {
	images := it.Image.Tile[ratio]
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if u := images[k].Default.URL; u != "" {
			return u
		}
	}
	return ""
}

func (it *item) videoURL() string {
	if len(it.VideoArt) == 0 || len(it.VideoArt[0].MediaMetadata.URLs) == 0 {
		return ""
	}
	return it.VideoArt[0].MediaMetadata.URLs[0].URL
}

func (it *item) tile(ratio string) grid.Tile {
	t := grid.Tile{
		Title:     firstContent(it.Text.Title.Full),
		ImageURL:  it.imageURL(ratio),
		VideoURL:  it.videoURL(),
		ContentID: it.ContentID,
	}
	if t.ImageURL == "" {
		contentLog.Warn("image_missing", slog.String("title", t.Title), slog.String("ratio", ratio), slog.Any("err", grid.ErrTileAssetMissing))
	}
	if t.VideoURL == "" {
		contentLog.Debug("preview_video_missing", slog.String("title", t.Title), slog.Any("err", grid.ErrTileAssetMissing))
	}
	return t
}

func (s *set) draft(ratio string) grid.RowDraft {
	d := grid.RowDraft{Title: s.title(), Tiles: make([]grid.Tile, 0, len(s.Items))}
	for i := range s.Items {
		d.Tiles = append(d.Tiles, s.Items[i].tile(ratio))
	}
	return d
}
