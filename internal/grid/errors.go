package grid

import "errors"

var (
	// ErrDataUnavailable means the content service returned nothing usable.
	ErrDataUnavailable = errors.New("content unavailable")
	// ErrRefResolution means a single deferred ref could not be resolved.
	ErrRefResolution = errors.New("ref resolution failed")
	// ErrDuplicateRow means the row was already rendered.
	ErrDuplicateRow = errors.New("duplicate row")
	// ErrTileAssetMissing means a tile has no image or preview video.
	ErrTileAssetMissing = errors.New("tile asset missing")
	// ErrEmptyRow means a row draft had no tiles.
	ErrEmptyRow = errors.New("row has no tiles")
)
