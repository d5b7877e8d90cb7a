package constants

import (
	"os"
	"path/filepath"
)

// GetOutDir is where exports, charts and the results database go.
func GetOutDir() string {
	path := os.Getenv("STYLE_RANK_OUT")
	if path != "" {
		return path
	}
	return "./out"
}

// GetMediaDir is an optional root that relative MIDI paths are resolved
// against. Empty means paths are used as given.
func GetMediaDir() string {
	return os.Getenv("MEDIA_PATH")
}

func GetDBPath() string {
	path := os.Getenv("STYLE_RANK_DB")
	if path != "" {
		return path
	}
	return filepath.Join(GetOutDir(), "style_rank.db")
}

const (
	DefaultUpperBound = 500
	// A piece must have more chords than this to be kept.
	DefaultMinChords = 10
	// 0 keeps the file's own ticks per quarter.
	DefaultResolution = 0
	DefaultTag        = "ORIGINAL"
	DefaultAddr       = ":8080"
)
