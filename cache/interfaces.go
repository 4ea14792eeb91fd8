// Package cache provides the score cache: a map from video URL to the last
// computed score, persisted to a single JSON file and invalidated by age.
package cache

import (
	"errors"
	"time"
)

var (
	// ErrScoreOutOfRange is returned by Set for scores outside [MinScore, MaxScore]
	ErrScoreOutOfRange = errors.New("score out of range")
)

const (
	MinScore = 0.0
	MaxScore = 5.0
)

// Entry represents a cached score with the time it was computed
type Entry struct {
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"last_updated"`
}

// Reader defines the interface for reading cached scores
type Reader interface {
	// Get returns the score for url if present and not expired
	Get(url string) (float64, bool)

	// Lookup returns the whole entry for url if present and not expired
	Lookup(url string) (Entry, bool)
}

// Writer defines the interface for writing cached scores
type Writer interface {
	// Set stores score for url, stamped with the current time, and persists it
	Set(url string, score float64) (Entry, error)
}

// Cache is the main interface that combines both cache operations
type Cache interface {
	Reader
	Writer
}

// Listing is one row of Entries: a stored entry with its key and freshness
type Listing struct {
	URL     string
	Entry   Entry
	Expired bool
}
