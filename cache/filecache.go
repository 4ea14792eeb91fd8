package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FileCache implements the Cache interface on top of a single JSON file.
// The whole map lives in memory and is rewritten on every Set.
type FileCache struct {
	path       string
	expiration time.Duration
	now        func() time.Time
	logger     zerolog.Logger

	mu   sync.RWMutex
	data map[string]Entry
}

type Option func(*FileCache)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(fc *FileCache) { fc.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(fc *FileCache) { fc.logger = l }
}

// NewFileCache opens the cache stored at path, creating the file (and its
// directory) when missing. A corrupt file is treated as an empty cache.
func NewFileCache(path string, expiration time.Duration, opts ...Option) (*FileCache, error) {
	if path == "" {
		return nil, errors.New("cache path required")
	}
	fc := &FileCache{
		path:       path,
		expiration: expiration,
		now:        time.Now,
		logger:     zerolog.Nop(),
		data:       make(map[string]Entry),
	}
	for _, o := range opts {
		o(fc)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	if err := fc.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fc.logger.Warn().Err(err).Str("path", path).Msg("cache file unreadable, starting empty")
		}
		fc.data = make(map[string]Entry)
		if err := fc.save(); err != nil {
			return nil, err
		}
	}

	return fc, nil
}

func (fc *FileCache) load() error {
	b, err := os.ReadFile(fc.path)
	if err != nil {
		return err
	}
	data := make(map[string]Entry)
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	fc.data = data
	return nil
}

// save writes the full map to a temp file then renames it over the target.
// Callers must hold fc.mu.
func (fc *FileCache) save() error {
	b, err := json.MarshalIndent(fc.data, "", "    ")
	if err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.tmp.%s", fc.path, uuid.NewString())
	if err := os.WriteFile(tmpPath, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, fc.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (fc *FileCache) expired(e Entry) bool {
	return fc.now().Sub(e.LastUpdated) > fc.expiration
}

// Lookup implements Reader interface
func (fc *FileCache) Lookup(url string) (Entry, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	e, ok := fc.data[url]
	if !ok || fc.expired(e) {
		return Entry{}, false
	}
	return e, true
}

// Get implements Reader interface
func (fc *FileCache) Get(url string) (float64, bool) {
	e, ok := fc.Lookup(url)
	if !ok {
		return 0, false
	}
	return e.Score, true
}

// Set implements Writer interface
func (fc *FileCache) Set(url string, score float64) (Entry, error) {
	if score < MinScore || score > MaxScore {
		return Entry{}, fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}

	e := Entry{Score: score, LastUpdated: fc.now()}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.data[url] = e
	if err := fc.save(); err != nil {
		return Entry{}, fmt.Errorf("persist cache: %w", err)
	}
	return e, nil
}

// Entries returns every stored entry, expired ones included, sorted by URL
func (fc *FileCache) Entries() []Listing {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	out := make([]Listing, 0, len(fc.data))
	for url, e := range fc.data {
		out = append(out, Listing{URL: url, Entry: e, Expired: fc.expired(e)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func (fc *FileCache) Expiration() time.Duration {
	return fc.expiration
}

func (fc *FileCache) Path() string {
	return fc.path
}

var _ Cache = (*FileCache)(nil)
