// Package localstore is the device-local persistence layer: one JSON file
// per key under a data directory. Reads fall back to the caller's default
// on missing or malformed data and writes are best-effort; storage problems
// are logged and swallowed so they can never crash a caller.
package localstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "listacompras/pkg/errors"
)

const defaultPollInterval = time.Second

// Store is a JSON-file key/value store with change watchers.
type Store struct {
	dir          string
	logger       *zap.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	watchers map[string][]*watcher
	lastSeen map[string][]byte

	pollOnce sync.Once
	done     chan struct{}
}

type watcher struct {
	key string
	fn  func(raw []byte)
}

// Option configures a Store.
type Option func(*Store)

// WithPollInterval overrides how often watched keys are checked for
// external (other-process) changes.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.pollInterval = d }
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		dir:          dir,
		logger:       logger,
		pollInterval: defaultPollInterval,
		watchers:     make(map[string][]*watcher),
		lastSeen:     make(map[string][]byte),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create data directory",
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
	return s
}

// Get decodes the value stored under key into out. It returns false and
// leaves out untouched when the key is missing or holds malformed data, so
// whatever default the caller pre-filled stands.
func (s *Store) Get(key string, out interface{}) bool {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read key",
				zap.String("key", key),
				zap.Error(pkgerrors.NewStorageError("read", err)),
			)
		}
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("Malformed data under key, using default",
			zap.String("key", key),
			zap.Error(pkgerrors.NewStorageError("decode", err)),
		)
		return false
	}
	return true
}

// Set persists v under key, best-effort. Watchers of the key are notified
// with the new serialized value.
func (s *Store) Set(key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal value",
			zap.String("key", key),
			zap.Error(pkgerrors.NewStorageError("encode", err)),
		)
		return
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		s.logger.Error("Failed to write key",
			zap.String("key", key),
			zap.Error(pkgerrors.NewStorageError("write", err)),
		)
		return
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		s.logger.Error("Failed to replace key",
			zap.String("key", key),
			zap.Error(pkgerrors.NewStorageError("replace", err)),
		)
		return
	}

	s.notify(key, raw)
}

// Watch registers fn to run whenever the value under key changes, either
// through this store or externally by another process sharing the data
// directory. The returned unsubscribe is safe to call more than once.
func (s *Store) Watch(key string, fn func(raw []byte)) func() {
	w := &watcher{key: key, fn: fn}

	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], w)
	if _, ok := s.lastSeen[key]; !ok {
		if raw, err := os.ReadFile(s.path(key)); err == nil {
			s.lastSeen[key] = raw
		} else {
			s.lastSeen[key] = nil
		}
	}
	s.mu.Unlock()

	s.pollOnce.Do(func() { go s.pollLoop() })

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ws := s.watchers[key]
			for i, cand := range ws {
				if cand == w {
					s.watchers[key] = append(ws[:i:i], ws[i+1:]...)
					break
				}
			}
		})
	}
}

// Close stops the external-change poller.
func (s *Store) Close() {
	s.pollOnce.Do(func() {}) // poller may never have started
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// notify runs the key's watchers with the new raw value. Callback panics
// are contained per-watcher.
func (s *Store) notify(key string, raw []byte) {
	s.mu.Lock()
	s.lastSeen[key] = raw
	ws := append([]*watcher{}, s.watchers[key]...)
	s.mu.Unlock()

	for _, w := range ws {
		s.invoke(w, raw)
	}
}

func (s *Store) invoke(w *watcher, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Watcher panicked",
				zap.String("key", w.key),
				zap.Any("panic", r),
			)
		}
	}()
	w.fn(raw)
}

// pollLoop detects writes made by other processes to watched keys. This is
// what keeps two app instances on one device consistent when no remote
// backend is configured.
func (s *Store) pollLoop() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.pollOnceNow()
		}
	}
}

func (s *Store) pollOnceNow() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.watchers))
	for key, ws := range s.watchers {
		if len(ws) > 0 {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		raw, err := os.ReadFile(s.path(key))
		if err != nil {
			continue
		}
		s.mu.Lock()
		changed := !bytes.Equal(raw, s.lastSeen[key])
		s.mu.Unlock()
		if changed {
			s.notify(key, raw)
		}
	}
}
