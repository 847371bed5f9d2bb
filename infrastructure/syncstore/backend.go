// Package syncstore implements the remote sync backend: opportunistic
// cross-device synchronization of the full collection snapshot through an
// injected document-store client, degrading to a device-local sync cache
// whenever the remote side is unconfigured or failing.
package syncstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"listacompras/domain"
	"listacompras/infrastructure/localstore"
	pkgerrors "listacompras/pkg/errors"
)

// CacheKey is the local-store key of the sync cache. It is distinct from the
// primary collection key on purpose: the cache mirrors the remote document,
// not the local collection.
const CacheKey = "lista-compras-sync"

// ErrNoData signals that neither the remote document nor the local sync
// cache holds a snapshot yet. Distinct from a synced empty collection.
var ErrNoData = errors.New("syncstore: no snapshot available")

// Snapshot is the sync document: the whole collection plus its write time.
type Snapshot struct {
	Items        []domain.Item `json:"items"`
	LastModified int64         `json:"lastModified"`
}

// snapshotWire keeps the item records raw on decode, so legacy-shaped
// records written by earlier releases can still be recognized.
type snapshotWire struct {
	Items        []json.RawMessage `json:"items"`
	LastModified int64             `json:"lastModified"`
}

// UnmarshalJSON decodes a snapshot and upgrades its records to the current
// schema. Sync documents share the wire contract with the local store, so a
// remote peer or an old cache file can still hold single-lugar records;
// decoding is the one place every JSON ingress funnels through.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire snapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	items, _ := domain.MigrateRecords(wire.Items)
	s.Items = items
	s.LastModified = wire.LastModified
	return nil
}

// RemoteClient is the injected handle to the remote document store. Get
// returns ErrNoData when the document does not exist. Subscribe registers a
// push callback for document changes and returns an unsubscribe.
type RemoteClient interface {
	Get(ctx context.Context) (Snapshot, error)
	Set(ctx context.Context, snap Snapshot) error
	Subscribe(cb func(Snapshot)) (func(), error)
}

// Backend combines the remote client with the local sync cache. All
// operations succeed from the caller's point of view; remote failures are
// logged and absorbed by the local fallback.
type Backend struct {
	remote  RemoteClient // nil when running local-only
	store   *localstore.Store
	logger  *zap.Logger
	timeout time.Duration
	retries int

	// lastCacheWrite remembers the LastModified of this backend's own most
	// recent cache write, so the cache watcher can tell other instances'
	// writes apart from its own echo.
	writeMu        sync.Mutex
	lastCacheWrite int64
}

// Option configures a Backend.
type Option func(*Backend)

// WithTimeout bounds every individual remote call.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) { b.timeout = d }
}

// WithRetries sets how many times a failed remote call is retried.
// The default is zero: best-effort once.
func WithRetries(n int) Option {
	return func(b *Backend) { b.retries = n }
}

// New creates a backend. Pass a nil remote for permanent local-only mode;
// availability is decided once at startup and never re-evaluated.
func New(remote RemoteClient, store *localstore.Store, logger *zap.Logger, opts ...Option) *Backend {
	b := &Backend{
		remote:  remote,
		store:   store,
		logger:  logger,
		timeout: 10 * time.Second,
		retries: 0,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Available reports whether the remote path is configured for this process.
func (b *Backend) Available() bool {
	return b.remote != nil
}

// Save writes the snapshot to the remote document; on any failure it falls
// back to the local sync cache. Sync is fire-and-forget for callers, so
// there is nothing to return.
func (b *Backend) Save(ctx context.Context, items []domain.Item) {
	snap := Snapshot{
		Items:        items,
		LastModified: time.Now().UnixMilli(),
	}

	if b.remote != nil {
		err := b.withRetry(ctx, "save", func(callCtx context.Context) error {
			return b.remote.Set(callCtx, snap)
		})
		if err == nil {
			return
		}
		b.logger.Warn("Remote save failed, caching locally",
			zap.Int("items", len(items)),
			zap.Error(err),
		)
	}

	b.writeMu.Lock()
	b.lastCacheWrite = snap.LastModified
	b.writeMu.Unlock()
	b.store.Set(CacheKey, snap)
}

// Load reads the latest snapshot, remote first. Remote reads are mirrored
// into the local cache. When neither source has data it returns ErrNoData,
// never an empty list.
func (b *Backend) Load(ctx context.Context) ([]domain.Item, error) {
	if b.remote != nil {
		var snap Snapshot
		err := b.withRetry(ctx, "load", func(callCtx context.Context) error {
			var callErr error
			snap, callErr = b.remote.Get(callCtx)
			return callErr
		})
		switch {
		case err == nil:
			b.store.Set(CacheKey, snap)
			return normalize(snap.Items), nil
		case errors.Is(err, ErrNoData):
			// Remote reachable but empty; the cache may still have data.
		default:
			b.logger.Warn("Remote load failed, trying local cache", zap.Error(err))
		}
	}

	var snap Snapshot
	if b.store.Get(CacheKey, &snap) {
		return normalize(snap.Items), nil
	}
	return nil, ErrNoData
}

// Subscribe delivers every externally-originated snapshot change to cb.
// With a remote client it registers a live push subscription and mirrors
// every update into the local cache; otherwise it watches the cache key, so
// several app instances on one device still converge. The returned
// unsubscribe tears down whichever mechanism was registered and is safe to
// call repeatedly.
func (b *Backend) Subscribe(cb func(items []domain.Item)) func() {
	if b.remote != nil {
		stop, err := b.remote.Subscribe(func(snap Snapshot) {
			b.store.Set(CacheKey, snap)
			cb(normalize(snap.Items))
		})
		if err == nil {
			return idempotent(stop)
		}
		b.logger.Warn("Remote subscription failed, watching local cache", zap.Error(err))
	}

	stop := b.store.Watch(CacheKey, func(raw []byte) {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			b.logger.Warn("Malformed sync cache update", zap.Error(err))
			return
		}
		// Skip the echo of this instance's own Save; only changes made by
		// other instances sharing the data directory are external.
		b.writeMu.Lock()
		own := snap.LastModified != 0 && snap.LastModified == b.lastCacheWrite
		b.writeMu.Unlock()
		if own {
			return
		}
		cb(normalize(snap.Items))
	})
	return idempotent(stop)
}

// withRetry runs op up to 1+retries times, each attempt bounded by the
// configured timeout. ErrNoData is definitive and never retried.
func (b *Backend) withRetry(ctx context.Context, name string, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= b.retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		err = op(callCtx)
		cancel()
		if err == nil || errors.Is(err, ErrNoData) {
			return err
		}
		b.logger.Debug("Remote call failed",
			zap.String("op", name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError(name).WithCause(err)
	}
	return err
}

func idempotent(stop func()) func() {
	var once sync.Once
	return func() {
		once.Do(stop)
	}
}

// normalize keeps the "collection is always a list" invariant across
// snapshots that decoded with a nil items field.
func normalize(items []domain.Item) []domain.Item {
	if items == nil {
		return []domain.Item{}
	}
	return items
}
