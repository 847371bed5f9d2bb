package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"listacompras/domain"
	"listacompras/infrastructure/localstore"
	"listacompras/infrastructure/syncstore"
)

// CollectionService is the single entry point for reading and mutating the
// item collection. Every mutation is applied to the local store first,
// delivered synchronously to all registered observers, and only then pushed
// to the remote backend as a detached best-effort task. No error ever
// crosses this boundary for storage or sync failures; only input validation
// can reject a call.
type CollectionService struct {
	store   *localstore.Store
	backend *syncstore.Backend
	logger  *zap.Logger

	// mu serializes the read-modify-write cycle of mutations so two
	// handler goroutines cannot interleave on the collection document.
	mu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]func(items []domain.Item)
	nextSubID   int

	seed func() []domain.Item
}

// ItemPatch carries the partial fields of an update; nil fields are left
// untouched on the stored item.
type ItemPatch struct {
	Name     *string   `json:"nombre,omitempty" validate:"omitempty,min=1"`
	Places   *[]string `json:"lugares,omitempty"`
	Price    *float64  `json:"precio,omitempty" validate:"omitempty,gte=0"`
	Category *string   `json:"categoria,omitempty" validate:"omitempty,min=1"`
	Needed   *bool     `json:"falta,omitempty"`
}

// CollectionOption configures a CollectionService.
type CollectionOption func(*CollectionService)

// WithSeed overrides the bundled default catalogue used on first run.
func WithSeed(seed func() []domain.Item) CollectionOption {
	return func(s *CollectionService) { s.seed = seed }
}

// NewCollectionService creates the service. The observer registry is owned
// by the instance, not shared process-wide, so independent instances (and
// tests) cannot observe each other.
func NewCollectionService(store *localstore.Store, backend *syncstore.Backend, logger *zap.Logger, opts ...CollectionOption) *CollectionService {
	s := &CollectionService{
		store:       store,
		backend:     backend,
		logger:      logger,
		subscribers: make(map[int]func(items []domain.Item)),
		seed:        domain.DefaultCatalog,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetItems returns the current collection, preferring the remote snapshot:
// remote data is persisted locally and returned; otherwise the local store
// is read (seeding the bundled catalogue on a pristine device) and the
// result is pushed back to the remote side. Offline use is fully
// functional; the cascade never fails.
func (s *CollectionService) GetItems(ctx context.Context) []domain.Item {
	if remote, err := s.backend.Load(ctx); err == nil {
		s.mu.Lock()
		items := normalizePlaces(remote)
		s.store.Set(domain.StorageKeyItems, domain.CollectionDoc{Items: items})
		s.mu.Unlock()
		return domain.CloneItems(items)
	} else if err != syncstore.ErrNoData {
		s.logger.Warn("Remote load failed, using local store", zap.Error(err))
	}

	s.mu.Lock()
	items := s.loadLocal()
	s.mu.Unlock()

	s.pushRemote(items)
	return domain.CloneItems(items)
}

// AddItem validates the input, assigns a fresh unique id, appends the item
// and returns it. Observers see the new collection before the remote push
// starts.
func (s *CollectionService) AddItem(ctx context.Context, name string, places []string, price float64, category string, needed bool) (domain.Item, error) {
	item, err := domain.NewItem(name, places, price, category, needed)
	if err != nil {
		return domain.Item{}, err
	}

	s.mutate(func(items []domain.Item) ([]domain.Item, bool) {
		return append(items, item), true
	})
	return item, nil
}

// UpdateItem merges the patch over the item with the given id. An unknown
// id is a silent no-op: nothing is persisted and nobody is notified.
func (s *CollectionService) UpdateItem(ctx context.Context, id string, patch ItemPatch) {
	s.mutate(func(items []domain.Item) ([]domain.Item, bool) {
		idx := domain.FindItem(items, id)
		if idx < 0 {
			return items, false
		}
		items[idx] = applyPatch(items[idx], patch)
		return items, true
	})
}

// DeleteItem removes the item with the given id, if present.
func (s *CollectionService) DeleteItem(ctx context.Context, id string) {
	s.mutate(func(items []domain.Item) ([]domain.Item, bool) {
		idx := domain.FindItem(items, id)
		if idx < 0 {
			return items, false
		}
		return append(items[:idx], items[idx+1:]...), true
	})
}

// ToggleNeeded flips the falta flag of the item with the given id, if
// present.
func (s *CollectionService) ToggleNeeded(ctx context.Context, id string) {
	s.mutate(func(items []domain.Item) ([]domain.Item, bool) {
		idx := domain.FindItem(items, id)
		if idx < 0 {
			return items, false
		}
		items[idx].Needed = !items[idx].Needed
		return items, true
	})
}

// Subscribe registers cb for every collection change: local mutations fire
// it synchronously with the full updated collection, and the backend's own
// change feed forwards externally-originated updates. The returned
// unsubscribe tears down both registrations and is a no-op after the first
// call.
func (s *CollectionService) Subscribe(cb func(items []domain.Item)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = cb
	s.subMu.Unlock()

	stopRemote := s.backend.Subscribe(cb)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			stopRemote()
		})
	}
}

// mutate runs one read-modify-write cycle: load the local collection (with
// the usual seeding and migration rules, no remote reads), apply the
// change, persist, notify observers, then schedule the remote push.
func (s *CollectionService) mutate(apply func(items []domain.Item) ([]domain.Item, bool)) {
	s.mu.Lock()
	items := s.loadLocal()
	updated, changed := apply(items)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.store.Set(domain.StorageKeyItems, domain.CollectionDoc{Items: updated})
	s.mu.Unlock()

	s.notify(updated)
	s.pushRemote(updated)
}

// loadLocal reads the collection from the local store only. A pristine
// store is seeded with the bundled catalogue; legacy-shaped records are
// migrated, and the migrated form is persisted when it differs. Callers
// must hold mu.
func (s *CollectionService) loadLocal() []domain.Item {
	var raw domain.RawCollectionDoc
	s.store.Get(domain.StorageKeyItems, &raw)

	if len(raw.Items) == 0 {
		seeded := s.seed()
		s.store.Set(domain.StorageKeyItems, domain.CollectionDoc{Items: seeded})
		s.logger.Info("Seeded collection with default catalogue",
			zap.Int("items", len(seeded)),
		)
		return seeded
	}

	items, changed := domain.MigrateRecords(raw.Items)
	if changed {
		s.store.Set(domain.StorageKeyItems, domain.CollectionDoc{Items: items})
		s.logger.Info("Migrated collection to current schema",
			zap.Int("items", len(items)),
		)
	}
	return items
}

// notify delivers the full updated collection to every observer exactly
// once, synchronously. Each observer gets its own copy, a panicking
// observer cannot break the loop, and an observer unsubscribing itself
// mid-notification does not skip or repeat the others.
func (s *CollectionService) notify(items []domain.Item) {
	s.subMu.Lock()
	cbs := make([]func(items []domain.Item), 0, len(s.subscribers))
	for _, cb := range s.subscribers {
		cbs = append(cbs, cb)
	}
	s.subMu.Unlock()

	for _, cb := range cbs {
		s.invoke(cb, domain.CloneItems(items))
	}
}

func (s *CollectionService) invoke(cb func(items []domain.Item), items []domain.Item) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Observer callback panicked", zap.Any("panic", r))
		}
	}()
	cb(items)
}

// pushRemote schedules the best-effort remote push as a detached task. The
// caller has already seen its change applied and observers notified, so
// nothing here can affect them; panics are contained at the task boundary.
func (s *CollectionService) pushRemote(items []domain.Item) {
	snapshot := domain.CloneItems(items)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Remote push panicked", zap.Any("panic", r))
			}
		}()
		s.backend.Save(context.Background(), snapshot)
	}()
}

func applyPatch(item domain.Item, patch ItemPatch) domain.Item {
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Places != nil {
		item.Places = append([]string{}, (*patch.Places)...)
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Needed != nil {
		item.Needed = *patch.Needed
	}
	return item
}

func normalizePlaces(items []domain.Item) []domain.Item {
	for i := range items {
		if items[i].Places == nil {
			items[i].Places = []string{}
		}
	}
	return items
}
