package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"listacompras/domain"
	"listacompras/infrastructure/localstore"
	"listacompras/infrastructure/syncstore"
)

func testSeed() []domain.Item {
	return []domain.Item{
		{ID: "seed-1", Name: "Leche", Places: []string{"d1"}, Price: 4500, Category: "lacteos", Needed: true},
		{ID: "seed-2", Name: "Pan", Places: []string{}, Price: 3000, Category: "panaderia", Needed: true},
	}
}

func newTestService(t *testing.T) (*CollectionService, *localstore.Store) {
	t.Helper()
	store := localstore.New(t.TempDir(), zap.NewNop())
	t.Cleanup(store.Close)
	backend := syncstore.New(nil, store, zap.NewNop())
	svc := NewCollectionService(store, backend, zap.NewNop(), WithSeed(testSeed))
	return svc, store
}

func rawDoc(t *testing.T, store *localstore.Store) []byte {
	t.Helper()
	var doc json.RawMessage
	require.True(t, store.Get(domain.StorageKeyItems, &doc))
	return doc
}

func TestGetItems_SeedsPristineStore(t *testing.T) {
	svc, store := newTestService(t)

	items := svc.GetItems(context.Background())

	assert.Equal(t, testSeed(), items)

	// Seeding must have been persisted, not just returned.
	var doc domain.CollectionDoc
	require.True(t, store.Get(domain.StorageKeyItems, &doc))
	assert.Equal(t, testSeed(), doc.Items)
}

func TestGetItems_DefaultCatalogueOnRealService(t *testing.T) {
	store := localstore.New(t.TempDir(), zap.NewNop())
	t.Cleanup(store.Close)
	backend := syncstore.New(nil, store, zap.NewNop())
	svc := NewCollectionService(store, backend, zap.NewNop())

	items := svc.GetItems(context.Background())
	assert.NotEmpty(t, items)
}

func TestGetItems_MigratesLegacyRecords(t *testing.T) {
	svc, store := newTestService(t)

	store.Set(domain.StorageKeyItems, map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": "1", "nombre": "Milk", "lugar": "d1", "precio": 100, "categoria": "lacteos", "falta": true},
		},
	})

	items := svc.GetItems(context.Background())

	require.Len(t, items, 1)
	assert.Equal(t, []string{"d1"}, items[0].Places)

	// The migrated shape must be written back: no singular lugar field left.
	assert.NotContains(t, string(rawDoc(t, store)), `"lugar"`)
	assert.Contains(t, string(rawDoc(t, store)), `"lugares"`)
}

func TestGetItems_ReturnsCopies(t *testing.T) {
	svc, _ := newTestService(t)

	first := svc.GetItems(context.Background())
	first[0].Name = "mutated"
	first[0].Places = append(first[0].Places, "extra")

	second := svc.GetItems(context.Background())
	assert.Equal(t, "Leche", second[0].Name)
	assert.Equal(t, []string{"d1"}, second[0].Places)
}

func TestAddItem_AppendsWithFreshID(t *testing.T) {
	svc, _ := newTestService(t)
	before := svc.GetItems(context.Background())

	added, err := svc.AddItem(context.Background(), "Arroz", []string{"exito"}, 2500, "cereales", true)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	after := svc.GetItems(context.Background())
	require.Len(t, after, len(before)+1)
	assert.Equal(t, added, after[len(after)-1])
	for _, existing := range before {
		assert.NotEqual(t, existing.ID, added.ID)
	}
}

func TestAddItem_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), "", nil, 100, "otros", true)
	assert.Error(t, err)

	_, err = svc.AddItem(context.Background(), "Pan", nil, -5, "panaderia", true)
	assert.Error(t, err)
}

func TestUpdateItem_MergesPatch(t *testing.T) {
	svc, _ := newTestService(t)
	svc.GetItems(context.Background())

	price := 9990.0
	needed := false
	svc.UpdateItem(context.Background(), "seed-1", ItemPatch{Price: &price, Needed: &needed})

	items := svc.GetItems(context.Background())
	idx := domain.FindItem(items, "seed-1")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, 9990.0, items[idx].Price)
	assert.False(t, items[idx].Needed)
	// Untouched fields survive.
	assert.Equal(t, "Leche", items[idx].Name)
	assert.Equal(t, []string{"d1"}, items[idx].Places)
}

func TestMutationsOnUnknownIDAreSilentNoOps(t *testing.T) {
	svc, store := newTestService(t)
	svc.GetItems(context.Background())
	before := rawDoc(t, store)

	var notified bool
	unsub := svc.Subscribe(func([]domain.Item) { notified = true })
	defer unsub()

	price := 1.0
	svc.UpdateItem(context.Background(), "ghost", ItemPatch{Price: &price})
	svc.DeleteItem(context.Background(), "ghost")
	svc.ToggleNeeded(context.Background(), "ghost")

	assert.Equal(t, string(before), string(rawDoc(t, store)))
	assert.False(t, notified)
}

func TestDeleteItem_RemovesOnlyTarget(t *testing.T) {
	svc, _ := newTestService(t)
	svc.GetItems(context.Background())

	svc.DeleteItem(context.Background(), "seed-1")

	items := svc.GetItems(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "seed-2", items[0].ID)
}

func TestToggleNeeded_TwiceRestoresOriginal(t *testing.T) {
	svc, _ := newTestService(t)
	original := svc.GetItems(context.Background())

	svc.ToggleNeeded(context.Background(), "seed-1")
	flipped := svc.GetItems(context.Background())
	assert.NotEqual(t, original[0].Needed, flipped[0].Needed)

	svc.ToggleNeeded(context.Background(), "seed-1")
	restored := svc.GetItems(context.Background())
	assert.Equal(t, original, restored)
}

func TestSubscribe_ObserversNotifiedOncePerMutationBeforeReturn(t *testing.T) {
	svc, _ := newTestService(t)
	svc.GetItems(context.Background())

	var calls int
	var lastSeen []domain.Item
	unsub := svc.Subscribe(func(items []domain.Item) {
		calls++
		lastSeen = items
	})
	defer unsub()

	added, err := svc.AddItem(context.Background(), "Cafe", nil, 12000, "bebidas", true)
	require.NoError(t, err)

	// Delivery is synchronous: by the time AddItem returned, the observer
	// has seen the updated collection exactly once.
	assert.Equal(t, 1, calls)
	require.NotNil(t, lastSeen)
	assert.GreaterOrEqual(t, domain.FindItem(lastSeen, added.ID), 0)
}

func TestSubscribe_ObserverGetsPrivateCopy(t *testing.T) {
	svc, _ := newTestService(t)
	svc.GetItems(context.Background())

	unsub := svc.Subscribe(func(items []domain.Item) {
		for i := range items {
			items[i].Name = "clobbered"
		}
	})
	defer unsub()

	svc.ToggleNeeded(context.Background(), "seed-1")

	items := svc.GetItems(context.Background())
	assert.Equal(t, "Leche", items[0].Name)
}

func TestSubscribe_SelfUnsubscribeMidNotification(t *testing.T) {
	svc, _ := newTestService(t)
	svc.GetItems(context.Background())

	var mu sync.Mutex
	calls := map[string]int{}
	record := func(name string) {
		mu.Lock()
		calls[name]++
		mu.Unlock()
	}

	u1 := svc.Subscribe(func([]domain.Item) { record("a") })
	defer u1()
	var u2 func()
	u2 = svc.Subscribe(func([]domain.Item) {
		record("b")
		u2()
	})
	u3 := svc.Subscribe(func([]domain.Item) { record("c") })
	defer u3()

	svc.ToggleNeeded(context.Background(), "seed-1")

	mu.Lock()
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, calls)
	mu.Unlock()

	// b unsubscribed itself; the next mutation reaches only a and c.
	svc.ToggleNeeded(context.Background(), "seed-1")
	mu.Lock()
	assert.Equal(t, map[string]int{"a": 2, "b": 1, "c": 2}, calls)
	mu.Unlock()
}

func TestSubscribe_PanickingObserverDoesNotBreakOthers(t *testing.T) {
	svc, _ := newTestService(t)
	svc.GetItems(context.Background())

	var calls int
	u1 := svc.Subscribe(func([]domain.Item) { panic("observer bug") })
	defer u1()
	u2 := svc.Subscribe(func([]domain.Item) { calls++ })
	defer u2()

	svc.ToggleNeeded(context.Background(), "seed-1")

	assert.Equal(t, 1, calls)
}

func TestGetItems_PrefersRemoteSnapshot(t *testing.T) {
	store := localstore.New(t.TempDir(), zap.NewNop())
	t.Cleanup(store.Close)

	remoteItems := []domain.Item{
		{ID: "r1", Name: "Queso", Places: []string{"jumbo"}, Price: 8000, Category: "lacteos", Needed: true},
	}
	remote := &staticRemote{snap: syncstore.Snapshot{Items: remoteItems, LastModified: 42}}
	backend := syncstore.New(remote, store, zap.NewNop())
	svc := NewCollectionService(store, backend, zap.NewNop(), WithSeed(testSeed))

	items := svc.GetItems(context.Background())
	assert.Equal(t, remoteItems, items)

	// The remote snapshot replaces the local collection document.
	var doc domain.CollectionDoc
	require.True(t, store.Get(domain.StorageKeyItems, &doc))
	assert.Equal(t, remoteItems, doc.Items)
}

func TestGetItems_MigratesLegacySyncSnapshot(t *testing.T) {
	store := localstore.New(t.TempDir(), zap.NewNop())
	t.Cleanup(store.Close)

	// A cache written by an older client still carries the singular lugar
	// field inside the shared sync snapshot.
	store.Set(syncstore.CacheKey, map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": "1", "nombre": "Milk", "lugar": "d1", "precio": 100, "categoria": "lacteos", "falta": true},
		},
		"lastModified": 50,
	})

	backend := syncstore.New(nil, store, zap.NewNop())
	svc := NewCollectionService(store, backend, zap.NewNop(), WithSeed(testSeed))

	items := svc.GetItems(context.Background())

	require.Len(t, items, 1)
	assert.Equal(t, []string{"d1"}, items[0].Places)

	assert.NotContains(t, string(rawDoc(t, store)), `"lugar"`)
	assert.Contains(t, string(rawDoc(t, store)), `"lugares"`)
}

func TestMutation_PushesToRemote(t *testing.T) {
	store := localstore.New(t.TempDir(), zap.NewNop())
	t.Cleanup(store.Close)

	remote := &staticRemote{snap: syncstore.Snapshot{Items: testSeed(), LastModified: 1}}
	backend := syncstore.New(remote, store, zap.NewNop())
	svc := NewCollectionService(store, backend, zap.NewNop(), WithSeed(testSeed))

	svc.GetItems(context.Background())
	svc.ToggleNeeded(context.Background(), "seed-1")

	require.Eventually(t, func() bool {
		snap, ok := remote.last()
		if !ok {
			return false
		}
		idx := domain.FindItem(snap.Items, "seed-1")
		return idx >= 0 && !snap.Items[idx].Needed
	}, 2*time.Second, 10*time.Millisecond)
}

// staticRemote serves a fixed snapshot and records writes.
type staticRemote struct {
	mu      sync.Mutex
	snap    syncstore.Snapshot
	written *syncstore.Snapshot
}

func (r *staticRemote) Get(ctx context.Context) (syncstore.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap, nil
}

func (r *staticRemote) Set(ctx context.Context, snap syncstore.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written = &snap
	return nil
}

func (r *staticRemote) Subscribe(cb func(syncstore.Snapshot)) (func(), error) {
	return func() {}, nil
}

func (r *staticRemote) last() (syncstore.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.written == nil {
		return syncstore.Snapshot{}, false
	}
	return *r.written, true
}
