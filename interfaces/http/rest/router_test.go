package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"listacompras/application/services"
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

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store := localstore.New(t.TempDir(), zap.NewNop())
	t.Cleanup(store.Close)
	backend := syncstore.New(nil, store, zap.NewNop())
	collection := services.NewCollectionService(store, backend, zap.NewNop(), services.WithSeed(testSeed))
	places := services.NewPlacesService(store, zap.NewNop())
	return NewRouter(collection, places, zap.NewNop(), false).Setup()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeItems(t *testing.T, rec *httptest.ResponseRecorder) []domain.Item {
	t.Helper()
	var doc domain.CollectionDoc
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return doc.Items
}

func TestHealthCheck(t *testing.T) {
	rec := doJSON(t, newTestHandler(t), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestListItems(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/items/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testSeed(), decodeItems(t, rec))
}

func TestListItems_PlaceFilter(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/items/?lugar=d1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeItems(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "seed-1", items[0].ID)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items/?lugar=sin-lugar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items = decodeItems(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "seed-2", items[0].ID)
}

func TestListItems_MaxPriceFilter(t *testing.T) {
	handler := newTestHandler(t)

	// The display format is accepted: "4.000" reads as 4000 pesos.
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/items/?precioMax=4.000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeItems(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "seed-2", items[0].ID)
}

func TestItemsSummary(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/items/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Total     float64 `json:"total"`
		Formatted string  `json:"totalFormateado"`
		Places    []struct {
			ID        string  `json:"id"`
			Name      string  `json:"nombre"`
			Total     float64 `json:"total"`
			Formatted string  `json:"totalFormateado"`
		} `json:"lugares"`
		Categories []struct {
			ID        string  `json:"id"`
			Name      string  `json:"nombre"`
			Total     float64 `json:"total"`
			Formatted string  `json:"totalFormateado"`
		} `json:"categorias"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))

	assert.Equal(t, 7500.0, summary.Total)
	assert.Equal(t, "7.500", summary.Formatted)

	// Rows come back sorted by id; the item without a place lands in the
	// sin-lugar bucket under its display name.
	require.Len(t, summary.Places, 2)
	assert.Equal(t, "d1", summary.Places[0].ID)
	assert.Equal(t, "D1", summary.Places[0].Name)
	assert.Equal(t, 4500.0, summary.Places[0].Total)
	assert.Equal(t, "4.500", summary.Places[0].Formatted)
	assert.Equal(t, "sin-lugar", summary.Places[1].ID)
	assert.Equal(t, "Sin lugar", summary.Places[1].Name)
	assert.Equal(t, 3000.0, summary.Places[1].Total)

	require.Len(t, summary.Categories, 2)
	assert.Equal(t, "lacteos", summary.Categories[0].ID)
	assert.Equal(t, "Lácteos", summary.Categories[0].Name)
	assert.Equal(t, 4500.0, summary.Categories[0].Total)
	assert.Equal(t, "panaderia", summary.Categories[1].ID)
	assert.Equal(t, "Panadería", summary.Categories[1].Name)
	assert.Equal(t, 3000.0, summary.Categories[1].Total)
}

func TestItemsSummary_SkipsPurchasedItems(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items/seed-1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3000.0, summary.Total)
}

func TestCreateItem(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items/", map[string]interface{}{
		"nombre":    "Arroz",
		"lugares":   []string{"exito"},
		"precio":    2500,
		"categoria": "cereales",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Arroz", created.Name)
	assert.True(t, created.Needed, "falta defaults to true")

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items/", nil)
	assert.Len(t, decodeItems(t, rec), len(testSeed())+1)
}

func TestCreateItem_Validation(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"categoria": "otros"}},
		{"negative price", map[string]interface{}{"nombre": "Pan", "precio": -1, "categoria": "panaderia"}},
		{"unknown category", map[string]interface{}{"nombre": "Pan", "categoria": "nope"}},
		{"missing category", map[string]interface{}{"nombre": "Pan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/v1/items/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateItem_MalformedBody(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItem(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/items/seed-1", map[string]interface{}{
		"precio": 9990,
		"falta":  false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, doJSON(t, handler, http.MethodGet, "/api/v1/items/", nil))
	idx := domain.FindItem(items, "seed-1")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, 9990.0, items[idx].Price)
	assert.False(t, items[idx].Needed)
	assert.Equal(t, "Leche", items[idx].Name)
}

func TestUpdateItem_UnknownIDStillOK(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/items/ghost", map[string]interface{}{
		"precio": 1,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, doJSON(t, handler, http.MethodGet, "/api/v1/items/", nil))
	assert.Equal(t, testSeed(), items)
}

func TestDeleteItem(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/items/seed-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	items := decodeItems(t, doJSON(t, handler, http.MethodGet, "/api/v1/items/", nil))
	require.Len(t, items, 1)
	assert.Equal(t, "seed-2", items[0].ID)
}

func TestToggleNeeded(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items/seed-1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, doJSON(t, handler, http.MethodGet, "/api/v1/items/", nil))
	idx := domain.FindItem(items, "seed-1")
	require.GreaterOrEqual(t, idx, 0)
	assert.False(t, items[idx].Needed)
}

func TestPlacesEndpoints(t *testing.T) {
	handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/places/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc domain.PlacesDoc
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, domain.DefaultPlaceIDs(), doc.Places)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/places/", map[string]string{"lugar": "carulla"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc.Places, "carulla")

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/places/", map[string]string{"lugar": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/places/carulla", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListCategories(t *testing.T) {
	rec := doJSON(t, newTestHandler(t), http.MethodGet, "/api/v1/categories", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]domain.RefEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.Categories(), body["categorias"])
}

func TestStreamItems_PushesUpdates(t *testing.T) {
	handler := newTestHandler(t)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/items/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readDoc := func() domain.CollectionDoc {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var doc domain.CollectionDoc
		require.NoError(t, conn.ReadJSON(&doc))
		return doc
	}

	// The current collection arrives immediately on connect.
	initial := readDoc()
	assert.Equal(t, testSeed(), initial.Items)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items/seed-1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := readDoc()
	idx := domain.FindItem(updated.Items, "seed-1")
	require.GreaterOrEqual(t, idx, 0)
	assert.False(t, updated.Items[idx].Needed)
}
