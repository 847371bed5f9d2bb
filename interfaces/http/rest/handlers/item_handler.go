package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"listacompras/application/services"
	"listacompras/domain"
	pkgerrors "listacompras/pkg/errors"
	"listacompras/pkg/utils"
)

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	service  *services.CollectionService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewItemHandler creates a new item handler
func NewItemHandler(service *services.CollectionService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// CreateItemRequest represents the request body for creating an item
type CreateItemRequest struct {
	Name     string   `json:"nombre" validate:"required,min=1"`
	Places   []string `json:"lugares"`
	Price    float64  `json:"precio" validate:"gte=0"`
	Category string   `json:"categoria" validate:"required"`
	Needed   *bool    `json:"falta,omitempty"` // defaults to true
}

// ListItems handles GET /items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.service.GetItems(r.Context())

	place := r.URL.Query().Get("lugar")
	if place != "" {
		filtered := make([]domain.Item, 0, len(items))
		for _, it := range items {
			if it.HasPlace(place) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	// precioMax accepts the display format too: "10.000" == 10000.
	if maxStr := r.URL.Query().Get("precioMax"); maxStr != "" {
		max := utils.ParsePrice(maxStr)
		filtered := make([]domain.Item, 0, len(items))
		for _, it := range items {
			if it.Price <= max {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	h.respondJSON(w, http.StatusOK, domain.CollectionDoc{Items: items})
}

// CreateItem handles POST /items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if !domain.IsValidCategory(req.Category) {
		h.respondError(w, http.StatusBadRequest, "Unknown category: "+req.Category)
		return
	}

	needed := true
	if req.Needed != nil {
		needed = *req.Needed
	}

	item, err := h.service.AddItem(r.Context(), req.Name, req.Places, req.Price, req.Category, needed)
	if err != nil {
		h.logger.Error("Failed to create item", zap.Error(err))
		status, message := http.StatusBadRequest, err.Error()
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			status, message = appErr.HTTPStatus, appErr.Message
		}
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /items/{itemID}. An unknown id is not an error;
// the collection is simply left as it was.
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		h.respondError(w, http.StatusBadRequest, "Item ID is required")
		return
	}

	var patch services.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(patch); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if patch.Category != nil && !domain.IsValidCategory(*patch.Category) {
		h.respondError(w, http.StatusBadRequest, "Unknown category: "+*patch.Category)
		return
	}

	h.service.UpdateItem(r.Context(), itemID, patch)

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Item updated",
		"id":      itemID,
	})
}

// DeleteItem handles DELETE /items/{itemID}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		h.respondError(w, http.StatusBadRequest, "Item ID is required")
		return
	}

	h.service.DeleteItem(r.Context(), itemID)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleNeeded handles POST /items/{itemID}/toggle
func (h *ItemHandler) ToggleNeeded(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		h.respondError(w, http.StatusBadRequest, "Item ID is required")
		return
	}

	h.service.ToggleNeeded(r.Context(), itemID)

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Item toggled",
		"id":      itemID,
	})
}

// bucketTotal is one aggregation row of the summary: a place or category
// with the summed price of the needed items in it.
type bucketTotal struct {
	ID        string  `json:"id"`
	Name      string  `json:"nombre"`
	Total     float64 `json:"total"`
	Formatted string  `json:"totalFormateado"`
}

// summaryResponse totals the prices of the items still to purchase.
type summaryResponse struct {
	Total      float64       `json:"total"`
	Formatted  string        `json:"totalFormateado"`
	Places     []bucketTotal `json:"lugares"`
	Categories []bucketTotal `json:"categorias"`
}

// Summary handles GET /items/summary: how much the outstanding list costs,
// overall and broken down by place and by category. Items without a place
// land in the sin-lugar bucket.
func (h *ItemHandler) Summary(w http.ResponseWriter, r *http.Request) {
	items := h.service.GetItems(r.Context())

	var total float64
	placeTotals := make(map[string]float64)
	categoryTotals := make(map[string]float64)
	for _, it := range items {
		if !it.Needed {
			continue
		}
		total += it.Price
		categoryTotals[it.Category] += it.Price
		if len(it.Places) == 0 {
			placeTotals[domain.PlaceNone] += it.Price
			continue
		}
		for _, p := range it.Places {
			placeTotals[p] += it.Price
		}
	}

	h.respondJSON(w, http.StatusOK, summaryResponse{
		Total:      total,
		Formatted:  utils.FormatPrice(total),
		Places:     buckets(placeTotals, domain.PlaceName),
		Categories: buckets(categoryTotals, domain.CategoryName),
	})
}

// buckets renders an aggregation map as rows sorted by id, resolving
// display names through the given reference lookup.
func buckets(totals map[string]float64, nameOf func(string) string) []bucketTotal {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]bucketTotal, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, bucketTotal{
			ID:        id,
			Name:      nameOf(id),
			Total:     totals[id],
			Formatted: utils.FormatPrice(totals[id]),
		})
	}
	return rows
}

// StreamItems handles GET /items/stream: a websocket that receives the
// current collection immediately and the full updated collection after
// every change.
func (h *ItemHandler) StreamItems(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	// Change callbacks arrive from mutation goroutines; writes to the
	// connection have to be serialized.
	var writeMu sync.Mutex
	send := func(items []domain.Item) bool {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(domain.CollectionDoc{Items: items}) == nil
	}

	if !send(h.service.GetItems(r.Context())) {
		conn.Close()
		return
	}

	unsubscribe := h.service.Subscribe(func(items []domain.Item) {
		if !send(items) {
			conn.Close()
		}
	})

	go func() {
		defer func() {
			unsubscribe()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Helper methods

func (h *ItemHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ItemHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
