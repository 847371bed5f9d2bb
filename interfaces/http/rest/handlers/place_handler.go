package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"listacompras/application/services"
	"listacompras/domain"
	"listacompras/pkg/utils"
)

// PlaceHandler handles place and category reference-data requests
type PlaceHandler struct {
	places *services.PlacesService
	logger *zap.Logger
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(places *services.PlacesService, logger *zap.Logger) *PlaceHandler {
	return &PlaceHandler{places: places, logger: logger}
}

// AddPlaceRequest represents the request body for adding a place
type AddPlaceRequest struct {
	Place string `json:"lugar" validate:"required,min=1"`
}

// ListPlaces handles GET /places
func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, domain.PlacesDoc{Places: h.places.GetPlaces()})
}

// AddPlace handles POST /places
func (h *PlaceHandler) AddPlace(w http.ResponseWriter, r *http.Request) {
	var req AddPlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	h.places.AddPlace(req.Place)
	h.respondJSON(w, http.StatusCreated, domain.PlacesDoc{Places: h.places.GetPlaces()})
}

// RemovePlace handles DELETE /places/{placeID}
func (h *PlaceHandler) RemovePlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	if placeID == "" {
		h.respondError(w, http.StatusBadRequest, "Place ID is required")
		return
	}

	h.places.RemovePlace(placeID)
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /categories
func (h *PlaceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string][]domain.RefEntry{
		"categorias": domain.Categories(),
	})
}

func (h *PlaceHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *PlaceHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
