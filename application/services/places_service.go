package services

import (
	"strings"

	"go.uber.org/zap"

	"listacompras/domain"
	"listacompras/infrastructure/localstore"
)

// PlacesService manages the user's place list: the predefined places plus
// whatever the user added, persisted in the local store. Place ids on items
// stay opaque; removing a place here does not touch items referencing it.
type PlacesService struct {
	store  *localstore.Store
	logger *zap.Logger
}

// NewPlacesService creates the service.
func NewPlacesService(store *localstore.Store, logger *zap.Logger) *PlacesService {
	return &PlacesService{store: store, logger: logger}
}

// GetPlaces returns the persisted place list, seeding the predefined places
// on first use.
func (s *PlacesService) GetPlaces() []string {
	var doc domain.PlacesDoc
	if s.store.Get(domain.StorageKeyPlaces, &doc) && doc.Places != nil {
		return doc.Places
	}
	return domain.DefaultPlaceIDs()
}

// AddPlace appends a place unless it is already present. Whitespace is
// trimmed; an empty name is ignored.
func (s *PlacesService) AddPlace(place string) {
	place = strings.TrimSpace(place)
	if place == "" {
		return
	}

	places := s.GetPlaces()
	for _, p := range places {
		if p == place {
			return
		}
	}

	places = append(places, place)
	s.store.Set(domain.StorageKeyPlaces, domain.PlacesDoc{Places: places})
	s.logger.Debug("Added place", zap.String("place", place))
}

// RemovePlace deletes a place from the list, if present.
func (s *PlacesService) RemovePlace(place string) {
	places := s.GetPlaces()
	kept := make([]string, 0, len(places))
	for _, p := range places {
		if p != place {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(places) {
		return
	}

	s.store.Set(domain.StorageKeyPlaces, domain.PlacesDoc{Places: kept})
	s.logger.Debug("Removed place", zap.String("place", place))
}
