package domain

import (
	pkgerrors "listacompras/pkg/errors"

	"github.com/google/uuid"
)

// PlaceNone is the filter sentinel matching items that have no place assigned.
const PlaceNone = "sin-lugar"

// Item is a single shopping-list entry. The JSON field names are the
// persisted wire contract and must not change; data written by earlier
// releases of the app is still read back through them.
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"nombre" validate:"required,min=1"`
	Places   []string `json:"lugares"`
	Price    float64  `json:"precio" validate:"gte=0"`
	Category string   `json:"categoria" validate:"required"`
	Needed   bool     `json:"falta"`
}

// NewItem creates a validated item with a fresh unique id.
func NewItem(name string, places []string, price float64, category string, needed bool) (Item, error) {
	item := Item{
		ID:       uuid.New().String(),
		Name:     name,
		Places:   places,
		Price:    price,
		Category: category,
		Needed:   needed,
	}
	if item.Places == nil {
		item.Places = []string{}
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Validate checks the item's invariants. Place and category ids are stored
// opaquely; referential integrity against the reference tables is the
// caller's concern.
func (i Item) Validate() error {
	if i.Name == "" {
		return pkgerrors.NewValidationError("nombre cannot be empty")
	}
	if i.Price < 0 {
		return pkgerrors.NewValidationError("precio cannot be negative")
	}
	if i.Category == "" {
		return pkgerrors.NewValidationError("categoria cannot be empty")
	}
	return nil
}

// Clone returns a deep copy, so callers can hand items to observers without
// sharing the places slice.
func (i Item) Clone() Item {
	out := i
	out.Places = append([]string{}, i.Places...)
	return out
}

// HasPlace reports whether the item matches a place filter. The PlaceNone
// sentinel matches exactly the items with no places at all.
func (i Item) HasPlace(placeID string) bool {
	if placeID == PlaceNone {
		return len(i.Places) == 0
	}
	for _, p := range i.Places {
		if p == placeID {
			return true
		}
	}
	return false
}

// CloneItems deep-copies a collection snapshot.
func CloneItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}

// FindItem returns the index of the item with the given id, or -1.
func FindItem(items []Item, id string) int {
	for idx, it := range items {
		if it.ID == id {
			return idx
		}
	}
	return -1
}
