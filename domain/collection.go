package domain

import "encoding/json"

// Storage keys for the device-local store. Shared with earlier releases of
// the app, so they stay as-is.
const (
	StorageKeyItems  = "compras"
	StorageKeyPlaces = "lugares"
)

// CollectionDoc is the primary persisted shape of the item collection.
type CollectionDoc struct {
	Items []Item `json:"items"`
}

// RawCollectionDoc is the read-side counterpart: records stay raw so each
// one can be decoded as current or legacy shape during migration.
type RawCollectionDoc struct {
	Items []json.RawMessage `json:"items"`
}

// PlacesDoc is the persisted shape of the user's place list.
type PlacesDoc struct {
	Places []string `json:"lugares"`
}
