package domain

import "encoding/json"

// legacyItem is the pre-lugares persisted shape: a single optional place
// string instead of a place set. It only ever appears as migration input.
type legacyItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"nombre"`
	Place    string  `json:"lugar"`
	Price    float64 `json:"precio"`
	Category string  `json:"categoria"`
	Needed   bool    `json:"falta"`
}

// currentProbe mirrors Item but keeps Places as a pointer so the decode can
// tell "lugares present" apart from "lugares absent".
type currentProbe struct {
	ID       string    `json:"id"`
	Name     string    `json:"nombre"`
	Places   *[]string `json:"lugares"`
	Price    float64   `json:"precio"`
	Category string    `json:"categoria"`
	Needed   bool      `json:"falta"`
}

// MigrateRecords upgrades a heterogeneous list of persisted item records to
// the current schema. Records already in current shape pass through
// unchanged; legacy records get a zero-or-one-element place set synthesized
// from the singular lugar field. The upgrade is lossless and idempotent.
//
// The second return value reports whether any record actually changed, so
// the caller can skip rewriting storage when nothing did. Records that
// decode as neither shape are dropped (and count as a change); persistence
// is best-effort and one corrupt record must not poison the collection.
func MigrateRecords(records []json.RawMessage) ([]Item, bool) {
	items := make([]Item, 0, len(records))
	changed := false

	for _, raw := range records {
		var probe currentProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			changed = true
			continue
		}

		if probe.Places != nil {
			items = append(items, Item{
				ID:       probe.ID,
				Name:     probe.Name,
				Places:   *probe.Places,
				Price:    probe.Price,
				Category: probe.Category,
				Needed:   probe.Needed,
			})
			continue
		}

		// Legacy shape: re-decode for the lugar field and upgrade.
		var old legacyItem
		if err := json.Unmarshal(raw, &old); err != nil {
			changed = true
			continue
		}

		places := []string{}
		if old.Place != "" {
			places = append(places, old.Place)
		}

		items = append(items, Item{
			ID:       old.ID,
			Name:     old.Name,
			Places:   places,
			Price:    old.Price,
			Category: old.Category,
			Needed:   old.Needed,
		})
		changed = true
	}

	return items, changed
}
