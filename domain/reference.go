package domain

// RefEntry is one row of a static reference table: an opaque id plus its
// display name.
type RefEntry struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// categories is the fixed category table. Items store the id; the name is
// presentation only.
var categories = []RefEntry{
	{ID: "lacteos", Name: "Lácteos"},
	{ID: "proteinas", Name: "Proteínas"},
	{ID: "panaderia", Name: "Panadería"},
	{ID: "cereales", Name: "Cereales"},
	{ID: "frutas-y-verduras", Name: "Frutas y Verduras"},
	{ID: "salsas-y-condimentos", Name: "Salsas y Condimentos"},
	{ID: "snacks", Name: "Snacks"},
	{ID: "bebidas", Name: "Bebidas"},
	{ID: "pasta-y-comidas-rapidas", Name: "Pasta y Comidas Rápidas"},
	{ID: "productos-congelados", Name: "Productos Congelados"},
	{ID: "aseo-personal", Name: "Aseo Personal"},
	{ID: "aseo", Name: "Aseo"},
	{ID: "farmacia", Name: "Farmacia"},
	{ID: "otros", Name: "Otros"},
}

// places is the predefined place table. Users can add their own places on
// top of these; see the places service.
var places = []RefEntry{
	{ID: "d1", Name: "D1"},
	{ID: "exito", Name: "Exito"},
	{ID: "jumbo", Name: "Jumbo"},
	{ID: "fruver", Name: "Fruver"},
	{ID: "otros", Name: "Otros"},
}

// Categories returns the full category table.
func Categories() []RefEntry {
	return append([]RefEntry{}, categories...)
}

// Places returns the predefined place table.
func Places() []RefEntry {
	return append([]RefEntry{}, places...)
}

// DefaultPlaceIDs returns the ids used to seed the persisted place list.
func DefaultPlaceIDs() []string {
	ids := make([]string, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	return ids
}

// IsValidCategory reports whether id names a known category.
func IsValidCategory(id string) bool {
	return lookup(categories, id) != nil
}

// CategoryName resolves a category id to its display name, falling back to
// the id itself for unknown values.
func CategoryName(id string) string {
	if e := lookup(categories, id); e != nil {
		return e.Name
	}
	return id
}

// PlaceName resolves a place id to its display name. User-added places are
// their own name; the PlaceNone sentinel gets a proper label.
func PlaceName(id string) string {
	if id == PlaceNone {
		return "Sin lugar"
	}
	if e := lookup(places, id); e != nil {
		return e.Name
	}
	return id
}

func lookup(table []RefEntry, id string) *RefEntry {
	for i := range table {
		if table[i].ID == id {
			return &table[i]
		}
	}
	return nil
}
