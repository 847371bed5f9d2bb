package domain

import "github.com/google/uuid"

// catalogEntry pairs a product name with its category id.
type catalogEntry struct {
	name     string
	category string
}

var defaultCatalog = []catalogEntry{
	// Lácteos y derivados
	{"Leche", "lacteos"},
	{"Yogurt griego", "lacteos"},
	{"Mantequilla", "lacteos"},
	{"Mantequilla para untar", "lacteos"},
	{"Margarina", "lacteos"},
	{"Chocolate", "lacteos"},
	{"Chips de chicolate", "lacteos"},

	// Proteínas
	{"Huevos", "proteinas"},
	{"Salchichas", "proteinas"},
	{"Pechugas de pollo", "proteinas"},
	{"Carne Hamburguesa", "proteinas"},
	{"Atún", "proteinas"},

	// Panadería y productos de harina
	{"Pan tajado", "panaderia"},
	{"Pan hamburguesa", "panaderia"},
	{"Queso tajado", "panaderia"},
	{"Jamon", "panaderia"},
	{"Tocineta", "panaderia"},
	{"Arepas", "panaderia"},
	{"Harina de Pancake", "panaderia"},
	{"Cachapa", "panaderia"},
	{"Rice cake D1", "panaderia"},

	// Cereales y granos
	{"Arroz 2Kg", "cereales"},
	{"Lentejas 1Kg", "cereales"},
	{"Frijoles 1Kg", "cereales"},
	{"Garbanzos", "cereales"},
	{"Arvejas 1lb", "cereales"},
	{"Avena flakes", "cereales"},

	// Frutas y verduras
	{"Banano", "frutas-y-verduras"},
	{"Manzana verde", "frutas-y-verduras"},
	{"Fresas", "frutas-y-verduras"},
	{"Arandanos", "frutas-y-verduras"},
	{"Limon", "frutas-y-verduras"},
	{"Lulo", "frutas-y-verduras"},
	{"Tomate de árbol", "frutas-y-verduras"},
	{"Papa Grande", "frutas-y-verduras"},
	{"Papa pequeña", "frutas-y-verduras"},
	{"Zanahorias", "frutas-y-verduras"},
	{"Tomate", "frutas-y-verduras"},
	{"Cebolla larga", "frutas-y-verduras"},
	{"edamame", "frutas-y-verduras"},
	{"Pepino", "frutas-y-verduras"},
	{"Lechuga", "frutas-y-verduras"},
	{"Pimenton", "frutas-y-verduras"},

	// Salsas y condimentos
	{"Miel", "salsas-y-condimentos"},
	{"Azucar", "salsas-y-condimentos"},
	{"Sal", "salsas-y-condimentos"},
	{"Panela", "salsas-y-condimentos"},
	{"Sirope", "salsas-y-condimentos"},
	{"Mermelada", "salsas-y-condimentos"},
	{"Salsa de piña", "salsas-y-condimentos"},
	{"Salsa de tomate", "salsas-y-condimentos"},
	{"Mayonesa", "salsas-y-condimentos"},
	{"Salsa de soya", "salsas-y-condimentos"},
	{"Teriyaki", "salsas-y-condimentos"},
	{"Salsa negra", "salsas-y-condimentos"},
	{"Ajo en polvo", "salsas-y-condimentos"},
	{"Vinagre de Arroz", "salsas-y-condimentos"},
	{"Vinagre Balsámico", "salsas-y-condimentos"},
	{"Salsa Ranch", "salsas-y-condimentos"},
	{"Vinagreta", "salsas-y-condimentos"},
	{"Chili powder", "salsas-y-condimentos"},
	{"Chili flakes", "salsas-y-condimentos"},
	{"Aceite de ajonjolí", "salsas-y-condimentos"},
	{"Aceite de oliva", "salsas-y-condimentos"},
	{"Aceite vegetal", "salsas-y-condimentos"},
	{"Ajonjoli", "salsas-y-condimentos"},

	// Snacks y untables
	{"Milo", "snacks"},
	{"Cereal", "snacks"},
	{"Nuzart", "snacks"},
	{"Peanut butter", "snacks"},
	{"Chips de chocolate", "snacks"},
	{"Almendra fileteada", "snacks"},

	// Bebidas
	{"Té negro", "bebidas"},
	{"Té de matcha", "bebidas"},
	{"Té", "bebidas"},
	{"Aromática", "bebidas"},
	{"Jugo grande", "bebidas"},
	{"Zumo", "bebidas"},

	// Pasta y comidas rápidas
	{"Pasta", "pasta-y-comidas-rapidas"},
	{"Mac & Cheese", "pasta-y-comidas-rapidas"},
	{"Cup noodles", "pasta-y-comidas-rapidas"},

	// Productos congelados
	{"Nuggets de pollo", "productos-congelados"},
	{"Milanesas", "productos-congelados"},
	{"Pescado apanado", "productos-congelados"},

	// Aseo personal
	{"Crema dental", "aseo-personal"},
	{"Enjuague bucal", "aseo-personal"},
	{"Jabon corporal", "aseo-personal"},
	{"Jabon de manos", "aseo-personal"},
	{"Desodorantes", "aseo-personal"},
	{"Depilacion", "aseo-personal"},
	{"Esponja corporal", "aseo-personal"},
	{"Seda dental", "aseo-personal"},

	// Aseo y hogar
	{"Jabón para ropa", "aseo"},
	{"Aromatizante del piso", "aseo"},
	{"Bolsas blancas", "aseo"},
	{"Bolsas negras", "aseo"},
	{"Papel higiénico", "aseo"},
	{"Papel parafinado", "aseo"},
	{"Toallas de cocina", "aseo"},
	{"Gel azul D1", "aseo"},
	{"Jabon Rey", "aseo"},
	{"Palo de escoba", "aseo"},
	{"Vinagre blanco", "aseo"},
	{"Jabón en polvo de bicarbonato con limon", "aseo"},
	{"Bio varsol en crema", "aseo"},
	{"Guantes baño", "aseo"},
	{"Barsol", "aseo"},
	{"Jabon de loza", "aseo"},
	{"Briket", "aseo"},
	{"Trapitos", "aseo"},

	// Farmacia
	{"Cetiricina", "farmacia"},
	{"Isomeprasol", "farmacia"},
}

// DefaultCatalog builds the bundled seed collection used the first time the
// app runs on a device: every product still to buy, no price, no places.
// Ids are generated per call, so the catalogue is only meant to be seeded
// once and persisted.
func DefaultCatalog() []Item {
	items := make([]Item, 0, len(defaultCatalog))
	for _, e := range defaultCatalog {
		items = append(items, Item{
			ID:       uuid.New().String(),
			Name:     e.name,
			Places:   []string{},
			Price:    0,
			Category: e.category,
			Needed:   true,
		})
	}
	return items
}
