package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"listacompras/application/services"
	"listacompras/interfaces/http/rest/handlers"
	"listacompras/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	collection *services.CollectionService
	places     *services.PlacesService
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	collection *services.CollectionService,
	places *services.PlacesService,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		collection: collection,
		places:     places,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:5174"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		// Item endpoints
		r.Route("/items", func(r chi.Router) {
			itemHandler := handlers.NewItemHandler(rt.collection, rt.logger)
			r.Get("/", itemHandler.ListItems)
			r.Post("/", itemHandler.CreateItem)
			r.Get("/summary", itemHandler.Summary)
			r.Get("/stream", itemHandler.StreamItems)
			r.Put("/{itemID}", itemHandler.UpdateItem)
			r.Delete("/{itemID}", itemHandler.DeleteItem)
			r.Post("/{itemID}/toggle", itemHandler.ToggleNeeded)
		})

		// Reference data endpoints
		placeHandler := handlers.NewPlaceHandler(rt.places, rt.logger)
		r.Route("/places", func(r chi.Router) {
			r.Get("/", placeHandler.ListPlaces)
			r.Post("/", placeHandler.AddPlace)
			r.Delete("/{placeID}", placeHandler.RemovePlace)
		})
		r.Get("/categories", placeHandler.ListCategories)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
