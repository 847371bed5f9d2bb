// Package syncserver is the remote document store behind the sync backend:
// a small HTTP server holding one snapshot document per list id, persisted
// as JSON files, with a websocket feed pushing every stored snapshot to
// subscribed clients.
package syncserver

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"listacompras/infrastructure/localstore"
	"listacompras/infrastructure/syncstore"
	"listacompras/interfaces/http/rest/middleware"
	pkgerrors "listacompras/pkg/errors"
)

// listIDPattern keeps document keys safe to use as file names.
var listIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Server serves the sync documents.
type Server struct {
	store    *localstore.Store
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server persisting documents through the given store.
func NewServer(store *localstore.Store, logger *zap.Logger) *Server {
	return &Server{
		store:  store,
		hub:    NewHub(logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Setup configures all routes and middleware.
func (s *Server) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(s.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", s.healthCheck)

	router.Route("/sync/{listID}", func(r chi.Router) {
		r.Get("/", s.getDocument)
		r.Put("/", s.putDocument)
		r.Get("/ws", s.subscribe)
	})

	return router
}

// Shutdown disconnects all feed subscribers.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// getDocument handles GET /sync/{listID}
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.listID(w, r)
	if !ok {
		return
	}

	var snap syncstore.Snapshot
	if !s.store.Get(docKey(listID), &snap) {
		appErr := pkgerrors.NewNotFoundError("sync document")
		s.respondError(w, appErr.HTTPStatus, appErr.Message)
		return
	}

	s.respondJSON(w, http.StatusOK, snap)
}

// putDocument handles PUT /sync/{listID}. The stored document is replaced
// in full; the later of two racing writers wins.
func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.listID(w, r)
	if !ok {
		return
	}

	var snap syncstore.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if snap.LastModified == 0 {
		snap.LastModified = time.Now().UnixMilli()
	}

	s.store.Set(docKey(listID), snap)
	s.hub.Broadcast(listID, snap)

	s.logger.Debug("Stored sync document",
		zap.String("listID", listID),
		zap.Int("items", len(snap.Items)),
		zap.Int64("lastModified", snap.LastModified),
	)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"lastModified": snap.LastModified,
	})
}

// subscribe handles GET /sync/{listID}/ws. The current document, if any, is
// pushed immediately so new subscribers start from the latest state.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.listID(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	var initial *syncstore.Snapshot
	var snap syncstore.Snapshot
	if s.store.Get(docKey(listID), &snap) {
		initial = &snap
	}
	if err := s.hub.Add(listID, conn, initial); err != nil {
		return
	}

	// The feed is one-way; reading only detects the peer going away.
	go func() {
		defer s.hub.Remove(listID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) listID(w http.ResponseWriter, r *http.Request) (string, bool) {
	listID := chi.URLParam(r, "listID")
	if !listIDPattern.MatchString(listID) {
		s.respondError(w, http.StatusBadRequest, "Invalid list ID")
		return "", false
	}
	return listID, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

func docKey(listID string) string {
	return "doc-" + listID
}
