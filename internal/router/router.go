package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leca/image-gallery/internal/api"
	"github.com/leca/image-gallery/internal/config"
	"github.com/leca/image-gallery/internal/database"
	"github.com/leca/image-gallery/internal/handler"
	"github.com/leca/image-gallery/internal/storage"
	"github.com/leca/image-gallery/internal/web"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	DB     database.Database
	Store  storage.Storage
	Config *config.Config
	Site   *web.Server
	Router chi.Router
}

// New creates a new Server with a fully configured chi router. The
// reference API and hosting endpoints are mounted only when the config
// says they are served in-process; site may be nil to serve them alone.
func New(db database.Database, store storage.Storage, cfg *config.Config, site *web.Server) *Server {
	s := &Server{DB: db, Store: store, Config: cfg, Site: site}

	h := &handler.Handler{
		DB:     db,
		Store:  store,
		Config: cfg,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check (no auth required).
	r.Get("/health", s.Health)

	// CORS only for the JSON endpoints; the gallery page is same-origin.
	apiCORS := cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	if cfg.API.Embedded() {
		r.Route("/api/images", func(r chi.Router) {
			r.Use(apiCORS)
			r.Get("/", h.ListImages)
			// Registered before the {image_id} wildcard.
			r.Get("/stats", h.GetStats)
			r.Get("/{image_id}", h.GetImage)
			r.With(api.AuthMiddleware(cfg.API.AuthToken)).Post("/", h.CreateImage)
		})
	}

	if cfg.Hosting.Embedded() {
		r.With(apiCORS).Post("/hosting/upload", h.UploadBlob)
		r.Get("/media/{key}", h.GetMedia)
	}

	if site != nil {
		site.Routes(r)
		r.NotFound(site.NotFound())
	}

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
