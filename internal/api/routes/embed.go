package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	embedhandlers "Embeds/internal/api/handlers/embed"
	"Embeds/internal/core/embeds"
)

// EmbedRoutes returns the embed cache endpoints, mounted under /embed.
//
//   - POST /update  resolve and cache an ident (form or query "ident")
//   - GET  /data    read a cached record without resolving
//
// Both endpoints are called from admin pages on other origins, so CORS is
// opened for GET and POST.
func EmbedRoutes(repo embeds.Repository, allowedOrigins []string) chi.Router {
	updateHandler := embedhandlers.NewUpdateHandler(repo)
	getHandler := embedhandlers.NewGetHandler(repo)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/update", updateHandler.HandleUpdate)
	r.Get("/data", getHandler.HandleGet)

	return r
}
