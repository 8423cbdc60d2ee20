package server

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is the slice of the database the health check needs
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter wires the JSON API, the health checks and the metrics endpoint
func NewRouter(core Core, db Pinger) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/cards", func(cards chi.Router) {
			cards.Post("/generate", GenerateCards(core))
			cards.Post("/verify", VerifyCard(core))
			cards.Get("/status", CardStatus(core))
			cards.Get("/available", AvailableCards(core))
		})
		api.Post("/rounds/new", NewRound(core))
		api.Route("/keys", func(keys chi.Router) {
			keys.Post("/", CreateKey(core))
			keys.Get("/{key}", KeyStatus(core))
		})
		api.Get("/packages", ListPackages(core))
	})

	// Operational endpoints
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		render.JSON(w, r, map[string]string{
			"status":   "ok",
			"service":  "bingo-system",
			"hostname": hostname,
		})
	})
	router.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "error", "message": "postgres unavailable"})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ok", "postgres": "connected"})
	})
	router.Handle("/metrics", promhttp.Handler())

	return router
}
