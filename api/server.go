/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/students/*       Roster and activity pauses
  /api/billing/*        Due generation and listing
  /api/dues/*           Status transitions
  /api/ledger/*         Cash ledger and receipts
  /api/reports/*        Monthly summaries
  /api/schedule/*       Weekly block planning
  /metrics              Prometheus counters

SECURITY NOTE:
  The X-Trainer-ID header identifies the acting trainer. There is no
  authentication layer in front of it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tunes the router. Zero value gives sane dev defaults.
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Trainer-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{id}", h.GetStudent)
			r.Put("/{id}/fee", h.UpdateFee)
			r.Delete("/{id}", h.ArchiveStudent)
			r.Post("/{id}/deactivate", h.Deactivate)
			r.Post("/{id}/reactivate", h.Reactivate)
			r.Get("/{id}/billable", h.Billable)
			r.Get("/{id}/dues", h.StudentDues)
		})

		// Billing routes
		r.Route("/billing", func(r chi.Router) {
			r.Post("/{month}/generate", h.GenerateDues)
			r.Get("/{month}/dues", h.ListDues)
		})

		r.Route("/dues", func(r chi.Router) {
			r.Post("/{id}/status", h.SetDueStatus)
		})

		// Ledger routes
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", h.ListLedger)
			r.Post("/receipts", h.LogReceipt)
		})

		r.Get("/reports/{month}", h.Report)

		// Schedule routes
		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", h.WeekGrid)
			r.Get("/at", h.SlotAt)
			r.Route("/blocks", func(r chi.Router) {
				r.Post("/", h.Occupy)
				r.Put("/", h.Resize)
				r.Post("/occupants", h.AddOccupant)
				r.Delete("/occupants", h.RemoveOccupant)
			})
		})
	})

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
