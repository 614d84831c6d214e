package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"givechain/internal/http/handlers"
	"givechain/internal/infra"
	"givechain/internal/middleware"
)

// NewRouter assembles the API routes. Donation submission and status are
// the only authenticated routes; everything else is public read traffic.
func NewRouter(cfg *infra.Config, app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Post("/donors", app.DonorRegister)
		r.Get("/donors", app.DonorList)
		r.Get("/donors/by-wallet", app.DonorByWallet)

		r.Route("/campaigns/{address}", func(r chi.Router) {
			r.Get("/", app.CampaignGet)
			r.Get("/donors", app.CampaignDonors)
			r.Get("/donations", app.DonationList)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthJWT(cfg.JWTSecret))
				r.Post("/donations", app.DonationCreate)
				r.Get("/donations/status", app.DonationStatus)
			})
		})

		r.Post("/predictions", app.PredictionCreate)
		r.Post("/chat", app.Chat)
		r.Get("/stats/summary", app.StatsSummary)
	})

	return r
}
