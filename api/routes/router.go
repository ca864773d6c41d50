package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mirandavel/tradepost-backend/api/controllers"
	"github.com/mirandavel/tradepost-backend/api/middleware"
	"github.com/mirandavel/tradepost-backend/internal/reviews"
	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/pkg/config"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
)

// RouterParams collects the dependencies the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	ScoreService  scoreledger.Service
	ReviewService reviews.Service
	ReadyChecks   map[string]controllers.Pinger
	Metrics       prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.ReadyChecks))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts/{accountId}/score", controllers.GetAccountScore(params.ScoreService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/me/score", controllers.GetOwnScore(params.ScoreService, logg))
			r.Get("/me/score/history", controllers.GetOwnScoreHistory(params.ScoreService, logg))
			r.Post("/reviews", controllers.SubmitReview(params.ReviewService, logg))
		})
	})

	return r
}
