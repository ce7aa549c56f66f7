package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/prizeplay/internal/distribution"
	"github.com/mauv0809/prizeplay/internal/reconciler"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/mauv0809/prizeplay/internal/wallet"
)

func NewServer(tournaments *tournament.Service, wallets wallet.Store, distributor *distribution.Distributor, rec *reconciler.Reconciler, metricsHandler http.Handler) *Server {
	server := &Server{
		Tournaments:    tournaments,
		Wallet:         wallets,
		Distributor:    distributor,
		Reconciler:     rec,
		MetricsHandler: metricsHandler,
		Router:         chi.NewRouter(),
		now:            time.Now,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// Every route goes through paramsMiddleware; state-changing tournament
	// routes additionally need an acting user.
	// e.g. Chain(s.MyHandler(), requireActor, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Group(func(r chi.Router) {
		r.Use(paramsMiddleware)

		r.Get("/health", s.HealthCheckHandler())
		r.Post("/reconcile", s.ReconcileHandler())

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.CreateUserHandler())
			r.Get("/{id}/balance", s.BalanceHandler())
			r.Get("/{id}/transactions", s.TransactionsHandler())
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Method(http.MethodPost, "/", Chain(s.CreateTournamentHandler(), requireActor))
			r.Get("/{id}", s.GetTournamentHandler())
			r.Get("/{id}/payouts", s.PayoutsHandler())
			r.Method(http.MethodPost, "/{id}/participants", Chain(s.RegisterHandler(), requireActor))
			r.Method(http.MethodPut, "/{id}/status", Chain(s.SetStatusHandler(), requireActor))
			r.Method(http.MethodPost, "/{id}/cancel", Chain(s.CancelHandler(), requireActor))
			r.Method(http.MethodPost, "/{id}/results", Chain(s.SubmitResultsHandler(), requireActor))
			r.Method(http.MethodPost, "/{id}/distribute", Chain(s.DistributeHandler(), requireActor))
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
