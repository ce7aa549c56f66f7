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

type Server struct {
	Tournaments    *tournament.Service
	Wallet         wallet.Store
	Distributor    *distribution.Distributor
	Reconciler     *reconciler.Reconciler
	MetricsHandler http.Handler
	Router         chi.Router
	now            func() time.Time
}

// jsonResponse is the envelope of every JSON body.
type jsonResponse map[string]any
