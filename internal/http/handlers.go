package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/prizeplay/internal/clock"
	"github.com/mauv0809/prizeplay/internal/errs"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/shopspring/decimal"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// ReconcileHandler runs a reconciliation sweep on demand.
func (s *Server) ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := r.URL.Query().Get("job")
		isDryRun := isDryRunFromContext(r)
		log.Info("Starting reconciliation on demand", "job", job, "dryRun", isDryRun)

		reports, err := s.Reconciler.Run(r.Context(), job, isDryRun)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", errs.ErrValidation, err))
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"reports": reports})
	}
}

type createUserRequest struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		user, err := s.Wallet.CreateUser(r.Context(), req.ID, req.Name, req.Balance)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, jsonResponse{"user": user})
	}
}

func (s *Server) BalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		balance, err := s.Wallet.Balance(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"userId": id, "balance": balance})
	}
}

func (s *Server) TransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		limit := 50
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed <= 0 {
				log.Warn("Invalid 'limit' parameter provided. Defaulting to 50.", "limit_param", limitStr)
			} else {
				limit = parsed
			}
		}
		txns, err := s.Wallet.Transactions(r.Context(), id, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"transactions": txns})
	}
}

// tournamentView adds the resolved schedule to a tournament.
type tournamentView struct {
	*tournament.Tournament
	StartsAt *time.Time `json:"startsAt,omitempty"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`
	LocalNow string     `json:"localNow"`
}

func (s *Server) view(t *tournament.Tournament) tournamentView {
	v := tournamentView{
		Tournament: t,
		LocalNow:   clock.NowIn(t.Timezone, s.now()).Format(time.RFC3339),
	}
	if snap, err := t.Snapshot(); err == nil {
		start, end := snap.Start, snap.End()
		v.StartsAt, v.EndsAt = &start, &end
	}
	return v
}

func (s *Server) CreateTournamentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params tournament.CreateParams
		if err := readJSON(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		actor := actorFromContext(r)
		if params.OrganizerID == "" {
			params.OrganizerID = actor
		}
		if params.OrganizerID != actor {
			writeError(w, r, fmt.Errorf("%w: tournaments can only be created for yourself", errs.ErrForbidden))
			return
		}

		t, err := s.Tournaments.Create(r.Context(), params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, jsonResponse{"tournament": s.view(t)})
	}
}

func (s *Server) GetTournamentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.Tournaments.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"tournament": s.view(t)})
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.Tournaments.Register(r.Context(), chi.URLParam(r, "id"), actorFromContext(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, jsonResponse{"tournament": s.view(t)})
	}
}

type setStatusRequest struct {
	Status tournament.Status `json:"status"`
	Manual *bool             `json:"manual"`
}

func (s *Server) SetStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setStatusRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		manual := true
		if req.Manual != nil {
			manual = *req.Manual
		}
		t, err := s.Tournaments.SetStatus(r.Context(), chi.URLParam(r, "id"), actorFromContext(r), req.Status, manual)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"tournament": s.view(t)})
	}
}

func (s *Server) CancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.Tournaments.Cancel(r.Context(), chi.URLParam(r, "id"), actorFromContext(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"tournament": s.view(t)})
	}
}

type submitResultsRequest struct {
	Results       []prize.Result `json:"results"`
	SpecialAwards prize.Awards   `json:"specialAwards"`
}

func (s *Server) SubmitResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitResultsRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		lines, err := s.Tournaments.SubmitResults(r.Context(), chi.URLParam(r, "id"), actorFromContext(r), req.Results, req.SpecialAwards)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"payouts": lines, "total": prize.Sum(lines)})
	}
}

// PayoutsHandler previews the payouts of the stored results.
func (s *Server) PayoutsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, lines, err := s.Tournaments.Preview(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{
			"tournamentId":      t.ID,
			"prizesDistributed": t.Metadata.PrizesDistributed,
			"payouts":           lines,
			"total":             prize.Sum(lines),
		})
	}
}

type distributeRequest struct {
	Lines []prize.PayoutLine `json:"lines"`
}

// DistributeHandler pays out the given lines, or the stored results when the
// body is empty.
func (s *Server) DistributeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := actorFromContext(r)

		var req distributeRequest
		err := readJSON(w, r, &req)
		switch {
		case errors.Is(err, errEmptyBody):
		case err != nil:
			writeError(w, r, err)
			return
		}

		if isDryRunFromContext(r) {
			t, err := s.Tournaments.Get(r.Context(), id)
			if err != nil {
				writeError(w, r, err)
				return
			}
			lines, err := s.Distributor.DryRun(r.Context(), t, req.Lines)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, jsonResponse{"dryRun": true, "payouts": lines, "total": prize.Sum(lines)})
			return
		}

		if len(req.Lines) == 0 {
			receipt, err := s.Distributor.DistributeFromResults(r.Context(), id, actor)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, jsonResponse{"receipt": receipt})
			return
		}
		receipt, err := s.Distributor.Distribute(r.Context(), id, req.Lines, actor)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jsonResponse{"receipt": receipt})
	}
}
