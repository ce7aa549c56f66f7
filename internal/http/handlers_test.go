package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/mauv0809/prizeplay/internal/distribution"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/notifier"
	"github.com/mauv0809/prizeplay/internal/reconciler"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/mauv0809/prizeplay/internal/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	playing = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
)

type testServer struct {
	*Server
	wallets wallet.Store
	notif   *notifier.Mock
	now     time.Time
}

// setupTestServer initializes a new server backed by a temporary database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "http.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{
		wallets: wallet.New(db),
		notif:   notifier.NewMock(),
		now:     created,
	}
	clock := func() time.Time { return ts.now }

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	store := tournament.New(db)
	svc := tournament.NewService(store, metricsSvc).WithClock(clock)
	dist := distribution.New(db, ts.notif, metricsSvc).WithClock(clock)
	rec := reconciler.New(store, ts.notif, metricsSvc, 5*time.Minute).WithClock(clock)

	ts.Server = NewServer(svc, ts.wallets, dist, rec, metrics.NewMetricsHandler(reg))
	ts.Server.now = clock

	for id, balance := range map[string]int64{"org": 2000, "a": 50, "b": 50} {
		_, err := ts.wallets.CreateUser(context.Background(), id, id, decimal.NewFromInt(balance))
		require.NoError(t, err)
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	rr := httptest.NewRecorder()
	ts.Router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (ts *testServer) createTournament(t *testing.T) string {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/tournaments", "org", map[string]any{
		"name":           "Friday Cup",
		"startDate":      "2025-06-01",
		"startTime":      "18:00",
		"timezone":       "UTC",
		"durationMillis": 3600000,
		"prizeType":      "fixed",
		"prizes":         map[string]any{"amounts": []int{300, 100}},
		"entryFee":       "10",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode(t, rr)["tournament"].(map[string]any)["id"].(string)
}

func (ts *testServer) balance(t *testing.T, user string) string {
	t.Helper()
	b, err := ts.wallets.Balance(context.Background(), user)
	require.NoError(t, err)
	return b.String()
}

func TestHealthCheckHandler(t *testing.T) {
	ts := setupTestServer(t)

	rr := ts.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestMetricsHandler(t *testing.T) {
	ts := setupTestServer(t)
	ts.createTournament(t)

	rr := ts.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUserHandlers(t *testing.T) {
	ts := setupTestServer(t)

	rr := ts.do(t, http.MethodPost, "/users", "", map[string]any{"id": "zoe", "name": "Zoe", "balance": "12.50"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/users/zoe/balance", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "12.5", decode(t, rr)["balance"])

	rr = ts.do(t, http.MethodGet, "/users/nobody/balance", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/users", "", map[string]any{"id": "x", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTournamentHandler(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("requires an actor", func(t *testing.T) {
		rr := ts.do(t, http.MethodPost, "/tournaments", "", map[string]any{"name": "x"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("entry fee above the pool is rejected", func(t *testing.T) {
		rr := ts.do(t, http.MethodPost, "/tournaments", "org", map[string]any{
			"name":           "Cup",
			"startDate":      "2025-06-01",
			"startTime":      "18:00",
			"durationMillis": 3600000,
			"prizeType":      "fixed",
			"prizes":         map[string]any{"amounts": []int{500}},
			"entryFee":       600,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	})

	t.Run("cannot create for someone else", func(t *testing.T) {
		rr := ts.do(t, http.MethodPost, "/tournaments", "a", map[string]any{"name": "Cup", "organizerId": "org"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("created and readable", func(t *testing.T) {
		id := ts.createTournament(t)
		assert.Equal(t, "1600", ts.balance(t, "org"), "the pool is reserved from the organizer")

		rr := ts.do(t, http.MethodGet, "/tournaments/"+id, "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode(t, rr)["tournament"].(map[string]any)
		assert.Equal(t, "upcoming", got["status"])
		assert.Equal(t, "400", got["totalPool"])
		assert.Equal(t, "2025-06-01T18:00:00Z", got["startsAt"])
		assert.Equal(t, "2025-06-01T19:00:00Z", got["endsAt"])
		assert.Equal(t, "2025-06-01T12:00:00Z", got["localNow"])
	})

	t.Run("unknown tournament", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/tournaments/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestTournamentLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createTournament(t)

	for _, user := range []string{"a", "b"} {
		rr := ts.do(t, http.MethodPost, "/tournaments/"+id+"/participants", user, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	assert.Equal(t, "40", ts.balance(t, "a"), "entry fee is charged")

	rr := ts.do(t, http.MethodPost, "/tournaments/"+id+"/participants", "a", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "duplicate registration")

	results := map[string]any{"results": []map[string]any{
		{"participantId": "b", "position": 1},
		{"participantId": "a", "position": 2},
	}}

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/results", "org", results)
	assert.Equal(t, http.StatusConflict, rr.Code, "results before the start are not accepted")

	ts.now = playing

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/results", "a", results)
	assert.Equal(t, http.StatusForbidden, rr.Code, "only the organizer submits results")

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/results", "org", results)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "400", decode(t, rr)["total"])

	rr = ts.do(t, http.MethodGet, "/tournaments/"+id+"/payouts", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	preview := decode(t, rr)
	assert.Equal(t, false, preview["prizesDistributed"])
	require.Len(t, preview["payouts"], 2)

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/distribute?dry_run=true", "org", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, decode(t, rr)["dryRun"])
	assert.Equal(t, "40", ts.balance(t, "b"), "dry run changes nothing")
	require.Equal(t, 2, ts.notif.PrizesAwarded())
	assert.True(t, ts.notif.SendPrizeAwardedCalls[0].DryRun)
	ts.notif.Reset()

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/distribute", "a", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/distribute", "org", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	receipt := decode(t, rr)["receipt"].(map[string]any)
	assert.Equal(t, "400", receipt["total"])
	assert.Equal(t, "340", ts.balance(t, "b"))
	assert.Equal(t, "140", ts.balance(t, "a"))
	assert.Equal(t, 2, ts.notif.PrizesAwarded())

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/distribute", "org", nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_distributed", decode(t, rr)["code"])
	assert.Equal(t, "340", ts.balance(t, "b"), "balances unchanged by the rejected retry")

	rr = ts.do(t, http.MethodGet, "/users/b/transactions", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["transactions"], 2, "entry and prize")
}

func TestDistributeHandler_ExplicitLines(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createTournament(t)
	rr := ts.do(t, http.MethodPost, "/tournaments/"+id+"/participants", "a", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	ts.now = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/distribute", "org", map[string]any{
		"lines": []map[string]any{{"participantId": "a", "position": 1, "amount": "25.5", "reason": "bonus"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "65.5", ts.balance(t, "a"))

	t.Run("empty body without results", func(t *testing.T) {
		other := ts.createTournament(t)
		rr := ts.do(t, http.MethodPost, "/tournaments/"+other+"/distribute", "org", nil)
		assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	})
}

func TestStatusAndCancelHandlers(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createTournament(t)
	rr := ts.do(t, http.MethodPost, "/tournaments/"+id+"/participants", "a", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPut, "/tournaments/"+id+"/status", "org", map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPut, "/tournaments/"+id+"/status", "org", map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode(t, rr)["tournament"].(map[string]any)
	assert.Equal(t, "active", got["status"])
	assert.Equal(t, true, got["manualStatusOverride"])

	rr = ts.do(t, http.MethodPut, "/tournaments/"+id+"/status", "org", map[string]any{"status": "upcoming"})
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/cancel", "a", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodPost, "/tournaments/"+id+"/cancel", "org", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "cancelled", decode(t, rr)["tournament"].(map[string]any)["status"])
	assert.Equal(t, "2000", ts.balance(t, "org"), "pool refunded")
	assert.Equal(t, "50", ts.balance(t, "a"), "entry fee refunded")
}

func TestReconcileHandler(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createTournament(t)
	ts.now = time.Date(2025, 6, 1, 17, 57, 0, 0, time.UTC)

	rr := ts.do(t, http.MethodPost, "/reconcile?job=reminders&dry_run=true", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	reports := decode(t, rr)["reports"].([]any)
	require.Len(t, reports, 1)
	assert.Equal(t, float64(1), reports[0].(map[string]any)["changed"])
	require.Equal(t, 1, ts.notif.Reminders())
	assert.True(t, ts.notif.SendReminderCalls[0].DryRun, "dry run only renders")
	ts.notif.Reset()

	rr = ts.do(t, http.MethodPost, "/reconcile?verbose=true", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["reports"], 2)
	assert.Equal(t, 1, ts.notif.Reminders())
	assert.Equal(t, id, ts.notif.SendReminderCalls[0].Tournament.ID)

	rr = ts.do(t, http.MethodPost, "/reconcile?job=payouts", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
