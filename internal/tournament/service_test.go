package tournament_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/prizeplay/internal/clock"
	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/mauv0809/prizeplay/internal/errs"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/mauv0809/prizeplay/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db      *sql.DB
	store   tournament.Store
	wallets wallet.Store
	svc     *tournament.Service
	metrics *metrics.Mock
	now     time.Time
}

// setupTestDB creates a temporary SQLite database and a service on a fixed clock.
func setupTestDB(t *testing.T) *fixture {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "tournament.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:      db,
		store:   tournament.New(db),
		wallets: wallet.New(db),
		metrics: metrics.NewMock(),
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = tournament.NewService(f.store, f.metrics).WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) user(t *testing.T, id string, balance string) {
	t.Helper()
	_, err := f.wallets.CreateUser(context.Background(), id, id, decimal.RequireFromString(balance))
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, id string) string {
	t.Helper()
	b, err := f.wallets.Balance(context.Background(), id)
	require.NoError(t, err)
	return b.String()
}

func params(prizes string) tournament.CreateParams {
	return tournament.CreateParams{
		Name:           "Summer Cup",
		OrganizerID:    "org",
		StartDate:      "2025-06-01",
		StartTime:      "18:00",
		Timezone:       "UTC",
		DurationMillis: int64(time.Hour / time.Millisecond),
		PrizeType:      prize.TypeFixed,
		Prizes:         json.RawMessage(prizes),
	}
}

func TestCreateReservesPool(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "2000")

	created, err := f.svc.Create(ctx, params(`{"amounts":[1000,500]}`))
	require.NoError(t, err)
	assert.Equal(t, "1500", created.TotalPool.String())
	assert.Equal(t, tournament.StatusUpcoming, created.Status)
	assert.Equal(t, "500", f.balance(t, "org"))

	txns, err := f.wallets.TournamentTransactions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, wallet.TypeFunding, txns[0].Type)
	assert.Equal(t, "1500", txns[0].Amount.String())

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1000", "500"}, []string{got.Prizes.Fixed.Amounts[0].String(), got.Prizes.Fixed.Amounts[1].String()})
}

func TestCreateRejects(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "1000")

	t.Run("entry fee above pool", func(t *testing.T) {
		p := params(`{"amounts":[300,200]}`)
		p.EntryFee = decimal.NewFromInt(600)
		_, err := f.svc.Create(ctx, p)
		assert.ErrorIs(t, err, tournament.ErrEntryFeeExceedsPool)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("insufficient funds leaves nothing behind", func(t *testing.T) {
		_, err := f.svc.Create(ctx, params(`{"amounts":[5000]}`))
		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

		var count int
		require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM tournaments`).Scan(&count))
		assert.Zero(t, count)
		assert.Equal(t, "1000", f.balance(t, "org"))
	})

	t.Run("too short", func(t *testing.T) {
		p := params(`{"amounts":[1]}`)
		p.DurationMillis = tournament.MinDurationMillis - 1
		_, err := f.svc.Create(ctx, p)
		assert.ErrorIs(t, err, tournament.ErrDurationTooShort)
	})

	t.Run("bad start time", func(t *testing.T) {
		p := params(`{"amounts":[1]}`)
		p.StartTime = "25:00"
		_, err := f.svc.Create(ctx, p)
		assert.ErrorIs(t, err, clock.ErrInvalidTimeFormat)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		p := params(`{"amounts":[1]}`)
		p.Timezone = "Mars/Base"
		_, err := f.svc.Create(ctx, p)
		assert.ErrorIs(t, err, clock.ErrInvalidTimezone)
	})

	t.Run("unknown organizer", func(t *testing.T) {
		p := params(`{"amounts":[1]}`)
		p.OrganizerID = "ghost"
		_, err := f.svc.Create(ctx, p)
		assert.ErrorIs(t, err, wallet.ErrUserNotFound)
	})
}

func TestCreateSponsoredSkipsDebit(t *testing.T) {
	f := setupTestDB(t)
	f.user(t, "org", "0")

	p := params(`{"1st":1000}`)
	p.FundingSource = tournament.FundingSponsor
	created, err := f.svc.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "1000", created.TotalPool.String())
	assert.Equal(t, "0", f.balance(t, "org"))
}

func TestLazyRefreshWritesBackStatus(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "100")
	created, err := f.svc.Create(ctx, params(`{"amounts":[100]}`))
	require.NoError(t, err)

	f.now = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusActive, got.Status)

	persisted, err := f.store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusActive, persisted.Status)
	assert.Equal(t, 1, f.metrics.StatusTransitions(string(tournament.StatusActive)))

	f.now = time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	got, err = f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusCompleted, got.Status)
}

func TestRegister(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "1000")
	f.user(t, "alice", "50")
	f.user(t, "bob", "5")

	p := params(`{"amounts":[500]}`)
	p.EntryFee = decimal.NewFromInt(10)
	created, err := f.svc.Create(ctx, p)
	require.NoError(t, err)

	got, err := f.svc.Register(ctx, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Participants)
	assert.Equal(t, "40", f.balance(t, "alice"))

	_, err = f.svc.Register(ctx, created.ID, "alice")
	assert.ErrorIs(t, err, tournament.ErrAlreadyRegistered)
	assert.Equal(t, "40", f.balance(t, "alice"))

	_, err = f.svc.Register(ctx, created.ID, "bob")
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	f.now = time.Date(2025, 6, 1, 18, 1, 0, 0, time.UTC)
	_, err = f.svc.Register(ctx, created.ID, "bob")
	assert.ErrorIs(t, err, tournament.ErrRegistrationClosed)
}

func TestSubmitResults(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "2000")
	for _, id := range []string{"a", "b", "c", "d"} {
		f.user(t, id, "0")
	}
	created, err := f.svc.Create(ctx, params(`{"amounts":[1000,500,250]}`))
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := f.svc.Register(ctx, created.ID, id)
		require.NoError(t, err)
	}
	results := []prize.Result{
		{ParticipantID: "d", Position: 4},
		{ParticipantID: "a", Position: 1},
		{ParticipantID: "b", Position: 2},
		{ParticipantID: "c", Position: 3},
	}

	_, err = f.svc.SubmitResults(ctx, created.ID, "org", results, nil)
	assert.ErrorIs(t, err, tournament.ErrResultsNotAccepted, "still upcoming")

	f.now = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

	_, err = f.svc.SubmitResults(ctx, created.ID, "a", results, nil)
	assert.ErrorIs(t, err, tournament.ErrNotOrganizer)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.SubmitResults(ctx, created.ID, "org", []prize.Result{{ParticipantID: "zed", Position: 1}}, nil)
	assert.ErrorIs(t, err, tournament.ErrInvalidResults)

	_, err = f.svc.SubmitResults(ctx, created.ID, "org", []prize.Result{{ParticipantID: "a", Position: 0}}, nil)
	assert.ErrorIs(t, err, tournament.ErrInvalidResults)

	tied := []prize.Result{{ParticipantID: "a", Position: 1}, {ParticipantID: "b", Position: 1}}
	_, err = f.svc.SubmitResults(ctx, created.ID, "org", tied, nil)
	assert.ErrorIs(t, err, tournament.ErrInvalidResults, "tied positions")

	gap := []prize.Result{{ParticipantID: "a", Position: 1}, {ParticipantID: "b", Position: 3}}
	_, err = f.svc.SubmitResults(ctx, created.ID, "org", gap, nil)
	assert.ErrorIs(t, err, tournament.ErrInvalidResults, "missing position 2")

	lines, err := f.svc.SubmitResults(ctx, created.ID, "org", results, nil)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "a", lines[0].ParticipantID)
	assert.Equal(t, "250", lines[2].Amount.String())

	got, preview, err := f.svc.Preview(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusCompleted, got.Status)
	assert.Equal(t, lines, preview)
}

func TestPreviewWithoutResults(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "100")
	created, err := f.svc.Create(ctx, params(`{"amounts":[100]}`))
	require.NoError(t, err)

	_, _, err = f.svc.Preview(ctx, created.ID)
	assert.ErrorIs(t, err, tournament.ErrNoResults)
}

func TestCancelRefunds(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "1000")
	f.user(t, "alice", "100")

	p := params(`{"amounts":[600]}`)
	p.EntryFee = decimal.NewFromInt(25)
	created, err := f.svc.Create(ctx, p)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, created.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, "400", f.balance(t, "org"))
	require.Equal(t, "75", f.balance(t, "alice"))

	_, err = f.svc.Cancel(ctx, created.ID, "alice")
	assert.ErrorIs(t, err, tournament.ErrNotOrganizer)

	got, err := f.svc.Cancel(ctx, created.ID, "org")
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusCancelled, got.Status)
	assert.Equal(t, "1000", f.balance(t, "org"))
	assert.Equal(t, "100", f.balance(t, "alice"))

	_, err = f.svc.Cancel(ctx, created.ID, "org")
	assert.ErrorIs(t, err, tournament.ErrNotCancellable)
}

func TestSetStatusOverride(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "100")
	created, err := f.svc.Create(ctx, params(`{"amounts":[100]}`))
	require.NoError(t, err)

	got, err := f.svc.SetStatus(ctx, created.ID, "org", tournament.StatusActive, true)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusActive, got.Status)
	assert.True(t, got.ManualStatusOverride)

	f.now = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	got, err = f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusActive, got.Status, "override stops the engine")

	got, err = f.svc.SetStatus(ctx, created.ID, "org", tournament.StatusActive, false)
	require.NoError(t, err)
	assert.Equal(t, tournament.StatusCompleted, got.Status, "engine resumes once the override is cleared")

	_, err = f.svc.SetStatus(ctx, created.ID, "org", "paused", true)
	assert.ErrorIs(t, err, tournament.ErrInvalidStatus)
}

func TestSetStatusOnlyMovesForward(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.user(t, "org", "1000")
	f.user(t, "alice", "100")
	f.user(t, "bob", "100")

	p := params(`{"amounts":[500]}`)
	p.EntryFee = decimal.NewFromInt(10)
	created, err := f.svc.Create(ctx, p)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, created.ID, "alice")
	require.NoError(t, err)

	f.now = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

	t.Run("active to upcoming", func(t *testing.T) {
		_, err := f.svc.SetStatus(ctx, created.ID, "org", tournament.StatusUpcoming, true)
		assert.ErrorIs(t, err, tournament.ErrStatusRegression)
		assert.ErrorIs(t, err, errs.ErrPolicyViolation)

		got, err := f.store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, tournament.StatusActive, got.Status)
		assert.False(t, got.ManualStatusOverride)
	})

	_, err = f.svc.SubmitResults(ctx, created.ID, "org", []prize.Result{{ParticipantID: "alice", Position: 1}}, nil)
	require.NoError(t, err)

	t.Run("completed to upcoming or active", func(t *testing.T) {
		for _, target := range []tournament.Status{tournament.StatusUpcoming, tournament.StatusActive} {
			_, err := f.svc.SetStatus(ctx, created.ID, "org", target, true)
			assert.ErrorIs(t, err, tournament.ErrStatusRegression, target)
		}

		_, err := f.svc.Register(ctx, created.ID, "bob")
		assert.ErrorIs(t, err, tournament.ErrRegistrationClosed)
		assert.Equal(t, "100", f.balance(t, "bob"))
	})

	t.Run("same status is allowed", func(t *testing.T) {
		got, err := f.svc.SetStatus(ctx, created.ID, "org", tournament.StatusCompleted, true)
		require.NoError(t, err)
		assert.Equal(t, tournament.StatusCompleted, got.Status)
		assert.True(t, got.ManualStatusOverride)
	})
}
