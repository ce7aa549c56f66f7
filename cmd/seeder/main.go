package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/config"
	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/mauv0809/prizeplay/internal/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var seedUsers = []struct {
	id, name string
	balance  int64
}{
	{"organizer-1", "Seeder Organizer", 10000},
	{"player-1", "Seeder Player A", 100},
	{"player-2", "Seeder Player B", 100},
	{"player-3", "Seeder Player C", 100},
	{"player-4", "Seeder Player D", 100},
}

// Seeds demo users and three tournaments, one per prize type. The first one
// starts a few minutes from now so the reminder sweep picks it up.
func main() {
	log.Info("Starting database seeder...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	db, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()
	log.Info("Successfully connected to the database.")

	ctx := context.Background()
	wallets := wallet.New(db)
	for _, u := range seedUsers {
		if _, err := wallets.CreateUser(ctx, u.id, u.name, decimal.NewFromInt(u.balance)); err != nil {
			log.Fatal("Failed to insert user", "userID", u.id, "error", err)
		}
	}
	log.Info("Ensured seed users exist.", "count", len(seedUsers))

	// Seeding must not touch the default registry of a running server.
	svc := tournament.NewService(tournament.New(db), metrics.NewService(prometheus.NewRegistry()))

	start := time.Now().UTC().Add(8 * time.Minute)
	demos := []struct {
		name      string
		prizeType prize.Type
		prizes    string
		start     time.Time
	}{
		{"Seeded Fixed Cup", prize.TypeFixed, `{"amounts":[500,250,100]}`, start},
		{"Seeded Percentage Cup", prize.TypePercentage, `{"basePrizePool":1000,"first":50,"second":30,"third":20}`, start.Add(time.Hour)},
		{"Seeded Special Cup", prize.TypeSpecial, `{"isFixed":true,"specialPrizes":[{"category":"MVP","amount":200},{"category":"Fair Play","amount":50}]}`, start.Add(2 * time.Hour)},
	}

	for _, d := range demos {
		t, err := svc.Create(ctx, tournament.CreateParams{
			Name:           d.name,
			Description:    "Created by the seeder",
			OrganizerID:    seedUsers[0].id,
			StartDate:      d.start.Format("2006-01-02"),
			StartTime:      d.start.Format("15:04"),
			Timezone:       "UTC",
			DurationMillis: int64(30 * time.Minute / time.Millisecond),
			PrizeType:      d.prizeType,
			Prizes:         json.RawMessage(d.prizes),
			EntryFee:       decimal.NewFromInt(5),
		})
		if err != nil {
			log.Fatal("Failed to create tournament", "name", d.name, "error", err)
		}
		for _, u := range seedUsers[1:] {
			if _, err := svc.Register(ctx, t.ID, u.id); err != nil {
				log.Fatal("Failed to register player", "tournamentID", t.ID, "userID", u.id, "error", err)
			}
		}
		log.Info("Seeded tournament", "tournamentID", t.ID, "name", t.Name, "pool", t.TotalPool, "startsAt", fmt.Sprintf("%s %s UTC", t.StartDate, t.StartTime))
	}
	log.Info("Seeding finished.")
}
