//go:build ignore

// Seed inserts random leads for one user:
//
//	go run scripts/seed.go -user 1 -count 120
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/lead-hunter/internal/database"
	"github.com/hugh/lead-hunter/internal/database/models"
	"github.com/hugh/lead-hunter/internal/leads"
	"github.com/hugh/lead-hunter/pkg/config"
	"github.com/hugh/lead-hunter/pkg/util"
	"github.com/joho/godotenv"
)

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Linus", "Margaret", "Ken", "Barbara", "Dennis", "Frances", "John"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Torvalds", "Hamilton", "Thompson", "Liskov", "Ritchie", "Allen", "Backus"}
	companies  = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries", "Wayne Enterprises", "Soylent"}
	places     = [][2]string{{"Austin", "TX"}, {"Denver", "CO"}, {"Seattle", "WA"}, {"Boston", "MA"}, {"Chicago", "IL"}, {"Miami", "FL"}}
)

func main() {
	userID := flag.Uint("user", 0, "owner user id")
	count := flag.Int("count", 120, "number of leads to insert")
	flag.Parse()

	if *userID == 0 {
		log.Fatal("-user is required")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var owner models.User
	if err := db.First(&owner, *userID).Error; err != nil {
		log.Fatalf("user %d not found: %v", *userID, err)
	}

	batch := make([]models.Lead, *count)
	for i := range batch {
		batch[i] = randomLead()
	}

	created, err := leads.NewGormStore(db).BulkInsert(context.Background(), owner.ID, batch)
	if err != nil {
		log.Fatalf("failed to insert leads: %v", err)
	}

	fmt.Printf("Inserted %d leads for %s\n", len(created), owner.Username)
}

func randomLead() models.Lead {
	first := pick(firstNames)
	last := pick(lastNames)
	place := places[rand.IntN(len(places))]

	lead := models.Lead{
		FirstName:   first,
		LastName:    last,
		Email:       strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, uuid.NewString()[:8])),
		Phone:       fmt.Sprintf("+1-555-%04d", rand.IntN(10000)),
		Company:     pick(companies),
		City:        place[0],
		State:       place[1],
		Source:      pick(models.LeadSources),
		Status:      pick(models.LeadStatuses),
		Score:       rand.IntN(101),
		LeadValue:   float64(rand.IntN(50000)) + float64(rand.IntN(100))/100,
		IsQualified: rand.IntN(2) == 0,
	}
	if rand.IntN(4) != 0 {
		at := time.Now().Add(-time.Duration(rand.IntN(90*24)) * time.Hour).UTC()
		lead.LastActivityAt = &at
	}
	return lead
}

func pick[T any](items []T) T {
	return items[rand.IntN(len(items))]
}
