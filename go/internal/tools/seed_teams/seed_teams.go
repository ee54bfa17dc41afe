package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/bracketpool/calcutta/go/internal/dbconfig"
)

var regions = []string{"South", "West", "East", "Midwest"}

// teamNames holds 16 teams per region in seed order.
var teamNames = []string{
	// South Region
	"Duke", "Florida State", "Villanova", "Memphis", "Iowa State", "Texas Tech", "Clemson", "Marquette",
	"Oklahoma", "Utah", "Nevada", "Richmond", "Charleston", "Iona", "Vermont", "Fairleigh Dickinson",
	// West Region
	"Kansas", "UCLA", "Gonzaga", "Northwestern", "Saint Mary's", "TCU", "Michigan State", "Maryland",
	"West Virginia", "Boise State", "NC State", "Drake", "Furman", "UC Santa Barbara", "Howard", "Texas A&M Corpus Christi",
	// East Region
	"Purdue", "Texas", "Xavier", "Virginia", "Miami FL", "Indiana", "Iowa", "Kentucky",
	"Auburn", "Penn State", "Pittsburgh", "Providence", "Oral Roberts", "Louisiana", "Montana State", "Texas Southern",
	// Midwest Region
	"Houston", "Arizona", "Baylor", "Alabama", "San Diego State", "Creighton", "Missouri", "USC",
	"Illinois", "Arkansas", "Arizona State", "VCU", "Akron", "Grand Canyon", "Colgate", "Northern Kentucky",
}

func main() {
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	seedAdmin(pool)
	seedTeams(pool)
}

// seedAdmin creates the initial admin account if no user holds the name yet.
func seedAdmin(pool *pgxpool.Pool) {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash admin password: %v\n", err)
		os.Exit(1)
	}

	cmdTag, err := pool.Exec(context.Background(), `
        INSERT INTO users (id, username, password_hash, role)
        VALUES ($1, 'admin', $2, 'admin')
        ON CONFLICT (username) DO NOTHING
    `, uuid.New(), string(hash))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating admin user: %v\n", err)
		os.Exit(1)
	}
	if cmdTag.RowsAffected() == 1 {
		fmt.Println("Created admin user (username: admin)")
	} else {
		fmt.Println("Admin user already exists, skipped")
	}
}

// seedTeams upserts the 64-team field: 4 regions, seeds 1 through 16.
func seedTeams(pool *pgxpool.Pool) {
	var (
		total    = len(teamNames)
		inserted int
		skipped  int
		errs     int
	)

	for i, name := range teamNames {
		region := regions[i/16]
		seed := i%16 + 1

		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO teams (id, name, region, seed)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (name, region) DO NOTHING
        `, uuid.New(), name, region, seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting team %s: %v\n", name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	fmt.Printf(
		"Teams seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
