package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/kiradelay/go/internal/dbconfig"
	"github.com/mcdev12/kiradelay/go/internal/kvstore"
	"github.com/mcdev12/kiradelay/go/internal/profiles"
)

func main() {
	rosterPath := flag.String("roster", "go/internal/assets/roster.yaml", "YAML file listing players")
	table := flag.String("table", "kv_state", "key-value table name")
	flag.Parse()

	ctx := context.Background()

	// 1) Load the roster
	data, err := os.ReadFile(*rosterPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read roster: %v\n", err)
		os.Exit(1)
	}
	players, err := parseRoster(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse roster: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.PoolDSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	store, err := kvstore.NewPool(ctx, pool, *table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	app := profiles.NewApp(profiles.NewRepository(store))

	existing, err := app.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list profiles: %v\n", err)
		os.Exit(1)
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[strings.ToLower(p.Name)] = true
	}

	// 3) Create missing profiles and count
	var (
		total   = len(players)
		created int
		skipped int
		errs    int
	)

	for _, player := range players {
		profile, err := app.FindOrCreate(ctx, player.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error seeding %q: %v\n", player.Name, err)
			errs++
			continue
		}
		if player.NotificationsEnabled != nil && *player.NotificationsEnabled != profile.NotificationsEnabled {
			if _, err := app.SetNotificationPreference(ctx, profile.ID, *player.NotificationsEnabled); err != nil {
				fmt.Fprintf(os.Stderr, "error updating %q: %v\n", player.Name, err)
				errs++
				continue
			}
		}
		if known[strings.ToLower(profile.Name)] {
			skipped++
			continue
		}
		known[strings.ToLower(profile.Name)] = true
		created++
	}

	// 4) Print summary
	fmt.Printf(
		"Profiles seed complete: %d total, %d created, %d existing, %d errors\n",
		total, created, skipped, errs,
	)
}
