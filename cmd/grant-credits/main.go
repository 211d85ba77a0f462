package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/database"
	"github.com/prajna-app/prajna-backend/internal/logger"
	"github.com/prajna-app/prajna-backend/internal/repository"
)

// grant-credits adds (or with a negative amount, removes) credits for one or
// more users. Users without a balance start from DEFAULT_CREDITS.
//
//	grant-credits -amount 30 user-1 user-2
//	grant-credits -amount 30 < users.txt
func main() {
	var amount int
	var dryRun bool
	flag.IntVar(&amount, "amount", 0, "Credits to add; negative values remove credits")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the users that would be changed and exit")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "grant_credits").Logger()

	if amount == 0 {
		fmt.Println("Usage: grant-credits -amount <n> [user_id ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	userIDs := flag.Args()
	if len(userIDs) == 0 {
		userIDs = readUserIDs(os.Stdin)
	}
	if len(userIDs) == 0 {
		log.Fatal().Msg("No user ids given")
	}

	if dryRun {
		for _, id := range userIDs {
			fmt.Printf("%s %+d\n", id, amount)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	creditRepo := repository.NewCreditRepository(pool)

	// ─── Logic ─────────────────────────────────────────────────────────
	failed := 0
	for _, id := range userIDs {
		c, err := creditRepo.Add(ctx, id, cfg.DefaultCredits, amount)
		if err != nil {
			failed++
			log.Error().Err(err).Str("user_id", id).Msg("Failed to grant credits")
			continue
		}
		log.Info().Str("user_id", c.UserID).Int("credit", c.Credit).Msg("Credits granted")
	}

	fmt.Printf("\nDone: %d updated, %d failed\n", len(userIDs)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// readUserIDs reads one user id per line, skipping blanks and # comments.
func readUserIDs(f *os.File) []string {
	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids
}
