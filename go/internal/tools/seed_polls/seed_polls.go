package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/livepoll/go/internal/dbconfig"
)

// DemoPoll mirrors an entry of demo_polls.json. IDs are fixed so reseeding
// skips polls that already exist.
type DemoPoll struct {
	ID              uuid.UUID    `json:"id"`
	Question        string       `json:"question"`
	DurationSeconds int          `json:"duration_seconds"`
	Options         []DemoOption `json:"options"`
}

type DemoOption struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	// 1) Load demo_polls.json
	data, err := os.ReadFile("go/internal/assets/demo_polls.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read demo_polls.json: %v\n", err)
		os.Exit(1)
	}
	var demoPolls []DemoPoll
	if err := json.Unmarshal(data, &demoPolls); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal demo polls: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert each poll with its options atomically
	var (
		total    = len(demoPolls)
		inserted int
		skipped  int
		errs     int
	)
	now := time.Now().UTC()

	for _, p := range demoPolls {
		created := false
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `
                INSERT INTO polls (id, question, duration_seconds, status, created_at, updated_at)
                VALUES ($1, $2, $3, 'CREATED', $4, $4)
                ON CONFLICT (id) DO NOTHING
            `, p.ID, p.Question, p.DurationSeconds, now)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}

			for i, opt := range p.Options {
				if _, err := tx.Exec(ctx, `
                    INSERT INTO poll_options (id, poll_id, option_text, option_index, created_at)
                    VALUES ($1, $2, $3, $4, $5)
                `, opt.ID, p.ID, opt.Text, i, now); err != nil {
					return fmt.Errorf("option %d: %w", i, err)
				}
			}
			created = true
			return nil
		})
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "error inserting poll %s: %v\n", p.ID, err)
			errs++
		case created:
			inserted++
		default:
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Polls seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
