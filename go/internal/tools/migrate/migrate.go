package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/livepoll/go/internal/dbconfig"
	"github.com/mcdev12/livepoll/go/internal/dbschema"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// no arguments: the simple protocol runs every statement in one round trip
	if _, err := pool.Exec(ctx, dbschema.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema to %s: %v\n", cfg.Target(), err)
		os.Exit(1)
	}

	fmt.Printf("Schema applied to %s\n", cfg.Target())
}
