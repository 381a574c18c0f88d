// Command importpool loads deposit pool addresses from a flat file, one
// address per line, deduplicated against existing pool entries.
//
// Usage: importpool deposit_addresses.txt
package main

import (
	"context"
	"fmt"
	"os"

	"thrum-backend/internal/common/config"
	"thrum-backend/internal/common/logger"
	poolpg "thrum-backend/internal/features/pool/repository/postgres"
	poolservice "thrum-backend/internal/features/pool/service"
	"thrum-backend/internal/platform/db"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: importpool <addresses-file>")
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init("importpool", cfg.Debug)

	listing, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Fatal().Err(err).Msg("read addresses file")
	}

	ctx := context.Background()

	pg, err := db.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres open")
	}
	defer pg.Close()

	if err := db.EnsureSchema(ctx, pg); err != nil {
		logger.Fatal().Err(err).Msg("schema bootstrap")
	}

	pool := poolservice.NewPoolService(poolpg.NewPostgresRepository(pg))

	inserted, err := pool.Import(ctx, string(listing))
	if err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}

	logger.Info().Int("inserted", inserted).Msg("deposit pool import done")
}
