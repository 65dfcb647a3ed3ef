package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mcdev12/kiradelay/go/internal/dbconfig"
	"github.com/mcdev12/kiradelay/go/internal/kvstore"
	"github.com/rs/zerolog/log"
)

// setupStore opens the key-value store selected by config
func setupStore(ctx context.Context, config *Config) (kvstore.Store, error) {
	switch config.Storage.Backend {
	case StorageMemory:
		log.Warn().Msg("using in-memory storage, profiles will not survive a restart")
		return kvstore.NewMemory(), nil

	case StorageFile:
		store, err := kvstore.OpenFile(config.Storage.FilePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", config.Storage.FilePath).Msg("using file storage")
		return store, nil

	case StoragePostgres:
		database, err := setupDatabase(ctx)
		if err != nil {
			return nil, err
		}
		store, err := kvstore.NewPostgres(ctx, database, config.Storage.Table)
		if err != nil {
			database.Close()
			return nil, err
		}
		return store, nil

	case StoragePgx:
		dbCfg := dbconfig.NewConfigFromEnv()
		pool, err := pgxpool.New(ctx, dbCfg.PoolDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store, err := kvstore.NewPool(ctx, pool, config.Storage.Table)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Str("host", dbCfg.Host).Str("database", dbCfg.Database).Msg("connected to database with pgx pool")
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
}

func setupDatabase(ctx context.Context) (*sql.DB, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	database.SetMaxOpenConns(dbCfg.MaxConns)

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("user", dbCfg.User).
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")
	return database, nil
}
