package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quantumLottoServer/config"
	"quantumLottoServer/logger"
	"quantumLottoServer/lottery"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// PostgresPool is the global PostgreSQL connection pool
	PostgresPool *pgxpool.Pool
)

// InitPostgres initializes the PostgreSQL connection pool
func InitPostgres(cfg config.Env) error {
	logger.Info("🔌 Connecting to PostgreSQL...")

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = config.MaxOpenConns
	poolConfig.MinConns = config.MaxIdleConns
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime

	PostgresPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := PostgresPool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("✅ PostgreSQL connected successfully")

	// Initialize schema
	if err := InitSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// ClosePostgres closes the PostgreSQL connection pool
func ClosePostgres() {
	if PostgresPool != nil {
		logger.Info("🔌 Closing PostgreSQL connection...")
		PostgresPool.Close()
	}
}

// InitSchema creates the database tables if they don't exist
func InitSchema(ctx context.Context) error {
	logger.Info("📋 Initializing database schema...")

	drawsSchema := `
	CREATE TABLE IF NOT EXISTS draws (
		id TEXT PRIMARY KEY,
		numbers_per_game INT NOT NULL,
		number_range INT NOT NULL,
		num_games INT NOT NULL,
		bits_per_game INT NOT NULL,
		games JSONB NOT NULL,
		source TEXT NOT NULL,
		backend TEXT,
		job_id TEXT,
		seed_hash TEXT,
		measured_bits TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Index on created_at for recent-draw queries
	CREATE INDEX IF NOT EXISTS idx_draws_created_at ON draws(created_at DESC);

	-- Index on source to split quantum from fallback draws
	CREATE INDEX IF NOT EXISTS idx_draws_source ON draws(source);
	`

	if _, err := PostgresPool.Exec(ctx, drawsSchema); err != nil {
		return fmt.Errorf("failed to create draws table: %w", err)
	}

	logger.Info("✅ Database schema initialized")
	return nil
}

/* =========================
   DRAW HISTORY
========================= */

// SaveDraw stores a completed draw in PostgreSQL
func SaveDraw(ctx context.Context, record *lottery.DrawRecord) error {
	if PostgresPool == nil {
		logger.Warn("⚠️  PostgreSQL not initialized, skipping draw storage")
		return nil
	}

	gamesJSON, err := json.Marshal(record.Games)
	if err != nil {
		return fmt.Errorf("failed to marshal games: %w", err)
	}

	query := `
		INSERT INTO draws
		(id, numbers_per_game, number_range, num_games, bits_per_game,
		 games, source, backend, job_id, seed_hash, measured_bits, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = PostgresPool.Exec(
		ctx,
		query,
		record.ID,
		record.Params.NumbersPerGame,
		record.Params.NumberRange,
		record.Params.NumGames,
		record.BitsPerGame,
		gamesJSON,
		record.Source,
		record.Backend,
		record.JobID,
		record.SeedHash,
		record.MeasuredBits,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to store draw: %w", err)
	}

	logger.Infof("✅ Stored draw - ID: %s, Source: %s, Games: %d",
		record.ID, record.Source, len(record.Games))
	return nil
}

// GetDraw retrieves a draw by its ID
func GetDraw(ctx context.Context, drawID string) (*lottery.DrawRecord, error) {
	if PostgresPool == nil {
		return nil, nil
	}

	query := `
		SELECT id, numbers_per_game, number_range, num_games, bits_per_game,
		       games, source, backend, job_id, seed_hash, measured_bits, created_at
		FROM draws
		WHERE id = $1
	`

	record, err := scanDraw(PostgresPool.QueryRow(ctx, query, drawID))
	if err == pgx.ErrNoRows {
		return nil, nil // Draw not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	return record, nil
}

// GetRecentDraws retrieves the N most recent draws
func GetRecentDraws(ctx context.Context, limit int) ([]*lottery.DrawRecord, error) {
	if PostgresPool == nil {
		return []*lottery.DrawRecord{}, nil
	}

	query := `
		SELECT id, numbers_per_game, number_range, num_games, bits_per_game,
		       games, source, backend, job_id, seed_hash, measured_bits, created_at
		FROM draws
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := PostgresPool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	var records []*lottery.DrawRecord
	for rows.Next() {
		record, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraw(row rowScanner) (*lottery.DrawRecord, error) {
	var record lottery.DrawRecord
	var gamesJSON []byte

	err := row.Scan(
		&record.ID,
		&record.Params.NumbersPerGame,
		&record.Params.NumberRange,
		&record.Params.NumGames,
		&record.BitsPerGame,
		&gamesJSON,
		&record.Source,
		&record.Backend,
		&record.JobID,
		&record.SeedHash,
		&record.MeasuredBits,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(gamesJSON, &record.Games); err != nil {
		return nil, fmt.Errorf("failed to unmarshal games: %w", err)
	}
	return &record, nil
}

/* =========================
   HEALTH CHECK
========================= */

// HealthCheckPostgres performs a PostgreSQL health check
func HealthCheckPostgres(ctx context.Context) error {
	if PostgresPool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}
	return PostgresPool.Ping(ctx)
}
