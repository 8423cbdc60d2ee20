package database

import (
	"context"
	"fmt"
	"log"
)

// schema is applied idempotently on startup. Uniqueness of card_id, numbers
// and key plus the round_hash index are load-bearing: the allocator's retry
// loop and the ranking ledger both depend on them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS packages (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		price NUMERIC(6,2) NOT NULL,
		package_type VARCHAR(10) NOT NULL CHECK (package_type IN ('fixed', 'unlimited')),
		game_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS serial_keys (
		key VARCHAR(50) PRIMARY KEY,
		package_id BIGINT NOT NULL REFERENCES packages(id),
		activated BOOLEAN NOT NULL DEFAULT FALSE,
		valid_until TIMESTAMPTZ NOT NULL,
		generated_cards INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS bingo_cards (
		card_id VARCHAR(3) PRIMARY KEY,
		numbers VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		used BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS verification_logs (
		id BIGSERIAL PRIMARY KEY,
		card_id VARCHAR(3) NOT NULL REFERENCES bingo_cards(card_id),
		called_numbers JSONB NOT NULL,
		winning_lines JSONB NOT NULL,
		is_winner BOOLEAN NOT NULL DEFAULT FALSE,
		round_hash VARCHAR(64) NOT NULL DEFAULT '',
		claim_index INTEGER NOT NULL DEFAULT 0,
		assigned_rank INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_verification_logs_round_hash
		ON verification_logs (round_hash)`,
}

// defaultPackages is the static catalog seeded when missing.
var defaultPackages = []struct {
	name        string
	price       float64
	packageType string
	gameCount   *int
}{
	{"Starter 100", 20.00, "fixed", intPtr(100)},
	{"Standard 200", 30.00, "fixed", intPtr(200)},
	{"Monthly Unlimited", 50.00, "unlimited", nil},
}

func intPtr(n int) *int { return &n }

// EnsureSchema creates the tables, constraints and indexes if they do not
// exist yet, and seeds the package catalog.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Postgres.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	for _, p := range defaultPackages {
		_, err := db.Postgres.ExecContext(ctx, `
			INSERT INTO packages (name, price, package_type, game_count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING
		`, p.name, p.price, p.packageType, p.gameCount)
		if err != nil {
			return fmt.Errorf("failed to seed package %q: %w", p.name, err)
		}
	}

	log.Println("Database schema ensured")
	return nil
}
