package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sudosu-sys/Bingo-Game/internal/model"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, the one failure class the allocator retry loop may absorb.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// SerialKeyRepository handles serial key and package data operations
type SerialKeyRepository struct {
}

// NewSerialKeyRepository creates a new serial key repository
func NewSerialKeyRepository() *SerialKeyRepository {
	return &SerialKeyRepository{}
}

const serialKeyColumns = `
	sk.key, sk.package_id, sk.activated, sk.valid_until, sk.generated_cards,
	p.id AS "package.id",
	p.name AS "package.name",
	p.price AS "package.price",
	p.package_type AS "package.package_type",
	p.game_count AS "package.game_count"
`

// GetForUpdate loads a serial key with its package under an exclusive lock
// on the key row, serializing concurrent reservations against the same key.
func (r *SerialKeyRepository) GetForUpdate(tx *sqlx.Tx, key string) (*model.SerialKey, error) {
	query := `
		SELECT ` + serialKeyColumns + `
		FROM serial_keys sk
		JOIN packages p ON p.id = sk.package_id
		WHERE sk.key = $1
		FOR UPDATE OF sk
	`

	var sk model.SerialKey
	err := tx.Get(&sk, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("serial key: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to lock serial key: %w", err)
	}

	return &sk, nil
}

// Get loads a serial key with its package without locking
func (r *SerialKeyRepository) Get(db DBExecutor, key string) (*model.SerialKey, error) {
	query := `
		SELECT ` + serialKeyColumns + `
		FROM serial_keys sk
		JOIN packages p ON p.id = sk.package_id
		WHERE sk.key = $1
	`

	var sk model.SerialKey
	err := db.Get(&sk, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("serial key: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get serial key: %w", err)
	}

	return &sk, nil
}

// UpdateUsage persists the activation flag and consumed-quota counter. Must
// run in the same transaction that locked the row and generated the batch.
func (r *SerialKeyRepository) UpdateUsage(tx *sqlx.Tx, key string, activated bool, generatedCards int) error {
	query := `
		UPDATE serial_keys
		SET activated = $1, generated_cards = $2
		WHERE key = $3
	`

	result, err := tx.Exec(query, activated, generatedCards, key)
	if err != nil {
		return fmt.Errorf("failed to update serial key usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("serial key not found")
	}

	return nil
}

// Create inserts a freshly minted serial key
func (r *SerialKeyRepository) Create(db DBExecutor, sk *model.SerialKey) error {
	query := `
		INSERT INTO serial_keys (key, package_id, activated, valid_until, generated_cards)
		VALUES ($1, $2, FALSE, $3, 0)
	`

	if _, err := db.Exec(query, sk.Key, sk.PackageID, sk.ValidUntil); err != nil {
		return fmt.Errorf("failed to create serial key: %w", err)
	}

	return nil
}

// GetPackage retrieves a package by ID
func (r *SerialKeyRepository) GetPackage(db DBExecutor, id int64) (*model.Package, error) {
	query := `
		SELECT id, name, price, package_type, game_count
		FROM packages
		WHERE id = $1
	`

	var p model.Package
	err := db.Get(&p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("package %d: %w", id, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return &p, nil
}

// ListPackages returns the static package catalog
func (r *SerialKeyRepository) ListPackages(db DBExecutor) ([]model.Package, error) {
	query := `
		SELECT id, name, price, package_type, game_count
		FROM packages
		ORDER BY id ASC
	`

	packages := []model.Package{}
	if err := db.Select(&packages, query); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	return packages, nil
}
