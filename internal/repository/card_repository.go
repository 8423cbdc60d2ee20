package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sudosu-sys/Bingo-Game/internal/model"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// CardRepository handles bingo card data operations
type CardRepository struct {
}

// NewCardRepository creates a new card repository
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

const maxCardID = 999

// AllocateNextID locks the most recently created card row and computes the
// next identifier in the cyclic 001..999 sequence. The lock is held until
// the enclosing transaction ends, serializing concurrent allocations.
// Ordering is by creation time rather than numeric value; the caller's
// bounded retry absorbs the reissue collisions this can produce.
func (r *CardRepository) AllocateNextID(tx *sqlx.Tx) (string, error) {
	query := `
		SELECT card_id
		FROM bingo_cards
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	var lastID string
	err := tx.Get(&lastID, query)
	if err == sql.ErrNoRows {
		return "001", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock allocation tail: %w", err)
	}

	return nextCardID(lastID)
}

// nextCardID computes last+1 with wraparound at the top of the range.
func nextCardID(last string) (string, error) {
	n, err := strconv.Atoi(last)
	if err != nil {
		return "", fmt.Errorf("stored card id %q is not numeric: %w", last, err)
	}
	if n < maxCardID {
		n++
	} else {
		n = 1
	}
	return fmt.Sprintf("%03d", n), nil
}

// Insert persists a new card. A unique-constraint violation on either
// card_id or numbers surfaces as-is so the caller can distinguish it.
func (r *CardRepository) Insert(tx *sqlx.Tx, card *model.BingoCard) error {
	query := `
		INSERT INTO bingo_cards (card_id, numbers, created_at, used)
		VALUES ($1, $2, $3, FALSE)
	`

	card.CreatedAt = time.Now()
	if _, err := tx.Exec(query, card.CardID, card.Numbers, card.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}

	return nil
}

// GetByID retrieves a card by its 3-digit identifier
func (r *CardRepository) GetByID(db DBExecutor, cardID string) (*model.BingoCard, error) {
	query := `
		SELECT card_id, numbers, created_at, used
		FROM bingo_cards
		WHERE card_id = $1
	`

	var card model.BingoCard
	err := db.Get(&card, query, cardID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("card %s: %w", cardID, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &card, nil
}

// ListAvailableIDs returns the ids of all unused cards, sorted
func (r *CardRepository) ListAvailableIDs(db DBExecutor) ([]string, error) {
	query := `
		SELECT card_id
		FROM bingo_cards
		WHERE used = FALSE
		ORDER BY card_id ASC
	`

	ids := []string{}
	if err := db.Select(&ids, query); err != nil {
		return nil, fmt.Errorf("failed to list available cards: %w", err)
	}

	return ids, nil
}

// MarkUsed flips the card's one-way used flag. Zero rows affected means a
// concurrent claim already made the transition; the flag only ever moves
// false→true, so that is success, not an error.
func (r *CardRepository) MarkUsed(db DBExecutor, cardID string) error {
	query := `
		UPDATE bingo_cards
		SET used = TRUE
		WHERE card_id = $1 AND used = FALSE
	`

	if _, err := db.Exec(query, cardID); err != nil {
		return fmt.Errorf("failed to mark card as used: %w", err)
	}

	return nil
}
