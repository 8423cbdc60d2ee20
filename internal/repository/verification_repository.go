package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sudosu-sys/Bingo-Game/internal/model"
)

// VerificationRepository handles the append-only claim audit log
type VerificationRepository struct {
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository() *VerificationRepository {
	return &VerificationRepository{}
}

// LockRound takes a transaction-scoped advisory lock keyed on the round
// hash, serializing rank assignment within a round. Released on commit or
// rollback.
func (r *VerificationRepository) LockRound(tx *sqlx.Tx, roundHash string) error {
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, roundHash); err != nil {
		return fmt.Errorf("failed to lock round: %w", err)
	}
	return nil
}

// FirstWinForCard returns the earliest winning log entry for the
// (card, round) pair, or nil when the card has not won this round yet.
func (r *VerificationRepository) FirstWinForCard(tx *sqlx.Tx, cardID, roundHash string) (*model.VerificationLog, error) {
	query := `
		SELECT id, card_id, called_numbers, winning_lines, is_winner,
		       round_hash, claim_index, assigned_rank, created_at
		FROM verification_logs
		WHERE card_id = $1 AND round_hash = $2 AND is_winner = TRUE
		ORDER BY created_at ASC
		LIMIT 1
	`

	var entry model.VerificationLog
	err := tx.Get(&entry, query, cardID, roundHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up prior win: %w", err)
	}

	return &entry, nil
}

// CountWinners counts the distinct cards that have already won in the
// round. Distinct, because a replayed winning claim appends another log
// entry without consuming a new rank.
func (r *VerificationRepository) CountWinners(tx *sqlx.Tx, roundHash string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT card_id)
		FROM verification_logs
		WHERE round_hash = $1 AND is_winner = TRUE
	`

	var count int
	if err := tx.Get(&count, query, roundHash); err != nil {
		return 0, fmt.Errorf("failed to count round winners: %w", err)
	}

	return count, nil
}

// Append inserts a new audit entry. Entries are never updated or deleted.
func (r *VerificationRepository) Append(tx *sqlx.Tx, entry *model.VerificationLog) error {
	query := `
		INSERT INTO verification_logs
			(card_id, called_numbers, winning_lines, is_winner, round_hash, claim_index, assigned_rank, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	entry.CreatedAt = time.Now()
	err := tx.Get(&entry.ID, query,
		entry.CardID, entry.CalledNumbers, entry.WinningLines, entry.IsWinner,
		entry.RoundHash, entry.ClaimIndex, entry.AssignedRank, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append verification log: %w", err)
	}

	return nil
}
