package model

import (
	"time"
)

// BingoCard represents an issued bingo card in the database.
// The 5x5 grid is stored as the canonical comma-joined permutation of 1..25;
// both card_id and numbers carry uniqueness constraints.
type BingoCard struct {
	CardID    string    `db:"card_id" json:"card_id"`
	Numbers   string    `db:"numbers" json:"numbers"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Used      bool      `db:"used" json:"used"`
}
