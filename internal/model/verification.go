package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// IntList is an []int stored as a JSONB column.
type IntList []int

// Value implements driver.Valuer
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		l = IntList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	// string, not []byte: pq would send raw bytes as bytea
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *IntList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into IntList", src)
	}
}

// WinningLines is the structured match result stored with each claim:
// indexes of matched rows/columns, matched diagonals ("main"/"anti"),
// and the [row,col] coordinates of every cell on a matched line.
type WinningLines struct {
	Rows      []int    `json:"rows"`
	Cols      []int    `json:"cols"`
	Diagonals []string `json:"diagonals"`
	Cells     [][2]int `json:"cells"`
}

// Value implements driver.Valuer
func (w WinningLines) Value() (driver.Value, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (w *WinningLines) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	default:
		return fmt.Errorf("cannot scan %T into WinningLines", src)
	}
}

// VerificationLog is one append-only audit record per verification attempt.
// RoundHash groups all claims made against the same shuffled sequence;
// AssignedRank is the 1-based finishing place, set only for winning entries.
type VerificationLog struct {
	ID            int64        `db:"id" json:"id"`
	CardID        string       `db:"card_id" json:"card_id"`
	CalledNumbers IntList      `db:"called_numbers" json:"called_numbers"`
	WinningLines  WinningLines `db:"winning_lines" json:"winning_lines"`
	IsWinner      bool         `db:"is_winner" json:"is_winner"`
	RoundHash     string       `db:"round_hash" json:"round_hash"`
	ClaimIndex    int          `db:"claim_index" json:"claim_index"`
	AssignedRank  *int         `db:"assigned_rank" json:"assigned_rank"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
