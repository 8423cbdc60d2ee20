package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sudosu-sys/Bingo-Game/internal/bingo"
	"github.com/sudosu-sys/Bingo-Game/internal/metrics"
	"github.com/sudosu-sys/Bingo-Game/internal/model"
	"github.com/sudosu-sys/Bingo-Game/internal/repository"
)

// maxAllocateAttempts bounds the allocate-and-insert retry cycle. Collisions
// on either the card id or the permutation are retried until the bound,
// then the whole batch fails with ErrAllocationExhausted.
const maxAllocateAttempts = 5

// BingoServer implements the card issuance and verification operations
type BingoServer struct {
	postgres *sqlx.DB
	cards    *repository.CardRepository
	keys     *repository.SerialKeyRepository
	claims   *repository.VerificationRepository
}

// NewBingoServer creates a new BingoServer instance
func NewBingoServer(postgres *sqlx.DB) *BingoServer {
	return &BingoServer{
		postgres: postgres,
		cards:    repository.NewCardRepository(),
		keys:     repository.NewSerialKeyRepository(),
		claims:   repository.NewVerificationRepository(),
	}
}

// GeneratedCard is one issued card with its presentation grid
type GeneratedCard struct {
	CardID string     `json:"card_id"`
	Grid   bingo.Grid `json:"grid"`
}

// GenerateResult is the outcome of a quota-gated generation batch
type GenerateResult struct {
	Cards          []GeneratedCard `json:"cards"`
	AllowedCount   int             `json:"allowed_count"`
	RequestedCount int             `json:"requested_count"`
	InfoMessage    string          `json:"info_message,omitempty"`
	RemainingAfter *int            `json:"remaining_after,omitempty"`
	PackageType    string          `json:"package_type"`
	ValidUntil     time.Time       `json:"valid_until"`
}

// GenerateCards issues up to requested cards against the serial key's quota.
// The key row is locked for the whole batch; quota consumption, activation
// and every card commit atomically, or not at all.
func (s *BingoServer) GenerateCards(ctx context.Context, serialKey string, requested int) (*GenerateResult, error) {
	start := time.Now()
	status := "failed"
	defer func() {
		metrics.RecordGenerateDuration(status, time.Since(start).Seconds())
	}()

	if requested < 1 {
		requested = 1
	}

	tx, err := s.postgres.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Serial-key lock first, allocation-tail lock second. Every path keeps
	// this order, so the two locks cannot deadlock against each other.
	sk, err := s.keys.GetForUpdate(tx, serialKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}

	// First use activates the key; persisted with the rest of the batch.
	if !sk.Activated {
		sk.Activated = true
	}

	allowed := requested
	if sk.Package.PackageType == model.PackageTypeFixed {
		remaining, _ := sk.RemainingCards()
		if remaining <= 0 {
			return nil, ErrQuotaExhausted
		}
		if allowed > remaining {
			allowed = remaining
		}
	} else {
		// unlimited: no numeric cap, but must be inside the time window
		if !sk.IsValidNow(time.Now()) {
			return nil, ErrExpired
		}
	}

	cards := make([]GeneratedCard, 0, allowed)
	for i := 0; i < allowed; i++ {
		card, err := s.createCard(tx)
		if err != nil {
			return nil, err
		}
		numbers, err := bingo.ParseNumbers(card.Numbers)
		if err != nil {
			return nil, fmt.Errorf("generated card failed to parse: %w", err)
		}
		cards = append(cards, GeneratedCard{CardID: card.CardID, Grid: bingo.Reshape(numbers)})
	}

	if sk.Package.PackageType == model.PackageTypeFixed {
		sk.GeneratedCards += allowed
	}
	if err := s.keys.UpdateUsage(tx, sk.Key, sk.Activated, sk.GeneratedCards); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	status = "success"
	metrics.CardsGenerated.Add(float64(allowed))

	result := &GenerateResult{
		Cards:          cards,
		AllowedCount:   allowed,
		RequestedCount: requested,
		PackageType:    sk.Package.PackageType,
		ValidUntil:     sk.ValidUntil,
	}
	if allowed < requested {
		result.InfoMessage = fmt.Sprintf(
			"Generated %d of %d requested card(s) due to serial key quota.", allowed, requested)
	}
	if remaining, ok := sk.RemainingCards(); ok {
		result.RemainingAfter = &remaining
	}

	return result, nil
}

// createCard runs one allocate-and-insert cycle under the bounded retry.
// Each attempt is wrapped in a savepoint so a unique violation on card_id
// or numbers aborts only the attempt, not the enclosing batch.
func (s *BingoServer) createCard(tx *sqlx.Tx) (*model.BingoCard, error) {
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		if _, err := tx.Exec(`SAVEPOINT allocate_card`); err != nil {
			return nil, fmt.Errorf("failed to create savepoint: %w", err)
		}

		card := &model.BingoCard{Numbers: bingo.Canonical(bingo.Shuffle())}

		nextID, err := s.cards.AllocateNextID(tx)
		if err == nil {
			card.CardID = nextID
			err = s.cards.Insert(tx, card)
		}
		if err == nil {
			if _, err := tx.Exec(`RELEASE SAVEPOINT allocate_card`); err != nil {
				return nil, fmt.Errorf("failed to release savepoint: %w", err)
			}
			return card, nil
		}

		if !repository.IsUniqueViolation(err) {
			return nil, err
		}
		if _, err := tx.Exec(`ROLLBACK TO SAVEPOINT allocate_card`); err != nil {
			return nil, fmt.Errorf("failed to roll back savepoint: %w", err)
		}
	}

	return nil, ErrAllocationExhausted
}

// VerifyRequest carries one claim against a called-numbers snapshot
type VerifyRequest struct {
	CardID        string
	CalledNumbers string   // comma-separated snapshot; malformed input degrades to empty
	FullSequence  []int    // optional 25-number shuffle for round fingerprinting
	AllowedCards  []string // optional round membership list
}

// VerifyResult is the outcome of one claim
type VerifyResult struct {
	Message      string          `json:"message"`
	CardID       string          `json:"card_id"`
	Win          bool            `json:"win"`
	WinningLines bingo.WinResult `json:"winning_lines"`
	AlreadyUsed  bool            `json:"already_used"`
	Rank         *int            `json:"rank"`
	CardGrid     bingo.Grid      `json:"card_grid"`
}

// VerifyCard evaluates a claim, appends it to the audit log, and on a win
// assigns the round's next finishing rank exactly once per card.
func (s *BingoServer) VerifyCard(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	start := time.Now()
	status := "failed"
	defer func() {
		metrics.RecordVerifyDuration(status, time.Since(start).Seconds())
	}()

	calledNumbers := bingo.ParseCalled(req.CalledNumbers)
	calledSet := bingo.CalledSet(calledNumbers)
	roundHash := bingo.Fingerprint(req.FullSequence, calledNumbers)
	claimIndex := len(calledNumbers)

	// Round membership is enforced before any evaluation or logging.
	if len(req.AllowedCards) > 0 {
		registered := false
		for _, id := range req.AllowedCards {
			if id == req.CardID {
				registered = true
				break
			}
		}
		if !registered {
			return nil, ErrCardNotRegistered
		}
	}

	tx, err := s.postgres.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := s.cards.GetByID(tx, req.CardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}

	numbers, err := bingo.ParseNumbers(card.Numbers)
	if err != nil {
		return nil, ErrMalformedGrid
	}
	grid := bingo.Reshape(numbers)

	winning := bingo.Evaluate(grid, calledSet)
	win := winning.Win()

	var rank *int
	if win {
		// Serialize rank assignment within the round so two simultaneous
		// claims cannot observe the same winner count.
		if err := s.claims.LockRound(tx, roundHash); err != nil {
			return nil, err
		}
		prior, err := s.claims.FirstWinForCard(tx, card.CardID, roundHash)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			// Replay within the same round keeps the original rank.
			rank = prior.AssignedRank
		} else {
			winners, err := s.claims.CountWinners(tx, roundHash)
			if err != nil {
				return nil, err
			}
			next := winners + 1
			rank = &next
		}
	}

	entry := &model.VerificationLog{
		CardID:        card.CardID,
		CalledNumbers: model.IntList(calledNumbers),
		WinningLines: model.WinningLines{
			Rows:      winning.Rows,
			Cols:      winning.Cols,
			Diagonals: winning.Diagonals,
			Cells:     winning.Cells,
		},
		IsWinner:     win,
		RoundHash:    roundHash,
		ClaimIndex:   claimIndex,
		AssignedRank: rank,
	}
	if err := s.claims.Append(tx, entry); err != nil {
		return nil, err
	}

	alreadyUsedBefore := card.Used
	if win && !card.Used {
		if err := s.cards.MarkUsed(tx, card.CardID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	status = "success"
	if win {
		metrics.WinningClaims.Inc()
	}

	message := "Card is not a winning card."
	if win {
		message = "Card Verified as Winner!"
	}

	return &VerifyResult{
		Message:      message,
		CardID:       card.CardID,
		Win:          win,
		WinningLines: winning,
		AlreadyUsed:  alreadyUsedBefore && win,
		Rank:         rank,
		CardGrid:     grid,
	}, nil
}

// CardStatus reports whether a card exists and whether it has been redeemed
type CardStatus struct {
	Exists bool `json:"exists"`
	Used   bool `json:"used"`
}

// GetCardStatus looks up a card's existence and used flag
func (s *BingoServer) GetCardStatus(ctx context.Context, cardID string) (*CardStatus, error) {
	card, err := s.cards.GetByID(s.postgres, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &CardStatus{Exists: false, Used: false}, nil
		}
		return nil, err
	}
	return &CardStatus{Exists: true, Used: card.Used}, nil
}

// AvailableCards returns the sorted ids of all unused cards
func (s *BingoServer) AvailableCards(ctx context.Context) ([]string, error) {
	return s.cards.ListAvailableIDs(s.postgres)
}

// Round is a freshly shuffled call sequence with its fingerprint
type Round struct {
	Sequence  []int  `json:"sequence"`
	RoundHash string `json:"round_hash"`
}

// NewRound shuffles a fresh 1..25 call sequence. Clients send the full
// sequence back with each claim so the ledger can group the round.
func (s *BingoServer) NewRound(ctx context.Context) (*Round, error) {
	sequence := bingo.Shuffle()
	return &Round{
		Sequence:  sequence,
		RoundHash: bingo.Fingerprint(sequence, nil),
	}, nil
}

// CreateSerialKey mints a key against a package with an absolute expiry.
// This is the out-of-band purchase flow; generation never creates keys.
func (s *BingoServer) CreateSerialKey(ctx context.Context, packageID int64, validUntil time.Time) (*model.SerialKey, error) {
	pkg, err := s.keys.GetPackage(s.postgres, packageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	sk := &model.SerialKey{
		Key:        uuid.NewString(),
		PackageID:  pkg.ID,
		ValidUntil: validUntil,
		Package:    *pkg,
	}
	if err := s.keys.Create(s.postgres, sk); err != nil {
		return nil, err
	}

	return sk, nil
}

// KeyStatus is the dashboard view of a serial key
type KeyStatus struct {
	Key                  string    `json:"key"`
	PackageName          string    `json:"package"`
	PackageType          string    `json:"package_type"`
	Activated            bool      `json:"activated"`
	ValidUntil           time.Time `json:"valid_until"`
	RemainingCards       *int      `json:"remaining_cards,omitempty"`
	IsValid              bool      `json:"is_valid"`
	TimeRemainingSeconds *int64    `json:"time_remaining_seconds,omitempty"`
}

// GetKeyStatus reports a key's quota and validity without consuming anything
func (s *BingoServer) GetKeyStatus(ctx context.Context, key string) (*KeyStatus, error) {
	sk, err := s.keys.Get(s.postgres, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}

	now := time.Now()
	statusOut := &KeyStatus{
		Key:         sk.Key,
		PackageName: sk.Package.Name,
		PackageType: sk.Package.PackageType,
		Activated:   sk.Activated,
		ValidUntil:  sk.ValidUntil,
		IsValid:     sk.IsValidNow(now),
	}
	if remaining, ok := sk.RemainingCards(); ok {
		statusOut.RemainingCards = &remaining
	}
	if sk.ValidUntil.After(now) {
		secs := int64(sk.ValidUntil.Sub(now).Seconds())
		statusOut.TimeRemainingSeconds = &secs
	}

	return statusOut, nil
}

// ListPackages returns the static package catalog
func (s *BingoServer) ListPackages(ctx context.Context) ([]model.Package, error) {
	return s.keys.ListPackages(s.postgres)
}
