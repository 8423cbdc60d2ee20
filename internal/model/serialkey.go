package model

import (
	"time"
)

// Package types
const (
	PackageTypeFixed     = "fixed"     // bounded card count, e.g. 100 games for $20
	PackageTypeUnlimited = "unlimited" // unlimited games within a time window
)

// Package is a static pricing/quota template for serial keys
type Package struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Price       float64 `db:"price" json:"price"`
	PackageType string  `db:"package_type" json:"package_type"`
	GameCount   *int    `db:"game_count" json:"game_count,omitempty"` // required iff fixed
}

// SerialKey is a purchased credential authorizing card generation.
// Every key expires at ValidUntil regardless of package type; fixed
// packages additionally track the consumed quota in GeneratedCards.
type SerialKey struct {
	Key            string    `db:"key" json:"key"`
	PackageID      int64     `db:"package_id" json:"package_id"`
	Activated      bool      `db:"activated" json:"activated"`
	ValidUntil     time.Time `db:"valid_until" json:"valid_until"`
	GeneratedCards int       `db:"generated_cards" json:"generated_cards"`

	Package Package `db:"package" json:"package"`
}

// RemainingCards returns how many cards a fixed key may still generate.
// The second return is false for unlimited packages, where the quota is
// unbounded and the count is meaningless.
func (k *SerialKey) RemainingCards() (int, bool) {
	if k.Package.PackageType != PackageTypeFixed {
		return 0, false
	}
	total := 0
	if k.Package.GameCount != nil {
		total = *k.Package.GameCount
	}
	remaining := total - k.GeneratedCards
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// IsValidNow reports whether the key is usable at the given instant.
// A key is valid iff now is before valid_until, and, for fixed packages,
// there is still quota left.
func (k *SerialKey) IsValidNow(now time.Time) bool {
	if now.After(k.ValidUntil) {
		return false
	}
	if k.Package.PackageType == PackageTypeUnlimited {
		return true
	}
	if k.Package.PackageType == PackageTypeFixed {
		remaining, _ := k.RemainingCards()
		return remaining > 0
	}
	return false
}
