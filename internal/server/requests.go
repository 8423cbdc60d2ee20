package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GenerateRequest asks for count cards against a prepaid serial key
type GenerateRequest struct {
	SerialKey string `json:"serial_key" validate:"required"`
	Count     int    `json:"count"`
}

// Bind implements render.Binder
func (g *GenerateRequest) Bind(r *http.Request) error {
	// a missing or nonsensical count degrades to a single card
	if g.Count < 1 {
		g.Count = 1
	}
	return validate.Struct(g)
}

// VerifyRequest submits one claim for a card against the called snapshot.
// FullSequence, when present, fingerprints the round; AllowedCards, when
// present, restricts claims to cards registered for the round.
type VerifyRequest struct {
	CardID        string   `json:"card_id" validate:"required"`
	CalledNumbers string   `json:"called_numbers"`
	FullSequence  []int    `json:"full_sequence,omitempty"`
	AllowedCards  []string `json:"allowed_cards,omitempty"`
}

// Bind implements render.Binder
func (v *VerifyRequest) Bind(r *http.Request) error {
	return validate.Struct(v)
}

// CreateKeyRequest mints a serial key against a catalog package
type CreateKeyRequest struct {
	PackageID int64 `json:"package_id" validate:"required"`
	ValidDays int   `json:"valid_days" validate:"required,min=1"`
}

// Bind implements render.Binder
func (c *CreateKeyRequest) Bind(r *http.Request) error {
	return validate.Struct(c)
}
