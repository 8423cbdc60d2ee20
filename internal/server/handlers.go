package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sudosu-sys/Bingo-Game/internal/model"
	"github.com/sudosu-sys/Bingo-Game/internal/service"
)

// Core is the operations surface the handlers are wired to
type Core interface {
	GenerateCards(ctx context.Context, serialKey string, count int) (*service.GenerateResult, error)
	VerifyCard(ctx context.Context, req service.VerifyRequest) (*service.VerifyResult, error)
	GetCardStatus(ctx context.Context, cardID string) (*service.CardStatus, error)
	AvailableCards(ctx context.Context) ([]string, error)
	NewRound(ctx context.Context) (*service.Round, error)
	CreateSerialKey(ctx context.Context, packageID int64, validUntil time.Time) (*model.SerialKey, error)
	GetKeyStatus(ctx context.Context, key string) (*service.KeyStatus, error)
	ListPackages(ctx context.Context) ([]model.Package, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// renderError maps the service failure taxonomy onto HTTP statuses and a
// structured user-facing message.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidKey),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrQuotaExhausted),
		errors.Is(err, service.ErrCardNotRegistered),
		errors.Is(err, service.ErrMalformedGrid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, service.ErrPackageNotFound):
		status = http.StatusNotFound
	default:
		log.Printf("request failed: %v", err)
		err = errors.New("internal error")
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

// GenerateCards handles POST /api/v1/cards/generate
func GenerateCards(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: err.Error()})
			return
		}

		result, err := core.GenerateCards(r.Context(), req.SerialKey, req.Count)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, result)
	}
}

// VerifyCard handles POST /api/v1/cards/verify
func VerifyCard(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: err.Error()})
			return
		}

		result, err := core.VerifyCard(r.Context(), service.VerifyRequest{
			CardID:        req.CardID,
			CalledNumbers: req.CalledNumbers,
			FullSequence:  req.FullSequence,
			AllowedCards:  req.AllowedCards,
		})
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, result)
	}
}

// CardStatus handles GET /api/v1/cards/status?card_id=XXX
func CardStatus(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID := r.URL.Query().Get("card_id")
		status, err := core.GetCardStatus(r.Context(), cardID)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, status)
	}
}

// AvailableCards handles GET /api/v1/cards/available
func AvailableCards(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := core.AvailableCards(r.Context())
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, map[string][]string{"cards": ids})
	}
}

// NewRound handles POST /api/v1/rounds/new
func NewRound(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := core.NewRound(r.Context())
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, round)
	}
}

// CreateKey handles POST /api/v1/keys
func CreateKey(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateKeyRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: err.Error()})
			return
		}

		validUntil := time.Now().Add(time.Duration(req.ValidDays) * 24 * time.Hour)
		key, err := core.CreateSerialKey(r.Context(), req.PackageID, validUntil)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, key)
	}
}

// KeyStatus handles GET /api/v1/keys/{key}
func KeyStatus(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		status, err := core.GetKeyStatus(r.Context(), key)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, status)
	}
}

// ListPackages handles GET /api/v1/packages
func ListPackages(core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packages, err := core.ListPackages(r.Context())
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, map[string]interface{}{"packages": packages})
	}
}
