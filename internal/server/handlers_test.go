package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sudosu-sys/Bingo-Game/internal/model"
	"github.com/sudosu-sys/Bingo-Game/internal/service"
)

// stubCore backs the handlers with canned behavior
type stubCore struct {
	generate func(serialKey string, count int) (*service.GenerateResult, error)
	verify   func(req service.VerifyRequest) (*service.VerifyResult, error)
}

func (s *stubCore) GenerateCards(_ context.Context, serialKey string, count int) (*service.GenerateResult, error) {
	return s.generate(serialKey, count)
}

func (s *stubCore) VerifyCard(_ context.Context, req service.VerifyRequest) (*service.VerifyResult, error) {
	return s.verify(req)
}

func (s *stubCore) GetCardStatus(_ context.Context, cardID string) (*service.CardStatus, error) {
	return &service.CardStatus{Exists: cardID == "001", Used: false}, nil
}

func (s *stubCore) AvailableCards(context.Context) ([]string, error) {
	return []string{"001", "002"}, nil
}

func (s *stubCore) NewRound(context.Context) (*service.Round, error) {
	return &service.Round{Sequence: []int{1, 2, 3}, RoundHash: "abc"}, nil
}

func (s *stubCore) CreateSerialKey(_ context.Context, packageID int64, validUntil time.Time) (*model.SerialKey, error) {
	return &model.SerialKey{Key: "k", PackageID: packageID, ValidUntil: validUntil}, nil
}

func (s *stubCore) GetKeyStatus(context.Context, string) (*service.KeyStatus, error) {
	return &service.KeyStatus{Key: "k", IsValid: true}, nil
}

func (s *stubCore) ListPackages(context.Context) ([]model.Package, error) {
	return []model.Package{{ID: 1, Name: "Starter 100"}}, nil
}

type nopPinger struct{}

func (nopPinger) PingContext(context.Context) error { return nil }

func newTestRouter(core Core) http.Handler {
	return NewRouter(core, nopPinger{})
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateCardsHandler(t *testing.T) {
	core := &stubCore{
		generate: func(serialKey string, count int) (*service.GenerateResult, error) {
			if serialKey != "SK-1" || count != 4 {
				t.Errorf("unexpected args: %s %d", serialKey, count)
			}
			return &service.GenerateResult{
				Cards:          []service.GeneratedCard{{CardID: "001"}},
				AllowedCount:   1,
				RequestedCount: 4,
				InfoMessage:    "Generated 1 of 4 requested card(s) due to serial key quota.",
			}, nil
		},
	}
	rec := postJSON(t, newTestRouter(core), "/api/v1/cards/generate",
		map[string]interface{}{"serial_key": "SK-1", "count": 4})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res service.GenerateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.AllowedCount != 1 || res.RequestedCount != 4 || res.InfoMessage == "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestGenerateCardsHandlerCoercesCount(t *testing.T) {
	core := &stubCore{
		generate: func(_ string, count int) (*service.GenerateResult, error) {
			if count != 1 {
				t.Errorf("count = %d, want coerced to 1", count)
			}
			return &service.GenerateResult{AllowedCount: 1, RequestedCount: 1}, nil
		},
	}
	rec := postJSON(t, newTestRouter(core), "/api/v1/cards/generate",
		map[string]interface{}{"serial_key": "SK-1", "count": -3})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerateCardsHandlerMissingKey(t *testing.T) {
	core := &stubCore{
		generate: func(string, int) (*service.GenerateResult, error) {
			t.Fatal("core should not be reached on a bind failure")
			return nil, nil
		},
	}
	rec := postJSON(t, newTestRouter(core), "/api/v1/cards/generate",
		map[string]interface{}{"count": 2})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateCardsHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid key", service.ErrInvalidKey, http.StatusBadRequest},
		{"expired", service.ErrExpired, http.StatusBadRequest},
		{"quota exhausted", service.ErrQuotaExhausted, http.StatusBadRequest},
		{"allocation exhausted hides detail", service.ErrAllocationExhausted, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &stubCore{
				generate: func(string, int) (*service.GenerateResult, error) { return nil, tt.err },
			}
			rec := postJSON(t, newTestRouter(core), "/api/v1/cards/generate",
				map[string]interface{}{"serial_key": "SK-1", "count": 1})
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected a structured error message")
			}
		})
	}
}

func TestVerifyCardHandler(t *testing.T) {
	rank := 1
	core := &stubCore{
		verify: func(req service.VerifyRequest) (*service.VerifyResult, error) {
			if req.CardID != "007" || req.CalledNumbers != "1,2,3" {
				t.Errorf("unexpected request: %+v", req)
			}
			return &service.VerifyResult{
				Message: "Card Verified as Winner!",
				CardID:  "007",
				Win:     true,
				Rank:    &rank,
			}, nil
		},
	}
	rec := postJSON(t, newTestRouter(core), "/api/v1/cards/verify", map[string]interface{}{
		"card_id":        "007",
		"called_numbers": "1,2,3",
		"full_sequence":  []int{1, 2, 3},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"rank":1`) {
		t.Errorf("rank missing from response: %s", rec.Body.String())
	}
}

func TestVerifyCardHandlerNotRegistered(t *testing.T) {
	core := &stubCore{
		verify: func(service.VerifyRequest) (*service.VerifyResult, error) {
			return nil, service.ErrCardNotRegistered
		},
	}
	rec := postJSON(t, newTestRouter(core), "/api/v1/cards/verify",
		map[string]interface{}{"card_id": "007", "called_numbers": "1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCardStatusHandler(t *testing.T) {
	router := newTestRouter(&stubCore{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards/status?card_id=001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status service.CardStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !status.Exists {
		t.Errorf("expected card 001 to exist: %+v", status)
	}
}

func TestAvailableCardsHandler(t *testing.T) {
	router := newTestRouter(&stubCore{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards/available", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body["cards"]) != 2 || body["cards"][0] != "001" {
		t.Errorf("cards = %v", body["cards"])
	}
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(&stubCore{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health response is not valid JSON: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "bingo-system" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestCreateKeyHandlerValidation(t *testing.T) {
	router := newTestRouter(&stubCore{})

	rec := postJSON(t, router, "/api/v1/keys", map[string]interface{}{"package_id": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing valid_days: status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, router, "/api/v1/keys",
		map[string]interface{}{"package_id": 1, "valid_days": 30})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}
