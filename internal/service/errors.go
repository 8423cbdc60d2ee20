package service

import "errors"

// Failure taxonomy surfaced at the request boundary. Validation failures
// carry no partial state change; ErrAllocationExhausted additionally means
// the whole generation batch, quota consumption included, was rolled back.
var (
	ErrInvalidKey          = errors.New("invalid serial key")
	ErrExpired             = errors.New("serial key is expired or not valid at the moment")
	ErrQuotaExhausted      = errors.New("serial key has no remaining card quota")
	ErrAllocationExhausted = errors.New("card allocation retries exhausted")
	ErrCardNotFound        = errors.New("card not found")
	ErrCardNotRegistered   = errors.New("card is not registered for the current round")
	ErrMalformedGrid       = errors.New("invalid card data")
	ErrPackageNotFound     = errors.New("package not found")
)
