package domain

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrEnginePaused        = errors.New("engine paused")
	ErrAlreadyPaused       = errors.New("already paused")
	ErrNotPaused           = errors.New("not paused")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyFinalized    = errors.New("escrow already finalized")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrZeroAmount          = errors.New("zero amount")
	ErrInvalidSplitRequest = errors.New("invalid split request")
	ErrInvalidFeeConfig    = errors.New("invalid fee config")
	ErrInsufficientValue   = errors.New("insufficient value")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	ErrInvalidTransition   = errors.New("invalid escrow transition")
)
