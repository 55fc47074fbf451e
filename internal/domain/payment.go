package domain

import "time"

const (
	// TokenNative identifies the platform's native settlement asset.
	// Any other token value names an identified fungible asset.
	TokenNative = "native"

	// DefaultMaxMetadataLength bounds the opaque metadata string carried
	// on payments and escrows.
	DefaultMaxMetadataLength = 256
)

type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is one settled value transfer. Immutable once confirmed; ids are
// assigned monotonically by the ledger in insertion order.
type Payment struct {
	ID          int64
	Payer       string
	Payee       string
	Token       string
	GrossAmount int64
	FeeAmount   int64
	NetAmount   int64
	Metadata    string
	Status      PaymentStatus
	CreatedAt   time.Time
}

// PaymentStats are per-account aggregates, maintained incrementally on every
// recorded payment and never independently mutated. TotalSent accrues gross
// amounts on the payer side; TotalReceived accrues net amounts on the payee
// side; PaymentCount counts payments the account appeared in on either side.
type PaymentStats struct {
	Account       string
	TotalSent     int64
	TotalReceived int64
	PaymentCount  int64
}

type PaymentFilter struct {
	Account string
	Status  PaymentStatus
	Limit   int
	Offset  int
}
