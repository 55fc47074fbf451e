package contracts

import (
	"encoding/json"
	"time"
)

// EventEnvelope is the wire shape of every emitted event. Sequence is
// assigned by the outbox at enqueue time and increases monotonically across
// all event kinds, so a consumer can detect gaps on a single counter.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventClass    string          `json:"event_class,omitempty"`
	Sequence      uint64          `json:"sequence"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	TraceID       string          `json:"trace_id"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type RoleGrantedPayload struct {
	Account   string `json:"account"`
	Role      string `json:"role"`
	GrantedBy string `json:"granted_by"`
}

type RoleRevokedPayload struct {
	Account   string `json:"account"`
	Role      string `json:"role"`
	RevokedBy string `json:"revoked_by"`
}

type PausedPayload struct {
	By string `json:"by"`
}

type UnpausedPayload struct {
	By string `json:"by"`
}

type FeeConfigUpdatedPayload struct {
	BasisPoints uint32 `json:"basis_points"`
	Collector   string `json:"collector"`
	UpdatedBy   string `json:"updated_by"`
}

type PaymentRecordedPayload struct {
	PaymentID   int64  `json:"payment_id"`
	Payer       string `json:"payer"`
	Payee       string `json:"payee"`
	Token       string `json:"token"`
	GrossAmount int64  `json:"gross_amount"`
	FeeAmount   int64  `json:"fee_amount"`
	NetAmount   int64  `json:"net_amount"`
	Metadata    string `json:"metadata,omitempty"`
	Status      string `json:"status"`
	RecordedAt  string `json:"recorded_at"`
}

type EscrowCreatedPayload struct {
	EscrowID       string `json:"escrow_id"`
	Payer          string `json:"payer"`
	Payee          string `json:"payee"`
	Token          string `json:"token"`
	Amount         int64  `json:"amount"`
	ReleaseTime    string `json:"release_time"`
	FeeBasisPoints uint32 `json:"fee_basis_points"`
	CreatedAt      string `json:"created_at"`
}

type EscrowReleasedPayload struct {
	EscrowID      string `json:"escrow_id"`
	PaymentID     int64  `json:"payment_id"`
	ReleasedBy    string `json:"released_by"`
	AdminOverride bool   `json:"admin_override,omitempty"`
	FeeAmount     int64  `json:"fee_amount"`
	NetAmount     int64  `json:"net_amount"`
	ReleasedAt    string `json:"released_at"`
}

type EscrowRefundedPayload struct {
	EscrowID   string `json:"escrow_id"`
	RefundedBy string `json:"refunded_by"`
	Amount     int64  `json:"amount"`
	RefundedAt string `json:"refunded_at"`
}

type SplitProcessedPayload struct {
	SplitID        string  `json:"split_id"`
	Payer          string  `json:"payer"`
	Token          string  `json:"token"`
	GrossTotal     int64   `json:"gross_total"`
	FeeTotal       int64   `json:"fee_total"`
	RecipientCount int     `json:"recipient_count"`
	PaymentIDs     []int64 `json:"payment_ids"`
	ProcessedAt    string  `json:"processed_at"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	DLQTopic      string        `json:"dlq_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}
