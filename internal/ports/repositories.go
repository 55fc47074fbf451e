package ports

import (
	"context"
	"time"

	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

// UnitOfWork runs fn so that every repository write made through fn's
// context commits or rolls back as one unit. Implementations without a
// transactional store run fn directly.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type RoleRepository interface {
	// Grant reports whether the role was newly added; granting a role the
	// account already holds is a no-op.
	Grant(ctx context.Context, account string, role domain.Role) (bool, error)
	// Revoke reports whether the role was actually removed.
	Revoke(ctx context.Context, account string, role domain.Role) (bool, error)
	HasRole(ctx context.Context, account string, role domain.Role) (bool, error)
	CountHolders(ctx context.Context, role domain.Role) (int, error)
}

type PaymentRepository interface {
	// Append stores the payment and assigns the next monotonic id,
	// returning the stored record.
	Append(ctx context.Context, row domain.Payment) (domain.Payment, error)
	GetByID(ctx context.Context, id int64) (domain.Payment, error)
	// List returns payments in id-ascending (insertion) order.
	List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error)
}

type StatsRepository interface {
	// Apply folds one recorded payment into both parties' aggregates.
	Apply(ctx context.Context, payer, payee string, gross, net int64) error
	Get(ctx context.Context, account string) (domain.PaymentStats, error)
}

type EscrowRepository interface {
	Create(ctx context.Context, row domain.EscrowPayment) error
	GetByID(ctx context.Context, escrowID string) (domain.EscrowPayment, error)
	Update(ctx context.Context, row domain.EscrowPayment) error
	List(ctx context.Context, filter domain.EscrowFilter) ([]domain.EscrowPayment, error)
}

type FeeConfigRepository interface {
	Get(ctx context.Context) (domain.FeeConfig, error)
	Set(ctx context.Context, cfg domain.FeeConfig) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	// Reserve claims the key, replacing any reservation that has expired as
	// of now. A live reservation yields domain.ErrConflict.
	Reserve(ctx context.Context, key, requestHash string, now, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type OutboxRecord struct {
	RecordID   string
	Sequence   uint64
	EventClass string
	Envelope   contracts.EventEnvelope
	CreatedAt  time.Time
	SentAt     *time.Time
}

type OutboxRepository interface {
	// Enqueue assigns the next global sequence number, stamps it on the
	// envelope, and appends the record.
	Enqueue(ctx context.Context, record OutboxRecord) error
	// ListPending returns unsent records in sequence order.
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}
