package application

import (
	"context"
	"sync"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
	"github.com/paygrid/payment-engine/internal/ports"
)

type Config struct {
	ServiceName           string
	FeeCeilingBasisPoints uint32
	RefundGracePeriod     time.Duration
	MaxSplitRecipients    int
	MaxMetadataLength     int
	IdempotencyTTL        time.Duration
	OutboxFlushBatchSize  int
}

// Actor is the caller identity supplied by the inbound layer. The engine
// trusts it as given; authenticating it is the boundary's job.
type Actor struct {
	Account        string
	RequestID      string
	IdempotencyKey string
}

type PaymentInput struct {
	Payee    string
	Token    string
	Amount   int64
	Metadata string
}

type EscrowInput struct {
	Payee         string
	Token         string
	Amount        int64
	SuppliedValue int64
	ReleaseTime   time.Time
	Metadata      string
}

type SplitInput struct {
	Recipients []string
	Amounts    []int64
	Token      string
	Metadata   string
}

type SplitResult struct {
	SplitID    string
	GrossTotal int64
	FeeTotal   int64
	Payments   []domain.Payment
}

type ReleaseResult struct {
	Escrow  domain.EscrowPayment
	Payment domain.Payment
}

// Service is the payment engine. All mutating operations serialize on mu,
// and their repository writes run inside uow, so each either fully applies
// (state, ledger, outbox) or leaves no trace; reads go straight to the
// repositories.
type Service struct {
	cfg  Config
	mu   sync.Mutex
	gate *domain.PauseGate
	uow  ports.UnitOfWork

	roles       ports.RoleRepository
	payments    ports.PaymentRepository
	stats       ports.StatsRepository
	escrows     ports.EscrowRepository
	feeConfig   ports.FeeConfigRepository
	idempotency ports.IdempotencyRepository
	outbox      ports.OutboxRepository

	domainEvents ports.DomainPublisher
	analytics    ports.AnalyticsPublisher
	dlq          ports.DLQPublisher

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Gate       *domain.PauseGate
	UnitOfWork ports.UnitOfWork

	Roles       ports.RoleRepository
	Payments    ports.PaymentRepository
	Stats       ports.StatsRepository
	Escrows     ports.EscrowRepository
	FeeConfig   ports.FeeConfigRepository
	Idempotency ports.IdempotencyRepository
	Outbox      ports.OutboxRepository

	DomainEvents ports.DomainPublisher
	Analytics    ports.AnalyticsPublisher
	DLQ          ports.DLQPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment-engine"
	}
	if cfg.FeeCeilingBasisPoints == 0 {
		cfg.FeeCeilingBasisPoints = 500
	}
	if cfg.RefundGracePeriod <= 0 {
		cfg.RefundGracePeriod = 72 * time.Hour
	}
	if cfg.MaxSplitRecipients <= 0 {
		cfg.MaxSplitRecipients = 20
	}
	if cfg.MaxMetadataLength <= 0 {
		cfg.MaxMetadataLength = domain.DefaultMaxMetadataLength
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	gate := deps.Gate
	if gate == nil {
		gate = domain.NewPauseGate()
	}
	uow := deps.UnitOfWork
	if uow == nil {
		uow = passthroughUnitOfWork{}
	}
	return &Service{
		cfg:          cfg,
		gate:         gate,
		uow:          uow,
		roles:        deps.Roles,
		payments:     deps.Payments,
		stats:        deps.Stats,
		escrows:      deps.Escrows,
		feeConfig:    deps.FeeConfig,
		idempotency:  deps.Idempotency,
		outbox:       deps.Outbox,
		domainEvents: deps.DomainEvents,
		analytics:    deps.Analytics,
		dlq:          deps.DLQ,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// passthroughUnitOfWork backs the service when no transactional store is
// wired; the in-memory adapters have nothing to roll back.
type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
