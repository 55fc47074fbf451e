package application

import (
	"context"
	"strings"

	"github.com/paygrid/payment-engine/internal/domain"
)

// ProcessPayment settles a direct transfer from the caller to payee and
// records it. Fund movement itself is validated by the boundary that
// authenticated the caller; the ledger records facts.
func (s *Service) ProcessPayment(ctx context.Context, actor Actor, input PaymentInput) (domain.Payment, error) {
	if strings.TrimSpace(actor.Account) == "" {
		return domain.Payment{}, domain.ErrUnauthorized
	}
	input.Payee = strings.TrimSpace(input.Payee)
	if input.Token == "" {
		input.Token = domain.TokenNative
	}
	if input.Payee == "" || input.Payee == actor.Account {
		return domain.Payment{}, domain.ErrInvalidInput
	}
	if input.Amount <= 0 {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	if len(input.Metadata) > s.cfg.MaxMetadataLength {
		return domain.Payment{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(input)
	idemKey := actor.scopedKey()
	if cached, ok, err := replayIdempotent[domain.Payment](ctx, s, idemKey, requestHash); err != nil {
		return domain.Payment{}, err
	} else if ok {
		return cached, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// The gate is checked under mu, the same lock Pause flips it under, so a
	// concurrent pause cannot slip between the check and the mutation.
	if err := s.gate.RequireNotPaused(); err != nil {
		return domain.Payment{}, err
	}
	if err := s.reserveIdempotency(ctx, idemKey, requestHash); err != nil {
		return domain.Payment{}, err
	}
	feeCfg, err := s.feeConfig.Get(ctx)
	if err != nil {
		return domain.Payment{}, err
	}
	fee, net := domain.ComputeFee(input.Amount, feeCfg.BasisPoints)
	var payment domain.Payment
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		stored, err := s.recordPayment(ctx, actor.RequestID, domain.Payment{
			Payer:       actor.Account,
			Payee:       input.Payee,
			Token:       input.Token,
			GrossAmount: input.Amount,
			FeeAmount:   fee,
			NetAmount:   net,
			Metadata:    input.Metadata,
		})
		if err != nil {
			return err
		}
		payment = stored
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, idemKey, 200, payment)
	return payment, nil
}

// recordPayment appends a confirmed payment, folds it into both parties'
// stats and announces it. Callers hold s.mu and have already computed the
// fee split they want recorded.
func (s *Service) recordPayment(ctx context.Context, traceID string, row domain.Payment) (domain.Payment, error) {
	now := s.nowFn()
	row.Status = domain.PaymentStatusConfirmed
	row.CreatedAt = now
	stored, err := s.payments.Append(ctx, row)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.stats.Apply(ctx, stored.Payer, stored.Payee, stored.GrossAmount, stored.NetAmount); err != nil {
		return domain.Payment{}, err
	}
	if err := s.enqueuePaymentRecorded(ctx, stored, traceID, now); err != nil {
		return domain.Payment{}, err
	}
	return stored, nil
}

func (s *Service) GetPayment(ctx context.Context, id int64) (domain.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.payments.List(ctx, filter)
}

func (s *Service) GetStats(ctx context.Context, account string) (domain.PaymentStats, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return domain.PaymentStats{}, domain.ErrInvalidInput
	}
	return s.stats.Get(ctx, account)
}
