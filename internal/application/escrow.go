package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paygrid/payment-engine/internal/domain"
)

// CreateEscrow locks the payer's funds until release to the payee or refund
// to the payer. No fee is deducted at creation; the fee config in force now
// is captured on the record and charged at release.
func (s *Service) CreateEscrow(ctx context.Context, actor Actor, input EscrowInput) (domain.EscrowPayment, error) {
	if strings.TrimSpace(actor.Account) == "" {
		return domain.EscrowPayment{}, domain.ErrUnauthorized
	}
	input.Payee = strings.TrimSpace(input.Payee)
	if input.Token == "" {
		input.Token = domain.TokenNative
	}
	if input.Payee == "" || input.Payee == actor.Account {
		return domain.EscrowPayment{}, domain.ErrInvalidInput
	}
	if input.Amount <= 0 {
		return domain.EscrowPayment{}, domain.ErrInvalidAmount
	}
	if input.SuppliedValue != input.Amount {
		return domain.EscrowPayment{}, domain.ErrInsufficientValue
	}
	if len(input.Metadata) > s.cfg.MaxMetadataLength {
		return domain.EscrowPayment{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(input)
	idemKey := actor.scopedKey()
	if cached, ok, err := replayIdempotent[domain.EscrowPayment](ctx, s, idemKey, requestHash); err != nil {
		return domain.EscrowPayment{}, err
	} else if ok {
		return cached, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.RequireNotPaused(); err != nil {
		return domain.EscrowPayment{}, err
	}
	if err := s.reserveIdempotency(ctx, idemKey, requestHash); err != nil {
		return domain.EscrowPayment{}, err
	}
	feeCfg, err := s.feeConfig.Get(ctx)
	if err != nil {
		return domain.EscrowPayment{}, err
	}
	now := s.nowFn()
	escrow := domain.EscrowPayment{
		EscrowID:       uuid.NewString(),
		Payer:          actor.Account,
		Payee:          input.Payee,
		Token:          input.Token,
		Amount:         input.Amount,
		ReleaseTime:    input.ReleaseTime.UTC(),
		State:          domain.EscrowStateActive,
		FeeBasisPoints: feeCfg.BasisPoints,
		FeeCollector:   feeCfg.Collector,
		Metadata:       input.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.escrows.Create(ctx, escrow); err != nil {
			return err
		}
		return s.enqueueEscrowCreated(ctx, escrow, actor.RequestID, now)
	})
	if err != nil {
		return domain.EscrowPayment{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, idemKey, 200, escrow)
	return escrow, nil
}

// ReleaseEscrow settles an active escrow to the payee. Authorized callers:
// the payee at any time, the payer once the release time has passed, or an
// admin override (flagged on the emitted event). The fee is computed against
// the snapshot captured at creation.
func (s *Service) ReleaseEscrow(ctx context.Context, actor Actor, escrowID string) (ReleaseResult, error) {
	if strings.TrimSpace(actor.Account) == "" {
		return ReleaseResult{}, domain.ErrUnauthorized
	}
	escrowID = strings.TrimSpace(escrowID)
	if escrowID == "" {
		return ReleaseResult{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(map[string]string{"op": "release", "escrow_id": escrowID})
	idemKey := actor.scopedKey()
	if cached, ok, err := replayIdempotent[ReleaseResult](ctx, s, idemKey, requestHash); err != nil {
		return ReleaseResult{}, err
	} else if ok {
		return cached, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.RequireNotPaused(); err != nil {
		return ReleaseResult{}, err
	}
	if err := s.reserveIdempotency(ctx, idemKey, requestHash); err != nil {
		return ReleaseResult{}, err
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return ReleaseResult{}, err
	}
	now := s.nowFn()
	adminOverride := false
	// Authorization is settled first; callers outside the escrow get
	// ErrUnauthorized whatever state it is in.
	switch {
	case actor.Account == escrow.Payee:
	case actor.Account == escrow.Payer && !now.Before(escrow.ReleaseTime):
		// Payer force-release after the lock expires protects the payee
		// from funds stranded by an unresponsive counterparty.
	default:
		isAdmin, err := s.roles.HasRole(ctx, actor.Account, domain.RoleAdmin)
		if err != nil {
			return ReleaseResult{}, err
		}
		if !isAdmin {
			return ReleaseResult{}, domain.ErrUnauthorized
		}
		adminOverride = true
	}
	if escrow.State != domain.EscrowStateActive {
		return ReleaseResult{}, domain.ErrAlreadyFinalized
	}
	fee, net := domain.ComputeFee(escrow.Amount, escrow.FeeBasisPoints)
	if fee >= escrow.Amount {
		// Unreachable while the basis-point ceiling holds; asserted anyway
		// so a corrupted snapshot can never zero out the payee.
		return ReleaseResult{}, fmt.Errorf("%w: fee %d >= amount %d", domain.ErrInvalidFeeConfig, fee, escrow.Amount)
	}
	if err := escrow.Transition(domain.EscrowStateReleased, now); err != nil {
		return ReleaseResult{}, err
	}
	var result ReleaseResult
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.escrows.Update(ctx, escrow); err != nil {
			return err
		}
		payment, err := s.recordPayment(ctx, actor.RequestID, domain.Payment{
			Payer:       escrow.Payer,
			Payee:       escrow.Payee,
			Token:       escrow.Token,
			GrossAmount: escrow.Amount,
			FeeAmount:   fee,
			NetAmount:   net,
			Metadata:    escrow.Metadata,
		})
		if err != nil {
			return err
		}
		if err := s.enqueueEscrowReleased(ctx, escrow, payment, actor.Account, adminOverride, actor.RequestID, now); err != nil {
			return err
		}
		result = ReleaseResult{Escrow: escrow, Payment: payment}
		return nil
	})
	if err != nil {
		return ReleaseResult{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, idemKey, 200, result)
	return result, nil
}

// RefundEscrow returns the full principal to the payer, fee-free. An admin
// may refund at any time; the payer only once the refund grace period beyond
// the release time has elapsed, so a payer cannot renege while the payee's
// release window is still open.
func (s *Service) RefundEscrow(ctx context.Context, actor Actor, escrowID string) (domain.EscrowPayment, error) {
	if strings.TrimSpace(actor.Account) == "" {
		return domain.EscrowPayment{}, domain.ErrUnauthorized
	}
	escrowID = strings.TrimSpace(escrowID)
	if escrowID == "" {
		return domain.EscrowPayment{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(map[string]string{"op": "refund", "escrow_id": escrowID})
	idemKey := actor.scopedKey()
	if cached, ok, err := replayIdempotent[domain.EscrowPayment](ctx, s, idemKey, requestHash); err != nil {
		return domain.EscrowPayment{}, err
	} else if ok {
		return cached, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.RequireNotPaused(); err != nil {
		return domain.EscrowPayment{}, err
	}
	if err := s.reserveIdempotency(ctx, idemKey, requestHash); err != nil {
		return domain.EscrowPayment{}, err
	}
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return domain.EscrowPayment{}, err
	}
	now := s.nowFn()
	isAdmin, err := s.roles.HasRole(ctx, actor.Account, domain.RoleAdmin)
	if err != nil {
		return domain.EscrowPayment{}, err
	}
	if !isAdmin {
		if actor.Account != escrow.Payer {
			return domain.EscrowPayment{}, domain.ErrUnauthorized
		}
		if now.Before(escrow.ReleaseTime.Add(s.cfg.RefundGracePeriod)) {
			return domain.EscrowPayment{}, domain.ErrUnauthorized
		}
	}
	if err := escrow.Transition(domain.EscrowStateRefunded, now); err != nil {
		return domain.EscrowPayment{}, err
	}
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.escrows.Update(ctx, escrow); err != nil {
			return err
		}
		return s.enqueueEscrowRefunded(ctx, escrow, actor.Account, actor.RequestID, now)
	})
	if err != nil {
		return domain.EscrowPayment{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, idemKey, 200, escrow)
	return escrow, nil
}

func (s *Service) GetEscrow(ctx context.Context, escrowID string) (domain.EscrowPayment, error) {
	escrowID = strings.TrimSpace(escrowID)
	if escrowID == "" {
		return domain.EscrowPayment{}, domain.ErrInvalidInput
	}
	return s.escrows.GetByID(ctx, escrowID)
}

func (s *Service) ListEscrows(ctx context.Context, filter domain.EscrowFilter) ([]domain.EscrowPayment, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.escrows.List(ctx, filter)
}
