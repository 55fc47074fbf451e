package application

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/paygrid/payment-engine/internal/domain"
)

// ProcessSplit fans one gross amount out to multiple recipients. The fee is
// computed once on the aggregate, not per recipient, so rounding cannot leak
// value across the fan-out; each recipient's net share is the integer floor
// of its proportional cut and every rounding remainder goes to the fee
// collector. sum(nets) + feeTotal == grossTotal holds exactly.
func (s *Service) ProcessSplit(ctx context.Context, actor Actor, input SplitInput) (SplitResult, error) {
	if strings.TrimSpace(actor.Account) == "" {
		return SplitResult{}, domain.ErrUnauthorized
	}
	if input.Token == "" {
		input.Token = domain.TokenNative
	}
	if len(input.Recipients) == 0 || len(input.Recipients) != len(input.Amounts) {
		return SplitResult{}, domain.ErrInvalidSplitRequest
	}
	if len(input.Recipients) > s.cfg.MaxSplitRecipients {
		return SplitResult{}, domain.ErrInvalidSplitRequest
	}
	if len(input.Metadata) > s.cfg.MaxMetadataLength {
		return SplitResult{}, domain.ErrInvalidInput
	}
	grossTotal := int64(0)
	for i, recipient := range input.Recipients {
		if strings.TrimSpace(recipient) == "" {
			return SplitResult{}, domain.ErrInvalidSplitRequest
		}
		if input.Amounts[i] <= 0 {
			return SplitResult{}, domain.ErrZeroAmount
		}
		if grossTotal > math.MaxInt64-input.Amounts[i] {
			return SplitResult{}, domain.ErrInvalidAmount
		}
		grossTotal += input.Amounts[i]
	}
	requestHash := hashJSON(input)
	idemKey := actor.scopedKey()
	if cached, ok, err := replayIdempotent[SplitResult](ctx, s, idemKey, requestHash); err != nil {
		return SplitResult{}, err
	} else if ok {
		return cached, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.RequireNotPaused(); err != nil {
		return SplitResult{}, err
	}
	if err := s.reserveIdempotency(ctx, idemKey, requestHash); err != nil {
		return SplitResult{}, err
	}
	feeCfg, err := s.feeConfig.Get(ctx)
	if err != nil {
		return SplitResult{}, err
	}
	_, netTotal := domain.ComputeFee(grossTotal, feeCfg.BasisPoints)
	now := s.nowFn()
	var result SplitResult
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		payments := make([]domain.Payment, 0, len(input.Recipients))
		distributed := int64(0)
		for i, recipient := range input.Recipients {
			net := domain.ProportionalShare(input.Amounts[i], netTotal, grossTotal)
			payment, err := s.recordPayment(ctx, actor.RequestID, domain.Payment{
				Payer:       actor.Account,
				Payee:       strings.TrimSpace(recipient),
				Token:       input.Token,
				GrossAmount: input.Amounts[i],
				FeeAmount:   input.Amounts[i] - net,
				NetAmount:   net,
				Metadata:    input.Metadata,
			})
			if err != nil {
				return err
			}
			payments = append(payments, payment)
			distributed += net
		}
		result = SplitResult{
			SplitID:    uuid.NewString(),
			GrossTotal: grossTotal,
			// Per-recipient flooring can leave the fee slightly above the
			// aggregate rate; the difference is the collector's remainder.
			FeeTotal: grossTotal - distributed,
			Payments: payments,
		}
		return s.enqueueSplitProcessed(ctx, result, actor.Account, input.Token, actor.RequestID, now)
	})
	if err != nil {
		return SplitResult{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, idemKey, 200, result)
	return result, nil
}
