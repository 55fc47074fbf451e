package application

import (
	"context"
	"strings"

	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

// SetFeeConfig is the only write path for the platform fee. The basis-point
// ceiling is enforced here, not on every fee computation; records created
// before a change keep the snapshot they captured.
func (s *Service) SetFeeConfig(ctx context.Context, actor Actor, cfg domain.FeeConfig) error {
	if err := s.requireRole(ctx, actor.Account, domain.RoleOperator, domain.RoleAdmin); err != nil {
		return err
	}
	cfg.Collector = strings.TrimSpace(cfg.Collector)
	if err := cfg.Validate(s.cfg.FeeCeilingBasisPoints); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.feeConfig.Set(ctx, cfg); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, domain.EventFeeConfigUpdated, actor.RequestID, contracts.FeeConfigUpdatedPayload{
			BasisPoints: cfg.BasisPoints,
			Collector:   cfg.Collector,
			UpdatedBy:   actor.Account,
		}, cfg.Collector, s.nowFn())
	})
}

func (s *Service) GetFeeConfig(ctx context.Context) (domain.FeeConfig, error) {
	return s.feeConfig.Get(ctx)
}
