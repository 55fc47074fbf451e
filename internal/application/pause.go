package application

import (
	"context"

	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

func (s *Service) Pause(ctx context.Context, actor Actor) error {
	if err := s.requireRole(ctx, actor.Account, domain.RolePauser, domain.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.Pause(); err != nil {
		return err
	}
	return s.enqueueEvent(ctx, domain.EventEnginePaused, actor.RequestID,
		contracts.PausedPayload{By: actor.Account}, actor.Account, s.nowFn())
}

func (s *Service) Unpause(ctx context.Context, actor Actor) error {
	if err := s.requireRole(ctx, actor.Account, domain.RolePauser, domain.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gate.Unpause(); err != nil {
		return err
	}
	return s.enqueueEvent(ctx, domain.EventEngineUnpaused, actor.RequestID,
		contracts.UnpausedPayload{By: actor.Account}, actor.Account, s.nowFn())
}

func (s *Service) Paused() bool {
	return s.gate.Paused()
}
