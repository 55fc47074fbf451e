package application

import (
	"context"
	"strings"

	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

// requireRole answers the capability check for one operation: the caller
// either holds one of the accepted roles (Authorized) or the call fails with
// ErrUnauthorized before any mutation.
func (s *Service) requireRole(ctx context.Context, account string, accepted ...domain.Role) error {
	if strings.TrimSpace(account) == "" {
		return domain.ErrUnauthorized
	}
	for _, role := range accepted {
		ok, err := s.roles.HasRole(ctx, account, role)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return domain.ErrUnauthorized
}

func (s *Service) GrantRole(ctx context.Context, actor Actor, account string, role domain.Role) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return domain.ErrInvalidInput
	}
	if err := s.requireRole(ctx, actor.Account, domain.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uow.Do(ctx, func(ctx context.Context) error {
		granted, err := s.roles.Grant(ctx, account, role)
		if err != nil {
			return err
		}
		if !granted {
			// Already held: idempotent success, nothing to announce.
			return nil
		}
		return s.enqueueEvent(ctx, domain.EventRoleGranted, actor.RequestID, contracts.RoleGrantedPayload{
			Account:   account,
			Role:      string(role),
			GrantedBy: actor.Account,
		}, account, s.nowFn())
	})
}

func (s *Service) RevokeRole(ctx context.Context, actor Actor, account string, role domain.Role) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return domain.ErrInvalidInput
	}
	if err := s.requireRole(ctx, actor.Account, domain.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if role == domain.RoleAdmin && account == actor.Account {
		holders, err := s.roles.CountHolders(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		// The last admin cannot revoke itself; that would lock the
		// registry permanently.
		if holders <= 1 {
			return domain.ErrUnauthorized
		}
	}
	return s.uow.Do(ctx, func(ctx context.Context) error {
		revoked, err := s.roles.Revoke(ctx, account, role)
		if err != nil {
			return err
		}
		if !revoked {
			return nil
		}
		return s.enqueueEvent(ctx, domain.EventRoleRevoked, actor.RequestID, contracts.RoleRevokedPayload{
			Account:   account,
			Role:      string(role),
			RevokedBy: actor.Account,
		}, account, s.nowFn())
	})
}

func (s *Service) HasRole(ctx context.Context, account string, role domain.Role) (bool, error) {
	if strings.TrimSpace(account) == "" {
		return false, nil
	}
	return s.roles.HasRole(ctx, account, role)
}
