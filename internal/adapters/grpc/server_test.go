package grpc

import (
	"context"
	"testing"

	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/paygrid/payment-engine/internal/adapters/memory"
	"github.com/paygrid/payment-engine/internal/application"
	"github.com/paygrid/payment-engine/internal/domain"
)

func TestHealthReflectsPauseState(t *testing.T) {
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Roles:       repos.Roles,
		Payments:    repos.Payments,
		Stats:       repos.Stats,
		Escrows:     repos.Escrows,
		FeeConfig:   repos.FeeConfig,
		Idempotency: repos.Idempotency,
		Outbox:      repos.Outbox,
	})
	ctx := context.Background()
	if _, err := repos.Roles.Grant(ctx, "root", domain.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	srv := NewHealthServer(svc)
	resp, err := srv.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil || resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("running engine: status=%v err=%v", resp.GetStatus(), err)
	}

	if err := svc.Pause(ctx, application.Actor{Account: "root"}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	resp, err = srv.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil || resp.Status != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("paused engine: status=%v err=%v", resp.GetStatus(), err)
	}

	if err := svc.Unpause(ctx, application.Actor{Account: "root"}); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	resp, _ = srv.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("resumed engine: status=%v", resp.Status)
	}
}
