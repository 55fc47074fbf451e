package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
	"github.com/paygrid/payment-engine/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repositories struct {
	Roles       *RoleRepository
	Payments    *PaymentRepository
	Stats       *StatsRepository
	Escrows     *EscrowRepository
	FeeConfig   *FeeConfigRepository
	Idempotency *IdempotencyRepository
	Outbox      *OutboxRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Roles:       &RoleRepository{db: db},
		Payments:    &PaymentRepository{db: db},
		Stats:       &StatsRepository{db: db},
		Escrows:     &EscrowRepository{db: db},
		FeeConfig:   &FeeConfigRepository{db: db},
		Idempotency: &IdempotencyRepository{db: db},
		Outbox:      &OutboxRepository{db: db},
	}
}

type RoleRepository struct {
	db *gorm.DB
}

func (r *RoleRepository) Grant(ctx context.Context, account string, role domain.Role) (bool, error) {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roleGrantModel{Account: account, Role: string(role), CreatedAt: time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RoleRepository) Revoke(ctx context.Context, account string, role domain.Role) (bool, error) {
	res := conn(ctx, r.db).
		Where("account = ? AND role = ?", account, string(role)).
		Delete(&roleGrantModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RoleRepository) HasRole(ctx context.Context, account string, role domain.Role) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&roleGrantModel{}).
		Where("account = ? AND role = ?", account, string(role)).
		Count(&count).Error
	return count > 0, err
}

func (r *RoleRepository) CountHolders(ctx context.Context, role domain.Role) (int, error) {
	var count int64
	err := conn(ctx, r.db).Model(&roleGrantModel{}).
		Where("role = ?", string(role)).
		Count(&count).Error
	return int(count), err
}

type PaymentRepository struct {
	db *gorm.DB
}

func (r *PaymentRepository) Append(ctx context.Context, row domain.Payment) (domain.Payment, error) {
	rec := paymentModel{
		Payer:       row.Payer,
		Payee:       row.Payee,
		Token:       row.Token,
		GrossAmount: row.GrossAmount,
		FeeAmount:   row.FeeAmount,
		NetAmount:   row.NetAmount,
		Metadata:    row.Metadata,
		Status:      string(row.Status),
		CreatedAt:   row.CreatedAt,
	}
	if err := conn(ctx, r.db).Create(&rec).Error; err != nil {
		return domain.Payment{}, err
	}
	row.ID = rec.PaymentID
	return row, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (domain.Payment, error) {
	var rec paymentModel
	err := conn(ctx, r.db).First(&rec, "payment_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Payment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Payment{}, err
	}
	return toDomainPayment(rec), nil
}

func (r *PaymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	q := conn(ctx, r.db).Model(&paymentModel{}).Order("payment_id ASC")
	if filter.Account != "" {
		q = q.Where("payer = ? OR payee = ?", filter.Account, filter.Account)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []paymentModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainPayment(rec))
	}
	return out, nil
}

func toDomainPayment(rec paymentModel) domain.Payment {
	return domain.Payment{
		ID:          rec.PaymentID,
		Payer:       rec.Payer,
		Payee:       rec.Payee,
		Token:       rec.Token,
		GrossAmount: rec.GrossAmount,
		FeeAmount:   rec.FeeAmount,
		NetAmount:   rec.NetAmount,
		Metadata:    rec.Metadata,
		Status:      domain.PaymentStatus(rec.Status),
		CreatedAt:   rec.CreatedAt,
	}
}

type StatsRepository struct {
	db *gorm.DB
}

func (r *StatsRepository) Apply(ctx context.Context, payer, payee string, gross, net int64) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_sent":    gorm.Expr("payment_stats.total_sent + ?", gross),
				"payment_count": gorm.Expr("payment_stats.payment_count + 1"),
			}),
		}).Create(&paymentStatsModel{Account: payer, TotalSent: gross, PaymentCount: 1}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_received": gorm.Expr("payment_stats.total_received + ?", net),
				"payment_count":  gorm.Expr("payment_stats.payment_count + 1"),
			}),
		}).Create(&paymentStatsModel{Account: payee, TotalReceived: net, PaymentCount: 1}).Error
	})
}

func (r *StatsRepository) Get(ctx context.Context, account string) (domain.PaymentStats, error) {
	var rec paymentStatsModel
	err := conn(ctx, r.db).First(&rec, "account = ?", account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PaymentStats{Account: account}, nil
	}
	if err != nil {
		return domain.PaymentStats{}, err
	}
	return domain.PaymentStats{
		Account:       rec.Account,
		TotalSent:     rec.TotalSent,
		TotalReceived: rec.TotalReceived,
		PaymentCount:  rec.PaymentCount,
	}, nil
}

type EscrowRepository struct {
	db *gorm.DB
}

func (r *EscrowRepository) Create(ctx context.Context, row domain.EscrowPayment) error {
	err := conn(ctx, r.db).Create(toEscrowModel(row)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *EscrowRepository) GetByID(ctx context.Context, escrowID string) (domain.EscrowPayment, error) {
	var rec escrowModel
	err := conn(ctx, r.db).First(&rec, "escrow_id = ?", strings.TrimSpace(escrowID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.EscrowPayment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.EscrowPayment{}, err
	}
	return toDomainEscrow(rec), nil
}

func (r *EscrowRepository) Update(ctx context.Context, row domain.EscrowPayment) error {
	res := conn(ctx, r.db).Model(&escrowModel{}).
		Where("escrow_id = ?", row.EscrowID).
		Updates(map[string]any{
			"state":      string(row.State),
			"updated_at": row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EscrowRepository) List(ctx context.Context, filter domain.EscrowFilter) ([]domain.EscrowPayment, error) {
	q := conn(ctx, r.db).Model(&escrowModel{}).Order("created_at ASC")
	if filter.Payer != "" {
		q = q.Where("payer = ?", filter.Payer)
	}
	if filter.Payee != "" {
		q = q.Where("payee = ?", filter.Payee)
	}
	if filter.State != "" {
		q = q.Where("state = ?", string(filter.State))
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []escrowModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.EscrowPayment, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainEscrow(rec))
	}
	return out, nil
}

func toEscrowModel(row domain.EscrowPayment) *escrowModel {
	return &escrowModel{
		EscrowID:       row.EscrowID,
		Payer:          row.Payer,
		Payee:          row.Payee,
		Token:          row.Token,
		Amount:         row.Amount,
		ReleaseTime:    row.ReleaseTime,
		State:          string(row.State),
		FeeBasisPoints: row.FeeBasisPoints,
		FeeCollector:   row.FeeCollector,
		Metadata:       row.Metadata,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func toDomainEscrow(rec escrowModel) domain.EscrowPayment {
	return domain.EscrowPayment{
		EscrowID:       rec.EscrowID,
		Payer:          rec.Payer,
		Payee:          rec.Payee,
		Token:          rec.Token,
		Amount:         rec.Amount,
		ReleaseTime:    rec.ReleaseTime,
		State:          domain.EscrowState(rec.State),
		FeeBasisPoints: rec.FeeBasisPoints,
		FeeCollector:   rec.FeeCollector,
		Metadata:       rec.Metadata,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

type FeeConfigRepository struct {
	db *gorm.DB
}

func (r *FeeConfigRepository) Get(ctx context.Context) (domain.FeeConfig, error) {
	var rec feeConfigModel
	err := conn(ctx, r.db).First(&rec, "id = 1").Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.FeeConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.FeeConfig{}, err
	}
	return domain.FeeConfig{BasisPoints: rec.BasisPoints, Collector: rec.Collector}, nil
}

func (r *FeeConfigRepository) Set(ctx context.Context, cfg domain.FeeConfig) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"basis_points": cfg.BasisPoints,
			"collector":    cfg.Collector,
			"updated_at":   time.Now().UTC(),
		}),
	}).Create(&feeConfigModel{ID: 1, BasisPoints: cfg.BasisPoints, Collector: cfg.Collector, UpdatedAt: time.Now().UTC()}).Error
}

type IdempotencyRepository struct {
	db *gorm.DB
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	err := conn(ctx, r.db).First(&rec, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if now.After(rec.ExpiresAt) {
		return nil, nil
	}
	return &ports.IdempotencyRecord{
		Key:          rec.Key,
		RequestHash:  rec.RequestHash,
		ResponseCode: rec.ResponseCode,
		ResponseBody: rec.ResponseBody,
		ExpiresAt:    rec.ExpiresAt,
	}, nil
}

func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, now, expiresAt time.Time) error {
	// An expired reservation no longer guards anything; take it over
	// instead of conflicting with it.
	res := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "idempotency_key"}},
		Where:   clause.Where{Exprs: []clause.Expression{gorm.Expr("idempotency_records.expires_at <= ?", now)}},
		DoUpdates: clause.Assignments(map[string]any{
			"request_hash":  requestHash,
			"response_code": 0,
			"response_body": nil,
			"expires_at":    expiresAt,
			"created_at":    now,
		}),
	}).Create(&idempotencyModel{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	res := conn(ctx, r.db).Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"response_code": responseCode,
			"response_body": responseBody,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type OutboxRepository struct {
	db *gorm.DB
}

func (r *OutboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	// The envelope is stored with sequence zero and rewritten once the
	// bigserial assigns the real value, keeping stored and published
	// sequence numbers identical.
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		payload, err := json.Marshal(record.Envelope)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		rec := outboxModel{
			RecordID:   record.RecordID,
			EventClass: record.EventClass,
			Envelope:   payload,
			CreatedAt:  record.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrConflict
			}
			return err
		}
		record.Envelope.Sequence = rec.Sequence
		stamped, err := json.Marshal(record.Envelope)
		if err != nil {
			return fmt.Errorf("stamp envelope: %w", err)
		}
		return tx.Model(&outboxModel{}).
			Where("sequence = ?", rec.Sequence).
			Update("envelope", stamped).Error
	})
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := conn(ctx, r.db).
		Where("sent_at IS NULL").
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, rec := range rows {
		var env contracts.EventEnvelope
		if err := json.Unmarshal(rec.Envelope, &env); err != nil {
			return nil, fmt.Errorf("unmarshal envelope %s: %w", rec.RecordID, err)
		}
		out = append(out, ports.OutboxRecord{
			RecordID:   rec.RecordID,
			Sequence:   rec.Sequence,
			EventClass: rec.EventClass,
			Envelope:   env,
			CreatedAt:  rec.CreatedAt,
			SentAt:     rec.SentAt,
		})
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, recordID string, at time.Time) error {
	res := conn(ctx, r.db).Model(&outboxModel{}).
		Where("record_id = ?", recordID).
		Update("sent_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
