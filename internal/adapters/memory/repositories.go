package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
	"github.com/paygrid/payment-engine/internal/ports"
)

// Repositories bundles the in-memory adapters used by tests and the
// dev runtime. Each repository serializes on its own mutex.
type Repositories struct {
	Roles       *RoleRepository
	Payments    *PaymentRepository
	Stats       *StatsRepository
	Escrows     *EscrowRepository
	FeeConfig   *FeeConfigRepository
	Idempotency *IdempotencyRepository
	Outbox      *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Roles:       &RoleRepository{grants: map[string]map[domain.Role]struct{}{}},
		Payments:    &PaymentRepository{},
		Stats:       &StatsRepository{rows: map[string]domain.PaymentStats{}},
		Escrows:     &EscrowRepository{rows: map[string]domain.EscrowPayment{}},
		FeeConfig:   &FeeConfigRepository{},
		Idempotency: &IdempotencyRepository{rows: map[string]ports.IdempotencyRecord{}},
		Outbox:      &OutboxRepository{rows: map[string]ports.OutboxRecord{}},
	}
}

type RoleRepository struct {
	mu     sync.Mutex
	grants map[string]map[domain.Role]struct{}
}

func (r *RoleRepository) Grant(_ context.Context, account string, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.grants[account]
	if !ok {
		set = map[domain.Role]struct{}{}
		r.grants[account] = set
	}
	if _, held := set[role]; held {
		return false, nil
	}
	set[role] = struct{}{}
	return true, nil
}

func (r *RoleRepository) Revoke(_ context.Context, account string, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.grants[account]
	if !ok {
		return false, nil
	}
	if _, held := set[role]; !held {
		return false, nil
	}
	delete(set, role)
	return true, nil
}

func (r *RoleRepository) HasRole(_ context.Context, account string, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.grants[account]
	if !ok {
		return false, nil
	}
	_, held := set[role]
	return held, nil
}

func (r *RoleRepository) CountHolders(_ context.Context, role domain.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, set := range r.grants {
		if _, held := set[role]; held {
			count++
		}
	}
	return count, nil
}

type PaymentRepository struct {
	mu   sync.Mutex
	rows []domain.Payment
}

func (r *PaymentRepository) Append(_ context.Context, row domain.Payment) (domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.ID = int64(len(r.rows)) + 1
	r.rows = append(r.rows, row)
	return row, nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id int64) (domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 1 || id > int64(len(r.rows)) {
		return domain.Payment{}, domain.ErrNotFound
	}
	return r.rows[id-1], nil
}

func (r *PaymentRepository) List(_ context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]domain.Payment, 0)
	for _, row := range r.rows {
		if filter.Account != "" && row.Payer != filter.Account && row.Payee != filter.Account {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		matched = append(matched, row)
	}
	if filter.Offset >= len(matched) {
		return []domain.Payment{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	out := make([]domain.Payment, len(matched))
	copy(out, matched)
	return out, nil
}

type StatsRepository struct {
	mu   sync.Mutex
	rows map[string]domain.PaymentStats
}

func (r *StatsRepository) Apply(_ context.Context, payer, payee string, gross, net int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := r.rows[payer]
	sent.Account = payer
	sent.TotalSent += gross
	sent.PaymentCount++
	r.rows[payer] = sent
	received := r.rows[payee]
	received.Account = payee
	received.TotalReceived += net
	received.PaymentCount++
	r.rows[payee] = received
	return nil
}

func (r *StatsRepository) Get(_ context.Context, account string) (domain.PaymentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.rows[account]
	if !ok {
		return domain.PaymentStats{Account: account}, nil
	}
	return stats, nil
}

type EscrowRepository struct {
	mu    sync.Mutex
	rows  map[string]domain.EscrowPayment
	order []string
}

func (r *EscrowRepository) Create(_ context.Context, row domain.EscrowPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.EscrowID]; ok {
		return domain.ErrConflict
	}
	r.rows[row.EscrowID] = row
	r.order = append(r.order, row.EscrowID)
	return nil
}

func (r *EscrowRepository) GetByID(_ context.Context, escrowID string) (domain.EscrowPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[strings.TrimSpace(escrowID)]
	if !ok {
		return domain.EscrowPayment{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *EscrowRepository) Update(_ context.Context, row domain.EscrowPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.EscrowID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[row.EscrowID] = row
	return nil
}

func (r *EscrowRepository) List(_ context.Context, filter domain.EscrowFilter) ([]domain.EscrowPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]domain.EscrowPayment, 0)
	for _, id := range r.order {
		row := r.rows[id]
		if filter.Payer != "" && row.Payer != filter.Payer {
			continue
		}
		if filter.Payee != "" && row.Payee != filter.Payee {
			continue
		}
		if filter.State != "" && row.State != filter.State {
			continue
		}
		matched = append(matched, row)
	}
	if filter.Offset >= len(matched) {
		return []domain.EscrowPayment{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

type FeeConfigRepository struct {
	mu  sync.Mutex
	cfg domain.FeeConfig
	set bool
}

func (r *FeeConfigRepository) Get(_ context.Context) (domain.FeeConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.set {
		return domain.FeeConfig{}, domain.ErrNotFound
	}
	return r.cfg, nil
}

func (r *FeeConfigRepository) Set(_ context.Context, cfg domain.FeeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.set = true
	return nil
}

type IdempotencyRepository struct {
	mu   sync.Mutex
	rows map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	if now.After(row.ExpiresAt) {
		delete(r.rows, key)
		return nil, nil
	}
	out := row
	out.ResponseBody = append([]byte(nil), row.ResponseBody...)
	return &out, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, now, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Expiry is judged against the caller's clock, same as Get.
	if row, ok := r.rows[key]; ok && now.Before(row.ExpiresAt) {
		return domain.ErrConflict
	}
	r.rows[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return domain.ErrNotFound
	}
	row.ResponseCode = responseCode
	row.ResponseBody = append([]byte(nil), responseBody...)
	r.rows[key] = row
	return nil
}

type OutboxRepository struct {
	mu   sync.Mutex
	rows map[string]ports.OutboxRecord
	seq  uint64
}

func (r *OutboxRepository) Enqueue(_ context.Context, row ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.RecordID]; ok {
		return domain.ErrConflict
	}
	r.seq++
	row.Sequence = r.seq
	row.Envelope.Sequence = r.seq
	r.rows[row.RecordID] = row
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]ports.OutboxRecord, 0, limit)
	for _, row := range r.rows {
		if row.SentAt != nil {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	row.SentAt = &at
	r.rows[recordID] = row
	return nil
}
