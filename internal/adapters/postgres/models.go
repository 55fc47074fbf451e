package postgres

import "time"

type roleGrantModel struct {
	Account   string    `gorm:"column:account;primaryKey"`
	Role      string    `gorm:"column:role;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (roleGrantModel) TableName() string { return "role_grants" }

type paymentModel struct {
	PaymentID   int64     `gorm:"column:payment_id;primaryKey;autoIncrement"`
	Payer       string    `gorm:"column:payer"`
	Payee       string    `gorm:"column:payee"`
	Token       string    `gorm:"column:token"`
	GrossAmount int64     `gorm:"column:gross_amount"`
	FeeAmount   int64     `gorm:"column:fee_amount"`
	NetAmount   int64     `gorm:"column:net_amount"`
	Metadata    string    `gorm:"column:metadata"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (paymentModel) TableName() string { return "payments" }

type paymentStatsModel struct {
	Account       string `gorm:"column:account;primaryKey"`
	TotalSent     int64  `gorm:"column:total_sent"`
	TotalReceived int64  `gorm:"column:total_received"`
	PaymentCount  int64  `gorm:"column:payment_count"`
}

func (paymentStatsModel) TableName() string { return "payment_stats" }

type escrowModel struct {
	EscrowID       string    `gorm:"column:escrow_id;primaryKey"`
	Payer          string    `gorm:"column:payer"`
	Payee          string    `gorm:"column:payee"`
	Token          string    `gorm:"column:token"`
	Amount         int64     `gorm:"column:amount"`
	ReleaseTime    time.Time `gorm:"column:release_time"`
	State          string    `gorm:"column:state"`
	FeeBasisPoints uint32    `gorm:"column:fee_basis_points"`
	FeeCollector   string    `gorm:"column:fee_collector"`
	Metadata       string    `gorm:"column:metadata"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (escrowModel) TableName() string { return "escrow_payments" }

type feeConfigModel struct {
	ID          int16     `gorm:"column:id;primaryKey"`
	BasisPoints uint32    `gorm:"column:basis_points"`
	Collector   string    `gorm:"column:collector"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (feeConfigModel) TableName() string { return "fee_config" }

type idempotencyModel struct {
	Key          string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	ResponseCode int       `gorm:"column:response_code"`
	ResponseBody []byte    `gorm:"column:response_body"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (idempotencyModel) TableName() string { return "idempotency_records" }

type outboxModel struct {
	Sequence   uint64     `gorm:"column:sequence;primaryKey;autoIncrement"`
	RecordID   string     `gorm:"column:record_id;uniqueIndex"`
	EventClass string     `gorm:"column:event_class"`
	Envelope   []byte     `gorm:"column:envelope"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "event_outbox" }
