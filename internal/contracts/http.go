package contracts

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ProcessPaymentRequest struct {
	Payee    string `json:"payee"`
	Token    string `json:"token,omitempty"`
	Amount   int64  `json:"amount"`
	Metadata string `json:"metadata,omitempty"`
}

type PaymentResponse struct {
	PaymentID   int64  `json:"payment_id"`
	Payer       string `json:"payer"`
	Payee       string `json:"payee"`
	Token       string `json:"token"`
	GrossAmount int64  `json:"gross_amount"`
	FeeAmount   int64  `json:"fee_amount"`
	NetAmount   int64  `json:"net_amount"`
	Metadata    string `json:"metadata,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type CreateEscrowRequest struct {
	Payee         string `json:"payee"`
	Token         string `json:"token,omitempty"`
	Amount        int64  `json:"amount"`
	SuppliedValue int64  `json:"supplied_value"`
	ReleaseTime   int64  `json:"release_time"` // unix seconds; zero means releasable immediately
	Metadata      string `json:"metadata,omitempty"`
}

type EscrowResponse struct {
	EscrowID       string `json:"escrow_id"`
	Payer          string `json:"payer"`
	Payee          string `json:"payee"`
	Token          string `json:"token"`
	Amount         int64  `json:"amount"`
	ReleaseTime    string `json:"release_time"`
	State          string `json:"state"`
	FeeBasisPoints uint32 `json:"fee_basis_points"`
	Metadata       string `json:"metadata,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ReleaseEscrowResponse struct {
	Escrow  EscrowResponse  `json:"escrow"`
	Payment PaymentResponse `json:"payment"`
}

type ProcessSplitRequest struct {
	Recipients []string `json:"recipients"`
	Amounts    []int64  `json:"amounts"`
	Token      string   `json:"token,omitempty"`
	Metadata   string   `json:"metadata,omitempty"`
}

type SplitResponse struct {
	SplitID    string            `json:"split_id"`
	GrossTotal int64             `json:"gross_total"`
	FeeTotal   int64             `json:"fee_total"`
	Payments   []PaymentResponse `json:"payments"`
}

type GrantRoleRequest struct {
	Account string `json:"account"`
	Role    string `json:"role"`
}

type RevokeRoleRequest struct {
	Account string `json:"account"`
	Role    string `json:"role"`
}

type SetFeeConfigRequest struct {
	BasisPoints uint32 `json:"basis_points"`
	Collector   string `json:"collector"`
}

type FeeConfigResponse struct {
	BasisPoints uint32 `json:"basis_points"`
	Collector   string `json:"collector"`
}

type PauseStateResponse struct {
	Paused bool `json:"paused"`
}

type StatsResponse struct {
	Account       string `json:"account"`
	TotalSent     int64  `json:"total_sent"`
	TotalReceived int64  `json:"total_received"`
	PaymentCount  int64  `json:"payment_count"`
}
