package domain

import "time"

// EscrowState is the escrow lifecycle tag. Active is the only non-terminal
// state; Released and Refunded are absorbing, which makes "released and
// refunded at once" unrepresentable.
type EscrowState string

const (
	EscrowStateActive   EscrowState = "active"
	EscrowStateReleased EscrowState = "released"
	EscrowStateRefunded EscrowState = "refunded"
)

// EscrowPayment is a time-locked payment held by the engine until release to
// the payee or refund to the payer. The fee config in force at creation is
// captured on the record; the fee charged at release is computed against the
// snapshot, never against the global config of the moment.
type EscrowPayment struct {
	EscrowID       string
	Payer          string
	Payee          string
	Token          string
	Amount         int64
	ReleaseTime    time.Time
	State          EscrowState
	FeeBasisPoints uint32
	FeeCollector   string
	Metadata       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transition moves the escrow to next, rejecting anything but
// Active→Released and Active→Refunded.
func (e *EscrowPayment) Transition(next EscrowState, at time.Time) error {
	if e.State != EscrowStateActive {
		return ErrAlreadyFinalized
	}
	if next != EscrowStateReleased && next != EscrowStateRefunded {
		return ErrInvalidTransition
	}
	e.State = next
	e.UpdatedAt = at
	return nil
}

type EscrowFilter struct {
	Payer  string
	Payee  string
	State  EscrowState
	Limit  int
	Offset int
}
