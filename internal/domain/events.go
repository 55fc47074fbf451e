package domain

const (
	EventClassDomain = "domain"
	EventClassOps    = "ops"
)

const (
	EventRoleGranted      = "access.role_granted"
	EventRoleRevoked      = "access.role_revoked"
	EventEnginePaused     = "engine.paused"
	EventEngineUnpaused   = "engine.unpaused"
	EventFeeConfigUpdated = "fees.config_updated"
	EventPaymentRecorded  = "payments.recorded"
	EventSplitProcessed   = "payments.split_processed"
	EventEscrowCreated    = "escrow.created"
	EventEscrowReleased   = "escrow.released"
	EventEscrowRefunded   = "escrow.refunded"
)

func IsEmittedEvent(eventType string) bool {
	switch eventType {
	case EventRoleGranted, EventRoleRevoked,
		EventEnginePaused, EventEngineUnpaused,
		EventFeeConfigUpdated,
		EventPaymentRecorded, EventSplitProcessed,
		EventEscrowCreated, EventEscrowReleased, EventEscrowRefunded:
		return true
	default:
		return false
	}
}

// EventClass separates value-moving events, which downstream indexers must
// consume, from administrative audit events.
func EventClass(eventType string) string {
	switch eventType {
	case EventPaymentRecorded, EventSplitProcessed,
		EventEscrowCreated, EventEscrowReleased, EventEscrowRefunded:
		return EventClassDomain
	case EventRoleGranted, EventRoleRevoked,
		EventEnginePaused, EventEngineUnpaused,
		EventFeeConfigUpdated:
		return EventClassOps
	default:
		return ""
	}
}
