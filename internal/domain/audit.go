package domain

import "time"

// SystemActor marks audit entries written by automated processes such as
// the escalation sweep.
const SystemActor = "system"

// AuditAction tags what happened in an audit entry.
type AuditAction string

const (
	AuditTicketCreated        AuditAction = "TICKET_CREATED"
	AuditTicketUpdated        AuditAction = "TICKET_UPDATED"
	AuditFirstResponse        AuditAction = "FIRST_RESPONSE_RECORDED"
	AuditSLABreach            AuditAction = "SLA_BREACH"
	AuditEscalationTriggered  AuditAction = "ESCALATION_TRIGGERED"
	AuditPolicyCreated        AuditAction = "SLA_POLICY_CREATED"
	AuditPolicyDeactivated    AuditAction = "SLA_POLICY_DEACTIVATED"
)

// AuditEntry is an immutable record of a lifecycle mutation or sweep event.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    AuditAction
	Entity    string
	EntityID  string
	Detail    map[string]any
	CreatedAt time.Time
}
