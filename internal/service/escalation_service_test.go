package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/observability"
)

type sweepFixture struct {
	svc      *EscalationService
	tickets  *fakeTicketRepo
	audit    *fakeAuditRepo
	policies *fakePolicyRepo
	notifier *recordingNotifier
	metrics  *observability.Metrics
	start    time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	fx := &sweepFixture{
		tickets:  newFakeTicketRepo(),
		audit:    &fakeAuditRepo{},
		policies: &fakePolicyRepo{},
		notifier: &recordingNotifier{},
		metrics:  observability.NewMetrics(),
		start:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	fx.svc = NewEscalationService(testSLAConfig(), EscalationDependencies{
		TicketRepo: fx.tickets,
		AuditRepo:  fx.audit,
		SLA:        newSLAServiceForTest(fx.policies, fx.audit),
		Notifier:   fx.notifier,
		Metrics:    fx.metrics,
	}, zap.NewNop())
	return fx
}

// addOpenTicket registers an unanswered OPEN ticket created at the fixture
// start with a response deadline responseDue minutes later.
func (fx *sweepFixture) addOpenTicket(id string, responseDue int) *domain.Ticket {
	due := fx.start.Add(time.Duration(responseDue) * time.Minute)
	ticket := domain.Ticket{
		ID:             id,
		HotelID:        "hotel-1",
		ConversationID: "conv-" + id,
		Category:       domain.CategoryOther,
		Department:     domain.DepartmentFrontDesk,
		Priority:       domain.TicketPriorityMedium,
		Status:         domain.TicketStatusOpen,
		ResponseDueAt:  &due,
		CreatedAt:      fx.start,
	}
	fx.tickets.add(ticket)
	return fx.tickets.tickets[id]
}

func TestSweepBreachesOverdueTicket(t *testing.T) {
	fx := newSweepFixture(t)
	fx.addOpenTicket("ticket-1", 60)

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(75*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Breached)
	assert.Equal(t, 0, result.Escalated)
	assert.Empty(t, result.Errors)

	stored := fx.tickets.tickets["ticket-1"]
	assert.Equal(t, domain.TicketStatusBreached, stored.Status)
	// breach and escalation are mutually exclusive within one pass
	assert.Equal(t, 0, stored.EscalatedLevel)

	breaches := fx.audit.byAction(domain.AuditSLABreach)
	require.Len(t, breaches, 1)
	assert.Equal(t, domain.SystemActor, breaches[0].Actor)
	assert.Equal(t, "RESPONSE_OVERDUE", breaches[0].Detail["kind"])
	assert.Equal(t, 15, breaches[0].Detail["delay_minutes"])

	assert.Equal(t, []string{"ticket-1"}, fx.notifier.breaches)
	assert.Empty(t, fx.notifier.escalations)
}

func TestSweepEscalatesAgedTicket(t *testing.T) {
	fx := newSweepFixture(t)
	// deadline still two hours out, but the ticket is already old enough
	// for escalation level 1
	fx.addOpenTicket("ticket-1", 120)

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(65*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, 0, result.Breached)

	stored := fx.tickets.tickets["ticket-1"]
	assert.Equal(t, 1, stored.EscalatedLevel)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	require.NotNil(t, stored.LastEscalationAt)

	triggered := fx.audit.byAction(domain.AuditEscalationTriggered)
	require.Len(t, triggered, 1)
	assert.Equal(t, 0, triggered[0].Detail["previous_level"])
	assert.Equal(t, 1, triggered[0].Detail["new_level"])

	require.Len(t, fx.notifier.escalations, 1)
	assert.Equal(t, 1, fx.notifier.escalations[0].level)
	assert.Equal(t, []string{"MANAGER", "FRONT_DESK"}, fx.notifier.escalations[0].roles)
}

func TestSweepSkipsLevelsAlreadyReached(t *testing.T) {
	fx := newSweepFixture(t)
	ticket := fx.addOpenTicket("ticket-1", 600)
	ticket.EscalatedLevel = 2

	// age crosses levels 1 and 2 but only 3 is still above the current level
	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(250*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, 3, fx.tickets.tickets["ticket-1"].EscalatedLevel)
}

func TestSweepLevelNeverGoesDown(t *testing.T) {
	fx := newSweepFixture(t)
	ticket := fx.addOpenTicket("ticket-1", 600)
	ticket.EscalatedLevel = 3

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(90*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, 3, fx.tickets.tickets["ticket-1"].EscalatedLevel)
	assert.Empty(t, fx.notifier.escalations)
}

func TestSweepJumpsToHighestCrossedLevel(t *testing.T) {
	fx := newSweepFixture(t)
	fx.addOpenTicket("ticket-1", 600)

	// first run after four hours lands directly on level 3
	_, err := fx.svc.RunSweep(context.Background(), fx.start.Add(245*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 3, fx.tickets.tickets["ticket-1"].EscalatedLevel)
	require.Len(t, fx.notifier.escalations, 1)
	assert.Equal(t, 3, fx.notifier.escalations[0].level)
}

func TestSweepTicketTooYoungForAnything(t *testing.T) {
	fx := newSweepFixture(t)
	fx.addOpenTicket("ticket-1", 60)

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(30*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Breached)
	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, domain.TicketStatusOpen, fx.tickets.tickets["ticket-1"].Status)
}

func TestSweepUsesPolicyStepRoles(t *testing.T) {
	fx := newSweepFixture(t)
	fx.policies.policies = []domain.SLAPolicy{{
		ID:         "policy-1",
		HotelID:    "hotel-1",
		Category:   domain.CategoryOther,
		Department: domain.DepartmentFrontDesk,
		Active:     true,
		EscalationSteps: []domain.EscalationStep{
			{Level: 1, NotifyRoles: []string{"ADMIN"}},
		},
	}}
	fx.addOpenTicket("ticket-1", 600)

	_, err := fx.svc.RunSweep(context.Background(), fx.start.Add(65*time.Minute))
	require.NoError(t, err)

	require.Len(t, fx.notifier.escalations, 1)
	assert.Equal(t, []string{"ADMIN"}, fx.notifier.escalations[0].roles)
}

func TestSweepFallsBackToDefaultRolesWithoutStep(t *testing.T) {
	fx := newSweepFixture(t)
	fx.policies.policies = []domain.SLAPolicy{{
		ID:         "policy-1",
		HotelID:    "hotel-1",
		Category:   domain.CategoryOther,
		Department: domain.DepartmentFrontDesk,
		Active:     true,
		EscalationSteps: []domain.EscalationStep{
			{Level: 3, NotifyRoles: []string{"ADMIN"}},
		},
	}}
	fx.addOpenTicket("ticket-1", 600)

	_, err := fx.svc.RunSweep(context.Background(), fx.start.Add(65*time.Minute))
	require.NoError(t, err)

	require.Len(t, fx.notifier.escalations, 1)
	assert.Equal(t, []string{"MANAGER", "FRONT_DESK"}, fx.notifier.escalations[0].roles)
}

func TestSweepNotificationFailureIsNotFatal(t *testing.T) {
	fx := newSweepFixture(t)
	fx.notifier.fail = true
	fx.addOpenTicket("ticket-1", 60)

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(90*time.Minute))
	require.NoError(t, err)

	// the breach itself is durable even though delivery failed
	assert.Equal(t, 1, result.Breached)
	assert.Empty(t, result.Errors)
	assert.Equal(t, domain.TicketStatusBreached, fx.tickets.tickets["ticket-1"].Status)
	assert.Len(t, fx.audit.byAction(domain.AuditSLABreach), 1)
}

func TestSweepIsolatesPerTicketFailures(t *testing.T) {
	fx := newSweepFixture(t)
	fx.addOpenTicket("ticket-1", 60)
	fx.addOpenTicket("ticket-2", 60)
	fx.audit.appendErr = errors.New("audit store down")

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(90*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Len(t, result.Errors, 2)
	for _, sweepErr := range result.Errors {
		assert.Contains(t, sweepErr.Message, "audit")
	}
}

func TestSweepSkipsAnsweredTickets(t *testing.T) {
	fx := newSweepFixture(t)
	answered := fx.addOpenTicket("ticket-1", 60)
	respondedAt := fx.start.Add(10 * time.Minute)
	answered.FirstResponseAt = &respondedAt
	answered.Status = domain.TicketStatusInProgress

	result, err := fx.svc.RunSweep(context.Background(), fx.start.Add(90*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, domain.TicketStatusInProgress, fx.tickets.tickets["ticket-1"].Status)
}

func TestSweepListFailureAbortsRun(t *testing.T) {
	fx := newSweepFixture(t)
	fx.tickets.listErr = errors.New("database gone")

	_, err := fx.svc.RunSweep(context.Background(), fx.start)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list unanswered tickets")
}

func TestSweepRecordsMetrics(t *testing.T) {
	fx := newSweepFixture(t)
	fx.addOpenTicket("ticket-1", 60)
	fx.addOpenTicket("ticket-2", 600)

	_, err := fx.svc.RunSweep(context.Background(), fx.start.Add(65*time.Minute))
	require.NoError(t, err)

	runs, breached, escalated := fx.metrics.SweepTotals()
	assert.Equal(t, int64(1), runs)
	assert.Equal(t, int64(1), breached)
	assert.Equal(t, int64(1), escalated)
}
