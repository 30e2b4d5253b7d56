package classify

import "github.com/spec-kit/hotel-ops/internal/domain"

// DefaultRules returns the standard rule table. Order matters: complaints
// and urgency cues outrank every topical rule.
func DefaultRules() []Rule {
	return []Rule{
		{
			Keywords: []string{"urgent", "emergency", "immediately", "asap", "complaint", "unacceptable", "terrible", "awful", "worst", "angry", "manager"},
			Outcome: Outcome{
				Category:   domain.CategoryComplaint,
				Department: domain.DepartmentManagement,
				Priority:   domain.TicketPriorityUrgent,
			},
		},
		{
			Keywords: []string{"refund", "charge", "charged", "bill", "billing", "invoice", "payment", "overcharged", "receipt"},
			Outcome: Outcome{
				Category:   domain.CategoryBilling,
				Department: domain.DepartmentFinance,
				Priority:   domain.TicketPriorityHigh,
			},
		},
		{
			Keywords: []string{"housekeeping", "towel", "towels", "clean", "cleaning", "linen", "sheets", "pillow", "toiletries", "minibar"},
			Outcome: Outcome{
				Category:   domain.CategoryHousekeeping,
				Department: domain.DepartmentHousekeeping,
				Priority:   domain.TicketPriorityMedium,
			},
		},
		{
			Keywords: []string{"broken", "repair", "leak", "leaking", "not working", "air conditioning", "heating", "wifi", "tv", "shower", "noise"},
			Outcome: Outcome{
				Category:   domain.CategoryMaintenance,
				Department: domain.DepartmentMaintenance,
				Priority:   domain.TicketPriorityHigh,
			},
		},
		{
			Keywords: []string{"booking", "reservation", "check-in", "check in", "check-out", "check out", "checkout", "cancel", "extend", "early", "late arrival"},
			Outcome: Outcome{
				Category:   domain.CategoryBooking,
				Department: domain.DepartmentFrontDesk,
				Priority:   domain.TicketPriorityMedium,
			},
		},
	}
}

// DefaultFallback is returned when no rule matches.
func DefaultFallback() Outcome {
	return Outcome{
		Category:   domain.CategoryOther,
		Department: domain.DepartmentFrontDesk,
		Priority:   domain.TicketPriorityMedium,
	}
}
