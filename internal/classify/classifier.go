// Package classify maps raw guest conversation text onto a ticket
// category, owning department, and priority using ordered keyword rules.
package classify

import (
	"strings"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// Outcome is the result of classifying a conversation.
type Outcome struct {
	Category   domain.TicketCategory
	Department domain.Department
	Priority   domain.TicketPriority
}

// Rule matches when any of its keywords appears in the combined text.
type Rule struct {
	Keywords []string
	Outcome  Outcome
}

// Classifier evaluates rules in declared order; the first match wins.
// Rule order is a designed tie-break: urgency keywords are checked before
// topical ones so "urgent refund" lands on COMPLAINT, not BILLING.
type Classifier struct {
	rules    []Rule
	fallback Outcome
}

// New builds a classifier over the given ordered rules. Inputs are copied so
// callers cannot mutate the rule table afterwards.
func New(rules []Rule, fallback Outcome) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied, fallback: fallback}
}

// NewDefault builds a classifier with the standard hotel rule table.
func NewDefault() *Classifier {
	return New(DefaultRules(), DefaultFallback())
}

// Classify is deterministic, total and side-effect-free: any pair of input
// strings produces exactly one outcome.
func (c *Classifier) Classify(subject, messageText string) Outcome {
	text := strings.ToLower(subject + " " + messageText)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Outcome
			}
		}
	}
	return c.fallback
}
