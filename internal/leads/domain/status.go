// Package domain holds the lead status model shared by the leads and
// escalation modules.
package domain

// LeadStatus is the single source of truth for where a lead sits in the
// claim-or-AI-call pipeline. Transitions out of SMS_SENT are guarded by
// conditional writes in the repository; every other field on the lead is
// derived bookkeeping.
type LeadStatus string

const (
	StatusNew               LeadStatus = "NEW"
	StatusSMSSent           LeadStatus = "SMS_SENT"
	StatusClaimed           LeadStatus = "CLAIMED"
	StatusAICalling         LeadStatus = "AI_CALLING"
	StatusBooked            LeadStatus = "BOOKED"
	StatusAIQualified       LeadStatus = "AI_QUALIFIED"
	StatusCallbackScheduled LeadStatus = "CALLBACK_SCHEDULED"
	StatusDisqualified      LeadStatus = "DISQUALIFIED"
	StatusNoAnswer          LeadStatus = "NO_ANSWER"
	// StatusDead is reachable only by operator action, never by the engine.
	StatusDead LeadStatus = "DEAD"
)

// ClaimedBy discriminates who took ownership of a lead.
type ClaimedBy string

const (
	ClaimedByHuman ClaimedBy = "human"
	ClaimedByAI    ClaimedBy = "ai"
)

// IsTerminal reports whether the status accepts no further engine transitions.
func (s LeadStatus) IsTerminal() bool {
	switch s {
	case StatusClaimed, StatusBooked, StatusAIQualified,
		StatusCallbackScheduled, StatusDisqualified, StatusNoAnswer, StatusDead:
		return true
	}
	return false
}

// IsValid reports whether the value is a known lead status.
func (s LeadStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusSMSSent, StatusClaimed, StatusAICalling,
		StatusBooked, StatusAIQualified, StatusCallbackScheduled,
		StatusDisqualified, StatusNoAnswer, StatusDead:
		return true
	}
	return false
}
