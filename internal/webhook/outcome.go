package webhook

import (
	"strings"

	"leadline_backend/internal/leads/domain"
)

// outcomeRule maps a provider outcome phrase onto our status enum.
type outcomeRule struct {
	substrings []string
	status     domain.LeadStatus
}

// outcomeRules is evaluated in order; first substring hit wins. Matching is
// case-insensitive so providers that capitalize or snake-case their tags
// still land on the right status.
var outcomeRules = []outcomeRule{
	{[]string{"booked", "appointment"}, domain.StatusBooked},
	{[]string{"not_interested", "declined"}, domain.StatusDisqualified},
	{[]string{"callback", "reschedule"}, domain.StatusCallbackScheduled},
	{[]string{"no_answer", "voicemail"}, domain.StatusNoAnswer},
}

// MapOutcome converts the provider's free-text outcome tag into a lead
// status. Unknown vocabulary defaults to AI_QUALIFIED: the call happened and
// a human should review the transcript.
func MapOutcome(outcome string) domain.LeadStatus {
	normalized := strings.ToLower(strings.TrimSpace(outcome))
	for _, rule := range outcomeRules {
		for _, sub := range rule.substrings {
			if strings.Contains(normalized, sub) {
				return rule.status
			}
		}
	}
	return domain.StatusAIQualified
}
