package domain

import "testing"

func TestIsTerminal(t *testing.T) {
	terminal := []LeadStatus{
		StatusClaimed, StatusBooked, StatusAIQualified,
		StatusCallbackScheduled, StatusDisqualified, StatusNoAnswer, StatusDead,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}

	open := []LeadStatus{StatusNew, StatusSMSSent, StatusAICalling}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !StatusSMSSent.IsValid() {
		t.Error("SMS_SENT should be valid")
	}
	for _, s := range []LeadStatus{"", "sms_sent", "PENDING"} {
		if s.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", s)
		}
	}
}
