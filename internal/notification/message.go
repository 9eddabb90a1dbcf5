package notification

import (
	"fmt"
	"strings"
	"time"
)

// ClaimMessageParams carries everything needed to build the claim SMS.
type ClaimMessageParams struct {
	TenantName  string
	LeadName    string
	LeadPhone   string
	ClaimURL    string
	ClaimWindow time.Duration
}

// BuildClaimMessage renders the human-readable claim SMS body.
func BuildClaimMessage(params ClaimMessageParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: new lead %s (%s).\n", params.TenantName, params.LeadName, params.LeadPhone)
	fmt.Fprintf(&b, "Claim it within %s or our AI assistant will call them:\n", formatWindow(params.ClaimWindow))
	b.WriteString(params.ClaimURL)
	return b.String()
}

func formatWindow(window time.Duration) string {
	if window < time.Minute {
		return fmt.Sprintf("%d seconds", int(window.Seconds()))
	}

	minutes := int(window.Round(time.Minute).Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
