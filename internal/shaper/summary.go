package shaper

import (
	"fmt"
	"strings"
	"time"

	"github.com/petasbytes/overview-agent/internal/records"
)

// summarize returns a deterministic answer for the turn, or "" when no
// summary applies.
func summarize(message string, card CardKey, f facts) string {
	switch {
	case len(f.accounts) > 0 && isRewardsQuestion(message):
		return RewardsSummary(f.accounts[0])
	case card == CardAccountOverview:
		return AccountSummary(f.accounts[0])
	case card == CardFacilityOverview:
		return FacilitySummary(f.facilities[0])
	case card == CardNoteOverview:
		return NotesSummary(f.notes)
	}
	return ""
}

func AccountSummary(a records.Account) string {
	var b strings.Builder
	b.WriteString("Here is a summary of your account:\n")
	fmt.Fprintf(&b, "- Account Name: %s\n", a.Name)
	fmt.Fprintf(&b, "- Status: %s\n", a.Status)
	fmt.Fprintf(&b, "- Account ID: %s\n", a.AccountID)
	fmt.Fprintf(&b, "- Address: %s\n", joinNonEmpty(", ", a.AddressLine1, a.AddressCity, a.AddressState, a.AddressPostalCode))
	fmt.Fprintf(&b, "- Pricing Model: %s\n\n", a.PricingModel)
	b.WriteString("Loyalty & Rewards:\n")
	fmt.Fprintf(&b, "- Current Loyalty Tier: %s (next tier: %s, %d points needed)\n", a.CurrentTier, a.NextTier, a.PointsToNextTier)
	fmt.Fprintf(&b, "- Loyalty Points Balance: %d (pending: %d)\n", a.PointsEarnedThisQuarter, a.PendingBalance)
	fmt.Fprintf(&b, "- Free Vials Available: %d\n", a.FreeVialsAvailable)
	fmt.Fprintf(&b, "- Rewards Redeemed Toward Next Free Vial: %d\n\n", a.RewardsRedeemedTowardsNextFreeVial)
	b.WriteString("Other Details:\n")
	fmt.Fprintf(&b, "- Evolux Level: %s\n", a.EvoluxLevel)
	fmt.Fprintf(&b, "- Reward Program Opt-in Status: %s\n\n", a.RewardsStatus)
	b.WriteString("Let me know if you need more detailed information or have other questions!")
	return b.String()
}

func RewardsSummary(a records.Account) string {
	var b strings.Builder
	b.WriteString("Here are your current loyalty & rewards details:\n\n")
	fmt.Fprintf(&b, "- Current Tier: %s (next tier: %s, %d points needed)\n", a.CurrentTier, a.NextTier, a.PointsToNextTier)
	fmt.Fprintf(&b, "- Points Balance: %d (pending: %d)\n", a.PointsEarnedThisQuarter, a.PendingBalance)
	fmt.Fprintf(&b, "- Free Vials Available: %d\n", a.FreeVialsAvailable)
	fmt.Fprintf(&b, "- Progress to Next Free Vial: %d/%d\n", a.RewardsRedeemedTowardsNextFreeVial, a.RewardsRequiredForNextFreeVial)
	fmt.Fprintf(&b, "- Rewards Opt-in Status: %s\n", a.RewardsStatus)
	return b.String()
}

func FacilitySummary(f records.Facility) string {
	var b strings.Builder
	b.WriteString("Here is a summary of the facility:\n")
	fmt.Fprintf(&b, "- Facility Name: %s\n", f.Name)
	fmt.Fprintf(&b, "- Status: %s\n", f.Status)
	fmt.Fprintf(&b, "- Facility ID: %s\n", f.ID)
	fmt.Fprintf(&b, "- Medical License: %s (%s)\n", f.MedicalLicenseNumber, f.MedicalLicenseState)
	fmt.Fprintf(&b, "- Agreement Status: %s\n", f.AgreementStatus)
	fmt.Fprintf(&b, "- Account: %s (%s)\n", f.AccountName, f.AccountID)
	return b.String()
}

func NotesSummary(notes []records.Note) string {
	if len(notes) == 0 {
		return "No notes found for your query."
	}
	var b strings.Builder
	b.WriteString("Here are your notes:\n\n")
	for _, n := range notes {
		fmt.Fprintf(&b, "- (%s) %s\n", n.CreatedAt.UTC().Format(time.RFC3339), n.Content)
	}
	return b.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
