package usecase

import (
	"fmt"
	"strings"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

// Prompt builders for the three reasoning stages. The templates are versioned
// with the code on purpose: changing a rule here changes pipeline behavior,
// so it goes through review like any other logic change.

func buildClassificationPrompt(profile domain.FlavorProfile) string {
	var b strings.Builder
	b.WriteString("You are a document triage assistant for insurance claim intake.\n")
	b.WriteString("Each attached document begins with a FILENAME marker. Assign exactly one category to each file.\n\n")
	b.WriteString("Categories, in priority order. Test them top to bottom and stop at the first match:\n")
	for i, category := range profile.Taxonomy {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, category, categoryHint(category))
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- A file matching an earlier category must never receive a later one.\n")
	b.WriteString("- Use only the categories listed above.\n")
	b.WriteString("- Echo each filename exactly as given in its FILENAME marker.\n\n")
	b.WriteString(`Respond with a JSON array only, no prose: [{"filename": "...", "category": "..."}]`)
	return b.String()
}

func categoryHint(category domain.DocumentCategory) string {
	switch category {
	case domain.CategoryFullPolicy:
		return "the complete policy wording with all terms, conditions and benefit tables"
	case domain.CategoryPolicySummary:
		return "a confirmation of coverage or certificate summarizing the purchased policy"
	case domain.CategoryClaimSummary:
		return "the claimant's claim form or first notice of loss describing what happened"
	case domain.CategoryHotelBooking:
		return "a hotel, flight or other travel booking confirmation"
	case domain.CategoryBusinessIncome:
		return "financial statements or income records for the insured business"
	case domain.CategoryPropertyProof:
		return "photos, inventories or repair estimates evidencing property damage"
	case domain.CategoryEvidence:
		return "any other supporting evidence: receipts, medical notes, correspondence"
	default:
		return "supporting material"
	}
}

func buildFactsPrompt() string {
	return strings.Join([]string{
		"Extract structured facts from the attached insurance claim documents.",
		"Fill the provided JSON schema from document content only; never invent values.",
		"Use an empty string for any field the documents do not state.",
		"Normalize monetary amounts to plain decimal strings without currency symbols or thousands separators.",
		"Dates keep the format printed in the source document.",
		"Respond with a single JSON object matching the schema, no prose.",
	}, "\n")
}

func buildAuditPrompt(required []string, classified []domain.ClassifiedDocument) string {
	var b strings.Builder
	b.WriteString("You audit an insurance claim file for completeness.\n\n")
	b.WriteString("REQUIRED_FILES for this claim reason:\n")
	for _, name := range required {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nProvided documents and their categories:\n")
	if len(classified) == 0 {
		b.WriteString("(none)\n")
	}
	for _, doc := range classified {
		fmt.Fprintf(&b, "- %s (%s)\n", doc.Filename, doc.Category)
	}
	b.WriteString("\nFor every required file decide whether it is missing and give a one-sentence reason.\n")
	b.WriteString("A requirement is satisfied by any provided document whose content covers it, regardless of filename.\n")
	fmt.Fprintf(&b, "The %q item is required only when other required files are missing.\n", domain.ConditionalLetterItem)
	b.WriteString("If anything is missing, write a short summary addressed to the claimant listing what to send.\n\n")
	b.WriteString("Respond with a JSON object only, no prose:\n")
	b.WriteString(`{"missing_status": {"<required file>": {"missing": true|false, "reason": "..."}}, "final_missing_status": true|false, "generated_decision_summary": "..."}`)
	return b.String()
}

func buildDecisionPrompt(facts *domain.ExtractedFacts) string {
	var b strings.Builder
	b.WriteString("You are an insurance claim adjudicator. Decide the attached claim against the attached policy wording.\n\n")
	b.WriteString("Apply these rules in order:\n")
	b.WriteString("1. Policy validity gate: if no attached document is a valid policy covering the claimant and the loss period, decline.\n")
	fmt.Fprintf(&b, "   Use exactly this decision_reason: %q, confidence_level 0.90, payment_status %q.\n",
		domain.DeclineNoValidPolicy, domain.PaymentNotResolved)
	b.WriteString("2. Illness claims: an illness or medical claim without medical evidence among the attachments is fraud-suspect.\n")
	fmt.Fprintf(&b, "   Set is_fraud_suspected true, include %q in fraud_reasons, approve nothing, decline, confidence_level at most 0.70.\n",
		domain.DeclineMissingMedicalEvidence)
	b.WriteString("3. Payout cap precedence: the claimable maximum is the expected refund when the claim states one; otherwise the overall per-trip cap from the policy; otherwise the insured trip cost. Per-day benefits cap at the lesser of the per-day computation and the overall cap.\n")
	b.WriteString("4. approved_amount never exceeds policy_claimable_max. Leave numeric fields null when the policy text does not state them; never guess limits.\n")
	b.WriteString("5. confidence_level reflects how directly the policy text supports the verdict: 0.90+ only for explicit coverage language, below 0.70 whenever fraud is suspected or key text is ambiguous.\n\n")
	if facts != nil && facts.Claim != nil {
		fmt.Fprintf(&b, "Claim type: %s / %s. Claimed amount: %s. Expected refunds: %s. Health related: %t.\n\n",
			facts.Claim.Reason.ClaimType, facts.Claim.Reason.SubReason,
			facts.Claim.Expense.TotalClaimedAmount, facts.Claim.Expense.TotalExpectedRefunds,
			facts.Claim.IsHealth)
	}
	b.WriteString("Respond with a single JSON object matching the provided schema, no prose.")
	return b.String()
}
