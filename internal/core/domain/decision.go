package domain

type Appetite string

const (
	AppetiteApprove Appetite = "approve"
	AppetiteDecline Appetite = "decline"
)

type PaymentStatus string

const (
	PaymentNotResolved PaymentStatus = "not_resolved"
	PaymentPartial     PaymentStatus = "partial_payment"
	PaymentFull        PaymentStatus = "full_payment"
)

// DeclineNoValidPolicy is the fixed reason emitted when no attached file
// passes the policy validity gate.
const DeclineNoValidPolicy = "Declined: no valid policy document among attachments"

// DeclineMissingMedicalEvidence is the fixed reason for illness claims
// without substantiating medical proof.
const DeclineMissingMedicalEvidence = "Missing medical evidence in attachments for illness-based claim"

type FraudAmountCheck struct {
	IsFraudSuspected   bool     `json:"is_fraud_suspected"`
	FraudReasons       []string `json:"fraud_reasons"`
	ApprovedAmount     *string  `json:"approved_amount"`
	PolicyClaimableMax *string  `json:"policy_claimable_max"`
	WithinLimit        *bool    `json:"within_limit"`
	CappedPayout       *string  `json:"capped_payout"`
}

type PaymentCheck struct {
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentReason string        `json:"payment_reason"`
}

type RefundsCheck struct {
	ExpectedRefund       *string `json:"expected_refund"`
	ProtectionPlanCost   *string `json:"protection_plan_cost"`
	RefundNetOfPremium   *string `json:"refund_net_of_premium"`
	MatchedCoverageLabel string  `json:"matched_coverage_label"`
	MatchedCoverageTerms string  `json:"matched_coverage_terms"`
}

type PremiumCheck struct {
	PremiumAmount *string `json:"premium_amount"`
}

// DecisionRecord is the decision engine's structured verdict. It is embedded
// in the extraction log payload, never stored as its own row. Numeric fields
// stay null whenever the policy text does not state them.
type DecisionRecord struct {
	Appetite          Appetite         `json:"appetite"`
	DecisionReason    string           `json:"decision_reason"`
	ConfidenceLevel   float64          `json:"confidence_level"`
	SummaryOfFindings string           `json:"summary_of_findings"`
	CaseDescription   string           `json:"case_description"`
	FraudAmountCheck  FraudAmountCheck `json:"fraud_and_amount_check"`
	PaymentCheck      PaymentCheck     `json:"payment_check"`
	RefundsCheck      RefundsCheck     `json:"refunds_check"`
	PremiumCheck      PremiumCheck     `json:"premium_amount_check"`
}

// StatusForDecision maps the decision verdict onto the claim state machine.
func StatusForDecision(record DecisionRecord) ClaimStatus {
	if record.Appetite != AppetiteApprove {
		return StatusDeclined
	}
	if record.PaymentCheck.PaymentStatus == PaymentPartial {
		return StatusPartialPayment
	}
	return StatusApproved
}
