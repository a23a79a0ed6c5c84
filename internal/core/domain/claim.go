package domain

import "time"

type ClaimStatus string

const (
	StatusPending        ClaimStatus = "PENDING"
	StatusProcessing     ClaimStatus = "PROCESSING"
	StatusDeciding       ClaimStatus = "DECIDING"
	StatusMissing        ClaimStatus = "MISSING"
	StatusApproved       ClaimStatus = "APPROVED"
	StatusDeclined       ClaimStatus = "DECLINED"
	StatusPartialPayment ClaimStatus = "PARTIAL_PAYMENT"
	StatusClosed         ClaimStatus = "CLOSED"
	StatusPaid           ClaimStatus = "PAID"
)

type SubmissionStatus string

const (
	SubmissionProcessing SubmissionStatus = "PROCESSING"
	SubmissionInReview   SubmissionStatus = "IN_REVIEW"
	SubmissionClosed     SubmissionStatus = "CLOSED"
	SubmissionError      SubmissionStatus = "ERROR"
	SubmissionDuplicate  SubmissionStatus = "DUPLICATE"
)

// legalTransitions enumerates every edge of the claim state machine.
// Settled statuses are re-entrant: a resubmission or operator retry moves
// the claim back to PROCESSING. Only PAID admits no further transition.
var legalTransitions = map[ClaimStatus][]ClaimStatus{
	StatusPending:        {StatusProcessing},
	StatusProcessing:     {StatusMissing, StatusDeciding, StatusClosed},
	StatusDeciding:       {StatusApproved, StatusDeclined, StatusPartialPayment},
	StatusMissing:        {StatusProcessing},
	StatusApproved:       {StatusPaid, StatusProcessing},
	StatusDeclined:       {StatusProcessing},
	StatusPartialPayment: {StatusPaid, StatusProcessing},
	StatusClosed:         {StatusProcessing},
}

func CanTransition(from, to ClaimStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a pipeline run has concluded in the status.
// Settled claims other than PAID can still be processed again.
func IsTerminal(status ClaimStatus) bool {
	switch status {
	case StatusApproved, StatusDeclined, StatusPartialPayment, StatusClosed, StatusPaid:
		return true
	default:
		return false
	}
}

type Flavor string

const (
	FlavorTravel   Flavor = "travel"
	FlavorProperty Flavor = "property"
)

// Attachment is an immutable stored blob owned by one submission.
type Attachment struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Filename     string    `json:"filename"`
	MimeType     string    `json:"mime_type"`
	StoragePath  string    `json:"storage_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClaimSubmission is the unit of work. Business fields are projected from the
// most recent extraction log by the pipeline's single terminal write.
type ClaimSubmission struct {
	ID               string           `json:"id"`
	Number           string           `json:"number"`
	Flavor           Flavor           `json:"flavor"`
	Status           ClaimStatus      `json:"status"`
	SubmissionStatus SubmissionStatus `json:"submission_status"`

	MissingDocuments []string `json:"missing_documents,omitempty"`

	// Decision projection
	DecisionReason     string   `json:"decision_reason,omitempty"`
	DecisionSummary    string   `json:"decision_summary,omitempty"`
	FileCheckSummary   string   `json:"file_check_summary,omitempty"`
	DecisionConfidence *float64 `json:"decision_confidence,omitempty"`
	IsFraudSuspected   bool     `json:"is_fraud_suspected"`
	FraudReasons       string   `json:"fraud_reasons,omitempty"`
	PaymentStatus      string   `json:"payment_status,omitempty"`
	PaymentReason      string   `json:"payment_reason,omitempty"`

	// Claim projection
	ClaimNumber          string `json:"claim_number,omitempty"`
	ClaimType            string `json:"claim_type,omitempty"`
	ClaimAmount          string `json:"claim_amount,omitempty"`
	RequestedRefund      string `json:"requested_refund,omitempty"`
	ApprovedAmount       string `json:"approved_amount,omitempty"`
	PremiumAmount        string `json:"premium_amount,omitempty"`
	MatchedCoverageTerms string `json:"matched_coverage_terms,omitempty"`

	// Client projection
	ClientName     string `json:"client_name,omitempty"`
	ClientEmail    string `json:"client_email,omitempty"`
	ClientPhone    string `json:"client_phone,omitempty"`
	ClientPostCode string `json:"client_post_code,omitempty"`

	// Trip projection
	TripCost       string     `json:"trip_cost,omitempty"`
	Destination    string     `json:"destination,omitempty"`
	TripStartDate  *time.Time `json:"trip_start_date,omitempty"`
	TripReturnDate *time.Time `json:"trip_return_date,omitempty"`

	// Policy projection
	PolicyNumber         string     `json:"policy_number,omitempty"`
	PolicyHolder         string     `json:"policy_holder,omitempty"`
	PolicyTotalCost      string     `json:"policy_total_cost,omitempty"`
	PolicyEffectiveDate  *time.Time `json:"policy_effective_date,omitempty"`
	PolicyExpirationDate *time.Time `json:"policy_expiration_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExtractionLog is one append-only record of a pipeline run's raw output.
// Prior logs are never overwritten; the submission row carries only the
// projection of the latest relevant log.
type ExtractionLog struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Payload      []byte    `json:"payload"`
	CreatedAt    time.Time `json:"created_at"`
}

// FollowUpMessage returns the operator-facing next-step line for a status.
func FollowUpMessage(status ClaimStatus) string {
	switch status {
	case StatusApproved:
		return "Your claim got approved. What would you like to do next?"
	case StatusDeclined:
		return "The claim got declined. What would you like to do next?"
	case StatusPartialPayment:
		return "The claim got partial payment due to coverage gap. What would you like to do next?"
	case StatusMissing:
		return "The claim is missing information required for claim review. What would you like to do next?"
	default:
		return "Your claim is being reviewed. What would you like to do next?"
	}
}
