package domain

// Typed extraction output. Raw model JSON is validated into these structures
// at the single translation boundary right after the backing-service call;
// untyped maps never cross between pipeline stages.

type ClaimReason struct {
	ClaimType string `json:"claim_type"`
	SubReason string `json:"claim_reason_type"`
}

type ClaimantExpense struct {
	TotalClaimedAmount   string `json:"total_claimed_amount"`
	TotalExpectedRefunds string `json:"total_expected_refunds"`
}

type ClaimDetails struct {
	ClaimNumber    string `json:"claim_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PhoneNumber    string `json:"phone_number"`
	MobileNumber   string `json:"mobile_number"`
	BusinessNumber string `json:"business_number"`
	PostalCode     string `json:"zip_postal_code"`
	DateOfLoss     string `json:"date_of_loss"`
	Description    string `json:"description"`
}

type ClaimFacts struct {
	Details  ClaimDetails    `json:"claim_details"`
	Reason   ClaimReason     `json:"claim_reason"`
	Expense  ClaimantExpense `json:"claimants_expense"`
	IsHealth bool            `json:"is_health_related"`
}

type PolicyInfo struct {
	PolicyNumber           string `json:"policy_number"`
	IssuerName             string `json:"issuer_name"`
	ProductName            string `json:"product_name"`
	PolicyTotalCost        string `json:"policy_total_cost"`
	CoverageEffectiveDate  string `json:"coverage_effective_date"`
	CoverageExpirationDate string `json:"coverage_expiration_date"`
}

type PolicyContact struct {
	PolicyHolderName string `json:"policy_holder_name"`
	Email            string `json:"email"`
}

type TripDetails struct {
	TripCost      string `json:"trip_cost"`
	Destination   string `json:"trip_destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
}

type PolicyFacts struct {
	Info    PolicyInfo    `json:"policy_info"`
	Contact PolicyContact `json:"contact_info"`
	Trip    TripDetails   `json:"trip_details"`
	// Coverage label -> raw limit text as printed in the policy,
	// e.g. "trip_cancellation" -> "100% Per Booking".
	Coverages map[string]string `json:"coverages_and_benefit_limits"`
}

type TripFacts struct {
	PropertyName string `json:"property_name"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Nights       int    `json:"nights"`
	TotalPrice   string `json:"total_price"`
}

// ExtractedFacts is one extraction pass over the classified documents.
// A nil section means no source document backed it: the extractor nullifies
// sections without a source rather than trusting model output for them.
type ExtractedFacts struct {
	Claim  *ClaimFacts  `json:"claim_data"`
	Policy *PolicyFacts `json:"policy_data"`
	Trip   *TripFacts   `json:"hotel_data"`
}
