package usecase

import (
	"strings"
	"time"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

// Projection of run artifacts onto the submission row's business columns.
// Empty extracted values never overwrite a previously projected field, so a
// resubmission with fewer documents cannot blank out known facts.

func projectFacts(submission *domain.ClaimSubmission, facts *domain.ExtractedFacts) {
	if facts == nil {
		return
	}
	if claim := facts.Claim; claim != nil {
		setIfPresent(&submission.ClaimNumber, claim.Details.ClaimNumber)
		setIfPresent(&submission.ClaimType, claim.Reason.ClaimType)
		setIfPresent(&submission.ClaimAmount, claim.Expense.TotalClaimedAmount)
		setIfPresent(&submission.RequestedRefund, claim.Expense.TotalExpectedRefunds)
		setIfPresent(&submission.ClientName, fullName(claim.Details.FirstName, claim.Details.LastName))
		setIfPresent(&submission.ClientPhone, firstNonEmpty(
			claim.Details.MobileNumber, claim.Details.PhoneNumber, claim.Details.BusinessNumber))
		setIfPresent(&submission.ClientPostCode, claim.Details.PostalCode)
	}
	if policy := facts.Policy; policy != nil {
		setIfPresent(&submission.PolicyNumber, policy.Info.PolicyNumber)
		setIfPresent(&submission.PolicyTotalCost, policy.Info.PolicyTotalCost)
		setIfPresent(&submission.PolicyHolder, policy.Contact.PolicyHolderName)
		setIfPresent(&submission.ClientEmail, policy.Contact.Email)
		setDateIfPresent(&submission.PolicyEffectiveDate, policy.Info.CoverageEffectiveDate)
		setDateIfPresent(&submission.PolicyExpirationDate, policy.Info.CoverageExpirationDate)
		setIfPresent(&submission.TripCost, policy.Trip.TripCost)
		setIfPresent(&submission.Destination, policy.Trip.Destination)
		setDateIfPresent(&submission.TripStartDate, policy.Trip.DepartureDate)
		setDateIfPresent(&submission.TripReturnDate, policy.Trip.ReturnDate)
	}
	if trip := facts.Trip; trip != nil {
		setIfPresent(&submission.TripCost, trip.TotalPrice)
		setIfPresent(&submission.Destination, trip.PropertyName)
		setDateIfPresent(&submission.TripStartDate, trip.CheckInDate)
		setDateIfPresent(&submission.TripReturnDate, trip.CheckOutDate)
	}
}

func projectDecision(submission *domain.ClaimSubmission, decision *domain.DecisionRecord) {
	if decision == nil {
		return
	}
	submission.DecisionReason = decision.DecisionReason
	submission.DecisionSummary = firstNonEmpty(decision.SummaryOfFindings, decision.CaseDescription)
	confidence := decision.ConfidenceLevel
	submission.DecisionConfidence = &confidence

	submission.IsFraudSuspected = decision.FraudAmountCheck.IsFraudSuspected
	submission.FraudReasons = strings.Join(decision.FraudAmountCheck.FraudReasons, "; ")
	if decision.FraudAmountCheck.ApprovedAmount != nil {
		submission.ApprovedAmount = *decision.FraudAmountCheck.ApprovedAmount
	}

	submission.PaymentStatus = string(decision.PaymentCheck.PaymentStatus)
	submission.PaymentReason = decision.PaymentCheck.PaymentReason

	if decision.PremiumCheck.PremiumAmount != nil {
		submission.PremiumAmount = *decision.PremiumCheck.PremiumAmount
	}
	if label := decision.RefundsCheck.MatchedCoverageLabel; label != "" {
		terms := decision.RefundsCheck.MatchedCoverageTerms
		if terms != "" {
			submission.MatchedCoverageTerms = label + ": " + terms
		} else {
			submission.MatchedCoverageTerms = label
		}
	}
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func setDateIfPresent(dst **time.Time, value string) {
	if t := parseDocumentDate(value); t != nil {
		*dst = t
	}
}

// Layouts are tried in order. Ambiguous slash dates resolve US-style
// (month first); the day-first layout only catches values whose first
// component cannot be a month, such as 25/12/2026.
var documentDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// parseDocumentDate tries the date shapes that show up in policy and booking
// documents. Unparseable text projects as no date rather than a wrong one.
func parseDocumentDate(value string) *time.Time {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	for _, layout := range documentDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
