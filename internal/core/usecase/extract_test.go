package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

func extractionDocs(storage *storageFake, categories ...domain.DocumentCategory) *domain.DocumentSet {
	profile := domain.TravelProfile()
	docs := domain.NewDocumentSet()
	for i, category := range categories {
		key := string(category)
		storage.files[key] = []byte("content")
		docs.Add(profile, category, domain.Attachment{
			ID:          key,
			Filename:    key + ".pdf",
			MimeType:    "application/pdf",
			StoragePath: key,
		})
		_ = i
	}
	return docs
}

const extractedFactsJSON = `{
  "claim_data": {
    "claim_details": {"claim_number": "CLM-9", "first_name": "Ada", "last_name": "Wong",
      "phone_number": "", "mobile_number": "555-1234", "business_number": "",
      "zip_postal_code": "10001", "date_of_loss": "2025-03-01", "description": "trip cancelled"},
    "claim_reason": {"claim_type": "trip_cancellation", "claim_reason_type": "illness"},
    "claimants_expense": {"total_claimed_amount": "1200.00", "total_expected_refunds": "200.00"},
    "is_health_related": true
  },
  "policy_data": {
    "policy_info": {"policy_number": "POL-1", "issuer_name": "Acme", "product_name": "TravelPlus",
      "policy_total_cost": "80.00", "coverage_effective_date": "2025-01-01", "coverage_expiration_date": "2025-12-31"},
    "contact_info": {"policy_holder_name": "Ada Wong", "email": "ada@example.com"},
    "trip_details": {"trip_cost": "1500.00", "trip_destination": "Lisbon",
      "departure_date": "2025-03-10", "return_date": "2025-03-17"},
    "coverages_and_benefit_limits": {"trip_cancellation": "100% Per Booking"}
  },
  "hotel_data": {"property_name": "Hotel Mar", "check_in_date": "2025-03-10",
    "check_out_date": "2025-03-17", "nights": 7, "total_price": "900.00"}
}`

func TestExtractParsesFacts(t *testing.T) {
	storage := newStorageFake()
	docs := extractionDocs(storage, domain.CategoryClaimSummary, domain.CategoryPolicySummary, domain.CategoryHotelBooking)
	svc := &reasoningFake{responses: []string{extractedFactsJSON}}
	extractor := NewFactsExtractor(svc, storage, testLogger())

	facts, err := extractor.Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if facts.Claim == nil || facts.Claim.Reason.ClaimType != "trip_cancellation" {
		t.Fatalf("unexpected claim facts: %+v", facts.Claim)
	}
	if facts.Policy == nil || facts.Policy.Coverages["trip_cancellation"] != "100% Per Booking" {
		t.Fatalf("unexpected policy facts: %+v", facts.Policy)
	}
	if facts.Trip == nil || facts.Trip.Nights != 7 {
		t.Fatalf("unexpected trip facts: %+v", facts.Trip)
	}
	if len(svc.requests) != 1 || svc.requests[0].Schema == "" {
		t.Fatalf("expected one schema-driven call, got %+v", svc.requests)
	}
}

func TestExtractNullifiesSectionsWithoutSources(t *testing.T) {
	storage := newStorageFake()
	// Only a claim form was provided; the model still filled every section.
	docs := extractionDocs(storage, domain.CategoryClaimSummary)
	svc := &reasoningFake{responses: []string{extractedFactsJSON}}
	extractor := NewFactsExtractor(svc, storage, testLogger())

	facts, err := extractor.Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if facts.Claim == nil {
		t.Fatalf("claim facts dropped despite claim form present")
	}
	if facts.Policy != nil {
		t.Fatalf("policy facts kept without a policy document: %+v", facts.Policy)
	}
	if facts.Trip != nil {
		t.Fatalf("trip facts kept without a booking document: %+v", facts.Trip)
	}
}

func TestExtractRejectsUnknownFields(t *testing.T) {
	storage := newStorageFake()
	docs := extractionDocs(storage, domain.CategoryClaimSummary)
	svc := &reasoningFake{responses: []string{`{"claim_data": null, "invented_section": {}}`}}
	extractor := NewFactsExtractor(svc, storage, testLogger())

	_, err := extractor.Extract(context.Background(), docs)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("error = %v, want ErrExtraction", err)
	}
}

func TestExtractFailsWhenServiceFails(t *testing.T) {
	storage := newStorageFake()
	docs := extractionDocs(storage, domain.CategoryClaimSummary)
	svc := &reasoningFake{errs: []error{errors.New("backend down")}}
	extractor := NewFactsExtractor(svc, storage, testLogger())

	_, err := extractor.Extract(context.Background(), docs)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("error = %v, want ErrExtraction", err)
	}
}

func TestExtractWithoutSourcesSkipsBackend(t *testing.T) {
	storage := newStorageFake()
	docs := domain.NewDocumentSet()
	svc := &reasoningFake{}
	extractor := NewFactsExtractor(svc, storage, testLogger())

	facts, err := extractor.Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if facts.Claim != nil || facts.Policy != nil || facts.Trip != nil {
		t.Fatalf("expected empty facts, got %+v", facts)
	}
	if svc.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", svc.calls)
	}
}
