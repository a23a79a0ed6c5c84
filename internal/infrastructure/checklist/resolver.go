package checklist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

// Resolver maps (flavor, claim type, sub-reason) to the required document
// checklist. Tables ship built in and can be replaced wholesale from a YAML
// file, so adjusters can tune requirements without a redeploy.
type Resolver struct {
	// flavor -> claim type -> sub-reason -> required files
	tables map[string]map[string]map[string][]string
}

func New() *Resolver {
	return &Resolver{tables: defaultTables()}
}

// NewFromFile loads checklist tables from a YAML file shaped as
// flavor -> claim_type -> sub_reason -> [required files].
func NewFromFile(path string) (*Resolver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist file: %w", err)
	}
	var tables map[string]map[string]map[string][]string
	if err := yaml.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("parse checklist file: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("checklist file %s defines no tables", path)
	}
	return &Resolver{tables: tables}, nil
}

const fallbackKey = "default"

func (r *Resolver) Resolve(flavor domain.Flavor, claimType, subReason string) ([]string, error) {
	flavorTable, ok := r.tables[string(flavor)]
	if !ok {
		return nil, fmt.Errorf("no checklist table for flavor %q", flavor)
	}

	claimKey := normalizeKey(claimType)
	reasonKey := normalizeKey(subReason)

	// Extraction may legitimately yield no claim reason (the claim form
	// itself is missing); the fallback checklist covers that run instead of
	// failing it.
	if claimKey == "" {
		claimKey = fallbackKey
	}

	reasons, ok := flavorTable[claimKey]
	if !ok {
		return nil, fmt.Errorf("no checklist for flavor %q claim type %q", flavor, claimType)
	}

	if items, ok := reasons[reasonKey]; ok {
		return cloneItems(items), nil
	}
	if items, ok := reasons[fallbackKey]; ok {
		return cloneItems(items), nil
	}
	return nil, fmt.Errorf("no checklist for flavor %q claim type %q sub-reason %q", flavor, claimType, subReason)
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

func cloneItems(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func defaultTables() map[string]map[string]map[string][]string {
	coreTravel := []string{"full_policy", "policy_summary", "claim_summary"}
	coreProperty := []string{"full_policy", "policy_summary", "claim_summary"}

	return map[string]map[string]map[string][]string{
		string(domain.FlavorTravel): {
			"trip_cancellation": {
				"illness":           appendItems(coreTravel, "hotel_booking", "medical_certificate", "letter_of_explanation"),
				"injury":            appendItems(coreTravel, "hotel_booking", "medical_certificate", "letter_of_explanation"),
				"death_of_relative": appendItems(coreTravel, "hotel_booking", "death_certificate", "letter_of_explanation"),
				"weather":           appendItems(coreTravel, "hotel_booking", "weather_advisory", "letter_of_explanation"),
				fallbackKey:         appendItems(coreTravel, "hotel_booking", "letter_of_explanation"),
			},
			"trip_delay": {
				"carrier_delay": appendItems(coreTravel, "hotel_booking", "carrier_delay_confirmation", "expense_receipts"),
				fallbackKey:     appendItems(coreTravel, "hotel_booking", "expense_receipts", "letter_of_explanation"),
			},
			"trip_interruption": {
				fallbackKey: appendItems(coreTravel, "hotel_booking", "expense_receipts", "letter_of_explanation"),
			},
			"baggage_loss": {
				fallbackKey: appendItems(coreTravel, "property_irregularity_report", "expense_receipts"),
			},
			"medical_emergency": {
				fallbackKey: appendItems(coreTravel, "medical_certificate", "medical_invoices"),
			},
			fallbackKey: {
				fallbackKey: appendItems(coreTravel, "hotel_booking"),
			},
		},
		string(domain.FlavorProperty): {
			"property_damage": {
				"fire":      appendItems(coreProperty, "property_evidence", "repair_estimate", "fire_department_report"),
				"water":     appendItems(coreProperty, "property_evidence", "repair_estimate"),
				"theft":     appendItems(coreProperty, "property_evidence", "police_report"),
				fallbackKey: appendItems(coreProperty, "property_evidence", "repair_estimate", "letter_of_explanation"),
			},
			"business_interruption": {
				fallbackKey: appendItems(coreProperty, "business_income", "financial_statements"),
			},
			fallbackKey: {
				fallbackKey: appendItems(coreProperty, "property_evidence"),
			},
		},
	}
}

func appendItems(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}
