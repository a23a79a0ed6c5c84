package domain

import "strings"

type DocumentCategory string

const (
	CategoryFullPolicy     DocumentCategory = "full_policy"
	CategoryPolicySummary  DocumentCategory = "policy_summary"
	CategoryClaimSummary   DocumentCategory = "claim_summary"
	CategoryHotelBooking   DocumentCategory = "hotel_booking"
	CategoryEvidence       DocumentCategory = "evidence"
	CategoryBusinessIncome DocumentCategory = "business_income"
	CategoryPropertyProof  DocumentCategory = "property_evidence"
)

// ClassifiedDocument pairs an attachment filename with one taxonomy label.
// Derived fresh on every pipeline run, never persisted.
type ClassifiedDocument struct {
	Filename string           `json:"filename"`
	Category DocumentCategory `json:"category"`
}

// FlavorProfile parameterizes the pipeline per processing flavor: the
// classification taxonomy in stop-at-first-match priority order, and which
// categories admit at most one document.
type FlavorProfile struct {
	Flavor   Flavor
	Taxonomy []DocumentCategory
	// Single-instance categories; all others collect into lists.
	SingleCategories map[DocumentCategory]bool
}

func TravelProfile() FlavorProfile {
	return FlavorProfile{
		Flavor: FlavorTravel,
		Taxonomy: []DocumentCategory{
			CategoryFullPolicy,
			CategoryPolicySummary,
			CategoryClaimSummary,
			CategoryHotelBooking,
			CategoryEvidence,
		},
		SingleCategories: map[DocumentCategory]bool{
			CategoryFullPolicy:    true,
			CategoryPolicySummary: true,
			CategoryClaimSummary:  true,
		},
	}
}

func PropertyProfile() FlavorProfile {
	return FlavorProfile{
		Flavor: FlavorProperty,
		Taxonomy: []DocumentCategory{
			CategoryFullPolicy,
			CategoryPolicySummary,
			CategoryClaimSummary,
			CategoryBusinessIncome,
			CategoryPropertyProof,
			CategoryEvidence,
		},
		SingleCategories: map[DocumentCategory]bool{
			CategoryFullPolicy:    true,
			CategoryPolicySummary: true,
			CategoryClaimSummary:  true,
		},
	}
}

func ProfileFor(flavor Flavor) (FlavorProfile, bool) {
	switch flavor {
	case FlavorTravel:
		return TravelProfile(), true
	case FlavorProperty:
		return PropertyProfile(), true
	default:
		return FlavorProfile{}, false
	}
}

func (p FlavorProfile) Contains(category DocumentCategory) bool {
	for _, c := range p.Taxonomy {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeFilename makes classifier output comparable with stored filenames:
// the model occasionally re-spaces or re-cases names it echoes back.
func NormalizeFilename(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// DocumentSet buckets classified attachments by category for one run.
type DocumentSet struct {
	Single map[DocumentCategory]*Attachment
	Multi  map[DocumentCategory][]Attachment
}

func NewDocumentSet() *DocumentSet {
	return &DocumentSet{
		Single: make(map[DocumentCategory]*Attachment),
		Multi:  make(map[DocumentCategory][]Attachment),
	}
}

func (s *DocumentSet) Add(profile FlavorProfile, category DocumentCategory, att Attachment) {
	if profile.SingleCategories[category] {
		if _, taken := s.Single[category]; !taken {
			copyAtt := att
			s.Single[category] = &copyAtt
		}
		return
	}
	s.Multi[category] = append(s.Multi[category], att)
}

// Has reports whether at least one attachment landed in the category.
func (s *DocumentSet) Has(category DocumentCategory) bool {
	if s.Single[category] != nil {
		return true
	}
	return len(s.Multi[category]) > 0
}

// AllExceptFullPolicy returns every bucketed attachment other than the
// authoritative policy wording, preserving no particular order.
func (s *DocumentSet) AllExceptFullPolicy() []Attachment {
	var out []Attachment
	for category, att := range s.Single {
		if category == CategoryFullPolicy || att == nil {
			continue
		}
		out = append(out, *att)
	}
	for _, atts := range s.Multi {
		out = append(out, atts...)
	}
	return out
}
