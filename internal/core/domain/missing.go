package domain

import "strings"

// ConditionalLetterItem is the checklist item that is required only when
// something else is missing.
const ConditionalLetterItem = "letter_of_explanation"

// ConditionalSatisfiedReason is the fixed rationale applied when no other
// item is missing and the conditional item is therefore not required.
const ConditionalSatisfiedReason = "All required documents were provided; a letter of explanation is not required."

// ConditionalRequiredReason is the fixed rationale applied when a previously
// waived conditional item becomes required again because other items turned
// out to be missing.
const ConditionalRequiredReason = "Required because other required documents are missing."

type MissingItem struct {
	Name    string `json:"name"`
	Missing bool   `json:"missing"`
	Reason  string `json:"reason"`
}

// MissingnessReport is the auditor's verdict for one pipeline run.
// Summary is populated only when something is missing; its presence is
// itself a signal consumed downstream.
type MissingnessReport struct {
	Items        []MissingItem `json:"items"`
	FinalMissing bool          `json:"final_missing"`
	Summary      string        `json:"summary,omitempty"`
}

func IsConditionalItem(name string) bool {
	normalized := strings.ToLower(strings.TrimSpace(name))
	return normalized == ConditionalLetterItem ||
		strings.Contains(normalized, "letter of explanation")
}

// MissingCountExcludingConditional counts missing items that are not the
// conditional letter. This count drives the conditional-item second pass.
func (r MissingnessReport) MissingCountExcludingConditional() int {
	count := 0
	for _, item := range r.Items {
		if item.Missing && !IsConditionalItem(item.Name) {
			count++
		}
	}
	return count
}

func (r MissingnessReport) MissingNames() []string {
	var names []string
	for _, item := range r.Items {
		if item.Missing {
			names = append(names, item.Name)
		}
	}
	return names
}

// ResolveConditionalItems applies the conditional-letter rule in both
// directions. When nothing else is missing, a missing conditional item is
// waived. When something else IS missing, a waiver previously granted by this
// rule is revoked; an item the claimant actually provided (any other reason)
// is left alone. Safe to call again after the item list grows.
func (r *MissingnessReport) ResolveConditionalItems() {
	othersMissing := r.MissingCountExcludingConditional() > 0
	for i := range r.Items {
		if !IsConditionalItem(r.Items[i].Name) {
			continue
		}
		switch {
		case !othersMissing && r.Items[i].Missing:
			r.Items[i].Missing = false
			r.Items[i].Reason = ConditionalSatisfiedReason
		case othersMissing && !r.Items[i].Missing && r.Items[i].Reason == ConditionalSatisfiedReason:
			r.Items[i].Missing = true
			r.Items[i].Reason = ConditionalRequiredReason
		}
	}
}

func (r *MissingnessReport) Recompute() {
	r.FinalMissing = false
	for _, item := range r.Items {
		if item.Missing {
			r.FinalMissing = true
			break
		}
	}
	if !r.FinalMissing {
		r.Summary = ""
	}
}
