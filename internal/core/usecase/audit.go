package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

// MissingDocumentAuditor compares the classified file set against the
// required checklist for the claim reason and produces the missingness
// verdict. An unparseable audit is fatal: unlike classification there is no
// safe default, because a wrong "nothing missing" would push an incomplete
// claim into adjudication.
type MissingDocumentAuditor struct {
	svc    ports.ReasoningService
	logger *slog.Logger
}

func NewMissingDocumentAuditor(svc ports.ReasoningService, logger *slog.Logger) *MissingDocumentAuditor {
	return &MissingDocumentAuditor{svc: svc, logger: logger}
}

type auditItemWire struct {
	Missing bool   `json:"missing"`
	Reason  string `json:"reason"`
}

type auditWire struct {
	MissingStatus      map[string]auditItemWire `json:"missing_status"`
	FinalMissingStatus bool                     `json:"final_missing_status"`
	Summary            string                   `json:"generated_decision_summary"`
}

func (a *MissingDocumentAuditor) Audit(
	ctx context.Context,
	required []string,
	classified []domain.ClassifiedDocument,
) (*domain.MissingnessReport, error) {
	raw, err := a.svc.GenerateJSON(ctx, ports.ReasoningRequest{
		Prompt: buildAuditPrompt(required, classified),
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "audit required documents", err)
	}

	var wire auditWire
	decoder := json.NewDecoder(strings.NewReader(extractJSONObject(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&wire); err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "audit required documents",
			fmt.Errorf("response does not match the audit schema: %w", err))
	}

	report := reportFromWire(required, wire)
	// The model tends to demand the letter of explanation unconditionally;
	// the conditional rule is deterministic so it is enforced here.
	report.ResolveConditionalItems()
	report.Recompute()
	if report.FinalMissing && report.Summary == "" {
		report.Summary = synthesizeSummary(report)
	}
	return report, nil
}

// reportFromWire aligns the model's per-item verdicts with the checklist.
// Items the model skipped are presumed missing: silence about a required
// file is never treated as presence.
func reportFromWire(required []string, wire auditWire) *domain.MissingnessReport {
	report := &domain.MissingnessReport{Summary: strings.TrimSpace(wire.Summary)}
	seen := make(map[string]bool, len(required))
	for _, name := range required {
		seen[name] = true
		item := domain.MissingItem{Name: name}
		if verdict, ok := wire.MissingStatus[name]; ok {
			item.Missing = verdict.Missing
			item.Reason = strings.TrimSpace(verdict.Reason)
		} else {
			item.Missing = true
			item.Reason = fmt.Sprintf("The required document %q was not addressed in the review.", name)
		}
		report.Items = append(report.Items, item)
	}

	// Extra verdicts outside the checklist are kept only when missing, so a
	// model that knows about a stricter requirement cannot be silenced.
	var extras []string
	for name := range wire.MissingStatus {
		if !seen[name] && wire.MissingStatus[name].Missing {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		report.Items = append(report.Items, domain.MissingItem{
			Name:    name,
			Missing: true,
			Reason:  strings.TrimSpace(wire.MissingStatus[name].Reason),
		})
	}
	return report
}

func synthesizeSummary(report *domain.MissingnessReport) string {
	names := report.MissingNames()
	return fmt.Sprintf(
		"Your claim is missing required documents: %s. Please submit them so the review can continue.",
		strings.Join(names, ", "),
	)
}
