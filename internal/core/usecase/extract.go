package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

// FactsExtractor runs the schema-driven fact extraction pass over the
// classified documents. Unlike classification, a failed extraction is fatal
// for the run: deciding a claim on half-extracted facts is worse than
// failing loudly.
type FactsExtractor struct {
	svc     ports.ReasoningService
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewFactsExtractor(svc ports.ReasoningService, storage ports.ObjectStorage, logger *slog.Logger) *FactsExtractor {
	return &FactsExtractor{svc: svc, storage: storage, logger: logger}
}

func (e *FactsExtractor) Extract(ctx context.Context, docs *domain.DocumentSet) (*domain.ExtractedFacts, error) {
	sources := extractionSources(docs)
	if len(sources) == 0 {
		// Nothing classified into a fact-bearing category: every section
		// stays null and the completeness audit reports the gaps.
		return &domain.ExtractedFacts{}, nil
	}

	payloads := loadDocumentPayloads(ctx, e.storage, e.logger, sources)
	if len(payloads) == 0 {
		return nil, domain.WrapError(domain.ErrExtraction, "extract facts",
			fmt.Errorf("none of %d source documents could be read", len(sources)))
	}

	raw, err := e.svc.GenerateJSON(ctx, ports.ReasoningRequest{
		Prompt:    buildFactsPrompt(),
		Schema:    claimFactsSchema,
		Documents: payloads,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract facts", err)
	}

	facts, err := parseExtractedFacts(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract facts", err)
	}

	nullifyUnsourced(facts, docs)
	return facts, nil
}

func parseExtractedFacts(raw string) (*domain.ExtractedFacts, error) {
	decoder := json.NewDecoder(strings.NewReader(extractJSONObject(raw)))
	decoder.DisallowUnknownFields()
	var facts domain.ExtractedFacts
	if err := decoder.Decode(&facts); err != nil {
		return nil, fmt.Errorf("response does not match the facts schema: %w", err)
	}
	return &facts, nil
}

// extractionSources are the fact-bearing documents: claim form, policy
// summary and booking confirmation. The full policy wording is reserved for
// the decision stage and evidence files carry no structured facts.
func extractionSources(docs *domain.DocumentSet) []domain.Attachment {
	var sources []domain.Attachment
	for _, category := range []domain.DocumentCategory{
		domain.CategoryClaimSummary,
		domain.CategoryPolicySummary,
		domain.CategoryHotelBooking,
	} {
		if att := docs.Single[category]; att != nil {
			sources = append(sources, *att)
		}
		sources = append(sources, docs.Multi[category]...)
	}
	return sources
}

// nullifyUnsourced drops every fact section that has no backing document.
// The model sees all sources at once and will happily infer a section from
// the wrong document; a section without a source is never trusted.
func nullifyUnsourced(facts *domain.ExtractedFacts, docs *domain.DocumentSet) {
	if !docs.Has(domain.CategoryClaimSummary) {
		facts.Claim = nil
	}
	if !docs.Has(domain.CategoryPolicySummary) && !docs.Has(domain.CategoryFullPolicy) {
		facts.Policy = nil
	}
	if !docs.Has(domain.CategoryHotelBooking) {
		facts.Trip = nil
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
