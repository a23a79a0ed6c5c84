package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

const fraudConfidenceCeiling = 0.70

// DecisionEngine adjudicates a complete claim file. The verdict text comes
// from the backing service; every number and status that drives money
// movement is renormalized here and never trusted raw.
type DecisionEngine struct {
	svc    ports.ReasoningService
	logger *slog.Logger
}

func NewDecisionEngine(svc ports.ReasoningService, logger *slog.Logger) *DecisionEngine {
	return &DecisionEngine{svc: svc, logger: logger}
}

func (e *DecisionEngine) Decide(
	ctx context.Context,
	facts *domain.ExtractedFacts,
	documents []ports.DocumentPayload,
) (*domain.DecisionRecord, error) {
	raw, err := e.svc.GenerateJSON(ctx, ports.ReasoningRequest{
		Prompt:    buildDecisionPrompt(facts),
		Schema:    decisionSchema,
		Documents: documents,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "decide claim", err)
	}

	decoder := json.NewDecoder(strings.NewReader(extractJSONObject(raw)))
	decoder.DisallowUnknownFields()
	var record domain.DecisionRecord
	if err := decoder.Decode(&record); err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "decide claim",
			fmt.Errorf("response does not match the decision schema: %w", err))
	}

	e.normalize(&record, facts)
	return &record, nil
}

// normalize enforces the money and status invariants on the model verdict:
// declines pay nothing, fraud caps confidence and blocks payment, approved
// amounts clamp to the policy's claimable maximum, and the payment status is
// recomputed from the final numbers.
func (e *DecisionEngine) normalize(record *domain.DecisionRecord, facts *domain.ExtractedFacts) {
	if record.Appetite != domain.AppetiteApprove {
		record.Appetite = domain.AppetiteDecline
	}
	record.ConfidenceLevel = clampConfidence(record.ConfidenceLevel)

	if record.FraudAmountCheck.IsFraudSuspected {
		record.Appetite = domain.AppetiteDecline
		record.FraudAmountCheck.ApprovedAmount = amountPtr(decimal.Zero)
		if record.ConfidenceLevel > fraudConfidenceCeiling {
			record.ConfidenceLevel = fraudConfidenceCeiling
		}
	}

	if record.Appetite == domain.AppetiteDecline {
		record.FraudAmountCheck.ApprovedAmount = amountPtr(decimal.Zero)
		record.PaymentCheck.PaymentStatus = domain.PaymentNotResolved
		if record.PaymentCheck.PaymentReason == "" {
			record.PaymentCheck.PaymentReason = record.DecisionReason
		}
		record.FraudAmountCheck.WithinLimit = nil
		record.FraudAmountCheck.CappedPayout = nil
		return
	}

	e.clampToClaimableMax(record)
	record.PaymentCheck.PaymentStatus = derivePaymentStatus(record, facts)
}

func (e *DecisionEngine) clampToClaimableMax(record *domain.DecisionRecord) {
	approved, approvedOK := parseAmount(record.FraudAmountCheck.ApprovedAmount)
	max, maxOK := parseAmount(record.FraudAmountCheck.PolicyClaimableMax)
	if !approvedOK || !maxOK {
		return
	}
	within := approved.LessThanOrEqual(max)
	record.FraudAmountCheck.WithinLimit = &within
	if !within {
		e.logger.Warn("approved amount exceeded claimable maximum, clamping",
			"approved", approved.String(), "max", max.String())
		record.FraudAmountCheck.ApprovedAmount = amountPtr(max)
		record.FraudAmountCheck.CappedPayout = amountPtr(max)
	}
}

func derivePaymentStatus(record *domain.DecisionRecord, facts *domain.ExtractedFacts) domain.PaymentStatus {
	approved, approvedOK := parseAmount(record.FraudAmountCheck.ApprovedAmount)
	if !approvedOK || approved.IsNegative() {
		return domain.PaymentNotResolved
	}

	var claimed decimal.Decimal
	claimedOK := false
	if facts != nil && facts.Claim != nil {
		claimed, claimedOK = parseAmountString(facts.Claim.Expense.TotalClaimedAmount)
	}
	if !claimedOK {
		if approved.IsPositive() {
			return domain.PaymentFull
		}
		return domain.PaymentNotResolved
	}

	switch {
	case approved.Equal(claimed) && approved.IsPositive():
		return domain.PaymentFull
	case approved.LessThan(claimed):
		return domain.PaymentPartial
	case approved.IsPositive():
		return domain.PaymentFull
	default:
		return domain.PaymentNotResolved
	}
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func parseAmount(s *string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Decimal{}, false
	}
	return parseAmountString(*s)
}

// parseAmountString accepts the amount formats documents actually carry:
// currency symbols, thousands separators, surrounding whitespace.
func parseAmountString(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimLeft(cleaned, "$€£ ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func amountPtr(d decimal.Decimal) *string {
	s := d.String()
	return &s
}
