package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

const cleanAuditJSON = `{
	"missing_status": {
		"full_policy": {"missing": false, "reason": "Provided"},
		"claim_summary": {"missing": false, "reason": "Provided"},
		"letter_of_explanation": {"missing": true, "reason": "Not attached"}
	},
	"final_missing_status": true,
	"generated_decision_summary": "Please provide a letter of explanation."
}`

const approveDecisionJSON = `{
	"appetite": "approve",
	"decision_reason": "Covered under trip cancellation",
	"confidence_level": 0.92,
	"summary_of_findings": "Trip cancelled due to documented illness.",
	"fraud_and_amount_check": {
		"is_fraud_suspected": false, "fraud_reasons": [],
		"approved_amount": "1200.00", "policy_claimable_max": "1500.00"
	},
	"payment_check": {"payment_status": "not_resolved", "payment_reason": ""},
	"refunds_check": {
		"expected_refund": "200.00", "protection_plan_cost": null, "refund_net_of_premium": null,
		"matched_coverage_label": "trip_cancellation", "matched_coverage_terms": "100% Per Booking"
	},
	"premium_amount_check": {"premium_amount": "80.00"}
}`

func fullClassificationJSON() string {
	return `[
		{"filename": "Policy Wording.pdf", "category": "full_policy"},
		{"filename": "summary.pdf", "category": "policy_summary"},
		{"filename": "claim_form.pdf", "category": "claim_summary"},
		{"filename": "booking.pdf", "category": "hotel_booking"}
	]`
}

type pipelineEnv struct {
	repo    *submissionRepoFake
	atts    *attachmentRepoFake
	logs    *logRepoFake
	storage *storageFake
	svc     *reasoningFake
	uc      *RunPipelineUseCase
}

func newPipelineEnv(submission *domain.ClaimSubmission, svc *reasoningFake, checklist []string) *pipelineEnv {
	storage := newStorageFake()
	storage.files["k1"] = []byte("policy")
	storage.files["k2"] = []byte("summary")
	storage.files["k3"] = []byte("claim")
	storage.files["k4"] = []byte("booking")

	atts := &attachmentRepoFake{attachments: []domain.Attachment{
		{ID: "a1", SubmissionID: submission.ID, Filename: "Policy Wording.pdf", MimeType: "application/pdf", StoragePath: "k1"},
		{ID: "a2", SubmissionID: submission.ID, Filename: "summary.pdf", MimeType: "application/pdf", StoragePath: "k2"},
		{ID: "a3", SubmissionID: submission.ID, Filename: "claim_form.pdf", MimeType: "application/pdf", StoragePath: "k3"},
		{ID: "a4", SubmissionID: submission.ID, Filename: "booking.pdf", MimeType: "application/pdf", StoragePath: "k4"},
	}}
	repo := &submissionRepoFake{submission: submission}
	logs := &logRepoFake{}
	logger := testLogger()

	uc := NewRunPipelineUseCase(
		repo, atts, logs, storage,
		&resolverFake{items: checklist},
		NewDocumentClassifier(svc, storage, &pagesFake{text: "pages"}, logger),
		NewFactsExtractor(svc, storage, logger),
		NewMissingDocumentAuditor(svc, logger),
		NewDecisionEngine(svc, logger),
		logger,
	)
	return &pipelineEnv{repo: repo, atts: atts, logs: logs, storage: storage, svc: svc, uc: uc}
}

func TestRunApprovesCompleteClaim(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		fullClassificationJSON(),
		extractedFactsJSON,
		cleanAuditJSON,
		approveDecisionJSON,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"full_policy", "claim_summary", "letter_of_explanation"})

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(env.repo.statusCalls) != 1 || env.repo.statusCalls[0].status != domain.StatusProcessing {
		t.Fatalf("expected single PROCESSING status write, got %+v", env.repo.statusCalls)
	}
	saved := env.repo.saved
	if saved == nil {
		t.Fatalf("no terminal outcome saved")
	}
	if saved.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want %s", saved.Status, domain.StatusApproved)
	}
	if saved.SubmissionStatus != domain.SubmissionInReview {
		t.Fatalf("submission status = %s, want %s", saved.SubmissionStatus, domain.SubmissionInReview)
	}
	if saved.ClaimNumber != "CLM-9" || saved.ClientName != "Ada Wong" || saved.PolicyNumber != "POL-1" {
		t.Fatalf("business projection incomplete: %+v", saved)
	}
	if saved.PaymentStatus != string(domain.PaymentFull) {
		t.Fatalf("payment status = %s, want %s", saved.PaymentStatus, domain.PaymentFull)
	}
	if saved.ApprovedAmount != "1200.00" {
		t.Fatalf("approved amount = %s", saved.ApprovedAmount)
	}
	if saved.MatchedCoverageTerms != "trip_cancellation: 100% Per Booking" {
		t.Fatalf("matched coverage = %q", saved.MatchedCoverageTerms)
	}
	if len(env.logs.appended) != 1 {
		t.Fatalf("expected 1 extraction log, got %d", len(env.logs.appended))
	}
	var artifacts map[string]json.RawMessage
	if err := json.Unmarshal(env.logs.appended[0].Payload, &artifacts); err != nil {
		t.Fatalf("log payload is not JSON: %v", err)
	}
	for _, key := range []string{"classified_documents", "extracted_facts", "required_document_check", "decision"} {
		if _, ok := artifacts[key]; !ok {
			t.Fatalf("log payload lacks %q: %s", key, env.logs.appended[0].Payload)
		}
	}
	if env.svc.calls != 4 {
		t.Fatalf("expected 4 backend calls, got %d", env.svc.calls)
	}
}

func TestRunStopsAtMissingDocuments(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		`[{"filename": "claim_form.pdf", "category": "claim_summary"}]`,
		extractedFactsJSON,
		`{
			"missing_status": {
				"full_policy": {"missing": true, "reason": "No policy wording found"},
				"claim_summary": {"missing": false, "reason": "Provided"},
				"letter_of_explanation": {"missing": true, "reason": "Required"}
			},
			"final_missing_status": true,
			"generated_decision_summary": "Please send the policy wording."
		}`,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"full_policy", "claim_summary", "letter_of_explanation"})

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	saved := env.repo.saved
	if saved == nil || saved.Status != domain.StatusMissing {
		t.Fatalf("saved outcome = %+v, want MISSING", saved)
	}
	if saved.SubmissionStatus != domain.SubmissionInReview {
		t.Fatalf("submission status = %s, want %s", saved.SubmissionStatus, domain.SubmissionInReview)
	}
	if len(saved.MissingDocuments) == 0 {
		t.Fatalf("missing documents not recorded")
	}
	if saved.FileCheckSummary == "" {
		t.Fatalf("file check summary not recorded")
	}
	if saved.DecisionReason != "" {
		t.Fatalf("decision fields must stay empty on the missing branch, got %q", saved.DecisionReason)
	}
	// No adjudication call was made.
	if env.svc.calls != 3 {
		t.Fatalf("expected 3 backend calls, got %d", env.svc.calls)
	}
}

func TestRunSkipsPaidSubmission(t *testing.T) {
	svc := &reasoningFake{}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPaid,
	}, svc, nil)

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(env.repo.statusCalls) != 0 {
		t.Fatalf("paid submission must not change, got %+v", env.repo.statusCalls)
	}
	if env.svc.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", env.svc.calls)
	}
	if env.repo.saved != nil {
		t.Fatalf("prior outcome overwritten: %+v", env.repo.saved)
	}
}

func TestRunAgainAppendsNewLogAndKeepsOutcome(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		fullClassificationJSON(), extractedFactsJSON, cleanAuditJSON, approveDecisionJSON,
		fullClassificationJSON(), extractedFactsJSON, cleanAuditJSON, approveDecisionJSON,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"full_policy", "claim_summary", "letter_of_explanation"})

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	// Same documents, delivered again: the settled claim is processed afresh.
	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if len(env.logs.appended) != 2 {
		t.Fatalf("expected one extraction log per run, got %d", len(env.logs.appended))
	}
	if env.repo.saved == nil || env.repo.saved.Status != domain.StatusApproved {
		t.Fatalf("outcome after rerun = %+v, want APPROVED", env.repo.saved)
	}
	if len(env.repo.statusCalls) != 2 {
		t.Fatalf("expected one PROCESSING write per run, got %+v", env.repo.statusCalls)
	}
	if env.svc.calls != 8 {
		t.Fatalf("expected 8 backend calls over two runs, got %d", env.svc.calls)
	}
}

func TestRunReprocessesMissingSubmission(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		fullClassificationJSON(),
		extractedFactsJSON,
		cleanAuditJSON,
		approveDecisionJSON,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusMissing,
	}, svc, []string{"full_policy", "claim_summary", "letter_of_explanation"})

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.repo.saved == nil || env.repo.saved.Status != domain.StatusApproved {
		t.Fatalf("resubmission outcome = %+v, want APPROVED", env.repo.saved)
	}
}

// A letter-of-explanation waiver granted by the auditor must not survive the
// baseline check adding missing core documents behind its back.
func TestRunRevokesLetterWaiverWhenBaselineItemsMissing(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		`[{"filename": "claim_form.pdf", "category": "claim_summary"}]`,
		extractedFactsJSON,
		`{
			"missing_status": {
				"claim_summary": {"missing": false, "reason": "Provided"},
				"letter_of_explanation": {"missing": true, "reason": "Not attached"}
			},
			"final_missing_status": true,
			"generated_decision_summary": ""
		}`,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"claim_summary", "letter_of_explanation"})

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	saved := env.repo.saved
	if saved == nil || saved.Status != domain.StatusMissing {
		t.Fatalf("saved outcome = %+v, want MISSING", saved)
	}
	missing := map[string]bool{}
	for _, name := range saved.MissingDocuments {
		missing[name] = true
	}
	for _, name := range []string{"full_policy", "policy_summary", "letter_of_explanation"} {
		if !missing[name] {
			t.Fatalf("%s not reported missing: %v", name, saved.MissingDocuments)
		}
	}
	if saved.FileCheckSummary == "" {
		t.Fatalf("file check summary not synthesized")
	}
	// The decision stage must never have been reached.
	if env.svc.calls != 3 {
		t.Fatalf("expected 3 backend calls, got %d", env.svc.calls)
	}
}

// With zero readable attachments the classifier and extractor stay silent and
// the run still settles on the MISSING branch with the checklist resolved.
func TestRunReportsAllMissingWithoutReadableAttachments(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		`{"missing_status": {}, "final_missing_status": true, "generated_decision_summary": "No documents were provided."}`,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"full_policy", "claim_summary", "letter_of_explanation"})
	for key := range env.storage.files {
		env.storage.failKeys[key] = true
	}

	if err := env.uc.Run(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	saved := env.repo.saved
	if saved == nil || saved.Status != domain.StatusMissing {
		t.Fatalf("saved outcome = %+v, want MISSING", saved)
	}
	missing := map[string]bool{}
	for _, name := range saved.MissingDocuments {
		missing[name] = true
	}
	for _, name := range []string{"full_policy", "policy_summary", "claim_summary", "letter_of_explanation"} {
		if !missing[name] {
			t.Fatalf("%s not reported missing: %v", name, saved.MissingDocuments)
		}
	}
	// Only the audit reached the backend.
	if env.svc.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", env.svc.calls)
	}
}

func TestRunClosesSubmissionOnAuditFailure(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		fullClassificationJSON(),
		extractedFactsJSON,
		`broken audit`,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"full_policy"})

	err := env.uc.Run(context.Background(), "sub-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(env.repo.statusCalls) != 2 {
		t.Fatalf("expected PROCESSING then CLOSED, got %+v", env.repo.statusCalls)
	}
	last := env.repo.statusCalls[1]
	if last.status != domain.StatusClosed || last.submissionStatus != domain.SubmissionError {
		t.Fatalf("final status = %+v, want CLOSED/ERROR", last)
	}
	// Partial artifacts are still recorded for forensics.
	if len(env.logs.appended) != 1 {
		t.Fatalf("expected failure log, got %d entries", len(env.logs.appended))
	}
	var artifacts map[string]json.RawMessage
	if err := json.Unmarshal(env.logs.appended[0].Payload, &artifacts); err != nil {
		t.Fatalf("failure log payload is not JSON: %v", err)
	}
	if _, ok := artifacts["error"]; !ok {
		t.Fatalf("failure log lacks error field: %s", env.logs.appended[0].Payload)
	}
}

func TestRunClosesSubmissionOnUnknownChecklist(t *testing.T) {
	svc := &reasoningFake{responses: []string{
		fullClassificationJSON(),
		extractedFactsJSON,
	}}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, nil)
	env.uc.resolver = &resolverFake{err: context.DeadlineExceeded}

	err := env.uc.Run(context.Background(), "sub-1")
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	last := env.repo.statusCalls[len(env.repo.statusCalls)-1]
	if last.status != domain.StatusClosed || last.submissionStatus != domain.SubmissionError {
		t.Fatalf("final status = %+v, want CLOSED/ERROR", last)
	}
}

// A run killed by its own context must not be parked in CLOSED/ERROR: the
// submission stays in PROCESSING so queue redelivery can retry it.
func TestRunCancelledContextLeavesSubmissionProcessing(t *testing.T) {
	svc := &reasoningFake{}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusPending,
	}, svc, []string{"full_policy"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := env.uc.Run(ctx, "sub-1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(env.repo.statusCalls) != 1 || env.repo.statusCalls[0].status != domain.StatusProcessing {
		t.Fatalf("expected only the PROCESSING write, got %+v", env.repo.statusCalls)
	}
	if env.repo.submission.Status != domain.StatusProcessing {
		t.Fatalf("submission status = %s, want %s", env.repo.submission.Status, domain.StatusProcessing)
	}
	if len(env.logs.appended) != 0 {
		t.Fatalf("aborted run must not write artifacts, got %d entries", len(env.logs.appended))
	}
}

func TestRunRejectsIllegalStartState(t *testing.T) {
	svc := &reasoningFake{}
	env := newPipelineEnv(&domain.ClaimSubmission{
		ID: "sub-1", Flavor: domain.FlavorTravel, Status: domain.StatusDeciding,
	}, svc, nil)

	err := env.uc.Run(context.Background(), "sub-1")
	if !domain.IsKind(err, domain.ErrIllegalTransition) {
		t.Fatalf("error = %v, want ErrIllegalTransition", err)
	}
}
