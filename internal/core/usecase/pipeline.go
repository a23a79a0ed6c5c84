package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

// RunPipelineUseCase drives one end-to-end processing run for a submission:
// classify, extract, audit for completeness, then either report missing
// documents or adjudicate. All intermediate state lives in memory; the only
// persisted writes are the PROCESSING marker at the start, the append-only
// extraction log, and one terminal outcome write.
type RunPipelineUseCase struct {
	submissions ports.SubmissionRepository
	attachments ports.AttachmentRepository
	logs        ports.ExtractionLogRepository
	storage     ports.ObjectStorage
	resolver    ports.ChecklistResolver
	classifier  *DocumentClassifier
	extractor   *FactsExtractor
	auditor     *MissingDocumentAuditor
	engine      *DecisionEngine
	logger      *slog.Logger
}

func NewRunPipelineUseCase(
	submissions ports.SubmissionRepository,
	attachments ports.AttachmentRepository,
	logs ports.ExtractionLogRepository,
	storage ports.ObjectStorage,
	resolver ports.ChecklistResolver,
	classifier *DocumentClassifier,
	extractor *FactsExtractor,
	auditor *MissingDocumentAuditor,
	engine *DecisionEngine,
	logger *slog.Logger,
) *RunPipelineUseCase {
	return &RunPipelineUseCase{
		submissions: submissions,
		attachments: attachments,
		logs:        logs,
		storage:     storage,
		resolver:    resolver,
		classifier:  classifier,
		extractor:   extractor,
		auditor:     auditor,
		engine:      engine,
		logger:      logger,
	}
}

// runArtifacts accumulates everything a run produced, for the extraction log.
// It is written even when the run fails partway: partial artifacts are the
// forensic record of what the failed run saw.
type runArtifacts struct {
	Classified []domain.ClassifiedDocument `json:"classified_documents,omitempty"`
	Facts      *domain.ExtractedFacts      `json:"extracted_facts,omitempty"`
	Checklist  []string                    `json:"required_files,omitempty"`
	Report     *domain.MissingnessReport   `json:"required_document_check,omitempty"`
	Decision   *domain.DecisionRecord      `json:"decision,omitempty"`
	Rationale  string                      `json:"rationale,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

func (uc *RunPipelineUseCase) Run(ctx context.Context, submissionID string) error {
	logger := uc.logger.With("submission_id", submissionID)

	submission, err := uc.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}

	// A settled submission may be processed again (resubmitted documents,
	// operator retry); every run appends its own extraction log. Only a paid
	// claim is final.
	if submission.Status == domain.StatusPaid {
		logger.Info("submission already paid, skipping run")
		return nil
	}
	if submission.Status != domain.StatusProcessing &&
		!domain.CanTransition(submission.Status, domain.StatusProcessing) {
		return domain.WrapError(domain.ErrIllegalTransition, "start pipeline run",
			fmt.Errorf("cannot move %s to %s", submission.Status, domain.StatusProcessing))
	}

	if err := uc.submissions.UpdateStatus(ctx, submissionID, domain.StatusProcessing, domain.SubmissionProcessing); err != nil {
		return fmt.Errorf("mark submission processing: %w", err)
	}
	submission.Status = domain.StatusProcessing

	artifacts := &runArtifacts{}
	if err := uc.process(ctx, logger, submission, artifacts); err != nil {
		uc.fail(ctx, logger, submission, artifacts, err)
		return err
	}
	return nil
}

func (uc *RunPipelineUseCase) process(
	ctx context.Context,
	logger *slog.Logger,
	submission *domain.ClaimSubmission,
	artifacts *runArtifacts,
) error {
	profile, ok := domain.ProfileFor(submission.Flavor)
	if !ok {
		return domain.WrapError(domain.ErrConfiguration, "run pipeline",
			fmt.Errorf("unknown flavor %q", submission.Flavor))
	}

	attachments, err := uc.attachments.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	classified := uc.classifier.Classify(ctx, profile, attachments)
	artifacts.Classified = classified
	logger.Info("documents classified", "attachments", len(attachments), "classified", len(classified))

	docs := bucketDocuments(profile, classified, attachments)

	facts, err := uc.extractor.Extract(ctx, docs)
	if err != nil {
		return err
	}
	artifacts.Facts = facts

	claimType, subReason := claimReason(facts)
	required, err := uc.resolver.Resolve(submission.Flavor, claimType, subReason)
	if err != nil {
		return domain.WrapError(domain.ErrConfiguration, "resolve required documents", err)
	}
	artifacts.Checklist = required

	report, err := uc.auditor.Audit(ctx, required, classified)
	if err != nil {
		return err
	}
	// Baseline items can introduce new missing entries, which may revoke a
	// letter-of-explanation waiver the auditor granted before it saw them.
	addBaselineMissing(report, profile, docs)
	report.ResolveConditionalItems()
	report.Recompute()
	if report.FinalMissing && report.Summary == "" {
		report.Summary = synthesizeSummary(report)
	}
	artifacts.Report = report

	if report.FinalMissing {
		logger.Info("submission incomplete", "missing", report.MissingNames())
		return uc.settleMissing(ctx, submission, facts, report, artifacts)
	}

	if !domain.CanTransition(submission.Status, domain.StatusDeciding) {
		return domain.WrapError(domain.ErrIllegalTransition, "enter adjudication",
			fmt.Errorf("cannot move %s to %s", submission.Status, domain.StatusDeciding))
	}
	submission.Status = domain.StatusDeciding

	payloads, err := uc.decisionPayloads(ctx, logger, docs)
	if err != nil {
		return err
	}

	decision, err := uc.engine.Decide(ctx, facts, payloads)
	if err != nil {
		return err
	}
	artifacts.Decision = decision
	artifacts.Rationale = decision.SummaryOfFindings

	status := domain.StatusForDecision(*decision)
	if !domain.CanTransition(submission.Status, status) {
		return domain.WrapError(domain.ErrIllegalTransition, "settle decision",
			fmt.Errorf("cannot move %s to %s", submission.Status, status))
	}
	logger.Info("claim adjudicated", "appetite", decision.Appetite, "status", status,
		"confidence", decision.ConfidenceLevel)

	return uc.settleDecision(ctx, submission, facts, report, decision, status, artifacts)
}

// settleMissing closes the run on the MISSING branch: no decision is made
// and the claim waits for resubmission.
func (uc *RunPipelineUseCase) settleMissing(
	ctx context.Context,
	submission *domain.ClaimSubmission,
	facts *domain.ExtractedFacts,
	report *domain.MissingnessReport,
	artifacts *runArtifacts,
) error {
	if !domain.CanTransition(submission.Status, domain.StatusMissing) {
		return domain.WrapError(domain.ErrIllegalTransition, "settle missing",
			fmt.Errorf("cannot move %s to %s", submission.Status, domain.StatusMissing))
	}

	submission.Status = domain.StatusMissing
	submission.SubmissionStatus = submissionStatusFor(submission)
	submission.MissingDocuments = report.MissingNames()
	submission.FileCheckSummary = report.Summary
	projectFacts(submission, facts)

	if err := uc.appendLog(ctx, submission.ID, artifacts); err != nil {
		return err
	}
	if err := uc.submissions.SaveOutcome(ctx, submission); err != nil {
		return fmt.Errorf("save missing outcome: %w", err)
	}
	return nil
}

func (uc *RunPipelineUseCase) settleDecision(
	ctx context.Context,
	submission *domain.ClaimSubmission,
	facts *domain.ExtractedFacts,
	report *domain.MissingnessReport,
	decision *domain.DecisionRecord,
	status domain.ClaimStatus,
	artifacts *runArtifacts,
) error {
	submission.Status = status
	submission.SubmissionStatus = submissionStatusFor(submission)
	submission.MissingDocuments = nil
	submission.FileCheckSummary = report.Summary
	projectFacts(submission, facts)
	projectDecision(submission, decision)

	if err := uc.appendLog(ctx, submission.ID, artifacts); err != nil {
		return err
	}
	if err := uc.submissions.SaveOutcome(ctx, submission); err != nil {
		return fmt.Errorf("save decision outcome: %w", err)
	}
	return nil
}

// fail is the single failure path: record what the run saw, then park the
// claim in CLOSED/ERROR. The one exception is a cancelled or timed-out
// context, where the submission stays in PROCESSING for redelivery.
func (uc *RunPipelineUseCase) fail(
	ctx context.Context,
	logger *slog.Logger,
	submission *domain.ClaimSubmission,
	artifacts *runArtifacts,
	cause error,
) {
	logger.Error("pipeline run failed", "error", cause)
	artifacts.Error = cause.Error()
	// When the context itself died, the CLOSED write would fail on the same
	// dead context. Leave the submission in PROCESSING so queue redelivery
	// can retry the run.
	if ctx.Err() != nil {
		logger.Warn("run aborted, leaving submission in processing", "cause", ctx.Err())
		return
	}
	if err := uc.appendLog(ctx, submission.ID, artifacts); err != nil {
		logger.Error("failed to record run artifacts", "error", err)
	}
	if err := uc.submissions.UpdateStatus(ctx, submission.ID, domain.StatusClosed, domain.SubmissionError); err != nil {
		logger.Error("failed to close errored submission", "error", err)
	}
}

func (uc *RunPipelineUseCase) appendLog(ctx context.Context, submissionID string, artifacts *runArtifacts) error {
	payload, err := json.Marshal(artifacts)
	if err != nil {
		return fmt.Errorf("marshal run artifacts: %w", err)
	}
	log := &domain.ExtractionLog{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.logs.Append(ctx, log); err != nil {
		return fmt.Errorf("append extraction log: %w", err)
	}
	return nil
}

// decisionPayloads loads the documents the adjudicator reads. The policy
// wording is non-negotiable: deciding without it would bypass the validity
// gate, so a fetch failure fails the run. Supporting files degrade softly.
func (uc *RunPipelineUseCase) decisionPayloads(
	ctx context.Context,
	logger *slog.Logger,
	docs *domain.DocumentSet,
) ([]ports.DocumentPayload, error) {
	var payloads []ports.DocumentPayload
	if policy := docs.Single[domain.CategoryFullPolicy]; policy != nil {
		payload, err := loadDocumentPayload(ctx, uc.storage, *policy)
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtraction, "load policy wording", err)
		}
		payloads = append(payloads, payload)
	}
	payloads = append(payloads,
		loadDocumentPayloads(ctx, uc.storage, logger, docs.AllExceptFullPolicy())...)
	return payloads, nil
}

func bucketDocuments(
	profile domain.FlavorProfile,
	classified []domain.ClassifiedDocument,
	attachments []domain.Attachment,
) *domain.DocumentSet {
	byName := make(map[string]domain.Attachment, len(attachments))
	for _, att := range attachments {
		byName[att.Filename] = att
	}
	docs := domain.NewDocumentSet()
	for _, doc := range classified {
		if att, ok := byName[doc.Filename]; ok {
			docs.Add(profile, doc.Category, att)
		}
	}
	return docs
}

func claimReason(facts *domain.ExtractedFacts) (claimType, subReason string) {
	if facts == nil || facts.Claim == nil {
		return "", ""
	}
	return facts.Claim.Reason.ClaimType, facts.Claim.Reason.SubReason
}

// addBaselineMissing guarantees a verdict for the core single-instance
// documents even when neither the checklist nor the model mentioned them.
func addBaselineMissing(report *domain.MissingnessReport, profile domain.FlavorProfile, docs *domain.DocumentSet) {
	named := make(map[string]bool, len(report.Items))
	for _, item := range report.Items {
		named[strings.ToLower(strings.TrimSpace(item.Name))] = true
	}
	for category := range profile.SingleCategories {
		name := string(category)
		if named[name] || docs.Has(category) {
			continue
		}
		report.Items = append(report.Items, domain.MissingItem{
			Name:    name,
			Missing: true,
			Reason:  fmt.Sprintf("%s document not found among the attachments", name),
		})
	}
}

// submissionStatusFor applies the duplicate screen before handing the claim
// to review. Duplicate detection is a stub that never fires yet; the hook
// exists so the terminal write already routes through it.
func submissionStatusFor(submission *domain.ClaimSubmission) domain.SubmissionStatus {
	if isDuplicateSubmission(submission) {
		return domain.SubmissionDuplicate
	}
	return domain.SubmissionInReview
}

func isDuplicateSubmission(*domain.ClaimSubmission) bool {
	return false
}
