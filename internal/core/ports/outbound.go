package ports

import (
	"context"
	"io"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

// SubmissionRepository persists and reads claim submission state.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.ClaimSubmission) error
	GetByID(ctx context.Context, id string) (*domain.ClaimSubmission, error)
	UpdateStatus(ctx context.Context, id string, status domain.ClaimStatus, submissionStatus domain.SubmissionStatus) error
	// SaveOutcome applies one terminal transition as a single logical update:
	// status fields plus every projected business field together.
	SaveOutcome(ctx context.Context, submission *domain.ClaimSubmission) error
}

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListBySubmission(ctx context.Context, submissionID string) ([]domain.Attachment, error)
}

// ExtractionLogRepository appends and reads extraction attempt logs.
type ExtractionLogRepository interface {
	Append(ctx context.Context, log *domain.ExtractionLog) error
	ListBySubmission(ctx context.Context, submissionID string) ([]domain.ExtractionLog, error)
}

// ObjectStorage stores attachment blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes pipeline trigger events.
type MessageQueue interface {
	PublishClaimSubmitted(ctx context.Context, submissionID string) error
	SubscribeClaimSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentPayload is one document handed to the reasoning service.
type DocumentPayload struct {
	Filename string
	MimeType string
	Data     []byte
}

// ReasoningRequest is a single schema-driven call to the backing service.
// Schema, when set, is the JSON schema the response must validate against;
// interpretation of the response stays with the caller.
type ReasoningRequest struct {
	Prompt    string
	Schema    string
	Documents []DocumentPayload
}

// ReasoningService is the opaque classification/extraction/decision backend.
// It returns raw text expected to parse as JSON; strict parsing and fallback
// on parse failure belong to callers.
type ReasoningService interface {
	GenerateJSON(ctx context.Context, req ReasoningRequest) (string, error)
}

// PageTextExtractor bounds classification cost for paginated formats by
// extracting only the leading pages of text.
type PageTextExtractor interface {
	FirstPages(data []byte, maxPages int) (string, error)
}

// ChecklistResolver maps (flavor, claim type, sub-reason) to the required
// document checklist. Unknown pairs are a configuration error, never an
// empty checklist.
type ChecklistResolver interface {
	Resolve(flavor domain.Flavor, claimType, subReason string) ([]string, error)
}
