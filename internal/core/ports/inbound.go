package ports

import (
	"context"
	"io"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

// Upload is one file in a submission request.
type Upload struct {
	Filename string
	MimeType string
	Body     io.Reader
}

// ClaimSubmitter is the inbound contract for creating submissions.
type ClaimSubmitter interface {
	CreateSubmission(ctx context.Context, flavor domain.Flavor, uploads []Upload) (*domain.ClaimSubmission, error)
}

// SubmissionReader is the inbound read model for submission state.
type SubmissionReader interface {
	GetByID(ctx context.Context, id string) (*domain.ClaimSubmission, error)
}

// PipelineRunner is the inbound contract for one asynchronous pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, submissionID string) error
}

// PaymentMarker accepts the manual operator transition to PAID.
type PaymentMarker interface {
	MarkPaid(ctx context.Context, submissionID string) error
}
