package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

type SubmitClaimUseCase struct {
	submissions ports.SubmissionRepository
	attachments ports.AttachmentRepository
	storage     ports.ObjectStorage
	queue       ports.MessageQueue
}

func NewSubmitClaimUseCase(
	submissions ports.SubmissionRepository,
	attachments ports.AttachmentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *SubmitClaimUseCase {
	return &SubmitClaimUseCase{
		submissions: submissions,
		attachments: attachments,
		storage:     storage,
		queue:       queue,
	}
}

func (uc *SubmitClaimUseCase) CreateSubmission(
	ctx context.Context,
	flavor domain.Flavor,
	uploads []ports.Upload,
) (*domain.ClaimSubmission, error) {
	if _, ok := domain.ProfileFor(flavor); !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create submission", fmt.Errorf("unknown flavor %q", flavor))
	}
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create submission", errors.New("at least one attachment is required"))
	}

	now := time.Now().UTC()
	submission := &domain.ClaimSubmission{
		ID:               uuid.NewString(),
		Number:           generateSubmissionNumber(),
		Flavor:           flavor,
		Status:           domain.StatusPending,
		SubmissionStatus: domain.SubmissionProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.submissions.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("create submission record: %w", err)
	}

	for _, upload := range uploads {
		attachmentID := uuid.NewString()
		storageKey := fmt.Sprintf("%s_%s", attachmentID, sanitizeFilename(upload.Filename))

		if err := uc.storage.Save(ctx, storageKey, upload.Body); err != nil {
			return nil, fmt.Errorf("save attachment to object storage: %w", err)
		}

		attachment := &domain.Attachment{
			ID:           attachmentID,
			SubmissionID: submission.ID,
			Filename:     upload.Filename,
			MimeType:     upload.MimeType,
			StoragePath:  storageKey,
			CreatedAt:    now,
		}
		if err := uc.attachments.Create(ctx, attachment); err != nil {
			return nil, fmt.Errorf("create attachment metadata: %w", err)
		}
	}

	if err := uc.queue.PublishClaimSubmitted(ctx, submission.ID); err != nil {
		return nil, fmt.Errorf("publish claim submitted event: %w", err)
	}

	return submission, nil
}

func (uc *SubmitClaimUseCase) GetByID(ctx context.Context, id string) (*domain.ClaimSubmission, error) {
	return uc.submissions.GetByID(ctx, id)
}

// MarkPaid accepts the manual operator transition from an approved outcome.
func (uc *SubmitClaimUseCase) MarkPaid(ctx context.Context, submissionID string) error {
	submission, err := uc.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("fetch submission: %w", err)
	}
	if !domain.CanTransition(submission.Status, domain.StatusPaid) {
		return domain.WrapError(
			domain.ErrIllegalTransition,
			"mark paid",
			fmt.Errorf("cannot move %s to %s", submission.Status, domain.StatusPaid),
		)
	}
	if err := uc.submissions.UpdateStatus(ctx, submissionID, domain.StatusPaid, domain.SubmissionClosed); err != nil {
		return fmt.Errorf("update status to paid: %w", err)
	}
	return nil
}

const submissionNumberLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func generateSubmissionNumber() string {
	letters := make([]byte, 3)
	for i := range letters {
		letters[i] = submissionNumberLetters[rand.Intn(len(submissionNumberLetters))]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s%03d%s", letters, rand.Intn(1000), suffix)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
