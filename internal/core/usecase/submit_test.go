package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

func TestCreateSubmissionSuccess(t *testing.T) {
	repo := &submissionRepoFake{}
	attachments := &attachmentRepoFake{}
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewSubmitClaimUseCase(repo, attachments, storage, queue)

	submission, err := uc.CreateSubmission(context.Background(), domain.FlavorTravel, []ports.Upload{
		{Filename: "policy.pdf", MimeType: "application/pdf", Body: strings.NewReader("pdf-bytes")},
		{Filename: "claim form.pdf", MimeType: "application/pdf", Body: strings.NewReader("claim-bytes")},
	})
	if err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}

	if submission.Status != domain.StatusPending {
		t.Fatalf("status = %s, want %s", submission.Status, domain.StatusPending)
	}
	if submission.SubmissionStatus != domain.SubmissionProcessing {
		t.Fatalf("submission status = %s, want %s", submission.SubmissionStatus, domain.SubmissionProcessing)
	}
	if submission.Number == "" {
		t.Fatalf("submission number is empty")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 submission insert, got %d", len(repo.created))
	}
	if len(attachments.created) != 2 {
		t.Fatalf("expected 2 attachment inserts, got %d", len(attachments.created))
	}
	if len(storage.saved) != 2 {
		t.Fatalf("expected 2 stored blobs, got %d", len(storage.saved))
	}
	for key := range storage.saved {
		if strings.Contains(key, " ") {
			t.Fatalf("storage key %q contains spaces", key)
		}
	}
	if len(queue.published) != 1 || queue.published[0] != submission.ID {
		t.Fatalf("expected publish for %s, got %v", submission.ID, queue.published)
	}
}

func TestCreateSubmissionRejectsUnknownFlavor(t *testing.T) {
	uc := NewSubmitClaimUseCase(&submissionRepoFake{}, &attachmentRepoFake{}, newStorageFake(), &queueFake{})

	_, err := uc.CreateSubmission(context.Background(), domain.Flavor("marine"), []ports.Upload{
		{Filename: "a.pdf", Body: strings.NewReader("x")},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateSubmissionRequiresAttachments(t *testing.T) {
	uc := NewSubmitClaimUseCase(&submissionRepoFake{}, &attachmentRepoFake{}, newStorageFake(), &queueFake{})

	_, err := uc.CreateSubmission(context.Background(), domain.FlavorTravel, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestMarkPaidFromApproved(t *testing.T) {
	repo := &submissionRepoFake{submission: &domain.ClaimSubmission{
		ID:     "sub-1",
		Status: domain.StatusApproved,
	}}
	uc := NewSubmitClaimUseCase(repo, &attachmentRepoFake{}, newStorageFake(), &queueFake{})

	if err := uc.MarkPaid(context.Background(), "sub-1"); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if len(repo.statusCalls) != 1 {
		t.Fatalf("expected 1 status update, got %d", len(repo.statusCalls))
	}
	call := repo.statusCalls[0]
	if call.status != domain.StatusPaid || call.submissionStatus != domain.SubmissionClosed {
		t.Fatalf("unexpected status update: %+v", call)
	}
}

func TestMarkPaidRejectsIllegalTransition(t *testing.T) {
	repo := &submissionRepoFake{submission: &domain.ClaimSubmission{
		ID:     "sub-1",
		Status: domain.StatusDeclined,
	}}
	uc := NewSubmitClaimUseCase(repo, &attachmentRepoFake{}, newStorageFake(), &queueFake{})

	err := uc.MarkPaid(context.Background(), "sub-1")
	if !domain.IsKind(err, domain.ErrIllegalTransition) {
		t.Fatalf("error = %v, want ErrIllegalTransition", err)
	}
	if len(repo.statusCalls) != 0 {
		t.Fatalf("status must not change on illegal transition, got %+v", repo.statusCalls)
	}
}
