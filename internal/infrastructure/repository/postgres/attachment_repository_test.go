package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

func TestAttachmentRepositoryListBySubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAttachmentRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "submission_id", "filename", "mime_type", "storage_path", "created_at"}).
		AddRow("a-1", "s-1", "Policy Wording.pdf", "application/pdf", "s-1/policy.pdf", now).
		AddRow("a-2", "s-1", "claim_form.pdf", "application/pdf", "s-1/claim.pdf", now)

	mock.ExpectQuery("FROM claim_attachments").
		WithArgs("s-1").
		WillReturnRows(rows)

	attachments, err := repo.ListBySubmission(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("ListBySubmission() error = %v", err)
	}
	if len(attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(attachments))
	}
	if attachments[0].Filename != "Policy Wording.pdf" {
		t.Fatalf("first attachment = %+v", attachments[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAttachmentRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAttachmentRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO claim_attachments").
		WithArgs("a-1", "s-1", "claim_form.pdf", "application/pdf", "s-1/claim.pdf", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), &domain.Attachment{
		ID: "a-1", SubmissionID: "s-1", Filename: "claim_form.pdf",
		MimeType: "application/pdf", StoragePath: "s-1/claim.pdf", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
