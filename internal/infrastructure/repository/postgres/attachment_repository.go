package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO claim_attachments (id, submission_id, filename, mime_type, storage_path, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		attachment.ID, attachment.SubmissionID, attachment.Filename,
		attachment.MimeType, attachment.StoragePath, attachment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (r *AttachmentRepository) ListBySubmission(ctx context.Context, submissionID string) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, submission_id, filename, mime_type, storage_path, created_at
FROM claim_attachments
WHERE submission_id = $1
ORDER BY created_at ASC
`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Attachment, 0)
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.SubmissionID, &att.Filename, &att.MimeType, &att.StoragePath, &att.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}
