package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

type ExtractionLogRepository struct {
	db *sql.DB
}

func NewExtractionLogRepository(db *sql.DB) *ExtractionLogRepository {
	return &ExtractionLogRepository{db: db}
}

// Append adds one run record. Logs are insert-only; a new run never touches
// the records of earlier runs.
func (r *ExtractionLogRepository) Append(ctx context.Context, log *domain.ExtractionLog) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO extraction_logs (id, submission_id, payload, created_at)
VALUES ($1,$2,$3,$4)
`, log.ID, log.SubmissionID, log.Payload, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert extraction log: %w", err)
	}
	return nil
}

func (r *ExtractionLogRepository) ListBySubmission(ctx context.Context, submissionID string) ([]domain.ExtractionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, submission_id, payload, created_at
FROM extraction_logs
WHERE submission_id = $1
ORDER BY created_at DESC
`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list extraction logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExtractionLog, 0)
	for rows.Next() {
		var log domain.ExtractionLog
		if err := rows.Scan(&log.ID, &log.SubmissionID, &log.Payload, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan extraction log: %w", err)
		}
		out = append(out, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction logs: %w", err)
	}
	return out, nil
}
