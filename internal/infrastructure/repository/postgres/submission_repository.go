package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vkazmin/claimflow/internal/core/domain"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS claim_submissions (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL,
	flavor TEXT NOT NULL,
	status TEXT NOT NULL,
	submission_status TEXT NOT NULL,
	missing_documents JSONB NOT NULL DEFAULT '[]'::jsonb,
	decision_reason TEXT NOT NULL DEFAULT '',
	decision_summary TEXT NOT NULL DEFAULT '',
	file_check_summary TEXT NOT NULL DEFAULT '',
	decision_confidence DOUBLE PRECISION,
	is_fraud_suspected BOOLEAN NOT NULL DEFAULT FALSE,
	fraud_reasons TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL DEFAULT '',
	payment_reason TEXT NOT NULL DEFAULT '',
	claim_number TEXT NOT NULL DEFAULT '',
	claim_type TEXT NOT NULL DEFAULT '',
	claim_amount TEXT NOT NULL DEFAULT '',
	requested_refund TEXT NOT NULL DEFAULT '',
	approved_amount TEXT NOT NULL DEFAULT '',
	premium_amount TEXT NOT NULL DEFAULT '',
	matched_coverage_terms TEXT NOT NULL DEFAULT '',
	client_name TEXT NOT NULL DEFAULT '',
	client_email TEXT NOT NULL DEFAULT '',
	client_phone TEXT NOT NULL DEFAULT '',
	client_post_code TEXT NOT NULL DEFAULT '',
	trip_cost TEXT NOT NULL DEFAULT '',
	destination TEXT NOT NULL DEFAULT '',
	trip_start_date TIMESTAMPTZ,
	trip_return_date TIMESTAMPTZ,
	policy_number TEXT NOT NULL DEFAULT '',
	policy_holder TEXT NOT NULL DEFAULT '',
	policy_total_cost TEXT NOT NULL DEFAULT '',
	policy_effective_date TIMESTAMPTZ,
	policy_expiration_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claim_submissions_status ON claim_submissions(status);
CREATE INDEX IF NOT EXISTS idx_claim_submissions_created_at ON claim_submissions(created_at DESC);

CREATE TABLE IF NOT EXISTS claim_attachments (
	id TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES claim_submissions(id),
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claim_attachments_submission ON claim_attachments(submission_id);

CREATE TABLE IF NOT EXISTS extraction_logs (
	id TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES claim_submissions(id),
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_logs_submission ON extraction_logs(submission_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *domain.ClaimSubmission) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO claim_submissions (id, number, flavor, status, submission_status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		submission.ID, submission.Number, string(submission.Flavor),
		string(submission.Status), string(submission.SubmissionStatus),
		submission.CreatedAt, submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

const submissionColumns = `
id, number, flavor, status, submission_status, missing_documents,
decision_reason, decision_summary, file_check_summary, decision_confidence,
is_fraud_suspected, fraud_reasons, payment_status, payment_reason,
claim_number, claim_type, claim_amount, requested_refund, approved_amount,
premium_amount, matched_coverage_terms,
client_name, client_email, client_phone, client_post_code,
trip_cost, destination, trip_start_date, trip_return_date,
policy_number, policy_holder, policy_total_cost, policy_effective_date, policy_expiration_date,
created_at, updated_at`

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.ClaimSubmission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+submissionColumns+`
FROM claim_submissions
WHERE id = $1
`, id)

	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission",
				fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	return submission, nil
}

func (r *SubmissionRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.ClaimStatus,
	submissionStatus domain.SubmissionStatus,
) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE claim_submissions
SET status = $2, submission_status = $3, updated_at = $4
WHERE id = $1
`, id, string(status), string(submissionStatus), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrSubmissionNotFound, "update submission status",
			fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *SubmissionRepository) SaveOutcome(ctx context.Context, submission *domain.ClaimSubmission) error {
	missingJSON, err := json.Marshal(missingOrEmpty(submission.MissingDocuments))
	if err != nil {
		return fmt.Errorf("marshal missing documents: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE claim_submissions
SET status = $2, submission_status = $3, missing_documents = $4,
	decision_reason = $5, decision_summary = $6, file_check_summary = $7, decision_confidence = $8,
	is_fraud_suspected = $9, fraud_reasons = $10, payment_status = $11, payment_reason = $12,
	claim_number = $13, claim_type = $14, claim_amount = $15, requested_refund = $16,
	approved_amount = $17, premium_amount = $18, matched_coverage_terms = $19,
	client_name = $20, client_email = $21, client_phone = $22, client_post_code = $23,
	trip_cost = $24, destination = $25, trip_start_date = $26, trip_return_date = $27,
	policy_number = $28, policy_holder = $29, policy_total_cost = $30,
	policy_effective_date = $31, policy_expiration_date = $32,
	updated_at = $33
WHERE id = $1
`,
		submission.ID,
		string(submission.Status), string(submission.SubmissionStatus), missingJSON,
		submission.DecisionReason, submission.DecisionSummary, submission.FileCheckSummary, submission.DecisionConfidence,
		submission.IsFraudSuspected, submission.FraudReasons, submission.PaymentStatus, submission.PaymentReason,
		submission.ClaimNumber, submission.ClaimType, submission.ClaimAmount, submission.RequestedRefund,
		submission.ApprovedAmount, submission.PremiumAmount, submission.MatchedCoverageTerms,
		submission.ClientName, submission.ClientEmail, submission.ClientPhone, submission.ClientPostCode,
		submission.TripCost, submission.Destination, submission.TripStartDate, submission.TripReturnDate,
		submission.PolicyNumber, submission.PolicyHolder, submission.PolicyTotalCost,
		submission.PolicyEffectiveDate, submission.PolicyExpirationDate,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save submission outcome: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save submission outcome rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrSubmissionNotFound, "save submission outcome",
			fmt.Errorf("id=%s", submission.ID))
	}
	return nil
}

type submissionScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row submissionScanner) (*domain.ClaimSubmission, error) {
	var s domain.ClaimSubmission
	var flavor, status, submissionStatus string
	var missingRaw []byte
	var confidence sql.NullFloat64
	var tripStart, tripReturn, policyEffective, policyExpiration sql.NullTime

	err := row.Scan(
		&s.ID, &s.Number, &flavor, &status, &submissionStatus, &missingRaw,
		&s.DecisionReason, &s.DecisionSummary, &s.FileCheckSummary, &confidence,
		&s.IsFraudSuspected, &s.FraudReasons, &s.PaymentStatus, &s.PaymentReason,
		&s.ClaimNumber, &s.ClaimType, &s.ClaimAmount, &s.RequestedRefund, &s.ApprovedAmount,
		&s.PremiumAmount, &s.MatchedCoverageTerms,
		&s.ClientName, &s.ClientEmail, &s.ClientPhone, &s.ClientPostCode,
		&s.TripCost, &s.Destination, &tripStart, &tripReturn,
		&s.PolicyNumber, &s.PolicyHolder, &s.PolicyTotalCost, &policyEffective, &policyExpiration,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(missingRaw, &s.MissingDocuments); err != nil {
		return nil, fmt.Errorf("unmarshal missing documents: %w", err)
	}
	s.Flavor = domain.Flavor(flavor)
	s.Status = domain.ClaimStatus(status)
	s.SubmissionStatus = domain.SubmissionStatus(submissionStatus)
	if confidence.Valid {
		s.DecisionConfidence = &confidence.Float64
	}
	s.TripStartDate = timePtr(tripStart)
	s.TripReturnDate = timePtr(tripReturn)
	s.PolicyEffectiveDate = timePtr(policyEffective)
	s.PolicyExpirationDate = timePtr(policyExpiration)
	return &s, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func missingOrEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
