package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type statusCall struct {
	status           domain.ClaimStatus
	submissionStatus domain.SubmissionStatus
}

type submissionRepoFake struct {
	submission *domain.ClaimSubmission
	getErr     error
	createErr  error
	statusErr  error
	saveErr    error

	created     []*domain.ClaimSubmission
	statusCalls []statusCall
	saved       *domain.ClaimSubmission
}

func (f *submissionRepoFake) Create(_ context.Context, submission *domain.ClaimSubmission) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, submission)
	return nil
}

func (f *submissionRepoFake) GetByID(context.Context, string) (*domain.ClaimSubmission, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copySubmission := *f.submission
	return &copySubmission, nil
}

func (f *submissionRepoFake) UpdateStatus(_ context.Context, _ string, status domain.ClaimStatus, submissionStatus domain.SubmissionStatus) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, submissionStatus: submissionStatus})
	if f.statusErr != nil {
		return f.statusErr
	}
	if f.submission != nil {
		f.submission.Status = status
		f.submission.SubmissionStatus = submissionStatus
	}
	return nil
}

func (f *submissionRepoFake) SaveOutcome(_ context.Context, submission *domain.ClaimSubmission) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	copySubmission := *submission
	f.saved = &copySubmission
	if f.submission != nil {
		*f.submission = copySubmission
	}
	return nil
}

type attachmentRepoFake struct {
	attachments []domain.Attachment
	listErr     error
	createErr   error
	created     []*domain.Attachment
}

func (f *attachmentRepoFake) Create(_ context.Context, attachment *domain.Attachment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, attachment)
	return nil
}

func (f *attachmentRepoFake) ListBySubmission(context.Context, string) ([]domain.Attachment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.attachments, nil
}

type logRepoFake struct {
	appendErr error
	appended  []*domain.ExtractionLog
}

func (f *logRepoFake) Append(_ context.Context, log *domain.ExtractionLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, log)
	return nil
}

func (f *logRepoFake) ListBySubmission(context.Context, string) ([]domain.ExtractionLog, error) {
	return nil, nil
}

type storageFake struct {
	files    map[string][]byte
	saveErr  error
	failKeys map[string]bool
	saved    map[string][]byte
}

func newStorageFake() *storageFake {
	return &storageFake{
		files:    make(map[string][]byte),
		failKeys: make(map[string]bool),
		saved:    make(map[string][]byte),
	}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = raw
	f.files[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.failKeys[key] {
		return nil, fmt.Errorf("blob unavailable: %s", key)
	}
	data, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("no such blob: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type queueFake struct {
	publishErr error
	published  []string
}

func (f *queueFake) PublishClaimSubmitted(_ context.Context, submissionID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, submissionID)
	return nil
}

func (f *queueFake) SubscribeClaimSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

// reasoningFake replays canned responses in call order, recording every
// request for assertions on prompts and payloads.
type reasoningFake struct {
	responses []string
	errs      []error
	calls     int
	requests  []ports.ReasoningRequest
}

func (f *reasoningFake) GenerateJSON(_ context.Context, req ports.ReasoningRequest) (string, error) {
	f.requests = append(f.requests, req)
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("unexpected reasoning call %d", i)
}

type pagesFake struct {
	text string
	err  error
}

func (f *pagesFake) FirstPages([]byte, int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type resolverFake struct {
	items []string
	err   error
}

func (f *resolverFake) Resolve(domain.Flavor, string, string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}
