package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

// loadDocumentPayload reads one attachment blob in full.
func loadDocumentPayload(ctx context.Context, storage ports.ObjectStorage, att domain.Attachment) (ports.DocumentPayload, error) {
	reader, err := storage.Open(ctx, att.StoragePath)
	if err != nil {
		return ports.DocumentPayload{}, fmt.Errorf("open attachment %s: %w", att.Filename, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return ports.DocumentPayload{}, fmt.Errorf("read attachment %s: %w", att.Filename, err)
	}
	return ports.DocumentPayload{Filename: att.Filename, MimeType: att.MimeType, Data: data}, nil
}

// loadDocumentPayloads reads a batch of blobs, skipping unreadable ones with
// a warning. Callers that cannot tolerate a skipped document use
// loadDocumentPayload directly.
func loadDocumentPayloads(
	ctx context.Context,
	storage ports.ObjectStorage,
	logger *slog.Logger,
	attachments []domain.Attachment,
) []ports.DocumentPayload {
	var payloads []ports.DocumentPayload
	for _, att := range attachments {
		payload, err := loadDocumentPayload(ctx, storage, att)
		if err != nil {
			logger.Warn("attachment unavailable, skipping", "filename", att.Filename, "error", err)
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}
