package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
)

const classifierPreviewPages = 2

// DocumentClassifier assigns one taxonomy label per readable attachment.
// Every failure here is soft: a run that cannot classify proceeds with an
// empty set, which downstream surfaces as missing-everything.
type DocumentClassifier struct {
	svc     ports.ReasoningService
	storage ports.ObjectStorage
	pages   ports.PageTextExtractor
	logger  *slog.Logger
}

func NewDocumentClassifier(
	svc ports.ReasoningService,
	storage ports.ObjectStorage,
	pages ports.PageTextExtractor,
	logger *slog.Logger,
) *DocumentClassifier {
	return &DocumentClassifier{svc: svc, storage: storage, pages: pages, logger: logger}
}

type classifiedDocumentWire struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
}

func (c *DocumentClassifier) Classify(
	ctx context.Context,
	profile domain.FlavorProfile,
	attachments []domain.Attachment,
) []domain.ClassifiedDocument {
	payloads := c.loadPreviews(ctx, attachments)
	if len(payloads) == 0 {
		c.logger.Warn("classification skipped: no readable attachments")
		return nil
	}

	raw, err := c.svc.GenerateJSON(ctx, ports.ReasoningRequest{
		Prompt:    buildClassificationPrompt(profile),
		Documents: payloads,
	})
	if err != nil {
		c.logger.Warn("classification call failed", "error", err)
		return nil
	}

	var wire []classifiedDocumentWire
	decoder := json.NewDecoder(strings.NewReader(extractJSONArray(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&wire); err != nil {
		c.logger.Warn("classification response is not a strict JSON array", "error", err)
		return nil
	}

	byName := make(map[string]domain.Attachment, len(attachments))
	for _, att := range attachments {
		byName[domain.NormalizeFilename(att.Filename)] = att
	}

	var out []domain.ClassifiedDocument
	for _, doc := range wire {
		att, found := byName[domain.NormalizeFilename(doc.Filename)]
		if !found {
			c.logger.Warn("classified file not found among attachments", "filename", doc.Filename)
			continue
		}
		category := domain.DocumentCategory(doc.Category)
		if !profile.Contains(category) {
			// Unclassified: omitted, treated downstream as absent.
			c.logger.Warn("classifier returned label outside taxonomy",
				"filename", doc.Filename, "category", doc.Category)
			continue
		}
		out = append(out, domain.ClassifiedDocument{Filename: att.Filename, Category: category})
	}
	return out
}

// loadPreviews reads each attachment's identifying content: leading pages of
// text for PDFs, full bytes otherwise. Unreadable attachments are skipped.
func (c *DocumentClassifier) loadPreviews(ctx context.Context, attachments []domain.Attachment) []ports.DocumentPayload {
	var payloads []ports.DocumentPayload
	for _, att := range attachments {
		reader, err := c.storage.Open(ctx, att.StoragePath)
		if err != nil {
			c.logger.Warn("attachment unavailable, skipping", "filename", att.Filename, "error", err)
			continue
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			c.logger.Warn("attachment unreadable, skipping", "filename", att.Filename, "error", err)
			continue
		}

		payload := ports.DocumentPayload{Filename: att.Filename, MimeType: att.MimeType, Data: data}
		if isPDF(att) {
			text, err := c.pages.FirstPages(data, classifierPreviewPages)
			if err != nil {
				c.logger.Warn("pdf text extraction failed, sending raw bytes", "filename", att.Filename, "error", err)
			} else {
				payload.MimeType = "text/plain"
				payload.Data = []byte(text)
			}
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

func isPDF(att domain.Attachment) bool {
	if strings.EqualFold(att.MimeType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(att.Filename), ".pdf")
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
