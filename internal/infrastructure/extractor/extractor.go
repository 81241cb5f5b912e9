package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

// Extractor pulls plain text out of uploaded source documents. PDFs go
// through the pdf reader; everything else is treated as UTF-8 text.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, storagePath, mimeType string) (string, error) {
	rc, err := e.storage.Open(ctx, storagePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	var text string
	if isPDF(storagePath, mimeType) {
		text, err = extractPDF(raw)
		if err != nil {
			return "", err
		}
	} else {
		text = string(raw)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("document %s is empty", storagePath))
	}
	return text, nil
}

func isPDF(storagePath, mimeType string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(storagePath), ".pdf")
}

func extractPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return sb.String(), nil
}
