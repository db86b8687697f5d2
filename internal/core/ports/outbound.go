package ports

import (
	"context"
	"io"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

// DocumentSource reads analysed documents from the OCR backend.
type DocumentSource interface {
	FetchBundle(ctx context.Context, docID string) (*domain.Bundle, error)
}

// ObjectStorage stores exported reports.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue consumes processed-document notifications and publishes review results.
type MessageQueue interface {
	PublishReviewCompleted(ctx context.Context, event domain.ReviewCompletedEvent) error
	SubscribeDocumentProcessed(ctx context.Context, handler func(context.Context, string) error) error
}
