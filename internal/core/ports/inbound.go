package ports

import (
	"context"
	"io"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

// DocumentReviewer is the inbound contract for the review workflow of one document.
type DocumentReviewer interface {
	Evaluate(ctx context.Context, bundle domain.Bundle, options []domain.AutoFixOption) (*domain.Evaluation, error)
	Load(ctx context.Context, docID string) (*domain.Session, error)
	Session(ctx context.Context, docID string) (*domain.Session, error)
	Summary(ctx context.Context, docID string) (*domain.SummaryView, error)
	ApplyAutoFix(ctx context.Context, docID string, options []domain.AutoFixOption) (*domain.Session, error)
	ExportReport(ctx context.Context, docID string) (*domain.ExportedReport, error)
	Reset(ctx context.Context, docID string) error
	OpenReport(ctx context.Context, key string) (io.ReadCloser, error)
}

// DocumentProcessor is the inbound contract for asynchronous document review.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, docID string) error
}
