package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/core/ports"
)

// ProcessReviewUseCase reviews a document end to end once the backend has
// finished analysing it.
type ProcessReviewUseCase struct {
	reviewer ports.DocumentReviewer
	queue    ports.MessageQueue
	options  []domain.AutoFixOption
	newID    func() string
}

func NewProcessReviewUseCase(
	reviewer ports.DocumentReviewer,
	queue ports.MessageQueue,
	options []domain.AutoFixOption,
) *ProcessReviewUseCase {
	return &ProcessReviewUseCase{
		reviewer: reviewer,
		queue:    queue,
		options:  options,
		newID:    uuid.NewString,
	}
}

func (uc *ProcessReviewUseCase) ProcessByID(ctx context.Context, docID string) error {
	// Worker sessions only live for one run.
	defer func() {
		_ = uc.reviewer.Reset(context.WithoutCancel(ctx), docID)
	}()

	if _, err := uc.load(ctx, docID); err != nil {
		return err
	}

	session, err := uc.applyAutoFix(ctx, docID)
	if err != nil {
		return err
	}

	exported, err := uc.export(ctx, docID)
	if err != nil {
		return err
	}

	return uc.publish(ctx, uc.buildEvent(session, exported.Filename))
}

func (uc *ProcessReviewUseCase) load(ctx context.Context, docID string) (*domain.Session, error) {
	session, err := uc.reviewer.Load(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	return session, nil
}

func (uc *ProcessReviewUseCase) applyAutoFix(ctx context.Context, docID string) (*domain.Session, error) {
	session, err := uc.reviewer.ApplyAutoFix(ctx, docID, uc.options)
	if err != nil {
		return nil, fmt.Errorf("apply auto-fix: %w", err)
	}
	return session, nil
}

func (uc *ProcessReviewUseCase) export(ctx context.Context, docID string) (*domain.ExportedReport, error) {
	exported, err := uc.reviewer.ExportReport(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("export report: %w", err)
	}
	return exported, nil
}

func (uc *ProcessReviewUseCase) publish(ctx context.Context, event domain.ReviewCompletedEvent) error {
	if err := uc.queue.PublishReviewCompleted(ctx, event); err != nil {
		return fmt.Errorf("publish review event: %w", err)
	}
	return nil
}

func (uc *ProcessReviewUseCase) buildEvent(session *domain.Session, reportKey string) domain.ReviewCompletedEvent {
	counts := domain.CountBySeverity(session.Compliance)
	event := domain.ReviewCompletedEvent{
		EventID:   uc.newID(),
		DocID:     session.DocID,
		Findings:  len(session.Compliance),
		Errors:    counts[domain.SeverityError],
		Warnings:  counts[domain.SeverityWarning],
		ReportKey: reportKey,
	}
	if session.Detail != nil {
		event.DocType = session.Detail.DocType
	}
	if headline, ok := domain.Headline(session.Compliance); ok {
		event.Headline = &headline
	}
	if session.Report != nil {
		event.GeneratedAt = session.Report.GeneratedAt
	}
	return event
}
