package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/core/ports"
	"github.com/inovadocs/trade-doc-review/internal/core/review"
)

const (
	statusMessageReady   = "Resultados listos."
	statusMessageSyncErr = "Error al sincronizar datos."
	statusMessageApplied = "Ajustes aplicados."
)

type ReviewOptions struct {
	ReportPrefix string
	Summary      review.SummaryOptions
}

// ReviewUseCase keeps one review session per document. Stored sessions are
// replaced wholesale under the lock and never mutated in place, so values
// handed out to callers stay consistent.
type ReviewUseCase struct {
	source  ports.DocumentSource
	storage ports.ObjectStorage

	reportPrefix string
	summaryOpts  review.SummaryOptions
	now          func() time.Time

	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewReviewUseCase(
	source ports.DocumentSource,
	storage ports.ObjectStorage,
	opts ReviewOptions,
) *ReviewUseCase {
	prefix := strings.TrimSpace(opts.ReportPrefix)
	if prefix == "" {
		prefix = review.DefaultReportPrefix
	}
	return &ReviewUseCase{
		source:       source,
		storage:      storage,
		reportPrefix: prefix,
		summaryOpts:  opts.Summary,
		now:          func() time.Time { return time.Now().UTC() },
		sessions:     make(map[string]domain.Session),
	}
}

// Evaluate reviews a caller-supplied bundle without touching any session.
func (uc *ReviewUseCase) Evaluate(
	_ context.Context,
	bundle domain.Bundle,
	options []domain.AutoFixOption,
) (*domain.Evaluation, error) {
	if bundle.Detail == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate", errors.New("document detail is required"))
	}
	detail := bundle.Detail

	insights := review.NormalizeInsights(bundle.Insights)
	compliance := review.ComputeCompliance(detail, bundle.TextBlocks, bundle.Entities, insights)
	plan := review.BuildAutoPlan(options, review.PlanState{
		DocID:      detail.ID,
		Entities:   bundle.Entities,
		TextBlocks: bundle.TextBlocks,
	})

	session := domain.NewSession(detail.ID)
	session.Status = detail.Status
	session.Detail = detail
	session.TextBlocks = nonNil(bundle.TextBlocks)
	session.Entities = nonNil(bundle.Entities)
	session.Keywords = nonNil(bundle.Keywords)
	session.Compliance = compliance
	session.Insights = insights
	session.AutoPlan = plan
	session.AutoApplied = len(plan) > 0

	return &domain.Evaluation{
		Compliance: compliance,
		Insights:   insights,
		AutoPlan:   plan,
		Report:     review.BuildReport(detail, compliance, plan, insights),
		Summary:    review.BuildSummary(session, uc.summaryOpts),
	}, nil
}

// Load refreshes the session of docID from the document source. A previously
// applied auto-fix plan is re-derived against the fresh data.
func (uc *ReviewUseCase) Load(ctx context.Context, docID string) (*domain.Session, error) {
	docID, err := requireDocID("load review", docID)
	if err != nil {
		return nil, err
	}

	bundle, err := uc.source.FetchBundle(ctx, docID)
	if err != nil {
		uc.markSyncFailed(docID, err)
		return nil, fmt.Errorf("fetch document bundle: %w", err)
	}
	if bundle == nil || bundle.Detail == nil {
		err := domain.WrapError(domain.ErrDocumentNotFound, "fetch document bundle", fmt.Errorf("id=%s: empty detail", docID))
		uc.markSyncFailed(docID, err)
		return nil, err
	}

	detail := bundle.Detail
	textBlocks := nonNil(bundle.TextBlocks)
	entities := nonNil(bundle.Entities)
	keywords := nonNil(bundle.Keywords)
	insights := review.NormalizeInsights(bundle.Insights)
	compliance := review.ComputeCompliance(detail, textBlocks, entities, insights)

	uc.mu.Lock()
	defer uc.mu.Unlock()

	next, ok := uc.sessions[docID]
	if !ok {
		next = domain.NewSession(docID)
	}
	if next.AutoApplied {
		next.AutoPlan = review.RecomputeAutoPlan(next.AutoPlan, detail, entities, textBlocks)
		next.Report = review.BuildReport(detail, compliance, next.AutoPlan, insights)
	}
	next.Detail = detail
	next.TextBlocks = textBlocks
	next.Entities = entities
	next.Keywords = keywords
	next.Compliance = compliance
	next.Insights = insights
	if detail.Status != "" {
		next.Status = detail.Status
	}
	next.StatusMessage = statusMessageReady
	next.LastError = ""
	next.LastUpdatedAt = domain.NewTimestamp(uc.now())

	uc.sessions[docID] = next
	return &next, nil
}

// markSyncFailed records a failed refresh. Unknown documents that the source
// reports as missing do not get a session.
func (uc *ReviewUseCase) markSyncFailed(docID string, cause error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	next, ok := uc.sessions[docID]
	if !ok {
		if domain.IsKind(cause, domain.ErrDocumentNotFound) {
			return
		}
		next = domain.NewSession(docID)
	}
	next.Status = domain.StatusError
	next.StatusMessage = statusMessageSyncErr
	next.LastError = cause.Error()
	uc.sessions[docID] = next
}

func (uc *ReviewUseCase) Session(_ context.Context, docID string) (*domain.Session, error) {
	session, err := uc.lookup("get session", docID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (uc *ReviewUseCase) Summary(_ context.Context, docID string) (*domain.SummaryView, error) {
	session, err := uc.lookup("build summary", docID)
	if err != nil {
		return nil, err
	}
	view := review.BuildSummary(session, uc.summaryOpts)
	return &view, nil
}

// ApplyAutoFix plans the selected corrections against the loaded document and
// builds the exportable report.
func (uc *ReviewUseCase) ApplyAutoFix(
	_ context.Context,
	docID string,
	options []domain.AutoFixOption,
) (*domain.Session, error) {
	docID, err := requireDocID("apply auto-fix", docID)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	next, ok := uc.sessions[docID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "apply auto-fix", fmt.Errorf("id=%s", docID))
	}
	if next.Detail == nil {
		return nil, domain.WrapError(domain.ErrReportNotReady, "apply auto-fix", fmt.Errorf("id=%s: document not loaded", docID))
	}

	next.AutoPlan = review.BuildAutoPlan(options, review.PlanState{
		DocID:      next.Detail.ID,
		Entities:   next.Entities,
		TextBlocks: next.TextBlocks,
	})
	next.AutoApplied = true
	next.Status = domain.StatusDone
	next.StatusMessage = statusMessageApplied
	next.Report = review.BuildReport(next.Detail, next.Compliance, next.AutoPlan, next.Insights)

	uc.sessions[docID] = next
	return &next, nil
}

// ExportReport renders the session report and stores it under its download name.
func (uc *ReviewUseCase) ExportReport(ctx context.Context, docID string) (*domain.ExportedReport, error) {
	session, err := uc.lookup("export report", docID)
	if err != nil {
		return nil, err
	}
	if session.Report == nil {
		return nil, domain.WrapError(domain.ErrReportNotReady, "export report", fmt.Errorf("id=%s: auto-fix not applied", session.DocID))
	}

	body, err := review.MarshalReport(session.Report)
	if err != nil {
		return nil, err
	}
	filename := review.ReportFilename(uc.reportPrefix, session.DocID)
	if err := uc.storage.Save(ctx, filename, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	return &domain.ExportedReport{Filename: filename, Body: body}, nil
}

// Reset drops the session of docID. Unknown documents are not an error.
func (uc *ReviewUseCase) Reset(_ context.Context, docID string) error {
	docID, err := requireDocID("reset review", docID)
	if err != nil {
		return err
	}
	uc.mu.Lock()
	delete(uc.sessions, docID)
	uc.mu.Unlock()
	return nil
}

// OpenReport reads a report exported earlier, e.g. by the worker, by its
// storage key.
func (uc *ReviewUseCase) OpenReport(ctx context.Context, key string) (io.ReadCloser, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open report", errors.New("report key is required"))
	}
	body, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open stored report: %w", err)
	}
	return body, nil
}

func (uc *ReviewUseCase) lookup(op, docID string) (domain.Session, error) {
	docID, err := requireDocID(op, docID)
	if err != nil {
		return domain.Session{}, err
	}
	uc.mu.RLock()
	session, ok := uc.sessions[docID]
	uc.mu.RUnlock()
	if !ok {
		return domain.Session{}, domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id=%s", docID))
	}
	return session, nil
}

func requireDocID(op, docID string) (string, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, op, errors.New("document id is required"))
	}
	return docID, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
