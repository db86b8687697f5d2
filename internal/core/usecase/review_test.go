package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/core/review"
)

type sourceFake struct {
	mu      sync.Mutex
	bundles map[string]*domain.Bundle
	err     error
	calls   int
}

func (f *sourceFake) FetchBundle(_ context.Context, docID string) (*domain.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	bundle, ok := f.bundles[docID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch bundle", errors.New("id="+docID))
	}
	copyBundle := *bundle
	return &copyBundle, nil
}

type storageFake struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.saved[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open report", fmt.Errorf("key=%s", key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func invoiceBundle() *domain.Bundle {
	return &domain.Bundle{
		Detail: &domain.DocumentDetail{
			ID:      "inv-1",
			Status:  domain.StatusDone,
			DocType: domain.DocTypeFacturaComercial,
		},
		TextBlocks: []domain.TextBlock{{Page: 1, Text: "FACTURA 5873. INCOTERM: FOB Valparaíso."}},
		Entities: []domain.Entity{
			{Type: domain.EntityIncoterm, Value: "FOB"},
			{Type: domain.EntityAmount, Value: "45200.00"},
		},
		Keywords: []domain.Keyword{{Keyword: "factura", Score: domain.ScoreOf(0.8)}},
		Insights: map[string]any{
			"recommendations": []any{"Adjuntar certificado de origen."},
		},
	}
}

func newReviewForTest(source *sourceFake, storage *storageFake) *ReviewUseCase {
	uc := NewReviewUseCase(source, storage, ReviewOptions{})
	uc.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	return uc
}

func TestEvaluateRequiresDetail(t *testing.T) {
	uc := newReviewForTest(&sourceFake{}, &storageFake{})
	_, err := uc.Evaluate(context.Background(), domain.Bundle{}, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEvaluateIsStateless(t *testing.T) {
	uc := newReviewForTest(&sourceFake{}, &storageFake{})

	eval, err := uc.Evaluate(context.Background(), *invoiceBundle(), []domain.AutoFixOption{domain.OptionFlagMissingFields})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(eval.Compliance) != 1 || eval.Compliance[0].Title != "HS Code no detectado" {
		t.Fatalf("unexpected compliance %+v", eval.Compliance)
	}
	if len(eval.AutoPlan) != 1 || eval.Report == nil {
		t.Fatalf("expected plan and report, got %+v", eval)
	}
	if len(eval.Summary.Adjustments) != 1 {
		t.Fatalf("expected adjustments rendered, got %v", eval.Summary.Adjustments)
	}
	if _, err := uc.Session(context.Background(), "inv-1"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected no session stored, got %v", err)
	}
}

func TestLoadBuildsSession(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	uc := newReviewForTest(source, &storageFake{})

	session, err := uc.Load(context.Background(), " inv-1 ")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if session.Status != domain.StatusDone || session.StatusMessage != "Resultados listos." {
		t.Fatalf("unexpected status %s / %q", session.Status, session.StatusMessage)
	}
	if len(session.Compliance) != 1 || session.Compliance[0].Severity != domain.SeverityError {
		t.Fatalf("unexpected compliance %+v", session.Compliance)
	}
	if len(session.Insights.Recommendations) != 1 {
		t.Fatalf("expected normalized insights, got %+v", session.Insights)
	}
	if session.LastUpdatedAt.IsZero() {
		t.Fatalf("expected lastUpdatedAt to be set")
	}
	if session.AutoApplied || session.Report != nil {
		t.Fatalf("expected no report before auto-fix")
	}

	stored, err := uc.Session(context.Background(), "inv-1")
	if err != nil || stored.Detail.ID != "inv-1" {
		t.Fatalf("expected stored session, got %+v, %v", stored, err)
	}
}

func TestLoadFailureMarksExistingSession(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	uc := newReviewForTest(source, &storageFake{})
	if _, err := uc.Load(context.Background(), "inv-1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	source.err = domain.WrapError(domain.ErrTemporary, "fetch", errors.New("backend down"))
	_, err := uc.Load(context.Background(), "inv-1")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}

	session, err := uc.Session(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if session.Status != domain.StatusError || session.StatusMessage != "Error al sincronizar datos." {
		t.Fatalf("unexpected failed session %s / %q", session.Status, session.StatusMessage)
	}
	if !strings.Contains(session.LastError, "backend down") {
		t.Fatalf("expected last error recorded, got %q", session.LastError)
	}
	if session.Detail == nil {
		t.Fatalf("expected previous data kept")
	}
}

func TestLoadUnknownDocumentDoesNotCreateSession(t *testing.T) {
	uc := newReviewForTest(&sourceFake{}, &storageFake{})
	_, err := uc.Load(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.Session(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected no session, got %v", err)
	}
}

func TestLoadRequiresDocID(t *testing.T) {
	uc := newReviewForTest(&sourceFake{}, &storageFake{})
	if _, err := uc.Load(context.Background(), "  "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestApplyAutoFixAndReload(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	uc := newReviewForTest(source, &storageFake{})
	ctx := context.Background()

	if _, err := uc.Load(ctx, "inv-1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	session, err := uc.ApplyAutoFix(ctx, "inv-1", []domain.AutoFixOption{domain.OptionFlagMissingFields})
	if err != nil {
		t.Fatalf("ApplyAutoFix() error = %v", err)
	}
	if !session.AutoApplied || session.Status != domain.StatusDone || session.StatusMessage != "Ajustes aplicados." {
		t.Fatalf("unexpected session after auto-fix %+v", session)
	}
	if session.Report == nil || len(session.Report.Adjustments) != 1 {
		t.Fatalf("expected report with one adjustment, got %+v", session.Report)
	}
	if !strings.Contains(session.AutoPlan[0].Detail, "hs_code") {
		t.Fatalf("expected hs_code flagged, got %q", session.AutoPlan[0].Detail)
	}

	refreshed := invoiceBundle()
	refreshed.Entities = append(refreshed.Entities,
		domain.Entity{Type: domain.EntityHSCode, Value: "0809.29"},
		domain.Entity{Type: domain.EntityContainer, Value: "MSCU1234567"},
		domain.Entity{Type: domain.EntityBLNumber, Value: "BL-1"},
	)
	source.bundles["inv-1"] = refreshed

	session, err = uc.Load(ctx, "inv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(session.AutoPlan) != 1 || session.AutoPlan[0].Detail != "Todos los campos obligatorios están presentes." {
		t.Fatalf("expected plan recomputed against fresh entities, got %+v", session.AutoPlan)
	}
	if session.Report == nil || len(session.Report.Compliance) != 0 {
		t.Fatalf("expected report rebuilt without findings, got %+v", session.Report)
	}
}

func TestApplyAutoFixUnknownDocument(t *testing.T) {
	uc := newReviewForTest(&sourceFake{}, &storageFake{})
	_, err := uc.ApplyAutoFix(context.Background(), "missing", domain.AutoFixOptions)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExportReport(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	storage := &storageFake{}
	uc := NewReviewUseCase(source, storage, ReviewOptions{ReportPrefix: "acme"})
	ctx := context.Background()

	if _, err := uc.Load(ctx, "inv-1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := uc.ExportReport(ctx, "inv-1"); !domain.IsKind(err, domain.ErrReportNotReady) {
		t.Fatalf("expected report not ready, got %v", err)
	}

	if _, err := uc.ApplyAutoFix(ctx, "inv-1", nil); err != nil {
		t.Fatalf("ApplyAutoFix() error = %v", err)
	}
	exported, err := uc.ExportReport(ctx, "inv-1")
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}
	if exported.Filename != "acme-inv-1.json" {
		t.Fatalf("unexpected filename %q", exported.Filename)
	}
	if string(storage.saved["acme-inv-1.json"]) != string(exported.Body) {
		t.Fatalf("expected stored body to match exported body")
	}
}

func TestOpenReportReadsStoredExport(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	storage := &storageFake{}
	uc := newReviewForTest(source, storage)
	ctx := context.Background()
	_, _ = uc.Load(ctx, "inv-1")
	_, _ = uc.ApplyAutoFix(ctx, "inv-1", nil)
	exported, err := uc.ExportReport(ctx, "inv-1")
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}

	body, err := uc.OpenReport(ctx, exported.Filename)
	if err != nil {
		t.Fatalf("OpenReport() error = %v", err)
	}
	defer body.Close()
	raw, _ := io.ReadAll(body)
	if !bytes.Equal(raw, exported.Body) {
		t.Fatalf("expected stored report body")
	}

	if _, err := uc.OpenReport(ctx, "missing.json"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.OpenReport(ctx, "  "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExportReportStorageFailure(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	uc := newReviewForTest(source, &storageFake{err: errors.New("disk full")})
	ctx := context.Background()
	_, _ = uc.Load(ctx, "inv-1")
	_, _ = uc.ApplyAutoFix(ctx, "inv-1", nil)

	if _, err := uc.ExportReport(ctx, "inv-1"); err == nil || !strings.Contains(err.Error(), "save report") {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestSummaryAndReset(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	uc := NewReviewUseCase(source, &storageFake{}, ReviewOptions{Summary: review.DefaultSummaryViewOptions()})
	ctx := context.Background()

	if _, err := uc.Load(ctx, "inv-1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	view, err := uc.Summary(ctx, "inv-1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if view.Meta[2].Value != "Factura comercial" {
		t.Fatalf("unexpected doc type meta %+v", view.Meta[2])
	}
	if view.TextSummary == "" {
		t.Fatalf("expected text summary")
	}

	if err := uc.Reset(ctx, "inv-1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := uc.Summary(ctx, "inv-1"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected session dropped, got %v", err)
	}
}

func TestConcurrentLoadsAreSafe(t *testing.T) {
	source := &sourceFake{bundles: map[string]*domain.Bundle{"inv-1": invoiceBundle()}}
	uc := newReviewForTest(source, &storageFake{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.Load(ctx, "inv-1")
			_, _ = uc.ApplyAutoFix(ctx, "inv-1", domain.AutoFixOptions)
			_, _ = uc.Summary(ctx, "inv-1")
		}()
	}
	wg.Wait()

	session, err := uc.Session(ctx, "inv-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if !session.AutoApplied || len(session.AutoPlan) != len(domain.AutoFixOptions) {
		t.Fatalf("expected full plan after concurrent runs, got %+v", session.AutoPlan)
	}
}
