package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(res.Body)
	return string(body)
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/healthz":                    "/healthz",
		"/v1/documents/inv-1":         "/v1/documents/{document_id}",
		"/v1/documents/inv-1/review":  "/v1/documents/{document_id}/review",
		"/v1/documents/abc/report":    "/v1/documents/{document_id}/report",
		"/v1/reviews/evaluate":        "/v1/reviews/evaluate",
		"/v1/reports/acme-inv-1.json": "/v1/reports/{key}",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestHTTPMetricsRecordsRequestsAndReviews(t *testing.T) {
	m := NewHTTPServerMetrics("review-api")
	handler := m.Middleware("review-api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/documents/inv-9/summary", nil))

	m.RecordReview("review-api", domain.DocTypeBL, []domain.ComplianceFinding{
		{Severity: domain.SeverityError},
		{Severity: domain.SeverityError},
		{Severity: domain.SeverityWarning},
	}, nil)
	m.RecordReview("review-api", "cross_check", nil, domain.WrapError(domain.ErrTemporary, "load", errors.New("down")))
	m.RecordAutoFix("review-api", []domain.AutoPlanItem{{Option: domain.OptionEnsureIncoterm}})
	m.RecordReportExport("review-api", nil)
	m.ObserveSummaryLength("review-api", 300)

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`tdr_http_requests_total{method="GET",path="/v1/documents/{document_id}/summary",service="review-api",status="404"} 1`,
		`tdr_review_reviews_total{doc_type="bl",outcome="ok",service="review-api"} 1`,
		`tdr_review_reviews_total{doc_type="other",outcome="temporary",service="review-api"} 1`,
		`tdr_review_findings_total{service="review-api",severity="error"} 2`,
		`tdr_review_autofix_applied_total{option="ensure_incoterm",service="review-api"} 1`,
		`tdr_review_reports_exported_total{outcome="ok",service="review-api"} 1`,
		`tdr_review_summary_length_chars_count{service="review-api"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output:\n%s", want, body)
		}
	}
}

func TestWorkerMetricsOutcome(t *testing.T) {
	m := NewWorkerMetrics("review-worker")
	m.StartDocument()
	m.FinishDocument("review-worker", 10*time.Millisecond, domain.WrapError(domain.ErrDocumentNotFound, "load", errors.New("x")))
	m.StartDocument()
	m.FinishDocument("review-worker", 5*time.Millisecond, nil)

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`tdr_worker_document_review_total{outcome="not_found",service="review-worker"} 1`,
		`tdr_worker_document_review_total{outcome="ok",service="review-worker"} 1`,
		`tdr_worker_document_review_in_flight{service="review-worker"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output:\n%s", want, body)
		}
	}
}
