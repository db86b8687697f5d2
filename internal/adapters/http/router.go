package httpadapter

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/inovadocs/trade-doc-review/internal/config"
	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/core/ports"
	"github.com/inovadocs/trade-doc-review/internal/core/review"
	"github.com/inovadocs/trade-doc-review/internal/observability/metrics"
)

const (
	serviceName     = "review-api"
	maxRequestBytes = 8 << 20
)

type Router struct {
	cfg      config.Config
	reviewer ports.DocumentReviewer
	metrics  *metrics.HTTPServerMetrics
}

// NewRouter wires the review API. httpMetrics may be nil.
func NewRouter(
	cfg config.Config,
	reviewer ports.DocumentReviewer,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		reviewer: reviewer,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/reviews/evaluate", rt.evaluate)
	mux.HandleFunc("POST /v1/documents/{id}/review", rt.loadReview)
	mux.HandleFunc("GET /v1/documents/{id}/review", rt.getReview)
	mux.HandleFunc("DELETE /v1/documents/{id}/review", rt.resetReview)
	mux.HandleFunc("GET /v1/documents/{id}/summary", rt.getSummary)
	mux.HandleFunc("POST /v1/documents/{id}/autofix", rt.applyAutoFix)
	mux.HandleFunc("GET /v1/documents/{id}/report", rt.exportReport)
	mux.HandleFunc("GET /v1/reports/{key}", rt.storedReport)

	handler := backpressureMiddleware(
		mux,
		rt.cfg.APIMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
	)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) evaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		domain.Bundle
		AutoFixOptions []string `json:"autoFixOptions"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	evaluation, err := rt.reviewer.Evaluate(r.Context(), req.Bundle, review.ParseAutoFixOptions(req.AutoFixOptions))
	var docType domain.DocType
	if req.Detail != nil {
		docType = req.Detail.DocType
	}
	if err != nil {
		rt.recordReview(docType, nil, err)
		writeError(w, err)
		return
	}

	rt.recordReview(docType, evaluation.Compliance, nil)
	rt.recordAutoFix(evaluation.AutoPlan)
	rt.observeSummary(evaluation.Summary)
	writeJSON(w, http.StatusOK, evaluation)
}

func (rt *Router) loadReview(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	session, err := rt.reviewer.Load(r.Context(), docID)
	if err != nil {
		rt.recordReview("", nil, err)
		writeError(w, err)
		return
	}

	var docType domain.DocType
	if session.Detail != nil {
		docType = session.Detail.DocType
	}
	rt.recordReview(docType, session.Compliance, nil)
	slog.Info("review_loaded",
		"request_id", requestIDFromContext(r.Context()),
		"doc_id", session.DocID,
		"status", session.Status,
		"findings", len(session.Compliance),
	)
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) getReview(w http.ResponseWriter, r *http.Request) {
	session, err := rt.reviewer.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) resetReview(w http.ResponseWriter, r *http.Request) {
	if err := rt.reviewer.Reset(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) getSummary(w http.ResponseWriter, r *http.Request) {
	view, err := rt.reviewer.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	rt.observeSummary(*view)
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) applyAutoFix(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Options []string `json:"options"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := rt.reviewer.ApplyAutoFix(r.Context(), r.PathValue("id"), review.ParseAutoFixOptions(req.Options))
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordAutoFix(session.AutoPlan)
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	exported, err := rt.reviewer.ExportReport(r.Context(), r.PathValue("id"))
	if rt.metrics != nil {
		rt.metrics.RecordReportExport(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	setAttachmentHeaders(w, exported.Filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exported.Body)
}

func (rt *Router) storedReport(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	body, err := rt.reviewer.OpenReport(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	setAttachmentHeaders(w, key)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("report_stream_failed",
			"request_id", requestIDFromContext(r.Context()),
			"key", key,
			"error", err,
		)
	}
}

func setAttachmentHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (rt *Router) recordReview(docType domain.DocType, findings []domain.ComplianceFinding, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordReview(serviceName, docType, findings, err)
	}
}

func (rt *Router) recordAutoFix(plan []domain.AutoPlanItem) {
	if rt.metrics != nil {
		rt.metrics.RecordAutoFix(serviceName, plan)
	}
}

func (rt *Router) observeSummary(view domain.SummaryView) {
	if rt.metrics != nil {
		rt.metrics.ObserveSummaryLength(serviceName, utf8.RuneCountInString(view.TextSummary))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
